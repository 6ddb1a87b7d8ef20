/*
Copyright 2018 Gravitational, Inc.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// package constants contains reserved names and keys shared between packages
// of the manifest engine
package constants

const (
	// ManifestName is the reserved name of the manifest file carried at the
	// root of every component's base directory
	ManifestName = "Nulecule"

	// ExternalDir is the subdirectory of a component's basepath that holds
	// materialized external children
	ExternalDir = "external"

	// ArtifactsDir is the default subdirectory holding provider artifact
	// source files referenced by relative path in the manifest
	ArtifactsDir = "artifacts"

	// ApplicationEntityPath is the path extracted from an external image's
	// root filesystem during unpack
	ApplicationEntityPath = "application-entity"

	// GeneralNamespace is the reserved answer-store group for cross-cutting
	// keys and the progenitor's own namespace
	GeneralNamespace = "general"

	// AnswersFile is the name of the on-disk answer file a caller may supply
	AnswersFile = "answers.conf"

	// AnswersRuntimeFile is the effective answer file written after a
	// successful run, and the only file "stop" reads from
	AnswersRuntimeFile = "answers.conf.gen"

	// AnswersSampleFile is the sample answer file written by fetch/genanswers
	AnswersSampleFile = "answers.conf.sample"

	// AnswersSampleFormat is the serialization format used for the sample
	// answer file
	AnswersSampleFormat = "ini"

	// LockPath is the host-wide lock file path guarding concurrent
	// invocations against the same cached filesystem state
	LockPath = "/run/lock/atomicapp.lock"

	// DefaultProvider is imputed into general.provider when unset
	DefaultProvider = "kubernetes"

	// DefaultNamespace is the cluster namespace assumed when none is supplied
	DefaultNamespace = "default"

	// RenderedPrefix is the leading character prepended to a rendered
	// artifact's basename, writing it as a sibling of its source
	RenderedPrefix = "."

	// ParamsKey is the manifest key naming an artifact's pointer-injection map
	ParamsKey = "params"
	// ResourceKey is the manifest key naming a single artifact resource path
	ResourceKey = "resource"
	// InheritKey is the manifest key naming a list of providers to inherit
	// artifacts from
	InheritKey = "inherit"

	// ProviderKey is the general answer key selecting the active provider
	ProviderKey = "provider"
	// NamespaceKey is the general answer key selecting the cluster namespace
	NamespaceKey = "namespace"
	// ProviderAPIKey is the general answer key for the provider API endpoint
	ProviderAPIKey = "provider-api"
	// ProviderAuthKey is the general answer key for the provider bearer token
	ProviderAuthKey = "provider-auth"
	// ProviderCAFileKey is the general answer key for the provider CA bundle path
	ProviderCAFileKey = "provider-cafile"
	// ProviderTLSVerifyKey is the general answer key toggling TLS verification
	ProviderTLSVerifyKey = "provider-tlsverify"
	// ProviderConfigKey is the general answer key for a provider config file path
	ProviderConfigKey = "provider-config"

	// InClusterHostEnvVar is the well-known in-cluster environment variable
	// whose presence triggers in-cluster extraction
	InClusterHostEnvVar = "KUBERNETES_SERVICE_HOST"

	// AppSpecEnvVar is the fallback APP_SPEC supplied by a container runtime label
	AppSpecEnvVar = "IMAGE"
	// ArgsEnvVar replaces the command line entirely when set
	ArgsEnvVar = "ATOMICAPP_ARGS"
	// AppendArgsEnvVar appends extra arguments to the command line
	AppendArgsEnvVar = "ATOMICAPP_APPEND_ARGS"

	// NoneDestination is the --destination sentinel requesting an ephemeral
	// temporary directory that is removed on completion
	NoneDestination = "none"

	// PersistentVolumeRequirement is the requirement kind satisfied by a
	// provider's persistent_storage operation
	PersistentVolumeRequirement = "persistentVolume"
	// HostAccessRequirement is the requirement kind satisfied by a
	// provider's host_access operation
	HostAccessRequirement = "hostAccess"

	// DockerVolumeMountPath is where the docker provider mounts a
	// persistentVolume requirement's named volume inside every container
	// the component runs
	DockerVolumeMountPath = "/var/lib/atomicapp/data"
)

// RequirementFunctions maps a manifest requirement kind to the name of the
// provider operation that satisfies it
var RequirementFunctions = map[string]string{
	PersistentVolumeRequirement: "persistent_storage",
	HostAccessRequirement:       "host_access",
}

// PersistentStorageAccessModes lists the access modes accepted by a
// persistentVolume requirement
var PersistentStorageAccessModes = []string{
	"ReadWriteOnce",
	"ReadOnlyMany",
	"ReadWriteMany",
}

// SupportedProviders is the closed, registry-time set of provider names the
// core knows how to dispatch to
var SupportedProviders = []string{
	"docker",
	"kubernetes",
	"openshift",
}
