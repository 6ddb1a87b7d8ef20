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

// package defaults contains tunables that are not expected to change
// across environments
package defaults

import "time"

const (
	// DockerEngineURL is the default endpoint for the local docker engine
	DockerEngineURL = "unix:///var/run/docker.sock"

	// DockerClientTimeout bounds a single docker API call
	DockerClientTimeout = 2 * time.Minute

	// ContainerEntrypoint is the no-op entrypoint used for the transient
	// container created to extract a path from an image's root filesystem
	ContainerEntrypoint = "/bin/true"

	// InClusterAPIProbePath is the well-known API path probed to confirm
	// cluster API reachability from inside a pod
	InClusterAPIProbePath = "/version"

	// OpenshiftAPIProbePath is probed in addition to InClusterAPIProbePath
	// to distinguish a plain Kubernetes cluster from OpenShift
	OpenshiftAPIProbePath = "/oapi"

	// InClusterProbeTimeout bounds the in-cluster API reachability probe
	InClusterProbeTimeout = 5 * time.Second

	// ProviderRequestTimeout bounds a single provider HTTP(S) call
	ProviderRequestTimeout = 30 * time.Second

	// TempDirPrefix prefixes directories created for "--destination none"
	TempDirPrefix = "atomicapp-"

	// MaxParseContextLines is the number of source lines surfaced around a
	// manifest parse error
	MaxParseContextLines = 3

	// StatusAddr is the address the read-only status endpoint listens on
	// when it is enabled
	StatusAddr = ":8080"
)
