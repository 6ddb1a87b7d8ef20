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

// package provider defines the plug-in contract every deployment target
// (container engine, Kubernetes, OpenShift) implements, and a name-keyed
// registry the orchestrator resolves general.provider against, per §4.5.
package provider

import (
	"context"

	"github.com/gravitational/trace"
)

// Provider is the lifecycle contract the orchestrator drives every
// registered plug-in through.
type Provider interface {
	// Init records the configuration (namespace, basepath, dry-run flag)
	// before any artifact is applied. The built-in providers perform no API
	// endpoint, credential, CA trust or namespace-existence check here.
	Init(ctx context.Context, config map[string]string, basepath string, dryrun bool) error
	// Run applies the rendered artifacts, failing fast on the first error;
	// no rollback is attempted. A provider may reorder them by kind
	// precedence (the kubernetes provider does).
	Run(ctx context.Context, artifacts []string) error
	// Stop undeploys each rendered artifact, cascading deletion of any
	// resources the provider manages hierarchically.
	Stop(ctx context.Context, artifacts []string) error
	// PersistentStorage satisfies a persistentVolume requirement
	PersistentStorage(ctx context.Context, size, accessMode string) error
	// HostAccess satisfies a hostAccess requirement
	HostAccess(ctx context.Context, path string) error
}

// Factory constructs a Provider instance on demand, so the registry can
// defer connecting to a backend until a provider is actually selected.
type Factory func() Provider

// Registry maps provider names to factories
type Registry struct {
	factories map[string]Factory
}

// NewRegistry creates an empty Registry
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a provider factory under name, replacing any existing
// registration for the same name.
func (r *Registry) Register(name string, factory Factory) {
	r.factories[name] = factory
}

// Get constructs the provider registered under name
func (r *Registry) Get(name string) (Provider, error) {
	factory, ok := r.factories[name]
	if !ok {
		return nil, trace.NotFound("no provider registered under %q", name)
	}
	return factory(), nil
}

// Names lists the registered provider names
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	return names
}
