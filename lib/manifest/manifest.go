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

// package manifest defines the declarative application description format
// the manifest engine parses: one Manifest per component, carrying its
// parameters, artifacts-by-provider map, requirements and child graph.
package manifest

import "github.com/gravitational/trace"

// Manifest is the declarative file carried at the root of every component's
// base directory.
type Manifest struct {
	// ID is the application identifier, used as the namespace of its params
	ID string `json:"id"`
	// SpecVersion is the schema version this manifest was written against
	SpecVersion string `json:"specversion"`
	// Metadata is a free-form descriptive mapping
	Metadata map[string]string `json:"metadata,omitempty"`
	// Params is the ordered sequence of parameter definitions
	Params []Param `json:"params,omitempty"`
	// Requirements is an optional list of pre-conditions
	Requirements []Requirement `json:"requirements,omitempty"`
	// Graph is the ordered sequence of child component descriptors
	Graph []GraphEntry `json:"graph,omitempty"`
	// Artifacts maps provider name to a list of artifact references
	Artifacts map[string][]ArtifactRef `json:"artifacts,omitempty"`
}

// Param is a single parameter definition
type Param struct {
	// Name is unique within the component that declares it
	Name string `json:"name"`
	// Default is the value used when no answer is supplied
	Default *string `json:"default,omitempty"`
	// Description documents the parameter for interactive prompting
	Description string `json:"description,omitempty"`
	// Hidden requests a masked read when prompting interactively
	Hidden bool `json:"hidden,omitempty"`
}

// Requirement is a single pre-condition a component asks the orchestrator
// to satisfy via a provider operation before it is deployed
type Requirement struct {
	// Kind names the requirement, e.g. "persistentVolume"
	Kind string `json:"kind"`
	// Size is the requested volume size for persistentVolume requirements
	Size string `json:"size,omitempty"`
	// AccessMode is the requested access mode for persistentVolume requirements
	AccessMode string `json:"accessMode,omitempty"`
	// Path is the requested host path for hostAccess requirements
	Path string `json:"path,omitempty"`
}

// GraphEntry describes a single child component in the manifest's graph
type GraphEntry struct {
	// Name is unique among siblings
	Name string `json:"name"`
	// Source is a container image reference, e.g. "docker://repo:tag".
	// Its presence makes the descriptor an external child.
	Source string `json:"source,omitempty"`
	// Params overrides/extends the child's parameter list
	Params []Param `json:"params,omitempty"`
	// Artifacts overrides/extends the child's artifact map
	Artifacts map[string][]ArtifactRef `json:"artifacts,omitempty"`
	// Requirements overrides/extends the child's requirements
	Requirements []Requirement `json:"requirements,omitempty"`
}

// IsExternal reports whether this graph entry names an external child
func (g GraphEntry) IsExternal() bool {
	return g.Source != ""
}

// Validate checks the manifest's invariants beyond what parsing enforces
func Validate(m *Manifest) error {
	if m.ID == "" {
		return trace.BadParameter("manifest id must not be empty")
	}
	seen := make(map[string]bool, len(m.Params))
	for _, p := range m.Params {
		if p.Name == "" {
			return trace.BadParameter("manifest %q: param name must not be empty", m.ID)
		}
		if seen[p.Name] {
			return trace.BadParameter("manifest %q: duplicate param %q", m.ID, p.Name)
		}
		seen[p.Name] = true
	}
	names := make(map[string]bool, len(m.Graph))
	for _, g := range m.Graph {
		if g.Name == "" {
			return trace.BadParameter("manifest %q: graph entry name must not be empty", m.ID)
		}
		if names[g.Name] {
			return trace.BadParameter("manifest %q: duplicate child name %q", m.ID, g.Name)
		}
		names[g.Name] = true
	}
	for _, req := range m.Requirements {
		if req.Kind == "" {
			return trace.BadParameter("manifest %q: requirement kind must not be empty", m.ID)
		}
	}
	return nil
}
