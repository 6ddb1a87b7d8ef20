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

// package component holds the runtime Component node built by loading a
// Manifest, and the recursive loader that materializes a component graph
// from a local path, pulling external children on demand.
package component

import (
	"github.com/atomicapp/atomicapp/lib/manifest"
)

// Component is one node of the application graph: a loaded Manifest plus
// the bookkeeping the orchestrator needs to drive it through its lifecycle.
type Component struct {
	// ID is the application identifier from the Manifest
	ID string
	// Basepath is the local directory holding the Manifest and artifacts
	Basepath string
	// Namespace is the answer-store group for this component's params:
	// the fixed value "general" for the progenitor, ID for external
	// children, the graph descriptor's name for internal children.
	Namespace string
	// SpecVersion is the schema version the Manifest declared
	SpecVersion string
	// Params is the ordered parameter definitions this component exposes
	Params []manifest.Param
	// Artifacts maps provider name to its artifact references
	Artifacts map[string][]manifest.ArtifactRef
	// Requirements is the pre-conditions this component asks the
	// orchestrator to satisfy before deploying it
	Requirements []manifest.Requirement
	// Source is the image reference this component was fetched from; empty
	// for the progenitor and for internal (inline) children.
	Source string
	// RenderedArtifacts maps provider name to the rendered file paths
	// produced for it during run/stop, relative to Basepath.
	RenderedArtifacts map[string][]string
	// ChildIndices holds the graph.Graph indices of this component's
	// children, in manifest declaration order.
	ChildIndices []int

	// State tracks this component's position in the run state machine
	State State
}

// NodeID implements graph.Node
func (c *Component) NodeID() string {
	return c.ID
}

// IsExternal reports whether this component was fetched from a container
// image rather than declared inline in its parent's Manifest.
func (c *Component) IsExternal() bool {
	return c.Source != ""
}

// State is a Component's position in the run lifecycle state machine:
// CREATED -> CONFIG_RESOLVED -> RENDERED -> DEPLOYED, or -> FAILED from any
// non-terminal state.
type State int

const (
	// StateCreated is the initial state, set on graph insertion
	StateCreated State = iota
	// StateConfigResolved is set once resolve_for_component has run
	StateConfigResolved
	// StateRendered is set once artifacts have been rendered
	StateRendered
	// StateDeployed is the terminal success state
	StateDeployed
	// StateFailed is the terminal failure state
	StateFailed
)

// String names a State for logging
func (s State) String() string {
	switch s {
	case StateCreated:
		return "CREATED"
	case StateConfigResolved:
		return "CONFIG_RESOLVED"
	case StateRendered:
		return "RENDERED"
	case StateDeployed:
		return "DEPLOYED"
	case StateFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// FromManifest builds a Component's static fields (everything but
// ChildIndices and RenderedArtifacts, which the loader and renderer fill in
// later) from a parsed Manifest and the namespace it resolves to.
func FromManifest(m *manifest.Manifest, basepath, namespace, source string) *Component {
	return &Component{
		ID:                m.ID,
		Basepath:          basepath,
		Namespace:         namespace,
		SpecVersion:       m.SpecVersion,
		Params:            m.Params,
		Artifacts:         m.Artifacts,
		Requirements:      m.Requirements,
		Source:            source,
		RenderedArtifacts: make(map[string][]string),
	}
}
