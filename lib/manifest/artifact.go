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

package manifest

import (
	"encoding/json"

	"github.com/gravitational/trace"
	"sigs.k8s.io/yaml"
)

// ArtifactRef is one entry of a provider's artifact list. It is a sum type
// per spec.md §9's design note: a manifest artifact is either a bare path,
// an {inherit: [...]} reuse of another provider's artifacts, or a
// {resource: path, params?: ...} reference with pointer-injection targets.
type ArtifactRef struct {
	// Path is set when the manifest spelled this entry as a plain string
	Path string
	// Inherit is set when the manifest spelled this entry as {inherit: [...]}
	Inherit []string
	// Resource is set when the manifest spelled this entry as {resource: ...}
	Resource string
	// Params maps a parameter name to the JSON pointers it should be
	// injected at, valid only alongside Resource
	Params map[string][]string
}

// IsPath reports whether this reference is a bare path entry
func (a ArtifactRef) IsPath() bool {
	return a.Path != "" && a.Resource == "" && a.Inherit == nil
}

// IsInherit reports whether this reference reuses another provider's artifacts
func (a ArtifactRef) IsInherit() bool {
	return a.Inherit != nil
}

// IsResource reports whether this reference carries a {resource: ...} form
func (a ArtifactRef) IsResource() bool {
	return a.Resource != ""
}

// SourcePath returns the filesystem path this reference ultimately points
// at, for the Path and Resource variants; it is meaningless for Inherit.
func (a ArtifactRef) SourcePath() string {
	if a.Resource != "" {
		return a.Resource
	}
	return a.Path
}

// artifactRefObject mirrors the object shapes {inherit: [...]} and
// {resource: ..., params: ...} for JSON/YAML decoding.
type artifactRefObject struct {
	Inherit  []string            `json:"inherit,omitempty"`
	Resource string              `json:"resource,omitempty"`
	Params   map[string][]string `json:"params,omitempty"`
}

// UnmarshalJSON dispatches on the artifact reference's shape: a JSON string
// is a bare path, an object is either an inherit or a resource reference.
func (a *ArtifactRef) UnmarshalJSON(data []byte) error {
	var path string
	if err := json.Unmarshal(data, &path); err == nil {
		*a = ArtifactRef{Path: path}
		return nil
	}
	var obj artifactRefObject
	if err := json.Unmarshal(data, &obj); err != nil {
		return trace.BadParameter("invalid artifact reference: %v", err)
	}
	if obj.Inherit == nil && obj.Resource == "" {
		return trace.BadParameter("artifact reference must be a path, {inherit: [...]}, or {resource: ...}")
	}
	*a = ArtifactRef{Inherit: obj.Inherit, Resource: obj.Resource, Params: obj.Params}
	return nil
}

// MarshalJSON re-serializes the reference in its original shape
func (a ArtifactRef) MarshalJSON() ([]byte, error) {
	switch {
	case a.IsInherit():
		return json.Marshal(artifactRefObject{Inherit: a.Inherit})
	case a.IsResource():
		return json.Marshal(artifactRefObject{Resource: a.Resource, Params: a.Params})
	default:
		return json.Marshal(a.Path)
	}
}

// ParseArtifactRefYAML parses a single manifest artifact entry from YAML,
// routing through sigs.k8s.io/yaml the way the rest of the manifest engine
// converts YAML to JSON before unmarshaling.
func ParseArtifactRefYAML(data []byte) (*ArtifactRef, error) {
	jsonData, err := yaml.YAMLToJSON(data)
	if err != nil {
		return nil, trace.Wrap(err)
	}
	var ref ArtifactRef
	if err := json.Unmarshal(jsonData, &ref); err != nil {
		return nil, trace.Wrap(err)
	}
	return &ref, nil
}
