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

// package loc parses the image references a manifest uses to name an
// external component's source.
package loc

import (
	"strings"

	"github.com/distribution/reference"
	"github.com/gravitational/trace"
)

const dockerScheme = "docker://"

// ImageRef identifies the container image backing an external component.
// A manifest spells it as "docker://repo:tag" or a bare "repo:tag".
type ImageRef struct {
	// Named is the parsed, normalized repository reference
	Named reference.Named
	// Raw is the reference exactly as it appeared in the manifest
	Raw string
}

// ParseImageRef parses a manifest "source" string into an ImageRef
func ParseImageRef(source string) (*ImageRef, error) {
	if source == "" {
		return nil, trace.BadParameter("image reference must not be empty")
	}
	trimmed := strings.TrimPrefix(source, dockerScheme)
	named, err := reference.ParseNormalizedNamed(trimmed)
	if err != nil {
		return nil, trace.BadParameter("invalid image reference %q: %v", source, err)
	}
	return &ImageRef{Named: named, Raw: source}, nil
}

// String returns the normalized "repo:tag" form of the reference
func (r ImageRef) String() string {
	return r.Named.String()
}

// Repository returns the repository path without tag or digest
func (r ImageRef) Repository() string {
	return r.Named.Name()
}

// Tag returns the tag component, or "latest" when the reference carries none
func (r ImageRef) Tag() string {
	if tagged, ok := r.Named.(reference.Tagged); ok {
		return tagged.Tag()
	}
	return "latest"
}

// IsEqualTo compares two image references by their normalized form
func (r ImageRef) IsEqualTo(other ImageRef) bool {
	return r.Named.String() == other.Named.String()
}
