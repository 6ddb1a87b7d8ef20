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

// package render implements the Artifact Renderer: JSON-pointer parameter
// injection followed by $VAR-style template substitution, producing a
// rendered sibling for every source artifact a provider consumes.
package render

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/atomicapp/atomicapp/lib/constants"
	"github.com/atomicapp/atomicapp/lib/manifest"

	"github.com/drone/envsubst/v2"
	"github.com/gravitational/trace"
	log "github.com/sirupsen/logrus"
)

// Context is the merged general + component-namespace values a single
// artifact is rendered against.
type Context map[string]string

// Provider renders every artifact registered for providerName, including
// artifacts reached through {inherit: [...]} references, and returns the
// rendered paths relative to basepath in resolution order.
func Provider(basepath string, artifacts map[string][]manifest.ArtifactRef, providerName string, ctx Context) ([]string, error) {
	refs, err := resolveRefs(artifacts, providerName, make(map[string]bool))
	if err != nil {
		return nil, trace.Wrap(err)
	}
	var rendered []string
	for _, ref := range refs {
		paths, err := renderRef(basepath, ref, ctx)
		if err != nil {
			return nil, trace.Wrap(err)
		}
		rendered = append(rendered, paths...)
	}
	return rendered, nil
}

// resolveRefs expands {inherit: [...]} references to the de-duplicated
// union of the providers they name, preserving first-seen order, per §4.3.
func resolveRefs(artifacts map[string][]manifest.ArtifactRef, providerName string, visiting map[string]bool) ([]manifest.ArtifactRef, error) {
	if visiting[providerName] {
		return nil, trace.BadParameter("artifact inheritance cycle involving provider %q", providerName)
	}
	visiting[providerName] = true
	defer delete(visiting, providerName)

	var out []manifest.ArtifactRef
	seen := make(map[string]bool)
	for _, ref := range artifacts[providerName] {
		if ref.IsInherit() {
			for _, parent := range ref.Inherit {
				expanded, err := resolveRefs(artifacts, parent, visiting)
				if err != nil {
					return nil, trace.Wrap(err)
				}
				for _, e := range expanded {
					if key := e.SourcePath(); !seen[key] {
						seen[key] = true
						out = append(out, e)
					}
				}
			}
			continue
		}
		if key := ref.SourcePath(); !seen[key] {
			seen[key] = true
			out = append(out, ref)
		}
	}
	return out, nil
}

// renderRef renders a single Path or Resource reference, expanding
// directories into their immediate non-hidden file children.
func renderRef(basepath string, ref manifest.ArtifactRef, ctx Context) ([]string, error) {
	src, err := sanitizedPath(basepath, ref.SourcePath())
	if err != nil {
		return nil, trace.Wrap(err)
	}
	info, err := os.Stat(src)
	if err != nil {
		return nil, trace.ConvertSystemError(err)
	}
	if !info.IsDir() {
		rel, err := renderFile(basepath, src, ref.Params, ctx)
		if err != nil {
			return nil, trace.Wrap(err)
		}
		return []string{rel}, nil
	}

	entries, err := os.ReadDir(src)
	if err != nil {
		return nil, trace.ConvertSystemError(err)
	}
	var rendered []string
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		rel, err := renderFile(basepath, filepath.Join(src, entry.Name()), nil, ctx)
		if err != nil {
			return nil, trace.Wrap(err)
		}
		rendered = append(rendered, rel)
	}
	if len(rendered) == 0 {
		return nil, trace.BadParameter("artifact directory %v has no renderable files", src)
	}
	return rendered, nil
}

// renderFile runs the three-step pipeline of §4.3 on one file: optional
// pointer injection, $VAR substitution, write to the rendered sibling path.
func renderFile(basepath, src string, params map[string][]string, ctx Context) (string, error) {
	data, err := os.ReadFile(src)
	if err != nil {
		return "", trace.ConvertSystemError(err)
	}

	if len(params) > 0 {
		injected, err := injectPointers(data, params)
		if err != nil {
			return "", trace.Wrap(err, "pointer injection into %v", src)
		}
		data = injected
	}

	substituted, err := substitute(string(data), ctx)
	if err != nil {
		return "", trace.Wrap(err, "substituting into %v", src)
	}

	dest := filepath.Join(filepath.Dir(src), constants.RenderedPrefix+filepath.Base(src))
	if err := os.WriteFile(dest, []byte(substituted), 0644); err != nil {
		return "", trace.ConvertSystemError(err)
	}

	rel, err := filepath.Rel(basepath, dest)
	if err != nil {
		return "", trace.Wrap(err)
	}
	return rel, nil
}

// substitute treats s as a $VAR-style template and resolves variables from
// ctx; an unresolved variable is left in the output untouched rather than
// failing the render, per §4.3.
func substitute(s string, ctx Context) (string, error) {
	return envsubst.Eval(s, func(key string) string {
		if v, ok := ctx[key]; ok {
			return v
		}
		log.Debugf("artifact template variable %q has no value, leaving it unexpanded.", key)
		return "$" + key
	})
}

// sanitizedPath joins basepath and rel, rejecting any result that escapes
// basepath, per §3 invariant 4.
func sanitizedPath(basepath, rel string) (string, error) {
	joined := filepath.Join(basepath, rel)
	cleanBase := filepath.Clean(basepath)
	if joined != cleanBase && !strings.HasPrefix(joined, cleanBase+string(filepath.Separator)) {
		return "", trace.BadParameter("artifact path %q escapes component basepath", rel)
	}
	return joined, nil
}
