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

package component

import (
	"context"
	"os"
	"path/filepath"

	"github.com/atomicapp/atomicapp/lib/constants"
	"github.com/atomicapp/atomicapp/lib/graph"
	"github.com/atomicapp/atomicapp/lib/manifest"

	"github.com/gravitational/trace"
	log "github.com/sirupsen/logrus"
)

// Extractor materializes an external child's basepath from its source image,
// the contract lib/source.Source satisfies. Declared here rather than
// imported from lib/source to keep the dependency graph: loader depends on
// the narrow capability it needs, not the whole container-source package.
type Extractor interface {
	// Extract pulls image and copies constants.ApplicationEntityPath out of
	// it into dest. It always (re)materializes dest; ensureExtracted skips
	// the call when dest already holds a Manifest and update is false.
	Extract(ctx context.Context, image, dest string, update bool) error
}

// Options configures a graph Build
type Options struct {
	// Extractor fetches external children; required when Unpack is true
	Extractor Extractor
	// Unpack, when true, fetches external children that are not already
	// materialized on disk. fetch/run/genanswers set this; stop does not
	// (§4.6: "Build the graph without pulling; it must already be unpacked").
	Unpack bool
	// Update forces re-extraction of already-materialized external children
	Update bool
}

// Build parses the Manifest at basepath and recursively materializes its
// full component graph, returning the graph and the progenitor's index.
func Build(ctx context.Context, basepath string, opts Options) (*graph.Graph, int, error) {
	g := graph.New()
	root, err := load(ctx, g, basepath, constants.GeneralNamespace, "", opts, map[string]bool{})
	if err != nil {
		return nil, 0, trace.Wrap(err)
	}
	return g, root, nil
}

// load parses the Manifest at basepath, adds it to g, recurses into its
// children, and returns the new node's index. ancestors holds the external
// sources on the current recursion path, so a self-referencing source is
// caught before it recurses/extracts unboundedly, per §3 invariant 6.
func load(ctx context.Context, g *graph.Graph, basepath, namespace, source string, opts Options, ancestors map[string]bool) (int, error) {
	manifestPath := filepath.Join(basepath, constants.ManifestName)
	m, err := manifest.ParseFile(manifestPath)
	if err != nil {
		return 0, trace.Wrap(err)
	}
	if source != "" {
		// external child: namespace is the child's own id, per §4.4
		namespace = m.ID
	}
	c := FromManifest(m, basepath, namespace, source)
	idx := g.AddNode(c)

	for _, entry := range m.Graph {
		childIdx, err := loadChild(ctx, g, basepath, entry, opts, ancestors)
		if err != nil {
			return 0, trace.Wrap(err, "loading child %q of %q", entry.Name, m.ID)
		}
		c.ChildIndices = append(c.ChildIndices, childIdx)
		if err := g.AddEdge(idx, childIdx); err != nil {
			return 0, trace.Wrap(err)
		}
	}
	return idx, nil
}

// loadChild materializes one graph entry: external children are fetched (if
// needed) into basepath/external/<name> and parsed from there; internal
// children are constructed directly from the descriptor, sharing the
// parent's basepath.
func loadChild(ctx context.Context, g *graph.Graph, parentBasepath string, entry manifest.GraphEntry, opts Options, ancestors map[string]bool) (int, error) {
	if entry.IsExternal() {
		if ancestors[entry.Source] {
			return 0, trace.BadParameter("cycle detected: %q is its own transitive dependency", entry.Source)
		}
		ancestors[entry.Source] = true
		defer delete(ancestors, entry.Source)

		childBasepath := filepath.Join(parentBasepath, constants.ExternalDir, entry.Name)
		if opts.Unpack {
			if err := ensureExtracted(ctx, opts.Extractor, entry.Source, childBasepath, opts.Update); err != nil {
				return 0, trace.Wrap(err)
			}
		}
		return load(ctx, g, childBasepath, "", entry.Source, opts, ancestors)
	}

	c := &Component{
		ID:                entry.Name,
		Basepath:          parentBasepath,
		Namespace:         entry.Name,
		Params:            entry.Params,
		Artifacts:         entry.Artifacts,
		Requirements:      entry.Requirements,
		RenderedArtifacts: make(map[string][]string),
	}
	return g.AddNode(c), nil
}

// ensureExtracted fetches an external child unless its basepath already
// carries a Manifest and the caller did not request a forced update.
func ensureExtracted(ctx context.Context, extractor Extractor, source, dest string, update bool) error {
	if extractor == nil {
		return trace.BadParameter("unpack requested but no Extractor configured")
	}
	manifestPath := filepath.Join(dest, constants.ManifestName)
	if !update {
		if info, err := os.Stat(manifestPath); err == nil && !info.IsDir() {
			log.Debugf("%v already materialized, skipping extract.", dest)
			return nil
		}
	}
	return trace.Wrap(extractor.Extract(ctx, source, dest, update))
}
