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
	"testing"

	"github.com/atomicapp/atomicapp/lib/constants"

	"github.com/stretchr/testify/require"
)

type fakeExtractor struct {
	calls []string
}

func (f *fakeExtractor) Extract(_ context.Context, image, dest string, update bool) error {
	f.calls = append(f.calls, image)
	manifestYAML := "id: db\nspecversion: \"1.0\"\n"
	if err := os.MkdirAll(dest, 0755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dest, constants.ManifestName), []byte(manifestYAML), 0644)
}

func writeManifest(t *testing.T, dir, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, constants.ManifestName), []byte(content), 0644))
}

func TestBuildInternalChild(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, `
id: helloweb
specversion: "1.0"
graph:
  - name: sidecar
    params:
      - name: port
`)
	g, rootIdx, err := Build(context.Background(), root, Options{})
	require.NoError(t, err)
	require.Equal(t, 2, g.Len())

	rootNode := g.Node(rootIdx).(*Component)
	require.Equal(t, "helloweb", rootNode.ID)
	require.Equal(t, constants.GeneralNamespace, rootNode.Namespace)
	require.Len(t, rootNode.ChildIndices, 1)

	child := g.Node(rootNode.ChildIndices[0]).(*Component)
	require.Equal(t, "sidecar", child.ID)
	require.Equal(t, "sidecar", child.Namespace)
	require.Equal(t, root, child.Basepath)
	require.False(t, child.IsExternal())
}

func TestBuildExternalChildFetches(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, `
id: app
specversion: "1.0"
graph:
  - name: db
    source: docker://registry/db:1
`)
	extractor := &fakeExtractor{}
	g, rootIdx, err := Build(context.Background(), root, Options{Extractor: extractor, Unpack: true})
	require.NoError(t, err)
	require.Equal(t, []string{"docker://registry/db:1"}, extractor.calls)

	rootNode := g.Node(rootIdx).(*Component)
	child := g.Node(rootNode.ChildIndices[0]).(*Component)
	require.Equal(t, "db", child.ID)
	require.Equal(t, "db", child.Namespace)
	require.True(t, child.IsExternal())
	require.Equal(t, filepath.Join(root, constants.ExternalDir, "db"), child.Basepath)
}

// selfReferencingExtractor writes a manifest that declares a child sourced
// from the same image it was itself extracted from, simulating an image
// whose transitive dependency graph points back to itself.
type selfReferencingExtractor struct{}

func (selfReferencingExtractor) Extract(_ context.Context, image, dest string, _ bool) error {
	manifestYAML := "id: a\nspecversion: \"1.0\"\ngraph:\n  - name: a\n    source: " + image + "\n"
	if err := os.MkdirAll(dest, 0755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dest, constants.ManifestName), []byte(manifestYAML), 0644)
}

func TestBuildDetectsSelfReferencingSource(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, `
id: app
specversion: "1.0"
graph:
  - name: a
    source: docker://registry/a:1
`)
	_, _, err := Build(context.Background(), root, Options{Extractor: selfReferencingExtractor{}, Unpack: true})
	require.Error(t, err)
	require.Contains(t, err.Error(), "cycle detected")
}

func TestBuildWithoutUnpackSkipsExtract(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, `
id: app
specversion: "1.0"
graph:
  - name: db
    source: docker://registry/db:1
`)
	// pre-materialize so a no-unpack build (stop) can still load it
	writeManifest(t, filepath.Join(root, constants.ExternalDir, "db"), "id: db\nspecversion: \"1.0\"\n")

	_, rootIdx, err := Build(context.Background(), root, Options{Unpack: false})
	require.NoError(t, err)
	_ = rootIdx
}
