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

package render

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/atomicapp/atomicapp/lib/manifest"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestProviderSubstitutesVariable(t *testing.T) {
	base := t.TempDir()
	writeFile(t, filepath.Join(base, "artifacts", "kubernetes", "pod.yaml"), "port: $port\n")

	artifacts := map[string][]manifest.ArtifactRef{
		"kubernetes": {{Path: "artifacts/kubernetes/pod.yaml"}},
	}
	rendered, err := Provider(base, artifacts, "kubernetes", Context{"port": "8080"})
	require.NoError(t, err)
	require.Equal(t, []string{"artifacts/kubernetes/.pod.yaml"}, rendered)

	out, err := os.ReadFile(filepath.Join(base, "artifacts", "kubernetes", ".pod.yaml"))
	require.NoError(t, err)
	require.Contains(t, string(out), "8080")
}

func TestProviderLeavesUnknownVariableIntact(t *testing.T) {
	base := t.TempDir()
	writeFile(t, filepath.Join(base, "pod.yaml"), "port: $port\nhost: $unknownvar\n")
	artifacts := map[string][]manifest.ArtifactRef{"kubernetes": {{Path: "pod.yaml"}}}

	_, err := Provider(base, artifacts, "kubernetes", Context{"port": "8080"})
	require.NoError(t, err)

	out, err := os.ReadFile(filepath.Join(base, ".pod.yaml"))
	require.NoError(t, err)
	require.Contains(t, string(out), "$unknownvar")
}

func TestProviderPointerInjection(t *testing.T) {
	base := t.TempDir()
	writeFile(t, filepath.Join(base, "deploy.yaml"), "spec:\n  template:\n    spec:\n      containers:\n      - image: placeholder\n")

	artifacts := map[string][]manifest.ArtifactRef{
		"kubernetes": {{
			Resource: "deploy.yaml",
			Params:   map[string][]string{"image_tag": {"/spec/template/spec/containers/0/image"}},
		}},
	}
	_, err := Provider(base, artifacts, "kubernetes", Context{"image_tag": "myrepo/app:2.0"})
	require.NoError(t, err)

	out, err := os.ReadFile(filepath.Join(base, ".deploy.yaml"))
	require.NoError(t, err)
	require.Contains(t, string(out), "myrepo/app:2.0")
}

func TestProviderInherit(t *testing.T) {
	base := t.TempDir()
	writeFile(t, filepath.Join(base, "pod.yaml"), "x: 1\n")

	artifacts := map[string][]manifest.ArtifactRef{
		"kubernetes": {{Path: "pod.yaml"}},
		"openshift":  {{Inherit: []string{"kubernetes"}}},
	}
	rendered, err := Provider(base, artifacts, "openshift", Context{})
	require.NoError(t, err)
	require.Equal(t, []string{".pod.yaml"}, rendered)
}

func TestProviderEmptyDirectoryFails(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(base, "empty"), 0755))
	artifacts := map[string][]manifest.ArtifactRef{"kubernetes": {{Path: "empty"}}}

	_, err := Provider(base, artifacts, "kubernetes", Context{})
	require.Error(t, err)
}

func TestProviderRejectsPathEscape(t *testing.T) {
	base := t.TempDir()
	artifacts := map[string][]manifest.ArtifactRef{"kubernetes": {{Path: "../../etc/passwd"}}}

	_, err := Provider(base, artifacts, "kubernetes", Context{})
	require.Error(t, err)
}

func TestProviderIdempotent(t *testing.T) {
	base := t.TempDir()
	writeFile(t, filepath.Join(base, "pod.yaml"), "port: $port\n")
	artifacts := map[string][]manifest.ArtifactRef{"kubernetes": {{Path: "pod.yaml"}}}

	_, err := Provider(base, artifacts, "kubernetes", Context{"port": "8080"})
	require.NoError(t, err)
	first, err := os.ReadFile(filepath.Join(base, ".pod.yaml"))
	require.NoError(t, err)

	_, err = Provider(base, artifacts, "kubernetes", Context{"port": "8080"})
	require.NoError(t, err)
	second, err := os.ReadFile(filepath.Join(base, ".pod.yaml"))
	require.NoError(t, err)

	require.Equal(t, first, second)
}
