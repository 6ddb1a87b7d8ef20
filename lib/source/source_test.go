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

package source

import (
	"archive/tar"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	dockerapi "github.com/fsouza/go-dockerclient"
	"github.com/stretchr/testify/require"
)

type fakeDockerClient struct {
	pulls       []dockerapi.PullImageOptions
	created     []dockerapi.CreateContainerOptions
	removed     []string
	archiveData []byte
}

func (f *fakeDockerClient) PullImage(opts dockerapi.PullImageOptions, auth dockerapi.AuthConfiguration) error {
	f.pulls = append(f.pulls, opts)
	return nil
}

func (f *fakeDockerClient) CreateContainer(opts dockerapi.CreateContainerOptions) (*dockerapi.Container, error) {
	f.created = append(f.created, opts)
	return &dockerapi.Container{ID: "fake-container"}, nil
}

func (f *fakeDockerClient) DownloadFromContainer(id string, opts dockerapi.DownloadFromContainerOptions) error {
	_, err := opts.OutputStream.Write(f.archiveData)
	return err
}

func (f *fakeDockerClient) RemoveContainer(opts dockerapi.RemoveContainerOptions) error {
	f.removed = append(f.removed, opts.ID)
	return nil
}

func buildTar(t *testing.T, root string, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	for name, content := range files {
		hdr := &tar.Header{Name: filepath.Join(root, name), Mode: 0644, Size: int64(len(content))}
		require.NoError(t, tw.WriteHeader(hdr))
		_, err := tw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	return buf.Bytes()
}

func TestExtractPullsAndUntars(t *testing.T) {
	client := &fakeDockerClient{
		archiveData: buildTar(t, "application-entity", map[string]string{"Nulecule": "id: db\n"}),
	}
	s := New(client, nil, false)
	dest := t.TempDir()

	require.NoError(t, s.Extract(context.Background(), "registry/db:1", dest, false))
	require.Len(t, client.pulls, 1)
	require.Equal(t, "registry/db", client.pulls[0].Repository)
	require.Equal(t, "1", client.pulls[0].Tag)
	require.Len(t, client.created, 1)
	require.Equal(t, []string{"fake-container"}, client.removed)

	data, err := os.ReadFile(filepath.Join(dest, "Nulecule"))
	require.NoError(t, err)
	require.Equal(t, "id: db\n", string(data))
}

func TestExtractPullsOncePerImage(t *testing.T) {
	client := &fakeDockerClient{archiveData: buildTar(t, "application-entity", map[string]string{"Nulecule": "id: db\n"})}
	s := New(client, nil, false)

	require.NoError(t, s.Extract(context.Background(), "registry/db:1", t.TempDir(), false))
	require.NoError(t, s.Extract(context.Background(), "registry/db:1", t.TempDir(), false))
	require.Len(t, client.pulls, 1)
}

func TestExtractDryRunSkipsSideEffects(t *testing.T) {
	client := &fakeDockerClient{}
	s := New(client, nil, true)
	require.NoError(t, s.Extract(context.Background(), "registry/db:1", t.TempDir(), false))
	require.Empty(t, client.pulls)
	require.Empty(t, client.created)
}

func TestRunningInsideClusterFalseWithoutEnv(t *testing.T) {
	os.Unsetenv("KUBERNETES_SERVICE_HOST")
	require.False(t, RunningInsideCluster())
}
