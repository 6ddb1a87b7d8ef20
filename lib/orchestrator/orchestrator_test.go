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

package orchestrator

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/atomicapp/atomicapp/lib/answers"
	"github.com/atomicapp/atomicapp/lib/constants"
	"github.com/atomicapp/atomicapp/lib/provider"

	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	ran     [][]string
	stopped [][]string
}

func (f *fakeProvider) Init(context.Context, map[string]string, string, bool) error { return nil }
func (f *fakeProvider) Run(_ context.Context, artifacts []string) error {
	f.ran = append(f.ran, artifacts)
	return nil
}
func (f *fakeProvider) Stop(_ context.Context, artifacts []string) error {
	f.stopped = append(f.stopped, artifacts)
	return nil
}
func (f *fakeProvider) PersistentStorage(context.Context, string, string) error { return nil }
func (f *fakeProvider) HostAccess(context.Context, string) error               { return nil }

func writeHelloweb(t *testing.T, dir string) *fakeProvider {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, constants.ManifestName), []byte(`
id: helloweb
specversion: "1.0"
params:
  - name: port
    default: "8080"
artifacts:
  kubernetes:
    - artifacts/kubernetes/pod.yaml
`), 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "artifacts", "kubernetes"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "artifacts", "kubernetes", "pod.yaml"), []byte(`
apiVersion: v1
kind: Pod
metadata:
  name: helloweb
spec:
  containers:
    - name: web
      image: helloweb:latest
      ports:
        - containerPort: $port
`), 0644))
	return &fakeProvider{}
}

func newRegistry(p *fakeProvider) *provider.Registry {
	reg := provider.NewRegistry()
	reg.Register("kubernetes", func() provider.Provider { return p })
	return reg
}

func TestRunRendersResolvesAndDispatches(t *testing.T) {
	dir := t.TempDir()
	fp := writeHelloweb(t, dir)

	o := New(Options{Providers: newRegistry(fp)})
	err := o.Run(context.Background(), dir, "", "", map[string]string{constants.ProviderKey: "kubernetes"}, false, "", "", false)
	require.NoError(t, err)
	require.Len(t, fp.ran, 1)

	rendered, err := os.ReadFile(filepath.Join(dir, "artifacts", "kubernetes", ".pod.yaml"))
	require.NoError(t, err)
	require.Contains(t, string(rendered), "containerPort: 8080")

	_, err = os.Stat(filepath.Join(dir, constants.AnswersRuntimeFile))
	require.NoError(t, err)
}

func TestStopReadsRuntimeAnswersNotUserFile(t *testing.T) {
	dir := t.TempDir()
	fp := writeHelloweb(t, dir)
	o := New(Options{Providers: newRegistry(fp)})
	require.NoError(t, o.Run(context.Background(), dir, "", "", map[string]string{constants.ProviderKey: "kubernetes"}, false, "", "", false))

	// Mutate the original user answer file; stop must ignore it.
	require.NoError(t, os.WriteFile(filepath.Join(dir, constants.AnswersFile), []byte("[general]\nprovider = docker\n"), 0644))

	require.NoError(t, o.Stop(context.Background(), dir, ""))
	require.Len(t, fp.stopped, 1)
}

func TestFetchWritesSampleAnswerFile(t *testing.T) {
	dir := t.TempDir()
	writeHelloweb(t, dir)
	o := New(Options{})
	require.NoError(t, o.Fetch(context.Background(), dir, "", "", nil, false))

	store := answers.New(nil)
	require.NoError(t, store.LoadFromFile(filepath.Join(dir, constants.AnswersSampleFile), answers.FormatINI))
	// the progenitor's params are resolved under the general group
	v, ok := store.Get(constants.GeneralNamespace, "port")
	require.True(t, ok)
	require.Equal(t, "8080", v)
}

func TestGenanswersFailsIfFileExists(t *testing.T) {
	dir := t.TempDir()
	writeHelloweb(t, dir)
	require.NoError(t, os.WriteFile(constants.AnswersFile, []byte("existing"), 0644))
	defer os.Remove(constants.AnswersFile)

	o := New(Options{})
	err := o.Genanswers(context.Background(), dir, nil)
	require.Error(t, err)
}
