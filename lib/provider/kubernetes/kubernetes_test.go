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

package kubernetes

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/atomicapp/atomicapp/lib/constants"

	"github.com/stretchr/testify/require"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	dynamicfake "k8s.io/client-go/dynamic/fake"
)

func newFakeClient() *dynamicfake.FakeDynamicClient {
	scheme := runtime.NewScheme()
	gvrToKind := map[schema.GroupVersionResource]string{
		{Version: "v1", Resource: "pods"}:     "PodList",
		{Version: "v1", Resource: "services"}: "ServiceList",
	}
	return dynamicfake.NewSimpleDynamicClientWithCustomListKinds(scheme, gvrToKind)
}

func TestRunCreatesObjectsInPrecedenceOrder(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(base, "pod.yaml"), []byte("apiVersion: v1\nkind: Pod\nmetadata:\n  name: web\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(base, "svc.yaml"), []byte("apiVersion: v1\nkind: Service\nmetadata:\n  name: web-svc\n"), 0644))

	client := newFakeClient()
	p := New(client)
	require.NoError(t, p.Init(context.Background(), map[string]string{constants.NamespaceKey: "default"}, base, false))
	require.NoError(t, p.Run(context.Background(), []string{"pod.yaml", "svc.yaml"}))

	// the Service is created before the Pod even though pod.yaml comes first
	actions := client.Actions()
	require.GreaterOrEqual(t, len(actions), 2)
	require.Equal(t, "services", actions[0].GetResource().Resource)
	require.Equal(t, "pods", actions[1].GetResource().Resource)

	svc, err := client.Resource(gvrByKind["Service"]).Namespace("default").Get(context.Background(), "web-svc", metav1.GetOptions{})
	require.NoError(t, err)
	require.Equal(t, "web-svc", svc.GetName())

	pod, err := client.Resource(gvrByKind["Pod"]).Namespace("default").Get(context.Background(), "web", metav1.GetOptions{})
	require.NoError(t, err)
	require.Equal(t, "web", pod.GetName())
}

func TestLoadObjectMissingKindFails(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(base, "bad.yaml"), []byte("apiVersion: v1\n"), 0644))
	_, err := loadObject(base, "bad.yaml")
	require.Error(t, err)
}
