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

package openshift

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
		{Group: "route.openshift.io", Version: "v1", Resource: "routes"}: "RouteList",
		{Version: "v1", Resource: "pods"}:                                "PodList",
	}
	return dynamicfake.NewSimpleDynamicClientWithCustomListKinds(scheme, gvrToKind)
}

func TestRunDispatchesRouteThroughEmbeddedProvider(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(base, "route.yaml"), []byte("apiVersion: route.openshift.io/v1\nkind: Route\nmetadata:\n  name: web\n"), 0644))

	client := newFakeClient()
	p := New(client)
	require.NoError(t, p.Init(context.Background(), map[string]string{constants.NamespaceKey: "default"}, base, false))
	require.NoError(t, p.Run(context.Background(), []string{"route.yaml"}))

	route, err := client.Resource(schema.GroupVersionResource{Group: "route.openshift.io", Version: "v1", Resource: "routes"}).
		Namespace("default").Get(context.Background(), "web", metav1.GetOptions{})
	require.NoError(t, err)
	require.Equal(t, "web", route.GetName())
}

func TestRunningOnOpenshiftFalseWithoutEnv(t *testing.T) {
	os.Unsetenv(constants.InClusterHostEnvVar)
	require.False(t, RunningOnOpenshift())
}
