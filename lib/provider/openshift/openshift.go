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

// package openshift implements the Provider contract against an OpenShift
// cluster. It reuses the Kubernetes provider's dynamic-client dispatch
// logic wholesale and extends it with OpenShift-specific kinds (Route,
// DeploymentConfig) that an artifact author may use in place of, or
// alongside, the plain Kubernetes ones.
package openshift

import (
	"net/http"
	"os"

	"github.com/atomicapp/atomicapp/lib/constants"
	"github.com/atomicapp/atomicapp/lib/defaults"
	"github.com/atomicapp/atomicapp/lib/provider/kubernetes"

	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/client-go/dynamic"
)

// Provider implements provider.Provider against an OpenShift cluster by
// embedding the Kubernetes provider and registering the additional kinds
// OpenShift artifacts may reference.
type Provider struct {
	*kubernetes.Provider
}

// New creates an openshift Provider
func New(client dynamic.Interface) *Provider {
	p := &Provider{Provider: kubernetes.New(client)}
	p.RegisterResource("Route", schema.GroupVersionResource{Group: "route.openshift.io", Version: "v1", Resource: "routes"})
	p.RegisterResource("DeploymentConfig", schema.GroupVersionResource{Group: "apps.openshift.io", Version: "v1", Resource: "deploymentconfigs"})
	p.RegisterResource("ImageStream", schema.GroupVersionResource{Group: "image.openshift.io", Version: "v1", Resource: "imagestreams"})
	return p
}

// RunningOnOpenshift reports whether the in-cluster API host answers the
// OpenShift-only /oapi endpoint, used to pick this provider over plain
// kubernetes when general.provider is left unset and the process is
// running inside the cluster it targets.
func RunningOnOpenshift() bool {
	host := os.Getenv(constants.InClusterHostEnvVar)
	if host == "" {
		return false
	}
	url := "https://" + host + defaults.OpenshiftAPIProbePath
	client := &http.Client{Timeout: defaults.InClusterProbeTimeout}
	resp, err := client.Get(url)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
