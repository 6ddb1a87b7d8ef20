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

// package kubernetes implements the Provider contract against a Kubernetes
// cluster: rendered artifacts are decoded as unstructured objects and
// applied through the dynamic client, ordered by a fixed kind precedence
// (namespaces and storage before workloads) per §4.5.
package kubernetes

import (
	"context"
	"os"
	"path/filepath"
	"sort"

	"github.com/atomicapp/atomicapp/lib/constants"

	"github.com/gravitational/trace"
	log "github.com/sirupsen/logrus"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/client-go/dynamic"
	"sigs.k8s.io/yaml"
)

// kindPrecedence orders artifact dispatch so dependencies (namespaces,
// storage, config) are created before the workloads that consume them;
// unlisted kinds sort after all listed ones, in file order.
var kindPrecedence = map[string]int{
	"Namespace":             0,
	"PersistentVolumeClaim": 1,
	"ConfigMap":             2,
	"Secret":                2,
	"Service":               3,
	"Deployment":            4,
	"Pod":                   5,
}

// gvrByKind is the static kind -> GroupVersionResource table the provider
// resolves artifacts against. It covers the object kinds the renderer's
// example manifests use; a full implementation would derive this from
// discovery, which is out of scope for the core per §1.
var gvrByKind = map[string]schema.GroupVersionResource{
	"Pod":                   {Version: "v1", Resource: "pods"},
	"Service":               {Version: "v1", Resource: "services"},
	"ConfigMap":             {Version: "v1", Resource: "configmaps"},
	"Secret":                {Version: "v1", Resource: "secrets"},
	"Namespace":             {Version: "v1", Resource: "namespaces"},
	"PersistentVolumeClaim": {Version: "v1", Resource: "persistentvolumeclaims"},
	"Deployment":            {Group: "apps", Version: "v1", Resource: "deployments"},
}

// Provider implements provider.Provider against a Kubernetes cluster
type Provider struct {
	client    dynamic.Interface
	namespace string
	basepath  string
	dryrun    bool
	extra     map[string]schema.GroupVersionResource
}

// New creates a kubernetes Provider
func New(client dynamic.Interface) *Provider {
	return &Provider{client: client}
}

// RegisterResource extends the kind -> resource table with an additional
// mapping, letting an embedding provider (openshift) add its own kinds
// without forking the Kubernetes dispatch logic.
func (p *Provider) RegisterResource(kind string, gvr schema.GroupVersionResource) {
	if p.extra == nil {
		p.extra = make(map[string]schema.GroupVersionResource)
	}
	p.extra[kind] = gvr
}

func (p *Provider) gvrFor(kind string) (schema.GroupVersionResource, bool) {
	if gvr, ok := p.extra[kind]; ok {
		return gvr, true
	}
	gvr, ok := gvrByKind[kind]
	return gvr, ok
}

// Init implements provider.Provider
func (p *Provider) Init(_ context.Context, config map[string]string, basepath string, dryrun bool) error {
	p.basepath = basepath
	p.dryrun = dryrun
	p.namespace = config[constants.NamespaceKey]
	if p.namespace == "" {
		p.namespace = constants.DefaultNamespace
	}
	return nil
}

// Run implements provider.Provider
func (p *Provider) Run(ctx context.Context, artifacts []string) error {
	objs, err := loadAndOrder(p.basepath, artifacts, false)
	if err != nil {
		return trace.Wrap(err)
	}
	for _, obj := range objs {
		if p.dryrun {
			log.Infof("dry-run: would create %v %v/%v.", obj.GetKind(), p.namespace, obj.GetName())
			continue
		}
		res, err := p.resourceFor(obj)
		if err != nil {
			return trace.Wrap(err)
		}
		if _, err := res.Create(ctx, &obj, metav1.CreateOptions{}); err != nil {
			return trace.Wrap(err, "creating %v %v", obj.GetKind(), obj.GetName())
		}
	}
	return nil
}

// Stop implements provider.Provider, deleting artifacts in reverse
// precedence order so workloads go before the storage/config they depend
// on, cascading deletion of owned resources.
func (p *Provider) Stop(ctx context.Context, artifacts []string) error {
	objs, err := loadAndOrder(p.basepath, artifacts, true)
	if err != nil {
		return trace.Wrap(err)
	}
	for _, obj := range objs {
		if p.dryrun {
			log.Infof("dry-run: would delete %v %v/%v.", obj.GetKind(), p.namespace, obj.GetName())
			continue
		}
		res, err := p.resourceFor(obj)
		if err != nil {
			return trace.Wrap(err)
		}
		if err := res.Delete(ctx, obj.GetName(), metav1.DeleteOptions{}); err != nil && !apierrors.IsNotFound(err) {
			return trace.Wrap(err, "deleting %v %v", obj.GetKind(), obj.GetName())
		}
	}
	return nil
}

// PersistentStorage implements provider.Provider, creating a
// PersistentVolumeClaim of the requested size and access mode.
func (p *Provider) PersistentStorage(ctx context.Context, size, accessMode string) error {
	if p.dryrun {
		log.Infof("dry-run: would create PersistentVolumeClaim of size %v (%v).", size, accessMode)
		return nil
	}
	pvc := &unstructured.Unstructured{Object: map[string]interface{}{
		"apiVersion": "v1",
		"kind":       "PersistentVolumeClaim",
		"metadata": map[string]interface{}{
			"generateName": "atomicapp-",
			"namespace":    p.namespace,
		},
		"spec": map[string]interface{}{
			"accessModes": []interface{}{accessMode},
			"resources": map[string]interface{}{
				"requests": map[string]interface{}{"storage": size},
			},
		},
	}}
	_, err := p.client.Resource(gvrByKind["PersistentVolumeClaim"]).Namespace(p.namespace).Create(ctx, pvc, metav1.CreateOptions{})
	return trace.Wrap(err)
}

// HostAccess implements provider.Provider. No first-class hostPath
// abstraction is safe to synthesize generically against an arbitrary
// pod spec, so the requirement is reported unsupported rather than
// silently accepted, per §4.7.
func (p *Provider) HostAccess(ctx context.Context, path string) error {
	return trace.NotImplemented("hostAccess is not supported against a cluster API; request it via a hostPath volume in the artifact itself")
}

func (p *Provider) resourceFor(obj unstructured.Unstructured) (dynamic.ResourceInterface, error) {
	gvr, ok := p.gvrFor(obj.GetKind())
	if !ok {
		return nil, trace.BadParameter("no resource mapping for kind %q", obj.GetKind())
	}
	return p.client.Resource(gvr).Namespace(p.namespace), nil
}

// loadAndOrder decodes each artifact path as an unstructured object and
// sorts them by kindPrecedence, reversed when stopping.
func loadAndOrder(basepath string, artifacts []string, reverse bool) ([]unstructured.Unstructured, error) {
	objs := make([]unstructured.Unstructured, 0, len(artifacts))
	for _, path := range artifacts {
		obj, err := loadObject(basepath, path)
		if err != nil {
			return nil, trace.Wrap(err)
		}
		objs = append(objs, obj)
	}
	sort.SliceStable(objs, func(i, j int) bool {
		pi, pj := precedence(objs[i].GetKind()), precedence(objs[j].GetKind())
		if reverse {
			return pi > pj
		}
		return pi < pj
	})
	return objs, nil
}

func precedence(kind string) int {
	if p, ok := kindPrecedence[kind]; ok {
		return p
	}
	return len(kindPrecedence)
}

func loadObject(basepath, relPath string) (unstructured.Unstructured, error) {
	data, err := os.ReadFile(filepath.Join(basepath, relPath))
	if err != nil {
		return unstructured.Unstructured{}, trace.ConvertSystemError(err)
	}
	jsonData, err := yaml.YAMLToJSON(data)
	if err != nil {
		return unstructured.Unstructured{}, trace.Wrap(err)
	}
	var obj unstructured.Unstructured
	if err := obj.UnmarshalJSON(jsonData); err != nil {
		return unstructured.Unstructured{}, trace.Wrap(err)
	}
	if obj.GetKind() == "" {
		return unstructured.Unstructured{}, trace.BadParameter("artifact %v has no kind field", relPath)
	}
	return obj, nil
}
