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

// package docker implements the Provider contract against a local
// container engine: every rendered artifact is a single-container spec
// that is run or stopped directly via the docker API.
package docker

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/atomicapp/atomicapp/lib/constants"
	"github.com/atomicapp/atomicapp/lib/defaults"

	dockerapi "github.com/fsouza/go-dockerclient"
	"github.com/gravitational/trace"
	log "github.com/sirupsen/logrus"
	"sigs.k8s.io/yaml"
)

// Client is the subset of the docker API the provider needs
type Client interface {
	CreateContainer(opts dockerapi.CreateContainerOptions) (*dockerapi.Container, error)
	StartContainer(id string, hostConfig *dockerapi.HostConfig) error
	StopContainer(id string, timeout uint) error
	RemoveContainer(opts dockerapi.RemoveContainerOptions) error
	CreateVolume(opts dockerapi.CreateVolumeOptions) (*dockerapi.Volume, error)
}

// containerSpec is the artifact shape the docker provider understands: a
// single container's image, name and run options.
type containerSpec struct {
	Name    string            `json:"name"`
	Image   string            `json:"image"`
	Command []string          `json:"command,omitempty"`
	Env     map[string]string `json:"env,omitempty"`
	Ports   []string          `json:"ports,omitempty"`
}

// Provider implements provider.Provider against a local container engine
type Provider struct {
	client    Client
	namespace string
	basepath  string
	dryrun    bool

	// binds accumulates host-path and named-volume bind mounts recorded by
	// HostAccess/PersistentStorage, applied to every container Run starts.
	binds []string
}

// New creates a docker Provider
func New(client Client) *Provider {
	return &Provider{client: client}
}

// Init implements provider.Provider
func (p *Provider) Init(_ context.Context, config map[string]string, basepath string, dryrun bool) error {
	p.basepath = basepath
	p.dryrun = dryrun
	p.namespace = config[constants.NamespaceKey]
	if p.namespace == "" {
		p.namespace = constants.DefaultNamespace
	}
	if p.dryrun {
		log.Info("dry-run: skipping docker engine compatibility check.")
		return nil
	}
	return nil
}

// Run implements provider.Provider
func (p *Provider) Run(ctx context.Context, artifacts []string) error {
	for _, path := range artifacts {
		spec, err := loadSpec(p.basepath, path)
		if err != nil {
			return trace.Wrap(err)
		}
		if p.dryrun {
			log.Infof("dry-run: would create container %v from %v.", spec.Name, spec.Image)
			continue
		}
		if err := p.runOne(spec); err != nil {
			return trace.Wrap(err, "running artifact %v", path)
		}
	}
	return nil
}

func (p *Provider) runOne(spec containerSpec) error {
	name := spec.Name
	if name == "" {
		name = p.namespace + "-" + spec.Image
	}
	env := make([]string, 0, len(spec.Env))
	for k, v := range spec.Env {
		env = append(env, k+"="+v)
	}
	container, err := p.client.CreateContainer(dockerapi.CreateContainerOptions{
		Name: name,
		Config: &dockerapi.Config{
			Image: spec.Image,
			Cmd:   spec.Command,
			Env:   env,
		},
	})
	if err != nil {
		return trace.Wrap(err)
	}
	hostConfig := &dockerapi.HostConfig{Binds: p.binds}
	if len(spec.Ports) > 0 {
		hostConfig.PortBindings = portBindings(spec.Ports)
	}
	return trace.Wrap(p.client.StartContainer(container.ID, hostConfig))
}

// portBindings maps a containerSpec's "host:container" (or bare "port",
// bound 1:1) entries to the docker API's per-container-port binding table.
func portBindings(ports []string) map[dockerapi.Port][]dockerapi.PortBinding {
	out := make(map[dockerapi.Port][]dockerapi.PortBinding, len(ports))
	for _, p := range ports {
		hostPort, containerPort := p, p
		if idx := strings.Index(p, ":"); idx >= 0 {
			hostPort, containerPort = p[:idx], p[idx+1:]
		}
		key := dockerapi.Port(containerPort + "/tcp")
		out[key] = append(out[key], dockerapi.PortBinding{HostPort: hostPort})
	}
	return out
}

// Stop implements provider.Provider
func (p *Provider) Stop(ctx context.Context, artifacts []string) error {
	for _, path := range artifacts {
		spec, err := loadSpec(p.basepath, path)
		if err != nil {
			return trace.Wrap(err)
		}
		if p.dryrun {
			log.Infof("dry-run: would stop container %v.", spec.Name)
			continue
		}
		if err := p.client.StopContainer(spec.Name, uint(defaults.ProviderRequestTimeout.Seconds())); err != nil {
			log.Warnf("Failed to stop container %v: %v.", spec.Name, err)
		}
		if err := p.client.RemoveContainer(dockerapi.RemoveContainerOptions{ID: spec.Name, Force: true}); err != nil {
			return trace.Wrap(err, "removing container %v", spec.Name)
		}
	}
	return nil
}

// PersistentStorage implements provider.Provider by creating a named docker
// volume and binding it into every container this invocation runs; the
// local engine has no per-component size enforcement, so size/accessMode
// are recorded as volume labels rather than applied.
func (p *Provider) PersistentStorage(ctx context.Context, size, accessMode string) error {
	name := p.namespace + "-data"
	if _, err := p.client.CreateVolume(dockerapi.CreateVolumeOptions{
		Name:   name,
		Labels: map[string]string{"size": size, "accessMode": accessMode},
	}); err != nil {
		return trace.Wrap(err, "creating volume %v", name)
	}
	p.binds = append(p.binds, name+":"+constants.DockerVolumeMountPath)
	return nil
}

// HostAccess implements provider.Provider as a bind mount of path into the
// container at the same path, per §4.7.
func (p *Provider) HostAccess(ctx context.Context, path string) error {
	p.binds = append(p.binds, path+":"+path)
	return nil
}

func loadSpec(basepath, relPath string) (containerSpec, error) {
	data, err := os.ReadFile(filepath.Join(basepath, relPath))
	if err != nil {
		return containerSpec{}, trace.ConvertSystemError(err)
	}
	jsonData, err := yaml.YAMLToJSON(data)
	if err != nil {
		return containerSpec{}, trace.Wrap(err)
	}
	var spec containerSpec
	if err := json.Unmarshal(jsonData, &spec); err != nil {
		return containerSpec{}, trace.Wrap(err)
	}
	return spec, nil
}
