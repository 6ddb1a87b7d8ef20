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

// package source implements the Container Source: pulling an application
// image and extracting its application-entity directory to a local
// destination, either through the container runtime or, when running
// inside a cluster pod without direct runtime access, through the cluster
// API.
package source

import (
	"archive/tar"
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"github.com/atomicapp/atomicapp/lib/constants"
	"github.com/atomicapp/atomicapp/lib/defaults"
	"github.com/atomicapp/atomicapp/lib/loc"

	"github.com/distribution/reference"
	dockerapi "github.com/fsouza/go-dockerclient"
	"github.com/gravitational/trace"
	log "github.com/sirupsen/logrus"
	"k8s.io/client-go/rest"
)

// Client is the subset of the docker API the Container Source needs,
// narrowed from *dockerapi.Client so tests can supply a fake.
type Client interface {
	PullImage(opts dockerapi.PullImageOptions, auth dockerapi.AuthConfiguration) error
	CreateContainer(opts dockerapi.CreateContainerOptions) (*dockerapi.Container, error)
	DownloadFromContainer(id string, opts dockerapi.DownloadFromContainerOptions) error
	RemoveContainer(opts dockerapi.RemoveContainerOptions) error
}

// NewClient dials the local docker engine at the default endpoint
func NewClient() (Client, error) {
	client, err := dockerapi.NewClient(defaults.DockerEngineURL)
	if err != nil {
		return nil, trace.Wrap(err)
	}
	client.SetTimeout(defaults.DockerClientTimeout)
	return client, nil
}

// Source pulls application images and extracts their application-entity
// directory to disk, per §4.1.
type Source struct {
	client    Client
	dryrun    bool
	inCluster InClusterExtractor

	pullOnce sync.Map // image string -> *sync.Once, one pull per image per process
}

// InClusterExtractor performs extraction via a cluster API instead of the
// container runtime, used when RunningInsideCluster reports true.
type InClusterExtractor interface {
	Extract(ctx context.Context, image, path, dest string) error
}

// New creates a Source. inCluster may be nil when RunningInsideCluster is
// never expected to report true (e.g. in tests).
func New(client Client, inCluster InClusterExtractor, dryrun bool) *Source {
	return &Source{client: client, dryrun: dryrun, inCluster: inCluster}
}

// Extract ensures image is pulled and copies constants.ApplicationEntityPath
// out of it into dest. If dest already holds a Manifest and update is
// false, callers should skip calling Extract entirely (lib/component does
// this); Extract itself always (re)materializes when called.
func (s *Source) Extract(ctx context.Context, image, dest string, update bool) error {
	if s.dryrun {
		log.Infof("dry-run: would extract %v from %v into %v.", constants.ApplicationEntityPath, image, dest)
		return nil
	}

	ref, err := loc.ParseImageRef(image)
	if err != nil {
		return trace.Wrap(err)
	}

	if RunningInsideCluster() {
		if s.inCluster == nil {
			return trace.BadParameter("running inside cluster but no in-cluster extractor configured")
		}
		return trace.Wrap(s.inCluster.Extract(ctx, ref.String(), constants.ApplicationEntityPath, dest))
	}

	if err := s.pull(image); err != nil {
		return trace.Wrap(err)
	}
	return trace.Wrap(s.extractViaContainer(ref.String(), dest))
}

// pull ensures image is pulled exactly once per process, per §4.1's
// "only one pull per image per process" tie-break.
func (s *Source) pull(image string) error {
	onceIface, _ := s.pullOnce.LoadOrStore(image, &sync.Once{})
	once := onceIface.(*sync.Once)
	var pullErr error
	once.Do(func() {
		ref, err := loc.ParseImageRef(image)
		if err != nil {
			pullErr = trace.Wrap(err)
			return
		}
		repo, tag := reference.FamiliarName(ref.Named), "latest"
		if tagged, ok := ref.Named.(reference.Tagged); ok {
			tag = tagged.Tag()
		}
		log.Infof("Pulling image %v.", ref.Raw)
		pullErr = s.client.PullImage(dockerapi.PullImageOptions{Repository: repo, Tag: tag}, dockerapi.AuthConfiguration{})
		if pullErr != nil {
			pullErr = trace.Wrap(pullErr, "pulling %v", ref.Raw)
		}
	})
	return pullErr
}

// extractViaContainer runs a short-lived, no-op-entrypoint container from
// image, copies constants.ApplicationEntityPath out of it into dest, then
// removes the container. Any container left behind by a failed extract is
// cleaned up before returning.
func (s *Source) extractViaContainer(image, dest string) error {
	container, err := s.client.CreateContainer(dockerapi.CreateContainerOptions{
		Config: &dockerapi.Config{
			Image:      image,
			Entrypoint: []string{defaults.ContainerEntrypoint},
		},
	})
	if err != nil {
		return trace.Wrap(err, "creating extraction container for %v", image)
	}
	defer func() {
		if err := s.client.RemoveContainer(dockerapi.RemoveContainerOptions{ID: container.ID, Force: true}); err != nil {
			log.Warnf("Failed to remove extraction container %v: %v.", container.ID, err)
		}
	}()

	if err := os.MkdirAll(dest, 0755); err != nil {
		return trace.ConvertSystemError(err)
	}

	pr, pw := io.Pipe()
	var copyErr error
	done := make(chan struct{})
	go func() {
		defer close(done)
		copyErr = untar(pr, dest)
	}()

	err = s.client.DownloadFromContainer(container.ID, dockerapi.DownloadFromContainerOptions{
		Path:         "/" + constants.ApplicationEntityPath,
		OutputStream: pw,
	})
	pw.Close()
	<-done
	if err != nil {
		return trace.Wrap(err, "extracting %v from %v", constants.ApplicationEntityPath, image)
	}
	if copyErr != nil {
		return trace.Wrap(copyErr, "unpacking extracted archive")
	}
	return nil
}

// untar writes the contents of a tar stream rooted at the extracted
// directory name into dest, stripping the leading path component the way
// "docker cp" archives name it.
func untar(r io.Reader, dest string) error {
	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return trace.Wrap(err)
		}
		name := stripFirstComponent(hdr.Name)
		if name == "" {
			continue
		}
		target := filepath.Join(dest, name)
		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0755); err != nil {
				return trace.ConvertSystemError(err)
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return trace.ConvertSystemError(err)
			}
			f, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, os.FileMode(hdr.Mode))
			if err != nil {
				return trace.ConvertSystemError(err)
			}
			if _, err := io.Copy(f, tr); err != nil {
				f.Close()
				return trace.Wrap(err)
			}
			f.Close()
		}
	}
}

func stripFirstComponent(name string) string {
	name = filepath.Clean(name)
	idx := 0
	for i, r := range name {
		if r == filepath.Separator {
			idx = i + 1
			break
		}
	}
	if idx == 0 {
		return ""
	}
	return name[idx:]
}

// RunningInsideCluster reports whether this process is executing inside a
// cluster pod without direct container-runtime access: the well-known
// service-host env var is set and an HTTPS probe to the in-cluster API
// succeeds, per §4.1 and §8 scenario 6. The probe uses the in-cluster
// config (service host and port, service-account CA and token).
func RunningInsideCluster() bool {
	if os.Getenv(constants.InClusterHostEnvVar) == "" {
		return false
	}
	config, err := rest.InClusterConfig()
	if err != nil {
		return false
	}
	config.Timeout = defaults.InClusterProbeTimeout
	client, err := rest.HTTPClientFor(config)
	if err != nil {
		return false
	}
	resp, err := client.Get(config.Host + defaults.InClusterAPIProbePath)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
