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
	"context"
	"fmt"
	"io"
	"time"

	"github.com/atomicapp/atomicapp/lib/defaults"

	"github.com/gravitational/trace"
	log "github.com/sirupsen/logrus"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/kubernetes/scheme"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/remotecommand"
)

// ClusterExtractor extracts an image path via the in-cluster API: it runs
// a short-lived pod from the image, execs "tar cf -" against the path and
// streams the result through untar, the way kubectl cp reads a path out of
// a running container without a direct docker socket.
type ClusterExtractor struct {
	clientset kubernetes.Interface
	config    *rest.Config
	namespace string
}

// NewClusterExtractor builds a ClusterExtractor from the in-cluster
// service account credentials.
func NewClusterExtractor(namespace string) (*ClusterExtractor, error) {
	config, err := rest.InClusterConfig()
	if err != nil {
		return nil, trace.Wrap(err)
	}
	clientset, err := kubernetes.NewForConfig(config)
	if err != nil {
		return nil, trace.Wrap(err)
	}
	return &ClusterExtractor{clientset: clientset, config: config, namespace: namespace}, nil
}

// Extract implements InClusterExtractor
func (e *ClusterExtractor) Extract(ctx context.Context, image, path, dest string) error {
	podName := fmt.Sprintf("atomicapp-extract-%d", time.Now().UnixNano())
	pod := &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{Name: podName, Namespace: e.namespace},
		Spec: corev1.PodSpec{
			RestartPolicy: corev1.RestartPolicyNever,
			Containers: []corev1.Container{{
				Name:    "extract",
				Image:   image,
				Command: []string{"/bin/sh", "-c", "sleep " + defaults.ProviderRequestTimeout.String()},
			}},
		},
	}
	created, err := e.clientset.CoreV1().Pods(e.namespace).Create(ctx, pod, metav1.CreateOptions{})
	if err != nil {
		return trace.Wrap(err, "creating extraction pod")
	}
	defer func() {
		if err := e.clientset.CoreV1().Pods(e.namespace).Delete(context.Background(), created.Name, metav1.DeleteOptions{}); err != nil && !apierrors.IsNotFound(err) {
			log.Warnf("Failed to remove extraction pod %v: %v.", created.Name, err)
		}
	}()

	if err := e.waitRunning(ctx, created.Name); err != nil {
		return trace.Wrap(err)
	}

	req := e.clientset.CoreV1().RESTClient().Post().
		Resource("pods").
		Name(created.Name).
		Namespace(e.namespace).
		SubResource("exec").
		VersionedParams(&corev1.PodExecOptions{
			Container: "extract",
			Command:   []string{"tar", "cf", "-", "/" + path},
			Stdout:    true,
			Stderr:    true,
		}, scheme.ParameterCodec)

	exec, err := remotecommand.NewSPDYExecutor(e.config, "POST", req.URL())
	if err != nil {
		return trace.Wrap(err)
	}

	pr, pw := io.Pipe()
	done := make(chan error, 1)
	go func() { done <- untar(pr, dest) }()

	err = exec.StreamWithContext(ctx, remotecommand.StreamOptions{Stdout: pw, Stderr: pw})
	pw.Close()
	if streamErr := <-done; streamErr != nil && err == nil {
		err = streamErr
	}
	return trace.Wrap(err)
}

func (e *ClusterExtractor) waitRunning(ctx context.Context, name string) error {
	deadline := time.Now().Add(defaults.ProviderRequestTimeout)
	for time.Now().Before(deadline) {
		pod, err := e.clientset.CoreV1().Pods(e.namespace).Get(ctx, name, metav1.GetOptions{})
		if err != nil {
			return trace.Wrap(err)
		}
		if pod.Status.Phase == corev1.PodRunning {
			return nil
		}
		time.Sleep(500 * time.Millisecond)
	}
	return trace.LimitExceeded("extraction pod %v did not start in time", name)
}
