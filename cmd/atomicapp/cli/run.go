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

package cli

import (
	"context"
	"os"
	"path/filepath"

	"github.com/atomicapp/atomicapp/lib/answers"
	"github.com/atomicapp/atomicapp/lib/component"
	"github.com/atomicapp/atomicapp/lib/constants"
	"github.com/atomicapp/atomicapp/lib/defaults"
	"github.com/atomicapp/atomicapp/lib/lock"
	"github.com/atomicapp/atomicapp/lib/orchestrator"
	"github.com/atomicapp/atomicapp/lib/prompt"
	"github.com/atomicapp/atomicapp/lib/provider"
	"github.com/atomicapp/atomicapp/lib/provider/docker"
	"github.com/atomicapp/atomicapp/lib/provider/kubernetes"
	"github.com/atomicapp/atomicapp/lib/provider/openshift"
	"github.com/atomicapp/atomicapp/lib/source"

	dockerapi "github.com/fsouza/go-dockerclient"
	"github.com/gravitational/trace"
	"github.com/sirupsen/logrus"
	dynamicclient "k8s.io/client-go/dynamic"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
)

var log = logrus.WithField(trace.Component, "cli")

// Run parses CLI arguments and executes the requested atomicapp lifecycle
func Run(a *Application) error {
	cmd, err := a.Parse(os.Args[1:])
	if err != nil {
		return trace.Wrap(err)
	}
	configureLogging(a)

	lk, err := lock.New(constants.LockPath)
	if err != nil {
		return trace.Wrap(err)
	}
	if err := lk.Acquire(); err != nil {
		return trace.Wrap(err)
	}
	defer func() {
		if err := lk.Release(); err != nil {
			log.Warnf("failed to release lock: %v.", err)
		}
	}()

	verb := cmd
	if a.ModeOverride != nil && *a.ModeOverride != "" {
		verb = *a.ModeOverride
	}

	ctx := context.Background()
	switch verb {
	case a.FetchCmd.FullCommand():
		return trace.Wrap(runFetch(ctx, a))
	case a.RunCmd.FullCommand():
		return trace.Wrap(runRun(ctx, a))
	case a.StopCmd.FullCommand():
		return trace.Wrap(runStop(ctx, a))
	case a.GenanswersCmd.FullCommand():
		return trace.Wrap(runGenanswers(ctx, a))
	case a.InitCmd.FullCommand():
		return trace.BadParameter("init is scaffolding only and is not implemented")
	case a.IndexCmd.FullCommand():
		return trace.BadParameter("index is a catalog utility only and is not implemented")
	}
	return trace.BadParameter("unrecognized command %q", cmd)
}

// configureLogging selects logrus's output per --logtype, mirroring the
// out-of-scope logging-sink boundary of spec.md §1: this core only makes
// the selection, the actual sinks (color/plain/structured/silent) are
// logrus formatters and writers, not engine code.
func configureLogging(a *Application) {
	level := logrus.InfoLevel
	if *a.Verbose {
		level = logrus.DebugLevel
		trace.SetDebug(true)
	}
	logrus.SetLevel(level)

	switch *a.LogType {
	case "nocolor":
		logrus.SetFormatter(&logrus.TextFormatter{DisableColors: true, FullTimestamp: true})
	case "cockpit":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	case "none":
		logrus.SetOutput(logOutputDiscard{})
	default:
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	if *a.Quiet {
		logrus.SetLevel(logrus.WarnLevel)
	}
}

type logOutputDiscard struct{}

func (logOutputDiscard) Write(p []byte) (int, error) { return len(p), nil }

// cliAnswers builds the general-namespace overrides the CLI flags carry,
// per §4.2's "--cli_answers values, always placed in general" precedence.
func cliAnswers(a *Application, providerOverride string) map[string]string {
	out := make(map[string]string)
	if providerOverride != "" {
		out[constants.ProviderKey] = providerOverride
	}
	if *a.Namespace != "" {
		out[constants.NamespaceKey] = *a.Namespace
	}
	if *a.ProviderAPI != "" {
		out[constants.ProviderAPIKey] = *a.ProviderAPI
	}
	if *a.ProviderAuth != "" {
		out[constants.ProviderAuthKey] = *a.ProviderAuth
	}
	if *a.ProviderCAFile != "" {
		out[constants.ProviderCAFileKey] = *a.ProviderCAFile
	}
	if *a.ProviderTLSVerify != "" {
		out[constants.ProviderTLSVerifyKey] = *a.ProviderTLSVerify
	}
	if *a.ProviderConfig != "" {
		out[constants.ProviderConfigKey] = *a.ProviderConfig
	}
	return out
}

// newOrchestrator wires the Container Source, Provider registry and
// interactive Prompter into an Orchestrator for this invocation. logType
// carries through --logtype: "cockpit" additionally starts the read-only
// status endpoint over the Answer Store during Run's dispatch.
func newOrchestrator(dryRun bool, logType string) (*orchestrator.Orchestrator, error) {
	extractor, err := newExtractor(dryRun)
	if err != nil {
		return nil, trace.Wrap(err)
	}
	providers, err := newProviderRegistry()
	if err != nil {
		return nil, trace.Wrap(err)
	}
	var statusAddr string
	if logType == "cockpit" {
		statusAddr = defaults.StatusAddr
	}
	return orchestrator.New(orchestrator.Options{
		Extractor:  extractor,
		Providers:  providers,
		Prompter:   prompt.NewTerminal(),
		DryRun:     dryRun,
		StatusAddr: statusAddr,
	}), nil
}

func newExtractor(dryRun bool) (component.Extractor, error) {
	dockerClient, err := source.NewClient()
	if err != nil {
		return nil, trace.Wrap(err)
	}
	var inCluster *source.ClusterExtractor
	if source.RunningInsideCluster() {
		inCluster, err = source.NewClusterExtractor(constants.DefaultNamespace)
		if err != nil {
			log.Warnf("failed to configure in-cluster extractor: %v.", err)
		}
	}
	if inCluster != nil {
		return source.New(dockerClient, inCluster, dryRun), nil
	}
	return source.New(dockerClient, nil, dryRun), nil
}

func newProviderRegistry() (*provider.Registry, error) {
	reg := provider.NewRegistry()
	reg.Register("docker", func() provider.Provider {
		client, err := dockerapi.NewClient(defaults.DockerEngineURL)
		if err != nil {
			log.Warnf("failed to construct docker client: %v.", err)
		}
		return docker.New(client)
	})

	dynClient, err := buildDynamicClient()
	if err != nil {
		log.Debugf("no cluster config available, kubernetes/openshift providers will fail init: %v.", err)
	}
	reg.Register("kubernetes", func() provider.Provider { return kubernetes.New(dynClient) })
	reg.Register("openshift", func() provider.Provider { return openshift.New(dynClient) })
	return reg, nil
}

// buildDynamicClient resolves cluster credentials in-cluster first, then
// falls back to the local kubeconfig, the way kubectl plugins typically do.
func buildDynamicClient() (dynamicclient.Interface, error) {
	cfg, err := rest.InClusterConfig()
	if err != nil {
		kubeconfig := os.Getenv("KUBECONFIG")
		if kubeconfig == "" {
			home, _ := os.UserHomeDir()
			kubeconfig = filepath.Join(home, ".kube", "config")
		}
		cfg, err = clientcmd.BuildConfigFromFlags("", kubeconfig)
		if err != nil {
			return nil, trace.Wrap(err)
		}
	}
	return dynamicclient.NewForConfig(cfg)
}

// resolveAppPath materializes appSpec to a local directory: a path that
// already exists locally is used directly; otherwise appSpec is treated as
// an image reference and its application-entity directory is extracted
// into destination (a fresh temporary directory when destination is empty
// or constants.NoneDestination). The returned cleanup removes an ephemeral
// destination on return, matching "--destination none" semantics of §6.
func resolveAppPath(ctx context.Context, dryRun bool, appSpec, destination string, update bool) (path string, cleanup func(), err error) {
	if appSpec == "" {
		appSpec = os.Getenv(constants.AppSpecEnvVar)
	}
	if appSpec == "" {
		return "", nil, trace.BadParameter("no application specified and %v is unset", constants.AppSpecEnvVar)
	}

	if info, statErr := os.Stat(appSpec); statErr == nil && info.IsDir() {
		return appSpec, func() {}, nil
	}

	ephemeral := destination == "" || destination == constants.NoneDestination
	dest := destination
	if ephemeral {
		dest, err = os.MkdirTemp("", defaults.TempDirPrefix)
		if err != nil {
			return "", nil, trace.ConvertSystemError(err)
		}
	}
	cleanup = func() {}
	if ephemeral {
		cleanup = func() {
			if err := os.RemoveAll(dest); err != nil {
				log.Warnf("failed to remove ephemeral destination %v: %v.", dest, err)
			}
		}
	}

	extractor, exErr := newExtractor(dryRun)
	if exErr != nil {
		return "", cleanup, trace.Wrap(exErr)
	}
	if err := extractor.Extract(ctx, appSpec, dest, update); err != nil {
		return "", cleanup, trace.Wrap(err)
	}
	return dest, cleanup, nil
}

func runFetch(ctx context.Context, a *Application) error {
	appPath, cleanup, err := resolveAppPath(ctx, *a.DryRun, *a.FetchCmd.AppSpec, *a.FetchCmd.Destination, *a.FetchCmd.Update)
	if err != nil {
		return trace.Wrap(err)
	}
	defer cleanup()

	o, err := newOrchestrator(*a.DryRun, *a.LogType)
	if err != nil {
		return trace.Wrap(err)
	}
	return trace.Wrap(o.Fetch(ctx, appPath, *a.FetchCmd.Answers, answers.Format(*a.AnswersFormat), cliAnswers(a, ""), *a.FetchCmd.Update))
}

// autodetectProvider returns "openshift" when no explicit provider was
// given and the process is running inside an OpenShift-style pod, per
// §4.5's "unless the process detects it is running inside an OpenShift-
// style pod" override of the default provider selection.
func autodetectProvider(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if openshift.RunningOnOpenshift() {
		return "openshift"
	}
	return ""
}

func runRun(ctx context.Context, a *Application) error {
	providerOverride := autodetectProvider(*a.RunCmd.Provider)

	appPath, cleanup, err := resolveAppPath(ctx, *a.DryRun, *a.RunCmd.AppSpec, *a.RunCmd.Destination, false)
	if err != nil {
		return trace.Wrap(err)
	}
	defer cleanup()

	o, err := newOrchestrator(*a.DryRun, *a.LogType)
	if err != nil {
		return trace.Wrap(err)
	}

	return trace.Wrap(o.Run(ctx, appPath, *a.RunCmd.Answers, answers.Format(*a.AnswersFormat), cliAnswers(a, providerOverride),
		*a.RunCmd.Ask, providerOverride, *a.RunCmd.WriteAnswers, false))
}

func runStop(ctx context.Context, a *Application) error {
	o, err := newOrchestrator(*a.DryRun, *a.LogType)
	if err != nil {
		return trace.Wrap(err)
	}
	return trace.Wrap(o.Stop(ctx, *a.StopCmd.AppSpec, *a.StopCmd.Provider))
}

func runGenanswers(ctx context.Context, a *Application) error {
	appPath, cleanup, err := resolveAppPath(ctx, *a.DryRun, *a.GenanswersCmd.AppSpec, "", false)
	if err != nil {
		return trace.Wrap(err)
	}
	defer cleanup()

	o, err := newOrchestrator(*a.DryRun, *a.LogType)
	if err != nil {
		return trace.Wrap(err)
	}
	return trace.Wrap(o.Genanswers(ctx, appPath, cliAnswers(a, "")))
}
