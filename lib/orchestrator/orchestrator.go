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

// package orchestrator drives the four user-facing lifecycles (fetch, run,
// stop, genanswers) over a component graph, using the Container Source,
// Answer Store, Artifact Renderer and Provider registry to do so.
package orchestrator

import (
	"context"
	"os"
	"path/filepath"

	"github.com/atomicapp/atomicapp/lib/answers"
	"github.com/atomicapp/atomicapp/lib/component"
	"github.com/atomicapp/atomicapp/lib/constants"
	"github.com/atomicapp/atomicapp/lib/graph"
	"github.com/atomicapp/atomicapp/lib/manifest"
	"github.com/atomicapp/atomicapp/lib/prompt"
	"github.com/atomicapp/atomicapp/lib/provider"
	"github.com/atomicapp/atomicapp/lib/render"
	"github.com/atomicapp/atomicapp/lib/statusapi"

	"github.com/gravitational/trace"
	log "github.com/sirupsen/logrus"
)

// Options configures an Orchestrator instance for one invocation
type Options struct {
	// Extractor materializes external children; Fetch, Run and Genanswers
	// need it when the graph has an external child not yet on disk. Stop
	// never uses it.
	Extractor component.Extractor
	// Providers resolves general.provider to a concrete Provider
	Providers *provider.Registry
	// Prompter answers interactive param prompts; nil disables prompting
	Prompter prompt.Prompter
	// DryRun, when true, suppresses all external side effects (pulls,
	// extracts, provider calls) in favor of logging the action that would
	// have been taken, per §7.
	DryRun bool
	// StatusAddr, when non-empty, starts a read-only status endpoint over
	// the Answer Store for the duration of Run's dispatch. Left empty
	// unless --logtype=cockpit selected it.
	StatusAddr string
}

// Orchestrator drives the fetch/genanswers/run/stop lifecycles
type Orchestrator struct {
	opts Options
}

// New creates an Orchestrator
func New(opts Options) *Orchestrator {
	return &Orchestrator{opts: opts}
}

// loadAnswers performs the prologue common to all four lifecycles: loading
// an answer file if present and merging CLI overrides. A missing path is
// not an error; callers that need AnswersNotFound semantics (genanswers'
// "file already exists" check, stop's mandatory runtime file) check
// separately.
func (o *Orchestrator) loadAnswers(path string, format answers.Format, cli map[string]string) (*answers.Store, error) {
	store := answers.New(o.opts.Prompter)
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := store.LoadFromFile(path, format); err != nil {
				return nil, trace.Wrap(err)
			}
		} else if !os.IsNotExist(err) {
			return nil, trace.ConvertSystemError(err)
		}
	}
	store.MergeCLI(cli)
	return store, nil
}

// resolveAll runs resolve_for_component over every component reachable from
// root in reverse topological order (children before parents), per §4.6.
func resolveAll(g *graph.Graph, root int, store *answers.Store, mode answers.Mode) error {
	order, err := g.ReverseTopologicalOrder([]int{root})
	if err != nil {
		return trace.Wrap(err)
	}
	for _, idx := range order {
		c := g.Node(idx).(*component.Component)
		if err := store.ResolveForComponent(c.Namespace, c.Params, mode); err != nil {
			if mode == answers.ModeSkipAsking {
				log.Warnf("component %v: %v", c.ID, err)
				continue
			}
			return trace.Wrap(err)
		}
		c.State = component.StateConfigResolved
	}
	store.ImputeDefaultProvider()
	return nil
}

// Fetch builds the full graph (unpacking externals), resolves config for
// every component in skip-asking mode, and writes a sample answer file at
// appPath/AnswersSampleFile, per §4.6.
func (o *Orchestrator) Fetch(ctx context.Context, appPath string, answersPath string, answersFormat answers.Format, cli map[string]string, update bool) error {
	g, root, err := component.Build(ctx, appPath, component.Options{Extractor: o.opts.Extractor, Unpack: true, Update: update})
	if err != nil {
		return trace.Wrap(err)
	}
	store, err := o.loadAnswers(answersPath, answersFormat, cli)
	if err != nil {
		return trace.Wrap(err)
	}
	if err := resolveAll(g, root, store, answers.ModeSkipAsking); err != nil {
		return trace.Wrap(err)
	}
	return trace.Wrap(store.WriteFile(filepath.Join(appPath, constants.AnswersSampleFile), answers.Format(constants.AnswersSampleFormat)))
}

// Genanswers behaves like Fetch but writes to ./AnswersFile in the current
// working directory, and fails if that file already exists.
func (o *Orchestrator) Genanswers(ctx context.Context, appPath string, cli map[string]string) error {
	dest := constants.AnswersFile
	if _, err := os.Stat(dest); err == nil {
		return trace.AlreadyExists("%v already exists", dest)
	} else if !os.IsNotExist(err) {
		return trace.ConvertSystemError(err)
	}

	g, root, err := component.Build(ctx, appPath, component.Options{Extractor: o.opts.Extractor, Unpack: true})
	if err != nil {
		return trace.Wrap(err)
	}
	store := answers.New(o.opts.Prompter)
	store.MergeCLI(cli)
	if err := resolveAll(g, root, store, answers.ModeSkipAsking); err != nil {
		return trace.Wrap(err)
	}
	return trace.Wrap(store.WriteFile(dest, answers.Format(constants.AnswersSampleFormat)))
}

// Run builds the graph, resolves config in reverse topological order
// (honoring ask), then dispatches artifacts in forward topological order:
// render, satisfy requirements, call provider.Run. On success it writes the
// runtime answer file (and, if writeAnswersPath is set, a copy there too).
func (o *Orchestrator) Run(ctx context.Context, appPath string, answersPath string, answersFormat answers.Format, cli map[string]string, ask bool, providerOverride string, writeAnswersPath string, update bool) error {
	g, root, err := component.Build(ctx, appPath, component.Options{Extractor: o.opts.Extractor, Unpack: true, Update: update})
	if err != nil {
		return trace.Wrap(err)
	}
	store, err := o.loadAnswers(answersPath, answersFormat, cli)
	if err != nil {
		return trace.Wrap(err)
	}
	mode := answers.ModeNormal
	if ask {
		mode = answers.ModeAsk
	}
	if err := resolveAll(g, root, store, mode); err != nil {
		return trace.Wrap(err)
	}

	if providerOverride != "" {
		store.Set(constants.GeneralNamespace, constants.ProviderKey, providerOverride)
	}
	providerName, _ := store.Get(constants.GeneralNamespace, constants.ProviderKey)

	if o.opts.StatusAddr != "" {
		status := statusapi.New(o.opts.StatusAddr, store)
		status.Start()
		defer func() {
			if err := status.Stop(ctx); err != nil {
				log.Warnf("failed to stop status endpoint: %v.", err)
			}
		}()
	}

	dispatchOrder, err := g.TopologicalOrder([]int{root})
	if err != nil {
		return trace.Wrap(err)
	}
	for _, idx := range dispatchOrder {
		c := g.Node(idx).(*component.Component)
		if err := o.deployComponent(ctx, c, store, providerName); err != nil {
			c.State = component.StateFailed
			return trace.Wrap(err, "deploying component %v", c.ID)
		}
		c.State = component.StateDeployed
	}

	if err := store.WriteFile(filepath.Join(appPath, constants.AnswersRuntimeFile), answers.Format(constants.AnswersSampleFormat)); err != nil {
		return trace.Wrap(err)
	}
	if writeAnswersPath != "" {
		if err := store.WriteFile(writeAnswersPath, answers.DetectFormat(writeAnswersPath)); err != nil {
			return trace.Wrap(err)
		}
	}
	return nil
}

// deployComponent renders c's artifacts for providerName, satisfies its
// requirements, then calls provider.Run. It is the per-component body of
// the forward topological walk in Run.
func (o *Orchestrator) deployComponent(ctx context.Context, c *component.Component, store *answers.Store, providerName string) error {
	rctx := mergeContext(store, c.Namespace)
	rendered, err := render.Provider(c.Basepath, c.Artifacts, providerName, rctx)
	if err != nil {
		return trace.Wrap(err)
	}
	c.RenderedArtifacts[providerName] = rendered
	c.State = component.StateRendered

	p, err := o.opts.Providers.Get(providerName)
	if err != nil {
		return trace.Wrap(err)
	}
	config := providerConfig(store)
	if err := p.Init(ctx, config, c.Basepath, o.opts.DryRun); err != nil {
		return trace.Wrap(err)
	}

	if err := o.satisfyRequirements(ctx, p, c.Requirements); err != nil {
		return trace.Wrap(err)
	}

	if o.opts.DryRun {
		log.Infof("dry-run: would dispatch %d artifact(s) for component %v to provider %v.", len(rendered), c.ID, providerName)
		return nil
	}
	return trace.Wrap(p.Run(ctx, rendered))
}

// satisfyRequirements processes c.Requirements in declaration order,
// mapping each kind to a provider operation via constants.RequirementFunctions,
// per §4.7.
func (o *Orchestrator) satisfyRequirements(ctx context.Context, p provider.Provider, reqs []manifest.Requirement) error {
	for _, req := range reqs {
		fn, ok := constants.RequirementFunctions[req.Kind]
		if !ok {
			return trace.BadParameter("unsupported requirement kind %q", req.Kind)
		}
		if o.opts.DryRun {
			log.Infof("dry-run: would satisfy requirement %v (%v).", req.Kind, fn)
			continue
		}
		switch fn {
		case "persistent_storage":
			if err := p.PersistentStorage(ctx, req.Size, req.AccessMode); err != nil {
				return trace.Wrap(err, "satisfying requirement %v", req.Kind)
			}
		case "host_access":
			if err := p.HostAccess(ctx, req.Path); err != nil {
				return trace.Wrap(err, "satisfying requirement %v", req.Kind)
			}
		default:
			return trace.BadParameter("unsupported requirement kind %q", req.Kind)
		}
	}
	return nil
}

// Stop loads answers only from the runtime answer file, builds the graph
// without pulling, and dispatches provider.Stop in forward topological
// order, per §4.6.
func (o *Orchestrator) Stop(ctx context.Context, appPath string, providerOverride string) error {
	runtimePath := filepath.Join(appPath, constants.AnswersRuntimeFile)
	store := answers.New(nil)
	if err := store.LoadFromFile(runtimePath, answers.Format(constants.AnswersSampleFormat)); err != nil {
		return trace.Wrap(err)
	}

	g, root, err := component.Build(ctx, appPath, component.Options{Unpack: false})
	if err != nil {
		return trace.Wrap(err)
	}

	providerName, _ := store.Get(constants.GeneralNamespace, constants.ProviderKey)
	if providerOverride != "" {
		providerName = providerOverride
	}

	order, err := g.TopologicalOrder([]int{root})
	if err != nil {
		return trace.Wrap(err)
	}
	config := providerConfig(store)
	p, err := o.opts.Providers.Get(providerName)
	if err != nil {
		return trace.Wrap(err)
	}
	if err := p.Init(ctx, config, appPath, o.opts.DryRun); err != nil {
		return trace.Wrap(err)
	}

	for _, idx := range order {
		c := g.Node(idx).(*component.Component)
		rctx := mergeContext(store, c.Namespace)
		rendered, err := render.Provider(c.Basepath, c.Artifacts, providerName, rctx)
		if err != nil {
			return trace.Wrap(err)
		}
		if o.opts.DryRun {
			log.Infof("dry-run: would stop %d artifact(s) for component %v.", len(rendered), c.ID)
			continue
		}
		if err := p.Stop(ctx, rendered); err != nil {
			return trace.Wrap(err, "stopping component %v", c.ID)
		}
	}
	return nil
}

// mergeContext builds the render.Context for one component: general values
// overlaid by the component's own namespace, per §4.3.
func mergeContext(store *answers.Store, namespace string) render.Context {
	ctx := make(render.Context)
	for _, group := range store.Snapshot() {
		if group.Name != constants.GeneralNamespace && group.Name != namespace {
			continue
		}
		for _, kv := range group.Values {
			ctx[kv.Key] = kv.Value
		}
	}
	return ctx
}

// providerConfig extracts the general cross-cutting provider keys from
// store into the map shape Provider.Init expects.
func providerConfig(store *answers.Store) map[string]string {
	config := make(map[string]string)
	for _, key := range []string{
		constants.NamespaceKey,
		constants.ProviderAPIKey,
		constants.ProviderAuthKey,
		constants.ProviderCAFileKey,
		constants.ProviderTLSVerifyKey,
		constants.ProviderConfigKey,
	} {
		if v, ok := store.Get(constants.GeneralNamespace, key); ok {
			config[key] = v
		}
	}
	return config
}
