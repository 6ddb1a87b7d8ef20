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

// package answers implements the Answer Store: the authoritative two-level
// group/key/value parameter mapping merged from CLI overrides, on-disk
// answer files and interactive prompting.
package answers

import (
	"sort"

	"github.com/atomicapp/atomicapp/lib/constants"
	"github.com/atomicapp/atomicapp/lib/manifest"
	"github.com/atomicapp/atomicapp/lib/prompt"

	"github.com/gravitational/trace"
	log "github.com/sirupsen/logrus"
)

// Mode controls resolve_for_component's interactive-prompting behavior
type Mode int

const (
	// ModeNormal prompts only for params with no default
	ModeNormal Mode = iota
	// ModeAsk prompts for every unset param, default or not
	ModeAsk
	// ModeSkipAsking never prompts; unset params with no default are
	// left unset in the store rather than failing the resolve
	ModeSkipAsking
)

// Store is the process-local, two-level group -> key -> value mapping
type Store struct {
	groups   map[string]map[string]string
	prompter prompt.Prompter
}

// New creates an empty Store that prompts via p for missing values
func New(p prompt.Prompter) *Store {
	return &Store{groups: make(map[string]map[string]string), prompter: p}
}

// Get looks up key under group, returning ok=false when absent
func (s *Store) Get(group, key string) (string, bool) {
	g, ok := s.groups[group]
	if !ok {
		return "", false
	}
	v, ok := g[key]
	return v, ok
}

// Set records value under group/key, creating the group if needed
func (s *Store) Set(group, key, value string) {
	g, ok := s.groups[group]
	if !ok {
		g = make(map[string]string)
		s.groups[group] = g
	}
	g[key] = value
}

// MergeCLI sets each (k, v) under the general group, per §4.2: CLI answers
// always land in general regardless of which component they end up read by.
func (s *Store) MergeCLI(values map[string]string) {
	for k, v := range values {
		if old, ok := s.Get(constants.GeneralNamespace, k); ok && old != v {
			log.Warnf("CLI override for %v.%v replaces file value %q with %q.", constants.GeneralNamespace, k, old, v)
		}
		s.Set(constants.GeneralNamespace, k, v)
	}
}

// ResolveForComponent resolves every param in params under namespace ns,
// consulting ns then general, then prompting or defaulting per mode, and
// writes the resolved value back under ns.
func (s *Store) ResolveForComponent(ns string, params []manifest.Param, mode Mode) error {
	for _, p := range params {
		if err := s.resolveParam(ns, p, mode); err != nil {
			return trace.Wrap(err)
		}
	}
	return nil
}

func (s *Store) resolveParam(ns string, p manifest.Param, mode Mode) error {
	if _, ok := s.Get(ns, p.Name); ok {
		return nil
	}
	if v, ok := s.Get(constants.GeneralNamespace, p.Name); ok {
		s.Set(ns, p.Name, v)
		return nil
	}

	shouldAsk := mode == ModeAsk || (mode == ModeNormal && p.Default == nil)
	if shouldAsk && mode != ModeSkipAsking {
		if s.prompter == nil {
			return trace.BadParameter("%v.%v has no value and no prompter is configured", ns, p.Name)
		}
		text := p.Name
		if p.Description != "" {
			text = p.Description
		}
		var v string
		var err error
		if p.Hidden {
			v, err = s.prompter.AskHidden(text)
		} else {
			v, err = s.prompter.Ask(text)
		}
		if err != nil {
			return trace.Wrap(err)
		}
		if v != "" {
			s.Set(ns, p.Name, v)
			return nil
		}
	}

	if p.Default != nil {
		s.Set(ns, p.Name, *p.Default)
		return nil
	}

	if mode == ModeSkipAsking {
		// recorded as absent rather than failing; fetch/genanswers continue
		// with a null value per §7 MissingParam policy
		return nil
	}

	return trace.BadParameter("missing required param %v.%v", ns, p.Name)
}

// ImputeDefaultProvider sets general.provider to constants.DefaultProvider
// if unset, per §4.2's invariant, logging that it did so.
func (s *Store) ImputeDefaultProvider() {
	if _, ok := s.Get(constants.GeneralNamespace, constants.ProviderKey); !ok {
		log.Infof("general.provider not set, defaulting to %v.", constants.DefaultProvider)
		s.Set(constants.GeneralNamespace, constants.ProviderKey, constants.DefaultProvider)
	}
}

// Group is one named group of key/value pairs in deterministic key order
type Group struct {
	Name   string
	Values []KeyValue
}

// KeyValue is a single answer entry
type KeyValue struct {
	Key   string
	Value string
}

// Snapshot returns a deep, deterministically ordered copy of the store:
// general always first, remaining groups and all keys sorted
// lexicographically, for reproducible file output.
func (s *Store) Snapshot() []Group {
	names := make([]string, 0, len(s.groups))
	for name := range s.groups {
		if name != constants.GeneralNamespace {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	if _, ok := s.groups[constants.GeneralNamespace]; ok {
		names = append([]string{constants.GeneralNamespace}, names...)
	}

	out := make([]Group, 0, len(names))
	for _, name := range names {
		out = append(out, Group{Name: name, Values: sortedKeyValues(s.groups[name])})
	}
	return out
}

func sortedKeyValues(m map[string]string) []KeyValue {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]KeyValue, 0, len(keys))
	for _, k := range keys {
		out = append(out, KeyValue{Key: k, Value: m[k]})
	}
	return out
}

// loadGroups replaces the store's contents with the given group/key/value
// map, used by the format loaders after parsing an answer file.
func (s *Store) loadGroups(groups map[string]map[string]string) {
	s.groups = groups
}

// ToMap returns the store's contents as a plain map, for equality checks in
// round-trip tests.
func (s *Store) ToMap() map[string]map[string]string {
	out := make(map[string]map[string]string, len(s.groups))
	for g, kv := range s.groups {
		inner := make(map[string]string, len(kv))
		for k, v := range kv {
			inner[k] = v
		}
		out[g] = inner
	}
	return out
}
