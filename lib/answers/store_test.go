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

package answers

import (
	"testing"

	"github.com/atomicapp/atomicapp/lib/constants"
	"github.com/atomicapp/atomicapp/lib/manifest"
	"github.com/atomicapp/atomicapp/lib/prompt"

	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestResolveForComponentUsesDefault(t *testing.T) {
	s := New(&prompt.Canned{})
	params := []manifest.Param{{Name: "port", Default: strPtr("8080")}}
	require.NoError(t, s.ResolveForComponent("helloweb", params, ModeNormal))
	v, ok := s.Get("helloweb", "port")
	require.True(t, ok)
	require.Equal(t, "8080", v)
}

func TestResolveForComponentFallsBackToGeneral(t *testing.T) {
	s := New(&prompt.Canned{})
	s.Set(constants.GeneralNamespace, "namespace", "prod")
	params := []manifest.Param{{Name: "namespace"}}
	require.NoError(t, s.ResolveForComponent("helloweb", params, ModeSkipAsking))
	v, ok := s.Get("helloweb", "namespace")
	require.True(t, ok)
	require.Equal(t, "prod", v)
}

func TestResolveForComponentSkipAskingLeavesMissingParamUnset(t *testing.T) {
	s := New(&prompt.Canned{})
	params := []manifest.Param{{Name: "token"}}
	require.NoError(t, s.ResolveForComponent("helloweb", params, ModeSkipAsking))
	_, ok := s.Get("helloweb", "token")
	require.False(t, ok)
}

func TestResolveForComponentNormalFailsWithoutDefaultOrPrompter(t *testing.T) {
	s := New(nil)
	params := []manifest.Param{{Name: "token"}}
	err := s.ResolveForComponent("helloweb", params, ModeNormal)
	require.Error(t, err)
}

func TestResolveForComponentPrompts(t *testing.T) {
	s := New(&prompt.Canned{Answers: []string{"alice"}})
	params := []manifest.Param{{Name: "user"}}
	require.NoError(t, s.ResolveForComponent("helloweb", params, ModeNormal))
	v, _ := s.Get("helloweb", "user")
	require.Equal(t, "alice", v)
}

func TestMergeCLIWinsOverFile(t *testing.T) {
	s := New(&prompt.Canned{})
	s.Set(constants.GeneralNamespace, "namespace", "file-ns")
	s.MergeCLI(map[string]string{"namespace": "cli-ns"})
	v, _ := s.Get(constants.GeneralNamespace, "namespace")
	require.Equal(t, "cli-ns", v)
}

func TestImputeDefaultProvider(t *testing.T) {
	s := New(&prompt.Canned{})
	s.ImputeDefaultProvider()
	v, ok := s.Get(constants.GeneralNamespace, constants.ProviderKey)
	require.True(t, ok)
	require.Equal(t, constants.DefaultProvider, v)
}

func TestSnapshotOrdersGeneralFirst(t *testing.T) {
	s := New(&prompt.Canned{})
	s.Set("zeta", "k", "v")
	s.Set(constants.GeneralNamespace, "k", "v")
	s.Set("alpha", "k", "v")
	snap := s.Snapshot()
	require.Equal(t, constants.GeneralNamespace, snap[0].Name)
	require.Equal(t, "alpha", snap[1].Name)
	require.Equal(t, "zeta", snap[2].Name)
}
