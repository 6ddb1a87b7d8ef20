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
	"path/filepath"
	"testing"

	"github.com/atomicapp/atomicapp/lib/constants"
	"github.com/atomicapp/atomicapp/lib/prompt"

	"github.com/gravitational/trace"
	"github.com/stretchr/testify/require"
)

func TestRoundTripAllFormats(t *testing.T) {
	for _, format := range []Format{FormatINI, FormatJSON, FormatYAML, FormatXML} {
		t.Run(string(format), func(t *testing.T) {
			s := New(&prompt.Canned{})
			s.Set(constants.GeneralNamespace, "provider", "kubernetes")
			s.Set("helloweb", "port", "8080")

			path := filepath.Join(t.TempDir(), "answers."+string(format))
			require.NoError(t, s.WriteFile(path, format))

			loaded := New(&prompt.Canned{})
			require.NoError(t, loaded.LoadFromFile(path, format))

			require.Equal(t, s.ToMap(), loaded.ToMap())
		})
	}
}

func TestLoadFromFileMissingIsNotFound(t *testing.T) {
	s := New(&prompt.Canned{})
	err := s.LoadFromFile(filepath.Join(t.TempDir(), "missing.conf"), FormatINI)
	require.Error(t, err)
	require.True(t, trace.IsNotFound(err))
}

func TestDetectFormat(t *testing.T) {
	require.Equal(t, FormatJSON, DetectFormat("x.json"))
	require.Equal(t, FormatYAML, DetectFormat("x.yaml"))
	require.Equal(t, FormatYAML, DetectFormat("x.yml"))
	require.Equal(t, FormatXML, DetectFormat("x.xml"))
	require.Equal(t, FormatINI, DetectFormat("x.conf"))
	require.Equal(t, Format(constants.AnswersSampleFormat), DetectFormat("x.unknown"))
}
