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

package loc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseImageRef(t *testing.T) {
	tests := []struct {
		source  string
		tag     string
		wantErr bool
	}{
		{source: "docker://registry/db:1", tag: "1"},
		{source: "registry/app:1.2.3", tag: "1.2.3"},
		{source: "myapp", tag: "latest"},
		{source: "", wantErr: true},
		{source: "docker://UPPER_CASE/bad", wantErr: true},
	}
	for _, test := range tests {
		ref, err := ParseImageRef(test.source)
		if test.wantErr {
			require.Error(t, err)
			continue
		}
		require.NoError(t, err)
		require.Equal(t, test.tag, ref.Tag())
	}
}

func TestImageRefIsEqualTo(t *testing.T) {
	a, err := ParseImageRef("docker://registry/db:1")
	require.NoError(t, err)
	b, err := ParseImageRef("registry/db:1")
	require.NoError(t, err)
	require.True(t, a.IsEqualTo(*b))

	c, err := ParseImageRef("registry/db:2")
	require.NoError(t, err)
	require.False(t, a.IsEqualTo(*c))
}
