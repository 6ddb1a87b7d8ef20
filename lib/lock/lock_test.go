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

package lock

import (
	"path/filepath"
	"testing"

	"github.com/gravitational/trace"
	"github.com/stretchr/testify/require"
)

func TestAcquireRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), "atomicapp.lock")
	l, err := New(path)
	require.NoError(t, err)
	require.NoError(t, l.Acquire())
	require.NoError(t, l.Release())
}

func TestAcquireBusy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "atomicapp.lock")
	first, err := New(path)
	require.NoError(t, err)
	require.NoError(t, first.Acquire())
	defer first.Release()

	second, err := New(path)
	require.NoError(t, err)
	err = second.Acquire()
	require.Error(t, err)
	require.True(t, trace.IsAlreadyExists(err))
}
