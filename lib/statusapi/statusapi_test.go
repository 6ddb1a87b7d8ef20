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

package statusapi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/atomicapp/atomicapp/lib/answers"

	"github.com/stretchr/testify/require"
)

type fakeSnapshotter struct {
	groups []answers.Group
}

func (f *fakeSnapshotter) Snapshot() []answers.Group {
	return f.groups
}

func newTestRouter(store Snapshotter) http.Handler {
	return New("", store).srv.Handler
}

func TestStatusReportsSnapshot(t *testing.T) {
	store := &fakeSnapshotter{groups: []answers.Group{
		{Name: "general", Values: []answers.KeyValue{{Key: "provider", Value: "kubernetes"}}},
	}}
	router := newTestRouter(store)

	req := httptest.NewRequest(http.MethodGet, "/status/general", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "kubernetes")
}

func TestStatusUnknownGroupNotFound(t *testing.T) {
	store := &fakeSnapshotter{}
	router := newTestRouter(store)

	req := httptest.NewRequest(http.MethodGet, "/status/missing", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusNotFound, w.Code)
}
