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

// package statusapi implements the optional read-only HTTP status
// endpoint, wired only under --logtype=cockpit: a passive observer over
// the Answer Store's current snapshot, carrying no control surface of its
// own.
package statusapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/atomicapp/atomicapp/lib/answers"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

// Snapshotter is the observed state the endpoint reports: the current
// Answer Store grouping.
type Snapshotter interface {
	Snapshot() []answers.Group
}

// Server serves a read-only view of a Snapshotter over HTTP
type Server struct {
	srv *http.Server
}

// New builds a Server listening on addr, reporting store's current
// snapshot at GET /status and GET /status/{group}.
func New(addr string, store Snapshotter) *Server {
	router := mux.NewRouter()
	router.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, store.Snapshot())
	}).Methods(http.MethodGet)
	router.HandleFunc("/status/{group}", func(w http.ResponseWriter, r *http.Request) {
		name := mux.Vars(r)["group"]
		for _, g := range store.Snapshot() {
			if g.Name == name {
				writeJSON(w, g)
				return
			}
		}
		http.NotFound(w, r)
	}).Methods(http.MethodGet)

	return &Server{srv: &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}}
}

// Start begins serving in the background; errors after shutdown are not
// reported since Stop always triggers one.
func (s *Server) Start() {
	go func() {
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warnf("status endpoint stopped: %v.", err)
		}
	}()
}

// Stop shuts the server down, waiting up to ctx's deadline for in-flight
// requests to complete.
func (s *Server) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warnf("failed to encode status response: %v.", err)
	}
}
