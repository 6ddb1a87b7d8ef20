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

// package lock guards a host from concurrent atomicapp invocations racing
// on cached filesystem state (extracted component trees, answer files).
// Acquisition is non-blocking: a busy lock is reported, never waited on.
package lock

import (
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/gravitational/trace"
)

// Lock wraps a single host-wide file lock at a fixed path
type Lock struct {
	path string
	flk  *flock.Flock
}

// New creates a Lock at path, creating parent directories as needed
func New(path string) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, trace.ConvertSystemError(err)
	}
	return &Lock{path: path, flk: flock.New(path)}, nil
}

// Acquire attempts to take the lock without blocking. It returns a Busy
// error (trace.IsAlreadyExists) if another process currently holds it.
func (l *Lock) Acquire() error {
	locked, err := l.flk.TryLock()
	if err != nil {
		return trace.ConvertSystemError(err)
	}
	if !locked {
		return trace.AlreadyExists("another atomicapp process holds the lock at %v", l.path)
	}
	return nil
}

// Release gives up the lock. Safe to call even if Acquire failed.
func (l *Lock) Release() error {
	return trace.Wrap(l.flk.Unlock())
}
