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

package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"strings"

	"github.com/atomicapp/atomicapp/lib/defaults"

	"github.com/gravitational/trace"
	"sigs.k8s.io/yaml"
)

// ParseError carries a parse failure's location in the source document, so
// callers can surface the offending line/column plus a context window.
type ParseError struct {
	// Path is the manifest file that failed to parse
	Path string
	// Line is the 1-indexed line the error was detected on, 0 if unknown
	Line int
	// Column is the 1-indexed column the error was detected on, 0 if unknown
	Column int
	// Context is up to defaults.MaxParseContextLines source lines around Line
	Context string
	// Cause is the underlying decode error
	Cause error
}

// Error implements error
func (e *ParseError) Error() string {
	if e.Line == 0 {
		return fmt.Sprintf("%s: %v", e.Path, e.Cause)
	}
	return fmt.Sprintf("%s:%d:%d: %v\n%s", e.Path, e.Line, e.Column, e.Cause, e.Context)
}

// Unwrap exposes the underlying decode error
func (e *ParseError) Unwrap() error {
	return e.Cause
}

// ParseFile parses the manifest at path as JSON or YAML and validates it
func ParseFile(path string) (*Manifest, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, trace.ConvertSystemError(err)
	}
	m, err := Parse(data)
	if err != nil {
		if perr, ok := err.(*ParseError); ok {
			perr.Path = path
			return nil, perr
		}
		return nil, trace.Wrap(err)
	}
	return m, nil
}

// Parse parses manifest data as JSON or YAML, without touching disk
func Parse(data []byte) (*Manifest, error) {
	jsonData, err := yaml.YAMLToJSON(data)
	if err != nil {
		return nil, newParseError(data, err)
	}
	var m Manifest
	if err := json.Unmarshal(jsonData, &m); err != nil {
		return nil, newParseError(data, err)
	}
	if err := Validate(&m); err != nil {
		return nil, trace.Wrap(err)
	}
	return &m, nil
}

// newParseError converts a json/yaml decode error into a ParseError,
// recovering a line/column offset and a context window when the
// underlying error type exposes one.
func newParseError(data []byte, err error) *ParseError {
	line, col := 0, 0
	switch e := err.(type) {
	case *json.SyntaxError:
		line, col = lineColAt(data, int(e.Offset))
	case *json.UnmarshalTypeError:
		line, col = lineColAt(data, int(e.Offset))
	}
	perr := &ParseError{Line: line, Column: col, Cause: err}
	if line > 0 {
		perr.Context = contextWindow(data, line)
	}
	return perr
}

func lineColAt(data []byte, offset int) (line, col int) {
	if offset <= 0 || offset > len(data) {
		return 0, 0
	}
	line = 1
	lastNewline := -1
	for i := 0; i < offset; i++ {
		if data[i] == '\n' {
			line++
			lastNewline = i
		}
	}
	col = offset - lastNewline
	return line, col
}

func contextWindow(data []byte, line int) string {
	lines := strings.Split(string(data), "\n")
	half := defaults.MaxParseContextLines / 2
	start := line - 1 - half
	if start < 0 {
		start = 0
	}
	end := start + defaults.MaxParseContextLines
	if end > len(lines) {
		end = len(lines)
	}
	var buf bytes.Buffer
	for i := start; i < end; i++ {
		fmt.Fprintf(&buf, "%4d | %s\n", i+1, lines[i])
	}
	return strings.TrimRight(buf.String(), "\n")
}
