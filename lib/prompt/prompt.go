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

// package prompt defines the small interactive-input abstraction the answer
// store depends on, so tests can supply canned input instead of a terminal.
package prompt

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Prompter asks the user for a value, optionally masking the input
type Prompter interface {
	// Ask displays text and returns the line the user typed
	Ask(text string) (string, error)
	// AskHidden displays text and returns the input without echoing it
	AskHidden(text string) (string, error)
}

// Terminal is a Prompter backed by stdin/stdout
type Terminal struct {
	In  io.Reader
	Out io.Writer
	fd  int
}

// NewTerminal creates a Prompter reading from the real terminal
func NewTerminal() *Terminal {
	return &Terminal{In: os.Stdin, Out: os.Stdout, fd: int(os.Stdin.Fd())}
}

// Ask implements Prompter
func (t *Terminal) Ask(text string) (string, error) {
	fmt.Fprintf(t.Out, "%s: ", text)
	reader := bufio.NewReader(t.In)
	line, err := reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// AskHidden implements Prompter, reading without echo when stdin is a
// terminal and falling back to a plain read otherwise (e.g. piped input
// in tests).
func (t *Terminal) AskHidden(text string) (string, error) {
	fmt.Fprintf(t.Out, "%s: ", text)
	if !term.IsTerminal(t.fd) {
		return t.Ask("")
	}
	data, err := term.ReadPassword(t.fd)
	fmt.Fprintln(t.Out)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Canned is a Prompter that returns pre-recorded answers in order, used by
// tests that exercise resolve_for_component without a real terminal.
type Canned struct {
	Answers []string
	pos     int
}

// Ask implements Prompter
func (c *Canned) Ask(string) (string, error) {
	return c.next()
}

// AskHidden implements Prompter
func (c *Canned) AskHidden(string) (string, error) {
	return c.next()
}

func (c *Canned) next() (string, error) {
	if c.pos >= len(c.Answers) {
		return "", nil
	}
	v := c.Answers[c.pos]
	c.pos++
	return v, nil
}
