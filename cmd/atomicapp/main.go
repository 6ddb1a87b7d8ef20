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

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/atomicapp/atomicapp/cmd/atomicapp/cli"
	"github.com/atomicapp/atomicapp/lib/constants"

	"github.com/fatih/color"
	"github.com/gravitational/trace"
	"gopkg.in/alecthomas/kingpin.v2"
)

func main() {
	os.Args = effectiveArgs(os.Args)

	app := kingpin.New("atomicapp", "Deploy containerized multi-component applications")
	a := cli.RegisterCommands(app)
	if err := cli.Run(a); err != nil {
		printError(err, *a.Verbose)
		os.Exit(1)
	}
}

// effectiveArgs applies ATOMICAPP_ARGS and ATOMICAPP_APPEND_ARGS to the
// process's argv per the container-label invocation convention: ArgsEnvVar,
// when set, replaces the command line entirely; AppendArgsEnvVar appends
// extra arguments after whichever command line is in effect.
func effectiveArgs(argv []string) []string {
	out := argv
	if replacement, ok := os.LookupEnv(constants.ArgsEnvVar); ok {
		out = append([]string{argv[0]}, strings.Fields(replacement)...)
	}
	if extra, ok := os.LookupEnv(constants.AppendArgsEnvVar); ok {
		out = append(out, strings.Fields(extra)...)
	}
	return out
}

func printError(err error, verbose bool) {
	if verbose {
		fmt.Fprintln(os.Stderr, trace.DebugReport(err))
		return
	}
	fmt.Fprint(os.Stderr, color.RedString("[ERROR]: %v\n", trace.UserMessage(err)))
}
