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

package cli

import (
	"github.com/atomicapp/atomicapp/lib/constants"

	"gopkg.in/alecthomas/kingpin.v2"
)

// RegisterCommands registers all atomicapp flags, arguments and subcommands
func RegisterCommands(app *kingpin.Application) *Application {
	a := &Application{Application: app}

	a.Verbose = app.Flag("verbose", "Emit a full trace report on error").Short('v').Bool()
	a.Quiet = app.Flag("quiet", "Suppress non-essential output").Short('q').Bool()
	a.LogType = app.Flag("logtype", "Logging sink: cockpit, color, nocolor or none").Default("color").
		Enum("cockpit", "color", "nocolor", "none")
	a.ModeOverride = app.Flag("mode", "Override the action verb, one of fetch, run, stop, genanswers").
		Enum("fetch", "run", "stop", "genanswers")
	a.DryRun = app.Flag("dry-run", "Resolve config and render artifacts, but perform no external side effects").Bool()
	a.AnswersFormat = app.Flag("answers-format", "On-disk answer file serialization").
		Default(string(constants.AnswersSampleFormat)).Enum("ini", "json", "xml", "yaml")
	a.Namespace = app.Flag("namespace", "Override general.namespace").String()
	a.ProviderTLSVerify = app.Flag("provider-tlsverify", "Override general.provider-tlsverify").Enum("True", "False")
	a.ProviderConfig = app.Flag("provider-config", "Override general.provider-config").String()
	a.ProviderCAFile = app.Flag("provider-cafile", "Override general.provider-cafile").String()
	a.ProviderAPI = app.Flag("provider-api", "Override general.provider-api").String()
	a.ProviderAuth = app.Flag("provider-auth", "Override general.provider-auth").String()

	a.FetchCmd.CmdClause = a.Command("fetch", "Unpack the application graph and write a sample answer file")
	a.FetchCmd.AppSpec = a.FetchCmd.Arg("app-spec", "Local path or image reference naming the application").String()
	a.FetchCmd.Answers = a.FetchCmd.Flag("answers", "On-disk answer file to merge before resolving").Short('a').String()
	a.FetchCmd.NoDeps = a.FetchCmd.Flag("no-deps", "Skip unpacking external children").Bool()
	a.FetchCmd.Update = a.FetchCmd.Flag("update", "Force re-extraction of already-materialized children").Short('u').Bool()
	a.FetchCmd.Destination = a.FetchCmd.Flag("destination", "Directory to materialize the application into, or 'none' for an ephemeral one").String()

	a.RunCmd.CmdClause = a.Command("run", "Deploy the application to the selected provider")
	a.RunCmd.AppSpec = a.RunCmd.Arg("app-spec", "Local path or image reference naming the application").String()
	a.RunCmd.Answers = a.RunCmd.Flag("answers", "On-disk answer file to merge before resolving").Short('a').String()
	a.RunCmd.WriteAnswers = a.RunCmd.Flag("write-answers", "Additionally write the runtime answer file to this path").String()
	a.RunCmd.Provider = a.RunCmd.Flag("provider", "Override general.provider").String()
	a.RunCmd.Ask = a.RunCmd.Flag("ask", "Prompt for every unset param, default or not").Bool()
	a.RunCmd.Destination = a.RunCmd.Flag("destination", "Directory to materialize the application into, or 'none' for an ephemeral one").String()

	a.StopCmd.CmdClause = a.Command("stop", "Undeploy the application using its persisted runtime answers")
	a.StopCmd.Provider = a.StopCmd.Flag("provider", "Override the provider recorded in the runtime answer file").String()
	a.StopCmd.AppSpec = a.StopCmd.Arg("app-spec", "Local path naming the already-unpacked application").Required().String()

	a.GenanswersCmd.CmdClause = a.Command("genanswers", "Write a sample answer file to the current directory")
	a.GenanswersCmd.AppSpec = a.GenanswersCmd.Arg("app-spec", "Local path or image reference naming the application").String()

	a.InitCmd.CmdClause = a.Command("init", "Scaffold a new application directory")
	a.InitCmd.AppName = a.InitCmd.Arg("app-name", "Name of the scaffolded application").Required().String()
	a.InitCmd.Destination = a.InitCmd.Flag("destination", "Directory to write the scaffold into").String()

	a.IndexCmd.CmdClause = a.Command("index", "Manage a catalog of applications")
	a.IndexCmd.Action = a.IndexCmd.Arg("action", "One of list, update, generate").Required().Enum("list", "update", "generate")
	a.IndexCmd.Location = a.IndexCmd.Arg("location", "Catalog location, required for generate").String()

	return a
}
