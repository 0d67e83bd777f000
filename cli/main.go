/*
Copyright 2020 GramLabs, Inc.

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
	"context"
	"net/http"
	"os"
	"os/signal"
	"runtime"

	"github.com/spf13/cobra"
	"github.com/thestormforge/optunactl/cli/internal/commands"
	"github.com/thestormforge/optunactl/internal/version"
	"golang.org/x/oauth2"
)

func main() {
	// Keep the order commands are registered in
	cobra.EnableCommandSorting = false

	cmd := commands.NewRootCommand()

	// Interrupting the process cancels any in-flight dashboard requests
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)

	// Every HTTP client is created from the context so they all identify themselves the same way
	ua := version.UserAgent(cmd.Root().Name(), runtime.GOOS+"/"+runtime.GOARCH, nil)
	ctx = context.WithValue(ctx, oauth2.HTTPClient, &http.Client{Transport: ua})

	err := cmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
