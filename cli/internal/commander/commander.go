/*
Copyright 2021 GramLabs, Inc.

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

package commander

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"github.com/spf13/cobra"
	"github.com/thestormforge/optunactl/internal/config"
	"github.com/thestormforge/optunactl/internal/metrics"
	"github.com/thestormforge/optunactl/pkg/api"
	v1 "github.com/thestormforge/optunactl/pkg/api/studies/v1"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/oauth2"
)

const (
	flagVerbosity      = "verbosity"
	flagMetrics        = "metrics"
	flagRateLimit      = "rate-limit"
	flagRequestTimeout = "request-timeout"
)

// IOStreams allows individual commands access to standard process streams (or their overrides).
type IOStreams struct {
	// In is used to access the standard input stream (or it's override)
	In io.Reader
	// Out is used to access the standard output stream (or it's override)
	Out io.Writer
	// ErrOut is used to access the standard error output stream (or it's override)
	ErrOut io.Writer
}

// OpenFile returns a read closer for the specified filename. If the filename is logically
// empty (i.e. "-"), the input stream is returned.
func (s *IOStreams) OpenFile(filename string) (io.ReadCloser, error) {
	if filename == "-" {
		return io.NopCloser(s.In), nil
	}
	return os.Open(filename)
}

// ReadFile returns the full contents of the specified filename (or the input stream for "-").
func (s *IOStreams) ReadFile(filename string) ([]byte, error) {
	r, err := s.OpenFile(filename)
	if err != nil {
		return nil, err
	}
	defer func() { _ = r.Close() }()
	return io.ReadAll(r)
}

// SetStreams updates the streams using the supplied command
func SetStreams(streams *IOStreams, cmd *cobra.Command) {
	streams.Out = cmd.OutOrStdout()
	streams.ErrOut = cmd.ErrOrStderr()
	streams.In = cmd.InOrStdin()
}

// StreamsPreRun is intended to be used as a pre-run function for commands when no other action is required
func StreamsPreRun(streams *IOStreams) func(cmd *cobra.Command, args []string) {
	return func(cmd *cobra.Command, args []string) {
		SetStreams(streams, cmd)
	}
}

// NewLogger returns a console logger writing to the supplied stream; higher verbosity levels include more detail.
func NewLogger(w io.Writer, verbosity int) logr.Logger {
	// zap levels are the negated logr V levels
	level := zap.NewAtomicLevelAt(zapcore.Level(-verbosity))
	return zapr.NewLogger(zap.New(zapcore.NewCore(zapcore.NewConsoleEncoder(
		zapcore.EncoderConfig{
			MessageKey:  "msg",
			LevelKey:    "level",
			EncodeLevel: zapcore.LowercaseLevelEncoder,
		}),
		zapcore.AddSync(w),
		level)))
}

// SetStudiesAPI creates a new studies API interface from the supplied configuration
func SetStudiesAPI(studiesAPI *v1.API, cfg *config.OptunaConfig, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	srv, err := config.CurrentServer(cfg.Reader())
	if err != nil {
		return err
	}

	// Reuse the OAuth2 base transport (which carries the user agent) for the API calls
	t, err := cfg.Authorize(ctx, metrics.InstrumentTransport(oauth2.NewClient(ctx, nil).Transport))
	if err != nil {
		return err
	}

	// Missing global flags (e.g. in tests) leave the defaults in place
	verbosity, _ := cmd.Flags().GetInt(flagVerbosity)
	opts := []api.ClientOption{api.WithLogger(NewLogger(cmd.ErrOrStderr(), verbosity))}
	if limit, err := cmd.Flags().GetFloat64(flagRateLimit); err == nil && limit > 0 {
		opts = append(opts, api.WithRateLimit(limit, 1))
	}
	if timeout, err := cmd.Flags().GetDuration(flagRequestTimeout); err == nil {
		opts = append(opts, api.WithTimeout(timeout))
	}

	c, err := api.NewClient(srv.Address, srv.RootPrefix, t, opts...)
	if err != nil {
		return err
	}

	*studiesAPI = v1.NewAPI(c)
	return nil
}

// SetPrinter assigns the resource printer during the pre-run of the supplied command
func SetPrinter(meta TableMeta, printer *ResourcePrinter, cmd *cobra.Command) {
	pf := newPrintFlags(meta, cmd.Annotations)
	pf.addFlags(cmd)
	AddPreRunE(cmd, func(*cobra.Command, []string) error {
		return pf.toPrinter(printer)
	})
}

// ConfigGlobals sets up persistent globals for the supplied configuration
func ConfigGlobals(cfg *config.OptunaConfig, cmd *cobra.Command) {
	// Make sure we get the root to make these globals
	root := cmd.Root()

	// Create the configuration options on top of environment variable overrides
	root.PersistentFlags().StringVar(&cfg.Filename, "optunaconfig", cfg.Filename, "path to the optunactl configuration `file` to use")
	root.PersistentFlags().StringVar(&cfg.Overrides.Context, "context", "", "the `name` of the configuration context to use")
	root.PersistentFlags().StringVar(&cfg.Overrides.Address, "address", "", "override the dashboard server `url`")
	root.PersistentFlags().StringVar(&cfg.Overrides.RootPrefix, "root-prefix", "", "override the `path` the dashboard is served under")
	root.PersistentFlags().IntP(flagVerbosity, "v", 0, "log `level` for API requests written to standard error")
	root.PersistentFlags().Bool(flagMetrics, false, "print client request metrics when the command finishes")
	root.PersistentFlags().Float64(flagRateLimit, 0, "maximum number of API `requests` per second")
	root.PersistentFlags().Duration(flagRequestTimeout, 10*time.Second, "time limit for each API request")

	_ = root.MarkFlagFilename("optunaconfig")

	// Set the persistent pre-run on the root, individual commands can bypass this by supplying their own persistent pre-run
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error { return cfg.Load() }
	root.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		if show, _ := cmd.Flags().GetBool(flagMetrics); show {
			return metrics.WriteText(cmd.ErrOrStderr())
		}
		return nil
	}
}

// WithContextE wraps a function that accepts a context in one that accepts a command and argument slice
func WithContextE(runE func(context.Context) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error { return runE(cmd.Context()) }
}

// WithoutArgsE wraps a no-argument function in one that accepts a command and argument slice
func WithoutArgsE(runE func() error) func(*cobra.Command, []string) error {
	return func(*cobra.Command, []string) error { return runE() }
}

// AddPreRunE adds an error returning pre-run function to the supplied command, existing pre-run actions will run AFTER
// the supplied function, and only if the supplied pre-run function does not return an error
func AddPreRunE(cmd *cobra.Command, preRunE func(*cobra.Command, []string) error) {
	// Nothing set yet, just add it
	if cmd.PreRunE == nil && cmd.PreRun == nil {
		cmd.PreRunE = preRunE
		return
	}

	// Capture the existing function
	oldPreRunE := cmd.PreRunE
	oldPreRun := cmd.PreRun

	// Redefine the pre-run
	cmd.PreRun = nil
	cmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		if err := preRunE(cmd, args); err != nil {
			return err
		}
		if oldPreRunE != nil {
			return oldPreRunE(cmd, args)
		}
		if oldPreRun != nil {
			oldPreRun(cmd, args)
		}
		return nil
	}
}

// SetFlagValues updates the named flag usage and completion to include possible choices.
func SetFlagValues(cmd *cobra.Command, flagName string, values ...string) {
	f := cmd.Flag(flagName)
	if f == nil {
		return
	}

	// Remove blank values
	tmp := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			tmp = append(tmp, v)
		}
	}
	values = tmp

	f.Usage = fmt.Sprintf("%s; one of: %s", f.Usage, strings.Join(values, "|"))
	_ = cmd.RegisterFlagCompletionFunc(flagName, func(_ *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		c := make([]string, 0, len(values))
		for _, v := range values {
			if strings.HasPrefix(v, toComplete) {
				c = append(c, v)
			}
		}
		return c, cobra.ShellCompDirectiveNoFileComp
	})
}

// MapErrors wraps all of the error returning functions on the supplied command (and it's sub-commands) so that
// they pass any errors through the mapping function.
func MapErrors(cmd *cobra.Command, f func(error) error) {
	// Define a function which passes all errors through the supplied mapping function
	wrapE := func(runE func(*cobra.Command, []string) error) func(*cobra.Command, []string) error {
		if runE != nil {
			return func(cmd *cobra.Command, args []string) error {
				return f(runE(cmd, args))
			}
		}
		return nil
	}

	// Wrap all the error returning functions
	cmd.PersistentPreRunE = wrapE(cmd.PersistentPreRunE)
	cmd.PreRunE = wrapE(cmd.PreRunE)
	cmd.RunE = wrapE(cmd.RunE)
	cmd.PostRunE = wrapE(cmd.PostRunE)
	cmd.PersistentPostRunE = wrapE(cmd.PersistentPostRunE)

	// Recurse and wrap errors for all of the sub-commands
	for _, c := range cmd.Commands() {
		MapErrors(c, f)
	}
}
