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

package login

import (
	"bufio"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/lestrrat-go/jwx/jwt"
	"github.com/spf13/cobra"
	"github.com/thestormforge/optunactl/cli/internal/commander"
	"github.com/thestormforge/optunactl/internal/config"
	v1 "github.com/thestormforge/optunactl/pkg/api/studies/v1"
	"golang.org/x/oauth2"
)

const tokenPrompt = "Enter the access token for %s: "

// Options is the configuration for creating new authorization entries in a configuration
type Options struct {
	// Config is the optunactl configuration to modify
	Config *config.OptunaConfig
	// StudiesAPI is used to verify the token, it is created from the updated configuration if nil
	StudiesAPI v1.API
	// IOStreams are used to access the standard process streams
	commander.IOStreams

	// Token is the bearer token presented to the dashboard
	Token string
	// TokenFile is a file containing the bearer token
	TokenFile string
	// Force allows an existing authorization to be overwritten
	Force bool
	// SkipServer skips verifying the token against the dashboard
	SkipServer bool
}

// NewCommand creates a new command for executing a login
func NewCommand(o *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate to a dashboard",
		Long: "Record the access token used to reach an Optuna dashboard behind an authenticating proxy.\n\n" +
			"The dashboard is selected using the global --address and --root-prefix flags; the\n" +
			"token is read from --token, --token-file, the OPTUNA_DASHBOARD_TOKEN environment\n" +
			"variable or the terminal, in that order.",

		PersistentPreRunE: commander.WithoutArgsE(o.LoadConfig),
		PreRun:            commander.StreamsPreRun(&o.IOStreams),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.login(cmd)
		},
	}

	cmd.Flags().StringVar(&o.Token, "token", "", "the bearer `token` to present to the dashboard")
	cmd.Flags().StringVar(&o.TokenFile, "token-file", "", "read the bearer token from a `file`")
	cmd.Flags().BoolVar(&o.Force, "force", false, "overwrite existing configuration")
	cmd.Flags().BoolVar(&o.SkipServer, "skip-server", false, "do not verify the token against the dashboard")

	_ = cmd.MarkFlagFilename("token-file")

	return cmd
}

// complete fills in the default values
func (o *Options) complete() error {
	addr := o.Config.Overrides.Address
	if addr != "" {
		if u, err := url.Parse(addr); err != nil {
			return fmt.Errorf("address must be a valid URL: %v", err)
		} else if u.Scheme != "https" && u.Scheme != "http" {
			return fmt.Errorf("address must be an 'http' or 'https' URL")
		}
	}

	// Make sure the name is not blank
	if o.Config.Overrides.Context == "" {
		name := "default"
		if addr != "" {
			name = strings.ToLower(addr)
			name = strings.TrimPrefix(name, "http://")
			name = strings.TrimPrefix(name, "https://")
			name = strings.Trim(name, "/")
			name = strings.ReplaceAll(name, ".", "_")
			name = strings.ReplaceAll(name, "/", "_")
			name = strings.ReplaceAll(name, ":", "_")
		}
		o.Config.Overrides.Context = name
	}

	return nil
}

// LoadConfig is alternate configuration loader. This is a special case for the login command as it needs to inject
// new information into the configuration at load time.
func (o *Options) LoadConfig() error {
	if err := o.complete(); err != nil {
		return err
	}

	return o.Config.Load(func(cfg *config.OptunaConfig) error {
		// Abuse "Update" to validate the configuration does not already have an authorization
		if err := cfg.Update(o.requireForceIfNameExists); err != nil {
			return err
		}

		// We need to save the server in the loader so default values are loaded on top of them
		name := cfg.Overrides.Context
		srv := &config.Server{Address: cfg.Overrides.Address, RootPrefix: cfg.Overrides.RootPrefix}
		if err := cfg.Update(config.SaveServer(name, srv)); err != nil {
			return err
		}

		// We need change the current context here to ensure the value is correct when we try to read the configuration out later
		return cfg.Update(config.ApplyCurrentContext(name, name, name))
	})
}

func (o *Options) login(cmd *cobra.Command) error {
	srv, err := config.CurrentServer(o.Config.Reader())
	if err != nil {
		return err
	}

	t, err := o.readToken(srv.Address)
	if err != nil {
		return err
	}

	subject, err := inspectToken(t, time.Now())
	if err != nil {
		return err
	}

	name := o.Config.Overrides.Context
	if err := o.Config.Update(config.SaveToken(name, t)); err != nil {
		return err
	}

	// The saved token takes precedence over the environment from now on
	o.Config.Overrides.Token = ""

	if !o.SkipServer {
		if o.StudiesAPI == nil {
			if err := commander.SetStudiesAPI(&o.StudiesAPI, o.Config, cmd); err != nil {
				return err
			}
		}
		if _, err := o.StudiesAPI.Meta(cmd.Context()); err != nil {
			return err
		}
	}

	if err := o.Config.Write(); err != nil {
		return err
	}

	if subject != "" {
		_, _ = fmt.Fprintf(o.Out, "You are now logged in to %s as '%s'.\n", srv.Address, subject)
	} else {
		_, _ = fmt.Fprintf(o.Out, "You are now logged in to %s.\n", srv.Address)
	}
	return nil
}

// readToken returns the token from the first available source
func (o *Options) readToken(address string) (*oauth2.Token, error) {
	token := o.Token

	if token == "" && o.TokenFile != "" {
		data, err := o.ReadFile(o.TokenFile)
		if err != nil {
			return nil, err
		}
		token = string(data)
	}

	if token == "" {
		token = o.Config.Overrides.Token
	}

	if token == "" {
		_, _ = fmt.Fprintf(o.ErrOut, tokenPrompt, address)
		line, err := bufio.NewReader(o.In).ReadString('\n')
		if err != nil && line == "" {
			return nil, fmt.Errorf("unable to read access token: %w", err)
		}
		token = line
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return nil, fmt.Errorf("an access token is required")
	}

	return &oauth2.Token{AccessToken: token, TokenType: "bearer"}, nil
}

// inspectToken records the expiry of JWT access tokens and returns the subject; opaque tokens are accepted as-is
func inspectToken(t *oauth2.Token, now time.Time) (string, error) {
	token, err := jwt.ParseString(t.AccessToken)
	if err != nil {
		return "", nil
	}

	if exp := token.Expiration(); !exp.IsZero() {
		if exp.Before(now) {
			return "", fmt.Errorf("access token expired at %s", exp.UTC().Format(time.RFC3339))
		}
		t.Expiry = exp
	}

	return token.Subject(), nil
}

// requireForceIfNameExists is a configuration "change" that really just validates that there are no name conflicts
func (o *Options) requireForceIfNameExists(cfg *config.Config) error {
	if !o.Force {
		// NOTE: We do not require --force for server name conflicts so you can log into an existing configuration
		for i := range cfg.Authorizations {
			if cfg.Authorizations[i].Name == o.Config.Overrides.Context {
				az := &cfg.Authorizations[i].Authorization
				if az.Credential.TokenCredential != nil || az.Credential.ClientCredential != nil {
					return fmt.Errorf("refusing to update, use --force")
				}
			}
		}
	}
	return nil
}
