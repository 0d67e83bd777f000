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

package check

import (
	"context"
	"fmt"
	"time"

	"github.com/lestrrat-go/jwx/jwt"
	"github.com/spf13/cobra"
	"github.com/thestormforge/optunactl/cli/internal/commander"
	"github.com/thestormforge/optunactl/internal/config"
	v1 "github.com/thestormforge/optunactl/pkg/api/studies/v1"
)

// ConfigOptions are the options for checking the configuration
type ConfigOptions struct {
	// Config is the optunactl configuration to check
	Config *config.OptunaConfig
	// StudiesAPI is used to verify the dashboard is reachable
	StudiesAPI v1.API
	// IOStreams are used to access the standard process streams
	commander.IOStreams

	// SkipServer skips the connectivity check
	SkipServer bool
}

// NewConfigCommand creates a new command for checking the configuration
func NewConfigCommand(o *ConfigOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Check the configuration",
		Long:  "Check the optunactl configuration and the connection to the dashboard",

		PreRunE: func(cmd *cobra.Command, args []string) error {
			commander.SetStreams(&o.IOStreams, cmd)
			if o.StudiesAPI != nil || o.SkipServer {
				return nil
			}
			return commander.SetStudiesAPI(&o.StudiesAPI, o.Config, cmd)
		},
		RunE: commander.WithContextE(o.checkConfig),
	}

	cmd.Flags().BoolVar(&o.SkipServer, "skip-server", false, "do not try to connect to the dashboard")

	return cmd
}

// checkConfig runs sanity checks on the configuration
func (o *ConfigOptions) checkConfig(ctx context.Context) error {
	r := o.Config.Reader()

	// Verify we can minify the configuration
	if _, err := config.Minify(r); err != nil {
		return err
	}

	srv, err := config.CurrentServer(r)
	if err != nil {
		return err
	}

	// Check the token before we try to use it
	subject, err := tokenSubject(r, time.Now())
	if err != nil {
		return err
	}

	// Verify we can connect using the current configuration
	if !o.SkipServer {
		meta, err := o.StudiesAPI.Meta(ctx)
		if err != nil {
			return err
		}
		if !meta.ArtifactIsAvailable {
			_, _ = fmt.Fprintf(o.Out, "Warning: the dashboard at %s does not have an artifact store.\n", srv.Address)
		}
	}

	if subject != "" {
		_, _ = fmt.Fprintf(o.Out, "Success, configuration is valid for '%s'.\n", subject)
	} else {
		_, _ = fmt.Fprintf(o.Out, "Success.\n")
	}
	return nil
}

// tokenSubject returns the subject of the current access token. Opaque tokens have no subject, expired JWTs are an error.
func tokenSubject(r config.Reader, now time.Time) (string, error) {
	az, err := config.CurrentAuthorization(r)
	if err != nil {
		return "", err
	}
	if az.Credential.TokenCredential == nil {
		return "", nil
	}

	tc := az.Credential.TokenCredential
	if !tc.Expiry.IsZero() && tc.Expiry.Before(now) && tc.RefreshToken == "" {
		return "", fmt.Errorf("access token expired at %s, try running 'optunactl login'", tc.Expiry.Format(time.RFC3339))
	}

	token, err := jwt.ParseString(tc.AccessToken)
	if err != nil {
		// Not every reverse proxy issues JWTs
		return "", nil
	}

	if exp := token.Expiration(); !exp.IsZero() && exp.Before(now) && tc.RefreshToken == "" {
		return "", fmt.Errorf("access token expired at %s, try running 'optunactl login'", exp.Format(time.RFC3339))
	}

	return token.Subject(), nil
}
