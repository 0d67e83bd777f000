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

package ping

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/thestormforge/optunactl/cli/internal/commander"
	"github.com/thestormforge/optunactl/internal/config"
	"github.com/thestormforge/optunactl/internal/version"
	v1 "github.com/thestormforge/optunactl/pkg/api/studies/v1"
	"golang.org/x/oauth2"
)

// Options is the configuration for pinging the dashboard
type Options struct {
	// Config is the optunactl configuration
	Config *config.OptunaConfig
	// StudiesAPI is used to interact with the dashboard API
	StudiesAPI v1.API
	// IOStreams are used to access the standard process streams
	commander.IOStreams

	// Resolver looks up the dashboard host, defaults to the system resolver
	Resolver *net.Resolver
}

// NewCommand creates a new command for pinging the dashboard
func NewCommand(o *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ping",
		Short: "Ping the Optuna dashboard",
		Long:  "Measure the round trip time of a request to the Optuna dashboard API",

		PreRunE: func(cmd *cobra.Command, args []string) error {
			commander.SetStreams(&o.IOStreams, cmd)
			if o.StudiesAPI != nil {
				return nil
			}
			return commander.SetStudiesAPI(&o.StudiesAPI, o.Config, cmd)
		},
		RunE: commander.WithContextE(o.ping),
	}

	return cmd
}

func (o *Options) ping(ctx context.Context) error {
	host, addrs, err := o.hostAndAddrs(ctx)
	if err != nil {
		return err
	}

	updateUserAgent(ctx)

	_, _ = fmt.Fprintf(o.Out, "PING %s (%s): HTTP/1.1 GET /api/meta\n", host, strings.Join(addrs, ", "))

	start := time.Now()
	_, err = o.StudiesAPI.Meta(ctx)
	dur := time.Since(start).Round(time.Microsecond)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(o.Out, "PONG time=%s\n", dur.String())
	return nil
}

// hostAndAddrs returns the host name and resolved addresses of the dashboard.
func (o *Options) hostAndAddrs(ctx context.Context) (string, []string, error) {
	srv, err := config.CurrentServer(o.Config.Reader())
	if err != nil {
		return "", nil, err
	}

	u, err := url.Parse(srv.Address)
	if err != nil {
		return "", nil, err
	}

	host := u.Hostname()
	if ip := net.ParseIP(host); ip != nil {
		return host, []string{ip.String()}, nil
	}

	r := o.Resolver
	if r == nil {
		r = net.DefaultResolver
	}
	addrs, err := r.LookupHost(ctx, host)
	if err != nil {
		return "", nil, err
	}
	return host, addrs, nil
}

// updateUserAgent adds a comment to the UA string so ping requests can be told apart
func updateUserAgent(ctx context.Context) {
	if rt, ok := oauth2.NewClient(ctx, nil).Transport.(*version.Transport); ok && !strings.HasSuffix(rt.UserAgent, " (ping)") {
		rt.UserAgent += " (ping)"
	}
}
