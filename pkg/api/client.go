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

package api

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"golang.org/x/time/rate"
)

// Client is used to make requests against the dashboard API.
type Client interface {
	// URL returns the absolute URL of an endpoint relative to the API base.
	URL(endpoint string) *url.URL
	// Do performs the request and returns the fully read response body.
	Do(context.Context, *http.Request) (*http.Response, []byte, error)
}

// ClientOption customizes a client.
type ClientOption func(*httpClient)

// WithLogger sets the logger used to record requests; requests are logged at V(1).
func WithLogger(log logr.Logger) ClientOption {
	return func(c *httpClient) { c.log = log }
}

// WithTimeout overrides the default request timeout. A zero timeout disables it.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *httpClient) { c.client.Timeout = timeout }
}

// WithRateLimit limits the number of requests made per second. A zero limit is ignored.
func WithRateLimit(limit float64, burst int) ClientOption {
	return func(c *httpClient) {
		if limit <= 0 {
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(limit), burst)
	}
}

// NewClient returns a client for the dashboard running at the supplied address. The root prefix is
// the path the dashboard is mounted under (e.g. when behind a reverse proxy) and may be empty. The
// supplied transport may be nil to use the default transport.
func NewClient(address, rootPrefix string, transport http.RoundTripper, opts ...ClientOption) (Client, error) {
	u, err := BaseURL(address, rootPrefix)
	if err != nil {
		return nil, err
	}

	c := &httpClient{
		endpoint: u,
		client:   http.Client{Timeout: 10 * time.Second, Transport: transport},
		log:      logr.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// NormalizeRootPrefix returns a root prefix that is either empty or starts with a slash and does
// not end with one.
func NormalizeRootPrefix(prefix string) string {
	prefix = strings.TrimSpace(prefix)
	if prefix != "" && !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}
	if len(prefix) > 1 && strings.HasSuffix(prefix, "/") {
		prefix = prefix[:len(prefix)-1]
	}
	if prefix == "/" {
		prefix = ""
	}
	return prefix
}

// BaseURL returns the base URL of the API for a dashboard at the supplied address and root prefix.
func BaseURL(address, rootPrefix string) (*url.URL, error) {
	u, err := url.Parse(address)
	if err != nil {
		return nil, err
	}
	if !u.IsAbs() {
		return nil, &url.Error{Op: "parse", URL: address, Err: errNotAbsolute}
	}
	u.Path = strings.TrimRight(u.Path, "/") + NormalizeRootPrefix(rootPrefix) + "/api"
	u.RawPath = ""
	return u, nil
}

type httpClient struct {
	endpoint *url.URL
	client   http.Client
	limiter  *rate.Limiter
	log      logr.Logger
}

func (c *httpClient) URL(ep string) *url.URL {
	u := *c.endpoint
	u.Path = path.Join(c.endpoint.Path, ep)
	if strings.HasSuffix(ep, "/") && !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return &u
}

func (c *httpClient) Do(ctx context.Context, req *http.Request) (*http.Response, []byte, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	req = req.WithContext(ctx)

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, nil, err
		}
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.log.V(1).Info("Request failed", "method", req.Method, "url", req.URL.String(), "error", err.Error())
		return nil, nil, err
	}
	defer resp.Body.Close()

	var body []byte
	done := make(chan struct{})
	go func() {
		body, err = io.ReadAll(resp.Body)
		close(done)
	}()

	select {
	case <-ctx.Done():
		<-done
		err = resp.Body.Close()
		if err == nil {
			err = ctx.Err()
		}
	case <-done:
	}

	c.log.V(1).Info("Request", "method", req.Method, "url", req.URL.String(),
		"status", resp.StatusCode, "duration", time.Since(start).Round(time.Millisecond).String())
	return resp, body, err
}
