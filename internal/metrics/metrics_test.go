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

package metrics

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstrumentTransport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte("{}"))
	}))
	defer srv.Close()

	ok := RequestCount.WithLabelValues("200", "get")
	notFound := RequestCount.WithLabelValues("404", "get")
	okBefore, notFoundBefore := testutil.ToFloat64(ok), testutil.ToFloat64(notFound)

	client := &http.Client{Transport: InstrumentTransport(nil)}
	for _, p := range []string{"/", "/", "/missing"} {
		resp, err := client.Get(srv.URL + p)
		require.NoError(t, err)
		_ = resp.Body.Close()
	}

	assert.Equal(t, okBefore+2, testutil.ToFloat64(ok))
	assert.Equal(t, notFoundBefore+1, testutil.ToFloat64(notFound))
	assert.Equal(t, float64(0), testutil.ToFloat64(InFlightRequests))
	assert.Equal(t, 1, testutil.CollectAndCount(RequestDuration))

	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf))
	assert.Contains(t, buf.String(), `optunactl_client_requests_total{code="404",method="get"}`)
	assert.Contains(t, buf.String(), "# TYPE optunactl_client_request_duration_seconds histogram")
}
