// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package usage

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type promStub struct {
	mu      sync.Mutex
	results map[string]string
	auth    []string
	status  int
}

func (p *promStub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.auth = append(p.auth, r.Header.Get("Authorization"))
	if p.status != 0 {
		w.WriteHeader(p.status)
		fmt.Fprint(w, `{"status":"error","errorType":"internal","error":"boom"}`)
		return
	}

	if r.URL.Path != "/api/v1/query" {
		http.NotFound(w, r)
		return
	}
	result, ok := p.results[r.FormValue("query")]
	if !ok {
		result = "[]"
	}
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"status":"success","data":{"resultType":"vector","result":%s}}`, result)
}

func sample(node, value string) string {
	return fmt.Sprintf(`{"metric":{"node":%q},"value":[1700000000,%q]}`, node, value)
}

func vector(samples ...string) string {
	return "[" + strings.Join(samples, ",") + "]"
}

func TestPrometheusSource_FetchAllUsage(t *testing.T) {
	stub := &promStub{results: map[string]string{
		DefaultPrometheusCPUQuery:    vector(sample("n1", "1.5"), sample("n2", "0.25"), sample("", "9")),
		DefaultPrometheusMemoryQuery: vector(sample("n1", "2048"), sample("n3", "100")),
	}}
	srv := httptest.NewServer(stub)
	defer srv.Close()

	src, err := NewPrometheusSource(PrometheusOptions{Address: srv.URL})
	require.NoError(t, err)

	got, err := src.FetchAllUsage(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]Usage{
		"n1": {CPUMilli: 1500, MemoryBytes: 2048},
		"n2": {CPUMilli: 250},
		"n3": {MemoryBytes: 100},
	}, got)
}

func TestPrometheusSource_CustomQueries(t *testing.T) {
	cpuQ := `sum by (kubernetes_node) (rate(node_cpu_seconds_total{mode!="idle"}[2m]))`
	memQ := `sum by (kubernetes_node) (node_memory_Active_bytes)`
	stub := &promStub{results: map[string]string{
		cpuQ: `[{"metric":{"kubernetes_node":"n1"},"value":[1700000000,"2"]}]`,
		memQ: `[{"metric":{"kubernetes_node":"n1"},"value":[1700000000,"NaN"]}]`,
	}}
	srv := httptest.NewServer(stub)
	defer srv.Close()

	src, err := NewPrometheusSource(PrometheusOptions{
		Address:     srv.URL,
		CPUQuery:    cpuQ,
		MemoryQuery: memQ,
		NodeLabel:   "kubernetes_node",
	})
	require.NoError(t, err)

	got, err := src.FetchUsage(context.Background(), []string{"n1", "n9"})
	require.NoError(t, err)
	assert.Equal(t, map[string]Usage{"n1": {CPUMilli: 2000}}, got)
}

func TestPrometheusSource_BearerToken(t *testing.T) {
	stub := &promStub{results: map[string]string{}}
	srv := httptest.NewServer(stub)
	defer srv.Close()

	tokenFile := filepath.Join(t.TempDir(), "token")
	require.NoError(t, os.WriteFile(tokenFile, []byte("secret\n"), 0o600))

	src, err := NewPrometheusSource(PrometheusOptions{Address: srv.URL, BearerTokenFile: tokenFile})
	require.NoError(t, err)

	_, err = src.FetchAllUsage(context.Background())
	require.NoError(t, err)

	stub.mu.Lock()
	defer stub.mu.Unlock()
	require.NotEmpty(t, stub.auth)
	for _, a := range stub.auth {
		assert.Equal(t, "Bearer secret", a)
	}
}

func TestPrometheusSource_Errors(t *testing.T) {
	_, err := NewPrometheusSource(PrometheusOptions{})
	assert.Error(t, err)

	stub := &promStub{status: http.StatusInternalServerError}
	srv := httptest.NewServer(stub)
	defer srv.Close()

	src, err := NewPrometheusSource(PrometheusOptions{Address: srv.URL})
	require.NoError(t, err)
	_, err = src.FetchAllUsage(context.Background())
	assert.ErrorIs(t, err, ErrMetricsUnavailable)

	missingToken, err := NewPrometheusSource(PrometheusOptions{
		Address:         srv.URL,
		BearerTokenFile: filepath.Join(t.TempDir(), "missing"),
	})
	require.NoError(t, err)
	_, err = missingToken.FetchAllUsage(context.Background())
	assert.ErrorIs(t, err, ErrMetricsUnavailable)
}

func TestToInt64(t *testing.T) {
	assert.Equal(t, int64(0), toInt64(-3))
	assert.Equal(t, int64(2), toInt64(1.6))
	assert.Equal(t, int64(0), toInt64(0))
}
