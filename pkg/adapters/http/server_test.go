package http_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aretw0/navgraph"
	"github.com/aretw0/navgraph/internal/navmap"
	navhttp "github.com/aretw0/navgraph/pkg/adapters/http"
	"github.com/aretw0/navgraph/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	site, err := navmap.Load(filepath.Join("..", "..", "..", "internal", "navmap", "testdata", "console.yaml"))
	require.NoError(t, err)

	promReg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(promReg)

	nav, err := navgraph.New(site.Registry(), navgraph.WithLifecycleHooks(metrics.Hooks()))
	require.NoError(t, err)

	srv := httptest.NewServer(navhttp.NewHandler(nav, site.Target, navhttp.WithGatherer(promReg)))
	t.Cleanup(srv.Close)
	return srv
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	var sb bytes.Buffer
	_, err = sb.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp, sb.String()
}

func TestServer_Health(t *testing.T) {
	srv := newServer(t)
	resp, body := get(t, srv.URL+"/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, body)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestServer_Types(t *testing.T) {
	srv := newServer(t)
	resp, body := get(t, srv.URL+"/types")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var types []navhttp.TypeInfo
	require.NoError(t, json.Unmarshal([]byte(body), &types))

	byName := make(map[string]navhttp.TypeInfo)
	for _, ti := range types {
		byName[ti.Name] = ti
	}
	assert.Equal(t, []string{"Vm"}, byName["InfraVm"].Bases)
	assert.Equal(t, []string{"SetOwnership"}, byName["InfraVm"].Destinations)
	assert.Equal(t, []string{"All", "Details"}, byName["Vm"].Destinations)
}

func TestServer_Plan(t *testing.T) {
	srv := newServer(t)
	resp, body := get(t, srv.URL+"/plan?entity=web-01&destination=Details")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var plan navhttp.PlanResponse
	require.NoError(t, json.Unmarshal([]byte(body), &plan))
	assert.Equal(t, "InfraVm(web-01)", plan.Target)

	var got []string
	for _, h := range plan.Hops {
		got = append(got, h.Entity+"/"+h.Destination)
	}
	assert.Equal(t, []string{
		"Server(server)/LoggedIn",
		"InfraProvider(vsphere)/All",
		"InfraProvider(vsphere)/Details",
		"InfraVm(web-01)/All",
		"InfraVm(web-01)/Details",
	}, got)
	assert.Equal(t, "Vm", plan.Hops[4].DefinedOn)
	assert.Equal(t, "sibling(All)", plan.Hops[4].Prerequisite)
}

func TestServer_PlanErrors(t *testing.T) {
	srv := newServer(t)

	tests := []struct {
		name   string
		query  string
		status int
	}{
		{"Missing Parameters", "?entity=web-01", http.StatusBadRequest},
		{"Unknown Destination", "?entity=web-01&destination=Nowhere", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, _ := get(t, srv.URL+"/plan"+tt.query)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestServer_Graph(t *testing.T) {
	srv := newServer(t)

	resp, body := get(t, srv.URL+"/graph")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.HasPrefix(body, "graph TD\n"))
	assert.NotContains(t, body, "classDef")

	_, body = get(t, srv.URL+"/graph?entity=web-01&destination=SetOwnership")
	assert.Contains(t, body, "class Server_LoggedIn visited;")
	assert.Contains(t, body, "class InfraVm_SetOwnership current;")
}

func TestServer_Metrics(t *testing.T) {
	srv := newServer(t)
	resp, body := get(t, srv.URL+"/metrics")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/plain")
	assert.NotContains(t, body, "go_goroutines")
}
