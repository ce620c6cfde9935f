package prometheus

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/giantswarm/mcp-prometheus-multitenant/internal/server"
	"github.com/giantswarm/mcp-prometheus-multitenant/internal/tenant"
)

// TestLogger implements server.Logger for testing
type TestLogger struct{}

func (l *TestLogger) Debug(msg string, args ...interface{}) {}
func (l *TestLogger) Info(msg string, args ...interface{})  {}
func (l *TestLogger) Warn(msg string, args ...interface{})  {}
func (l *TestLogger) Error(msg string, args ...interface{}) {}

// newTestContext builds a server context and dispatcher over the given
// tenant configuration.
func newTestContext(t *testing.T, tenantsJSON, defaultTenant string) (*server.ServerContext, *Dispatcher) {
	t.Helper()

	reg, err := tenant.BuildRegistry(tenant.Config{TenantsJSON: tenantsJSON, DefaultTenant: defaultTenant})
	if err != nil {
		t.Fatalf("Failed to build registry: %v", err)
	}

	sc, err := server.NewServerContext(context.Background(),
		server.WithRegistry(reg),
		server.WithLogger(&TestLogger{}),
	)
	if err != nil {
		t.Fatalf("Failed to create server context: %v", err)
	}
	t.Cleanup(func() { sc.Shutdown() })

	d, err := NewDispatcher(reg, sc.Logger())
	if err != nil {
		t.Fatalf("Failed to create dispatcher: %v", err)
	}
	return sc, d
}

// resultText extracts the text content of a tool result.
func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("Tool result has no content")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("Unexpected content type %T", result.Content[0])
	}
	return text.Text
}

func TestRegisterPrometheusTools(t *testing.T) {
	s := mcpserver.NewMCPServer("test", "1.0.0")

	sc, _ := newTestContext(t, `[{"name": "default", "url": "http://localhost:9090"}]`, "")

	if err := RegisterPrometheusTools(s, sc); err != nil {
		t.Fatalf("Failed to register tools: %v", err)
	}
}

func TestHandleListTenants(t *testing.T) {
	sc, d := newTestContext(t, `[
		{"name": "prod", "url": "http://prod:9090", "token": "super-secret"},
		{"name": "dev", "url": "http://dev:9090"}
	]`, "")

	request := mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name: "list_tenants",
		},
	}

	result, err := handleListTenants(context.Background(), request, d, sc)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if result.IsError {
		t.Errorf("Expected success, got error: %v", result.Content)
	}

	text := resultText(t, result)
	if strings.Contains(text, "super-secret") {
		t.Error("Tenant listing leaked a credential")
	}

	var list TenantList
	if err := json.Unmarshal([]byte(text), &list); err != nil {
		t.Fatalf("Response is not valid JSON: %v", err)
	}
	if list.DefaultTenant != "prod" {
		t.Errorf("default_tenant = %q, want prod", list.DefaultTenant)
	}
	if list.TotalCount != 2 || len(list.Tenants) != 2 {
		t.Fatalf("total_count = %d with %d entries, want 2", list.TotalCount, len(list.Tenants))
	}
	if !list.Tenants[0].Default || list.Tenants[1].Default {
		t.Errorf("Default flags wrong: %+v", list.Tenants)
	}
}

func TestHandleExecuteQuery(t *testing.T) {
	// Create mock server
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1/query" {
			response := map[string]interface{}{
				"status": "success",
				"data": map[string]interface{}{
					"resultType": "vector",
					"result":     []interface{}{},
				},
			}
			json.NewEncoder(w).Encode(response)
		} else {
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer mockServer.Close()

	sc, d := newTestContext(t, fmt.Sprintf(`[{"name": "default", "url": %q}]`, mockServer.URL), "")

	// Test valid request
	request := mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name: "execute_query",
			Arguments: map[string]interface{}{
				"query": "up",
			},
		},
	}

	result, err := handleExecuteQuery(context.Background(), request, d, sc)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if result.IsError {
		t.Errorf("Expected success, got error: %v", result.Content)
	}

	var response map[string]interface{}
	if err := json.Unmarshal([]byte(resultText(t, result)), &response); err != nil {
		t.Fatalf("Response is not valid JSON: %v", err)
	}
	if response["resultType"] != "vector" {
		t.Errorf("resultType = %v, want vector", response["resultType"])
	}
	if response["tenant"] != "default" {
		t.Errorf("tenant = %v, want default", response["tenant"])
	}

	// Test missing query parameter
	requestBad := mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      "execute_query",
			Arguments: map[string]interface{}{},
		},
	}

	result, err = handleExecuteQuery(context.Background(), requestBad, d, sc)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if !result.IsError {
		t.Errorf("Expected error for missing query parameter")
	}

	// Test unknown tenant
	requestUnknown := mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name: "execute_query",
			Arguments: map[string]interface{}{
				"query":  "up",
				"tenant": "ghost",
			},
		},
	}

	result, err = handleExecuteQuery(context.Background(), requestUnknown, d, sc)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if !result.IsError {
		t.Errorf("Expected error for unknown tenant")
	}
}

func TestHandleExecuteQueryTenantRouting(t *testing.T) {
	promResponse := `{"status": "success", "data": {"resultType": "vector", "result": []}}`

	var hitsA, hitsB atomic.Int32
	mockA := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hitsA.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(promResponse))
	}))
	defer mockA.Close()
	mockB := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hitsB.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(promResponse))
	}))
	defer mockB.Close()

	sc, d := newTestContext(t, fmt.Sprintf(`[{"name":"a","url":%q},{"name":"b","url":%q}]`, mockA.URL, mockB.URL), "")

	request := mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name: "execute_query",
			Arguments: map[string]interface{}{
				"query":  "up",
				"tenant": "b",
			},
		},
	}

	result, err := handleExecuteQuery(context.Background(), request, d, sc)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if result.IsError {
		t.Fatalf("Expected success, got error: %v", result.Content)
	}

	var response map[string]interface{}
	if err := json.Unmarshal([]byte(resultText(t, result)), &response); err != nil {
		t.Fatalf("Response is not valid JSON: %v", err)
	}
	if response["tenant"] != "b" {
		t.Errorf("tenant = %v, want b", response["tenant"])
	}
	if hitsA.Load() != 0 {
		t.Errorf("Tenant a received %d requests, want 0", hitsA.Load())
	}
	if hitsB.Load() != 1 {
		t.Errorf("Tenant b received %d requests, want 1", hitsB.Load())
	}
}

func TestHandleExecuteRangeQuery(t *testing.T) {
	var hits atomic.Int32
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path == "/api/v1/query_range" {
			response := map[string]interface{}{
				"status": "success",
				"data": map[string]interface{}{
					"resultType": "matrix",
					"result":     []interface{}{},
				},
			}
			json.NewEncoder(w).Encode(response)
		} else {
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer mockServer.Close()

	sc, d := newTestContext(t, fmt.Sprintf(`[{"name": "default", "url": %q}]`, mockServer.URL), "")

	// Test valid request
	request := mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name: "execute_range_query",
			Arguments: map[string]interface{}{
				"query": "up",
				"start": "2023-01-01T00:00:00Z",
				"end":   "2023-01-01T01:00:00Z",
				"step":  "1m",
			},
		},
	}

	result, err := handleExecuteRangeQuery(context.Background(), request, d, sc)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if result.IsError {
		t.Errorf("Expected success, got error: %v", result.Content)
	}

	// An inverted window must be rejected before any request is made
	hits.Store(0)
	requestBad := mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name: "execute_range_query",
			Arguments: map[string]interface{}{
				"query": "up",
				"start": "2023-01-01T01:00:00Z",
				"end":   "2023-01-01T00:00:00Z",
				"step":  "1m",
			},
		},
	}

	result, err = handleExecuteRangeQuery(context.Background(), requestBad, d, sc)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if !result.IsError {
		t.Errorf("Expected error for inverted time range")
	}
	if hits.Load() != 0 {
		t.Errorf("Backend received %d requests for an invalid range, want 0", hits.Load())
	}
}

func TestHandleExecuteQueryAllTenants(t *testing.T) {
	mockA := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status": "success", "data": {"resultType": "vector", "result": []}}`))
	}))
	defer mockA.Close()

	dead := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	dead.Close()

	sc, d := newTestContext(t, fmt.Sprintf(`[{"name":"a","url":%q},{"name":"b","url":%q}]`, mockA.URL, dead.URL), "")

	request := mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name: "execute_query_all_tenants",
			Arguments: map[string]interface{}{
				"query": "up",
			},
		},
	}

	result, err := handleExecuteQueryAllTenants(context.Background(), request, d, sc)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if result.IsError {
		t.Fatalf("Expected success, got error: %v", result.Content)
	}

	var response struct {
		Query             string         `json:"query"`
		Results           []TenantResult `json:"results"`
		SuccessfulTenants int            `json:"successful_tenants"`
		FailedTenants     int            `json:"failed_tenants"`
		TotalTenants      int            `json:"total_tenants"`
	}
	if err := json.Unmarshal([]byte(resultText(t, result)), &response); err != nil {
		t.Fatalf("Response is not valid JSON: %v", err)
	}

	if response.TotalTenants != 2 || response.SuccessfulTenants != 1 || response.FailedTenants != 1 {
		t.Errorf("Counts = %d successful, %d failed, %d total; want 1/1/2",
			response.SuccessfulTenants, response.FailedTenants, response.TotalTenants)
	}
	if len(response.Results) != 2 || response.Results[0].Tenant != "a" || response.Results[1].Tenant != "b" {
		t.Fatalf("Results out of order: %+v", response.Results)
	}
	if !response.Results[0].Success || response.Results[1].Success {
		t.Errorf("Expected tenant a to succeed and tenant b to fail: %+v", response.Results)
	}
	if response.Results[1].Error == nil || response.Results[1].Error.Kind != ErrorUnreachable {
		t.Errorf("Expected unreachable error for tenant b: %+v", response.Results[1].Error)
	}
}

func TestHandleGetMetricMetadata(t *testing.T) {
	// Create mock server
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1/metadata" {
			response := map[string]interface{}{
				"status": "success",
				"data": map[string]interface{}{
					"http_requests_total": []interface{}{
						map[string]interface{}{
							"type": "counter",
							"help": "Total HTTP requests",
							"unit": "",
						},
					},
				},
			}
			json.NewEncoder(w).Encode(response)
		} else {
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer mockServer.Close()

	sc, d := newTestContext(t, fmt.Sprintf(`[{"name": "default", "url": %q}]`, mockServer.URL), "")

	// Test with a specific metric
	request := mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name: "get_metric_metadata",
			Arguments: map[string]interface{}{
				"metric": "http_requests_total",
			},
		},
	}

	result, err := handleGetMetricMetadata(context.Background(), request, d, sc)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if result.IsError {
		t.Errorf("Expected success, got error: %v", result.Content)
	}

	var response map[string]interface{}
	if err := json.Unmarshal([]byte(resultText(t, result)), &response); err != nil {
		t.Fatalf("Response is not valid JSON: %v", err)
	}
	if response["metric"] != "http_requests_total" {
		t.Errorf("metric = %v, want http_requests_total", response["metric"])
	}
	if response["count"] != float64(1) {
		t.Errorf("count = %v, want 1", response["count"])
	}

	// Test without a metric (metadata for everything)
	requestAll := mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      "get_metric_metadata",
			Arguments: map[string]interface{}{},
		},
	}

	result, err = handleGetMetricMetadata(context.Background(), requestAll, d, sc)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if result.IsError {
		t.Errorf("Expected success, got error: %v", result.Content)
	}
}
