package prometheus

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/giantswarm/mcp-prometheus-multitenant/internal/server"
	"github.com/giantswarm/mcp-prometheus-multitenant/internal/tenant"
	"github.com/prometheus/client_golang/api"
	v1 "github.com/prometheus/client_golang/api/prometheus/v1"
	"github.com/prometheus/common/model"
)

// orgIDRoundTripper adds Organization ID header to requests for multi-tenant setups
type orgIDRoundTripper struct {
	orgID string
	rt    http.RoundTripper
}

func (o *orgIDRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	if o.orgID != "" {
		req.Header.Set("X-Scope-OrgID", o.orgID)
	}
	return o.rt.RoundTrip(req)
}

// basicAuthRoundTripper adds basic authentication to requests
type basicAuthRoundTripper struct {
	username string
	password string
	rt       http.RoundTripper
}

func (b *basicAuthRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	req.SetBasicAuth(b.username, b.password)
	return b.rt.RoundTrip(req)
}

// bearerTokenRoundTripper adds bearer token authentication to requests
type bearerTokenRoundTripper struct {
	token string
	rt    http.RoundTripper
}

func (b *bearerTokenRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("Authorization", "Bearer "+b.token)
	return b.rt.RoundTrip(req)
}

// Client wraps the official Prometheus client for a single tenant backend
type Client struct {
	client v1.API
	desc   tenant.Descriptor
	logger server.Logger
}

// NewClient creates a Prometheus client for the given tenant using the
// official client library. The transport is layered according to the auth
// mode resolved when the registry was built.
func NewClient(desc tenant.Descriptor, logger server.Logger) (*Client, error) {
	logger.Debug("Creating Prometheus client", "tenant", desc.Name, "url", desc.URL, "auth_method", desc.Auth.String())

	// Start with default transport
	roundTripper := http.DefaultTransport

	// Add authentication layer
	switch desc.Auth {
	case tenant.AuthBearer:
		roundTripper = &bearerTokenRoundTripper{
			token: desc.Token,
			rt:    roundTripper,
		}
	case tenant.AuthBasic:
		roundTripper = &basicAuthRoundTripper{
			username: desc.Username,
			password: desc.Password,
			rt:       roundTripper,
		}
	}

	// Add organization ID layer if specified (for Cortex/Mimir style backends)
	if desc.OrgID != "" {
		roundTripper = &orgIDRoundTripper{
			orgID: desc.OrgID,
			rt:    roundTripper,
		}
	}

	promClient, err := api.NewClient(api.Config{
		Address:      desc.URL,
		RoundTripper: roundTripper,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Prometheus client for tenant %q: %w", desc.Name, err)
	}

	return &Client{
		client: v1.NewAPI(promClient),
		desc:   desc,
		logger: logger,
	}, nil
}

// Tenant returns the descriptor this client talks to.
func (c *Client) Tenant() tenant.Descriptor {
	return c.desc
}

// parseTime accepts RFC3339 or a Unix timestamp in seconds (with optional
// fraction), the two formats the Prometheus HTTP API takes for time
// parameters. An empty value means now.
func parseTime(value string) (time.Time, error) {
	if value == "" {
		return time.Now(), nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	if sec, err := strconv.ParseFloat(value, 64); err == nil {
		s, frac := math.Modf(sec)
		return time.Unix(int64(s), int64(frac*float64(time.Second))), nil
	}
	return time.Time{}, fmt.Errorf("invalid time %q: expected RFC3339 or Unix timestamp", value)
}

// parseRange validates a range query window before any network call is made.
func parseRange(start, end, step string) (v1.Range, error) {
	startTime, err := parseTime(start)
	if err != nil {
		return v1.Range{}, fmt.Errorf("invalid start time: %w", err)
	}
	endTime, err := parseTime(end)
	if err != nil {
		return v1.Range{}, fmt.Errorf("invalid end time: %w", err)
	}
	stepDuration, err := model.ParseDuration(step)
	if err != nil {
		return v1.Range{}, fmt.Errorf("invalid step duration %q: %w", step, err)
	}
	if stepDuration <= 0 {
		return v1.Range{}, fmt.Errorf("invalid step duration %q: must be positive", step)
	}
	if endTime.Before(startTime) {
		return v1.Range{}, fmt.Errorf("invalid range: end time precedes start time")
	}
	return v1.Range{
		Start: startTime,
		End:   endTime,
		Step:  time.Duration(stepDuration),
	}, nil
}

// QueryResult represents the result of a PromQL query
type QueryResult struct {
	ResultType string      `json:"resultType"`
	Result     interface{} `json:"result"`
}

// ExecuteQuery executes an instant PromQL query at the given evaluation time
func (c *Client) ExecuteQuery(ctx context.Context, query string, ts time.Time) (*QueryResult, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	result, warnings, err := c.client.Query(ctx, query, ts)
	if err != nil {
		return nil, classifyError(err)
	}

	if len(warnings) > 0 {
		c.logger.Warn("Query returned warnings", "tenant", c.desc.Name, "query", query, "warnings", warnings)
	}

	return &QueryResult{
		ResultType: result.Type().String(),
		Result:     result,
	}, nil
}

// ExecuteRangeQuery executes a PromQL query over the given time window
func (c *Client) ExecuteRangeQuery(ctx context.Context, query string, r v1.Range) (*QueryResult, error) {
	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	result, warnings, err := c.client.QueryRange(ctx, query, r)
	if err != nil {
		return nil, classifyError(err)
	}

	if len(warnings) > 0 {
		c.logger.Warn("Range query returned warnings", "tenant", c.desc.Name, "query", query, "warnings", warnings)
	}

	return &QueryResult{
		ResultType: result.Type().String(),
		Result:     result,
	}, nil
}

// ListMetrics retrieves all metric names known to the backend
func (c *Client) ListMetrics(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	labelValues, warnings, err := c.client.LabelValues(ctx, "__name__", nil, time.Time{}, time.Time{})
	if err != nil {
		return nil, classifyError(err)
	}

	if len(warnings) > 0 {
		c.logger.Warn("List metrics returned warnings", "tenant", c.desc.Name, "warnings", warnings)
	}

	metrics := make([]string, len(labelValues))
	for i, labelValue := range labelValues {
		metrics[i] = string(labelValue)
	}

	return metrics, nil
}

// MetricMetadata holds metadata entries keyed by metric name
type MetricMetadata map[string]interface{}

// GetMetricMetadata retrieves metadata for a specific metric, or for every
// metric the backend knows about when metric is empty
func (c *Client) GetMetricMetadata(ctx context.Context, metric string) (MetricMetadata, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	metadata, err := c.client.Metadata(ctx, metric, "")
	if err != nil {
		return nil, classifyError(err)
	}

	result := make(MetricMetadata, len(metadata))
	for metricName, metadataList := range metadata {
		convertedList := make([]interface{}, len(metadataList))
		for i, md := range metadataList {
			convertedList[i] = map[string]interface{}{
				"type": md.Type,
				"help": md.Help,
				"unit": md.Unit,
			}
		}
		result[metricName] = convertedList
	}

	return result, nil
}

// TargetsResult represents scrape target discovery state
type TargetsResult struct {
	ActiveTargets  []interface{} `json:"activeTargets"`
	DroppedTargets []interface{} `json:"droppedTargets"`
}

// GetTargets retrieves information about Prometheus scrape targets
func (c *Client) GetTargets(ctx context.Context) (*TargetsResult, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	targets, err := c.client.Targets(ctx)
	if err != nil {
		return nil, classifyError(err)
	}

	result := &TargetsResult{
		ActiveTargets:  make([]interface{}, len(targets.Active)),
		DroppedTargets: make([]interface{}, len(targets.Dropped)),
	}

	for i, target := range targets.Active {
		result.ActiveTargets[i] = map[string]interface{}{
			"discoveredLabels":   target.DiscoveredLabels,
			"labels":             target.Labels,
			"scrapePool":         target.ScrapePool,
			"scrapeUrl":          target.ScrapeURL,
			"globalUrl":          target.GlobalURL,
			"lastError":          target.LastError,
			"lastScrape":         target.LastScrape,
			"lastScrapeDuration": target.LastScrapeDuration,
			"health":             target.Health,
		}
	}

	for i, target := range targets.Dropped {
		result.DroppedTargets[i] = map[string]interface{}{
			"discoveredLabels": target.DiscoveredLabels,
		}
	}

	return result, nil
}
