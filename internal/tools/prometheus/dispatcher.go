package prometheus

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/giantswarm/mcp-prometheus-multitenant/internal/server"
	"github.com/giantswarm/mcp-prometheus-multitenant/internal/tenant"
)

// Operation is a single Prometheus API call that can be dispatched to one
// tenant or fanned out to all of them. Constructors validate parameters up
// front so a bad request fails before any backend is contacted.
type Operation struct {
	Name string
	Run  func(ctx context.Context, c *Client) (interface{}, error)
}

// queryOperation builds an instant query operation.
func queryOperation(query, ts string) (Operation, error) {
	evalTime, err := parseTime(ts)
	if err != nil {
		return Operation{}, err
	}
	return Operation{
		Name: "execute_query",
		Run: func(ctx context.Context, c *Client) (interface{}, error) {
			return c.ExecuteQuery(ctx, query, evalTime)
		},
	}, nil
}

// rangeQueryOperation builds a range query operation.
func rangeQueryOperation(query, start, end, step string) (Operation, error) {
	r, err := parseRange(start, end, step)
	if err != nil {
		return Operation{}, err
	}
	return Operation{
		Name: "execute_range_query",
		Run: func(ctx context.Context, c *Client) (interface{}, error) {
			return c.ExecuteRangeQuery(ctx, query, r)
		},
	}, nil
}

// listMetricsOperation builds an operation listing all metric names.
func listMetricsOperation() Operation {
	return Operation{
		Name: "list_metrics",
		Run: func(ctx context.Context, c *Client) (interface{}, error) {
			return c.ListMetrics(ctx)
		},
	}
}

// metricMetadataOperation builds a metadata lookup operation. An empty
// metric requests metadata for every metric.
func metricMetadataOperation(metric string) Operation {
	return Operation{
		Name: "get_metric_metadata",
		Run: func(ctx context.Context, c *Client) (interface{}, error) {
			return c.GetMetricMetadata(ctx, metric)
		},
	}
}

// targetsOperation builds a scrape target discovery operation.
func targetsOperation() Operation {
	return Operation{
		Name: "get_targets",
		Run: func(ctx context.Context, c *Client) (interface{}, error) {
			return c.GetTargets(ctx)
		},
	}
}

// TenantError is the wire form of a BackendError.
type TenantError struct {
	Kind    ErrorKind `json:"kind"`
	Status  string    `json:"status,omitempty"`
	Message string    `json:"message"`
}

func newTenantError(err error) *TenantError {
	var backendErr *BackendError
	if errors.As(err, &backendErr) {
		return &TenantError{
			Kind:    backendErr.Kind,
			Status:  backendErr.Status,
			Message: backendErr.Message,
		}
	}
	return &TenantError{Kind: ErrorUnreachable, Message: err.Error()}
}

// TenantResult is the outcome of one operation against one tenant. Exactly
// one of Payload and Error is set.
type TenantResult struct {
	Tenant  string       `json:"tenant"`
	Success bool         `json:"success"`
	Payload interface{}  `json:"payload,omitempty"`
	Error   *TenantError `json:"error,omitempty"`
}

// AggregateResult collects per-tenant outcomes of a fan-out, in registry
// order.
type AggregateResult struct {
	Results           []TenantResult `json:"results"`
	SuccessfulTenants int            `json:"successful_tenants"`
	FailedTenants     int            `json:"failed_tenants"`
	TotalTenants      int            `json:"total_tenants"`
}

// TenantInfo describes one configured tenant. Credentials never appear
// here, only whether authentication is configured at all.
type TenantInfo struct {
	Name    string `json:"name"`
	URL     string `json:"url"`
	OrgID   string `json:"org_id,omitempty"`
	HasAuth bool   `json:"has_auth"`
	Default bool   `json:"default"`
}

// TenantList is the payload of the list_tenants tool.
type TenantList struct {
	Tenants       []TenantInfo `json:"tenants"`
	DefaultTenant string       `json:"default_tenant"`
	TotalCount    int          `json:"total_count"`
}

// Dispatcher routes operations to tenant backends: a single named tenant,
// or every registered tenant concurrently.
type Dispatcher struct {
	registry *tenant.Registry
	clients  map[string]*Client
	logger   server.Logger
	tracer   trace.Tracer
}

// NewDispatcher builds one backend client per registered tenant.
func NewDispatcher(registry *tenant.Registry, logger server.Logger) (*Dispatcher, error) {
	clients := make(map[string]*Client, registry.Len())
	for _, desc := range registry.All() {
		client, err := NewClient(desc, logger)
		if err != nil {
			return nil, err
		}
		clients[desc.Name] = client
	}

	return &Dispatcher{
		registry: registry,
		clients:  clients,
		logger:   logger,
		tracer:   otel.Tracer("mcp-prometheus-multitenant/prometheus"),
	}, nil
}

// Registry returns the tenant registry backing this dispatcher.
func (d *Dispatcher) Registry() *tenant.Registry {
	return d.registry
}

// One runs the operation against a single tenant. An empty name selects
// the default tenant; an unknown name is an error, never a fallback to the
// default. On backend failure the failed TenantResult and the error are
// both returned.
func (d *Dispatcher) One(ctx context.Context, name string, op Operation) (TenantResult, error) {
	desc, err := d.registry.Resolve(name)
	if err != nil {
		return TenantResult{}, err
	}

	payload, err := d.run(ctx, d.clients[desc.Name], op)
	if err != nil {
		return TenantResult{Tenant: desc.Name, Error: newTenantError(err)}, err
	}

	return TenantResult{Tenant: desc.Name, Success: true, Payload: payload}, nil
}

// All fans the operation out to every registered tenant concurrently.
// Results come back in registry order and one tenant's failure never
// blocks or cancels another's call. If ctx is cancelled before the fan-out
// completes, no partial aggregate is returned.
func (d *Dispatcher) All(ctx context.Context, op Operation) (*AggregateResult, error) {
	tenants := d.registry.All()
	results := make([]TenantResult, len(tenants))

	var g errgroup.Group
	for i, desc := range tenants {
		client := d.clients[desc.Name]
		g.Go(func() error {
			payload, err := d.run(ctx, client, op)
			if err != nil {
				d.logger.Warn("Operation failed", "operation", op.Name, "tenant", desc.Name, "error", err)
				results[i] = TenantResult{Tenant: desc.Name, Error: newTenantError(err)}
				return nil
			}
			results[i] = TenantResult{Tenant: desc.Name, Success: true, Payload: payload}
			return nil
		})
	}
	// Per-tenant failures live in the result slots, never in worker
	// returns, so Wait only synchronizes the fan-out.
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	agg := &AggregateResult{Results: results, TotalTenants: len(results)}
	for _, r := range results {
		if r.Success {
			agg.SuccessfulTenants++
		} else {
			agg.FailedTenants++
		}
	}

	return agg, nil
}

// ListTenants reports the configured tenants without credentials.
func (d *Dispatcher) ListTenants() TenantList {
	descs := d.registry.All()
	list := TenantList{
		Tenants:       make([]TenantInfo, len(descs)),
		DefaultTenant: d.registry.DefaultName(),
		TotalCount:    len(descs),
	}
	for i, desc := range descs {
		list.Tenants[i] = TenantInfo{
			Name:    desc.Name,
			URL:     desc.URL,
			OrgID:   desc.OrgID,
			HasAuth: desc.HasAuth(),
			Default: desc.Name == list.DefaultTenant,
		}
	}
	return list
}

func (d *Dispatcher) run(ctx context.Context, c *Client, op Operation) (interface{}, error) {
	ctx, span := d.tracer.Start(ctx, "prometheus."+op.Name,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("prometheus.tenant", c.Tenant().Name),
			attribute.String("prometheus.url", c.Tenant().URL),
		),
	)
	defer span.End()

	payload, err := op.Run(ctx, c)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetStatus(codes.Ok, "")
	return payload, nil
}
