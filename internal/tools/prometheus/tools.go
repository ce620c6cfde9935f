package prometheus

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/giantswarm/mcp-prometheus-multitenant/internal/server"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// RegisterPrometheusTools registers Prometheus-related tools with the MCP server
func RegisterPrometheusTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	// Create one backend client per configured tenant
	dispatcher, err := NewDispatcher(sc.Registry(), sc.Logger())
	if err != nil {
		return fmt.Errorf("failed to create tenant dispatcher: %w", err)
	}

	// list_tenants tool
	listTenantsTool := mcp.NewTool("list_tenants",
		mcp.WithDescription("List all configured Prometheus tenants and which one is the default"),
	)

	s.AddTool(listTenantsTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleListTenants(ctx, request, dispatcher, sc)
	})

	// execute_query tool
	executeQueryTool := mcp.NewTool("execute_query",
		mcp.WithDescription("Execute a PromQL instant query against a Prometheus tenant"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("PromQL query string"),
		),
		mcp.WithString("time",
			mcp.Description("Optional RFC3339 or Unix timestamp (default: current time)"),
		),
		mcp.WithString("tenant",
			mcp.Description("Optional tenant name (default: the default tenant)"),
		),
	)

	s.AddTool(executeQueryTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleExecuteQuery(ctx, request, dispatcher, sc)
	})

	// execute_range_query tool
	executeRangeQueryTool := mcp.NewTool("execute_range_query",
		mcp.WithDescription("Execute a PromQL range query with start time, end time, and step interval"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("PromQL query string"),
		),
		mcp.WithString("start",
			mcp.Required(),
			mcp.Description("Start time as RFC3339 or Unix timestamp"),
		),
		mcp.WithString("end",
			mcp.Required(),
			mcp.Description("End time as RFC3339 or Unix timestamp"),
		),
		mcp.WithString("step",
			mcp.Required(),
			mcp.Description("Query resolution step width (e.g., '15s', '1m', '1h')"),
		),
		mcp.WithString("tenant",
			mcp.Description("Optional tenant name (default: the default tenant)"),
		),
	)

	s.AddTool(executeRangeQueryTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleExecuteRangeQuery(ctx, request, dispatcher, sc)
	})

	// execute_query_all_tenants tool
	executeQueryAllTenantsTool := mcp.NewTool("execute_query_all_tenants",
		mcp.WithDescription("Execute a PromQL instant query against every configured tenant concurrently"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("PromQL query string"),
		),
		mcp.WithString("time",
			mcp.Description("Optional RFC3339 or Unix timestamp (default: current time)"),
		),
	)

	s.AddTool(executeQueryAllTenantsTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleExecuteQueryAllTenants(ctx, request, dispatcher, sc)
	})

	// list_metrics tool
	listMetricsTool := mcp.NewTool("list_metrics",
		mcp.WithDescription("List all available metrics in a Prometheus tenant"),
		mcp.WithString("tenant",
			mcp.Description("Optional tenant name (default: the default tenant)"),
		),
	)

	s.AddTool(listMetricsTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleListMetrics(ctx, request, dispatcher, sc)
	})

	// get_metric_metadata tool
	getMetricMetadataTool := mcp.NewTool("get_metric_metadata",
		mcp.WithDescription("Get metadata for a specific metric, or for all metrics when no metric is given"),
		mcp.WithString("metric",
			mcp.Description("Optional metric name to retrieve metadata for"),
		),
		mcp.WithString("tenant",
			mcp.Description("Optional tenant name (default: the default tenant)"),
		),
	)

	s.AddTool(getMetricMetadataTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleGetMetricMetadata(ctx, request, dispatcher, sc)
	})

	// get_targets tool
	getTargetsTool := mcp.NewTool("get_targets",
		mcp.WithDescription("Get information about all scrape targets of a Prometheus tenant"),
		mcp.WithString("tenant",
			mcp.Description("Optional tenant name (default: the default tenant)"),
		),
	)

	s.AddTool(getTargetsTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleGetTargets(ctx, request, dispatcher, sc)
	})

	return nil
}

// extractParams pulls the arguments map out of a tool request.
func extractParams(request mcp.CallToolRequest) map[string]interface{} {
	params := make(map[string]interface{})
	if request.Params.Arguments != nil {
		if argsMap, ok := request.Params.Arguments.(map[string]interface{}); ok {
			params = argsMap
		}
	}
	return params
}

// jsonResult marshals a response payload into a text tool result.
func jsonResult(response interface{}) (*mcp.CallToolResult, error) {
	jsonData, err := json.MarshalIndent(response, "", "  ")
	if err != nil {
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{
				mcp.TextContent{
					Type: "text",
					Text: fmt.Sprintf("Error encoding result: %v", err),
				},
			},
		}, nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{
				Type: "text",
				Text: string(jsonData),
			},
		},
	}, nil
}

// handleListTenants handles the list_tenants tool
func handleListTenants(ctx context.Context, request mcp.CallToolRequest, d *Dispatcher, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	sc.Logger().Debug("Listing tenants")

	return jsonResult(d.ListTenants())
}

// handleExecuteQuery handles the execute_query tool
func handleExecuteQuery(ctx context.Context, request mcp.CallToolRequest, d *Dispatcher, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	params := extractParams(request)

	query, ok := params["query"].(string)
	if !ok || query == "" {
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{
				mcp.TextContent{
					Type: "text",
					Text: "Error: query parameter is required and must be a string",
				},
			},
		}, nil
	}

	timeParam, _ := params["time"].(string)
	tenantName, _ := params["tenant"].(string)

	op, err := queryOperation(query, timeParam)
	if err != nil {
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{
				mcp.TextContent{
					Type: "text",
					Text: fmt.Sprintf("Error: %v", err),
				},
			},
		}, nil
	}

	sc.Logger().Debug("Executing PromQL query", "query", query, "time", timeParam, "tenant", tenantName)

	res, err := d.One(ctx, tenantName, op)
	if err != nil {
		sc.Logger().Error("Failed to execute query", "error", err, "tenant", res.Tenant)
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{
				mcp.TextContent{
					Type: "text",
					Text: fmt.Sprintf("Error executing query: %v", err),
				},
			},
		}, nil
	}

	result := res.Payload.(*QueryResult)
	return jsonResult(map[string]interface{}{
		"resultType": result.ResultType,
		"result":     result.Result,
		"tenant":     res.Tenant,
	})
}

// handleExecuteRangeQuery handles the execute_range_query tool
func handleExecuteRangeQuery(ctx context.Context, request mcp.CallToolRequest, d *Dispatcher, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	params := extractParams(request)

	query, ok := params["query"].(string)
	if !ok || query == "" {
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{
				mcp.TextContent{
					Type: "text",
					Text: "Error: query parameter is required and must be a string",
				},
			},
		}, nil
	}

	start, ok := params["start"].(string)
	if !ok || start == "" {
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{
				mcp.TextContent{
					Type: "text",
					Text: "Error: start parameter is required and must be a string",
				},
			},
		}, nil
	}

	end, ok := params["end"].(string)
	if !ok || end == "" {
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{
				mcp.TextContent{
					Type: "text",
					Text: "Error: end parameter is required and must be a string",
				},
			},
		}, nil
	}

	step, ok := params["step"].(string)
	if !ok || step == "" {
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{
				mcp.TextContent{
					Type: "text",
					Text: "Error: step parameter is required and must be a string",
				},
			},
		}, nil
	}

	tenantName, _ := params["tenant"].(string)

	op, err := rangeQueryOperation(query, start, end, step)
	if err != nil {
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{
				mcp.TextContent{
					Type: "text",
					Text: fmt.Sprintf("Error: %v", err),
				},
			},
		}, nil
	}

	sc.Logger().Debug("Executing PromQL range query", "query", query, "start", start, "end", end, "step", step, "tenant", tenantName)

	res, err := d.One(ctx, tenantName, op)
	if err != nil {
		sc.Logger().Error("Failed to execute range query", "error", err, "tenant", res.Tenant)
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{
				mcp.TextContent{
					Type: "text",
					Text: fmt.Sprintf("Error executing range query: %v", err),
				},
			},
		}, nil
	}

	result := res.Payload.(*QueryResult)
	return jsonResult(map[string]interface{}{
		"resultType": result.ResultType,
		"result":     result.Result,
		"tenant":     res.Tenant,
	})
}

// handleExecuteQueryAllTenants handles the execute_query_all_tenants tool
func handleExecuteQueryAllTenants(ctx context.Context, request mcp.CallToolRequest, d *Dispatcher, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	params := extractParams(request)

	query, ok := params["query"].(string)
	if !ok || query == "" {
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{
				mcp.TextContent{
					Type: "text",
					Text: "Error: query parameter is required and must be a string",
				},
			},
		}, nil
	}

	timeParam, _ := params["time"].(string)

	op, err := queryOperation(query, timeParam)
	if err != nil {
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{
				mcp.TextContent{
					Type: "text",
					Text: fmt.Sprintf("Error: %v", err),
				},
			},
		}, nil
	}

	sc.Logger().Debug("Executing PromQL query across all tenants", "query", query, "time", timeParam, "tenants", d.Registry().Len())

	agg, err := d.All(ctx, op)
	if err != nil {
		sc.Logger().Error("Failed to execute query across tenants", "error", err)
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{
				mcp.TextContent{
					Type: "text",
					Text: fmt.Sprintf("Error executing query across tenants: %v", err),
				},
			},
		}, nil
	}

	sc.Logger().Debug("Multi-tenant query completed", "query", query,
		"successful_tenants", agg.SuccessfulTenants, "failed_tenants", agg.FailedTenants)

	return jsonResult(map[string]interface{}{
		"query":              query,
		"time":               timeParam,
		"results":            agg.Results,
		"successful_tenants": agg.SuccessfulTenants,
		"failed_tenants":     agg.FailedTenants,
		"total_tenants":      agg.TotalTenants,
	})
}

// handleListMetrics handles the list_metrics tool
func handleListMetrics(ctx context.Context, request mcp.CallToolRequest, d *Dispatcher, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	params := extractParams(request)
	tenantName, _ := params["tenant"].(string)

	sc.Logger().Debug("Listing metrics", "tenant", tenantName)

	res, err := d.One(ctx, tenantName, listMetricsOperation())
	if err != nil {
		sc.Logger().Error("Failed to list metrics", "error", err, "tenant", res.Tenant)
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{
				mcp.TextContent{
					Type: "text",
					Text: fmt.Sprintf("Error listing metrics: %v", err),
				},
			},
		}, nil
	}

	metrics := res.Payload.([]string)
	return jsonResult(map[string]interface{}{
		"metrics": metrics,
		"tenant":  res.Tenant,
		"count":   len(metrics),
	})
}

// handleGetMetricMetadata handles the get_metric_metadata tool
func handleGetMetricMetadata(ctx context.Context, request mcp.CallToolRequest, d *Dispatcher, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	params := extractParams(request)

	metric, _ := params["metric"].(string)
	tenantName, _ := params["tenant"].(string)

	sc.Logger().Debug("Getting metric metadata", "metric", metric, "tenant", tenantName)

	res, err := d.One(ctx, tenantName, metricMetadataOperation(metric))
	if err != nil {
		sc.Logger().Error("Failed to get metric metadata", "error", err, "metric", metric, "tenant", res.Tenant)
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{
				mcp.TextContent{
					Type: "text",
					Text: fmt.Sprintf("Error getting metric metadata: %v", err),
				},
			},
		}, nil
	}

	metadata := res.Payload.(MetricMetadata)
	return jsonResult(map[string]interface{}{
		"metadata": metadata,
		"metric":   metric,
		"tenant":   res.Tenant,
		"count":    len(metadata),
	})
}

// handleGetTargets handles the get_targets tool
func handleGetTargets(ctx context.Context, request mcp.CallToolRequest, d *Dispatcher, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	params := extractParams(request)
	tenantName, _ := params["tenant"].(string)

	sc.Logger().Debug("Getting targets", "tenant", tenantName)

	res, err := d.One(ctx, tenantName, targetsOperation())
	if err != nil {
		sc.Logger().Error("Failed to get targets", "error", err, "tenant", res.Tenant)
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{
				mcp.TextContent{
					Type: "text",
					Text: fmt.Sprintf("Error getting targets: %v", err),
				},
			},
		}, nil
	}

	targets := res.Payload.(*TargetsResult)
	return jsonResult(map[string]interface{}{
		"activeTargets":  targets.ActiveTargets,
		"droppedTargets": targets.DroppedTargets,
		"tenant":         res.Tenant,
		"active_count":   len(targets.ActiveTargets),
		"dropped_count":  len(targets.DroppedTargets),
	})
}
