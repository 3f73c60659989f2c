package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

func registerResources(srv *server.MCPServer, svc *Service) {
	registerPeriodsResource(srv, svc)
	registerPlannerTemplate(srv, svc)
	registerDayTemplate(srv, svc)
}

func registerPeriodsResource(srv *server.MCPServer, svc *Service) {
	resource := mcp.NewResource(
		"planner://periods",
		"Planned days",
		mcp.WithResourceDescription("Every day with a stored planner."),
		mcp.WithMIMEType("application/json"),
	)

	srv.AddResource(resource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		periods, err := svc.Periods(ctx)
		if err != nil {
			return nil, err
		}

		payload := map[string]any{
			"periods": periods,
			"count":   len(periods),
		}
		return encodeResourceJSON(request.Params.URI, payload)
	})
}

func registerPlannerTemplate(srv *server.MCPServer, svc *Service) {
	template := mcp.NewResourceTemplate(
		"planner://periods/{period}",
		"Day planner",
		mcp.WithTemplateDescription("The merged items of one day."),
		mcp.WithTemplateMIMEType("application/json"),
	)

	srv.AddResourceTemplate(template, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		period := argument(request, "period")
		if period == "" {
			return nil, fmt.Errorf("period is required")
		}

		dto, err := svc.Planner(ctx, period, false)
		if err != nil {
			return nil, err
		}
		return encodeResourceJSON(request.Params.URI, dto)
	})
}

func registerDayTemplate(srv *server.MCPServer, svc *Service) {
	template := mcp.NewResourceTemplate(
		"planner://templates/{day}",
		"Day template",
		mcp.WithTemplateDescription("Recurring entries for a day of the week."),
		mcp.WithTemplateMIMEType("application/json"),
	)

	srv.AddResourceTemplate(template, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		day := argument(request, "day")
		if day == "" {
			return nil, fmt.Errorf("day is required")
		}

		entries, err := svc.Template(ctx, day)
		if err != nil {
			return nil, err
		}

		payload := map[string]any{
			"day":     day,
			"entries": entries,
		}
		return encodeResourceJSON(request.Params.URI, payload)
	})
}

// argument reads a URI template variable. The server may hand it over as a
// string or as a one-element list.
func argument(request mcp.ReadResourceRequest, name string) string {
	switch v := request.Params.Arguments[name].(type) {
	case string:
		return v
	case []string:
		if len(v) > 0 {
			return v[0]
		}
	}
	return ""
}

func encodeResourceJSON(uri string, payload any) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
