package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"tableflip.dev/planner/pkg/store"
)

func registerTools(srv *server.MCPServer, svc *Service) {
	registerShowPlannerTool(srv, svc)
	registerAddItemTool(srv, svc)
	registerEditItemTool(srv, svc)
	registerMoveItemTool(srv, svc)
	registerToggleDeleteTool(srv, svc)
	registerConfirmDeletesTool(srv, svc)
	registerRolloverTool(srv, svc)
	registerListTemplateTool(srv, svc)
	registerAddTemplateTool(srv, svc)
}

func periodOption() mcp.ToolOption {
	return mcp.WithString("period",
		mcp.Description("Day as YYYY-MM-DD. Defaults to today."),
	)
}

func registerShowPlannerTool(srv *server.MCPServer, svc *Service) {
	tool := mcp.NewTool(
		"show_planner",
		mcp.WithDescription("Merge calendar and template events into a day and list its items in order."),
		periodOption(),
		mcp.WithBoolean("all",
			mcp.Description("Include hidden and pending-delete items."),
		),
	)

	srv.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args struct {
			Period string `json:"period"`
			All    bool   `json:"all"`
		}
		if err := request.BindArguments(&args); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}

		dto, err := svc.Planner(ctx, args.Period, args.All)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toJSONResult(dto)
	})
}

func registerAddItemTool(srv *server.MCPServer, svc *Service) {
	tool := mcp.NewTool(
		"add_item",
		mcp.WithDescription("Add an item to a day. Timed items are placed in time order."),
		periodOption(),
		mcp.WithString("value",
			mcp.Required(),
			mcp.Description("Text of the item."),
		),
		mcp.WithString("at",
			mcp.Description("Optional start time as HH:MM."),
		),
		mcp.WithString("after",
			mcp.Description("Optional id of the item to place this one after. Defaults to the end."),
		),
	)

	srv.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args struct {
			Period string `json:"period"`
			Value  string `json:"value"`
			At     string `json:"at"`
			After  string `json:"after"`
		}
		if err := request.BindArguments(&args); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}

		dto, err := svc.AddItem(ctx, args.Period, args.Value, args.At, args.After)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toJSONResult(dto)
	})
}

func registerEditItemTool(srv *server.MCPServer, svc *Service) {
	tool := mcp.NewTool(
		"edit_item",
		mcp.WithDescription("Change an item's text or start time. Editing a calendar or template item detaches a copy."),
		periodOption(),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Item identifier."),
		),
		mcp.WithString("value",
			mcp.Description("New text. Empty keeps the current text."),
		),
		mcp.WithString("at",
			mcp.Description("New start time as HH:MM, or - to clear it."),
		),
	)

	srv.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := request.RequireString("id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		period := request.GetString("period", "")
		value := request.GetString("value", "")
		at := request.GetString("at", "")

		dto, err := svc.EditItem(ctx, period, id, value, at)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toJSONResult(dto)
	})
}

func registerMoveItemTool(srv *server.MCPServer, svc *Service) {
	tool := mcp.NewTool(
		"move_item",
		mcp.WithDescription("Move an item after another item, or to the top of the day."),
		periodOption(),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Item identifier to move."),
		),
		mcp.WithString("after",
			mcp.Description("Item to place it after. Empty moves it to the top."),
		),
	)

	srv.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := request.RequireString("id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		dto, err := svc.MoveItem(ctx, request.GetString("period", ""), id, request.GetString("after", ""))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toJSONResult(dto)
	})
}

func registerToggleDeleteTool(srv *server.MCPServer, svc *Service) {
	tool := mcp.NewTool(
		"toggle_delete",
		mcp.WithDescription("Mark an item for deletion, or restore it if already marked."),
		periodOption(),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Item identifier."),
		),
	)

	srv.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := request.RequireString("id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		dto, err := svc.ToggleDelete(ctx, request.GetString("period", ""), id)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toJSONResult(dto)
	})
}

func registerConfirmDeletesTool(srv *server.MCPServer, svc *Service) {
	tool := mcp.NewTool(
		"confirm_deletes",
		mcp.WithDescription("Remove every item marked for deletion in a day."),
		periodOption(),
	)

	srv.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		period := request.GetString("period", "")
		n, err := svc.ConfirmDeletes(ctx, period)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toJSONResult(map[string]any{
			"period":  svc.period(period),
			"removed": n,
		})
	})
}

func registerRolloverTool(srv *server.MCPServer, svc *Service) {
	tool := mcp.NewTool(
		"rollover",
		mcp.WithDescription("Carry unfinished items from the last planned day into today. Runs at most once a day."),
	)

	srv.AddTool(tool, func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		res, err := svc.Rollover(ctx)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toJSONResult(res)
	})
}

func dayOption() mcp.ToolOption {
	return mcp.WithString("day",
		mcp.Required(),
		mcp.Description("Template day: Weekdays or a day of the week."),
		mcp.Enum(store.Days()...),
	)
}

func registerListTemplateTool(srv *server.MCPServer, svc *Service) {
	tool := mcp.NewTool(
		"list_template",
		mcp.WithDescription("List a day template, including entries inherited from the Weekdays template."),
		dayOption(),
	)

	srv.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		day, err := request.RequireString("day")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		entries, err := svc.Template(ctx, day)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toJSONResult(map[string]any{
			"day":     day,
			"entries": entries,
			"count":   len(entries),
		})
	})
}

func registerAddTemplateTool(srv *server.MCPServer, svc *Service) {
	tool := mcp.NewTool(
		"add_template",
		mcp.WithDescription("Add a recurring entry to a day template."),
		dayOption(),
		mcp.WithString("value",
			mcp.Required(),
			mcp.Description("Text of the entry."),
		),
		mcp.WithString("at",
			mcp.Description("Optional start time as HH:MM."),
		),
	)

	srv.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args struct {
			Day   string `json:"day"`
			Value string `json:"value"`
			At    string `json:"at"`
		}
		if err := request.BindArguments(&args); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}

		dto, err := svc.AddTemplate(ctx, args.Day, args.Value, args.At, "")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toJSONResult(dto)
	})
}

func toJSONResult(data any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(data)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("marshal error: %v", err)), nil
	}
	return mcp.NewToolResultText(string(b)), nil
}
