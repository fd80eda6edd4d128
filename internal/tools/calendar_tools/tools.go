package calendar_tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/textcal/internal/planner"
	"github.com/teemow/textcal/internal/server"
	"github.com/teemow/textcal/internal/tools/batch"
	"github.com/teemow/textcal/internal/tools/common"
	"github.com/teemow/textcal/internal/translator"
)

// Tool names.
const (
	ToolApplyText   = "calendar_apply_text"
	ToolPreviewText = "calendar_preview_text"
	ToolMirrorList  = "calendar_mirror_list"
	ToolMirrorClear = "calendar_mirror_clear"
)

// RegisterCalendarTools registers the calendar tools with the MCP server.
// With readOnly set, calendar_apply_text and calendar_mirror_clear are not
// registered.
func RegisterCalendarTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	if sc == nil || sc.Planner() == nil {
		return fmt.Errorf("server context with a planner is required")
	}
	metrics := sc.Metrics()

	previewTool := mcp.NewTool(ToolPreviewText,
		append([]mcp.ToolOption{mcp.WithDescription("Translate a free-text request (e.g. 'lunch with Sam tomorrow at noon') into calendar operations without executing them")},
			textToolOptions()...)...,
	)
	s.AddTool(previewTool, common.InstrumentedToolHandler(ToolPreviewText, metrics,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleText(ctx, request, sc, true)
		}))

	listTool := mcp.NewTool(ToolMirrorList,
		mcp.WithDescription("List the events textcal has created or updated in a calendar, from the local mirror"),
		mcp.WithString("calendarId",
			mcp.Description("Calendar ID (default: 'primary')"),
		),
	)
	s.AddTool(listTool, common.InstrumentedToolHandler(ToolMirrorList, metrics,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleMirrorList(ctx, request, sc)
		}))

	if readOnly {
		return nil
	}

	applyTool := mcp.NewTool(ToolApplyText,
		append([]mcp.ToolOption{mcp.WithDescription("Translate a free-text request into calendar operations and apply them (create, update or delete events)")},
			textToolOptions()...)...,
	)
	s.AddTool(applyTool, common.InstrumentedToolHandler(ToolApplyText, metrics,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleText(ctx, request, sc, false)
		}))

	clearTool := mcp.NewTool(ToolMirrorClear,
		mcp.WithDescription("Remove the locally mirrored events of one or more calendars. Remote events are not touched."),
		mcp.WithString("calendarId",
			mcp.Required(),
			mcp.Description("Calendar ID, or a JSON array of calendar IDs"),
		),
	)
	s.AddTool(clearTool, common.InstrumentedToolHandler(ToolMirrorClear, metrics,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleMirrorClear(ctx, request, sc)
		}))

	return nil
}

func textToolOptions() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("The request in natural language"),
		),
		mcp.WithString("timeZone",
			mcp.Description("IANA time zone (e.g. 'Europe/Berlin'). Defaults to the calendar's time zone."),
		),
		mcp.WithString("calendarId",
			mcp.Description("Calendar ID (default: 'primary')"),
		),
		mcp.WithString("account",
			mcp.Description("Account name (default: 'default'). Used to manage multiple Google accounts."),
		),
	}
}

func handleText(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext, preview bool) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	req := planner.Request{
		Text:       common.GetStringArg(args, "text"),
		TimeZone:   common.GetStringArg(args, "timeZone"),
		CalendarID: common.GetStringArg(args, "calendarId"),
		Source:     "mcp",
	}

	token, err := sc.Token(ctx, common.GetAccountFromArgs(args))
	switch {
	case err == nil:
		req.Token = token
	case !preview:
		return mcp.NewToolResultError(fmt.Sprintf("No Google token available: %v. Run 'textcal auth login' first.", err)), nil
	}

	run := sc.Planner().Apply
	if preview {
		run = sc.Planner().Preview
	}
	resp, err := run(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(toolErrorMessage(err)), nil
	}

	return jsonResult(resp)
}

func handleMirrorList(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	store := sc.Store()
	if store == nil {
		return mcp.NewToolResultError("The local mirror is disabled"), nil
	}

	calendarID := common.GetStringArg(request.GetArguments(), "calendarId")
	if calendarID == "" {
		calendarID = sc.Planner().CalendarID()
	}

	records, err := store.List(ctx, calendarID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list mirrored events: %v", err)), nil
	}
	return jsonResult(records)
}

func handleMirrorClear(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	store := sc.Store()
	if store == nil {
		return mcp.NewToolResultError("The local mirror is disabled"), nil
	}

	calendarIDs, err := batch.ParseStringOrArray(request.GetArguments()["calendarId"], "calendarId")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	results := batch.Process(ctx, calendarIDs, func(ctx context.Context, calendarID string) (string, error) {
		n, err := store.Clear(ctx, calendarID)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("removed %d mirrored events", n), nil
	})
	return jsonResult(batch.Summarize(results))
}

func toolErrorMessage(err error) string {
	switch {
	case errors.Is(err, planner.ErrMissingText):
		return "text is required"
	case errors.Is(err, translator.ErrBackend):
		return fmt.Sprintf("The language model request failed: %v", err)
	default:
		return fmt.Sprintf("Failed to process request: %v", err)
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
