package resources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/textcal/internal/mirror"
	"github.com/teemow/textcal/internal/server"
)

const (
	accountURI     = "textcal://account"
	calendarPrefix = "textcal://calendars/"
	eventsSuffix   = "/events"
	icsSuffix      = "/events.ics"

	mimeJSON = "application/json"
	mimeICS  = "text/calendar"
)

// RegisterResources registers the account and mirror resources.
func RegisterResources(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	if sc == nil {
		return fmt.Errorf("server context is required")
	}

	accountResource := mcp.NewResource(
		accountURI,
		"textcal account",
		mcp.WithResourceDescription("The Google account and default calendar textcal operates on"),
		mcp.WithMIMEType(mimeJSON),
	)
	s.AddResource(accountResource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handleAccount(ctx, request, sc)
	})

	eventsTemplate := mcp.NewResourceTemplate(
		calendarPrefix+"{calendarId}"+eventsSuffix,
		"Mirrored events",
		mcp.WithTemplateDescription("Events textcal created or updated in a calendar, from the local mirror"),
		mcp.WithTemplateMIMEType(mimeJSON),
	)
	s.AddResourceTemplate(eventsTemplate, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handleEvents(ctx, request, sc)
	})

	icsTemplate := mcp.NewResourceTemplate(
		calendarPrefix+"{calendarId}"+icsSuffix,
		"Mirrored events (iCalendar)",
		mcp.WithTemplateDescription("The mirrored events of a calendar as an iCalendar document"),
		mcp.WithTemplateMIMEType(mimeICS),
	)
	s.AddResourceTemplate(icsTemplate, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handleEvents(ctx, request, sc)
	})

	return nil
}

func handleAccount(ctx context.Context, request mcp.ReadResourceRequest, sc *server.ServerContext) ([]mcp.ResourceContents, error) {
	_, tokenErr := sc.Token(ctx, "")

	data := map[string]any{
		"account":         sc.Account(),
		"defaultCalendar": sc.Planner().CalendarID(),
		"authorized":      tokenErr == nil,
		"mirrorEnabled":   sc.Store() != nil,
	}

	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal account data: %w", err)
	}
	return []mcp.ResourceContents{
		&mcp.TextResourceContents{URI: request.Params.URI, MIMEType: mimeJSON, Text: string(jsonData)},
	}, nil
}

func handleEvents(ctx context.Context, request mcp.ReadResourceRequest, sc *server.ServerContext) ([]mcp.ResourceContents, error) {
	store := sc.Store()
	if store == nil {
		return nil, fmt.Errorf("the local mirror is disabled")
	}

	calendarID, ics, err := parseEventsURI(request.Params.URI)
	if err != nil {
		return nil, err
	}

	records, err := store.List(ctx, calendarID)
	if err != nil {
		return nil, fmt.Errorf("failed to list mirrored events: %w", err)
	}

	if ics {
		return []mcp.ResourceContents{
			&mcp.TextResourceContents{URI: request.Params.URI, MIMEType: mimeICS, Text: mirror.ExportICS(calendarID, records)},
		}, nil
	}

	jsonData, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal mirrored events: %w", err)
	}
	return []mcp.ResourceContents{
		&mcp.TextResourceContents{URI: request.Params.URI, MIMEType: mimeJSON, Text: string(jsonData)},
	}, nil
}

// parseEventsURI extracts the calendar ID from an events resource URI and
// reports whether the iCalendar form was requested.
func parseEventsURI(uri string) (calendarID string, ics bool, err error) {
	rest, ok := strings.CutPrefix(uri, calendarPrefix)
	if !ok {
		return "", false, fmt.Errorf("unknown resource URI %q", uri)
	}

	var escaped string
	switch {
	case strings.HasSuffix(rest, icsSuffix):
		escaped, ics = strings.TrimSuffix(rest, icsSuffix), true
	case strings.HasSuffix(rest, eventsSuffix):
		escaped = strings.TrimSuffix(rest, eventsSuffix)
	default:
		return "", false, fmt.Errorf("unknown resource URI %q", uri)
	}

	calendarID, err = url.PathUnescape(escaped)
	if err != nil || calendarID == "" || strings.Contains(calendarID, "/") {
		return "", false, fmt.Errorf("invalid calendar ID in %q", uri)
	}
	return calendarID, ics, nil
}
