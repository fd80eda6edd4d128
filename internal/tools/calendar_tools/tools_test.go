package calendar_tools

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/tmc/langchaingo/llms"
	"golang.org/x/oauth2"

	"github.com/teemow/textcal/internal/calendar"
	"github.com/teemow/textcal/internal/google"
	"github.com/teemow/textcal/internal/mirror"
	"github.com/teemow/textcal/internal/planner"
	"github.com/teemow/textcal/internal/server"
	"github.com/teemow/textcal/internal/tools/batch"
	"github.com/teemow/textcal/internal/translator"
)

const lunchPlan = `{"operations":[{"type":"create","event":{"title":"Lunch","startAt":"2025-03-01T12:00:00","endAt":"2025-03-01T13:00:00"}}]}`

type stubModel struct{ reply string }

func (m stubModel) GenerateContent(context.Context, []llms.MessageContent, ...llms.CallOption) (*llms.ContentResponse, error) {
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: m.reply}}}, nil
}

func (m stubModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

type stubRemote struct{ created int }

func (r *stubRemote) CreateEvent(_ context.Context, _ string, patch calendar.EventPatch) (*calendar.RemoteEvent, error) {
	r.created++
	return &calendar.RemoteEvent{ID: "evt-1", Summary: *patch.Summary}, nil
}

func (r *stubRemote) PatchEvent(_ context.Context, _, id string, _ calendar.EventPatch) (*calendar.RemoteEvent, error) {
	return &calendar.RemoteEvent{ID: id}, nil
}

func (r *stubRemote) DeleteEvent(context.Context, string, string) error { return nil }

func (r *stubRemote) GetDefaultTimezone(context.Context) (string, error) { return "UTC", nil }

func newContext(t *testing.T, remote *stubRemote, tokens google.TokenProvider, store *mirror.Store) *server.ServerContext {
	t.Helper()
	var sync *mirror.Synchronizer
	if store != nil {
		sync = mirror.NewSynchronizer(store)
	}
	cfg := planner.Config{
		Translator: translator.New(stubModel{reply: lunchPlan}, translator.Options{}),
		NewClient: func(context.Context, *oauth2.Token) (planner.Remote, error) {
			return remote, nil
		},
		Now: func() time.Time { return time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC) },
	}
	if sync != nil {
		cfg.Mirror = sync
	}
	return server.NewServerContext(context.Background(), server.Options{
		Planner:       planner.New(cfg),
		Store:         store,
		TokenProvider: tokens,
	})
}

func callTool(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{Params: mcp.CallToolParams{Arguments: args}}
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if res == nil || len(res.Content) == 0 {
		t.Fatal("empty tool result")
	}
	text, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("unexpected content type %T", res.Content[0])
	}
	return text.Text
}

func TestRegisterCalendarTools_RequiresPlanner(t *testing.T) {
	s := mcpserver.NewMCPServer("test", "0.0.0")
	if err := RegisterCalendarTools(s, nil, false); err == nil {
		t.Error("expected error for nil server context")
	}
	sc := server.NewServerContext(context.Background(), server.Options{})
	if err := RegisterCalendarTools(s, sc, false); err == nil {
		t.Error("expected error for missing planner")
	}
	if err := RegisterCalendarTools(s, newContext(t, &stubRemote{}, nil, nil), true); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestApplyText(t *testing.T) {
	remote := &stubRemote{}
	tokens := google.NewStaticTokenProvider(google.TokenFromAccessToken("abc"))
	sc := newContext(t, remote, tokens, nil)

	res, err := handleText(context.Background(), callTool(map[string]any{"text": "lunch at noon"}), sc, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(t, res))
	}

	var resp planner.Response
	if err := json.Unmarshal([]byte(resultText(t, res)), &resp); err != nil {
		t.Fatalf("invalid JSON result: %v", err)
	}
	if resp.Result == nil || len(resp.Result.Created) != 1 {
		t.Fatalf("expected one created entry, got %+v", resp.Result)
	}
	if remote.created != 1 {
		t.Errorf("expected 1 remote create, got %d", remote.created)
	}
}

func TestApplyText_NoToken(t *testing.T) {
	remote := &stubRemote{}
	sc := newContext(t, remote, nil, nil)

	res, err := handleText(context.Background(), callTool(map[string]any{"text": "lunch"}), sc, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.IsError {
		t.Fatal("expected tool error without a token")
	}
	if !strings.Contains(resultText(t, res), "auth login") {
		t.Errorf("error should point at auth login, got %q", resultText(t, res))
	}
	if remote.created != 0 {
		t.Error("no remote call expected")
	}
}

func TestApplyText_MissingText(t *testing.T) {
	tokens := google.NewStaticTokenProvider(google.TokenFromAccessToken("abc"))
	sc := newContext(t, &stubRemote{}, tokens, nil)

	res, _ := handleText(context.Background(), callTool(map[string]any{}), sc, false)
	if !res.IsError || resultText(t, res) != "text is required" {
		t.Errorf("expected 'text is required' error, got %+v", res)
	}
}

func TestPreviewText_WithoutToken(t *testing.T) {
	remote := &stubRemote{}
	sc := newContext(t, remote, nil, nil)

	res, err := handleText(context.Background(), callTool(map[string]any{"text": "lunch"}), sc, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(t, res))
	}

	var resp planner.Response
	if err := json.Unmarshal([]byte(resultText(t, res)), &resp); err != nil {
		t.Fatalf("invalid JSON result: %v", err)
	}
	if resp.Plan.Len() != 1 {
		t.Errorf("expected 1 planned operation, got %d", resp.Plan.Len())
	}
	if resp.Result != nil {
		t.Error("preview must not carry a result")
	}
	if remote.created != 0 {
		t.Error("preview must not call the remote")
	}
}

func TestMirrorList(t *testing.T) {
	ctx := context.Background()

	res, _ := handleMirrorList(ctx, callTool(nil), newContext(t, &stubRemote{}, nil, nil))
	if !res.IsError {
		t.Error("expected error when the mirror is disabled")
	}

	db, err := mirror.OpenDB(ctx, filepath.Join(t.TempDir(), "mirror.db"), nil)
	if err != nil {
		t.Fatalf("open mirror: %v", err)
	}
	defer db.Close()
	store := mirror.NewStore(db)

	tokens := google.NewStaticTokenProvider(google.TokenFromAccessToken("abc"))
	sc := newContext(t, &stubRemote{}, tokens, store)
	if _, err := handleText(ctx, callTool(map[string]any{"text": "lunch"}), sc, false); err != nil {
		t.Fatalf("apply: %v", err)
	}

	res, err = handleMirrorList(ctx, callTool(map[string]any{"calendarId": "primary"}), sc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var records []mirror.Record
	if err := json.Unmarshal([]byte(resultText(t, res)), &records); err != nil {
		t.Fatalf("invalid JSON result: %v", err)
	}
	if len(records) != 1 || records[0].Name != "Lunch" {
		t.Errorf("expected the mirrored lunch event, got %+v", records)
	}
}

func TestMirrorClear(t *testing.T) {
	ctx := context.Background()

	db, err := mirror.OpenDB(ctx, filepath.Join(t.TempDir(), "mirror.db"), nil)
	if err != nil {
		t.Fatalf("open mirror: %v", err)
	}
	defer db.Close()
	store := mirror.NewStore(db)
	for _, cal := range []string{"primary", "team@example.com"} {
		if err := store.Upsert(ctx, &mirror.Record{CalendarID: cal, RemoteEventID: "evt-1", Name: "x"}); err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}

	sc := newContext(t, &stubRemote{}, nil, store)

	res, _ := handleMirrorClear(ctx, callTool(map[string]any{}), sc)
	if !res.IsError {
		t.Error("expected error without calendarId")
	}

	res, err = handleMirrorClear(ctx, callTool(map[string]any{"calendarId": []any{"primary", "team@example.com"}}), sc)
	if err != nil || res.IsError {
		t.Fatalf("unexpected failure: %v %+v", err, res)
	}
	var summary batch.Summary
	if err := json.Unmarshal([]byte(resultText(t, res)), &summary); err != nil {
		t.Fatalf("invalid JSON result: %v", err)
	}
	if summary.Total != 2 || summary.Successful != 2 {
		t.Errorf("unexpected summary %+v", summary)
	}

	records, err := store.List(ctx, "team@example.com")
	if err != nil || len(records) != 0 {
		t.Errorf("expected cleared mirror, got %v %v", records, err)
	}
}
