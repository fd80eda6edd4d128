package batch

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"
)

func TestParseStringOrArray(t *testing.T) {
	tests := []struct {
		name    string
		input   any
		want    []string
		wantErr bool
	}{
		{name: "single string", input: "primary", want: []string{"primary"}},
		{name: "array of strings", input: []any{"a", "b", "c"}, want: []string{"a", "b", "c"}},
		{name: "duplicates dropped", input: []any{"a", "b", "a"}, want: []string{"a", "b"}},
		{name: "nil input", input: nil, wantErr: true},
		{name: "empty string", input: "", wantErr: true},
		{name: "empty array", input: []any{}, wantErr: true},
		{name: "array with non-string", input: []any{"a", 1}, wantErr: true},
		{name: "array with empty string", input: []any{"a", ""}, wantErr: true},
		{name: "invalid type", input: 123, wantErr: true},
		{name: "JSON string array", input: `["primary", "team@example.com"]`, want: []string{"primary", "team@example.com"}},
		{name: "JSON string empty array", input: `[]`, wantErr: true},
		{name: "invalid JSON string", input: `[not json`, want: []string{`[not json`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseStringOrArray(tt.input, "calendarId")
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseStringOrArray() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !strings.Contains(err.Error(), "calendarId") {
				t.Errorf("error %q does not name the parameter", err)
			}
			if !tt.wantErr && !slices.Equal(got, tt.want) {
				t.Errorf("ParseStringOrArray() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestProcess(t *testing.T) {
	fn := func(_ context.Context, id string) (string, error) {
		if id == "b" {
			return "", errors.New("failed to process b")
		}
		return "processed " + id, nil
	}

	results := Process(context.Background(), []string{"a", "b", "c"}, fn)
	if len(results) != 3 {
		t.Fatalf("len(results) = %d, want 3", len(results))
	}
	if results[0].Status != StatusSuccess || results[0].Result != "processed a" {
		t.Errorf("results[0] = %+v", results[0])
	}
	if results[1].Status != StatusError || results[1].Error != "failed to process b" {
		t.Errorf("results[1] = %+v", results[1])
	}
	if results[2].ID != "c" || results[2].Status != StatusSuccess {
		t.Errorf("results[2] = %+v", results[2])
	}
}

func TestProcess_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	fn := func(_ context.Context, id string) (string, error) {
		calls++
		cancel()
		return "ok", nil
	}

	results := Process(ctx, []string{"a", "b"}, fn)
	if calls != 1 {
		t.Errorf("fn called %d times, want 1", calls)
	}
	if results[1].Status != StatusError || !strings.Contains(results[1].Error, "not attempted") {
		t.Errorf("results[1] = %+v", results[1])
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize([]Result{
		NewSuccessResult("a", "ok"),
		NewSuccessResult("b", "ok"),
		NewErrorResult("c", errors.New("boom")),
	})
	if s.Total != 3 || s.Successful != 2 || s.Failed != 1 || len(s.Results) != 3 {
		t.Errorf("Summarize() = %+v", s)
	}
}
