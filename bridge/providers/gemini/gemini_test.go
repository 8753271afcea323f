package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"golang.org/x/oauth2"

	"github.com/victorarias/modelbridge/bridge"
	"github.com/victorarias/modelbridge/bridge/history"
)

func testModule(t *testing.T, baseURL string) *Module {
	t.Helper()
	module, err := New(Config{
		Project:     "proj",
		Location:    "us-central1",
		BaseURL:     baseURL,
		TokenSource: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "test-token"}),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return module
}

func TestNewRequiresProject(t *testing.T) {
	_, err := New(Config{TokenSource: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "x"})})
	if err == nil {
		t.Fatalf("expected error without project")
	}
}

func TestBuildRequestIncludesHistoryAndImage(t *testing.T) {
	module := testModule(t, "http://unused")
	module.turns.Append(history.Turn{Prompt: "earlier", Reply: "noted"})

	raw, err := module.buildRequest("what is this", "aW1n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var req geminiRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(req.Contents) != 3 {
		t.Fatalf("expected turn pair plus current, got %d contents", len(req.Contents))
	}
	if req.Contents[0].Role != "user" || req.Contents[1].Role != "model" {
		t.Fatalf("unexpected roles: %s, %s", req.Contents[0].Role, req.Contents[1].Role)
	}
	current := req.Contents[2]
	if len(current.Parts) != 2 {
		t.Fatalf("expected text plus inline data, got %d parts", len(current.Parts))
	}
	if current.Parts[1].InlineData == nil || current.Parts[1].InlineData.Data != "aW1n" {
		t.Fatalf("image data missing: %+v", current.Parts[1])
	}
	if current.Parts[1].InlineData.MIMEType != "image/jpeg" {
		t.Fatalf("unexpected mime type: %s", current.Parts[1].InlineData.MIMEType)
	}
}

func TestBuildRequestTemperatureOption(t *testing.T) {
	module := testModule(t, "http://unused")
	if err := module.SetOption("temperature", "0.4"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	raw, err := module.buildRequest("hi", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var req geminiRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if req.GenerationConfig.Temperature != 0.4 {
		t.Fatalf("expected temperature 0.4, got %v", req.GenerationConfig.Temperature)
	}

	if err := module.SetOption("temperature", "hot"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := module.buildRequest("hi", ""); err == nil {
		t.Fatalf("expected error for unparsable temperature")
	}
}

func TestLegacyChatRoundTrip(t *testing.T) {
	var gotPath, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(geminiResponse{Candidates: []geminiCandidate{{
			Content: geminiContent{Role: "model", Parts: []geminiPart{{Text: "hello "}, {Text: "there"}}},
		}}})
	}))
	defer srv.Close()

	module := testModule(t, srv.URL)
	reply, err := module.LegacyChat(context.Background(), "hi", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	text, ok := reply.(bridge.TextReply)
	if !ok {
		t.Fatalf("expected TextReply, got %T", reply)
	}
	if string(text) != "hello there" {
		t.Fatalf("unexpected reply: %q", text)
	}
	if !strings.Contains(gotPath, "/projects/proj/locations/us-central1/") {
		t.Fatalf("unexpected path: %s", gotPath)
	}
	if !strings.HasSuffix(gotPath, ":generateContent") {
		t.Fatalf("unexpected endpoint: %s", gotPath)
	}
	if gotAuth != "Bearer test-token" {
		t.Fatalf("unexpected auth header: %q", gotAuth)
	}
	if module.Turns() != 1 {
		t.Fatalf("expected one recorded turn, got %d", module.Turns())
	}
}

func TestLegacyChatHistoryGrowsAndResets(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		json.NewEncoder(w).Encode(geminiResponse{Candidates: []geminiCandidate{{
			Content: geminiContent{Role: "model", Parts: []geminiPart{{Text: "ok"}}},
		}}})
	}))
	defer srv.Close()

	module := testModule(t, srv.URL)
	for _, prompt := range []string{"one", "two", "three"} {
		if _, err := module.LegacyChat(context.Background(), prompt, ""); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if module.Turns() != 3 {
		t.Fatalf("expected 3 turns, got %d", module.Turns())
	}
	module.Reset()
	if module.Turns() != 0 {
		t.Fatalf("expected empty history after reset, got %d", module.Turns())
	}
	if calls != 3 {
		t.Fatalf("expected 3 upstream calls, got %d", calls)
	}
}

func TestLegacyChatErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	module := testModule(t, srv.URL)
	_, err := module.LegacyChat(context.Background(), "hi", "")
	if err == nil || !strings.Contains(err.Error(), "429") {
		t.Fatalf("expected status error, got %v", err)
	}
	if module.Turns() != 0 {
		t.Fatalf("failed calls must not be recorded, got %d turns", module.Turns())
	}
}

func TestLegacyChatEmptyCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(geminiResponse{})
	}))
	defer srv.Close()

	module := testModule(t, srv.URL)
	if _, err := module.LegacyChat(context.Background(), "hi", ""); err == nil {
		t.Fatalf("expected error for empty candidates")
	}
}
