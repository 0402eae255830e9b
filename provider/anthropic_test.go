package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"memodesk/model"
	"memodesk/provider/testutil"
)

func TestAnthropicProviderChat(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("X-Api-Key") != "test-key" {
			t.Errorf("missing api key header")
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"msg_1","type":"message","role":"assistant","model":"claude-sonnet-4-5-20250929",` +
			`"content":[{"type":"text","text":"Let me check."},` +
			`{"type":"tool_use","id":"toolu_1","name":"reset_password","input":{"user_id":"emp_102"}}],` +
			`"stop_reason":"tool_use","usage":{"input_tokens":10,"output_tokens":5}}`))
	}))
	defer srv.Close()

	p, err := NewAnthropicProvider(srv.URL, "test-key", "")
	if err != nil {
		t.Fatalf("NewAnthropicProvider failed: %v", err)
	}

	reply, err := p.Chat(context.Background(), testutil.TestMessages(), testutil.TestMCPTools(), model.ChatOptions{})
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}

	if system, _ := body["system"].([]any); len(system) != 1 {
		t.Errorf("system prompt should move to system blocks, got %v", body["system"])
	}
	// system removed: user, assistant tool_use, user tool_result, assistant
	if msgs, _ := body["messages"].([]any); len(msgs) != 4 {
		t.Errorf("expected 4 messages sent, got %d", len(msgs))
	}

	if reply.Content != "Let me check." {
		t.Errorf("unexpected content %q", reply.Content)
	}
	if len(reply.ToolCalls) != 1 {
		t.Fatalf("expected one tool call, got %+v", reply.ToolCalls)
	}
	call := reply.ToolCalls[0]
	if call.ID != "toolu_1" || call.Name != "reset_password" || call.Arguments["user_id"] != "emp_102" {
		t.Errorf("unexpected call %+v", call)
	}
}

func TestAnthropicProviderChatToolChoiceNone(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&body)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"msg_2","type":"message","role":"assistant","model":"claude-sonnet-4-5-20250929",` +
			`"content":[{"type":"text","text":"Here is what I found."}],` +
			`"stop_reason":"end_turn","usage":{"input_tokens":10,"output_tokens":5}}`))
	}))
	defer srv.Close()

	p, err := NewAnthropicProvider(srv.URL, "test-key", "")
	if err != nil {
		t.Fatalf("NewAnthropicProvider failed: %v", err)
	}

	opts := model.ChatOptions{ToolChoiceNone: true}
	reply, err := p.Chat(context.Background(), testutil.TestMessages(), testutil.TestMCPTools(), opts)
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}

	// History carries tool_use and tool_result blocks, so tools stay declared
	if tools, _ := body["tools"].([]any); len(tools) != 2 {
		t.Errorf("tools must stay declared, got %v", body["tools"])
	}
	choice, _ := body["tool_choice"].(map[string]any)
	if choice["type"] != "none" {
		t.Errorf("tool_choice = %v, want type none", body["tool_choice"])
	}
	if reply.Content != "Here is what I found." || reply.HasToolCalls() {
		t.Errorf("unexpected reply %+v", reply)
	}
}

func TestAnthropicProviderModel(t *testing.T) {
	p, err := NewAnthropicProvider("", "key", "")
	if err != nil {
		t.Fatalf("NewAnthropicProvider failed: %v", err)
	}
	if p.GetModel() != "claude-sonnet-4-5-20250929" {
		t.Errorf("unexpected default model %s", p.GetModel())
	}
	p.SetModel("claude-haiku-4-5")
	if p.GetModel() != "claude-haiku-4-5" {
		t.Errorf("SetModel did not apply")
	}
}
