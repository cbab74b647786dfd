// ABOUTME: Structure tests for the serve, mcp, and chat commands
// ABOUTME: Verifies flags, argument validation, and help text

package commands

import (
	"strings"
	"testing"
)

func TestNewServeCmd(t *testing.T) {
	cmd := NewServeCmd()

	if cmd.Use != "serve" {
		t.Errorf("Use = %q, want %q", cmd.Use, "serve")
	}

	for _, name := range []string{"addr", "watch"} {
		flag := cmd.Flags().Lookup(name)
		if flag == nil {
			t.Fatalf("--%s flag not found", name)
		}
		if flag.DefValue != "" {
			t.Errorf("--%s default = %q, want empty", name, flag.DefValue)
		}
	}

	if err := cmd.Args(cmd, []string{"extra"}); err == nil {
		t.Error("serve should reject positional arguments")
	}

	for _, endpoint := range []string{"/health", "/ingest", "/upload", "/ask", "/reset", "/sessions", "X-Session-ID"} {
		if !strings.Contains(cmd.Long, endpoint) {
			t.Errorf("Long description should mention %s", endpoint)
		}
	}
}

func TestNewMCPCmd(t *testing.T) {
	cmd := NewMCPCmd()

	if cmd.Use != "mcp" {
		t.Errorf("Use = %q, want %q", cmd.Use, "mcp")
	}

	for _, want := range []string{"MCP", "LLM", "stdio", "ask_question"} {
		if !strings.Contains(cmd.Long, want) {
			t.Errorf("Long description should mention %q", want)
		}
	}

	if !strings.Contains(cmd.Example, "mcpServers") {
		t.Error("Example should show client configuration")
	}
}

func TestNewChatCmd(t *testing.T) {
	cmd := NewChatCmd()

	if cmd.Use != "chat <file>" {
		t.Errorf("Use = %q, want %q", cmd.Use, "chat <file>")
	}
	if cmd.Flags().Lookup("k") == nil {
		t.Error("--k flag not found")
	}
	if err := cmd.Args(cmd, nil); err == nil {
		t.Error("chat should require a file argument")
	}
}

func TestNewAskCmd(t *testing.T) {
	cmd := NewAskCmd()

	if cmd.Use != "ask <question>" {
		t.Errorf("Use = %q, want %q", cmd.Use, "ask <question>")
	}

	kFlag := cmd.Flags().Lookup("k")
	if kFlag == nil {
		t.Fatal("--k flag not found")
	}
	if kFlag.DefValue != "0" {
		t.Errorf("--k default = %q, want %q", kFlag.DefValue, "0")
	}

	for _, part := range []string{"--k", "--format json"} {
		if !strings.Contains(cmd.Long, part) {
			t.Errorf("Long description should contain %q", part)
		}
	}
}

func TestNewIngestCmd(t *testing.T) {
	cmd := NewIngestCmd()

	if cmd.Use != "ingest <file>" {
		t.Errorf("Use = %q, want %q", cmd.Use, "ingest <file>")
	}
	if cmd.Flags().Lookup("session") == nil {
		t.Error("--session flag not found")
	}
}
