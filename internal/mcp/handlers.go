// ABOUTME: MCP tool handler implementations for the document Q&A server
// ABOUTME: Tool failures are reported as tool errors, never as protocol errors
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/harper/ragdoc/internal/models"
)

// Service is what the tools need from the application
type Service interface {
	Ingest(ctx context.Context, sessionID, documentID, text string) (models.IngestResult, error)
	IngestFile(ctx context.Context, sessionID, path string) (models.IngestResult, error)
	Ask(ctx context.Context, sessionID, question string, k int) (models.Answer, error)
	Reset(sessionID string) error
}

// Handlers contains the handler functions for all MCP tools
type Handlers struct {
	svc Service
}

// IngestDocument handles the ingest_document tool
func (h *Handlers) IngestDocument(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := request.GetString("session_id", "")
	text := request.GetString("text", "")
	path := request.GetString("path", "")

	var (
		res models.IngestResult
		err error
	)
	switch {
	case text != "" && path != "":
		return mcp.NewToolResultError("pass either text or path, not both"), nil
	case path != "":
		res, err = h.svc.IngestFile(ctx, sessionID, path)
	case text != "":
		res, err = h.svc.Ingest(ctx, sessionID, request.GetString("document_id", "document"), text)
	default:
		return mcp.NewToolResultError("text or path argument is required"), nil
	}

	if err != nil {
		log.Warn("mcp ingest failed", "session", sessionID, "err", err)
		msg := res.Message
		if msg == "" {
			msg = err.Error()
		}
		return mcp.NewToolResultError(msg), nil
	}
	return jsonResult(res)
}

// AskQuestion handles the ask_question tool
func (h *Handlers) AskQuestion(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	question, err := request.RequireString("question")
	if err != nil {
		return mcp.NewToolResultError("question argument is required and must be a string"), nil
	}

	ans, err := h.svc.Ask(ctx, request.GetString("session_id", ""), question, request.GetInt("k", 0))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("ask failed: %v", err)), nil
	}
	return jsonResult(ans)
}

// Health handles the health tool
func (h *Handlers) Health(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(map[string]string{"status": "ready"})
}

// ResetSession handles the reset_session tool
func (h *Handlers) ResetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := h.svc.Reset(request.GetString("session_id", "")); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("reset failed: %v", err)), nil
	}
	return jsonResult(map[string]string{"status": "empty"})
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
