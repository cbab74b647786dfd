// ABOUTME: MCP tool definitions and registration for the document Q&A server
// ABOUTME: Declares JSON schemas for ingest_document, ask_question, health, and reset_session
package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// ServerName and ServerVersion identify the server to MCP clients
const (
	ServerName    = "ragdoc"
	ServerVersion = "0.1.0"
)

var sessionProperty = map[string]interface{}{
	"type":        "string",
	"description": "Optional session id; defaults to the shared session",
}

// NewServer creates an MCP server with every tool registered
func NewServer(svc Service) (*mcpserver.MCPServer, *Handlers) {
	server := mcpserver.NewMCPServer(ServerName, ServerVersion)
	return server, RegisterTools(server, svc)
}

// RegisterTools registers all MCP tools with the server
func RegisterTools(server *mcpserver.MCPServer, svc Service) *Handlers {
	handlers := &Handlers{svc: svc}

	// 1. ingest_document - replace the session's document
	server.AddTool(mcp.Tool{
		Name:        "ingest_document",
		Description: "Load a document into the session, replacing any previous one. Pass either the text itself or a path to a .txt or .md file.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"document_id": map[string]interface{}{
					"type":        "string",
					"description": "Name for the document (defaults to the file name or \"document\")",
				},
				"text": map[string]interface{}{
					"type":        "string",
					"description": "Full document text",
				},
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Path to a UTF-8 text file to read instead of text",
				},
				"session_id": sessionProperty,
			},
		},
	}, handlers.IngestDocument)

	// 2. ask_question - answer from the ingested document
	server.AddTool(mcp.Tool{
		Name:        "ask_question",
		Description: "Answer a question using only the passages retrieved from the session's document. Returns the answer and its sources.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"question": map[string]interface{}{
					"type":        "string",
					"description": "Question about the document",
				},
				"k": map[string]interface{}{
					"type":        "number",
					"description": "Number of passages to retrieve (default: configured top-k)",
				},
				"session_id": sessionProperty,
			},
			Required: []string{"question"},
		},
	}, handlers.AskQuestion)

	// 3. health
	server.AddTool(mcp.Tool{
		Name:        "health",
		Description: "Report whether the service is ready.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, handlers.Health)

	// 4. reset_session - drop the session's document
	server.AddTool(mcp.Tool{
		Name:        "reset_session",
		Description: "Forget the session's document and delete its persisted index.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty,
			},
		},
	}, handlers.ResetSession)

	return handlers
}
