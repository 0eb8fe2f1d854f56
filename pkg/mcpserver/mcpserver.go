// Package mcpserver exposes the dispatch router as a Model Context Protocol
// tool over streamable HTTP.
//
// Each HTTP request gets its own stateless MCP server bound to the session
// that the auth middleware resolved, so a tool call always runs for the
// caller's tenant and never for a tenant named in the tool arguments.
package mcpserver

import (
	"context"
	"fmt"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/rhuss/datapilot/pkg/api"
	"github.com/rhuss/datapilot/pkg/auth"
	"github.com/rhuss/datapilot/pkg/debug"
	"github.com/rhuss/datapilot/pkg/dispatch"
)

// ToolChat is the name of the dispatch tool.
const ToolChat = "chat"

// Dispatcher routes free text for a session.
type Dispatcher interface {
	Dispatch(ctx context.Context, sess *auth.Session, text string) *dispatch.Result
}

// ChatInput is the argument object of the chat tool.
type ChatInput struct {
	Question string `json:"pergunta" jsonschema:"the question about sales or forecasts"`
}

// Implementation identifies the server to MCP clients.
var Implementation = &mcp.Implementation{Name: "datapilot", Version: "v1.0.0"}

// NewServer returns an MCP server whose tools act on behalf of sess.
func NewServer(d Dispatcher, sess *auth.Session) *mcp.Server {
	server := mcp.NewServer(Implementation, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        ToolChat,
		Description: "Answers a question about the caller's organization, routing it to the matching data tool",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in ChatInput) (*mcp.CallToolResult, api.ChatResponse, error) {
		res := d.Dispatch(ctx, sess, in.Question)
		debug.Log("mcp", "chat tool dispatched",
			"tenant_id", sess.TenantID,
			"tool", res.Tool.String(),
		)

		out := api.ChatResponse{
			OrganizationID:  res.OrganizationID,
			ToolUsed:        res.Tool.String(),
			Query:           res.Query,
			SimulatedResult: res.SimulatedResult,
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{
				&mcp.TextContent{Text: fmt.Sprintf("[%s] %s", out.ToolUsed, out.SimulatedResult)},
			},
		}, out, nil
	})

	return server
}

// Handler serves MCP over stateless streamable HTTP. Requests must carry a
// session in their context (see auth.Middleware); others get 401.
func Handler(d Dispatcher) http.Handler {
	streamable := mcp.NewStreamableHTTPHandler(func(r *http.Request) *mcp.Server {
		return NewServer(d, auth.SessionFromContext(r.Context()))
	}, &mcp.StreamableHTTPOptions{Stateless: true, JSONResponse: true})

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth.SessionFromContext(r.Context()) == nil {
			auth.WriteUnauthorized(w, auth.ErrUnauthenticated.Error())
			return
		}
		streamable.ServeHTTP(w, r)
	})
}
