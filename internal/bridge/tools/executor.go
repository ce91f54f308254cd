// Package tools exposes the CRM operations as MCP tools.
package tools

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/aboundTechOlogy/ghl-mcp/internal/bridge/domain"
	"github.com/aboundTechOlogy/ghl-mcp/internal/bridge/session"
	"github.com/aboundTechOlogy/ghl-mcp/pkg/slogx"
)

const notAuthenticatedMessage = "Not authenticated. Please provide GHL OAuth tokens."

// Dispatcher sends one authenticated CRM request.
type Dispatcher interface {
	Call(ctx context.Context, method, path string, body any) (json.RawMessage, error)
}

// TokenHolder is the part of the upstream token store the executor needs.
type TokenHolder interface {
	Tokens() (domain.UpstreamTokenPair, bool)
	SetTokens(pair domain.UpstreamTokenPair)
	AuthorizationURL(state string, scopes []string) string
}

// Sessions looks up and updates caller sessions.
type Sessions interface {
	Get(id string) (domain.Session, bool)
	Bind(id string, pair domain.UpstreamTokenPair) bool
}

// StateSigner turns a session id into an opaque consent state.
type StateSigner interface {
	Sign(sessionID string) (string, error)
}

// Recorder counts tool calls.
type Recorder interface {
	ToolCall(tool string, failed bool)
}

// Executor runs catalogue tools on behalf of a caller session.
type Executor struct {
	Tokens     TokenHolder
	Dispatcher Dispatcher
	Sessions   Sessions
	State      StateSigner
	Metrics    Recorder
	Logger     *slog.Logger
}

// Register adds every catalogue tool to s.
func (e *Executor) Register(s *server.MCPServer) {
	for _, def := range Catalogue {
		s.AddTool(def.Tool(), e.handler(def))
	}
}

func (e *Executor) handler(def Definition) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return e.Execute(ctx, def, request.GetArguments()), nil
	}
}

// Execute runs def with args. Failures are reported as error results, never
// as Go errors, so the protocol call itself always succeeds.
func (e *Executor) Execute(ctx context.Context, def Definition, args map[string]any) *mcp.CallToolResult {
	sessionID, _ := session.IDFromContext(ctx)
	sess, hasSession := e.lookupSession(sessionID)
	bound := hasSession && sess.UpstreamTokens != nil
	if bound {
		e.adoptSessionTokens(*sess.UpstreamTokens)
	}

	if _, ok := e.Tokens.Tokens(); !ok {
		e.record(def.Name, true)
		return jsonResult(map[string]any{
			"error":   notAuthenticatedMessage,
			"authUrl": e.authURL(ctx, sessionID),
		}, false)
	}

	method, path, body, err := def.Request(args)
	if err != nil {
		e.record(def.Name, true)
		return errorResult(err)
	}

	raw, err := e.Dispatcher.Call(ctx, method, path, body)

	// A refresh may have happened during the call.
	if bound {
		if pair, ok := e.Tokens.Tokens(); ok {
			e.Sessions.Bind(sessionID, pair)
		}
	}

	if err != nil {
		e.logger(ctx).Warn("tool call failed", "tool", def.Name, "error", err)
		e.record(def.Name, true)
		return errorResult(err)
	}

	e.record(def.Name, false)

	result := map[string]any{"success": true}
	if def.ResultKey != "" {
		result[def.ResultKey] = raw
	} else {
		for _, p := range def.Params {
			if p.In == InPath {
				result[p.Name] = args[p.Name]
			}
		}
	}
	return jsonResult(result, false)
}

func (e *Executor) lookupSession(id string) (domain.Session, bool) {
	if id == "" || e.Sessions == nil {
		return domain.Session{}, false
	}
	return e.Sessions.Get(id)
}

// adoptSessionTokens loads the session's pair when the store holds nothing
// or holds an older pair.
func (e *Executor) adoptSessionTokens(pair domain.UpstreamTokenPair) {
	if pair.IsZero() {
		return
	}
	current, ok := e.Tokens.Tokens()
	if !ok || pair.ExpiresAt.After(current.ExpiresAt) {
		e.Tokens.SetTokens(pair)
	}
}

func (e *Executor) authURL(ctx context.Context, sessionID string) string {
	var state string
	if sessionID != "" && e.State != nil {
		signed, err := e.State.Sign(sessionID)
		if err != nil {
			e.logger(ctx).Error("failed to sign consent state", "error", err)
		} else {
			state = signed
		}
	}
	return e.Tokens.AuthorizationURL(state, nil)
}

func (e *Executor) record(tool string, failed bool) {
	if e.Metrics != nil {
		e.Metrics.ToolCall(tool, failed)
	}
}

func (e *Executor) logger(ctx context.Context) *slog.Logger {
	return slogx.FromContextOr(ctx, e.Logger)
}

func errorResult(err error) *mcp.CallToolResult {
	msg := err.Error()
	if strings.TrimSpace(msg) == "" {
		msg = "unknown error"
	}
	return jsonResult(map[string]any{"error": msg}, true)
}

func jsonResult(v any, isError bool) *mcp.CallToolResult {
	payload, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	if isError {
		return mcp.NewToolResultError(string(payload))
	}
	return mcp.NewToolResultText(string(payload))
}
