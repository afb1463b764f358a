package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/DavidFarrell/render-mcp-arxiv/internal/domain"
	"github.com/DavidFarrell/render-mcp-arxiv/internal/observability"
	"github.com/DavidFarrell/render-mcp-arxiv/internal/search"
)

// JSON-RPC 2.0 error codes.
const (
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeInternalError  = -32603
)

// maxRequestBodySize bounds JSON-RPC request bodies (1 MB).
const maxRequestBodySize = 1 << 20

// rpcRequest is a JSON-RPC 2.0 request envelope.
type rpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

// rpcResponse is a JSON-RPC 2.0 response envelope.
type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  interface{}     `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

// rpcError is a JSON-RPC 2.0 error object. Data carries the original error
// text for internal errors.
type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    string `json:"data,omitempty"`
}

// callParams are the params of a tools/call request.
type callParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// readParams are the params of a resources/read request.
type readParams struct {
	URI string `json:"uri"`
}

// rpcHandler serves POST /mcp. It validates the JSON-RPC envelope, routes
// the method, and translates failures into JSON-RPC error objects: envelope
// and routing problems are client errors (HTTP 400), tool execution
// failures become code -32603 with the original text in data (HTTP 500).
func (s *Server) rpcHandler(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodySize))
	if err != nil {
		s.writeRPCError(w, http.StatusBadRequest, "", nil, codeInvalidRequest, "Invalid JSON-RPC request", "failed to read request body")
		return
	}

	var req rpcRequest
	if err := json.Unmarshal(body, &req); err != nil {
		s.writeRPCError(w, http.StatusBadRequest, "", nil, codeInvalidRequest, "Invalid JSON-RPC request", err.Error())
		return
	}
	if req.JSONRPC != "2.0" {
		s.writeRPCError(w, http.StatusBadRequest, "", req.ID, codeInvalidRequest, "Invalid JSON-RPC request", "jsonrpc must be \"2.0\"")
		return
	}

	if s.metrics != nil {
		s.metrics.RecordRPCRequest(req.Method)
	}
	logger := observability.WithToolContext(s.logger, observability.RequestIDFromContext(r.Context()), req.Method)
	logger.Debug().Msg("rpc request")

	switch req.Method {
	case "tools/list":
		s.writeRPCResult(w, req.ID, map[string]interface{}{"tools": toolDescriptors()})

	case "tools/call":
		s.handleToolCall(w, r, req)

	case "resources/list":
		s.handleResourceList(w, req)

	case "resources/read":
		s.handleResourceRead(w, req)

	default:
		s.writeRPCError(w, http.StatusBadRequest, req.Method, req.ID, codeMethodNotFound, "Method not found", fmt.Sprintf("unknown method: %s", req.Method))
	}
}

// handleToolCall dispatches a tools/call request to one of the four tools.
// The tool set is closed: unknown names are rejected at the boundary with a
// client error rather than reaching execution.
func (s *Server) handleToolCall(w http.ResponseWriter, r *http.Request, req rpcRequest) {
	var params callParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		s.writeRPCError(w, http.StatusBadRequest, req.Method, req.ID, codeInvalidParams, "Invalid params", err.Error())
		return
	}

	ctx := r.Context()

	var (
		text string
		err  error
	)
	switch params.Name {
	case search.ToolSearchPapers:
		text, err = s.callSearchPapers(ctx, params.Arguments)
	case search.ToolSearchByAuthor:
		text, err = s.callSearchByAuthor(ctx, params.Arguments)
	case search.ToolSearchRecentPapers:
		text, err = s.callSearchRecentPapers(ctx, params.Arguments)
	case search.ToolExtractInfo:
		text, err = s.callExtractInfo(ctx, params.Arguments)
	default:
		s.writeRPCError(w, http.StatusBadRequest, req.Method, req.ID, codeInvalidParams, "Invalid params", fmt.Sprintf("unknown tool: %s", params.Name))
		return
	}

	if err != nil {
		var argErr *argumentError
		if errors.As(err, &argErr) {
			s.writeRPCError(w, http.StatusBadRequest, req.Method, req.ID, codeInvalidParams, "Invalid params", argErr.Error())
			return
		}
		s.logger.Error().Err(err).Str("tool", params.Name).Msg("tool execution failed")
		s.writeRPCError(w, http.StatusInternalServerError, req.Method, req.ID, codeInternalError, "Internal error", err.Error())
		return
	}

	s.writeRPCResult(w, req.ID, toolCallResult{
		Content: []toolContent{{Type: "text", Text: text}},
	})
}

// callSearchPapers executes the search_papers tool.
func (s *Server) callSearchPapers(ctx context.Context, raw json.RawMessage) (string, error) {
	var args searchPapersArgs
	if err := s.decodeArguments(raw, &args); err != nil {
		return "", err
	}

	result, err := s.service.SearchPapers(ctx, domain.SearchRequest{
		Query:        args.Query,
		MaxResults:   args.MaxResults,
		SortBy:       args.SortBy,
		SortOrder:    args.SortOrder,
		SearchField:  args.SearchField,
		DateFrom:     args.DateFrom,
		DateTo:       args.DateTo,
		AuthorFilter: args.AuthorSearch,
	})
	if err != nil {
		return "", err
	}
	return marshalToolResult(result)
}

// callSearchByAuthor executes the search_by_author tool.
func (s *Server) callSearchByAuthor(ctx context.Context, raw json.RawMessage) (string, error) {
	var args searchByAuthorArgs
	if err := s.decodeArguments(raw, &args); err != nil {
		return "", err
	}

	result, err := s.service.SearchByAuthor(ctx, args.AuthorName, args.MaxResults, args.SortBy)
	if err != nil {
		return "", err
	}
	return marshalToolResult(result)
}

// callSearchRecentPapers executes the search_recent_papers tool.
func (s *Server) callSearchRecentPapers(ctx context.Context, raw json.RawMessage) (string, error) {
	var args searchRecentArgs
	if err := s.decodeArguments(raw, &args); err != nil {
		return "", err
	}

	result, err := s.service.SearchRecentPapers(ctx, args.Topic, args.DaysBack, args.MaxResults)
	if err != nil {
		return "", err
	}
	return marshalToolResult(result)
}

// callExtractInfo executes the extract_info tool. A cache miss is a normal
// textual result, not an error.
func (s *Server) callExtractInfo(ctx context.Context, raw json.RawMessage) (string, error) {
	var args extractInfoArgs
	if err := s.decodeArguments(raw, &args); err != nil {
		return "", err
	}

	rec, found, err := s.service.ExtractInfo(ctx, args.PaperID)
	if err != nil {
		return "", err
	}
	if !found {
		return fmt.Sprintf("No saved information found for paper %s.", args.PaperID), nil
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding paper record: %w", err)
	}
	return string(data), nil
}

// decodeArguments unmarshals and validates tool arguments. Both failure
// modes surface as argumentError so the caller can map them to a client
// error.
func (s *Server) decodeArguments(raw json.RawMessage, args interface{}) error {
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, args); err != nil {
			return &argumentError{cause: err}
		}
	}
	if err := s.validate.Struct(args); err != nil {
		return &argumentError{cause: err}
	}
	return nil
}

// marshalToolResult renders a search result the way tool callers expect:
// pretty-printed JSON inside a text content block.
func marshalToolResult(v interface{}) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding tool result: %w", err)
	}
	return string(data), nil
}

// writeRPCResult writes a successful JSON-RPC response.
func (s *Server) writeRPCResult(w http.ResponseWriter, id json.RawMessage, result interface{}) {
	s.writeJSON(w, http.StatusOK, rpcResponse{
		JSONRPC: "2.0",
		ID:      id,
		Result:  result,
	})
}

// writeRPCError writes a JSON-RPC error response and records it in metrics.
func (s *Server) writeRPCError(w http.ResponseWriter, status int, method string, id json.RawMessage, code int, message, data string) {
	if s.metrics != nil {
		s.metrics.RecordRPCError(method, strconv.Itoa(code))
	}
	s.writeJSON(w, status, rpcResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &rpcError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	})
}

// argumentError marks a tool argument decode or validation failure.
type argumentError struct {
	cause error
}

func (e *argumentError) Error() string {
	return e.cause.Error()
}

func (e *argumentError) Unwrap() error {
	return e.cause
}
