package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DavidFarrell/render-mcp-arxiv/internal/domain"
	"github.com/DavidFarrell/render-mcp-arxiv/internal/papersources"
	"github.com/DavidFarrell/render-mcp-arxiv/internal/search"
	"github.com/DavidFarrell/render-mcp-arxiv/internal/store"
)

// stubSource is a PaperSource returning canned papers, or an error.
type stubSource struct {
	papers []*domain.PaperRecord
	err    error
}

func (s *stubSource) Search(_ context.Context, _ papersources.SearchParams) (*papersources.SearchResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &papersources.SearchResult{Papers: s.papers, TotalResults: len(s.papers)}, nil
}

func (s *stubSource) GetByID(_ context.Context, id string) (*domain.PaperRecord, error) {
	return nil, domain.NewNotFoundError("paper", id)
}

func (s *stubSource) Name() string { return "stub" }

func newTestServer(t *testing.T, source papersources.PaperSource) (*Server, *store.Store) {
	t.Helper()
	st := store.New(t.TempDir(), zerolog.Nop(), nil)
	svc := search.NewService(source, st, zerolog.Nop(), nil)
	srv := NewServer(Config{Address: "127.0.0.1:0"}, svc, st, zerolog.Nop(), nil)
	return srv, st
}

// postRPC sends a JSON-RPC request body and decodes the response envelope.
func postRPC(t *testing.T, srv *Server, body string) (*httptest.ResponseRecorder, rpcResponse) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/mcp", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	var resp rpcResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec, resp
}

// contentText extracts the single text block of a tools/call result.
func contentText(t *testing.T, resp rpcResponse) string {
	t.Helper()
	data, err := json.Marshal(resp.Result)
	require.NoError(t, err)
	var result toolCallResult
	require.NoError(t, json.Unmarshal(data, &result))
	require.Len(t, result.Content, 1)
	assert.Equal(t, "text", result.Content[0].Type)
	return result.Content[0].Text
}

func TestMCPHealthEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, &stubSource{})

	req := httptest.NewRequest(http.MethodGet, "/mcp", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var payload map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, "ok", payload["status"])
	assert.Equal(t, "mcp-streamable-1.0", payload["protocol"])
	assert.Equal(t, "render-mcp-arxiv", payload["server"])
	assert.Equal(t, "1.0.0", payload["version"])
	assert.NotEmpty(t, payload["message"])
}

func TestHealthzEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, &stubSource{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestRPC_Envelope(t *testing.T) {
	t.Run("invalid JSON", func(t *testing.T) {
		srv, _ := newTestServer(t, &stubSource{})

		rec, resp := postRPC(t, srv, "{not json")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		require.NotNil(t, resp.Error)
		assert.Equal(t, codeInvalidRequest, resp.Error.Code)
	})

	t.Run("wrong jsonrpc version", func(t *testing.T) {
		srv, _ := newTestServer(t, &stubSource{})

		rec, resp := postRPC(t, srv, `{"jsonrpc":"1.0","id":1,"method":"tools/list"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		require.NotNil(t, resp.Error)
		assert.Equal(t, codeInvalidRequest, resp.Error.Code)
	})

	t.Run("unknown method", func(t *testing.T) {
		srv, _ := newTestServer(t, &stubSource{})

		rec, resp := postRPC(t, srv, `{"jsonrpc":"2.0","id":1,"method":"prompts/list"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		require.NotNil(t, resp.Error)
		assert.Equal(t, codeMethodNotFound, resp.Error.Code)
		assert.Equal(t, "Method not found", resp.Error.Message)
	})

	t.Run("echoes request id", func(t *testing.T) {
		srv, _ := newTestServer(t, &stubSource{})

		_, resp := postRPC(t, srv, `{"jsonrpc":"2.0","id":42,"method":"tools/list"}`)
		assert.Equal(t, json.RawMessage("42"), resp.ID)
		assert.Equal(t, "2.0", resp.JSONRPC)
	})
}

func TestRPC_ToolsList(t *testing.T) {
	srv, _ := newTestServer(t, &stubSource{})

	rec, resp := postRPC(t, srv, `{"jsonrpc":"2.0","id":1,"method":"tools/list"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Nil(t, resp.Error)

	data, err := json.Marshal(resp.Result)
	require.NoError(t, err)
	var result struct {
		Tools []struct {
			Name        string          `json:"name"`
			Description string          `json:"description"`
			InputSchema json.RawMessage `json:"inputSchema"`
		} `json:"tools"`
	}
	require.NoError(t, json.Unmarshal(data, &result))
	require.Len(t, result.Tools, 4)

	names := make([]string, 0, len(result.Tools))
	for _, tool := range result.Tools {
		names = append(names, tool.Name)
		assert.NotEmpty(t, tool.Description)
		assert.NotEmpty(t, tool.InputSchema)
	}
	assert.Equal(t, []string{"search_papers", "search_by_author", "search_recent_papers", "extract_info"}, names)
}

func TestRPC_ToolsCall(t *testing.T) {
	paper := &domain.PaperRecord{
		ID:        "2401.00001v1",
		Title:     "A Paper",
		Authors:   []string{"Jane Doe"},
		Summary:   "Summary.",
		Published: "2024-01-15",
	}

	t.Run("search_papers happy path", func(t *testing.T) {
		srv, st := newTestServer(t, &stubSource{papers: []*domain.PaperRecord{paper}})

		rec, resp := postRPC(t, srv, `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"search_papers","arguments":{"query":"neural nets","search_field":"title"}}}`)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Nil(t, resp.Error)

		text := contentText(t, resp)
		var result domain.SearchResult
		require.NoError(t, json.Unmarshal([]byte(text), &result))
		assert.Equal(t, []string{"2401.00001v1"}, result.PaperIDs)
		assert.Equal(t, "ti:neural nets", result.SearchQuery)
		assert.Equal(t, st.DocumentPath("neural_nets"), result.StoragePath)
		assert.Contains(t, result.Message, "Found 1 papers (1 new)")
	})

	t.Run("unknown tool", func(t *testing.T) {
		srv, _ := newTestServer(t, &stubSource{})

		rec, resp := postRPC(t, srv, `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"delete_everything","arguments":{}}}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		require.NotNil(t, resp.Error)
		assert.Equal(t, codeInvalidParams, resp.Error.Code)
		assert.Contains(t, resp.Error.Data, "delete_everything")
	})

	t.Run("missing required argument", func(t *testing.T) {
		srv, _ := newTestServer(t, &stubSource{})

		rec, resp := postRPC(t, srv, `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"search_papers","arguments":{}}}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		require.NotNil(t, resp.Error)
		assert.Equal(t, codeInvalidParams, resp.Error.Code)
	})

	t.Run("malformed argument type", func(t *testing.T) {
		srv, _ := newTestServer(t, &stubSource{})

		rec, resp := postRPC(t, srv, `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"search_papers","arguments":{"query":"x","max_results":"many"}}}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		require.NotNil(t, resp.Error)
		assert.Equal(t, codeInvalidParams, resp.Error.Code)
	})

	t.Run("provider failure surfaces as internal error", func(t *testing.T) {
		srv, _ := newTestServer(t, &stubSource{err: errors.New("provider down")})

		rec, resp := postRPC(t, srv, `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"search_papers","arguments":{"query":"neural nets"}}}`)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		require.NotNil(t, resp.Error)
		assert.Equal(t, codeInternalError, resp.Error.Code)
		assert.Equal(t, "Internal error", resp.Error.Message)
		assert.Contains(t, resp.Error.Data, "provider down")
	})

	t.Run("search_by_author", func(t *testing.T) {
		srv, _ := newTestServer(t, &stubSource{papers: []*domain.PaperRecord{paper}})

		rec, resp := postRPC(t, srv, `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"search_by_author","arguments":{"author_name":"Jane Doe"}}}`)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Nil(t, resp.Error)

		text := contentText(t, resp)
		var result domain.SearchResult
		require.NoError(t, json.Unmarshal([]byte(text), &result))
		assert.Equal(t, "* AND au:jane_doe", result.SearchQuery)
	})

	t.Run("search_recent_papers", func(t *testing.T) {
		srv, _ := newTestServer(t, &stubSource{papers: []*domain.PaperRecord{paper}})

		rec, resp := postRPC(t, srv, `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"search_recent_papers","arguments":{"topic":"quantum","days_back":30}}}`)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Nil(t, resp.Error)

		text := contentText(t, resp)
		var result domain.SearchResult
		require.NoError(t, json.Unmarshal([]byte(text), &result))
		assert.Contains(t, result.SearchQuery, "quantum AND submittedDate:[")
	})

	t.Run("extract_info hit", func(t *testing.T) {
		srv, st := newTestServer(t, &stubSource{})
		_, err := st.Merge("quantum", []*domain.PaperRecord{paper})
		require.NoError(t, err)

		rec, resp := postRPC(t, srv, `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"extract_info","arguments":{"paper_id":"2401.00001v1"}}}`)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Nil(t, resp.Error)

		text := contentText(t, resp)
		var got domain.PaperRecord
		require.NoError(t, json.Unmarshal([]byte(text), &got))
		assert.Equal(t, "A Paper", got.Title)
	})

	t.Run("extract_info miss", func(t *testing.T) {
		srv, _ := newTestServer(t, &stubSource{})

		rec, resp := postRPC(t, srv, `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"extract_info","arguments":{"paper_id":"9999.00000"}}}`)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Nil(t, resp.Error)
		assert.Equal(t, "No saved information found for paper 9999.00000.", contentText(t, resp))
	})
}

func TestRPC_Resources(t *testing.T) {
	paper := &domain.PaperRecord{
		ID:        "2401.00001v1",
		Title:     "A Paper",
		Authors:   []string{"Jane Doe"},
		Published: "2024-01-15",
	}

	t.Run("resources/list includes folders and topics", func(t *testing.T) {
		srv, st := newTestServer(t, &stubSource{})
		_, err := st.Merge("quantum_computing", []*domain.PaperRecord{paper})
		require.NoError(t, err)

		rec, resp := postRPC(t, srv, `{"jsonrpc":"2.0","id":1,"method":"resources/list"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Nil(t, resp.Error)

		data, err := json.Marshal(resp.Result)
		require.NoError(t, err)
		var result struct {
			Resources []resourceDescriptor `json:"resources"`
		}
		require.NoError(t, json.Unmarshal(data, &result))
		require.Len(t, result.Resources, 2)
		assert.Equal(t, "papers://folders", result.Resources[0].URI)
		assert.Equal(t, "papers://quantum_computing", result.Resources[1].URI)
	})

	t.Run("resources/read folders", func(t *testing.T) {
		srv, st := newTestServer(t, &stubSource{})
		_, err := st.Merge("quantum_computing", []*domain.PaperRecord{paper})
		require.NoError(t, err)

		rec, resp := postRPC(t, srv, `{"jsonrpc":"2.0","id":1,"method":"resources/read","params":{"uri":"papers://folders"}}`)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Nil(t, resp.Error)

		data, err := json.Marshal(resp.Result)
		require.NoError(t, err)
		var result struct {
			Contents []resourceContents `json:"contents"`
		}
		require.NoError(t, json.Unmarshal(data, &result))
		require.Len(t, result.Contents, 1)
		assert.Equal(t, "text/markdown", result.Contents[0].MIMEType)
		assert.Contains(t, result.Contents[0].Text, "Quantum Computing")
	})

	t.Run("resources/read topic", func(t *testing.T) {
		srv, st := newTestServer(t, &stubSource{})
		_, err := st.Merge("quantum_computing", []*domain.PaperRecord{paper})
		require.NoError(t, err)

		rec, resp := postRPC(t, srv, `{"jsonrpc":"2.0","id":1,"method":"resources/read","params":{"uri":"papers://quantum_computing"}}`)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Nil(t, resp.Error)

		data, err := json.Marshal(resp.Result)
		require.NoError(t, err)
		var result struct {
			Contents []resourceContents `json:"contents"`
		}
		require.NoError(t, json.Unmarshal(data, &result))
		require.Len(t, result.Contents, 1)
		assert.Contains(t, result.Contents[0].Text, "A Paper")
	})

	t.Run("unknown scheme", func(t *testing.T) {
		srv, _ := newTestServer(t, &stubSource{})

		rec, resp := postRPC(t, srv, `{"jsonrpc":"2.0","id":1,"method":"resources/read","params":{"uri":"file:///etc/passwd"}}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		require.NotNil(t, resp.Error)
		assert.Equal(t, codeInvalidParams, resp.Error.Code)
	})
}

func TestCorrelationIDHeader(t *testing.T) {
	srv, _ := newTestServer(t, &stubSource{})

	t.Run("generated when absent", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)

		assert.NotEmpty(t, rec.Header().Get("X-Correlation-ID"))
	})

	t.Run("echoed when supplied", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		req.Header.Set("X-Correlation-ID", "test-correlation-id")
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)

		assert.Equal(t, "test-correlation-id", rec.Header().Get("X-Correlation-ID"))
	})
}

func TestWriteJSON_EncodeFailure(t *testing.T) {
	srv, _ := newTestServer(t, &stubSource{})
	rec := httptest.NewRecorder()

	// A channel cannot be JSON-encoded; the failure must not panic and the
	// already-committed status must stand.
	assert.NotPanics(t, func() {
		srv.writeJSON(rec, http.StatusOK, map[string]interface{}{"ch": make(chan int)})
	})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}
