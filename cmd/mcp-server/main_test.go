package main

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/nalgeon/be"

	mathexpr "github.com/njchilds90/gomathexpr"
)

func newTestServer() (*server, *bytes.Buffer) {
	var buf bytes.Buffer
	return newServer(log.New(&buf, "", 0)), &buf
}

func post(t *testing.T, body string) *httptest.ResponseRecorder {
	t.Helper()
	s, _ := newTestServer()
	return postTo(s, body)
}

func postTo(s *server, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/tool", strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.mux().ServeHTTP(rec, req)
	return rec
}

func get(s *server, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.mux().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestTool(t *testing.T) {
	rec := post(t, `{"tool": "derivative", "params": {"expr": "x^2 + x", "var": "x"}}`)
	be.Equal(t, rec.Code, http.StatusOK)
	be.Equal(t, rec.Header().Get("Content-Type"), "application/json")

	var resp mathexpr.ToolResponse
	be.Err(t, json.Unmarshal(rec.Body.Bytes(), &resp), nil)
	be.Equal(t, resp.String, "2 * x + 1")
	be.Equal(t, resp.Error, "")
}

func TestTool_ToolError(t *testing.T) {
	rec := post(t, `{"tool": "evaluate", "params": {"expr": "1 +"}}`)
	be.Equal(t, rec.Code, http.StatusOK)
	var resp mathexpr.ToolResponse
	be.Err(t, json.Unmarshal(rec.Body.Bytes(), &resp), nil)
	be.True(t, resp.Error != "")
}

func TestTool_BadRequests(t *testing.T) {
	tests := []struct{ name, body, want string }{
		{"invalid json", `{"tool": `, "unexpected EOF"},
		{"unknown field", `{"tool": "parse", "extra": 1}`, "unknown field"},
		{"trailing data", `{"tool": "parse"} {}`, "trailing data"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := post(t, tt.body)
			be.Equal(t, rec.Code, http.StatusBadRequest)
			var body map[string]string
			be.Err(t, json.Unmarshal(rec.Body.Bytes(), &body), nil)
			be.True(t, strings.Contains(body["error"], tt.want))
		})
	}
}

func TestTool_MethodNotAllowed(t *testing.T) {
	s, _ := newTestServer()
	rec := get(s, "/tool")
	be.Equal(t, rec.Code, http.StatusMethodNotAllowed)
}

func TestTool_Logging(t *testing.T) {
	s, buf := newTestServer()
	postTo(s, `{"tool": "simplify", "params": {"expr": "x + 2 + 3"}}`)
	postTo(s, `{"tool": "derivative", "params": {"expr": "gamma(x)", "var": "x"}}`)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	be.Equal(t, len(lines), 2)
	be.True(t, strings.HasPrefix(lines[0], `tool=simplify expr="x + 2 + 3" took=`))
	be.True(t, !strings.Contains(lines[0], "error="))
	be.True(t, strings.HasPrefix(lines[1], `tool=derivative expr="gamma(x)" took=`))
	be.True(t, strings.Contains(lines[1], "not supported"))
}

func TestExprSummary(t *testing.T) {
	tests := []struct {
		in   interface{}
		want string
	}{
		{nil, "-"},
		{"x + 1", `"x + 1"`},
		{strings.Repeat("x", 70), `"` + strings.Repeat("x", 60) + `..."`},
		{map[string]interface{}{"type": "operator"}, "<operator node>"},
		{3.0, "<invalid>"},
	}
	for _, tt := range tests {
		be.Equal(t, exprSummary(tt.in), tt.want)
	}
}

func TestSchema(t *testing.T) {
	s, _ := newTestServer()
	rec := get(s, "/schema")
	be.Equal(t, rec.Code, http.StatusOK)
	be.Equal(t, rec.Body.String(), mathexpr.MCPToolSpec())
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer()
	postTo(s, `{"tool": "evaluate", "params": {"expr": "1 + 1"}}`)
	postTo(s, `{"tool": "evaluate", "params": {"expr": "1 +"}}`)
	postTo(s, `{"tool": "parse", "params": {"expr": "x"}}`)

	rec := get(s, "/health")
	be.Equal(t, rec.Code, http.StatusOK)
	var body struct {
		Status string      `json:"status"`
		Tools  []toolStats `json:"tools"`
	}
	be.Err(t, json.Unmarshal(rec.Body.Bytes(), &body), nil)
	be.Equal(t, body.Status, "ok")
	be.Equal(t, body.Tools, []toolStats{
		{Tool: "evaluate", Calls: 2, Failed: 1},
		{Tool: "parse", Calls: 1, Failed: 0},
	})
}
