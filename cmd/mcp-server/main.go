// Command mcp-server serves the mathexpr tools over HTTP for agent
// frameworks.
//
// Usage:
//
//	mcp-server [-port 8080] [-quiet]
//
// Endpoints:
//
//	POST /tool    run one tool call (parse, evaluate, simplify, derivative, ...)
//	GET  /schema  tool schema for agent registration
//	GET  /health  liveness and per-tool call counters
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"runtime/debug"
	"sort"
	"sync"
	"time"

	mathexpr "github.com/njchilds90/gomathexpr"
)

const (
	maxBodyBytes  = 1 << 20 // 1 MiB
	maxLoggedExpr = 60
)

func main() {
	port := flag.Int("port", 8080, "Port to listen on")
	quiet := flag.Bool("quiet", false, "Do not log individual tool calls")
	flag.Parse()

	logger := log.New(os.Stderr, "", log.LstdFlags)
	addr := fmt.Sprintf(":%d", *port)
	logger.Printf("mathexpr MCP server listening on %s", addr)

	callLog := logger
	if *quiet {
		callLog = log.New(io.Discard, "", 0)
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           newServer(callLog).mux(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal(err)
	}
}

// server counts and logs the tool calls it handles.
type server struct {
	log     *log.Logger
	started time.Time

	mu     sync.Mutex
	calls  map[string]int
	failed map[string]int
}

func newServer(logger *log.Logger) *server {
	return &server{
		log:     logger,
		started: time.Now(),
		calls:   map[string]int{},
		failed:  map[string]int{},
	}
}

func (s *server) mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/tool", s.handleTool)
	mux.HandleFunc("/schema", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, mathexpr.MCPToolSpec())
	})
	mux.HandleFunc("/health", s.handleHealth)
	return mux
}

func (s *server) handleTool(w http.ResponseWriter, r *http.Request) {
	defer func() {
		if rec := recover(); rec != nil {
			s.log.Printf("panic in /tool: %v\n%s", rec, string(debug.Stack()))
			http.Error(w, "internal server error", http.StatusInternalServerError)
		}
	}()

	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	var req mathexpr.ToolRequest
	if err := dec.Decode(&req); err != nil {
		writeError(w, err.Error())
		return
	}
	if dec.More() {
		writeError(w, "invalid JSON: trailing data")
		return
	}

	start := time.Now()
	resp := mathexpr.HandleToolCall(req)
	elapsed := time.Since(start)

	s.record(req.Tool, resp.Error != "")
	if resp.Error != "" {
		s.log.Printf("tool=%s expr=%s took=%s error=%q", req.Tool, exprSummary(req.Params["expr"]), elapsed, resp.Error)
	} else {
		s.log.Printf("tool=%s expr=%s took=%s", req.Tool, exprSummary(req.Params["expr"]), elapsed)
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (s *server) record(tool string, failed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[tool]++
	if failed {
		s.failed[tool]++
	}
}

type toolStats struct {
	Tool   string `json:"tool"`
	Calls  int    `json:"calls"`
	Failed int    `json:"failed"`
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	stats := make([]toolStats, 0, len(s.calls))
	for tool, n := range s.calls {
		stats = append(stats, toolStats{Tool: tool, Calls: n, Failed: s.failed[tool]})
	}
	s.mu.Unlock()
	sort.Slice(stats, func(i, j int) bool { return stats[i].Tool < stats[j].Tool })

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
		"uptime": time.Since(s.started).Round(time.Second).String(),
		"tools":  stats,
	})
}

// exprSummary renders the expr param of a call for the log.
func exprSummary(v interface{}) string {
	switch e := v.(type) {
	case nil:
		return "-"
	case string:
		if len(e) > maxLoggedExpr {
			e = e[:maxLoggedExpr] + "..."
		}
		return fmt.Sprintf("%q", e)
	case map[string]interface{}:
		if t, ok := e["type"].(string); ok {
			return "<" + t + " node>"
		}
	}
	return "<invalid>"
}

func writeError(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
