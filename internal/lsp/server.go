package lsp

import (
	"bufio"
	"encoding/json"
	"io"
	"log/slog"
	"time"

	"github.com/adeptlang/adept/internal/diag"
)

// ShouldUnblock is the cooperative deadline predicate long queries poll:
// when it returns true, the query abandons further refinement and
// answers with what it has.
type ShouldUnblock func() bool

// Deadline builds a predicate that trips after d.
func Deadline(d time.Duration) ShouldUnblock {
	end := time.Now().Add(d)
	return func() bool { return time.Now().After(end) }
}

// Diagnoser analyzes one document and returns its diagnostics. The
// predicate bounds the work; implementations check it between phases.
type Diagnoser func(uri, text string, unblock ShouldUnblock) []*diag.Report

type request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Result  any             `json:"result,omitempty"`
	Error   *responseError  `json:"error,omitempty"`
}

type responseError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Server is the daemon's protocol loop.
type Server struct {
	QueryTimeout time.Duration
	Diagnose     Diagnoser
	Log          *slog.Logger

	docs     map[string]string
	shutdown bool
}

// NewServer creates a server with the default one-second query budget.
func NewServer(diagnose Diagnoser) *Server {
	return &Server{
		QueryTimeout: time.Second,
		Diagnose:     diagnose,
		Log:          slog.Default(),
		docs:         map[string]string{},
	}
}

// Serve drives the protocol until exit and returns the process exit
// code: 0 after an orderly shutdown/exit pair, 1 when exit arrives
// without a prior shutdown.
func (s *Server) Serve(in io.Reader, out io.Writer) int {
	r := bufio.NewReader(in)
	for {
		payload, err := ReadMessage(r)
		if err != nil {
			if err == io.EOF {
				return 1
			}
			s.Log.Error("malformed message", "err", err)
			return 1
		}
		var req request
		if err := json.Unmarshal(payload, &req); err != nil {
			s.Log.Error("malformed request", "err", err)
			continue
		}
		if req.Method == "exit" {
			if s.shutdown {
				return 0
			}
			return 1
		}
		s.handle(out, &req)
	}
}

func (s *Server) handle(out io.Writer, req *request) {
	switch req.Method {
	case "initialize":
		s.reply(out, req, map[string]any{
			"capabilities": map[string]any{
				"textDocumentSync":    1, // full
				"completionProvider":  map[string]any{},
				"diagnosticProvider":  map[string]any{"interFileDependencies": true},
			},
		})

	case "textDocument/didChange":
		var params struct {
			TextDocument struct {
				URI string `json:"uri"`
			} `json:"textDocument"`
			ContentChanges []struct {
				Text string `json:"text"`
			} `json:"contentChanges"`
		}
		if err := json.Unmarshal(req.Params, &params); err == nil && len(params.ContentChanges) > 0 {
			s.docs[params.TextDocument.URI] = params.ContentChanges[len(params.ContentChanges)-1].Text
		}

	case "textDocument/diagnostic":
		var params struct {
			TextDocument struct {
				URI string `json:"uri"`
			} `json:"textDocument"`
		}
		var items []map[string]any
		if err := json.Unmarshal(req.Params, &params); err == nil && s.Diagnose != nil {
			reports := s.Diagnose(params.TextDocument.URI, s.docs[params.TextDocument.URI],
				Deadline(s.QueryTimeout))
			for _, rep := range reports {
				items = append(items, diagnosticItem(rep))
			}
		}
		s.reply(out, req, map[string]any{"kind": "full", "items": items})

	case "textDocument/completion":
		// Completions are a fixed keyword list; no workspace artifacts
		// are consulted.
		s.reply(out, req, map[string]any{"isIncomplete": false, "items": keywordCompletions()})

	case "shutdown":
		s.shutdown = true
		s.reply(out, req, nil)

	default:
		if len(req.ID) > 0 {
			s.replyError(out, req, -32601, "method not found: "+req.Method)
		}
	}
}

func diagnosticItem(rep *diag.Report) map[string]any {
	severity := 1 // error
	if rep.Severity == diag.SeverityWarning {
		severity = 2
	}
	line := rep.Span.Line
	if line > 0 {
		line--
	}
	col := rep.Span.Col
	if col > 0 {
		col--
	}
	return map[string]any{
		"range": map[string]any{
			"start": map[string]int{"line": line, "character": col},
			"end":   map[string]int{"line": line, "character": col + rep.Span.Length},
		},
		"severity": severity,
		"code":     rep.Code,
		"message":  rep.Message,
	}
}

func keywordCompletions() []map[string]any {
	words := []string{
		"func", "struct", "enum", "trait", "impl", "typealias",
		"return", "if", "else", "while", "break", "continue", "goto",
		"pragma", "using", "foreign",
	}
	items := make([]map[string]any, len(words))
	for i, w := range words {
		items[i] = map[string]any{"label": w, "kind": 14}
	}
	return items
}

func (s *Server) reply(out io.Writer, req *request, result any) {
	if len(req.ID) == 0 {
		return
	}
	payload, err := json.Marshal(response{JSONRPC: "2.0", ID: req.ID, Result: result})
	if err != nil {
		s.Log.Error("cannot marshal response", "err", err)
		return
	}
	if err := WriteMessage(out, payload); err != nil {
		s.Log.Error("cannot write response", "err", err)
	}
}

func (s *Server) replyError(out io.Writer, req *request, code int, msg string) {
	payload, _ := json.Marshal(response{
		JSONRPC: "2.0", ID: req.ID,
		Error: &responseError{Code: code, Message: msg},
	})
	if err := WriteMessage(out, payload); err != nil {
		s.Log.Error("cannot write response", "err", err)
	}
}
