// Package langserver implements a Language Server Protocol server for treebank
// files, which hold one bracketed tree per line. It reports malformed trees as
// diagnostics and completes constituent labels after an opening bracket.
package langserver

import (
	"errors"
	"io"
	"slices"
	"strings"
	"sync"

	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"

	"github.com/dhamidi/treebeam/treebank"
)

const lsName = "treebeam"

var log = commonlog.GetLogger("treebeam.langserver")

type Server struct {
	handler protocol.Handler
	server  *server.Server
	version string

	mu   sync.Mutex
	docs map[protocol.DocumentUri][]byte
}

func New(version string) *Server {
	s := &Server{
		version: version,
		docs:    make(map[protocol.DocumentUri][]byte),
	}

	s.handler = protocol.Handler{
		Initialize:             s.initialize,
		Initialized:            s.initialized,
		Shutdown:               s.shutdown,
		SetTrace:               s.setTrace,
		TextDocumentDidOpen:    s.textDocumentDidOpen,
		TextDocumentDidChange:  s.textDocumentDidChange,
		TextDocumentDidClose:   s.textDocumentDidClose,
		TextDocumentDidSave:    s.textDocumentDidSave,
		TextDocumentCompletion: s.textDocumentCompletion,
	}

	s.server = server.NewServer(&s.handler, lsName, false)

	return s
}

func (s *Server) RunStdio() error {
	return s.server.RunStdio()
}

func (s *Server) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	capabilities := s.handler.CreateServerCapabilities()

	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: boolPtr(true),
		Change:    syncKindPtr(protocol.TextDocumentSyncKindFull),
		Save: &protocol.SaveOptions{
			IncludeText: boolPtr(true),
		},
	}
	capabilities.CompletionProvider = &protocol.CompletionOptions{
		TriggerCharacters: []string{"("},
	}

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    lsName,
			Version: &s.version,
		},
	}, nil
}

func (s *Server) initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	return nil
}

func (s *Server) shutdown(ctx *glsp.Context) error {
	return nil
}

func (s *Server) setTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)
	return nil
}

func (s *Server) textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	s.update(ctx, params.TextDocument.URI, []byte(params.TextDocument.Text))
	return nil
}

func (s *Server) textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	if len(params.ContentChanges) > 0 {
		change := params.ContentChanges[len(params.ContentChanges)-1]
		if whole, ok := change.(protocol.TextDocumentContentChangeEventWhole); ok {
			s.update(ctx, params.TextDocument.URI, []byte(whole.Text))
		}
	}
	return nil
}

func (s *Server) textDocumentDidSave(ctx *glsp.Context, params *protocol.DidSaveTextDocumentParams) error {
	if params.Text != nil {
		s.update(ctx, params.TextDocument.URI, []byte(*params.Text))
	}
	return nil
}

func (s *Server) textDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	s.mu.Lock()
	delete(s.docs, params.TextDocument.URI)
	s.mu.Unlock()
	publish(ctx, params.TextDocument.URI, []protocol.Diagnostic{})
	return nil
}

func (s *Server) textDocumentCompletion(ctx *glsp.Context, params *protocol.CompletionParams) (any, error) {
	s.mu.Lock()
	content, ok := s.docs[params.TextDocument.URI]
	s.mu.Unlock()
	if !ok || !afterOpenBracket(content, int(params.Position.Line), int(params.Position.Character)) {
		return nil, nil
	}

	var items []protocol.CompletionItem
	kind := protocol.CompletionItemKindValue
	for _, label := range Labels(content) {
		items = append(items, protocol.CompletionItem{
			Label: label,
			Kind:  &kind,
		})
	}
	return items, nil
}

func (s *Server) update(ctx *glsp.Context, uri protocol.DocumentUri, content []byte) {
	s.mu.Lock()
	s.docs[uri] = content
	s.mu.Unlock()

	diags := Diagnose(uri, content)
	log.Debugf("%s: %d diagnostic(s)", uri, len(diags))
	publish(ctx, uri, diags)
}

func publish(ctx *glsp.Context, uri protocol.DocumentUri, diags []protocol.Diagnostic) {
	ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diags,
	})
}

// Diagnose parses every non-blank line of content as a tree and reports the
// first syntax error of each malformed line. The result is never nil.
func Diagnose(uri protocol.DocumentUri, content []byte) []protocol.Diagnostic {
	diags := []protocol.Diagnostic{}
	severity := protocol.DiagnosticSeverityError
	source := lsName
	for i, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		_, err := treebank.Parse(string(uri), []byte(line))
		if err == nil {
			continue
		}

		// Positions are byte columns within the single-line input.
		start, end := 0, len(line)
		message := err.Error()
		var syntaxErr *treebank.SyntaxError
		if errors.As(err, &syntaxErr) {
			start = syntaxErr.Position.Column - 1
			end = start + 1
			message = syntaxErr.Message
		}
		diags = append(diags, protocol.Diagnostic{
			Range: protocol.Range{
				Start: protocol.Position{Line: protocol.UInteger(i), Character: protocol.UInteger(start)},
				End:   protocol.Position{Line: protocol.UInteger(i), Character: protocol.UInteger(end)},
			},
			Severity: &severity,
			Source:   &source,
			Message:  message,
		})
	}
	return diags
}

// Labels returns the distinct constituent labels in content, sorted. Malformed
// lines contribute the labels that precede the error.
func Labels(content []byte) []string {
	lx, err := treebank.NewLexer(content, "")
	if err != nil {
		return nil
	}
	seen := make(map[string]bool)
	afterOpen := false
	for {
		tok, err := lx.NextToken()
		if err != nil {
			if err != io.EOF {
				log.Warningf("scan labels: %s", err)
			}
			break
		}
		switch tok.Kind {
		case treebank.KindSpace:
			continue
		case treebank.KindWord:
			if afterOpen {
				seen[tok.Literal] = true
			}
		}
		afterOpen = tok.Kind == treebank.KindLParen
	}

	labels := make([]string, 0, len(seen))
	for label := range seen {
		labels = append(labels, label)
	}
	slices.Sort(labels)
	return labels
}

// afterOpenBracket reports whether the cursor sits right after "(" or inside the
// label that follows one.
func afterOpenBracket(content []byte, line, col int) bool {
	lines := strings.Split(string(content), "\n")
	if line < 0 || line >= len(lines) {
		return false
	}
	text := lines[line]
	for i := min(col, len(text)) - 1; i >= 0; i-- {
		switch text[i] {
		case '(':
			return true
		case ')', ' ', '\t':
			return false
		}
	}
	return false
}

func boolPtr(b bool) *bool {
	return &b
}

func syncKindPtr(k protocol.TextDocumentSyncKind) *protocol.TextDocumentSyncKind {
	return &k
}
