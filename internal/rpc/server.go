// Package rpc exposes a Chainer over JSON-RPC 2.0 with VS Code style
// Content-Length framing, on stdio or any stream connection.
package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"os"

	"github.com/sourcegraph/jsonrpc2"

	"github.com/cognicore/chainer/pkg/chainer"
	"github.com/cognicore/chainer/pkg/chainer/internalerr"
)

// Method names.
const (
	MethodLoad = "kb/load"
	MethodAsk  = "kb/ask"
	MethodList = "kb/list"
	MethodRuns = "runs/list"
)

// CodeNotFound is returned when a knowledge base or run does not exist.
const CodeNotFound int64 = -32001

// LoadParams are the params of kb/load. Source is rule-language text.
type LoadParams struct {
	Name   string `json:"name"`
	Source string `json:"source"`
}

// LoadResult is the result of kb/load.
type LoadResult struct {
	Name  string   `json:"name"`
	Facts int      `json:"facts"`
	Rules int      `json:"rules"`
	Goals []string `json:"goals"`
}

// AskParams are the params of kb/ask. Goal is rule-language text such as
// "? Wet(x).".
type AskParams struct {
	Name string `json:"name"`
	Goal string `json:"goal"`
}

// RunsParams are the params of runs/list.
type RunsParams struct {
	Name  string `json:"name"`
	Limit int    `json:"limit"`
}

type method func(ctx context.Context, params json.RawMessage) (interface{}, error)

// Server answers kb/* and runs/* requests against one Chainer.
type Server struct {
	c       *chainer.Chainer
	methods map[string]method
}

// NewServer creates a server for c.
func NewServer(c *chainer.Chainer) *Server {
	s := &Server{c: c}
	s.methods = map[string]method{
		MethodLoad: handle(s.load),
		MethodAsk:  handle(s.ask),
		MethodList: handle(s.list),
		MethodRuns: handle(s.runs),
	}
	return s
}

// handle decodes params into P before calling fn.
func handle[P any](fn func(context.Context, P) (interface{}, error)) method {
	return func(ctx context.Context, raw json.RawMessage) (interface{}, error) {
		var p P
		if len(raw) > 0 && string(raw) != "null" {
			if err := json.Unmarshal(raw, &p); err != nil {
				return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams, Message: err.Error()}
			}
		}
		return fn(ctx, p)
	}
}

// Handler returns the jsonrpc2 handler.
func (s *Server) Handler() jsonrpc2.Handler {
	return jsonrpc2.HandlerWithError(func(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) (interface{}, error) {
		m, ok := s.methods[req.Method]
		if !ok {
			return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeMethodNotFound, Message: "method not found: " + req.Method}
		}
		var params json.RawMessage
		if req.Params != nil {
			params = *req.Params
		}
		result, err := m(ctx, params)
		if err != nil {
			return nil, toRPCError(err)
		}
		return result, nil
	})
}

// ServeConn serves one connection until the peer disconnects or ctx is done.
func (s *Server) ServeConn(ctx context.Context, rwc io.ReadWriteCloser) {
	conn := jsonrpc2.NewConn(ctx, jsonrpc2.NewBufferedStream(rwc, jsonrpc2.VSCodeObjectCodec{}), s.Handler())
	select {
	case <-conn.DisconnectNotify():
	case <-ctx.Done():
		conn.Close()
	}
}

// Serve accepts connections on l until ctx is done.
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	go func() {
		<-ctx.Done()
		l.Close()
	}()
	for {
		nc, err := l.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		go s.ServeConn(ctx, nc)
	}
}

func (s *Server) load(ctx context.Context, p LoadParams) (interface{}, error) {
	f, err := s.c.LoadSource(ctx, p.Name, p.Source)
	if err != nil {
		return nil, err
	}
	res := LoadResult{Name: p.Name, Facts: len(f.Facts), Rules: len(f.Rules), Goals: []string{}}
	for _, g := range f.Goals {
		res.Goals = append(res.Goals, g.String())
	}
	return res, nil
}

func (s *Server) ask(ctx context.Context, p AskParams) (interface{}, error) {
	return s.c.AskQuery(ctx, p.Name, p.Goal)
}

func (s *Server) list(ctx context.Context, _ struct{}) (interface{}, error) {
	return s.c.KnowledgeBases(ctx)
}

func (s *Server) runs(ctx context.Context, p RunsParams) (interface{}, error) {
	return s.c.Runs(ctx, p.Name, p.Limit)
}

func toRPCError(err error) *jsonrpc2.Error {
	var rpcErr *jsonrpc2.Error
	switch {
	case errors.As(err, &rpcErr):
		return rpcErr
	case errors.Is(err, internalerr.ErrInvalidInput),
		errors.Is(err, internalerr.ErrConstruction),
		errors.Is(err, internalerr.ErrDuplicate):
		return &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams, Message: err.Error()}
	case errors.Is(err, internalerr.ErrNotFound):
		return &jsonrpc2.Error{Code: CodeNotFound, Message: err.Error()}
	}
	return &jsonrpc2.Error{Code: jsonrpc2.CodeInternalError, Message: err.Error()}
}

type stdrwc struct{}

func (stdrwc) Read(p []byte) (int, error) {
	return os.Stdin.Read(p)
}

func (stdrwc) Write(p []byte) (int, error) {
	return os.Stdout.Write(p)
}

func (stdrwc) Close() error {
	if err := os.Stdin.Close(); err != nil {
		return err
	}
	return os.Stdout.Close()
}

// Stdio is the process's stdin/stdout as one stream.
func Stdio() io.ReadWriteCloser { return stdrwc{} }
