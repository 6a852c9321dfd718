package rpc

import (
	"context"
	"io"

	"github.com/sourcegraph/jsonrpc2"

	"github.com/cognicore/chainer/pkg/chainer/report"
	"github.com/cognicore/chainer/pkg/chainer/store"
)

// Client calls a Server over a stream.
type Client struct {
	conn *jsonrpc2.Conn
}

// NewClient wraps rwc. Close the client to release it.
func NewClient(ctx context.Context, rwc io.ReadWriteCloser) *Client {
	noop := jsonrpc2.HandlerWithError(func(context.Context, *jsonrpc2.Conn, *jsonrpc2.Request) (interface{}, error) {
		return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeMethodNotFound, Message: "client accepts no requests"}
	})
	return &Client{conn: jsonrpc2.NewConn(ctx, jsonrpc2.NewBufferedStream(rwc, jsonrpc2.VSCodeObjectCodec{}), noop)}
}

func (c *Client) Close() error { return c.conn.Close() }

func (c *Client) Load(ctx context.Context, name, source string) (LoadResult, error) {
	var res LoadResult
	err := c.conn.Call(ctx, MethodLoad, LoadParams{Name: name, Source: source}, &res)
	return res, err
}

func (c *Client) Ask(ctx context.Context, name, goal string) (report.Report, error) {
	var res report.Report
	err := c.conn.Call(ctx, MethodAsk, AskParams{Name: name, Goal: goal}, &res)
	return res, err
}

func (c *Client) List(ctx context.Context) ([]store.KnowledgeBaseInfo, error) {
	var res []store.KnowledgeBaseInfo
	err := c.conn.Call(ctx, MethodList, nil, &res)
	return res, err
}

func (c *Client) Runs(ctx context.Context, name string, limit int) ([]report.Report, error) {
	var res []report.Report
	err := c.conn.Call(ctx, MethodRuns, RunsParams{Name: name, Limit: limit}, &res)
	return res, err
}
