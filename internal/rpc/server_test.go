package rpc

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/sourcegraph/jsonrpc2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/chainer/pkg/chainer"
	"github.com/cognicore/chainer/pkg/chainer/report"
)

const rain = `
Rain(today).
Rain(x) => Wet(x).
? Wet(today).
`

func connect(t *testing.T) (*Client, context.Context) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	c := chainer.New(chainer.Options{})

	serverSide, clientSide := net.Pipe()
	go NewServer(c).ServeConn(ctx, serverSide)

	client := NewClient(ctx, clientSide)
	t.Cleanup(func() {
		client.Close()
		cancel()
		c.Close()
	})
	return client, ctx
}

func rpcCode(t *testing.T, err error) int64 {
	t.Helper()
	var rpcErr *jsonrpc2.Error
	require.True(t, errors.As(err, &rpcErr), "expected *jsonrpc2.Error, got %T: %v", err, err)
	return rpcErr.Code
}

func TestLoadAskAndList(t *testing.T) {
	client, ctx := connect(t)

	loaded, err := client.Load(ctx, "rain", rain)
	require.NoError(t, err)
	assert.Equal(t, LoadResult{Name: "rain", Facts: 1, Rules: 1, Goals: []string{"Wet(today)"}}, loaded)

	r, err := client.Ask(ctx, "rain", "? Wet(today).")
	require.NoError(t, err)
	assert.Equal(t, report.OutcomeProven, r.Outcome)
	assert.NotEmpty(t, r.ID)

	r, err = client.Ask(ctx, "rain", "Dry(today)")
	require.NoError(t, err)
	assert.Equal(t, report.OutcomeNotDerivable, r.Outcome)

	kbs, err := client.List(ctx)
	require.NoError(t, err)
	require.Len(t, kbs, 1)
	assert.Equal(t, "rain", kbs[0].Name)

	runs, err := client.Runs(ctx, "rain", 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, report.OutcomeNotDerivable, runs[0].Outcome)
}

func TestErrorCodes(t *testing.T) {
	client, ctx := connect(t)

	_, err := client.Load(ctx, "bad", "A(x) ^ B(x).")
	assert.Equal(t, int64(jsonrpc2.CodeInvalidParams), rpcCode(t, err))

	_, err = client.Ask(ctx, "missing", "Wet(today)")
	assert.Equal(t, CodeNotFound, rpcCode(t, err))

	err = client.conn.Call(ctx, "kb/forget", nil, nil)
	assert.Equal(t, int64(jsonrpc2.CodeMethodNotFound), rpcCode(t, err))

	err = client.conn.Call(ctx, MethodAsk, []int{1, 2}, nil)
	assert.Equal(t, int64(jsonrpc2.CodeInvalidParams), rpcCode(t, err))
}
