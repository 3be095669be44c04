package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mcp "github.com/SomSamantray/calcufy-calculator"
	"github.com/SomSamantray/calcufy-calculator/config"
	"github.com/SomSamantray/calcufy-calculator/widget"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewServerRemoteAssets(t *testing.T) {
	cfg := config.Default()
	cfg.BaseURL = "https://widgets.example.com"

	server, err := newServer(cfg, discardLogger())
	require.NoError(t, err)
	assert.Equal(t, "calcufy-calculator", server.Name())
	assert.Equal(t, "1.0.0", server.Version())
	require.Len(t, server.Tools(), 1)
	require.Len(t, server.Resources(), 3)

	response := server.HandleMessage(context.Background(),
		[]byte(`{"jsonrpc":"2.0","id":1,"method":"resources/read","params":{"uri":"ui://widget/number-input.html"}}`))
	require.NotNil(t, response)
	require.Nil(t, response.Error)

	result := response.Result.(mcp.ReadResourceResult)
	require.Len(t, result.Contents, 1)
	assert.Contains(t, result.Contents[0].Text, "https://widgets.example.com/widgets/number-input.js")
}

func TestNewServerLocalAssets(t *testing.T) {
	dir := t.TempDir()
	for _, spec := range widget.DefaultSpecs() {
		require.NoError(t, os.WriteFile(filepath.Join(dir, spec.Name+".html"), []byte("<p>"+spec.Title+"</p>"), 0o600))
	}

	cfg := config.Default()
	cfg.AssetSource = config.AssetsLocal
	cfg.AssetsDir = dir

	server, err := newServer(cfg, discardLogger())
	require.NoError(t, err)

	response := server.HandleMessage(context.Background(),
		[]byte(`{"jsonrpc":"2.0","id":"a","method":"resources/read","params":{"uri":"ui://widget/result-display.html"}}`))
	require.NotNil(t, response)
	require.Nil(t, response.Error)
	assert.Equal(t, "<p>Result Display</p>", response.Result.(mcp.ReadResourceResult).Contents[0].Text)
}

func TestNewServerMissingLocalAsset(t *testing.T) {
	cfg := config.Default()
	cfg.AssetSource = config.AssetsLocal
	cfg.AssetsDir = t.TempDir()

	_, err := newServer(cfg, discardLogger())
	assert.ErrorIs(t, err, widget.ErrWidgetNotFound)
}

func TestNewServerInitialize(t *testing.T) {
	server, err := newServer(config.Default(), discardLogger())
	require.NoError(t, err)

	response := server.HandleMessage(context.Background(), []byte(`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}`))
	require.NotNil(t, response)

	data, err := json.Marshal(response.Result)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"protocolVersion": "2024-11-05",
		"capabilities": {"tools": {}, "resources": {}},
		"serverInfo": {"name": "calcufy-calculator", "version": "1.0.0"}
	}`, string(data))
}

func TestWebConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Host = "127.0.0.1"
	cfg.Port = 9000
	cfg.AuthToken = "token"
	cfg.CORS = false
	cfg.MaxRequestBytes = 512

	web := webConfig(cfg)
	assert.Equal(t, "127.0.0.1", web.Host)
	assert.Equal(t, 9000, web.Port)
	assert.Equal(t, "token", web.AuthToken)
	assert.False(t, web.EnableCORS)
	assert.Equal(t, int64(512), web.MaxRequestSize)
}

func TestRunStopsStdioWhenHTTPBindFails(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()

	cfg := config.Default()
	cfg.Transport = config.TransportAll
	cfg.Host = "127.0.0.1"
	cfg.Port = listener.Addr().(*net.TCPAddr).Port

	server, err := newServer(cfg, discardLogger())
	require.NoError(t, err)

	// stdin never closes, so only the HTTP failure can end run
	stdin, stdinWriter := io.Pipe()
	defer stdinWriter.Close()

	code := make(chan int, 1)
	go func() {
		code <- run(cfg, server, discardLogger(), stdin, io.Discard)
	}()

	select {
	case got := <-code:
		assert.Equal(t, 1, got)
	case <-time.After(5 * time.Second):
		t.Fatal("run did not return after the HTTP listener failed to bind")
	}
}

func TestRunReturnsWhenStdinCloses(t *testing.T) {
	cfg := config.Default()
	cfg.Transport = config.TransportStdio

	server, err := newServer(cfg, discardLogger())
	require.NoError(t, err)

	stdin := strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"ping"}` + "\n")
	var stdout strings.Builder

	assert.Equal(t, 0, run(cfg, server, discardLogger(), stdin, &stdout))
	assert.JSONEq(t, `{"jsonrpc":"2.0","id":1,"result":{}}`, strings.TrimSpace(stdout.String()))
}
