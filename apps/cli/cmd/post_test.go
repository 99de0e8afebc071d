package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/abdul-hamid-achik/jsonpost/packages/core/config"
	"github.com/abdul-hamid-achik/jsonpost/packages/http"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"method":%q,"token":%q,"contentType":%q,"echo":%s}`,
			r.Method, r.Header.Get("X-Token"), r.Header.Get("Content-Type"), body)
	}))
	t.Cleanup(server.Close)
	return server
}

func executePost(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newPostCmd()
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func exitCode(t *testing.T, err error) int {
	t.Helper()
	var exitErr *exitError
	require.True(t, errors.As(err, &exitErr), "expected exitError, got %v", err)
	return exitErr.code
}

func decode(t *testing.T, out string) map[string]any {
	t.Helper()
	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got), out)
	return got
}

func echoed(t *testing.T, out string) map[string]any {
	t.Helper()
	body, ok := decode(t, out)["body"].(map[string]any)
	require.True(t, ok, out)
	return body
}

func TestPost_JSONOutput(t *testing.T) {
	server := echoServer(t)

	out, _, err := executePost(t, server.URL, "-d", `{"n":1}`, "-H", "X-Token: abc", "-o", "json")
	require.NoError(t, err)

	got := decode(t, out)
	assert.Equal(t, float64(200), got["statusCode"])
	assert.Equal(t, map[string]any{
		"method":      "POST",
		"token":       "abc",
		"contentType": "application/json",
		"echo":        map[string]any{"n": float64(1)},
	}, got["body"])
}

func TestPost_RestyEngine(t *testing.T) {
	server := echoServer(t)

	out, _, err := executePost(t, server.URL, "-d", `[1,2]`, "--engine", "resty", "-o", "json")
	require.NoError(t, err)
	assert.Equal(t, []any{float64(1), float64(2)}, echoed(t, out)["echo"])
}

func TestPost_DataFileFromStdin(t *testing.T) {
	server := echoServer(t)

	cmd := newPostCmd()
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true
	var stdout bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(io.Discard)
	cmd.SetIn(bytes.NewBufferString(`{"from":"stdin"}`))
	cmd.SetArgs([]string{server.URL, "--data-file", "-", "-o", "json"})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, map[string]any{"from": "stdin"}, echoed(t, stdout.String())["echo"])
}

func TestPost_Stream(t *testing.T) {
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		_, _ = w.Write([]byte("not json, streamed as-is"))
	}))
	defer server.Close()

	out, summary, err := executePost(t, server.URL, "--stream", "-o", "json")
	require.NoError(t, err)
	assert.Equal(t, "not json, streamed as-is", out)
	assert.Equal(t, "stream", decode(t, summary)["mode"])
}

func TestPost_ExitCodes(t *testing.T) {
	status := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.WriteHeader(nethttp.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"boom"}`))
	}))
	defer status.Close()

	text := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		_, _ = w.Write([]byte("plain text"))
	}))
	defer text.Close()

	slow := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer slow.Close()

	tests := []struct {
		name string
		args []string
		want int
	}{
		{"status", []string{status.URL, "-o", "json"}, ExitStatusError},
		{"not json", []string{text.URL, "-o", "json"}, ExitParseError},
		{"timeout", []string{slow.URL, "--timeout", "50ms", "-o", "json"}, ExitTimeout},
		{"invalid url", []string{"ftp://example.test", "-o", "json"}, ExitConfigError},
		{"invalid body", []string{text.URL, "-d", "{nope", "-o", "json"}, ExitConfigError},
		{"bad header", []string{text.URL, "-H", "no-colon"}, ExitUsageError},
		{"data conflict", []string{text.URL, "-d", "{}", "--data-file", "x.json"}, ExitUsageError},
		{"bad engine", []string{text.URL, "--engine", "curl"}, ExitConfigError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := executePost(t, tt.args...)
			require.Error(t, err)
			assert.Equal(t, tt.want, exitCode(t, err))
		})
	}
}

func TestPost_NoParse(t *testing.T) {
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		_, _ = w.Write([]byte("plain text"))
	}))
	defer server.Close()

	out, _, err := executePost(t, server.URL, "--no-parse", "-o", "json")
	require.NoError(t, err)
	assert.Equal(t, "plain text", decode(t, out)["body"])
}

func TestPost_Schema(t *testing.T) {
	server := echoServer(t)
	schema := filepath.Join(t.TempDir(), "schema.json")
	require.NoError(t, os.WriteFile(schema, []byte(`{
		"type": "object",
		"required": ["echo"],
		"properties": {"echo": {"type": "object", "required": ["id"]}}
	}`), 0644))

	_, _, err := executePost(t, server.URL, "-d", `{"id":1}`, "--schema", schema, "-o", "json")
	require.NoError(t, err)

	out, _, err := executePost(t, server.URL, "-d", `{"name":"x"}`, "--schema", schema, "-o", "json")
	require.Error(t, err)
	assert.Equal(t, ExitParseError, exitCode(t, err))
	assert.Equal(t, "schema", decode(t, out)["kind"])
}

func TestPost_ConfigHeadersAndEnvFile(t *testing.T) {
	server := echoServer(t)
	dir := t.TempDir()

	envFile := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte("JSONPOST_TEST_TOKEN=from-dotenv\n"), 0644))
	t.Setenv("JSONPOST_TEST_TOKEN", "")
	require.NoError(t, os.Unsetenv("JSONPOST_TEST_TOKEN"))

	cfgFile := filepath.Join(dir, "jsonpost.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte("output: json\nheaders:\n  X-Token: ${JSONPOST_TEST_TOKEN}\n"), 0644))

	out, _, err := executePost(t, server.URL, "-d", "{}", "--config", cfgFile, "--env-file", envFile)
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", echoed(t, out)["token"])
}

func TestExitCodeFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{&http.ConfigError{Op: "bind", Err: errors.New("bad")}, ExitConfigError},
		{&http.SerializationError{Err: errors.New("bad")}, ExitConfigError},
		{&http.TimeoutError{URL: "u"}, ExitTimeout},
		{&http.TransferError{URL: "u", Err: errors.New("refused")}, ExitNetworkError},
		{&http.HTTPStatusError{StatusCode: 404}, ExitStatusError},
		{&http.ResponseParseError{Err: errors.New("bad")}, ExitParseError},
		{&http.SchemaError{}, ExitParseError},
		{http.ErrAlreadyExecuted, ExitUsageError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, exitCodeFor(tt.err), "%v", tt.err)
	}
}

func TestWriteDefaultConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".jsonpost.yaml")
	cmd := &cobra.Command{}
	cmd.SetOut(io.Discard)

	require.NoError(t, writeDefaultConfig(cmd, dir))

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)
	assert.True(t, cfg.IsDefault())

	// A file that still holds the defaults is rewritten without --force.
	require.NoError(t, writeDefaultConfig(cmd, dir))

	require.NoError(t, os.WriteFile(path, []byte("timeout: 5000\n"), 0644))
	err = writeDefaultConfig(cmd, dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "custom settings")

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "timeout: 5000\n", string(content))

	forceInit = true
	t.Cleanup(func() { forceInit = false })
	require.NoError(t, writeDefaultConfig(cmd, dir))

	cfg, err = config.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 30000, cfg.Timeout)
}

func TestPost_FlagHeaderOverridesConfigHeader(t *testing.T) {
	server := echoServer(t)

	// viper lower-cases the config key to "x-token"; the flag spelling differs.
	cfgFile := filepath.Join(t.TempDir(), "jsonpost.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte("output: json\nheaders:\n  X-Token: from-config\n"), 0644))

	for i := 0; i < 20; i++ {
		out, _, err := executePost(t, server.URL, "-d", "{}", "--config", cfgFile, "-H", "X-Token: from-flag")
		require.NoError(t, err)
		require.Equal(t, "from-flag", echoed(t, out)["token"], "attempt %d", i)
	}
}
