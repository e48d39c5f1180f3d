package lsp

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adeptlang/adept/internal/diag"
)

func frame(t *testing.T, method string, id int, params string) string {
	t.Helper()
	body := fmt.Sprintf(`{"jsonrpc":"2.0","id":%d,"method":%q`, id, method)
	if params != "" {
		body += `,"params":` + params
	}
	body += "}"
	return fmt.Sprintf("Content-Length: %d\r\n\r\n%s", len(body), body)
}

func notification(method string, params string) string {
	body := fmt.Sprintf(`{"jsonrpc":"2.0","method":%q`, method)
	if params != "" {
		body += `,"params":` + params
	}
	body += "}"
	return fmt.Sprintf("Content-Length: %d\r\n\r\n%s", len(body), body)
}

func TestFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteMessage(&buf, []byte(`{"x":1}`)))

	got, err := ReadMessage(bufio.NewReader(&buf))
	require.NoError(t, err)
	assert.Equal(t, `{"x":1}`, string(got))
}

func TestReadMessageMissingLength(t *testing.T) {
	_, err := ReadMessage(bufio.NewReader(strings.NewReader("X-Other: 1\r\n\r\n")))
	assert.Error(t, err)
}

func TestServeLifecycle(t *testing.T) {
	input := frame(t, "initialize", 1, "{}") +
		frame(t, "shutdown", 2, "") +
		notification("exit", "")

	s := NewServer(nil)
	var out bytes.Buffer
	code := s.Serve(strings.NewReader(input), &out)
	assert.Equal(t, 0, code, "shutdown then exit is an orderly stop")
	assert.Contains(t, out.String(), "capabilities")
}

func TestExitWithoutShutdownFails(t *testing.T) {
	s := NewServer(nil)
	var out bytes.Buffer
	code := s.Serve(strings.NewReader(notification("exit", "")), &out)
	assert.Equal(t, 1, code)
}

func TestDiagnosticsRoundTrip(t *testing.T) {
	diagnose := func(uri, text string, unblock ShouldUnblock) []*diag.Report {
		assert.Equal(t, "file:///a.adept", uri)
		assert.Equal(t, "func main {}", text)
		return []*diag.Report{
			diag.New(diag.SCP001, "scope", diag.Span{Path: "a.adept", Line: 3, Col: 5}, "x is not defined"),
		}
	}

	input := notification("textDocument/didChange",
		`{"textDocument":{"uri":"file:///a.adept"},"contentChanges":[{"text":"func main {}"}]}`) +
		frame(t, "textDocument/diagnostic", 1, `{"textDocument":{"uri":"file:///a.adept"}}`) +
		frame(t, "shutdown", 2, "") +
		notification("exit", "")

	s := NewServer(diagnose)
	var out bytes.Buffer
	code := s.Serve(strings.NewReader(input), &out)
	assert.Equal(t, 0, code)

	payload, err := ReadMessage(bufio.NewReader(&out))
	require.NoError(t, err)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(payload, &resp))
	result := resp["result"].(map[string]any)
	items := result["items"].([]any)
	require.Len(t, items, 1)
	item := items[0].(map[string]any)
	assert.Equal(t, "SCP001", item["code"])
}

func TestDeadlineTrips(t *testing.T) {
	unblock := Deadline(10 * time.Millisecond)
	assert.False(t, unblock())
	time.Sleep(20 * time.Millisecond)
	assert.True(t, unblock())
}
