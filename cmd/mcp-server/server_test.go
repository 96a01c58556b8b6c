package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/njchilds90/symbind"
	"github.com/njchilds90/symbind/internal/logging"
	"github.com/njchilds90/symbind/internal/metrics"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupTestRouter(maxBody int64) *gin.Engine {
	h := symbind.NewToolHandler(symbind.Standard(), symbind.WithObserver(metrics.ObserveTool))
	return newRouter(h, logging.Discard(), maxBody)
}

func post(t *testing.T, r http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, "/tool", strings.NewReader(body))
	require.NoError(t, err)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestTool_Simplify(t *testing.T) {
	r := setupTestRouter(1 << 20)
	w := post(t, r, `{"tool":"simplify","params":{"expr":
		{"kind":"apply","function":"add","args":[{"kind":"constant","value":2},{"kind":"constant","value":2}]}}}`)

	require.Equal(t, http.StatusOK, w.Code)
	var resp symbind.ToolResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Empty(t, resp.Error)
	assert.Equal(t, "4", resp.String)
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))
}

func TestTool_ToolErrorIsReportedInBody(t *testing.T) {
	r := setupTestRouter(1 << 20)
	w := post(t, r, `{"tool":"frobnicate","params":{}}`)

	require.Equal(t, http.StatusOK, w.Code)
	var resp symbind.ToolResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp.Error, "unknown tool")
}

func TestTool_BadRequests(t *testing.T) {
	cases := []struct {
		name   string
		body   string
		status int
	}{
		{"malformed", `{"tool":`, http.StatusBadRequest},
		{"unknown field", `{"tool":"simplify","extra":1}`, http.StatusBadRequest},
		{"trailing data", `{"tool":"schema"} {}`, http.StatusBadRequest},
	}
	r := setupTestRouter(1 << 20)
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			w := post(t, r, c.body)
			assert.Equal(t, c.status, w.Code)
		})
	}
}

func TestTool_BodyTooLarge(t *testing.T) {
	r := setupTestRouter(64)
	body := `{"tool":"names","params":{"prefix":"` + strings.Repeat("a", 200) + `"}}`
	w := post(t, r, body)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestRequestIDIsPropagated(t *testing.T) {
	r := setupTestRouter(1 << 20)
	req, err := http.NewRequest(http.MethodGet, "/health", nil)
	require.NoError(t, err)
	req.Header.Set(requestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "abc-123", w.Header().Get(requestIDHeader))
}

func TestSchemaAndMetrics(t *testing.T) {
	r := setupTestRouter(1 << 20)

	// One tool call so the metric family exists.
	post(t, r, `{"tool":"names","params":{"prefix":"si"}}`)

	req, _ := http.NewRequest(http.MethodGet, "/schema", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	var schema map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &schema))
	assert.Len(t, schema["tools"], 8)

	req, _ = http.NewRequest(http.MethodGet, "/metrics", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, bytes.Contains(w.Body.Bytes(), []byte("symbind_tool_calls_total")))
}
