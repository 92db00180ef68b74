package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureJSON(t *testing.T, body *map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(raw, body))
		_, _ = w.Write([]byte(`{"code":200}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestPushPlusSendsTokenAndContent(t *testing.T) {
	var body map[string]any
	srv := captureJSON(t, &body)

	ch := NewPushPlus("test-token")
	ch.url = srv.URL

	require.NoError(t, ch.Send(context.Background(), "title", "content"))
	assert.Equal(t, "test-token", body["token"])
	assert.Equal(t, "title", body["title"])
	assert.Equal(t, "content", body["content"])
}

func TestServerChanEmbedsKeyInURL(t *testing.T) {
	ch := NewServerChan("test-key")
	assert.Equal(t, "https://sctapi.ftqq.com/test-key.send", ch.url)

	var body map[string]any
	srv := captureJSON(t, &body)
	ch.url = srv.URL

	require.NoError(t, ch.Send(context.Background(), "title", "content"))
	assert.Equal(t, "title", body["title"])
	assert.Equal(t, "content", body["desp"])
}

func TestRobotChannelsSendTextPayload(t *testing.T) {
	tests := []struct {
		name    string
		channel func(url string) Channel
	}{
		{"dingtalk", func(url string) Channel { return NewDingTalk(url) }},
		{"wecom", func(url string) Channel { return NewWeCom(url) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body map[string]any
			srv := captureJSON(t, &body)

			ch := tt.channel(srv.URL)
			require.NoError(t, ch.Send(context.Background(), "title", "content"))

			assert.Equal(t, "text", body["msgtype"])
			text, ok := body["text"].(map[string]any)
			require.True(t, ok)
			assert.Equal(t, "title\ncontent", text["content"])
		})
	}
}

func TestFeishuSendsCardPayload(t *testing.T) {
	var body map[string]any
	srv := captureJSON(t, &body)

	ch := NewFeishu(srv.URL)
	require.NoError(t, ch.Send(context.Background(), "title", "content"))

	assert.Equal(t, "interactive", body["msg_type"])
	require.Contains(t, body, "card")

	card, ok := body["card"].(map[string]any)
	require.True(t, ok)
	header, ok := card["header"].(map[string]any)
	require.True(t, ok)
	title, ok := header["title"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "title", title["content"])
}

func TestWebhookHTTPErrorSurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "robot disabled", http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	ch := NewDingTalk(srv.URL)
	err := ch.Send(context.Background(), "title", "content")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 500")
	assert.Contains(t, err.Error(), "robot disabled")
}
