package anyrouter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qirune/anyrouter-checkin/internal/config"
	"github.com/qirune/anyrouter-checkin/internal/domain"
)

func testRuntime(baseURL string) config.Runtime {
	return config.Runtime{
		BaseURL:    baseURL,
		UserAgent:  "test-agent/1.0",
		Timeout:    5 * time.Second,
		QuotaScale: 500000,
	}
}

func testAccount() domain.Account {
	return domain.Account{
		APIUser: "12345",
		Cookies: map[string]string{"session": "user-session-value"},
	}
}

func testWaf() domain.WafCookies {
	return domain.WafCookies{
		"acw_tc":     "tc-value",
		"cdn_sec_tc": "sec-value",
		"acw_sc__v2": "v2-value",
	}
}

func TestSessionSendsBrowserProfileHeaders(t *testing.T) {
	var got http.Header
	var cookies []*http.Cookie
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		cookies = r.Cookies()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"data":{"quota":0,"used_quota":0}}`))
	}))
	defer srv.Close()

	gw, err := NewGateway(testRuntime(srv.URL))
	require.NoError(t, err)

	sess, err := gw.NewSession(testAccount(), testWaf())
	require.NoError(t, err)

	_, err = sess.FetchUserInfo(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "test-agent/1.0", got.Get("User-Agent"))
	assert.Equal(t, "application/json, text/plain, */*", got.Get("Accept"))
	assert.Equal(t, "zh-CN,zh;q=0.9,en;q=0.8", got.Get("Accept-Language"))
	assert.Equal(t, "gzip", got.Get("Accept-Encoding"))
	assert.Equal(t, srv.URL+"/console", got.Get("Referer"))
	assert.Equal(t, srv.URL, got.Get("Origin"))
	assert.Equal(t, "empty", got.Get("Sec-Fetch-Dest"))
	assert.Equal(t, "cors", got.Get("Sec-Fetch-Mode"))
	assert.Equal(t, "same-origin", got.Get("Sec-Fetch-Site"))
	assert.Equal(t, "12345", got.Get("new-api-user"))

	byName := make(map[string]string, len(cookies))
	for _, c := range cookies {
		byName[c.Name] = c.Value
	}
	assert.Equal(t, "user-session-value", byName["session"])
	assert.Equal(t, "tc-value", byName["acw_tc"])
	assert.Equal(t, "sec-value", byName["cdn_sec_tc"])
	assert.Equal(t, "v2-value", byName["acw_sc__v2"])
}

func TestSessionAccountCookieWinsOverWaf(t *testing.T) {
	var cookies []*http.Cookie
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookies = r.Cookies()
		_, _ = w.Write([]byte(`{"success":true,"data":{}}`))
	}))
	defer srv.Close()

	gw, err := NewGateway(testRuntime(srv.URL))
	require.NoError(t, err)

	account := domain.Account{
		APIUser: "1",
		Cookies: map[string]string{"acw_tc": "from-account"},
	}
	waf := domain.WafCookies{"acw_tc": "from-waf"}

	sess, err := gw.NewSession(account, waf)
	require.NoError(t, err)

	_, err = sess.FetchUserInfo(context.Background())
	require.NoError(t, err)

	require.Len(t, cookies, 1)
	assert.Equal(t, "acw_tc", cookies[0].Name)
	assert.Equal(t, "from-account", cookies[0].Value)
}

func TestSessionsDoNotShareCookies(t *testing.T) {
	seen := make(chan string, 2)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		names := ""
		for _, c := range r.Cookies() {
			names += c.Name + "=" + c.Value + ";"
		}
		seen <- names
		_, _ = w.Write([]byte(`{"success":true,"data":{}}`))
	}))
	defer srv.Close()

	gw, err := NewGateway(testRuntime(srv.URL))
	require.NoError(t, err)

	first, err := gw.NewSession(domain.Account{APIUser: "1", Cookies: map[string]string{"who": "alpha"}}, nil)
	require.NoError(t, err)
	second, err := gw.NewSession(domain.Account{APIUser: "2", Cookies: map[string]string{"who": "beta"}}, nil)
	require.NoError(t, err)

	_, err = first.FetchUserInfo(context.Background())
	require.NoError(t, err)
	_, err = second.FetchUserInfo(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "who=alpha;", <-seen)
	assert.Equal(t, "who=beta;", <-seen)
}

func TestFetchUserInfoScalesQuota(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/user/self", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"data":{"quota":5000000,"used_quota":1234567}}`))
	}))
	defer srv.Close()

	gw, err := NewGateway(testRuntime(srv.URL))
	require.NoError(t, err)
	sess, err := gw.NewSession(testAccount(), testWaf())
	require.NoError(t, err)

	snapshot, err := sess.FetchUserInfo(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 10.0, snapshot.Quota, 1e-9)
	assert.InDelta(t, 2.47, snapshot.UsedQuota, 1e-9)
}

func TestFetchUserInfoFailures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{"http error", http.StatusBadGateway, "bad gateway", "HTTP 502"},
		{"malformed body", http.StatusOK, "<html>", "decode response"},
		{"rejected", http.StatusOK, `{"success":false}`, "request rejected"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			gw, err := NewGateway(testRuntime(srv.URL))
			require.NoError(t, err)
			sess, err := gw.NewSession(testAccount(), testWaf())
			require.NoError(t, err)

			_, err = sess.FetchUserInfo(context.Background())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSignInSendsJSONMarkers(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/user/sign_in", r.URL.Path)
		got = r.Header.Clone()
		_, _ = w.Write([]byte(`{"ret":1}`))
	}))
	defer srv.Close()

	gw, err := NewGateway(testRuntime(srv.URL))
	require.NoError(t, err)
	sess, err := gw.NewSession(testAccount(), testWaf())
	require.NoError(t, err)

	verdict, err := sess.SignIn(context.Background())
	require.NoError(t, err)
	assert.True(t, verdict.Success)
	assert.Equal(t, "application/json", got.Get("Content-Type"))
	assert.Equal(t, "XMLHttpRequest", got.Get("X-Requested-With"))
	assert.Equal(t, "12345", got.Get("new-api-user"))
}

func TestSignInTransportErrorIsReturned(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	gw, err := NewGateway(testRuntime(srv.URL))
	require.NoError(t, err)
	sess, err := gw.NewSession(testAccount(), testWaf())
	require.NoError(t, err)
	srv.Close()

	_, err = sess.SignIn(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sign in")
}

func TestNewGatewayRejectsBadBaseURL(t *testing.T) {
	_, err := NewGateway(testRuntime("://not-a-url"))
	require.Error(t, err)
}
