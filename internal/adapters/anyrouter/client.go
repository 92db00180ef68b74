// Package anyrouter implements the check-in gateway against the AnyRouter
// API. Every session carries its own cookie jar so concurrent accounts can
// never observe each other's cookies; the underlying TCP/TLS transport is
// shared across sessions.
package anyrouter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sort"
	"time"

	"golang.org/x/net/publicsuffix"

	"github.com/go-resty/resty/v2"

	"github.com/qirune/anyrouter-checkin/internal/config"
	"github.com/qirune/anyrouter-checkin/internal/domain"
	"github.com/qirune/anyrouter-checkin/internal/ports"
)

const (
	userSelfPath = "/api/user/self"
	signInPath   = "/api/user/sign_in"
)

// checkinHeaders are layered on top of the session headers for the sign-in
// POST only.
var checkinHeaders = map[string]string{
	"Content-Type":     "application/json",
	"X-Requested-With": "XMLHttpRequest",
}

// Gateway builds per-account API sessions. All sessions share one transport;
// cookie state lives in the session, never in the transport.
type Gateway struct {
	baseURL    *url.URL
	userAgent  string
	timeout    time.Duration
	quotaScale float64
	transport  http.RoundTripper
}

func NewGateway(cfg config.Runtime) (*Gateway, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConnsPerHost = 16

	return &Gateway{
		baseURL:    base,
		userAgent:  cfg.UserAgent,
		timeout:    cfg.Timeout,
		quotaScale: cfg.QuotaScale,
		transport:  transport,
	}, nil
}

// NewSession fuses the harvested anti-bot cookies with the account's own
// session cookies (account wins on name collision) into a fresh jar and
// returns a session bound to it.
func (g *Gateway) NewSession(account domain.Account, waf domain.WafCookies) (ports.CheckinSession, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	fused := make(map[string]string, len(waf)+len(account.Cookies))
	for name, value := range waf {
		fused[name] = value
	}
	for name, value := range account.Cookies {
		fused[name] = value
	}

	names := make([]string, 0, len(fused))
	for name := range fused {
		names = append(names, name)
	}
	sort.Strings(names)

	cookies := make([]*http.Cookie, 0, len(names))
	for _, name := range names {
		cookies = append(cookies, &http.Cookie{Name: name, Value: fused[name], Path: "/"})
	}
	jar.SetCookies(g.baseURL, cookies)

	httpClient := &http.Client{
		Transport: g.transport,
		Jar:       jar,
		Timeout:   g.timeout,
	}

	client := resty.NewWithClient(httpClient).
		SetBaseURL(g.baseURL.String()).
		SetHeaders(map[string]string{
			"User-Agent":      g.userAgent,
			"Accept":          "application/json, text/plain, */*",
			"Accept-Language": "zh-CN,zh;q=0.9,en;q=0.8",
			"Accept-Encoding": "gzip",
			"Referer":         g.baseURL.String() + "/console",
			"Origin":          g.baseURL.String(),
			"Sec-Fetch-Dest":  "empty",
			"Sec-Fetch-Mode":  "cors",
			"Sec-Fetch-Site":  "same-origin",
			"new-api-user":    account.APIUser,
		})

	return &session{client: client, quotaScale: g.quotaScale}, nil
}

type session struct {
	client     *resty.Client
	quotaScale float64
}

type userSelfResponse struct {
	Success bool `json:"success"`
	Data    struct {
		Quota     float64 `json:"quota"`
		UsedQuota float64 `json:"used_quota"`
	} `json:"data"`
}

// FetchUserInfo reads the account balance from the user-info endpoint. Any
// failure is reported as an error; callers treat it as a missing snapshot,
// not a fatal condition.
func (s *session) FetchUserInfo(ctx context.Context) (domain.BalanceSnapshot, error) {
	resp, err := s.client.R().SetContext(ctx).Get(userSelfPath)
	if err != nil {
		return domain.BalanceSnapshot{}, fmt.Errorf("fetch user info: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return domain.BalanceSnapshot{}, fmt.Errorf("fetch user info: HTTP %d", resp.StatusCode())
	}

	var body userSelfResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return domain.BalanceSnapshot{}, fmt.Errorf("fetch user info: decode response: %w", err)
	}
	if !body.Success {
		return domain.BalanceSnapshot{}, fmt.Errorf("fetch user info: request rejected")
	}

	return domain.NewBalanceSnapshot(body.Data.Quota, body.Data.UsedQuota, s.quotaScale), nil
}

// SignIn posts the check-in request. A non-nil error means the request never
// produced an HTTP response and is eligible for retry; everything else is
// folded into the verdict.
func (s *session) SignIn(ctx context.Context) (domain.APIVerdict, error) {
	resp, err := s.client.R().SetContext(ctx).SetHeaders(checkinHeaders).Post(signInPath)
	if err != nil {
		return domain.APIVerdict{}, fmt.Errorf("sign in: %w", err)
	}
	return ParseVerdict(resp.StatusCode(), resp.Body()), nil
}
