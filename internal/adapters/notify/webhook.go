package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/qirune/anyrouter-checkin/internal/domain"
)

const (
	pushPlusURL   = "https://www.pushplus.plus/send"
	serverChanURL = "https://sctapi.ftqq.com/%s.send"
)

func newWebhookClient() *resty.Client {
	return resty.New().SetTimeout(30 * time.Second)
}

func postJSON(ctx context.Context, client *resty.Client, url string, payload any) error {
	resp, err := client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(payload).
		Post(url)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode(), domain.Truncate(resp.String(), 200))
	}
	return nil
}

// textMessage is the text payload shared by the DingTalk and WeCom robot
// webhook APIs.
type textMessage struct {
	MsgType string      `json:"msgtype"`
	Text    textContent `json:"text"`
}

type textContent struct {
	Content string `json:"content"`
}

type PushPlus struct {
	token  string
	url    string
	client *resty.Client
}

func NewPushPlus(token string) *PushPlus {
	return &PushPlus{token: token, url: pushPlusURL, client: newWebhookClient()}
}

func (p *PushPlus) Name() string { return "pushplus" }

func (p *PushPlus) Send(ctx context.Context, title, content string) error {
	payload := map[string]string{
		"token":    p.token,
		"title":    title,
		"content":  content,
		"template": "html",
	}
	return postJSON(ctx, p.client, p.url, payload)
}

type ServerChan struct {
	url    string
	client *resty.Client
}

func NewServerChan(key string) *ServerChan {
	return &ServerChan{url: fmt.Sprintf(serverChanURL, key), client: newWebhookClient()}
}

func (s *ServerChan) Name() string { return "serverchan" }

func (s *ServerChan) Send(ctx context.Context, title, content string) error {
	payload := map[string]string{"title": title, "desp": content}
	return postJSON(ctx, s.client, s.url, payload)
}

type DingTalk struct {
	url    string
	client *resty.Client
}

func NewDingTalk(webhook string) *DingTalk {
	return &DingTalk{url: webhook, client: newWebhookClient()}
}

func (d *DingTalk) Name() string { return "dingtalk" }

func (d *DingTalk) Send(ctx context.Context, title, content string) error {
	payload := textMessage{MsgType: "text", Text: textContent{Content: title + "\n" + content}}
	return postJSON(ctx, d.client, d.url, payload)
}

type WeCom struct {
	url    string
	client *resty.Client
}

func NewWeCom(webhook string) *WeCom {
	return &WeCom{url: webhook, client: newWebhookClient()}
}

func (w *WeCom) Name() string { return "wecom" }

func (w *WeCom) Send(ctx context.Context, title, content string) error {
	payload := textMessage{MsgType: "text", Text: textContent{Content: title + "\n" + content}}
	return postJSON(ctx, w.client, w.url, payload)
}

type Feishu struct {
	url    string
	client *resty.Client
}

func NewFeishu(webhook string) *Feishu {
	return &Feishu{url: webhook, client: newWebhookClient()}
}

func (f *Feishu) Name() string { return "feishu" }

type feishuPayload struct {
	MsgType string     `json:"msg_type"`
	Card    feishuCard `json:"card"`
}

type feishuCard struct {
	Header   feishuHeader    `json:"header"`
	Elements []feishuElement `json:"elements"`
}

type feishuHeader struct {
	Title feishuText `json:"title"`
}

type feishuElement struct {
	Tag  string     `json:"tag"`
	Text feishuText `json:"text"`
}

type feishuText struct {
	Tag     string `json:"tag"`
	Content string `json:"content"`
}

func (f *Feishu) Send(ctx context.Context, title, content string) error {
	payload := feishuPayload{
		MsgType: "interactive",
		Card: feishuCard{
			Header: feishuHeader{Title: feishuText{Tag: "plain_text", Content: title}},
			Elements: []feishuElement{
				{Tag: "div", Text: feishuText{Tag: "lark_md", Content: content}},
			},
		},
	}
	return postJSON(ctx, f.client, f.url, payload)
}
