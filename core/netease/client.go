package netease

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"TemplePlayer/logger"
)

// Client 网易云音乐API客户端
// It talks to a NeteaseCloudMusicApi compatible server.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient 创建新的API客户端
func NewClient() *Client {
	return &Client{
		BaseURL: "http://localhost:3000",
		HTTPClient: &http.Client{
			Timeout: time.Second * 10,
		},
	}
}

// SetBaseURL 设置API基础URL
func (c *Client) SetBaseURL(url string) {
	c.BaseURL = strings.TrimRight(url, "/")
}

// SetTimeout 设置请求超时时间
func (c *Client) SetTimeout(timeout time.Duration) {
	c.HTTPClient.Timeout = timeout
}

// CodeNeedLogin is the API code returned when the call needs a logged-in cookie.
const CodeNeedLogin = 301

// APIError is a well-formed response whose "code" is not 200.
type APIError struct {
	Code int
	Msg  string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("netease api error: %s (code: %d)", e.Msg, e.Code)
}

// TransportError covers failed requests and non-200 HTTP statuses.
type TransportError struct {
	StatusCode int // 0 when the request itself failed
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("netease api returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("netease request failed: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ErrNotFound is returned when the API answers but has no such song.
var ErrNotFound = errors.New("netease: song not found")

func (c *Client) createRequest(ctx context.Context, method, url string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, fmt.Errorf("创建请求失败: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	// 设置cookie确保返回正常码率的url
	req.AddCookie(&http.Cookie{Name: "os", Value: "pc"})
	return req, nil
}

// getJSON performs a GET and decodes the body into out, checking the API code.
func (c *Client) getJSON(ctx context.Context, tag, url string, out interface{ apiCode() (int, string) }) error {
	req, err := c.createRequest(ctx, http.MethodGet, url)
	if err != nil {
		return err
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		logger.Warn(tag+" 请求失败", logger.String("url", url), logger.ErrorField(err))
		return &TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		logger.Warn(tag+" 服务器返回错误状态码", logger.Int("status", resp.StatusCode))
		return &TransportError{StatusCode: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &TransportError{Err: fmt.Errorf("解析响应失败: %w", err)}
	}

	if code, msg := out.apiCode(); code != http.StatusOK {
		logger.Warn(tag+" API返回错误", logger.Int("code", code), logger.String("msg", msg))
		return &APIError{Code: code, Msg: msg}
	}
	return nil
}

type apiStatus struct {
	Code int    `json:"code"`
	Msg  string `json:"msg,omitempty"`
}

func (s apiStatus) apiCode() (int, string) { return s.Code, s.Msg }
