package helper

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"dashboard-cargo/internal/pkg/logger"

	"github.com/cenkalti/backoff/v4"
)

type MethodEnum string

const (
	GET    MethodEnum = "GET"
	POST   MethodEnum = "POST"
	PUT    MethodEnum = "PUT"
	PATCH  MethodEnum = "PATCH"
	DELETE MethodEnum = "DELETE"
)

func (m MethodEnum) ToString() string {
	switch m {
	case GET, POST, PUT, PATCH, DELETE:
		return string(m)
	}
	return ""
}

func (m MethodEnum) IsValid() bool {
	return m.ToString() != ""
}

// HTTPRequestPayload describes one outbound call. Idempotent opts a non-GET
// request into the retry policy; cost lookups set it, order writes never do.
type HTTPRequestPayload struct {
	Method     MethodEnum
	URL        string
	Body       interface{}
	Params     map[string]string
	Idempotent bool
}

type BasicAuth struct {
	Username string
	Password string
}

type HTTPRequestConfig struct {
	Ctx     context.Context
	Headers http.Header
	Auth    *BasicAuth
}

type HTTPAPIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	Data       interface{}
}

func (r *HTTPAPIResponse) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// TransientError is returned when a retryable request kept failing with a
// network error, a 5xx or a 429 until the retry budget ran out.
type TransientError struct {
	StatusCode int
	Attempts   int
	Err        error
}

func (e *TransientError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("upstream returned %d after %d attempts", e.StatusCode, e.Attempts)
	}
	return fmt.Sprintf("request failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

type RetryPolicy struct {
	MaxRetries uint64
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

type HTTPClientConfig struct {
	Timeout        time.Duration
	ProxyURL       string
	SkipTLSVerify  bool
	DefaultHeaders http.Header
	Retry          RetryPolicy
	Guard          *AuthGuard
}

// HTTPClient is the shared outbound client for the backend and courier endpoints.
type HTTPClient struct {
	Client  *http.Client
	Config  *HTTPClientConfig
	headers http.Header
}

func NewHTTPClient(cfg *HTTPClientConfig) *HTTPClient {
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout: 10 * time.Second,
		MaxIdleConnsPerHost: 32,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: cfg.SkipTLSVerify,
		},
	}

	if cfg.ProxyURL != "" {
		proxyURL, err := url.Parse(cfg.ProxyURL)
		if err != nil {
			logger.Error.Printf("Invalid proxy URL: %v", err)
		} else {
			transport.Proxy = http.ProxyURL(proxyURL)
			logger.Debug.Printf("Using proxy: %s", cfg.ProxyURL)
		}
	}

	headers := http.Header{}
	for key, values := range cfg.DefaultHeaders {
		headers[key] = append([]string(nil), values...)
	}

	return &HTTPClient{
		Client: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
		},
		Config:  cfg,
		headers: headers,
	}
}

// Do sends the request. Only GET and requests flagged Idempotent are retried.
// A non-2xx status is not an error here; callers inspect StatusCode.
func (h *HTTPClient) Do(payload *HTTPRequestPayload, config *HTTPRequestConfig) (*HTTPAPIResponse, error) {
	if config == nil {
		config = &HTTPRequestConfig{}
	}
	if config.Ctx == nil {
		config.Ctx = context.Background()
	}
	if !payload.Method.IsValid() {
		return nil, fmt.Errorf("unsupported http method %q", payload.Method)
	}

	body, contentType, err := handleRequestBody(payload)
	if err != nil {
		logger.Debug.Println("Error handling request body:", err.Error())
		return nil, err
	}

	if payload.Method != GET && !payload.Idempotent {
		return h.attempt(payload, body, contentType, config)
	}
	return h.doWithRetry(payload, body, contentType, config)
}

func (h *HTTPClient) doWithRetry(payload *HTTPRequestPayload, body []byte, contentType string, config *HTTPRequestConfig) (*HTTPAPIResponse, error) {
	var (
		last     *HTTPAPIResponse
		attempts int
	)

	operation := func() error {
		attempts++
		res, err := h.attempt(payload, body, contentType, config)
		if err != nil {
			if config.Ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			return err
		}
		last = res
		if isRetryableStatus(res.StatusCode) {
			return &TransientError{StatusCode: res.StatusCode, Attempts: attempts}
		}
		return nil
	}

	notify := func(err error, wait time.Duration) {
		logger.Warning.Printf("retrying %s %s in %s: %v", payload.Method, payload.URL, wait, err)
	}

	err := backoff.RetryNotify(operation, h.retryBackOff(config.Ctx), notify)
	if err == nil {
		return last, nil
	}

	var transient *TransientError
	if errors.As(err, &transient) {
		transient.Attempts = attempts
		return last, transient
	}
	if config.Ctx.Err() != nil {
		return last, err
	}
	return last, &TransientError{Attempts: attempts, Err: err}
}

func (h *HTTPClient) retryBackOff(ctx context.Context) backoff.BackOff {
	policy := h.Config.Retry
	exp := backoff.NewExponentialBackOff()
	if policy.BaseDelay > 0 {
		exp.InitialInterval = policy.BaseDelay
	}
	if policy.MaxDelay > 0 {
		exp.MaxInterval = policy.MaxDelay
	}
	exp.MaxElapsedTime = 0
	exp.Reset()

	return backoff.WithContext(backoff.WithMaxRetries(exp, policy.MaxRetries), ctx)
}

func (h *HTTPClient) attempt(payload *HTTPRequestPayload, body []byte, contentType string, config *HTTPRequestConfig) (*HTTPAPIResponse, error) {
	req, err := h.prepareRequest(payload, body, contentType, config)
	if err != nil {
		logger.Debug.Println("Error preparing request:", err.Error())
		return nil, err
	}
	return h.executeRequest(req)
}

func (h *HTTPClient) prepareRequest(payload *HTTPRequestPayload, body []byte, contentType string, config *HTTPRequestConfig) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(config.Ctx, payload.Method.ToString(), payload.URL, reader)
	if err != nil {
		return nil, err
	}

	for key, values := range h.headers {
		req.Header[key] = append(req.Header[key], values...)
	}
	for key, values := range config.Headers {
		req.Header.Del(key)
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	if contentType != "" && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	if config.Auth != nil {
		req.SetBasicAuth(config.Auth.Username, config.Auth.Password)
	}

	if len(payload.Params) > 0 {
		q := req.URL.Query()
		for key, value := range payload.Params {
			q.Add(key, value)
		}
		req.URL.RawQuery = q.Encode()
	}

	return req, nil
}

func (h *HTTPClient) executeRequest(req *http.Request) (*HTTPAPIResponse, error) {
	logger.Debug.Printf("Making request to: %s %s", req.Method, req.URL.String())

	resp, err := h.Client.Do(req)
	if err != nil {
		logger.Warning.Printf("request %s %s failed: %v", req.Method, req.URL.Host, err)
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, data, err := parseResponseBody(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if guard := h.Config.Guard; guard != nil {
		switch {
		case resp.StatusCode == http.StatusUnauthorized:
			guard.Trip()
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			guard.Clear()
		}
	}

	logger.Debug.Printf("Request completed with status: %d", resp.StatusCode)

	return &HTTPAPIResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       raw,
		Data:       data,
	}, nil
}

func handleRequestBody(payload *HTTPRequestPayload) ([]byte, string, error) {
	switch v := payload.Body.(type) {
	case nil:
		return nil, "", nil
	case []byte:
		return v, "application/json", nil
	case json.RawMessage:
		return v, "application/json", nil
	case string:
		return []byte(v), "text/plain", nil
	case url.Values:
		return []byte(v.Encode()), "application/x-www-form-urlencoded", nil
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, "", fmt.Errorf("failed to encode request body: %w", err)
		}
		return b, "application/json", nil
	}
}

func parseResponseBody(resp *http.Response) ([]byte, interface{}, error) {
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, err
	}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return raw, nil, nil
	}

	if strings.Contains(resp.Header.Get("Content-Type"), "json") || trimmed[0] == '{' || trimmed[0] == '[' {
		var data interface{}
		if err := json.Unmarshal(trimmed, &data); err == nil {
			return raw, data, nil
		}
	}
	return raw, string(raw), nil
}

func isRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

// IHTTPClient is what repositories depend on; tests swap in httptest servers
// behind a real HTTPClient or a stub.
type IHTTPClient interface {
	Do(payload *HTTPRequestPayload, config *HTTPRequestConfig) (*HTTPAPIResponse, error)
}
