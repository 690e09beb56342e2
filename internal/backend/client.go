package backend

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"hydratutor/internal/constants"
	"hydratutor/internal/logger"
	"hydratutor/internal/logging"
	"hydratutor/internal/utils"
)

type Options struct {
	BaseURL       string
	UID           string
	Timeout       time.Duration
	SkipTLSVerify bool
	HTTPClient    *http.Client
	Logger        *zap.Logger
	Transcript    *logger.Logger
	// Trace, when set, gets one line per exchange.
	Trace io.Writer
}

// Client talks to the tutor backend on behalf of one identity.
type Client struct {
	baseURL    string
	uid        string
	http       *http.Client
	log        *zap.Logger
	transcript *logger.Logger
	trace      io.Writer
}

func New(opts Options) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
		if opts.SkipTLSVerify {
			hc.Transport = &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
			}
		}
	}
	return &Client{
		baseURL:    strings.TrimSuffix(opts.BaseURL, "/"),
		uid:        opts.UID,
		http:       hc,
		log:        logging.OrNop(opts.Logger),
		transcript: opts.Transcript,
		trace:      opts.Trace,
	}
}

func (c *Client) UID() string {
	return c.uid
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// do performs one exchange and returns the raw body of a 2xx response.
func (c *Client) do(ctx context.Context, method, endpoint string, params url.Values) ([]byte, error) {
	if params == nil {
		params = url.Values{}
	}
	params.Set(constants.IdentityCookieName, c.uid)

	var (
		req *http.Request
		err error
	)
	target := c.baseURL + endpoint
	if method == http.MethodGet {
		req, err = http.NewRequestWithContext(ctx, method, target+"?"+params.Encode(), nil)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, target, strings.NewReader(params.Encode()))
		if req != nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	}
	if err != nil {
		return nil, &Error{Endpoint: endpoint, Err: err}
	}
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.AddCookie(&http.Cookie{Name: constants.IdentityCookieName, Value: c.uid})

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.transcript.LogError(method, endpoint, err)
		c.traceLine(method, 0, endpoint, time.Since(start))
		c.log.Debug("backend request failed", zap.String("endpoint", endpoint), zap.Error(err))
		return nil, &Error{Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, constants.MaxResponseSize))
	took := time.Since(start)
	c.transcript.LogExchange(method, endpoint, resp.StatusCode, len(body), took)
	c.traceLine(method, resp.StatusCode, endpoint, took)
	c.log.Debug("backend exchange",
		zap.String("method", method),
		zap.String("endpoint", endpoint),
		zap.Int("status", resp.StatusCode),
		zap.Int("size", len(body)),
		zap.Duration("took", took),
	)
	if err != nil {
		return nil, &Error{Endpoint: endpoint, Status: resp.StatusCode, Err: fmt.Errorf("failed to read body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &Error{Endpoint: endpoint, Status: resp.StatusCode, Body: string(bytes.TrimSpace(body))}
	}
	return body, nil
}

func (c *Client) traceLine(method string, status int, endpoint string, took time.Duration) {
	if c.trace == nil {
		return
	}
	fmt.Fprint(c.trace, utils.FormatLog("", method, status, endpoint+" "+utils.FormatDuration(took)))
}

// decode parses a JSON body; anything that is not the expected shape is the
// backend's error text.
func decode(endpoint string, body []byte, v any) error {
	if err := json.Unmarshal(body, v); err != nil {
		return &Error{Endpoint: endpoint, Status: http.StatusOK, Body: string(bytes.TrimSpace(body)), Err: err}
	}
	return nil
}

func text(endpoint string, body []byte) (string, error) {
	msg := string(bytes.TrimSpace(body))
	if isErrorText(msg) {
		return "", &Error{Endpoint: endpoint, Status: http.StatusOK, Body: msg}
	}
	return msg, nil
}
