package tumblr

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	apperrors "tumblrlikes/pkg/errors"
	"tumblrlikes/pkg/logger"
	"tumblrlikes/pkg/ratelimit"
)

// Client issues requests against the likes API
type Client struct {
	httpClient *http.Client
	headers    map[string]string
	baseURL    string
	apiKey     string
	limiter    ratelimit.Limiter
	logger     logger.Logger
}

// NewClient creates a new likes API client
func NewClient(apiKey string, timeout time.Duration, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		headers: map[string]string{
			"User-Agent": "tumblrlikes/1.0",
			"Accept":     "application/json",
		},
		baseURL: BaseURL,
		apiKey:  apiKey,
		limiter: ratelimit.Unlimited{},
		logger:  log,
	}
}

// SetBaseURL points the client at another API root
func (c *Client) SetBaseURL(baseURL string) {
	c.baseURL = baseURL
}

// SetLimiter paces every API request through l
func (c *Client) SetLimiter(l ratelimit.Limiter) {
	c.limiter = l
}

// SetHeader sets a custom header for the client
func (c *Client) SetHeader(key, value string) {
	c.headers[key] = value
}

// FetchLikes requests one page of blog's likes
func (c *Client) FetchLikes(ctx context.Context, blog string, limit int, before *string) (*LikesResponse, error) {
	url := LikesURL(c.baseURL, blog, c.apiKey, limit, before)

	fields := map[string]interface{}{
		"blog":  blog,
		"limit": limit,
	}
	if before != nil {
		fields["before"] = *before
	}
	c.logger.DebugWithFields("fetching likes page", fields)

	var envelope LikesEnvelope
	if err := c.GetJSON(ctx, url, &envelope); err != nil {
		return nil, err
	}
	return &envelope.Response, nil
}

// GetJSON performs a rate-limited GET and decodes the JSON body into target
func (c *Client) GetJSON(ctx context.Context, url string, target interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return apperrors.Remote("build request", 0, err)
	}
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.logger.WithError(err).Error("likes request failed")
		return apperrors.Transfer("fetch likes", err)
	}
	defer resp.Body.Close()

	logger.LogRequest(c.logger, req.Method, redact(req), resp.StatusCode, time.Since(start))

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperrors.Transfer("read likes response", err)
	}

	if err := c.checkResponseStatus(resp, body); err != nil {
		return err
	}

	if err := json.Unmarshal(body, target); err != nil {
		bodyPreview := string(body)
		if len(bodyPreview) > 200 {
			bodyPreview = bodyPreview[:200] + "..."
		}
		c.logger.ErrorWithFields("failed to parse JSON response", map[string]interface{}{
			"status":       resp.StatusCode,
			"error":        err.Error(),
			"body_preview": bodyPreview,
		})
		return apperrors.Remote("decode likes response", resp.StatusCode, err)
	}

	return nil
}

// checkResponseStatus turns any non-2xx status into a remote error, using the
// API's meta message when the body carries one
func (c *Client) checkResponseStatus(resp *http.Response, body []byte) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	msg := http.StatusText(resp.StatusCode)
	var envelope struct {
		Meta Meta `json:"meta"`
	}
	if json.Unmarshal(body, &envelope) == nil && envelope.Meta.Msg != "" {
		msg = envelope.Meta.Msg
	}

	c.logger.WarnWithFields("likes API rejected request", map[string]interface{}{
		"status": resp.StatusCode,
		"msg":    msg,
	})
	return apperrors.Remote("fetch likes", resp.StatusCode, fmt.Errorf("%s", msg))
}

// redact drops the API key from a request URL before it is logged
func redact(req *http.Request) string {
	u := *req.URL
	q := u.Query()
	if q.Has("api_key") {
		q.Set("api_key", "REDACTED")
		u.RawQuery = q.Encode()
	}
	return u.String()
}
