package endpoint

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"
	"github.com/tidwall/gjson"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/time/rate"

	"github.com/xeptore/saavn/config"
	"github.com/xeptore/saavn/httputil"
)

var (
	ErrUnknownOperation  = errors.New("unknown operation")
	ErrUnexpectedStatus  = errors.New("unexpected response status")
	ErrTooManyRequests   = errors.New("too many requests")
	ErrMalformedResponse = errors.New("malformed response")
	ErrAPIFailure        = errors.New("api reported a failure")
	ErrNotFound          = errors.New("not found")
)

// StatusError is returned for non-200 responses other than 429.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code %d with body: %s", e.Code, e.Body)
}

func (e *StatusError) Unwrap() error {
	return ErrUnexpectedStatus
}

// maxErrorBodyLen bounds the body excerpt kept in StatusError.
const maxErrorBodyLen = 512

var staticHeaders = [...]struct {
	key   string
	value string
}{
	{key: "X-Requested-With", value: "XMLHttpRequest"},
	{key: "Accept", value: "application/json, text/plain, */*"},
	{key: "Cache-Control", value: "no-cache"},
	{key: "Accept-Language", value: "en-US,en;q=0.5"},
}

type Client struct {
	conf    config.Saavn
	client  *http.Client
	limiter *rate.Limiter
}

func NewClient(conf config.Saavn, limiter *rate.Limiter) (*Client, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if nil != err {
		return nil, fmt.Errorf("failed to create cookie jar: %v", err)
	}

	return &Client{
		conf: conf,
		client: &http.Client{ //nolint:exhaustruct
			Jar:     jar,
			Timeout: conf.Timeouts.APIDuration(),
		},
		limiter: limiter,
	}, nil
}

// RequestURL builds the full request URL of operation name with params
// appended to the fixed query parameters.
func (c *Client) RequestURL(name OperationName, params url.Values) (string, error) {
	op, ok := Lookup(name)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownOperation, name)
	}

	reqURL, err := url.Parse(c.conf.BaseURL)
	if nil != err {
		return "", fmt.Errorf("failed to parse base URL: %v", err)
	}

	query := reqURL.Query()
	query.Set("_format", "json")
	query.Set("_marker", "0")
	query.Set("ctx", c.conf.Context)
	if op.V4 {
		query.Set("api_version", "4")
	}
	query.Set("__call", op.Call)
	for k, vs := range op.Extra {
		query[k] = vs
	}
	for k, vs := range params {
		query[k] = append(query[k], vs...)
	}
	reqURL.RawQuery = query.Encode()

	return reqURL.String(), nil
}

// Get sends operation name with params and returns the raw JSON body.
// Responses with a 429 or 5xx status and timed out attempts are retried.
func (c *Client) Get(ctx context.Context, logger zerolog.Logger, name OperationName, params url.Values) ([]byte, error) {
	reqURL, err := c.RequestURL(name, params)
	if nil != err {
		return nil, err
	}

	logger = logger.With().
		Str("operation", string(name)).
		Str("request_id", uuid.NewString()).
		Logger()

	var (
		body    []byte
		attempt int
		backoff = retry.WithMaxRetries(
			uint64(c.conf.Retries.MaxRetries()), //nolint:gosec
			retry.NewFibonacci(c.conf.Retries.BaseDelay.Duration),
		)
	)
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if err := c.limiter.Wait(ctx); nil != err {
			return fmt.Errorf("failed to wait for rate limiter: %w", err)
		}

		b, err := c.do(ctx, reqURL)
		if nil != err {
			if nil == ctx.Err() && isTransient(err) {
				logger.Warn().Err(err).Int("attempt", attempt).Msg("Transient API failure")
				return retry.RetryableError(err)
			}

			return err
		}
		body = b

		return nil
	})
	if nil != err {
		switch {
		case errors.Is(err, context.Canceled):
			return nil, context.Canceled
		case errors.Is(err, context.DeadlineExceeded):
			return nil, context.DeadlineExceeded
		default:
			return nil, err
		}
	}

	logger.Debug().Int("attempts", attempt).Int("size", len(body)).Msg("API request completed")

	return body, nil
}

func (c *Client) do(ctx context.Context, reqURL string) (b []byte, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if nil != err {
		return nil, fmt.Errorf("failed to create request: %v", err)
	}
	for _, h := range staticHeaders {
		req.Header.Set(h.key, h.value)
	}
	req.Header.Set("User-Agent", c.conf.UserAgent)

	resp, err := c.client.Do(req)
	if nil != err {
		if isTimeout(err) {
			return nil, context.DeadlineExceeded
		}

		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); nil != closeErr {
			err = errors.Join(err, fmt.Errorf("failed to close response body: %v", closeErr))
		}
	}()

	switch code := resp.StatusCode; code {
	case http.StatusOK:
	case http.StatusTooManyRequests:
		httputil.DrainBody(resp)
		return nil, ErrTooManyRequests
	default:
		respBytes, err := httputil.ReadResponseBody(resp)
		if nil != err {
			return nil, fmt.Errorf("failed to read %d response body: %v", code, err)
		}

		if len(respBytes) > maxErrorBodyLen {
			respBytes = respBytes[:maxErrorBodyLen]
		}

		return nil, &StatusError{Code: code, Body: string(respBytes)}
	}

	respBytes, err := httputil.ReadResponseBody(resp)
	if nil != err {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if httputil.IsEmptyPayload(respBytes) {
		return nil, ErrNotFound
	}

	if !gjson.ValidBytes(respBytes) {
		return nil, fmt.Errorf("%w: response body is not valid JSON", ErrMalformedResponse)
	}

	if msg, ok := httputil.ErrorEnvelope(respBytes); ok {
		return nil, fmt.Errorf("%w: %s", ErrAPIFailure, msg)
	}

	return respBytes, nil
}

func isTransient(err error) bool {
	if errors.Is(err, ErrTooManyRequests) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code >= http.StatusInternalServerError
	}

	return false
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
