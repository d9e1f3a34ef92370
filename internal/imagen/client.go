package imagen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"imagestudio/internal/domain"
	"imagestudio/internal/infra"
)

// DefaultTimeout bounds a single predict call.
const DefaultTimeout = 180 * time.Second

// Options configures the predict client.
type Options struct {
	Endpoint   string
	Tokens     TokenSource
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *infra.Logger
}

// Client performs a single authenticated POST against the Imagen predict
// endpoint and classifies the outcome. It never retries.
type Client struct {
	endpoint   string
	tokens     TokenSource
	httpClient *http.Client
	logger     *infra.Logger
}

// NewClient constructs a client with a bounded HTTP timeout.
func NewClient(opts Options) (*Client, error) {
	endpoint := strings.TrimSpace(opts.Endpoint)
	if endpoint == "" {
		return nil, errors.New("imagen: endpoint is required")
	}
	if opts.Tokens == nil {
		return nil, errors.New("imagen: token source is required")
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		endpoint:   endpoint,
		tokens:     opts.Tokens,
		httpClient: httpClient,
		logger:     infra.OrDiscard(opts.Logger),
	}, nil
}

// Endpoint returns the predict URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Predict sends payload and returns the decoded success body. A body that
// carries predictions is the only successful outcome.
func (c *Client) Predict(ctx context.Context, payload Payload) (map[string]any, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("imagen: encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("imagen: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	c.logger.Debug().
		Str("endpoint", c.endpoint).
		RawJSON("payload", body).
		Msg("imagen: sending predict request")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	c.logger.Debug().
		Int("status", resp.StatusCode).
		Dur("took", time.Since(start)).
		Msg("imagen: predict response received")

	if resp.StatusCode >= http.StatusBadRequest {
		msg := providerMessage(raw)
		return nil, &domain.Error{
			Kind:    domain.KindHTTP,
			Status:  resp.StatusCode,
			Message: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, msg),
			Detail:  truncate(string(raw), maxDetail),
		}
	}

	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, &domain.Error{
			Kind:    domain.KindResponseShape,
			Message: "API returned OK status but response was not valid JSON.",
			Detail:  truncate(string(raw), maxDetail),
			Cause:   err,
		}
	}

	if apiErr, ok := decoded["error"]; ok && apiErr != nil {
		msg := "Unknown API error in JSON"
		if m := errorMessage(apiErr); m != "" {
			msg = m
		}
		return nil, &domain.Error{
			Kind:    domain.KindHTTP,
			Status:  resp.StatusCode,
			Message: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, msg),
		}
	}

	if preds, _ := decoded["predictions"].([]any); len(preds) == 0 {
		if reason, blocked := safetyRejection(decoded); blocked {
			return nil, &domain.Error{
				Kind:    domain.KindSafety,
				Message: fmt.Sprintf("Generation blocked by safety filters (Reason: %s). Please modify your prompt.", reason),
			}
		}
		return nil, &domain.Error{
			Kind:    domain.KindResponseShape,
			Message: "API did not return predictions. Check logs.",
			Detail:  describe(decoded),
		}
	}

	return decoded, nil
}

func classifyTransportError(err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &domain.Error{Kind: domain.KindTimeout, Message: "Image generation request timed out.", Cause: err}
	}
	return &domain.Error{
		Kind:    domain.KindNetwork,
		Message: fmt.Sprintf("Network or request error during generation: %v", err),
		Cause:   err,
	}
}

// providerMessage prefers error.message from a JSON body and falls back to
// the raw text.
func providerMessage(raw []byte) string {
	var body map[string]any
	if err := json.Unmarshal(raw, &body); err == nil {
		if m := errorMessage(body["error"]); m != "" {
			return m
		}
	}
	return strings.TrimSpace(string(raw))
}

func errorMessage(v any) string {
	switch e := v.(type) {
	case map[string]any:
		if m, ok := e["message"].(string); ok {
			return strings.TrimSpace(m)
		}
	case string:
		return strings.TrimSpace(e)
	}
	return ""
}

func safetyRejection(body map[string]any) (string, bool) {
	attrs, ok := body["safetyAttributes"].(map[string]any)
	if !ok {
		return "", false
	}
	filtered, _ := attrs["filtered"].(bool)
	if !filtered {
		return "", false
	}
	reason := "Unknown"
	switch r := attrs["reason"].(type) {
	case string:
		if r != "" {
			reason = r
		}
	case nil:
	default:
		reason = fmt.Sprint(r)
	}
	return reason, true
}
