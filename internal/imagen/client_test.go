package imagen

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"imagestudio/internal/domain"
)

func staticToken(tok string) TokenSource {
	return TokenFunc(func(context.Context) (string, error) { return tok, nil })
}

func newTestClient(t *testing.T, url string, timeout time.Duration) *Client {
	t.Helper()
	c, err := NewClient(Options{Endpoint: url, Tokens: staticToken("tok-123"), Timeout: timeout})
	require.NoError(t, err)
	return c
}

func samplePayload() Payload {
	return BuildPayload(domain.GenerationRequest{Prompt: "a red fox", AspectRatio: "16:9", Quality: "hd", StylePreset: "cinematic"})
}

func TestPredictSendsAuthenticatedJSON(t *testing.T) {
	var gotAuth, gotType string
	var gotBody Payload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotType = r.Header.Get("Content-Type")
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)
		_, _ = w.Write([]byte(`{"predictions":[{"bytesBase64Encoded":"iVBORw0KGgo=","mimeType":"image/png"}]}`))
	}))
	defer srv.Close()

	body, err := newTestClient(t, srv.URL, time.Second).Predict(context.Background(), samplePayload())
	require.NoError(t, err)

	assert.Equal(t, "Bearer tok-123", gotAuth)
	assert.Equal(t, "application/json; charset=utf-8", gotType)
	assert.Equal(t, "a red fox, cinematic lighting", gotBody.Prompt())
	assert.Equal(t, 576, gotBody.Parameters.Height)
	assert.Len(t, body["predictions"], 1)
}

func TestPredictHTTPErrorUsesProviderMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":403,"message":"Permission denied on resource project"}}`))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL, time.Second).Predict(context.Background(), samplePayload())
	var de *domain.Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, domain.KindHTTP, de.Kind)
	assert.Equal(t, http.StatusForbidden, de.Status)
	assert.Equal(t, "HTTP 403: Permission denied on resource project", de.Message)
}

func TestPredictHTTPErrorFallsBackToRawText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL, time.Second).Predict(context.Background(), samplePayload())
	require.Error(t, err)
	assert.Equal(t, "HTTP 502: upstream exploded", err.Error())
}

func TestPredictSafetyFilter(t *testing.T) {
	cases := map[string]struct {
		body   string
		reason string
	}{
		"with reason":    {`{"predictions":[],"safetyAttributes":{"filtered":true,"reason":"violence"}}`, "violence"},
		"without reason": {`{"safetyAttributes":{"filtered":true}}`, "Unknown"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			_, err := newTestClient(t, srv.URL, time.Second).Predict(context.Background(), samplePayload())
			require.True(t, domain.IsKind(err, domain.KindSafety), "got %v", err)
			assert.Contains(t, err.Error(), "blocked by safety filters")
			assert.Contains(t, err.Error(), "(Reason: "+tc.reason+")")
		})
	}
}

func TestPredictMissingPredictions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"predictions":[],"safetyAttributes":{"filtered":false}}`))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL, time.Second).Predict(context.Background(), samplePayload())
	require.True(t, domain.IsKind(err, domain.KindResponseShape))
	assert.Equal(t, "API did not return predictions. Check logs.", err.Error())
}

func TestPredictEmbeddedError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":{"message":"quota exhausted"}}`))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL, time.Second).Predict(context.Background(), samplePayload())
	require.True(t, domain.IsKind(err, domain.KindHTTP))
	assert.Equal(t, "HTTP 200: quota exhausted", err.Error())
}

func TestPredictInvalidJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>maintenance</html>`))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL, time.Second).Predict(context.Background(), samplePayload())
	var de *domain.Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, domain.KindResponseShape, de.Kind)
	assert.Equal(t, "API returned OK status but response was not valid JSON.", de.Message)
	assert.Contains(t, de.Detail, "maintenance")
}

func TestPredictTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	_, err := newTestClient(t, srv.URL, 50*time.Millisecond).Predict(context.Background(), samplePayload())
	require.True(t, domain.IsKind(err, domain.KindTimeout), "got %v", err)
	assert.Equal(t, "Image generation request timed out.", err.Error())
}

func TestPredictNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := newTestClient(t, url, time.Second).Predict(context.Background(), samplePayload())
	require.True(t, domain.IsKind(err, domain.KindNetwork), "got %v", err)
	assert.True(t, strings.HasPrefix(err.Error(), "Network or request error during generation: "))
}

func TestPredictAuthFailureSkipsRequest(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true }))
	defer srv.Close()

	tokens := TokenFunc(func(context.Context) (string, error) {
		return "", &domain.Error{Kind: domain.KindAuth, Message: authFailureMessage, Cause: errors.New("no adc")}
	})
	c, err := NewClient(Options{Endpoint: srv.URL, Tokens: tokens})
	require.NoError(t, err)

	_, err = c.Predict(context.Background(), samplePayload())
	require.True(t, domain.IsKind(err, domain.KindAuth))
	assert.Equal(t, "Failed to get access token. Check server logs.", err.Error())
	assert.False(t, called)
}

func TestNewClientValidation(t *testing.T) {
	_, err := NewClient(Options{Tokens: staticToken("x")})
	assert.Error(t, err)

	_, err = NewClient(Options{Endpoint: "http://example.invalid"})
	assert.Error(t, err)

	c, err := NewClient(Options{Endpoint: " http://example.invalid/predict ", Tokens: staticToken("x")})
	require.NoError(t, err)
	assert.Equal(t, "http://example.invalid/predict", c.Endpoint())
	assert.Equal(t, DefaultTimeout, c.httpClient.Timeout)
}

func TestRESTGeneratorExtractsImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"predictions":[{"image":{"bytesBase64Encoded":"aGVsbG8="}}]}`))
	}))
	defer srv.Close()

	gen := NewRESTGenerator(newTestClient(t, srv.URL, time.Second), nil)
	img, err := gen.Generate(context.Background(), domain.GenerationRequest{Prompt: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "hello", string(img.Data))
	assert.Equal(t, "image.bytesBase64Encoded", img.Shape)
}
