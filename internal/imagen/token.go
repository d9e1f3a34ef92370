package imagen

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"imagestudio/internal/domain"
	"imagestudio/internal/infra"
)

// CloudPlatformScope is the OAuth scope required for Vertex AI prediction.
const CloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"

const authFailureMessage = "Failed to get access token. Check server logs."

// TokenSource yields a bearer token for outbound calls.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// TokenFunc adapts a function to TokenSource.
type TokenFunc func(ctx context.Context) (string, error)

func (f TokenFunc) Token(ctx context.Context) (string, error) { return f(ctx) }

// TokenProvider caches an OAuth token and refreshes it once it is no longer
// valid. The underlying source is discovered lazily and dropped after a
// refresh failure so the next call starts from discovery again.
type TokenProvider struct {
	mu       sync.Mutex
	discover func(ctx context.Context) (oauth2.TokenSource, error)
	source   oauth2.TokenSource
	token    *oauth2.Token
	logger   *infra.Logger
}

// NewDefaultTokenProvider uses Application Default Credentials: the
// GOOGLE_APPLICATION_CREDENTIALS key file, gcloud user credentials, or the
// platform's metadata server.
func NewDefaultTokenProvider(logger *infra.Logger) *TokenProvider {
	return &TokenProvider{
		discover: func(ctx context.Context) (oauth2.TokenSource, error) {
			creds, err := google.FindDefaultCredentials(ctx, CloudPlatformScope)
			if err != nil {
				return nil, err
			}
			return creds.TokenSource, nil
		},
		logger: infra.OrDiscard(logger),
	}
}

// NewTokenProvider wraps an existing oauth2 token source.
func NewTokenProvider(src oauth2.TokenSource, logger *infra.Logger) *TokenProvider {
	return &TokenProvider{
		discover: func(context.Context) (oauth2.TokenSource, error) {
			if src == nil {
				return nil, fmt.Errorf("no token source configured")
			}
			return src, nil
		},
		logger: infra.OrDiscard(logger),
	}
}

// Token returns a valid access token, refreshing it when expired.
func (p *TokenProvider) Token(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.token.Valid() {
		return p.token.AccessToken, nil
	}

	if p.source == nil {
		p.logger.Debug().Msg("imagen: discovering default credentials")
		// The discovered source keeps the context for later refreshes.
		src, err := p.discover(context.WithoutCancel(ctx))
		if err != nil {
			p.logger.Error().Err(err).
				Msg("imagen: could not find default credentials; set GOOGLE_APPLICATION_CREDENTIALS or run `gcloud auth application-default login`")
			return "", &domain.Error{Kind: domain.KindAuth, Message: authFailureMessage, Cause: err}
		}
		p.source = src
	}

	tok, err := p.source.Token()
	if err != nil {
		p.source = nil
		p.token = nil
		p.logger.Error().Err(err).Msg("imagen: refreshing credentials failed; they may have expired or been revoked")
		return "", &domain.Error{Kind: domain.KindAuth, Message: authFailureMessage, Cause: err}
	}
	if tok == nil || tok.AccessToken == "" {
		p.source = nil
		p.logger.Error().Msg("imagen: credentials returned an empty access token")
		return "", &domain.Error{Kind: domain.KindAuth, Message: authFailureMessage}
	}

	p.token = tok
	p.logger.Debug().Time("expiry", tok.Expiry).Msg("imagen: access token refreshed")
	return tok.AccessToken, nil
}

var _ TokenSource = (*TokenProvider)(nil)
