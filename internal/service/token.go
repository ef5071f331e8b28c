package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mealbridge/backend/internal/fitbit"
	"github.com/mealbridge/backend/internal/models"
	"github.com/mealbridge/backend/internal/store"
)

// TokenService owns the singleton OAuth2 credential row: it hands out a
// currently-valid access token, refreshing through Fitbit when the stored
// one has expired, and performs the one-time authorization-code exchange.
//
// All expiry checks and refreshes run under one mutex, so two requests that
// both observe an expired token collapse into a single upstream refresh.
// Fitbit invalidates the old refresh token on rotation; racing refreshes
// would strand one request with a dead credential.
type TokenService struct {
	store store.Store
	oauth OAuthClient

	mu  sync.Mutex
	now func() time.Time
}

// NewTokenService creates the token lifecycle service.
func NewTokenService(st store.Store, oauth OAuthClient) *TokenService {
	return &TokenService{
		store: st,
		oauth: oauth,
		now:   time.Now,
	}
}

// AccessToken returns a bearer token valid at call time. ErrNoCredentials
// when the OAuth flow never completed; ErrUnauthenticated (wrapping the
// upstream response) when a needed refresh is rejected, in which case the
// stored record is left untouched so a later call retries the refresh.
func (s *TokenService) AccessToken(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	token, err := s.store.GetToken(ctx)
	if errors.Is(err, store.ErrNotFound) {
		return "", ErrNoCredentials
	}
	if err != nil {
		return "", err
	}

	if !token.ExpiredAt(s.now().Unix()) {
		return token.AccessToken, nil
	}

	refreshed, err := s.refreshLocked(ctx, token.RefreshToken)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	}
	return refreshed.AccessToken, nil
}

// Refresh exchanges the given refresh token and persists the new pair.
func (s *TokenService) Refresh(ctx context.Context, refreshToken string) (*fitbit.TokenResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshLocked(ctx, refreshToken)
}

// refreshLocked performs the refresh grant and replaces the token row.
// Callers must hold s.mu.
func (s *TokenService) refreshLocked(ctx context.Context, refreshToken string) (*fitbit.TokenResponse, error) {
	tokens, err := s.oauth.Refresh(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	if err := s.persist(ctx, tokens); err != nil {
		return nil, err
	}
	return tokens, nil
}

// ExchangeCode performs the one-time authorization_code bootstrap and
// persists the resulting pair.
func (s *TokenService) ExchangeCode(ctx context.Context, code string) (*fitbit.TokenResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tokens, err := s.oauth.ExchangeCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if err := s.persist(ctx, tokens); err != nil {
		return nil, err
	}
	return tokens, nil
}

// AuthorizationURL returns the Fitbit consent screen URL.
func (s *TokenService) AuthorizationURL() string {
	return s.oauth.AuthorizationURL()
}

func (s *TokenService) persist(ctx context.Context, tokens *fitbit.TokenResponse) error {
	record := models.Token{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		ExpiresAt:    s.now().Unix() + tokens.ExpiresIn,
	}
	if err := s.store.ReplaceToken(ctx, record); err != nil {
		return fmt.Errorf("persist token pair: %w", err)
	}
	return nil
}
