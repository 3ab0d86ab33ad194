package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/slotcal/slotcal-api/internal/models"
)

// GoogleProvider is the provider key accounts are stored under.
const GoogleProvider = "google"

// ErrCredentialRefreshFailed is returned when the provider rejects the
// stored refresh token or the refresh call itself fails. It is not worth
// retrying within the request: a revoked refresh token stays revoked.
var ErrCredentialRefreshFailed = errors.New("credential refresh failed")

// AccountRepository interface for dependency injection
type AccountRepository interface {
	GetByProviderAndUserID(ctx context.Context, provider, userID string) (*models.Account, error)
	UpdateTokens(ctx context.Context, accountID string, accessToken, refreshToken string, expiresAt *int64, idToken, scope, tokenType *string) error
}

// TokenRefresher interface for the provider's token endpoint
type TokenRefresher interface {
	RefreshAccessToken(ctx context.Context, refreshToken string) (*TokenRefreshResult, error)
}

// TokenRefreshResult carries what the provider returned for a refresh.
// RefreshToken is empty when the provider did not rotate it; ExpiresAt is
// the zero time when the new access token never expires.
type TokenRefreshResult struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	IDToken      string
	Scope        string
	TokenType    string
}

// Credential is a token pair guaranteed valid at the time it is returned.
// ExpiresAt is nil for tokens that never expire.
type Credential struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    *time.Time
}

type CredentialManager struct {
	accountRepo AccountRepository
	refresher   TokenRefresher
	provider    string
	now         func() time.Time
}

func NewCredentialManager(accountRepo AccountRepository, refresher TokenRefresher) *CredentialManager {
	return &CredentialManager{
		accountRepo: accountRepo,
		refresher:   refresher,
		provider:    GoogleProvider,
		now:         time.Now,
	}
}

// GetValidCredential loads the OAuth credential stored for a user and
// returns it with a non-expired access token, refreshing and persisting
// first when needed. Returns repository.ErrAccountNotFound when the user
// never linked an account.
//
// Two requests racing past the same expired token may both refresh; both
// hold a legitimately obtained token, so the second write simply wins.
func (m *CredentialManager) GetValidCredential(ctx context.Context, userID string) (*Credential, error) {
	account, err := m.accountRepo.GetByProviderAndUserID(ctx, m.provider, userID)
	if err != nil {
		return nil, err
	}

	if account.AccessToken == nil || account.RefreshToken == nil {
		return nil, fmt.Errorf("account %s missing tokens", account.ID)
	}

	if account.ExpiresAt == nil {
		// NULL expiry means the token never expires.
		return &Credential{
			AccessToken:  *account.AccessToken,
			RefreshToken: *account.RefreshToken,
		}, nil
	}

	// The provider reports expiry in whole seconds since epoch. Normalize
	// once here; raw provider numbers never reach a clock comparison.
	expiresAt := time.Unix(*account.ExpiresAt, 0)
	if expiresAt.After(m.now()) {
		return &Credential{
			AccessToken:  *account.AccessToken,
			RefreshToken: *account.RefreshToken,
			ExpiresAt:    &expiresAt,
		}, nil
	}

	log.Printf("Access token expired for user %s, refreshing...", userID)

	result, err := m.refresher.RefreshAccessToken(ctx, *account.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCredentialRefreshFailed, err)
	}

	// The provider may rotate the refresh token; keep the stored one when
	// no replacement comes back.
	refreshToken := result.RefreshToken
	if refreshToken == "" {
		refreshToken = *account.RefreshToken
	}

	var newExpiresAt *int64
	if !result.ExpiresAt.IsZero() {
		seconds := result.ExpiresAt.Unix()
		newExpiresAt = &seconds
	}

	err = m.accountRepo.UpdateTokens(ctx, account.ID,
		result.AccessToken, refreshToken, newExpiresAt,
		optional(result.IDToken), optional(result.Scope), optional(result.TokenType))
	if err != nil {
		// A token fetched but not persisted is not a successful refresh.
		return nil, fmt.Errorf("failed to persist refreshed tokens: %w", err)
	}

	log.Printf("Token refreshed for user %s, expires at %s", userID, result.ExpiresAt)

	credential := &Credential{
		AccessToken:  result.AccessToken,
		RefreshToken: refreshToken,
	}
	if newExpiresAt != nil {
		t := time.Unix(*newExpiresAt, 0)
		credential.ExpiresAt = &t
	}
	return credential, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
