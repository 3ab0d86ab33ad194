package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/slotcal/slotcal-api/internal/models"
	"gorm.io/gorm"
)

var ErrAccountNotFound = errors.New("account not found")

type AccountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// GetByProviderAndUserID retrieves the OAuth account linked for a
// (provider, user) pair
func (r *AccountRepository) GetByProviderAndUserID(ctx context.Context, provider, userID string) (*models.Account, error) {
	var account models.Account
	result := r.db.WithContext(ctx).First(&account, "provider = ? AND user_id = ?", provider, userID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", result.Error)
	}
	return &account, nil
}

// UpdateTokens writes a refreshed token set in a single update keyed by
// account id. ExpiresAt is in whole seconds since epoch, nil meaning the
// new access token never expires.
func (r *AccountRepository) UpdateTokens(ctx context.Context, accountID string, accessToken, refreshToken string, expiresAt *int64, idToken, scope, tokenType *string) error {
	result := r.db.WithContext(ctx).Model(&models.Account{}).
		Where("id = ?", accountID).
		Updates(map[string]interface{}{
			"access_token":  accessToken,
			"refresh_token": refreshToken,
			"expires_at":    expiresAt,
			"id_token":      idToken,
			"scope":         scope,
			"token_type":    tokenType,
			"updated_at":    time.Now(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update tokens: %w", result.Error)
	}
	return nil
}
