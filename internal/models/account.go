package models

import "time"

// Account represents a user's linked OAuth account for an external
// calendar provider.
//
// ExpiresAt is stored exactly as the provider reports it: whole seconds
// since epoch, NULL meaning the access token never expires. Conversion to
// time.Time happens in the credential manager, nowhere else.
type Account struct {
	ID           string    `gorm:"column:id;primaryKey"`
	Provider     string    `gorm:"column:provider;index:idx_accounts_provider_user,unique"`
	UserID       string    `gorm:"column:user_id;index:idx_accounts_provider_user,unique"`
	AccessToken  *string   `gorm:"column:access_token"`
	RefreshToken *string   `gorm:"column:refresh_token"`
	ExpiresAt    *int64    `gorm:"column:expires_at"`
	IDToken      *string   `gorm:"column:id_token"`
	Scope        *string   `gorm:"column:scope"`
	TokenType    *string   `gorm:"column:token_type"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (Account) TableName() string {
	return "accounts"
}
