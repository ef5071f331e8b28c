package models

// TokenID is the fixed primary key of the singleton token row. The bridge
// manages exactly one Fitbit account, so there is never more than one row.
const TokenID = 1

// Token is the persisted OAuth2 credential pair for the single authorized
// account. Writes are full replacements; the row is never deleted.
type Token struct {
	ID           int    `gorm:"primarykey;check:id = 1" json:"-"`
	AccessToken  string `gorm:"not null" json:"-"`
	RefreshToken string `gorm:"not null" json:"-"`
	ExpiresAt    int64  `gorm:"not null" json:"expires_at"`
}

// ExpiredAt reports whether the access token is no longer usable at the
// given unix time.
func (t Token) ExpiredAt(now int64) bool {
	return now >= t.ExpiresAt
}
