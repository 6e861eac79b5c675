package entity

import "time"

// User represents a staff member or private guardian row in the `users` table.
type User struct {
	ID               string     `db:"id"`
	InstitutionID    *string    `db:"institution_id"`
	AuthType         string     `db:"auth_type"`
	Email            string     `db:"email"`
	PasswordHash     *string    `db:"password_hash"`
	OAuthProvider    *string    `db:"oauth_provider"`
	OAuthID          *string    `db:"oauth_id"`
	Name             string     `db:"name"`
	ProfileImageURL  *string    `db:"profile_image_url"`
	CreatedAt        time.Time  `db:"created_at"`
	LastLoginAt      *time.Time `db:"last_login_at"`
	RefreshTokenHash *string    `db:"refresh_token_hash"`
	ElderEmail       *string    `db:"elder_email"`
}

// PublicUser is the projection returned to clients. It has no credential
// fields, so nothing secret can leak through it.
type PublicUser struct {
	ID            string     `json:"id"`
	Email         string     `json:"email"`
	Name          string     `json:"name"`
	AuthType      string     `json:"authType"`
	InstitutionID *string    `json:"institutionId,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	LastLoginAt   *time.Time `json:"lastLoginAt,omitempty"`
}

// Summary is the minimal view returned alongside a token pair.
type Summary struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

func (u *User) Public() PublicUser {
	return PublicUser{
		ID:            u.ID,
		Email:         u.Email,
		Name:          u.Name,
		AuthType:      u.AuthType,
		InstitutionID: u.InstitutionID,
		CreatedAt:     u.CreatedAt,
		LastLoginAt:   u.LastLoginAt,
	}
}

func (u *User) Summary() Summary {
	return Summary{ID: u.ID, Email: u.Email, Name: u.Name}
}

// Patch lists the mutable columns of a user. Nil fields are left untouched;
// ClearRefreshToken writes NULL regardless of RefreshTokenHash.
type Patch struct {
	LastLoginAt       *time.Time
	RefreshTokenHash  *string
	ClearRefreshToken bool
}
