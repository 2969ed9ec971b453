package models

import "time"

// APIKey is one issued key. The plaintext secret is never stored; only its
// fingerprint and the last four characters survive creation.
type APIKey struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Period    string    `json:"period"`
	Origin    string    `json:"origin"`
	Value     int       `json:"value"`
	ImageURL  *string   `json:"image_url,omitempty"`
	HashedKey string    `json:"-"`
	Last4     string    `json:"last4"`
	CreatedAt time.Time `json:"created_at"`
	Revoked   bool      `json:"revoked"`
}

type CreateKeyRequest struct {
	Name     string  `json:"name" validate:"required,min=2,max=256"`
	Period   string  `json:"period" validate:"required,min=1,max=100"`
	Origin   string  `json:"origin" validate:"required,min=1,max=100"`
	Value    int     `json:"value" validate:"required,min=1"`
	ImageURL *string `json:"image_url,omitempty" validate:"omitempty,url"`
}

// CreateKeyResponse carries the plaintext secret exactly once.
type CreateKeyResponse struct {
	ID       string  `json:"id"`
	Key      string  `json:"key"`
	Last4    string  `json:"last4"`
	Name     string  `json:"name"`
	Period   string  `json:"period"`
	Origin   string  `json:"origin"`
	Value    int     `json:"value"`
	ImageURL *string `json:"image_url,omitempty"`
}

// KeyListItem is the display-safe projection used by GET /keys.
type KeyListItem struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Period    string    `json:"period"`
	Origin    string    `json:"origin"`
	Value     int       `json:"value"`
	ImageURL  *string   `json:"image_url,omitempty"`
	Masked    string    `json:"masked"`
	CreatedAt time.Time `json:"created_at"`
	Revoked   bool      `json:"revoked"`
}

// VerifyReason classifies why a presented secret failed verification.
type VerifyReason string

const (
	VerifyNotFound VerifyReason = "not_found"
	VerifyRevoked  VerifyReason = "revoked"
)

// Verdict is the outcome of a single verification call.
type Verdict struct {
	Valid  bool
	KeyID  string
	Reason VerifyReason
}
