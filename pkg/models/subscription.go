package models

import "time"

// Subscription tracks a user's tier and daily key-creation counter. The
// counter is always relative to LastResetDate (UTC calendar date).
type Subscription struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	Tier             Tier      `json:"tier"`
	KeysCreatedToday int       `json:"keys_created_today"`
	LastResetDate    string    `json:"last_reset_date"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// QuotaDecision is the answer to "may this user create another key today".
type QuotaDecision struct {
	Allowed bool `json:"allowed"`
	Current int  `json:"current"`
	Limit   int  `json:"limit"`
	Tier    Tier `json:"tier"`
}

// SubscriptionInfo is the wire shape of GET /subscription.
type SubscriptionInfo struct {
	Tier             Tier   `json:"tier"`
	TierName         string `json:"tier_name"`
	KeysCreatedToday int    `json:"keys_created_today"`
	Limit            int    `json:"limit"`
	Remaining        int    `json:"remaining"`
}

type UpdateTierRequest struct {
	Tier string `json:"tier" validate:"required"`
}
