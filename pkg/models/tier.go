package models

import "fmt"

// Tier is a named service level controlling the daily key-creation quota
// and the per-window request threshold.
type Tier string

const (
	TierFree        Tier = "free"
	TierPro         Tier = "pro"
	TierPremium     Tier = "premium"
	TierPremiumPlus Tier = "premium_plus"
)

// TierLimits holds the fixed limits for one tier. The table is config-level
// data: adding a tier is a data change, not new code.
type TierLimits struct {
	Name              string
	KeysPerDay        int
	RequestsPerWindow int
}

var tierTable = map[Tier]TierLimits{
	TierFree:        {Name: "Free", KeysPerDay: 10, RequestsPerWindow: 3},
	TierPro:         {Name: "Pro", KeysPerDay: 50, RequestsPerWindow: 10},
	TierPremium:     {Name: "Premium", KeysPerDay: 200, RequestsPerWindow: 50},
	TierPremiumPlus: {Name: "Premium+", KeysPerDay: 1000, RequestsPerWindow: 200},
}

// ParseTier validates a tier string coming off the wire or out of storage.
func ParseTier(s string) (Tier, error) {
	t := Tier(s)
	if _, ok := tierTable[t]; !ok {
		return "", fmt.Errorf("unknown tier: %q", s)
	}
	return t, nil
}

// Limits returns the fixed limits for the tier. Unknown tiers fall back to
// free so a corrupt stored value can never widen a limit.
func (t Tier) Limits() TierLimits {
	if l, ok := tierTable[t]; ok {
		return l
	}
	return tierTable[TierFree]
}

func (t Tier) DisplayName() string {
	return t.Limits().Name
}

// Tiers lists every known tier. Order is not significant.
func Tiers() []Tier {
	return []Tier{TierFree, TierPro, TierPremium, TierPremiumPlus}
}
