// Package billing maps Ko-fi membership tiers onto monthly release quotas.
package billing

import (
	"math"
	"strings"
)

type Tier struct {
	Name     string
	Versions int
	Price    float64
}

// Tiers in ascending order of quota. Names match the Ko-fi tier names.
var Tiers = []Tier{
	{Name: "basic", Versions: 5, Price: 15},
	{Name: "pro", Versions: 15, Price: 30},
	{Name: "business", Versions: 50, Price: 60},
}

// pricePerExtraVersion applies beyond the highest tier.
const pricePerExtraVersion = 1.2

func TierByName(name string) (Tier, bool) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	for _, t := range Tiers {
		if t.Name == normalized {
			return t, true
		}
	}
	return Tier{}, false
}

// VersionsForTier returns the monthly release quota for a Ko-fi tier name,
// or 0 for unknown/empty names.
func VersionsForTier(name string) int {
	t, ok := TierByName(name)
	if !ok {
		return 0
	}
	return t.Versions
}

// CalculatePrice returns the monthly price for a desired release volume:
// the smallest tier that covers it, or the top tier plus a per-version
// surcharge for the overflow.
func CalculatePrice(versionsPerMonth int) float64 {
	for _, t := range Tiers {
		if versionsPerMonth <= t.Versions {
			return t.Price
		}
	}
	top := Tiers[len(Tiers)-1]
	extra := versionsPerMonth - top.Versions
	return top.Price + math.Ceil(float64(extra)*pricePerExtraVersion)
}

// RecommendedTier returns the smallest tier covering the volume, defaulting
// to the top tier.
func RecommendedTier(versionsPerMonth int) Tier {
	for _, t := range Tiers {
		if versionsPerMonth <= t.Versions {
			return t
		}
	}
	return Tiers[len(Tiers)-1]
}
