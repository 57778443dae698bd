package billing

import "testing"

func TestVersionsForTier(t *testing.T) {
	if got := VersionsForTier("Pro"); got != 15 {
		t.Fatalf("VersionsForTier(Pro) = %d, want 15", got)
	}
	if got := VersionsForTier("  business "); got != 50 {
		t.Fatalf("VersionsForTier(business) = %d, want 50", got)
	}
	if got := VersionsForTier("gold"); got != 0 {
		t.Fatalf("VersionsForTier(gold) = %d, want 0", got)
	}
	if got := VersionsForTier(""); got != 0 {
		t.Fatalf("VersionsForTier(empty) = %d, want 0", got)
	}
}

func TestCalculatePrice(t *testing.T) {
	cases := []struct {
		versions int
		want     float64
	}{
		{1, 15},
		{5, 15},
		{6, 30},
		{15, 30},
		{50, 60},
		{51, 62},  // 60 + ceil(1 * 1.2)
		{60, 72},  // 60 + ceil(10 * 1.2)
	}
	for _, c := range cases {
		if got := CalculatePrice(c.versions); got != c.want {
			t.Fatalf("CalculatePrice(%d) = %v, want %v", c.versions, got, c.want)
		}
	}
}

func TestRecommendedTier(t *testing.T) {
	if tier := RecommendedTier(10); tier.Name != "pro" {
		t.Fatalf("RecommendedTier(10) = %s, want pro", tier.Name)
	}
	if tier := RecommendedTier(500); tier.Name != "business" {
		t.Fatalf("RecommendedTier(500) = %s, want business", tier.Name)
	}
}
