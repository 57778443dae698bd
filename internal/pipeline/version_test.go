package pipeline

import "testing"

func TestParseSemver(t *testing.T) {
	cases := []struct {
		in   string
		want Semver
	}{
		{"1.2.3", Semver{1, 2, 3}},
		{"v1.2.3", Semver{1, 2, 3}},
		{"2", Semver{2, 0, 0}},
		{"1.9", Semver{1, 9, 0}},
		{"abc", Semver{0, 0, 0}},
		{"1.x.3", Semver{1, 0, 3}},
		{"", Semver{0, 0, 0}},
	}
	for _, tc := range cases {
		if got := ParseSemver(tc.in); got != tc.want {
			t.Errorf("ParseSemver(%q) = %+v, want %+v", tc.in, got, tc.want)
		}
	}
}

func TestIsMajorIncrease(t *testing.T) {
	cases := []struct {
		prev, next string
		want       bool
	}{
		{"1.2.3", "2.0.0", true},
		{"1.9", "2", true},
		{"v1.0.0", "v2.0.0", true},
		{"1.2.3", "1.3.0", false},
		{"1.2.3", "1.2.4", false},
		{"2.0.0", "1.0.0", false},
		// Both coerce to 0.0.0, so no major increase.
		{"abc", "abc2", false},
		{"0.9.9", "1.0.0", true},
	}
	for _, tc := range cases {
		if got := IsMajorIncrease(tc.prev, tc.next); got != tc.want {
			t.Errorf("IsMajorIncrease(%q, %q) = %v, want %v", tc.prev, tc.next, got, tc.want)
		}
	}
}

func TestVersionFromTOML(t *testing.T) {
	v, ok := versionFromTOML("[package]\nname = \"demo\"\nversion = \"0.4.1\"\n")
	if !ok || v != "0.4.1" {
		t.Fatalf("got %q, %v", v, ok)
	}
	if _, ok := versionFromTOML("[package]\nname = \"demo\"\n"); ok {
		t.Fatal("expected no version")
	}
}
