package preset

import (
	"testing"

	"quantum/internal/catalog"
)

func TestLookupKnownPresets(t *testing.T) {
	cases := []struct {
		name      string
		threshold float64
		rmsSteps  int
	}{
		{PopRadio, 0.95, 0},
		{Audiophile, 0.85, 6},
		{Streaming, 0.90, 0},
		{Classical, 0.75, 2},
		{Electronic, 0.98, 0},
	}
	for _, tc := range cases {
		cfg := Lookup(tc.name)
		if cfg.Threshold != tc.threshold {
			t.Fatalf("%s threshold = %v, want %v", tc.name, cfg.Threshold, tc.threshold)
		}
		if cfg.RMSCorrectionSteps != tc.rmsSteps {
			t.Fatalf("%s rms steps = %d, want %d", tc.name, cfg.RMSCorrectionSteps, tc.rmsSteps)
		}
		if err := cfg.Validate(); err != nil {
			t.Fatalf("%s config invalid: %v", tc.name, err)
		}
	}
}

func TestLookupUnknownFallsBack(t *testing.T) {
	cfg := Lookup("vaporwave")
	if cfg.Threshold != 0.90 {
		t.Fatalf("fallback threshold = %v, want streaming default", cfg.Threshold)
	}
	if Known("vaporwave") {
		t.Fatal("vaporwave should not be a known preset")
	}
	if !Known(" Streaming ") {
		t.Fatal("Known should normalize case and whitespace")
	}
}

func TestForGenreNeverFails(t *testing.T) {
	for _, genre := range []catalog.Genre{
		catalog.GenreTrap,
		catalog.GenreClassical,
		catalog.Genre("polka"),
	} {
		cfg := ForGenre(genre)
		if err := cfg.Validate(); err != nil {
			t.Fatalf("genre %s config invalid: %v", genre, err)
		}
	}
	if got := NameForGenre(catalog.GenreClassical); got != Classical {
		t.Fatalf("classical preset = %s, want %s", got, Classical)
	}
	if got := NameForGenre(catalog.Genre("polka")); got != Default {
		t.Fatalf("unmapped genre preset = %s, want default", got)
	}
}

func TestNamesSorted(t *testing.T) {
	names := Names()
	if len(names) != 5 {
		t.Fatalf("len(names) = %d, want 5", len(names))
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] >= names[i] {
			t.Fatalf("names not sorted: %v", names)
		}
	}
}
