package dsp

import "testing"

func TestSelect(t *testing.T) {
	defer ResetDetection()

	tests := []struct {
		name     string
		features Features
		force    bool
		want     string
	}{
		{"no simd", Features{}, false, "generic"},
		{"sse2", Features{HasSSE2: true}, false, "wide"},
		{"neon", Features{HasNEON: true}, false, "wide"},
		{"forced generic", Features{HasSSE2: true, HasAVX2: true}, true, "generic"},
		{"force flag in features", Features{HasNEON: true, ForceGeneric: true}, false, "generic"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			SetForcedFeatures(tt.features)
			if got := Select(tt.force).Name; got != tt.want {
				t.Errorf("Select = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLookupPriority(t *testing.T) {
	e := Lookup(Features{HasSSE2: true})
	if e == nil || e.Name != "wide-sse2" {
		t.Fatalf("Lookup(sse2) = %+v", e)
	}
	if e := Lookup(Features{}); e == nil || e.Level != SIMDNone {
		t.Fatalf("Lookup(none) = %+v", e)
	}
	entries := Entries()
	for i := 1; i < len(entries); i++ {
		if entries[i].Priority > entries[i-1].Priority {
			t.Fatalf("entries not sorted by priority: %+v", entries)
		}
	}
}

func TestSupports(t *testing.T) {
	f := Features{HasSSE2: true}
	if !Supports(f, SIMDNone) || !Supports(f, SIMDSSE2) || Supports(f, SIMDAVX2) || Supports(f, SIMDNEON) {
		t.Error("Supports mismatch for sse2-only features")
	}
	f.ForceGeneric = true
	if Supports(f, SIMDSSE2) {
		t.Error("ForceGeneric must reject vector levels")
	}
}

func TestDetectFeaturesArchitecture(t *testing.T) {
	ResetDetection()
	if DetectFeatures().Architecture == "" {
		t.Error("Architecture not set")
	}
}
