package exitcode

import "testing"

func TestBandMembership(t *testing.T) {
	tests := []struct {
		code      int
		framework bool
		custom    bool
		extension bool
	}{
		{Success, false, false, false},
		{PreconditionNotMet, false, false, false},
		{60000, true, false, false},
		{68999, true, false, false},
		{69000, false, true, false},
		{FatalError, false, true, false},
		{69999, false, true, false},
		{70000, false, false, true},
		{80001, false, false, true},
	}
	for _, tt := range tests {
		if got := InFrameworkBand(tt.code); got != tt.framework {
			t.Errorf("InFrameworkBand(%d) = %v, want %v", tt.code, got, tt.framework)
		}
		if got := InCustomBand(tt.code); got != tt.custom {
			t.Errorf("InCustomBand(%d) = %v, want %v", tt.code, got, tt.custom)
		}
		if got := InExtensionBand(tt.code); got != tt.extension {
			t.Errorf("InExtensionBand(%d) = %v, want %v", tt.code, got, tt.extension)
		}
	}
}

func TestBandsDoNotOverlap(t *testing.T) {
	for _, code := range []int{Success, PreconditionNotMet, 60000, 68999, 69001, 69999, 70000} {
		n := 0
		if InFrameworkBand(code) {
			n++
		}
		if InCustomBand(code) {
			n++
		}
		if InExtensionBand(code) {
			n++
		}
		if n > 1 {
			t.Errorf("code %d belongs to %d bands", code, n)
		}
	}
}

func TestFatalErrorIsInCustomBand(t *testing.T) {
	if !InCustomBand(FatalError) {
		t.Errorf("FatalError (%d) should fall within the custom band", FatalError)
	}
}
