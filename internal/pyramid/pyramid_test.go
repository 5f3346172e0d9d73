package pyramid

import "testing"

func TestNextGreater(t *testing.T) {
	levels := Levels{0, 2, 8, 16}

	tests := []struct {
		name      string
		target    int
		wantIdx   int
		wantLevel int
		wantOK    bool
	}{
		{"exact member", 2, 1, 2, true},
		{"between members rounds up", 5, 2, 8, true},
		{"upper exact member", 8, 2, 8, true},
		{"zero target", 0, 0, 0, true},
		{"largest member", 16, 3, 16, true},
		{"beyond largest", 17, 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx, level, ok := NextGreater(levels, tt.target)
			if idx != tt.wantIdx || level != tt.wantLevel || ok != tt.wantOK {
				t.Errorf("NextGreater(%v, %d) = (%d, %d, %v), want (%d, %d, %v)",
					levels, tt.target, idx, level, ok, tt.wantIdx, tt.wantLevel, tt.wantOK)
			}
		})
	}
}

// Any two targets sharing the same ceiling select the same level.
func TestNextGreaterCeilingStable(t *testing.T) {
	levels := Levels{1, 4, 16}
	for target := 2; target <= 4; target++ {
		idx, level, ok := NextGreater(levels, target)
		if !ok || idx != 1 || level != 4 {
			t.Errorf("NextGreater(%v, %d) = (%d, %d, %v), want (1, 4, true)",
				levels, target, idx, level, ok)
		}
	}
}

func TestNextGreaterEmpty(t *testing.T) {
	if _, _, ok := NextGreater(nil, 1); ok {
		t.Error("NextGreater(nil, 1) reported a match on an empty sequence")
	}
}

func TestCoarsest(t *testing.T) {
	if got := Coarsest(Levels{1, 4, 16}); got != 16 {
		t.Errorf("Coarsest = %d, want 16", got)
	}
	if got := Coarsest(nil); got != 1 {
		t.Errorf("Coarsest(nil) = %d, want 1", got)
	}
}
