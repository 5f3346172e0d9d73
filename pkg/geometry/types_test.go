package geometry

import "testing"

func TestSizeScaleTruncates(t *testing.T) {
	s := Size{Width: 1204, Height: 287}
	got := s.Scale(1.5, 1.5)
	want := Size{Width: 1806, Height: 430}
	if got != want {
		t.Errorf("Scale(1.5, 1.5) = %+v, want %+v", got, want)
	}
}

func TestSizeDiv(t *testing.T) {
	s := Size{Width: 22016, Height: 4608}
	if got := s.Div(16); got != (Size{Width: 1376, Height: 288}) {
		t.Errorf("Div(16) = %+v", got)
	}
	if got := s.Div(0); got != s {
		t.Errorf("Div(0) = %+v, want unchanged", got)
	}
}
