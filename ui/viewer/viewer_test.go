package viewer

import (
	"image"
	"testing"

	"wsi-viewer/internal/session"
	"wsi-viewer/pkg/geometry"
)

func TestViewportBounds(t *testing.T) {
	tests := []struct {
		name string
		view session.View
		want image.Rectangle
	}{
		{
			name: "centered",
			view: session.View{
				CacheSize:    geometry.Size{Width: 512, Height: 512},
				ViewportSize: geometry.Size{Width: 256, Height: 256},
			},
			want: image.Rect(128, 128, 384, 384),
		},
		{
			name: "panned",
			view: session.View{
				CacheSize:    geometry.Size{Width: 512, Height: 512},
				ViewportSize: geometry.Size{Width: 256, Height: 256},
				CachePosX:    50,
				CachePosY:    -20,
			},
			want: image.Rect(178, 108, 434, 364),
		},
		{
			name: "anisotropic",
			view: session.View{
				CacheSize:    geometry.Size{Width: 3000, Height: 2250},
				ViewportSize: geometry.Size{Width: 1500, Height: 1125},
			},
			want: image.Rect(750, 562, 2250, 1687),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ViewportBounds(tt.view)
			if got != tt.want {
				t.Errorf("ViewportBounds() = %v, want %v", got, tt.want)
			}
			if got.Dx() != tt.view.ViewportSize.Width || got.Dy() != tt.view.ViewportSize.Height {
				t.Errorf("bounds %dx%d do not match viewport %dx%d",
					got.Dx(), got.Dy(), tt.view.ViewportSize.Width, tt.view.ViewportSize.Height)
			}
		})
	}
}
