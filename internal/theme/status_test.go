package theme

import (
	"image/color"
	"strings"
	"testing"
)

func TestStatusColor(t *testing.T) {
	tests := []struct {
		status string
		want   color.Color
	}{
		{"success", Success},
		{"SUCCESS", Success},
		{"failure", Error},
		{"skipped", Warning},
		{"partial", Warning},
		{"unknown", Muted},
	}

	for _, tt := range tests {
		if got := StatusColor(tt.status); got != tt.want {
			t.Errorf("StatusColor(%q) = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestRenderStatus_KeepsText(t *testing.T) {
	out := RenderStatus("failure")
	if !strings.HasSuffix(out, " failure") {
		t.Errorf("RenderStatus dropped status text: %q", out)
	}
	if !strings.Contains(out, "●") {
		t.Errorf("RenderStatus missing bullet: %q", out)
	}
}
