package sanitize_test

import (
	"testing"

	"github.com/dalemusser/gametable/internal/app/system/sanitize"
)

func TestText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"The Dragon's Den", "The Dragon's Den"},
		{"  padded  ", "padded"},
		{"<script>alert('xss')</script>Krakow Street 7", "Krakow Street 7"},
		{"<b>Session</b> zero", "Session zero"},
		{`<a href="javascript:alert(1)">click</a>`, "click"},
		{"Café U Draka", "Café U Draka"},
	}
	for _, tc := range tests {
		if got := sanitize.Text(tc.in); got != tc.want {
			t.Errorf("Text(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
