package utils

import (
	"os"
	"path/filepath"
	"testing"
)

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	t.Setenv("AUDIOGEN_TEST_DIR", "assets")

	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"plain/dir", "plain/dir"},
		{"~/audio", filepath.Join(home, "audio")},
		{"$AUDIOGEN_TEST_DIR/audio", "assets/audio"},
	}
	for _, tt := range tests {
		if got := ExpandPath(tt.in); got != tt.want {
			t.Errorf("ExpandPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
