package util

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "Plain title", want: "Plain title"},
		{in: `a/b\c:d*e?f"g<h>i|j`, want: "a_b_c_d_e_f_g_h_i_j"},
		{in: "  spaced  ", want: "spaced"},
		{in: "", want: "untitled"},
		{in: "   ", want: "untitled"},
		{in: "中文标题", want: "中文标题"},
	}
	for _, tt := range tests {
		if got := SanitizeFilename(tt.in); got != tt.want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSanitizeFilenameTruncates(t *testing.T) {
	got := SanitizeFilename(strings.Repeat("é", 300))
	if n := len([]rune(got)); n != 200 {
		t.Fatalf("expected 200 runes, got %d", n)
	}
}

func TestRemoveIfExists(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "x.part")
	if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := RemoveIfExists(p); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := RemoveIfExists(p); err != nil {
		t.Fatalf("second remove should be a no-op: %v", err)
	}
	if FileSize(p) != 0 {
		t.Fatal("expected size 0 for missing file")
	}
}

func TestIsMediaFile(t *testing.T) {
	for _, p := range []string{"a.mp4", "b.MKV", "c.m4a", "d.webm"} {
		if !IsMediaFile(p) {
			t.Errorf("%s should be media", p)
		}
	}
	for _, p := range []string{"a.part", "b.json", "c", "d.ytdl"} {
		if IsMediaFile(p) {
			t.Errorf("%s should not be media", p)
		}
	}
}
