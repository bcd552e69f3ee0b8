package extractor

import "testing"

func TestIsFunctionChunk(t *testing.T) {
	tests := []struct {
		chunkType string
		want      bool
	}{
		{"func", true},
		{"function", true},
		{"method", true},
		{"Method", true},
		{"type", false},
		{"arch", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.chunkType, func(t *testing.T) {
			if got := isFunctionChunk(tt.chunkType); got != tt.want {
				t.Errorf("isFunctionChunk(%q) = %v, want %v", tt.chunkType, got, tt.want)
			}
		})
	}
}

func TestLanguageForFile(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"cmd/main.go", "Go"},
		{"app.py", "Python"},
		{"ui/index.tsx", "TypeScript"},
		{"lib.rs", "Rust"},
		{"weird.xyz", "xyz"},
		{"Makefile", "source"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := LanguageForFile(tt.path); got != tt.want {
				t.Errorf("LanguageForFile(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}
