package callback

import "testing"

func TestTitleFromURL(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		expected string
	}{
		{
			name:     "prompt with seed suffix and encoded comma",
			url:      "https://cdn.pikapikapika.io/v1/files/0c29f01c-3863-4c06-9d2a-5b1a7c6ddc87/a_red_bicycle_on_a_hill%2C_cinematic_seed42.mp4",
			expected: "A red bicycle on a hill",
		},
		{
			name:     "prompt without seed suffix",
			url:      "https://cdn.pikapikapika.io/v1/files/abcd1234/sunset_over_lake.mp4",
			expected: "Sunset over lake",
		},
		{
			name:     "nested hex path segment is stripped",
			url:      "https://cdn.example.com/deadbeef/cafe1234/video.mp4",
			expected: "Video",
		},
		{
			name:     "only text before the first comma is kept",
			url:      "https://cdn.example.com/abc123/city_street,_night,_4k.mp4",
			expected: "City street",
		},
		{
			name:     "mixed case input is normalized",
			url:      "https://cdn.example.com/abc123/NEON_Tokyo_ALLEY.mp4",
			expected: "Neon tokyo alley",
		},
		{
			name:     "accented characters survive decoding",
			url:      "https://cdn.example.com/abc123/caf%C3%A9_terrace.mp4",
			expected: "Café terrace",
		},
		{
			name:     "non-matching URL falls back",
			url:      "https://example.com/video.webm",
			expected: DefaultTitle,
		},
		{
			name:     "empty URL falls back",
			url:      "",
			expected: DefaultTitle,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TitleFromURL(tt.url); got != tt.expected {
				t.Errorf("TitleFromURL(%q) = %q, want %q", tt.url, got, tt.expected)
			}
		})
	}
}

func TestTitleFromURL_Deterministic(t *testing.T) {
	url := "https://cdn.pikapikapika.io/v1/files/0c29f01c/a_quiet_harbor_at_dawn_seed7.mp4"

	first := TitleFromURL(url)
	second := TitleFromURL(url)

	if first != second {
		t.Errorf("expected identical titles, got %q and %q", first, second)
	}
}

func TestCapitalize(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"", ""},
		{"a", "A"},
		{"hello world", "Hello world"},
		{"HELLO WORLD", "Hello world"},
		{"éclair", "Éclair"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := capitalize(tt.input); got != tt.expected {
				t.Errorf("capitalize(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}
