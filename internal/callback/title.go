package callback

import (
	"net/url"
	"regexp"
	"strings"
	"unicode"
)

// DefaultTitle is used when no readable title can be derived from a video URL.
const DefaultTitle = "Generated Video"

var (
	// titlePattern captures the file name segment of a generated video URL,
	// excluding any trailing _seed<N> suffix.
	titlePattern = regexp.MustCompile(`[a-f0-9-]+/(.+?)(?:_seed\d+)?\.mp4$`)

	// hexPrefixPattern matches a residual hex path segment at the start of a title.
	hexPrefixPattern = regexp.MustCompile(`^[a-f0-9-]+/`)
)

// TitleFromURL derives a human-readable title from a generated video URL.
// Generated file names encode the prompt with underscores for spaces and
// percent-encoding for punctuation. The derivation is deterministic: the
// same URL always yields the same title. URLs that do not look like a
// generated video yield DefaultTitle.
func TitleFromURL(videoURL string) string {
	m := titlePattern.FindStringSubmatch(videoURL)
	if m == nil {
		return DefaultTitle
	}

	title := m[1]
	if decoded, err := url.PathUnescape(title); err == nil {
		title = decoded
	}

	title = strings.ReplaceAll(title, "_", " ")
	title = strings.Split(title, ",")[0]
	title = hexPrefixPattern.ReplaceAllString(title, "")

	return capitalize(title)
}

// capitalize upper-cases the first rune and lower-cases the rest.
func capitalize(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	return string(unicode.ToUpper(runes[0])) + strings.ToLower(string(runes[1:]))
}
