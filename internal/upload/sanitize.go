package upload

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)
	dotRuns             = regexp.MustCompile(`\.{2,}`)
)

// SanitizeFilename reduces name to a flat ASCII filename safe to use on disk.
// Accents are decomposed and dropped, path separators and whitespace become
// underscores, runs of dots collapse to one, and leading or trailing dots
// and underscores are trimmed.
func SanitizeFilename(name string) string {
	decomposed := norm.NFKD.String(name)

	var b strings.Builder
	for _, r := range decomposed {
		switch {
		case r == '/' || r == '\\':
			b.WriteRune(' ')
		case r > unicode.MaxASCII:
			// Combining marks and non-ASCII runes are dropped
		default:
			b.WriteRune(r)
		}
	}

	flat := strings.Join(strings.Fields(b.String()), "_")
	flat = unsafeFilenameChars.ReplaceAllString(flat, "")
	flat = dotRuns.ReplaceAllString(flat, ".")
	return strings.Trim(flat, "._")
}

// displayName sanitizes originalName and guarantees the allowed extension survives.
func displayName(originalName string) string {
	ext := Extension(originalName)
	name := SanitizeFilename(originalName)
	if Extension(name) != ext {
		if name == "" || name == ext {
			name = "file"
		}
		name = name + "." + ext
	}
	return name
}
