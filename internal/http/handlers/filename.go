package handlers

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// SecureFilename reduces name to a flat ASCII filename: compatibility
// decomposition, non-ASCII dropped, path separators and whitespace turned
// into underscores, anything outside [A-Za-z0-9_.-] removed and leading or
// trailing dots and underscores trimmed. The result may be empty.
func SecureFilename(name string) string {
	decomposed := norm.NFKD.String(name)

	var ascii strings.Builder
	for _, r := range decomposed {
		if r < 0x80 {
			ascii.WriteRune(r)
		}
	}
	flat := strings.NewReplacer("/", " ", "\\", " ").Replace(ascii.String())
	joined := strings.Join(strings.Fields(flat), "_")

	var out strings.Builder
	for _, r := range joined {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '.', r == '-':
			out.WriteRune(r)
		}
	}
	return strings.Trim(out.String(), "._")
}
