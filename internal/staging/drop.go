package staging

import (
	"net/url"
	"path/filepath"
	"strings"
	"unicode"
)

// backslashEscapes is false where backslash is the path separator, so
// C:\Users\me\a.txt survives unquoted.
var backslashEscapes = filepath.Separator != '\\'

// ParseDropPayload splits the text a terminal pastes when files are dragged
// onto it. Terminals quote paths with single or double quotes, escape spaces
// with backslashes (not on Windows), or emit file:// URIs one per line.
func ParseDropPayload(text string) []string {
	var (
		paths   []string
		cur     strings.Builder
		quote   rune
		escaped bool
		inToken bool
	)

	flush := func() {
		if inToken {
			paths = append(paths, fromURI(cur.String()))
		}
		cur.Reset()
		inToken = false
	}

	for _, r := range text {
		switch {
		case escaped:
			cur.WriteRune(r)
			escaped = false
		case r == '\\' && quote != '\'' && backslashEscapes:
			escaped = true
			inToken = true
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				cur.WriteRune(r)
			}
		case r == '\'' || r == '"':
			quote = r
			inToken = true
		case unicode.IsSpace(r):
			flush()
		default:
			cur.WriteRune(r)
			inToken = true
		}
	}
	flush()

	out := paths[:0]
	for _, p := range paths {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func fromURI(s string) string {
	if !strings.HasPrefix(s, "file://") {
		return s
	}
	u, err := url.Parse(s)
	if err != nil {
		return s
	}
	return u.Path
}
