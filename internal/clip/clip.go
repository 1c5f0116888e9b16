// Package clip reads and writes the system clipboard and sanitizes pasted
// payloads. Browsers and rich editors put RTF or HTML on the clipboard; node
// labels and sticky text want plain text only.
package clip

import (
	"os/exec"
	"runtime"
	"strconv"
	"strings"

	"github.com/atotto/clipboard"
)

// ReadText returns sanitized plain text from the clipboard.
func ReadText() (string, error) {
	raw, err := readRaw()
	if err != nil {
		return "", err
	}
	return Sanitize(raw), nil
}

func WriteText(s string) error {
	return clipboard.WriteAll(s)
}

// readRaw prefers pbpaste on macOS, which can ask for the plain-text
// flavor directly.
func readRaw() (string, error) {
	if runtime.GOOS == "darwin" {
		if out, err := exec.Command("pbpaste", "-Prefer", "txt").Output(); err == nil {
			return string(out), nil
		}
	}
	return clipboard.ReadAll()
}

// Sanitize converts a clipboard payload to plain text: RTF and HTML payloads
// are unwrapped, control characters are dropped, and line endings are
// normalized to \n.
func Sanitize(text string) string {
	switch {
	case isRTF(text):
		text = extractRTF(text)
	case isHTML(text):
		text = extractHTML(text)
	}

	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if r == '\n' || r == '\r' || r == '\t' || r >= 32 {
			b.WriteRune(r)
		}
	}
	out := b.String()
	out = strings.ReplaceAll(out, "\r\n", "\n")
	return strings.ReplaceAll(out, "\r", "\n")
}

func isRTF(text string) bool {
	return strings.HasPrefix(text, `{\rtf`) || strings.Contains(text, `\rtf1`)
}

func isHTML(text string) bool {
	t := strings.TrimSpace(text)
	return strings.HasPrefix(t, "<") &&
		(strings.Contains(t, "<html") || strings.Contains(t, "<body") || strings.Contains(t, "<div"))
}

// destinations are group-opening control words whose body is metadata, not
// document text (font tables, color tables, generator stamps).
var destinations = map[string]bool{
	"fonttbl":    true,
	"colortbl":   true,
	"stylesheet": true,
	"info":       true,
	"pict":       true,
	"generator":  true,
}

// extractRTF walks the RTF byte stream tracking group nesting. Destination
// groups (and anything under \*) are dropped wholesale; in document text,
// \par and \line map to newlines, \tab to a tab, and \'hh hex escapes are
// decoded. Everything else printable passes through.
func extractRTF(rtf string) string {
	var b strings.Builder
	b.Grow(len(rtf))
	src := []byte(rtf)

	depth := 0
	skipAt := -1 // depth of the destination group being skipped, -1 when none
	for i := 0; i < len(src); i++ {
		c := src[i]
		switch {
		case c == '{':
			depth++
			if skipAt < 0 && opensDestination(src[i+1:]) {
				skipAt = depth
			}
		case c == '}':
			if skipAt == depth {
				skipAt = -1
			}
			depth--
		case skipAt >= 0:
			// inside a destination group: consume, emit nothing. Escaped
			// braces must not be mistaken for group structure.
			if c == '\\' {
				i++
			}
		case c == '\\':
			i += consumeControl(src[i:], &b) - 1
		case c >= 32 && c < 127, c == '\n', c == '\r', c == '\t':
			b.WriteByte(c)
		}
	}
	return b.String()
}

// opensDestination reports whether the bytes right after a group-open brace
// begin a destination group.
func opensDestination(src []byte) bool {
	if len(src) < 2 || src[0] != '\\' {
		return false
	}
	if src[1] == '*' {
		return true
	}
	n := 1
	for n < len(src) && isLetter(src[n]) {
		n++
	}
	return destinations[string(src[1:n])]
}

// consumeControl handles one backslash sequence starting at src[0] and
// returns how many bytes it consumed.
func consumeControl(src []byte, b *strings.Builder) int {
	if len(src) < 2 {
		return 1
	}
	next := src[1]
	switch {
	case next == '\\' || next == '{' || next == '}':
		b.WriteByte(next)
		return 2
	case next == '-':
		b.WriteByte('-')
		return 2
	case next == '_':
		b.WriteByte(' ')
		return 2
	case next == '\'' && len(src) >= 4:
		if v, err := strconv.ParseUint(string(src[2:4]), 16, 8); err == nil {
			b.WriteByte(byte(v))
			return 4
		}
		return 2
	case isLetter(next):
		// control word: letters, optional numeric argument, optional
		// trailing space delimiter
		n := 1
		start := n
		for n < len(src) && isLetter(src[n]) {
			n++
		}
		word := string(src[start:n])
		for n < len(src) && (src[n] == '-' || (src[n] >= '0' && src[n] <= '9')) {
			n++
		}
		if n < len(src) && src[n] == ' ' {
			n++
		}
		switch word {
		case "par", "line":
			b.WriteByte('\n')
		case "tab":
			b.WriteByte('\t')
		}
		return n
	default:
		return 2
	}
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

var htmlEntities = strings.NewReplacer(
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&#39;", "'",
	"&nbsp;", " ",
	"&amp;", "&",
)

// extractHTML strips tags and decodes the common entities.
func extractHTML(html string) string {
	var b strings.Builder
	b.Grow(len(html))
	inTag := false
	for _, r := range html {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return htmlEntities.Replace(b.String())
}
