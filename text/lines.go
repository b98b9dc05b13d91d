package text

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// DefaultLineEnding is used when a buffer gives no hint about its line endings
const DefaultLineEnding = "\n"

// placeholderPattern matches one editor template token such as `<#name#>`,
// optionally preceded by whitespace. Only the first token is stripped.
var placeholderPattern = regexp.MustCompile(`^\s*<#.*?#>`)

// LineBreak returns the line break s ends with: "\r\n", "\n", "\r" or "".
func LineBreak(s string) string {
	switch {
	case strings.HasSuffix(s, "\r\n"):
		return "\r\n"
	case strings.HasSuffix(s, "\n"):
		return "\n"
	case strings.HasSuffix(s, "\r"):
		return "\r"
	default:
		return ""
	}
}

// LineEnding detects the line ending convention of a buffer from its first
// line, falling back to DefaultLineEnding.
func LineEnding(lines []string) string {
	if len(lines) == 0 {
		return DefaultLineEnding
	}
	if ending := LineBreak(lines[0]); ending != "" {
		return ending
	}
	return DefaultLineEnding
}

// DropLineBreak removes one trailing line break from s
func DropLineBreak(s string) string {
	return s[:len(s)-len(LineBreak(s))]
}

// RecoverLineBreak makes s end with exactly one ending
func RecoverLineBreak(s, ending string) string {
	return DropLineBreak(s) + ending
}

// IsEmptyOrNewline is true for "" and for lines holding only a line break
func IsEmptyOrNewline(s string) bool {
	return s == "" || s == LineBreak(s)
}

// BreakLines splits text at "\r\n", "\n" and "\r" and terminates every line
// but the last with ending. When appendBreakToLast is set the last line is
// terminated too. The result always has at least one element.
func BreakLines(text, ending string, appendBreakToLast bool) []string {
	var lines []string
	start := 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '\n':
			lines = append(lines, text[start:i]+ending)
			start = i + 1
		case '\r':
			lines = append(lines, text[start:i]+ending)
			if i+1 < len(text) && text[i+1] == '\n' {
				i++
			}
			start = i + 1
		}
	}
	last := text[start:]
	if appendBreakToLast {
		last += ending
	}
	return append(lines, last)
}

// SplitContent breaks a whole document into buffer lines, each keeping its
// own line break. A trailing empty line is not produced.
func SplitContent(content string) []string {
	if content == "" {
		return []string{}
	}
	var lines []string
	start := 0
	for i := 0; i < len(content); i++ {
		switch content[i] {
		case '\n':
			lines = append(lines, content[start:i+1])
			start = i + 1
		case '\r':
			if i+1 < len(content) && content[i+1] == '\n' {
				i++
			}
			lines = append(lines, content[start:i+1])
			start = i + 1
		}
	}
	if start < len(content) {
		lines = append(lines, content[start:])
	}
	return lines
}

// CommonPrefixLength returns the length, in UTF-16 units, of the longest
// common prefix of a and b. Runes are compared whole.
func CommonPrefixLength(a, b string) int {
	n := 0
	for len(a) > 0 && len(b) > 0 {
		ra, sa := utf8.DecodeRuneInString(a)
		rb, sb := utf8.DecodeRuneInString(b)
		if ra != rb || sa != sb {
			break
		}
		n += utf16Width(ra)
		a, b = a[sa:], b[sb:]
	}
	return n
}

// RemoveLeadingPlaceholder strips at most one placeholder token sitting at
// the start of s. Adjacent tokens after the first are kept.
func RemoveLeadingPlaceholder(s string) string {
	loc := placeholderPattern.FindStringIndex(s)
	if loc == nil {
		return s
	}
	return s[loc[1]:]
}
