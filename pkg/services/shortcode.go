package services

import (
	"regexp"
	"strings"
)

var (
	// `{{< name args >}}` or `{{% name args %}}` rendered as inline code.
	codeWrappedShortcode = regexp.MustCompile("`(\\{\\{[<%][^`\\n]*?[>%]\\}\\})`")
	escapedBlockquote    = regexp.MustCompile(`(?m)^\\> `)
)

// RepairShortcodes strips the single backticks the export puts around Hugo
// shortcodes that were typed in a monospace font. Double-backtick code spans
// are left alone so authors can still show a shortcode literally.
func RepairShortcodes(markdown string) string {
	matches := codeWrappedShortcode.FindAllStringSubmatchIndex(markdown, -1)
	if len(matches) == 0 {
		return markdown
	}

	literal := literalSpans(markdown)

	var b strings.Builder
	b.Grow(len(markdown))
	last := 0
	for _, m := range matches {
		if insideSpan(literal, m[0]) {
			continue
		}
		if m[0] > 0 && markdown[m[0]-1] == '`' {
			continue
		}
		if m[1] < len(markdown) && markdown[m[1]] == '`' {
			continue
		}
		b.WriteString(markdown[last:m[0]])
		b.WriteString(markdown[m[2]:m[3]])
		last = m[1]
	}
	b.WriteString(markdown[last:])
	return b.String()
}

// literalSpans returns the byte ranges of code spans opened by two or more backticks.
func literalSpans(s string) [][2]int {
	var spans [][2]int
	for i := 0; i < len(s); {
		if s[i] != '`' {
			i++
			continue
		}
		start := i
		for i < len(s) && s[i] == '`' {
			i++
		}
		if i-start < 2 {
			continue
		}
		if end := closingRun(s, i, i-start); end >= 0 {
			spans = append(spans, [2]int{start, end})
			i = end
		}
	}
	return spans
}

// closingRun finds the end of the next run of exactly n backticks at or after from.
func closingRun(s string, from, n int) int {
	for i := from; i < len(s); {
		if s[i] != '`' {
			i++
			continue
		}
		start := i
		for i < len(s) && s[i] == '`' {
			i++
		}
		if i-start == n {
			return i
		}
	}
	return -1
}

func insideSpan(spans [][2]int, pos int) bool {
	for _, sp := range spans {
		if pos >= sp[0] && pos < sp[1] {
			return true
		}
	}
	return false
}

// UnescapeBlockquotes turns line-leading "\> " back into a blockquote marker.
func UnescapeBlockquotes(markdown string) string {
	return escapedBlockquote.ReplaceAllString(markdown, "> ")
}
