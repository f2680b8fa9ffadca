package render

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	xhtml "golang.org/x/net/html"
)

// ContentToText converts post or comment content to wrapped plain text.
// Bots usually write plain text with newlines, but some models answer in
// light HTML: <p>, <br>, <a>, <i>/<em>, <b>/<strong>, <code>, <pre>, <li>
// and headings. Anything else is reduced to its text.
func ContentToText(raw string, width int) string {
	if raw == "" {
		return ""
	}
	if !strings.Contains(raw, "<") {
		return wrapText(strings.TrimSpace(raw), width)
	}

	tokenizer := xhtml.NewTokenizer(strings.NewReader(raw))
	var sb strings.Builder
	var inPre, inCode bool
	var anchorURL string

	newline := func(n int) {
		s := sb.String()
		have := len(s) - len(strings.TrimRight(s, "\n"))
		if sb.Len() == 0 {
			return
		}
		for ; have < n; have++ {
			sb.WriteString("\n")
		}
	}

	for {
		tt := tokenizer.Next()
		switch tt {
		case xhtml.ErrorToken:
			return wrapText(strings.TrimSpace(sb.String()), width)

		case xhtml.StartTagToken, xhtml.SelfClosingTagToken:
			t := tokenizer.Token()
			switch t.Data {
			case "p", "h1", "h2", "h3", "h4", "h5", "h6", "ul", "ol":
				newline(2)
			case "br":
				sb.WriteString("\n")
			case "li":
				newline(1)
				sb.WriteString("• ")
			case "i", "em":
				sb.WriteString("*")
			case "b", "strong":
				sb.WriteString("**")
			case "code":
				if !inPre {
					sb.WriteString("`")
				}
				inCode = true
			case "pre":
				inPre = true
				sb.WriteString("\n")
			case "a":
				for _, attr := range t.Attr {
					if attr.Key == "href" {
						anchorURL = attr.Val
					}
				}
			}

		case xhtml.EndTagToken:
			t := tokenizer.Token()
			switch t.Data {
			case "i", "em":
				sb.WriteString("*")
			case "b", "strong":
				sb.WriteString("**")
			case "code":
				if !inPre {
					sb.WriteString("`")
				}
				inCode = false
			case "pre":
				inPre = false
				sb.WriteString("\n")
			case "a":
				if anchorURL != "" {
					text := strings.TrimSpace(sb.String())
					// Only append URL if it differs from the link text.
					if !strings.HasSuffix(text, anchorURL) {
						sb.WriteString(" [")
						sb.WriteString(anchorURL)
						sb.WriteString("]")
					}
				}
				anchorURL = ""
			}

		case xhtml.TextToken:
			text := tokenizer.Token().Data
			switch {
			case inPre:
				// Preserve whitespace in pre blocks, indent with 4 spaces.
				for i, line := range strings.Split(text, "\n") {
					if i > 0 {
						sb.WriteString("\n")
					}
					if line != "" {
						sb.WriteString("    ")
						sb.WriteString(line)
					}
				}
			case inCode:
				sb.WriteString(text)
			default:
				sb.WriteString(collapseSpace(text))
			}
		}
	}
}

func collapseSpace(s string) string {
	if strings.TrimSpace(s) == "" {
		if s == "" {
			return ""
		}
		return " "
	}
	lead := s[0] == ' ' || s[0] == '\n' || s[0] == '\t'
	trail := strings.ContainsAny(s[len(s)-1:], " \n\t")
	out := strings.Join(strings.Fields(s), " ")
	if lead {
		out = " " + out
	}
	if trail {
		out += " "
	}
	return out
}

// wrapText performs word wrapping to the given display width. Wide runes
// such as Hangul count as two columns.
func wrapText(text string, width int) string {
	if width <= 0 {
		return text
	}
	var result strings.Builder
	for _, paragraph := range strings.Split(text, "\n") {
		if strings.HasPrefix(paragraph, "    ") {
			// Don't wrap code blocks.
			result.WriteString(paragraph)
			result.WriteString("\n")
			continue
		}
		words := strings.Fields(paragraph)
		if len(words) == 0 {
			result.WriteString("\n")
			continue
		}
		lineLen := 0
		for i, word := range words {
			wlen := lipgloss.Width(word)
			if i > 0 && lineLen+1+wlen > width {
				result.WriteString("\n")
				lineLen = 0
			} else if i > 0 {
				result.WriteString(" ")
				lineLen++
			}
			result.WriteString(word)
			lineLen += wlen
		}
		result.WriteString("\n")
	}
	return strings.TrimRight(result.String(), "\n")
}

// Preview returns the first line of text cut to at most n runes.
func Preview(text string, n int) string {
	line := strings.TrimSpace(text)
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = strings.TrimSpace(line[:i])
	}
	runes := []rune(line)
	if n > 0 && len(runes) > n {
		return string(runes[:max(n-1, 0)]) + "…"
	}
	return line
}
