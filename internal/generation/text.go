package generation

import (
	"bytes"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/russross/blackfriday/v2"
	"golang.org/x/text/unicode/norm"
)

// inlineMarkup is what models sprinkle into plain-text answers.
var inlineMarkup = []string{"**", "__", "`", "](", "# "}

// normalize strips inline markdown, composes to NFC and trims.
func normalize(s string) string {
	s = strings.TrimSpace(s)
	for _, m := range inlineMarkup {
		if strings.Contains(s, m) {
			s = plainText(s)
			break
		}
	}
	return strings.TrimSpace(norm.NFC.String(s))
}

// plainText renders markdown to its text content, one line per block.
// Raw HTML and list markers are kept as written; ordered lists are
// renumbered from 1.
func plainText(md string) string {
	root := blackfriday.New(blackfriday.WithExtensions(blackfriday.CommonExtensions)).Parse([]byte(md))

	var b strings.Builder
	root.Walk(func(n *blackfriday.Node, entering bool) blackfriday.WalkStatus {
		switch n.Type {
		case blackfriday.Text, blackfriday.Code, blackfriday.CodeBlock, blackfriday.HTMLSpan:
			if entering {
				b.Write(n.Literal)
			}
		case blackfriday.HTMLBlock:
			if entering {
				b.Write(bytes.TrimRight(n.Literal, "\n"))
				b.WriteByte('\n')
			}
		case blackfriday.Item:
			if entering {
				b.WriteString(itemMarker(n))
			}
		case blackfriday.Softbreak, blackfriday.Hardbreak:
			if entering {
				b.WriteByte('\n')
			}
		case blackfriday.Paragraph, blackfriday.Heading:
			if !entering {
				b.WriteByte('\n')
			}
		}
		return blackfriday.GoToNext
	})
	return strings.TrimRight(b.String(), "\n")
}

// itemMarker is the prefix of a list item: "n. " for ordered lists, the
// bullet otherwise.
func itemMarker(n *blackfriday.Node) string {
	if n.ListFlags&blackfriday.ListTypeOrdered == 0 {
		bullet := n.BulletChar
		if bullet == 0 {
			bullet = '-'
		}
		return string(bullet) + " "
	}
	pos := 1
	for prev := n.Prev; prev != nil; prev = prev.Prev {
		pos++
	}
	delim := n.Delimiter
	if delim == 0 {
		delim = '.'
	}
	return strconv.Itoa(pos) + string(delim) + " "
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}

func truncate(s string, n int) string {
	if n < 0 || runeLen(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// extractJSON drops code fences and any chatter around the outermost object.
func extractJSON(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		return s[start : end+1]
	}
	return strings.TrimSpace(s)
}
