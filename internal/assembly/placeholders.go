package assembly

import (
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/gnemet/PromptDeck/internal/generation"
	"google.golang.org/api/slides/v1"
)

// Placeholder kinds.
const (
	KindTitle = "title"
	KindBody  = "body"
	KindOther = "other"
)

// Placeholder is a text-bearing shape found on a slide.
type Placeholder struct {
	ObjectID string
	Kind     string
	Text     string
	Budget   int
	HasText  bool
	Style    *slides.TextStyle
}

// DiscoverPlaceholders returns the shapes of page whose text will be replaced:
// title/body placeholders, text boxes, and any shape already holding text.
// Grouped elements are searched too.
func DiscoverPlaceholders(page *slides.Page, defaultBudget int) []Placeholder {
	if page == nil {
		return nil
	}
	var out []Placeholder
	collect(page.PageElements, defaultBudget, &out)
	return out
}

func collect(elements []*slides.PageElement, defaultBudget int, out *[]Placeholder) {
	for _, el := range elements {
		if el == nil {
			continue
		}
		if el.ElementGroup != nil {
			collect(el.ElementGroup.Children, defaultBudget, out)
			continue
		}
		if el.Shape == nil {
			continue
		}

		sh := el.Shape
		text, style := shapeText(sh.Text)
		kind := KindOther
		eligible := strings.TrimSpace(text) != "" || sh.ShapeType == "TEXT_BOX"
		if sh.Placeholder != nil {
			switch sh.Placeholder.Type {
			case "TITLE", "CENTERED_TITLE":
				kind, eligible = KindTitle, true
			case "BODY":
				kind, eligible = KindBody, true
			case "SUBTITLE":
				eligible = true
			}
		}
		if !eligible {
			continue
		}

		budget := utf8.RuneCountInString(text)
		if budget == 0 {
			budget = defaultBudget
		}
		*out = append(*out, Placeholder{
			ObjectID: el.ObjectId,
			Kind:     kind,
			Text:     text,
			Budget:   budget,
			HasText:  text != "",
			Style:    style,
		})
	}
}

// shapeText joins the shape's runs (without the trailing paragraph break)
// and returns the style of the first styled run.
func shapeText(content *slides.TextContent) (string, *slides.TextStyle) {
	if content == nil {
		return "", nil
	}
	var (
		sb    strings.Builder
		style *slides.TextStyle
	)
	for _, te := range content.TextElements {
		if te == nil || te.TextRun == nil {
			continue
		}
		sb.WriteString(te.TextRun.Content)
		if style == nil && te.TextRun.Style != nil {
			style = te.TextRun.Style
		}
	}
	return strings.TrimRight(sb.String(), "\n"), style
}

// TextEditRequests clears p, inserts text at its start and reapplies the
// captured style over the inserted range.
func TextEditRequests(p Placeholder, text string) []*slides.Request {
	var reqs []*slides.Request
	if p.HasText {
		reqs = append(reqs, &slides.Request{
			DeleteText: &slides.DeleteTextRequest{
				ObjectId:  p.ObjectID,
				TextRange: &slides.Range{Type: "ALL"},
			},
		})
	}
	reqs = append(reqs, &slides.Request{
		InsertText: &slides.InsertTextRequest{
			ObjectId:        p.ObjectID,
			InsertionIndex:  0,
			Text:            text,
			ForceSendFields: []string{"InsertionIndex"},
		},
	})

	fields := styleFields(p.Style)
	if fields == "" || text == "" {
		return reqs
	}
	start, end := int64(0), utf16Len(text)
	reqs = append(reqs, &slides.Request{
		UpdateTextStyle: &slides.UpdateTextStyleRequest{
			ObjectId: p.ObjectID,
			Style:    p.Style,
			TextRange: &slides.Range{
				Type:       "FIXED_RANGE",
				StartIndex: &start,
				EndIndex:   &end,
			},
			Fields: fields,
		},
	})
	return reqs
}

// styleFields lists the set fields of s as an update mask.
func styleFields(s *slides.TextStyle) string {
	if s == nil {
		return ""
	}
	var f []string
	add := func(set bool, name string) {
		if set {
			f = append(f, name)
		}
	}
	add(s.BackgroundColor != nil, "backgroundColor")
	add(s.BaselineOffset != "", "baselineOffset")
	add(s.Bold, "bold")
	add(s.FontFamily != "", "fontFamily")
	add(s.FontSize != nil, "fontSize")
	add(s.ForegroundColor != nil, "foregroundColor")
	add(s.Italic, "italic")
	add(s.Link != nil, "link")
	add(s.SmallCaps, "smallCaps")
	add(s.Strikethrough, "strikethrough")
	add(s.Underline, "underline")
	add(s.WeightedFontFamily != nil, "weightedFontFamily")
	return strings.Join(f, ",")
}

// utf16Len is the length Slides uses for text indexes.
func utf16Len(s string) int64 {
	var n int64
	for _, r := range s {
		n += int64(utf16.RuneLen(r))
	}
	return n
}

func toGeneration(phs []Placeholder) []generation.Placeholder {
	out := make([]generation.Placeholder, len(phs))
	for i, p := range phs {
		out[i] = generation.Placeholder{
			ObjectID:       p.ObjectID,
			CurrentContent: p.Text,
			MaxLength:      p.Budget,
		}
	}
	return out
}
