package generation

import (
	"fmt"
	"strings"
)

func themesSystemPrompt(prompt string, n int) string {
	return fmt.Sprintf(`You are an expert presentation writer. Based on the prompt %q,
generate %d slide themes that together form a coherent presentation with a beginning, a middle and an end.
Each theme must be concise (at most %d characters) and straight to the point.
Write in the language of the prompt.
Return JSON in exactly this format: { "themes": ["theme 1", "theme 2", ...] }`, prompt, n, MaxThemeLength)
}

const slideSystemPrompt = `You write the text of presentation slides.
Generate text for every placeholder of the slide, keeping the placeholders coherent with each other and respecting each character limit.
The text must fit the slide theme and the overall presentation prompt. Write in the user's language unless asked otherwise.
Return only the JSON object with the generated content, no explanations.`

func slideUserPrompt(prompt, theme string, placeholders []Placeholder) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Overall presentation prompt: %s\n", prompt)
	fmt.Fprintf(&b, "Theme of this slide: %s\n\n", theme)
	b.WriteString("Generate content for the following placeholders. Respect the character limit of each one:\n")
	for _, p := range placeholders {
		fmt.Fprintf(&b, "- ID: %s\n", p.ObjectID)
		fmt.Fprintf(&b, "  Current template text (tells you the role of this placeholder): %s\n", p.CurrentContent)
		fmt.Fprintf(&b, "  Character limit: %d\n", p.MaxLength)
	}
	b.WriteString("\nReturn JSON in the format:\n{\n  \"placeholder_id\": \"generated text\",\n  ...\n}")
	return b.String()
}
