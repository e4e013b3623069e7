package ai

import "strings"

const basePrompt = `You write back-cover blurbs for an online bookshop catalog.

Hard rules (must follow):

* Write 2 to 4 sentences of plain prose, at most 90 words.
* Do NOT invent awards, sales figures, quotes or reviews.
* Do NOT reveal the ending or major plot twists.
* No markdown, no headings, no bullet points, no emoji.
* If you do not recognise the book, describe it only from its title and author without claiming facts.`

var categoryPrompts = map[string]string{
	"fiction":  `Tone (fiction): evocative and character-led. Open with the protagonist or the central tension.`,
	"scifi":    `Tone (science fiction): vivid sense of setting and scale. Name the central idea without jargon.`,
	"history":  `Tone (history): measured and precise. State the period and why it matters to a curious reader.`,
	"science":  `Tone (popular science): clear and inviting. Lead with the question the book answers.`,
	"children": `Tone (children's): warm and simple. Write for a parent choosing a book to read aloud.`,
}

const generalPrompt = `Tone (general): friendly and informative, aimed at a browsing reader.`

const outputSuffix = `Return only the blurb text.`

// BuildBlurbPrompt joins the base rules, a category tone and the output rule.
// Unknown categories fall back to a general tone.
func BuildBlurbPrompt(category string) string {
	category = strings.TrimSpace(strings.ToLower(category))
	tone, ok := categoryPrompts[category]
	if !ok {
		tone = generalPrompt
	}
	return strings.Join([]string{basePrompt, tone, outputSuffix}, "\n\n")
}
