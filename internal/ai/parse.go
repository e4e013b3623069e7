package ai

import (
	"errors"
	"regexp"
	"strings"
)

const maxBlurbLen = 600

var (
	labelPrefix   = regexp.MustCompile(`(?i)^\s*(blurb|description)\s*:\s*`)
	markdownMarks = regexp.MustCompile("[*_#`]+")
	spaceRun      = regexp.MustCompile(`\s+`)
	ErrEmptyDraft = errors.New("empty_draft")
)

// CleanBlurb strips labels, markdown and wrapping quotes from model output and
// trims it to a sentence boundary within maxBlurbLen.
func CleanBlurb(text string) (string, error) {
	text = labelPrefix.ReplaceAllString(text, "")
	text = markdownMarks.ReplaceAllString(text, "")
	text = spaceRun.ReplaceAllString(text, " ")
	text = strings.TrimSpace(text)
	text = strings.Trim(text, `"“”'`)
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyDraft
	}
	if len(text) <= maxBlurbLen {
		return text, nil
	}
	cut := text[:maxBlurbLen]
	if i := strings.LastIndexAny(cut, ".!?"); i > 0 {
		return cut[:i+1], nil
	}
	return strings.TrimSpace(cut), nil
}
