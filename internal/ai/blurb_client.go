package ai

import (
	"context"
	"fmt"
	"log"
	"time"

	"google.golang.org/genai"
)

type BlurbClient struct {
	client *genai.Client
	model  string
}

func NewBlurbClient(ctx context.Context, apiKey, model string) (*BlurbClient, error) {
	if model == "" {
		model = "gemini-2.5-flash"
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	return &BlurbClient{client: client, model: model}, nil
}

// DraftBlurb asks Gemini for a short catalog description and returns it cleaned.
func (c *BlurbClient) DraftBlurb(ctx context.Context, title, author, category string) (string, error) {
	start := time.Now()
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(BuildBlurbPrompt(category)),
			genai.NewPartFromText(fmt.Sprintf("Title: %s\nAuthor: %s", title, author)),
		}, genai.RoleUser),
	}
	temp := float32(0.7)
	config := &genai.GenerateContentConfig{Temperature: &temp}

	log.Printf("[blurb] stage=gemini_start model=%s title=%q", c.model, title)
	res, err := c.client.Models.GenerateContent(ctx, c.model, contents, config)
	if err != nil {
		log.Printf("[blurb] stage=gemini_fail model=%s err=%v", c.model, err)
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	text, err := CleanBlurb(res.Text())
	if err != nil {
		log.Printf("[blurb] stage=parse_fail len=%d err=%v", len(res.Text()), err)
		return "", err
	}
	log.Printf("[blurb] stage=done len=%d totalMs=%d", len(text), time.Since(start).Milliseconds())
	return text, nil
}
