package gemini

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
)

// GenerateImage asks an image-capable model for a single image and returns
// its raw bytes and MIME type.
func (c *Client) GenerateImage(ctx context.Context, model, prompt string) ([]byte, string, error) {
	resp, err := c.generateWithRetry(ctx, model, GenConfig{}, genai.Text(prompt))
	if err != nil {
		return nil, "", err
	}
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, p := range cand.Content.Parts {
			if blob, ok := p.(*genai.Blob); ok && len(blob.Data) > 0 {
				return blob.Data, blob.MIMEType, nil
			}
		}
	}
	return nil, "", fmt.Errorf("gemini: no image data in response from %s", model)
}
