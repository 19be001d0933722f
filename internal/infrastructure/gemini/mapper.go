package gemini

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/platelens/backend/internal/domain"
)

// ErrEmptyResponse is returned when the model produced no text
var ErrEmptyResponse = errors.New("model returned no text")

// buildRequest converts a prompt and optional image into a generateContent body
func buildRequest(prompt string, image *domain.Image) generateRequest {
	parts := []part{{Text: prompt}}
	if image != nil && len(image.Data) > 0 {
		parts = append(parts, part{
			InlineData: &inlineData{
				MIMEType: image.MIMEType,
				Data:     base64.StdEncoding.EncodeToString(image.Data),
			},
		})
	}

	return generateRequest{
		Contents: []content{{Role: "user", Parts: parts}},
	}
}

// extractText joins the text parts of the first candidate
func extractText(resp *generateResponse) (string, error) {
	if len(resp.Candidates) == 0 {
		if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			return "", fmt.Errorf("prompt blocked: %s", resp.PromptFeedback.BlockReason)
		}
		return "", ErrEmptyResponse
	}

	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}

	if sb.Len() == 0 {
		if reason := resp.Candidates[0].FinishReason; reason != "" && reason != "STOP" {
			return "", fmt.Errorf("%w (finish reason %s)", ErrEmptyResponse, reason)
		}
		return "", ErrEmptyResponse
	}

	return sb.String(), nil
}
