package gemini

import (
	"errors"
	"strings"

	"google.golang.org/genai"
)

var (
	errNoCandidates = errors.New("no response from Gemini")
	errNoImage      = errors.New("no image in Gemini response")
)

// extractText は最初の候補のテキストパートを連結して返します。
// テキストが無い場合はエラーではなく空文字を返します。
func extractText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	c := resp.Candidates[0]
	if c == nil || c.Content == nil {
		return ""
	}

	var sb strings.Builder
	for _, p := range c.Content.Parts {
		if p == nil || p.Thought {
			continue
		}
		sb.WriteString(p.Text)
	}
	return sb.String()
}

// extractImage は最初の候補からインライン画像を含むパートを探して返します。
func extractImage(resp *genai.GenerateContentResponse) (*genai.Blob, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil || resp.Candidates[0].Content == nil {
		return nil, errNoCandidates
	}
	for _, p := range resp.Candidates[0].Content.Parts {
		if p != nil && p.InlineData != nil && len(p.InlineData.Data) > 0 {
			return p.InlineData, nil
		}
	}
	return nil, errNoImage
}
