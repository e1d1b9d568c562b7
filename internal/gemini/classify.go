package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jwyang/deckgen/internal/krtext"
	"github.com/jwyang/deckgen/internal/section"
)

// maxClassifyTextRunes bounds how much of each ambiguous block is sent.
const maxClassifyTextRunes = 2500

// SectionClassifier resolves ambiguous proposal blocks into section labels
// via a JSON-only prompt. It implements section.Reclassifier.
type SectionClassifier struct {
	client *Client
	model  string
}

// NewSectionClassifier builds a classifier on a shared client.
func NewSectionClassifier(client *Client, model string) *SectionClassifier {
	return &SectionClassifier{client: client, model: model}
}

type classifyItemIn struct {
	ID      int      `json:"id"`
	Heading string   `json:"heading_section"`
	Allowed []string `json:"allowed_sections"`
	Text    string   `json:"text"`
}

type classifyItemOut struct {
	ID      int    `json:"id"`
	Section string `json:"section"`
}

// ReclassifySections asks the model to pick one allowed section per item.
// Answers outside an item's allowed set are dropped here; the splitter
// guards again on its side.
func (sc *SectionClassifier) ReclassifySections(ctx context.Context, items []section.ReclassifyItem) (map[int]section.Label, error) {
	if len(items) == 0 {
		return nil, nil
	}

	payload := make([]classifyItemIn, 0, len(items))
	allowed := make(map[int]map[section.Label]bool, len(items))
	for _, it := range items {
		names := make([]string, 0, len(it.Allowed))
		set := make(map[section.Label]bool, len(it.Allowed))
		for _, l := range it.Allowed {
			names = append(names, l.String())
			set[l] = true
		}
		allowed[it.ID] = set
		payload = append(payload, classifyItemIn{
			ID:      it.ID,
			Heading: it.Heading.String(),
			Allowed: names,
			Text:    krtext.TruncateRunes(it.Text, maxClassifyTextRunes),
		})
	}

	body, err := json.Marshal(map[string]any{"items": payload})
	if err != nil {
		return nil, fmt.Errorf("classify: marshal payload: %w", err)
	}
	prompt := "너는 국가 R&D 제안서 문서 섹션 분류기다.\n" +
		"입력 items의 각 text를 읽고, 해당 item.allowed_sections 중에서만 하나를 고른다.\n" +
		"반드시 JSON만 출력한다. 설명 문장 금지.\n" +
		"출력 스키마:\n" +
		`{"items":[{"id":0,"section":"연구 개요"}]}` + "\n\n" +
		"입력:\n" + string(body)

	raw, err := sc.client.GenerateText(ctx, sc.model, GenConfig{JSONResponse: true}, prompt)
	if err != nil {
		return nil, fmt.Errorf("classify: %w", err)
	}

	var out struct {
		Items []classifyItemOut `json:"items"`
	}
	if err := json.Unmarshal([]byte(extractJSONBlock(raw)), &out); err != nil {
		return nil, fmt.Errorf("classify: decode response: %w", err)
	}

	result := make(map[int]section.Label)
	for _, row := range out.Items {
		label, ok := section.ParseLabel(row.Section)
		if !ok {
			continue
		}
		if set, found := allowed[row.ID]; found && set[label] {
			result[row.ID] = label
		}
	}
	return result, nil
}

// extractJSONBlock cuts the outermost JSON object out of a response that
// may carry stray text around it.
func extractJSONBlock(s string) string {
	t := strings.TrimSpace(s)
	i := strings.Index(t, "{")
	j := strings.LastIndex(t, "}")
	if i >= 0 && j > i {
		return t[i : j+1]
	}
	return t
}
