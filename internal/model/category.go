package model

import (
	"strings"

	"github.com/google/uuid"
)

// Category drives keyword-based auto-classification. Keywords is a
// comma-separated list of lowercase tokens, as entered by the user.
type Category struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Icon     string `json:"icon"`
	Keywords string `json:"keywords"`
	Type     string `json:"type"` // Income or Expense
}

func (c *Category) GenerateID() {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
}

// KeywordList splits the stored keywords into trimmed lowercase tokens.
func (c *Category) KeywordList() []string {
	parts := strings.Split(c.Keywords, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// NormalizeKeywords canonicalizes user keyword input (lowercase, trimmed,
// comma-joined) before it is stored.
func NormalizeKeywords(input string) string {
	parts := strings.Split(strings.ToLower(input), ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, ",")
}
