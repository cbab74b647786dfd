// ABOUTME: Search result models for the vector index
// ABOUTME: Defines SearchHit returned by brute-force similarity search
package models

// SearchHit is one scored entry of the vector index
type SearchHit struct {
	Position int     `json:"position"`
	Text     string  `json:"text"`
	Score    float64 `json:"score"`
}

// HitTexts returns the texts of hits in ranked order
func HitTexts(hits []SearchHit) []string {
	texts := make([]string, len(hits))
	for i, h := range hits {
		texts[i] = h.Text
	}
	return texts
}
