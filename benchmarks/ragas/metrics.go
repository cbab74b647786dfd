// ABOUTME: RAGAS-style scoring of one ask against document ground truth
// ABOUTME: Faithfulness checks the answer text; recall and precision check the retrieved passages

package ragas

import (
	"fmt"
	"strings"
)

// PassThreshold is the minimum faithfulness and recall for a PASS
const PassThreshold = 0.9

// MetricsCalculator scores answers and retrieved sources. Matching is
// case-insensitive substring containment.
type MetricsCalculator struct{}

// NewMetricsCalculator creates a new metrics calculator
func NewMetricsCalculator() *MetricsCalculator {
	return &MetricsCalculator{}
}

// matchTerms splits terms into those contained in text and those not
func matchTerms(text string, terms []string) (found, missing []string) {
	lower := strings.ToLower(text)
	for _, term := range terms {
		if strings.Contains(lower, strings.ToLower(term)) {
			found = append(found, term)
		} else {
			missing = append(missing, term)
		}
	}
	return found, missing
}

// CalculateFaithfulness scores the answer: 1.0 when every expected term is
// present and no forbidden one is, 0.5 for exactly one kind of miss, 0 for both
func (m *MetricsCalculator) CalculateFaithfulness(answer string, expected, forbidden []string) (float64, string) {
	_, missing := matchTerms(answer, expected)
	leaked, _ := matchTerms(answer, forbidden)

	switch {
	case len(missing) == 0 && len(leaked) == 0:
		return 1.0, "answer contains every expected term and nothing forbidden"
	case len(missing) > 0 && len(leaked) > 0:
		return 0.0, fmt.Sprintf("answer misses %v and contains forbidden %v", missing, leaked)
	case len(missing) > 0:
		return 0.5, fmt.Sprintf("answer misses %v", missing)
	default:
		return 0.5, fmt.Sprintf("answer contains forbidden %v", leaked)
	}
}

// CalculateContextRecall is the share of expected items found anywhere in the
// retrieved passages
func (m *MetricsCalculator) CalculateContextRecall(sources, expected []string) (float64, string) {
	if len(expected) == 0 {
		return 1.0, "no passages required"
	}

	found, missing := matchTerms(strings.Join(sources, "\n"), expected)
	recall := float64(len(found)) / float64(len(expected))
	if len(missing) == 0 {
		return recall, "every expected item was retrieved"
	}
	return recall, fmt.Sprintf("recall %.2f, not retrieved: %v", recall, missing)
}

// CalculateContextPrecision is the share of retrieved passages that contain
// at least one expected item. With nothing expected every passage is noise.
func (m *MetricsCalculator) CalculateContextPrecision(sources, expected []string) float64 {
	if len(sources) == 0 {
		if len(expected) == 0 {
			return 1.0
		}
		return 0.0
	}

	relevant := 0
	for _, source := range sources {
		if found, _ := matchTerms(source, expected); len(found) > 0 {
			relevant++
		}
	}
	return float64(relevant) / float64(len(sources))
}

// EvaluateTest scores one scenario's answer and sources. Precision is
// reported but does not decide PASS.
func (m *MetricsCalculator) EvaluateTest(scenario TestScenario, answer string, sources []string) TestResult {
	truth := scenario.GroundTruth
	faithfulness, faithfulnessDetail := m.CalculateFaithfulness(answer, truth.ExpectedInResponse, truth.ForbiddenInResponse)
	recall, recallDetail := m.CalculateContextRecall(sources, truth.ExpectedContextItems)

	status := "FAIL"
	if faithfulness >= PassThreshold && recall >= PassThreshold {
		status = "PASS"
	}

	return TestResult{
		TestID:             scenario.ID,
		TestName:           scenario.Name,
		FaithfulnessScore:  faithfulness,
		ContextRecallScore: recall,
		OverallScore:       (faithfulness + recall) / 2,
		Status:             status,
		Details: map[string]interface{}{
			"faithfulness_detail": faithfulnessDetail,
			"recall_detail":       recallDetail,
			"context_precision":   m.CalculateContextPrecision(sources, truth.ExpectedContextItems),
			"final_response":      truncateRunes(answer, 200),
			"context_items":       len(sources),
		},
	}
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
