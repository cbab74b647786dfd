// ABOUTME: Tests for faithfulness and context recall scoring
// ABOUTME: Covers full, partial, and failed matches

package ragas

import "testing"

func TestCalculateFaithfulness(t *testing.T) {
	m := NewMetricsCalculator()

	tests := []struct {
		name      string
		response  string
		expected  []string
		forbidden []string
		want      float64
	}{
		{"all expected, none forbidden", "The capital is Port Amsel.", []string{"port amsel"}, []string{"silver crown"}, 1.0},
		{"missing expected", "The capital is unknown.", []string{"Port Amsel"}, nil, 0.5},
		{"forbidden present", "Port Amsel, paid in silver crown.", []string{"Port Amsel"}, []string{"silver crown"}, 0.5},
		{"both failures", "Silver crown.", []string{"Port Amsel"}, []string{"silver crown"}, 0.0},
		{"no constraints", "anything", nil, nil, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, detail := m.CalculateFaithfulness(tt.response, tt.expected, tt.forbidden)
			if got != tt.want {
				t.Errorf("score = %.2f, want %.2f (%s)", got, tt.want, detail)
			}
		})
	}
}

func TestCalculateContextRecall(t *testing.T) {
	m := NewMetricsCalculator()

	tests := []struct {
		name      string
		retrieved []string
		expected  []string
		want      float64
	}{
		{"nothing required", nil, nil, 1.0},
		{"all found across passages", []string{"fishing and", "shipbuilding remain"}, []string{"fishing", "shipbuilding"}, 1.0},
		{"half found", []string{"Port Amsel harbor"}, []string{"Port Amsel", "silver crown"}, 0.5},
		{"none found", []string{"unrelated"}, []string{"Port Amsel"}, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, detail := m.CalculateContextRecall(tt.retrieved, tt.expected)
			if got != tt.want {
				t.Errorf("recall = %.2f, want %.2f (%s)", got, tt.want, detail)
			}
		})
	}
}

func TestCalculateContextPrecision(t *testing.T) {
	m := NewMetricsCalculator()

	tests := []struct {
		name      string
		retrieved []string
		expected  []string
		want      float64
	}{
		{"nothing retrieved, nothing expected", nil, nil, 1.0},
		{"nothing retrieved", nil, []string{"Port Amsel"}, 0.0},
		{"one of two relevant", []string{"capital is Port Amsel", "lantern festival"}, []string{"port amsel"}, 0.5},
		{"all relevant", []string{"fishing", "shipbuilding"}, []string{"fishing", "shipbuilding"}, 1.0},
		{"noise when nothing expected", []string{"lantern festival"}, nil, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := m.CalculateContextPrecision(tt.retrieved, tt.expected); got != tt.want {
				t.Errorf("precision = %.2f, want %.2f", got, tt.want)
			}
		})
	}
}

func TestEvaluateTest(t *testing.T) {
	m := NewMetricsCalculator()
	scenario := GetCapitalLookup()

	pass := m.EvaluateTest(scenario, "Port Amsel.", []string{"Its capital city is Port Amsel"})
	if pass.Status != "PASS" || pass.OverallScore != 1.0 {
		t.Errorf("pass = %+v", pass)
	}

	fail := m.EvaluateTest(scenario, "The silver crown.", nil)
	if fail.Status != "FAIL" {
		t.Errorf("fail status = %s, want FAIL", fail.Status)
	}
	if fail.Details["recall_detail"] == "" {
		t.Error("details should explain the recall score")
	}
	if fail.Details["context_precision"] != 0.0 {
		t.Errorf("precision = %v, want 0 with no sources", fail.Details["context_precision"])
	}
}

func TestGetTest(t *testing.T) {
	for _, s := range GetAllTests() {
		got, ok := GetTest(s.ID)
		if !ok || got.Name != s.Name {
			t.Errorf("GetTest(%q) = %+v, %v", s.ID, got, ok)
		}
	}
	if _, ok := GetTest("missing"); ok {
		t.Error("GetTest(missing) should fail")
	}
}
