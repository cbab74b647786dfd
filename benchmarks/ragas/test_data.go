// ABOUTME: Scenario data structures for RAGAS-style retrieval benchmarks
// ABOUTME: Each scenario pairs a document and question with ground truth for scoring

package ragas

import "github.com/harper/ragdoc/internal/models"

// TestScenario is one document, one question, and what a correct answer needs
type TestScenario struct {
	ID          string
	Name        string
	Description string
	Document    string
	Question    string
	GroundTruth GroundTruth
}

// GroundTruth defines expected outcomes for RAGAS evaluation
type GroundTruth struct {
	ExpectedInResponse  []string // must appear in the answer
	ForbiddenInResponse []string // must not appear in the answer

	// Passages that retrieval should surface
	ExpectedContextItems []string
}

// TestResult represents the outcome of a benchmark test
type TestResult struct {
	TestID             string                 `json:"test_id"`
	TestName           string                 `json:"test_name"`
	FaithfulnessScore  float64                `json:"faithfulness_score"`
	ContextRecallScore float64                `json:"context_recall_score"`
	OverallScore       float64                `json:"overall_score"`
	Status             string                 `json:"status"` // "PASS" or "FAIL"
	Details            map[string]interface{} `json:"details,omitempty"`
	ErrorMessage       string                 `json:"error_message,omitempty"`
}

const veloriaDocument = `Veloria is a small island nation in the northern sea, governed by an elected council.
Its capital city is Port Amsel, home to the royal harbor and the old lighthouse.
The national currency of Veloria is the silver crown, first minted in 1872.
Fishing and shipbuilding remain the largest industries on the island today.
Every spring the Lantern Festival fills the streets with paper lights and music.`

const maintenanceDocument = `To keep the engine healthy, change the oil every 5,000 miles using synthetic 5W-30.
Replace the air filter every 12,000 miles, or sooner when driving on dusty roads.
Rotate the tires every 7,500 miles so the tread wears evenly on all four wheels.
Brake pads usually last between 30,000 and 70,000 miles depending on driving habits.
Check the coolant level monthly and top it up only when the engine is cold.`

// GetCapitalLookup asks for a fact stated once in the document
func GetCapitalLookup() TestScenario {
	return TestScenario{
		ID:          "capital",
		Name:        "Single Fact Lookup",
		Description: "The answer sits in one sentence and must not borrow neighbouring facts",
		Document:    veloriaDocument,
		Question:    "What is the capital city of Veloria?",
		GroundTruth: GroundTruth{
			ExpectedInResponse:   []string{"Port Amsel"},
			ForbiddenInResponse:  []string{"silver crown"},
			ExpectedContextItems: []string{"Port Amsel"},
		},
	}
}

// GetIndustries asks about a fact near the end of the document
func GetIndustries() TestScenario {
	return TestScenario{
		ID:          "industries",
		Name:        "Late Passage Retrieval",
		Description: "Retrieval must reach past the opening chunks",
		Document:    veloriaDocument,
		Question:    "Which industries are the largest on the island?",
		GroundTruth: GroundTruth{
			ExpectedInResponse:   []string{"shipbuilding"},
			ExpectedContextItems: []string{"Fishing and shipbuilding"},
		},
	}
}

// GetNotInDocument asks something the document cannot answer
func GetNotInDocument() TestScenario {
	return TestScenario{
		ID:          "not_found",
		Name:        "Answer Not In Document",
		Description: "The model must say the answer is missing rather than guess",
		Document:    veloriaDocument,
		Question:    "Who won the chess championship in 1990?",
		GroundTruth: GroundTruth{
			ExpectedInResponse:  []string{models.NotFoundPhrase},
			ForbiddenInResponse: []string{"Port Amsel"},
		},
	}
}

// GetServiceInterval asks for one number among several similar ones
func GetServiceInterval() TestScenario {
	return TestScenario{
		ID:          "air_filter",
		Name:        "Numeric Fact Among Distractors",
		Description: "Several intervals are listed; only the air filter one is correct",
		Document:    maintenanceDocument,
		Question:    "How often should the air filter be replaced?",
		GroundTruth: GroundTruth{
			ExpectedInResponse:   []string{"12,000"},
			ForbiddenInResponse:  []string{"7,500"},
			ExpectedContextItems: []string{"12,000 miles"},
		},
	}
}

// GetCoolantCheck asks about the last sentence of a longer document
func GetCoolantCheck() TestScenario {
	return TestScenario{
		ID:          "coolant",
		Name:        "Final Sentence Retrieval",
		Description: "The answer is in the last chunk",
		Document:    maintenanceDocument,
		Question:    "When should I check the coolant level?",
		GroundTruth: GroundTruth{
			ExpectedInResponse:   []string{"monthly"},
			ExpectedContextItems: []string{"coolant level monthly"},
		},
	}
}

// GetAllTests returns every scenario in run order
func GetAllTests() []TestScenario {
	return []TestScenario{
		GetCapitalLookup(),
		GetIndustries(),
		GetNotInDocument(),
		GetServiceInterval(),
		GetCoolantCheck(),
	}
}

// GetTest returns the scenario with id
func GetTest(id string) (TestScenario, bool) {
	for _, s := range GetAllTests() {
		if s.ID == id {
			return s, true
		}
	}
	return TestScenario{}, false
}
