// ABOUTME: Test runner for RAGAS benchmarks - executes scenarios and collects results
// ABOUTME: Ingests each scenario's document into a throwaway session, asks, and scores

package ragas

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/harper/ragdoc/internal/app"
	"github.com/harper/ragdoc/internal/config"
)

// BenchmarkRunner executes RAGAS benchmark tests
type BenchmarkRunner struct {
	app     *app.App
	metrics *MetricsCalculator
	verbose bool
	out     io.Writer
}

// BenchmarkConfig copies base and pins the settings the scenarios were written for
func BenchmarkConfig(base *config.Config) *config.Config {
	cfg := *base
	cfg.StoreBackend = config.BackendMemory
	cfg.ChunkSize = 160
	cfg.ChunkOverlap = 40
	cfg.MinChunkLength = 20
	cfg.TopK = 2
	return &cfg
}

// NewBenchmarkRunner creates a runner over a wired app. Progress goes to out.
func NewBenchmarkRunner(a *app.App, verbose bool, out io.Writer) *BenchmarkRunner {
	if out == nil {
		out = io.Discard
	}
	return &BenchmarkRunner{
		app:     a,
		metrics: NewMetricsCalculator(),
		verbose: verbose,
		out:     out,
	}
}

// RunTest executes a single benchmark test in its own session
func (r *BenchmarkRunner) RunTest(ctx context.Context, scenario TestScenario) (TestResult, error) {
	if r.verbose {
		fmt.Fprintf(r.out, "\n========================================\n")
		fmt.Fprintf(r.out, "RUNNING: %s\n", scenario.Name)
		fmt.Fprintf(r.out, "========================================\n")
		fmt.Fprintf(r.out, "Description: %s\n\n", scenario.Description)
	}

	sessionID, err := r.app.NewSession()
	if err != nil {
		return TestResult{}, fmt.Errorf("creating session: %w", err)
	}
	defer func() {
		if err := r.app.Reset(sessionID); err != nil {
			log.Warn("resetting benchmark session", "session", sessionID, "err", err)
		}
	}()

	start := time.Now()
	ingest, err := r.app.Ingest(ctx, sessionID, scenario.ID, scenario.Document)
	if err != nil {
		return TestResult{}, fmt.Errorf("ingest failed: %w", err)
	}

	ans, err := r.app.Ask(ctx, sessionID, scenario.Question, 0)
	if err != nil {
		return TestResult{}, fmt.Errorf("ask failed: %w", err)
	}

	result := r.metrics.EvaluateTest(scenario, ans.Answer, ans.Sources)
	result.Details["answer_status"] = string(ans.Status)
	result.Details["chunks"] = ingest.ChunkCount
	result.Details["elapsed_ms"] = time.Since(start).Milliseconds()

	if r.verbose {
		fmt.Fprintf(r.out, "Question: %s\n", scenario.Question)
		fmt.Fprintf(r.out, "Answer:   %s\n", ans.Answer)
		for i, src := range ans.Sources {
			fmt.Fprintf(r.out, "  [%d] %s\n", i+1, src)
		}
		fmt.Fprintf(r.out, "Result:   %s (faithfulness %.2f, recall %.2f)\n",
			result.Status, result.FaithfulnessScore, result.ContextRecallScore)
	}

	return result, nil
}

// RunAllTests executes every scenario. A scenario that errors is recorded as FAIL.
func (r *BenchmarkRunner) RunAllTests(ctx context.Context) ([]TestResult, error) {
	scenarios := GetAllTests()
	results := make([]TestResult, 0, len(scenarios))

	for _, scenario := range scenarios {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		result, err := r.RunTest(ctx, scenario)
		if err != nil {
			result = TestResult{
				TestID:       scenario.ID,
				TestName:     scenario.Name,
				Status:       "FAIL",
				ErrorMessage: err.Error(),
			}
		}
		results = append(results, result)
	}

	return results, nil
}

// Report is the JSON document written by ExportResults
type Report struct {
	Timestamp  string       `json:"timestamp"`
	TotalTests int          `json:"total_tests"`
	Passed     int          `json:"passed"`
	Failed     int          `json:"failed"`
	Results    []TestResult `json:"results"`
}

// NewReport summarizes results
func NewReport(results []TestResult) Report {
	report := Report{
		Timestamp:  time.Now().Format(time.RFC3339),
		TotalTests: len(results),
		Results:    results,
	}
	for _, result := range results {
		if result.Status == "PASS" {
			report.Passed++
		} else {
			report.Failed++
		}
	}
	return report
}

// ExportResults writes the report for results to outputPath
func (r *BenchmarkRunner) ExportResults(results []TestResult, outputPath string) error {
	jsonData, err := json.MarshalIndent(NewReport(results), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}

	if err := os.WriteFile(outputPath, jsonData, 0o644); err != nil {
		return fmt.Errorf("failed to write results file: %w", err)
	}

	fmt.Fprintf(r.out, "Results exported to: %s\n", outputPath)
	return nil
}
