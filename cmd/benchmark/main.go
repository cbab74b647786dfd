// ABOUTME: Command-line benchmark runner for RAGAS retrieval tests
// ABOUTME: Scores answers and retrieved passages per scenario and writes JSON results

package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"

	"github.com/harper/ragdoc/benchmarks/ragas"
	"github.com/harper/ragdoc/internal/app"
	"github.com/harper/ragdoc/internal/config"
	"github.com/harper/ragdoc/internal/logging"
)

func main() {
	testID := flag.String("test", "", "Run one scenario by id (capital, industries, not_found, air_filter, coolant). If empty, runs all.")
	outputPath := flag.String("output", "benchmark_results.json", "Output path for JSON results")
	verbose := flag.Bool("verbose", false, "Enable verbose output")
	offline := flag.Bool("offline", false, "Use the hash embedder; answers degrade to sources without OPENAI_API_KEY")
	flag.Parse()

	// .env is optional
	_ = godotenv.Load()

	base, err := config.Load("")
	if err != nil {
		log.Fatal("invalid configuration", "err", err)
	}
	cfg := ragas.BenchmarkConfig(base)
	if *offline {
		cfg.Embedder = config.EmbedderHash
	}
	level := "warn"
	if *verbose {
		level = "debug"
	}
	if err := logging.Setup(logging.Options{Level: level}, nil); err != nil {
		log.Fatal("logging setup failed", "err", err)
	}
	if cfg.OpenAIKey == "" {
		log.Warn("OPENAI_API_KEY not set; faithfulness will be scored against source-only answers")
	}

	a, err := app.New(cfg)
	if err != nil {
		log.Fatal("failed to initialize", "err", err)
	}

	fmt.Println("========================================")
	fmt.Println("ragdoc RAGAS Benchmarks")
	fmt.Println("========================================")

	runner := ragas.NewBenchmarkRunner(a, *verbose, os.Stdout)
	ctx := context.Background()

	var results []ragas.TestResult
	if *testID == "" {
		results, err = runner.RunAllTests(ctx)
	} else {
		scenario, ok := ragas.GetTest(*testID)
		if !ok {
			_ = a.Close()
			log.Fatal("unknown test id", "test", *testID)
		}
		var result ragas.TestResult
		result, err = runner.RunTest(ctx, scenario)
		results = []ragas.TestResult{result}
	}
	if err != nil {
		_ = a.Close()
		log.Fatal("benchmark failed", "err", err)
	}
	_ = a.Close()

	fmt.Println("\n========================================")
	fmt.Println("BENCHMARK SUMMARY")
	fmt.Println("========================================")

	for _, result := range results {
		fmt.Printf("\n%s: %s\n", result.TestID, result.TestName)
		fmt.Printf("  Faithfulness: %.2f\n", result.FaithfulnessScore)
		fmt.Printf("  Context Recall: %.2f\n", result.ContextRecallScore)
		if precision, ok := result.Details["context_precision"].(float64); ok {
			fmt.Printf("  Context Precision: %.2f\n", precision)
		}
		fmt.Printf("  Overall: %.2f\n", result.OverallScore)
		fmt.Printf("  Status: %s\n", result.Status)
		if result.ErrorMessage != "" {
			fmt.Printf("  Error: %s\n", result.ErrorMessage)
		}
	}

	report := ragas.NewReport(results)
	fmt.Println("\n========================================")
	fmt.Printf("Total Tests: %d\n", report.TotalTests)
	fmt.Printf("Passed: %d\n", report.Passed)
	fmt.Printf("Failed: %d\n", report.Failed)
	fmt.Println("========================================")

	if err := runner.ExportResults(results, *outputPath); err != nil {
		log.Fatal("failed to export results", "err", err)
	}

	if report.Failed > 0 {
		os.Exit(1)
	}
}
