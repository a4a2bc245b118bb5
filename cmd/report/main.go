package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/azure/review-analyzer/internal/config"
	"github.com/azure/review-analyzer/internal/metrics"
	"github.com/azure/review-analyzer/internal/models"
	"github.com/azure/review-analyzer/internal/reviews"
	"github.com/azure/review-analyzer/internal/scheduler"
	"github.com/azure/review-analyzer/internal/sentiment"
	"github.com/azure/review-analyzer/internal/storage"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const outputDir = "report_output"

// TerminalNotificationService prints reports to the terminal and saves them as JSON
type TerminalNotificationService struct{}

func (t *TerminalNotificationService) SendReport(report *models.Report) error {
	fmt.Println("\n" + strings.Repeat("=", 70))
	fmt.Println("REVIEW SENTIMENT REPORT")
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("Period:        %s\n", report.Period)
	fmt.Printf("Generated:     %s\n", report.GeneratedAt.Format("2006-01-02 15:04:05 UTC"))
	fmt.Printf("Total Reviews: %d\n", report.TotalReviews)

	fmt.Println("\nSentiment:")
	for _, label := range []string{"positive", "neutral", "negative"} {
		fmt.Printf("   %-10s %d reviews\n", label+":", report.Sentiment[label])
	}

	fmt.Println("\nLocations:")
	for _, loc := range report.Locations {
		fmt.Printf("   %-28s %4d reviews  avg %+.3f  %d negative\n",
			loc.Location, loc.Reviews, loc.AverageScore, loc.NegativeCount)
	}

	if len(report.MostNegative) > 0 {
		fmt.Println("\nMost Negative Reviews:")
		for i, review := range report.MostNegative {
			fmt.Printf("\n   %d. [%s] %s\n", i+1, review.Location, review.Timestamp)
			fmt.Printf("      Compound: %+.3f\n", review.Sentiment.Compound)
			fmt.Printf("      %s\n", review.Body)
		}
	}

	if err := t.saveReportToFile(report); err != nil {
		fmt.Printf("\nWarning: Could not save to file: %v\n", err)
	}

	fmt.Println("\n" + strings.Repeat("=", 70))
	return nil
}

func (t *TerminalNotificationService) SendAlert(alert *models.Alert) error {
	fmt.Printf("\nALERT [%s] %s\n", alert.Type, alert.Message)
	return nil
}

func (t *TerminalNotificationService) saveReportToFile(report *models.Report) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return err
	}

	timestamp := report.GeneratedAt.Format("2006-01-02_15-04-05")
	filename := filepath.Join(outputDir, fmt.Sprintf("sentiment_report_%s.json", timestamp))

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return err
	}

	fmt.Printf("\nReport saved to: %s\n", filename)
	return nil
}

// Usage: report [reviews.csv]
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logrus.SetLevel(logrus.WarnLevel)

	path := cfg.DataFile
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	store := reviews.NewStore()
	n, err := store.LoadFile(path)
	if err != nil {
		log.Fatalf("Failed to load reviews: %v", err)
	}
	fmt.Printf("Scoring %d reviews from %s...\n", n, path)

	output, err := storage.NewLocalStorage(outputDir)
	if err != nil {
		log.Fatalf("Failed to prepare output directory: %v", err)
	}

	registry := metrics.NewRegistry()
	reviewService := reviews.NewService(cfg, store, sentiment.NewVaderScorer(), nil, registry)
	runner := scheduler.NewService(cfg, reviewService, output, &TerminalNotificationService{}, registry)

	if err := runner.RunReport(); err != nil {
		log.Fatalf("Failed to generate report: %v", err)
	}

	// The report scored every review, so the snapshot carries sentiment too
	if err := runner.RunSnapshot(); err != nil {
		log.Fatalf("Failed to write scored snapshot: %v", err)
	}

	fmt.Printf("\nScored reviews written to %s\n", outputDir)
}
