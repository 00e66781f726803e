package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"

	"docquery/internal/app"
	"docquery/internal/config"
	"docquery/internal/domain"
	"docquery/internal/export"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	if len(os.Args) < 3 {
		fmt.Println("Usage: extract <file.pdf> <questions.json> [out.xlsx]")
		os.Exit(1)
	}
	pdfPath, questionsPath := os.Args[1], os.Args[2]

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	pdf, err := os.ReadFile(pdfPath)
	if err != nil {
		return fmt.Errorf("read pdf: %w", err)
	}
	rawQuestions, err := os.ReadFile(questionsPath)
	if err != nil {
		return fmt.Errorf("read questions: %w", err)
	}
	var questions []domain.Question
	if err := json.Unmarshal(rawQuestions, &questions); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrInvalidQuestions, err)
	}

	ctx := context.Background()
	pipeline, err := app.NewPipeline(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = pipeline.Close() }()

	result, err := pipeline.Process(ctx, pdf, questions)
	if err != nil {
		return err
	}
	log.Printf("Answered %d questions from %d pages (confidence %.2f %s, provider %s)",
		len(questions), result.Pages, result.Confidence, result.ConfidenceScale, result.Provider)

	if len(os.Args) > 3 && strings.HasSuffix(os.Args[3], ".xlsx") {
		data, err := export.AnswersXLSX(result.Answers, questions)
		if err != nil {
			return err
		}
		if err := os.WriteFile(os.Args[3], data, 0o600); err != nil {
			return fmt.Errorf("write xlsx: %w", err)
		}
		log.Printf("Wrote %s", os.Args[3])
		return nil
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result.Answers)
}
