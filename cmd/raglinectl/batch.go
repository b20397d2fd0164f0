package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"ragline/internal/api"
	"ragline/internal/domain"
	"ragline/internal/rag"
)

var (
	batchInput  string
	batchOutput string
)

// batchAnswer mirrors the shape of the HTTP query response so batch
// output files and API clients see the same fields.
type batchAnswer struct {
	Question       string               `json:"question"`
	Answer         string               `json:"answer"`
	Sources        []api.SourceResponse `json:"sources"`
	ProcessingTime float64              `json:"processing_time"`
	Error          string               `json:"error,omitempty"`
}

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Answer a JSON array of questions, preserving input order",
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := os.ReadFile(batchInput)
		if err != nil {
			return err
		}

		var questions []string
		if err := json.Unmarshal(raw, &questions); err != nil {
			return fmt.Errorf("input must be a JSON array of strings: %w", err)
		}

		a, err := buildApp(cmd.Context(), nil)
		if err != nil {
			return err
		}
		defer a.Close()

		answers := answerBatch(cmd.Context(), a.Query, questions, queryTopK)

		out, err := json.MarshalIndent(answers, "", "  ")
		if err != nil {
			return err
		}

		if batchOutput == "" {
			fmt.Println(string(out))
			return nil
		}
		return os.WriteFile(batchOutput, append(out, '\n'), 0o644)
	},
}

// answerBatch runs each question through the pipeline. One failed
// question does not stop the batch; its slot carries the error instead.
func answerBatch(ctx context.Context, svc rag.Service, questions []string, topK int) []batchAnswer {
	answers := make([]batchAnswer, len(questions))
	for i, question := range questions {
		answers[i].Question = question

		start := time.Now()
		answer, err := svc.Query(ctx, domain.Query{Question: question, TopK: topK})
		answers[i].ProcessingTime = time.Since(start).Seconds()
		if err != nil {
			answers[i].Error = err.Error()
			continue
		}

		answers[i].Answer = answer.Text
		answers[i].Sources = make([]api.SourceResponse, len(answer.Sources))
		for j, src := range answer.Sources {
			answers[i].Sources[j] = api.SourceResponse{Text: src.Text, Score: src.Score}
		}
	}
	return answers
}

func init() {
	batchCmd.Flags().StringVar(&batchInput, "input", "", "JSON file with an array of questions")
	batchCmd.Flags().StringVar(&batchOutput, "output", "", "file to write answers to (default stdout)")
	batchCmd.Flags().IntVar(&queryTopK, "top-k", 0, "number of passages to retrieve (0 = configured default)")
	batchCmd.MarkFlagRequired("input")
}
