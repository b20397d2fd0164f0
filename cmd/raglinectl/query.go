package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"ragline/internal/config"
	"ragline/internal/domain"
	"ragline/internal/rag"
)

var (
	queryQuestion string
	queryTopK     int
	queryNoRerank bool
	querySources  bool
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Ask a question, or start an interactive session",
	Long:  "With -q the question is answered once. Without it an interactive prompt starts; type 'exit' or 'quit' to leave.",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp(cmd.Context(), func(cfg *config.Config) {
			if queryNoRerank {
				cfg.RerankEnabled = false
			}
		})
		if err != nil {
			return err
		}
		defer a.Close()

		if queryQuestion != "" {
			return askOnce(cmd.Context(), a.Query, queryQuestion)
		}
		return interactive(cmd.Context(), a.Query)
	},
}

func init() {
	queryCmd.Flags().StringVarP(&queryQuestion, "question", "q", "", "question to answer")
	queryCmd.Flags().IntVar(&queryTopK, "top-k", 0, "number of passages to retrieve (0 = configured default)")
	queryCmd.Flags().BoolVar(&queryNoRerank, "no-rerank", false, "skip reranking")
	queryCmd.Flags().BoolVar(&querySources, "sources", false, "print the supporting passages")
}

func askOnce(ctx context.Context, svc rag.Service, question string) error {
	answer, err := svc.Query(ctx, domain.Query{Question: question, TopK: queryTopK})
	if err != nil {
		return err
	}
	printAnswer(answer)
	return nil
}

func interactive(ctx context.Context, svc rag.Service) error {
	fmt.Println("Interactive mode. Type 'exit' or 'quit' to leave.")
	fmt.Println("Prefix a question with 'docs ' to see retrieved passages only.")
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}

		question := strings.TrimSpace(scanner.Text())
		switch question {
		case "":
			continue
		case "exit", "quit":
			return nil
		}

		if rest, ok := strings.CutPrefix(question, "docs "); ok {
			printRetrieved(ctx, svc, strings.TrimSpace(rest))
			continue
		}

		answer, err := svc.Query(ctx, domain.Query{Question: question, TopK: queryTopK})
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			continue
		}
		printAnswer(answer)
	}
}

func printRetrieved(ctx context.Context, svc rag.Service, question string) {
	results, err := svc.Retrieve(ctx, domain.Query{Question: question, TopK: queryTopK})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	if len(results) == 0 {
		fmt.Println("no matching documents")
		return
	}
	for i, res := range results {
		fmt.Printf("[%d] score=%.3f source=%s\n%s\n\n", i+1, res.Score, res.Metadata.DocumentID, res.Text)
	}
}

func printAnswer(answer domain.Answer) {
	fmt.Println(answer.Text)
	if answer.Degraded {
		fmt.Fprintln(os.Stderr, "(note: reranking unavailable, results use retrieval order)")
	}
	if querySources {
		for i, src := range answer.Sources {
			fmt.Printf("\n[%d] (score %.3f) %s\n", i+1, src.Score, src.Text)
		}
	}
}
