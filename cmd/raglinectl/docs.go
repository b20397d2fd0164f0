package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ragline/internal/domain"
)

var docsQuestion string

var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "Show the passages retrieved for a question, without generation",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp(cmd.Context(), nil)
		if err != nil {
			return err
		}
		defer a.Close()

		results, err := a.Query.Retrieve(cmd.Context(), domain.Query{Question: docsQuestion, TopK: queryTopK})
		if err != nil {
			return err
		}

		if len(results) == 0 {
			fmt.Println("no matching documents")
			return nil
		}
		for i, res := range results {
			fmt.Printf("[%d] score=%.3f source=%s span=[%d:%d)\n%s\n\n",
				i+1, res.Score, res.Metadata.DocumentID,
				res.Metadata.StartOffset, res.Metadata.EndOffset, res.Text)
		}
		return nil
	},
}

func init() {
	docsCmd.Flags().StringVarP(&docsQuestion, "question", "q", "", "question to retrieve for")
	docsCmd.Flags().IntVar(&queryTopK, "top-k", 0, "number of passages to retrieve (0 = configured default)")
	docsCmd.MarkFlagRequired("question")
}
