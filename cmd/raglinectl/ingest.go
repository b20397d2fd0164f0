package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ragline/internal/domain"
	"ragline/internal/rag/ingest"
)

var (
	ingestFiles   []string
	ingestDir     string
	ingestPattern string
	ingestText    string
	ingestID      string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Index documents from files, a directory or stdin text",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp(cmd.Context(), nil)
		if err != nil {
			return err
		}
		defer a.Close()

		switch {
		case ingestText != "":
			if ingestID == "" {
				return fmt.Errorf("--id is required with --text")
			}
			res, err := a.Ingestor.IngestDocument(cmd.Context(), domain.Document{
				SourceID: ingestID,
				RawText:  ingestText,
			})
			printResults([]ingest.Result{res})
			return err

		case ingestDir != "":
			results, err := a.Ingestor.IngestDir(cmd.Context(), ingestDir, ingestPattern)
			printResults(results)
			return err

		case len(ingestFiles) > 0:
			results, err := a.Ingestor.IngestFiles(cmd.Context(), ingestFiles)
			printResults(results)
			return err

		default:
			return fmt.Errorf("one of --file, --dir or --text is required")
		}
	},
}

func init() {
	ingestCmd.Flags().StringSliceVar(&ingestFiles, "file", nil, "file to ingest (repeatable)")
	ingestCmd.Flags().StringVar(&ingestDir, "dir", "", "directory to ingest")
	ingestCmd.Flags().StringVar(&ingestPattern, "pattern", "*", "glob pattern used with --dir")
	ingestCmd.Flags().StringVar(&ingestText, "text", "", "raw text to ingest")
	ingestCmd.Flags().StringVar(&ingestID, "id", "", "source id used with --text")
}

func printResults(results []ingest.Result) {
	var total int
	for _, res := range results {
		if res.Err != nil {
			fmt.Fprintf(os.Stderr, "FAILED  %s: %v\n", res.SourceID, res.Err)
			continue
		}
		fmt.Printf("ok      %s: %d chunks, %d vectors\n", res.SourceID, res.ChunksWritten, res.VectorsWritten)
		total += res.ChunksWritten
	}
	fmt.Printf("indexed %d chunks from %d documents\n", total, len(results))
}
