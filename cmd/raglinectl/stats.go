package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show index statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp(cmd.Context(), nil)
		if err != nil {
			return err
		}
		defer a.Close()

		stats, err := a.Store.Stats(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Printf("collection: %s\nrecords:    %d\ndimension:  %d\n",
			a.Config.CollectionName, stats.RecordCount, stats.Dimension)
		return nil
	},
}
