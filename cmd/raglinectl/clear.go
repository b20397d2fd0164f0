package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var clearYes bool

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every indexed document",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !clearYes && !confirmClear() {
			fmt.Println("aborted")
			return nil
		}

		a, err := buildApp(cmd.Context(), nil)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Store.Clear(cmd.Context()); err != nil {
			return err
		}
		fmt.Println("index cleared")
		return nil
	},
}

func init() {
	clearCmd.Flags().BoolVarP(&clearYes, "yes", "y", false, "skip the confirmation prompt")
}

func confirmClear() bool {
	fmt.Print("This deletes all indexed documents. Continue? [y/N] ")
	scanner := bufio.NewScanner(os.Stdin)
	if !scanner.Scan() {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(scanner.Text()))
	return answer == "y" || answer == "yes"
}
