package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sevigo/qa-forge/internal/dataset"
)

var inspectJSON bool

var inspectCmd = &cobra.Command{
	Use:   "inspect [dataset-file]",
	Short: "Summarizes a generated dataset file",
	Long: `Summarizes a generated dataset file: record count, covered files, and
covered repositories. Both the json and jsonl formats are detected
automatically.`,
	Args: cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		records, err := dataset.Load(args[0])
		if err != nil {
			return err
		}

		perFile := make(map[string]int)
		repos := make(map[string]struct{})
		for _, rec := range records {
			perFile[rec.File]++
			if rec.Repo != "" {
				repos[rec.Repo] = struct{}{}
			}
		}

		if inspectJSON {
			summary := map[string]any{
				"records":          len(records),
				"files":            len(perFile),
				"repositories":     len(repos),
				"records_per_file": perFile,
			}
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			return encoder.Encode(summary)
		}

		fmt.Printf("Records:      %d\n", len(records))
		fmt.Printf("Files:        %d\n", len(perFile))
		fmt.Printf("Repositories: %d\n", len(repos))

		if len(perFile) == 0 {
			return nil
		}

		files := make([]string, 0, len(perFile))
		for f := range perFile {
			files = append(files, f)
		}
		sort.Strings(files)

		fmt.Println()
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "FILE\tRECORDS")
		for _, f := range files {
			fmt.Fprintf(w, "%s\t%d\n", f, perFile[f])
		}
		return w.Flush()
	},
}

func init() { //nolint:gochecknoinits // Cobra's init function for command registration
	inspectCmd.Flags().BoolVar(&inspectJSON, "json", false, "Output summary as JSON")
	rootCmd.AddCommand(inspectCmd)
}
