package main

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "qa-forge",
	Short: "qa-forge generates fine-tuning datasets from source repositories.",
	Long: `qa-forge walks a source repository, extracts function definitions with
language-aware parsers, and prompts a locally hosted LLM to produce
question/answer pairs for each function. The result is a JSON dataset
ready for model fine-tuning.`,
}
