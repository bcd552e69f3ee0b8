package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/ollama/ollama/api"
	"github.com/spf13/cobra"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Lists the models available on the local Ollama server",
	Long:  `Lists the models available on the local Ollama server. The server address is taken from the OLLAMA_HOST environment variable.`,
	RunE: func(_ *cobra.Command, _ []string) error {
		client, err := api.ClientFromEnvironment()
		if err != nil {
			return fmt.Errorf("failed to create ollama client: %w", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		resp, err := client.List(ctx)
		if err != nil {
			return fmt.Errorf("failed to list models, is Ollama running?: %w", err)
		}

		if len(resp.Models) == 0 {
			fmt.Println("No models found. Pull one with: ollama pull qwen2.5-coder:7b")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "NAME\tSIZE\tMODIFIED")
		for _, model := range resp.Models {
			fmt.Fprintf(w, "%s\t%s\t%s\n",
				model.Name,
				humanSize(model.Size),
				model.ModifiedAt.Format(time.RFC822),
			)
		}
		return w.Flush()
	},
}

// humanSize renders a byte count the way Ollama's own CLI does.
func humanSize(bytes int64) string {
	const unit = 1000
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

func init() { //nolint:gochecknoinits // Cobra's init function for command registration
	rootCmd.AddCommand(modelsCmd)
}
