package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/kailas-cloud/docqa/internal/version"
)

const rootLongDesc = `docqa answers questions about a single uploaded document.

The document is split into overlapping segments, embedded and indexed in
memory; each question retrieves the closest segments and asks a language
model to answer from them.`

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var env string

	cmd := &cobra.Command{
		Use:           "docqa",
		Short:         "Document question answering over embeddings",
		Long:          rootLongDesc,
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	cmd.PersistentFlags().StringVarP(&env, "env", "e", "",
		"Config environment: local, dev, prod (default: $ENV or local)")

	cmd.AddCommand(newServeCmd(&env))
	cmd.AddCommand(newAskCmd(&env))
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	})
	return cmd
}
