package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/kailas-cloud/docqa/internal/domain"
	"github.com/kailas-cloud/docqa/internal/extract"
	"github.com/kailas-cloud/docqa/internal/usecase/pipeline"
)

const askLongDesc = `Index one file and answer a question about it, without a server.

  docqa ask --file handbook.md "What is the refund policy?"`

type askOptions struct {
	file        string
	topK        int
	showSources bool
}

func newAskCmd(env *string) *cobra.Command {
	opts := askOptions{}

	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Answer a question about a local file",
		Long:  askLongDesc,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return runAsk(ctx, *env, opts, strings.Join(args, " "), cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "Document to index (.txt or .md)")
	cmd.Flags().IntVarP(&opts.topK, "top-k", "k", 0, "Segments to retrieve (default: retrieval.top_k)")
	cmd.Flags().BoolVar(&opts.showSources, "sources", false, "Print the retrieved segments")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func runAsk(ctx context.Context, env string, opts askOptions, question string, out io.Writer) error {
	a, err := newApp(ctx, env)
	if err != nil {
		return err
	}
	defer a.close()

	doc, err := readDocument(opts.file, a.cfg.HTTP.MaxUploadBytes)
	if err != nil {
		return err
	}

	ctrl, err := a.newController()
	if err != nil {
		return err
	}
	if err := ctrl.ProcessDocument(ctx, doc); err != nil {
		return err
	}

	topK := opts.topK
	if topK == 0 {
		topK = a.cfg.Retrieval.TopK
	}
	resp, err := ctrl.AnswerQuery(ctx, question, topK)
	if err != nil {
		return err
	}

	printResponse(out, resp, opts.showSources)
	return nil
}

func readDocument(path string, maxBytes int64) (domain.Document, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return domain.Document{}, fmt.Errorf("open document: %w", err)
	}
	defer func() { _ = f.Close() }()

	name := filepath.Base(path)
	text, err := extract.New(maxBytes).Extract(f, name)
	if err != nil {
		return domain.Document{}, err
	}
	return domain.NewDocument(uuid.NewString(), name, text)
}

func printResponse(out io.Writer, resp pipeline.Response, showSources bool) {
	fmt.Fprintln(out, resp.Answer.Text)
	if !showSources {
		return
	}
	fmt.Fprintln(out)
	for i := range resp.Hits {
		hit := &resp.Hits[i]
		seg := hit.Segment()
		fmt.Fprintf(out, "[%d] score=%.3f offset=%d\n%s\n\n", hit.Rank()+1, hit.Score(), seg.Offset(), seg.Text())
	}
}
