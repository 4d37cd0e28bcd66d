package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/libragen/libragen/internal/search"
	"github.com/libragen/libragen/pkg/library"
)

type searchOptions struct {
	k             int
	alpha         float64
	rerank        bool
	contextBefore int
	contextAfter  int
}

func newSearchCmd() *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <library.libragen> <query>",
		Short: "Search a library's indexed content",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, args[0], args[1], opts)
		},
	}

	flags := cmd.Flags()
	flags.IntVarP(&opts.k, "limit", "n", search.DefaultK, "maximum number of results")
	flags.Float64Var(&opts.alpha, "alpha", search.DefaultHybridAlpha, "0=keyword-only, 1=vector-only, else hybrid RRF")
	flags.BoolVar(&opts.rerank, "rerank", false, "apply a reranker to candidates (requires one to be configured)")
	flags.IntVar(&opts.contextBefore, "context-before", 0, "number of preceding chunks to attach")
	flags.IntVar(&opts.contextAfter, "context-after", 0, "number of following chunks to attach")

	return cmd
}

func runSearch(cmd *cobra.Command, path, query string, opts searchOptions) error {
	out := cmd.OutOrStdout()

	lib, err := library.Open(cmd.Context(), path)
	if err != nil {
		return fmt.Errorf("open library: %w", err)
	}
	defer lib.Close()

	results, err := lib.Search(cmd.Context(), search.Options{
		Query:         query,
		K:             opts.k,
		HybridAlpha:   opts.alpha,
		Rerank:        opts.rerank,
		ContextBefore: opts.contextBefore,
		ContextAfter:  opts.contextAfter,
	})
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}

	if len(results) == 0 {
		fmt.Fprintf(out, "no results for %q\n", query)
		return nil
	}

	for i, r := range results {
		location := r.Chunk.SourceFile
		if r.Chunk.StartLine > 0 {
			location = fmt.Sprintf("%s:%d", r.Chunk.SourceFile, r.Chunk.StartLine)
		}
		fmt.Fprintf(out, "%d. %s (score %.4f)\n", i+1, location, r.Score)
		fmt.Fprintln(out, indentLines(r.Chunk.Content, "   "))
	}
	return nil
}

func indentLines(s, prefix string) string {
	out := prefix
	for _, r := range s {
		out += string(r)
		if r == '\n' {
			out += prefix
		}
	}
	return out
}
