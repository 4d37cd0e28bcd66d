package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/libragen/libragen/internal/buildspec"
	"github.com/libragen/libragen/internal/chunk"
	"github.com/libragen/libragen/internal/embed"
	"github.com/libragen/libragen/internal/indexer"
	"github.com/libragen/libragen/pkg/library"
)

type buildOptions struct {
	config      string
	output      string
	name        string
	version     string
	description string
	license     string
	author      string
	repository  string
	ref         string
	subPath     string
	include     []string
	exclude     []string
	chunkSize   int
	chunkOver   int
}

func newBuildCmd() *cobra.Command {
	var opts buildOptions

	cmd := &cobra.Command{
		Use:   "build <source>",
		Short: "Build a library artifact from a local path or git URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd, args[0], opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.config, "config", "", "YAML build spec file supplying library metadata (flags override it)")
	flags.StringVarP(&opts.output, "output", "o", "", "destination path or directory")
	flags.StringVar(&opts.name, "name", "", "library name (required, unless supplied via --config)")
	flags.StringVar(&opts.version, "version", "", "library version")
	flags.StringVar(&opts.description, "description", "", "library description")
	flags.StringVar(&opts.license, "license", "", "explicit SPDX license identifier")
	flags.StringVar(&opts.author, "author", "", "library author")
	flags.StringVar(&opts.repository, "repository", "", "source repository URL")
	flags.StringVar(&opts.ref, "ref", "", "git branch or tag (git sources only)")
	flags.StringVar(&opts.subPath, "sub-path", "", "restrict scanning to this sub-directory (git sources only)")
	flags.StringSliceVar(&opts.include, "include", nil, "glob include patterns (repeatable)")
	flags.StringSliceVar(&opts.exclude, "exclude", nil, "glob exclude patterns (repeatable)")
	flags.IntVar(&opts.chunkSize, "chunk-size", chunk.DefaultChunkSize, "maximum characters per chunk")
	flags.IntVar(&opts.chunkOver, "chunk-overlap", chunk.DefaultChunkOverlap, "characters of overlap between chunks")

	return cmd
}

func runBuild(cmd *cobra.Command, source string, opts buildOptions) error {
	out := cmd.OutOrStdout()

	buildOpts := indexer.BuildOptions{
		Source:      source,
		Ref:         opts.ref,
		SubPath:     opts.subPath,
		Output:      opts.output,
		Name:        opts.name,
		Version:     opts.version,
		Description: opts.description,
		License:     opts.license,
		Author:      opts.author,
		Repository:  opts.repository,
		Include:     opts.include,
		Exclude:     opts.exclude,
		Chunking: chunk.Options{
			ChunkSize:    opts.chunkSize,
			ChunkOverlap: opts.chunkOver,
		},
		Embedder: embed.NewStaticEmbedder(),
	}

	if opts.config != "" {
		doc, err := buildspec.Load(opts.config)
		if err != nil {
			return fmt.Errorf("build: %w", err)
		}
		applyBuildSpec(cmd, &buildOpts, doc)
	}

	if buildOpts.Name == "" {
		return fmt.Errorf("build: --name is required (directly or via --config)")
	}

	lib, result, err := library.Build(cmd.Context(), buildOpts, func(p indexer.Progress) {
		fmt.Fprintf(out, "[%s] %d%% %s\n", p.Phase, p.Progress, p.Message)
	})
	if err != nil {
		return fmt.Errorf("build: %w", err)
	}
	defer lib.Close()

	fmt.Fprintf(out, "built %s: %d chunks across %d sources in %s\n",
		result.OutputPath, result.ChunkCount, result.SourceCount, result.Duration.Round(time.Millisecond))
	return nil
}

// applyBuildSpec fills buildOpts fields from doc wherever the corresponding
// flag was not explicitly set on the command line, so flags always take
// precedence over the config file.
func applyBuildSpec(cmd *cobra.Command, buildOpts *indexer.BuildOptions, doc buildspec.Document) {
	changed := cmd.Flags().Changed

	if !changed("name") {
		buildOpts.Name = doc.Name
	}
	if !changed("version") {
		buildOpts.Version = doc.Version
	}
	if !changed("description") {
		buildOpts.Description = doc.Description
	}
	if !changed("license") {
		buildOpts.License = doc.License
	}
	if !changed("author") {
		buildOpts.Author = doc.Author
	}
	if !changed("repository") {
		buildOpts.Repository = doc.Repository
	}
	if !changed("include") {
		buildOpts.Include = doc.Include
	}
	if !changed("exclude") {
		buildOpts.Exclude = doc.Exclude
	}
	if !changed("chunk-size") && doc.Chunking.ChunkSize > 0 {
		buildOpts.Chunking.ChunkSize = doc.Chunking.ChunkSize
	}
	if !changed("chunk-overlap") && doc.Chunking.ChunkOverlap > 0 {
		buildOpts.Chunking.ChunkOverlap = doc.Chunking.ChunkOverlap
	}

	buildOpts.AgentDescription = doc.AgentDescription
	buildOpts.ExampleQueries = doc.ExampleQueries
	buildOpts.Keywords = doc.Keywords
	buildOpts.ProgrammingLanguages = doc.ProgrammingLanguages
	buildOpts.TextLanguages = doc.TextLanguages
	buildOpts.Frameworks = doc.Frameworks
}
