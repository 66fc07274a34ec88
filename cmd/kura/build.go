package main

import (
	"github.com/spf13/cobra"

	"github.com/hyperjump/kura/internal/cli"
)

func NewBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the index from the document directory",
		Long:  `Chunk and embed every document in the document directory and save the index, replacing any previous one.`,
		Args:  cobra.NoArgs,
		RunE:  runBuild,
	}
	cmd.Flags().String("docs", "", "document directory (overrides documents.directory)")
	cmd.Flags().String("index", "", "index directory (overrides storage.index_dir)")
	cmd.Flags().Int("chunk-size", 0, "chunk size in characters (overrides chunking.size)")
	cmd.Flags().Int("overlap", -1, "chunk overlap in characters (overrides chunking.overlap)")
	return cmd
}

func runBuild(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd, true)
	if err != nil {
		return err
	}
	defer a.Close()

	opts := a.loadOrBuildOptions(true)
	if v, _ := cmd.Flags().GetString("docs"); v != "" {
		opts.DocDir = v
	}
	if v, _ := cmd.Flags().GetString("index"); v != "" {
		opts.IndexDir = v
	}
	if v, _ := cmd.Flags().GetInt("chunk-size"); v > 0 {
		opts.ChunkSize = v
	}
	if v, _ := cmd.Flags().GetInt("overlap"); v >= 0 {
		opts.Overlap = v
	}

	report, err := a.store.LoadOrBuild(cmd.Context(), opts)
	if err != nil {
		return err
	}
	return cli.WriteBuildReport(cmd.OutOrStdout(), report, a.output)
}
