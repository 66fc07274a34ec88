package main

import (
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/hyperjump/kura/internal/cli"
	"github.com/hyperjump/kura/internal/models"
)

func NewSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Return the passages closest to a query",
		Long: `Return the passages closest to a query, best first. The query is all arguments
joined by spaces. The index is built first when none has been saved yet.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runSearch,
	}
	cmd.Flags().IntP("number", "k", 0, "number of passages (default search.default_k)")
	return cmd
}

func runSearch(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd, true)
	if err != nil {
		return err
	}
	defer a.Close()

	k, _ := cmd.Flags().GetInt("number")
	query := models.SearchQuery{Query: strings.Join(args, " "), K: k}
	if err := query.Normalize(a.cfg.Search.DefaultK, a.cfg.Search.MaxK); err != nil {
		return err
	}
	if _, err := a.store.LoadOrBuild(cmd.Context(), a.loadOrBuildOptions(false)); err != nil {
		return err
	}

	start := time.Now()
	results, err := a.store.Search(cmd.Context(), query.Query, query.K)
	if err != nil {
		return err
	}
	return cli.WriteResults(cmd.OutOrStdout(), &models.SearchResponse{
		Query:     query.Query,
		Results:   results,
		Total:     len(results),
		QueryTime: time.Since(start).Milliseconds(),
	}, a.output)
}
