package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/hyperjump/kura/internal/answer"
	"github.com/hyperjump/kura/internal/cli"
	"github.com/hyperjump/kura/internal/models"
)

func NewAnswerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "answer <question>",
		Short: "Answer a question from the most relevant passages",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runAnswer,
	}
	cmd.Flags().IntP("number", "k", answer.DefaultK, "number of passages to consider")
	cmd.Flags().Float64("threshold", -1, "relevance threshold for additional context (default search.relevance_threshold)")
	return cmd
}

func runAnswer(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd, true)
	if err != nil {
		return err
	}
	defer a.Close()

	k, _ := cmd.Flags().GetInt("number")
	query := models.SearchQuery{Query: strings.Join(args, " "), K: k}
	if err := query.Normalize(answer.DefaultK, a.cfg.Search.MaxK); err != nil {
		return err
	}
	policy := answer.Policy{
		K:             query.K,
		Threshold:     a.cfg.Search.RelevanceThreshold,
		MaxAdditional: a.cfg.Search.MaxAdditional,
	}
	if t, _ := cmd.Flags().GetFloat64("threshold"); t >= 0 {
		policy.Threshold = t
	}
	if _, err := a.store.LoadOrBuild(cmd.Context(), a.loadOrBuildOptions(false)); err != nil {
		return err
	}

	ans, err := answer.Lookup(cmd.Context(), a.store, query.Query, policy)
	if err != nil {
		return err
	}
	return cli.WriteAnswer(cmd.OutOrStdout(), ans, a.output)
}
