package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hyperjump/kura/internal/cli"
	"github.com/hyperjump/kura/internal/models"
	"github.com/hyperjump/kura/internal/retrieval"
	"github.com/hyperjump/kura/internal/storage"
)

func NewStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the saved index and configuration",
		Args:  cobra.NoArgs,
		RunE:  runStatus,
	}
}

type statusReport struct {
	ConfigPath     string          `json:"config_path,omitempty"`
	IndexDir       string          `json:"index_dir"`
	DocumentsDir   string          `json:"documents_dir"`
	Provider       string          `json:"embedding_provider"`
	Model          string          `json:"embedding_model"`
	Index          retrieval.Stats `json:"index"`
	DiskUsageBytes int64           `json:"disk_usage_bytes"`
	Error          string          `json:"error,omitempty"`
}

func runStatus(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd, true)
	if err != nil {
		return err
	}
	defer a.Close()

	report := statusReport{
		ConfigPath:   a.configPath,
		IndexDir:     a.cfg.Storage.IndexDir,
		DocumentsDir: a.cfg.Documents.Directory,
		Provider:     a.cfg.Embedding.Provider,
		Model:        a.cfg.Embedding.Model,
	}
	if storage.Exists(a.cfg.Storage.IndexDir) {
		if err := a.store.LoadFromStorage(cmd.Context(), a.cfg.Storage.IndexDir); err != nil && !errors.Is(err, models.ErrNotFound) {
			report.Error = err.Error()
		}
	}
	report.Index = a.store.Stats()
	if usage, err := storage.DiskUsageBytes(a.cfg.Storage.IndexDir); err == nil {
		report.DiskUsageBytes = usage
	}

	out := cmd.OutOrStdout()
	if a.output == cli.OutputJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	if report.ConfigPath != "" {
		fmt.Fprintf(out, "Config:     %s\n", report.ConfigPath)
	}
	fmt.Fprintf(out, "Documents:  %s\n", report.DocumentsDir)
	fmt.Fprintf(out, "Index:      %s\n", report.IndexDir)
	fmt.Fprintf(out, "Embedding:  %s (%s)\n", report.Provider, report.Model)
	switch {
	case report.Error != "":
		fmt.Fprintf(out, "State:      unreadable: %s\n", report.Error)
	case !report.Index.Ready:
		fmt.Fprintln(out, "State:      not built")
	default:
		fmt.Fprintf(out, "State:      ready (build %s, %s)\n", report.Index.BuildID,
			report.Index.UpdatedAt.Local().Format("2006-01-02 15:04:05"))
		fmt.Fprintf(out, "Passages:   %d from %d sources, dimension %d\n",
			report.Index.Passages, report.Index.Sources, report.Index.Dimension)
		fmt.Fprintf(out, "Disk usage: %d bytes\n", report.DiskUsageBytes)
	}
	return nil
}
