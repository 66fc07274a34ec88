package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hyperjump/kura/internal/cli"
	"github.com/hyperjump/kura/internal/config"
	"github.com/hyperjump/kura/internal/embedding"
	"github.com/hyperjump/kura/internal/extract"
	"github.com/hyperjump/kura/internal/retrieval"
	"github.com/hyperjump/kura/pkg/utils"
)

// defaultConfigFile is picked up from the working directory when --config is not given.
const defaultConfigFile = "kura.yaml"

func NewRootCmd(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "kura",
		Short:         "Local semantic retrieval over a directory of documents",
		Long:          `kura chunks a directory of documents, embeds the passages and answers queries with the closest ones.`,
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		Run: func(cmd *cobra.Command, _ []string) {
			_ = cmd.Help()
		},
	}

	rootCmd.PersistentFlags().String("config", "", "config file path (default ./"+defaultConfigFile+" when present)")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringP("output", "o", string(cli.OutputText), "output format: text, compact or json")

	rootCmd.AddCommand(
		NewBuildCmd(),
		NewSearchCmd(),
		NewAnswerCmd(),
		NewServeCmd(),
		NewStatusCmd(),
		NewVersionCmd(version),
	)
	return rootCmd
}

// app is the per-invocation wiring: config, logger, embedding client and store.
type app struct {
	cfg        *config.Config
	configPath string
	logger     *zap.Logger
	client     embedding.Client
	store      *retrieval.Store
	output     cli.OutputFormat
}

// loadConfig resolves the config file: --config when set, else ./kura.yaml when it
// exists, else built-in defaults.
func loadConfig(path string) (*config.Config, string, error) {
	if path == "" {
		if _, err := os.Stat(defaultConfigFile); err == nil {
			path = defaultConfigFile
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, "", err
		}
	}
	if path == "" {
		return config.Default(), "", nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// newApp loads config and builds the store. quiet selects a warn-level logger for
// commands whose stdout carries the result.
func newApp(cmd *cobra.Command, quiet bool) (*app, error) {
	configFlag, _ := cmd.Flags().GetString("config")
	debugFlag, _ := cmd.Flags().GetBool("debug")
	outputFlag, _ := cmd.Flags().GetString("output")

	output, err := cli.ParseOutputFormat(outputFlag)
	if err != nil {
		return nil, err
	}
	cfg, path, err := loadConfig(configFlag)
	if err != nil {
		return nil, err
	}
	cfg.Debug = cfg.Debug || debugFlag

	var logger *zap.Logger
	if quiet {
		logger, err = utils.NewQuietLogger(cfg.Debug)
	} else {
		logger, err = utils.NewLogger(cfg.Debug)
	}
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	logger.Debug("config loaded", zap.String("config_path", path), zap.Bool("debug", cfg.Debug))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	client, err := embedding.NewClient(cfg.Embedding, logger)
	if err != nil {
		return nil, err
	}
	store := retrieval.NewStore(client,
		retrieval.WithLogger(logger),
		retrieval.WithExtractor(extract.NewExtractor()),
		retrieval.WithExtensions(cfg.Documents.Extensions),
		retrieval.WithEmbeddingModel(cfg.Embedding.Model),
	)
	return &app{
		cfg:        cfg,
		configPath: path,
		logger:     logger,
		client:     client,
		store:      store,
		output:     output,
	}, nil
}

func (a *app) loadOrBuildOptions(force bool) retrieval.LoadOrBuildOptions {
	return retrieval.LoadOrBuildOptions{
		IndexDir:  a.cfg.Storage.IndexDir,
		DocDir:    a.cfg.Documents.Directory,
		ChunkSize: a.cfg.Chunking.Size,
		Overlap:   a.cfg.Chunking.Overlap,
		Force:     force,
	}
}

func (a *app) Close() {
	if err := embedding.Close(a.client); err != nil {
		a.logger.Warn("close embedding client", zap.Error(err))
	}
	_ = a.logger.Sync()
}
