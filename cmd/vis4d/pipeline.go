package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"vis4d/internal/config"
	"vis4d/internal/dataset"
	"vis4d/internal/mapping"
)

// datasetFlags selects the annotation file a command works on.
type datasetFlags struct {
	annotations string
	categories  []string
	skipEmpty   bool
	noCache     bool
}

func (f *datasetFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.annotations, "annotations", "a", "", "Scalabel annotation file")
	cmd.Flags().StringSliceVar(&f.categories, "category", nil, "Keep only labels of this category (repeatable)")
	cmd.Flags().BoolVar(&f.skipEmpty, "skip-empty", false, "Drop frames without labels")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "Regenerate the mapping without reading or writing the cache")
	_ = cmd.MarkFlagRequired("annotations")
}

func (f *datasetFlags) scalabel(cfg *config.Config) (*dataset.Scalabel, error) {
	path := strings.TrimSpace(f.annotations)
	if path == "" {
		return nil, errors.New("--annotations is required")
	}
	expanded, err := config.ExpandPath(path)
	if err != nil {
		return nil, fmt.Errorf("resolve annotations path: %w", err)
	}
	return &dataset.Scalabel{
		Fs:          afero.NewOsFs(),
		DataRoot:    cfg.Paths.DataRoot,
		Annotations: expanded,
		Categories:  f.categories,
		SkipEmpty:   f.skipEmpty,
	}, nil
}

// pipeline bundles the mapping store, loader and dataset for one command run.
type pipeline struct {
	cfg        *config.Config
	logger     *slog.Logger
	store      mapping.Inspector
	closeStore func() error
	loader     *mapping.Loader[dataset.Frame]
	dataset    *dataset.Scalabel
	useCache   bool
}

func openPipeline(cmdCtx context.Context, ctx *commandContext, flags *datasetFlags, component string) (*pipeline, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := ctx.newLogger(cfg, component)
	if err != nil {
		return nil, err
	}
	ds, err := flags.scalabel(cfg)
	if err != nil {
		return nil, err
	}
	store, closeStore, err := mapping.OpenStore(cmdCtx, cfg)
	if err != nil {
		return nil, err
	}
	return &pipeline{
		cfg:        cfg,
		logger:     logger,
		store:      store,
		closeStore: closeStore,
		loader:     mapping.NewLoader[dataset.Frame](store, mapping.OptionsFromConfig(cfg, logger)),
		dataset:    ds,
		useCache:   cfg.Mapping.UseCache && !flags.noCache,
	}, nil
}

func (p *pipeline) resolve(ctx context.Context) (mapping.Result[dataset.Frame], error) {
	return p.dataset.Resolve(ctx, p.loader, p.useCache)
}

func (p *pipeline) Close() error {
	if p == nil || p.closeStore == nil {
		return nil
	}
	return p.closeStore()
}

func openStoreForCLI(cmdCtx context.Context, ctx *commandContext) (mapping.Inspector, func() error, *config.Config, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, nil, nil, err
	}
	store, closeStore, err := mapping.OpenStore(cmdCtx, cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	return store, closeStore, cfg, nil
}
