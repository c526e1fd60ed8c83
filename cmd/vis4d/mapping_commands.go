package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"vis4d/internal/dataset"
	"vis4d/internal/mapping"
	"vis4d/internal/sampling"
)

func newMappingCommand(ctx *commandContext) *cobra.Command {
	mappingCmd := &cobra.Command{
		Use:   "mapping",
		Short: "Build and manage cached dataset mappings",
		Long: `Build and manage cached dataset mappings.

A mapping is the enumerated frame list of one annotation file under one
configuration. Workers load it from the cache instead of re-parsing the
annotations on every start.

Commands:
  build    - Parse annotations and store the mapping
  list     - List cached mappings
  remove   - Remove one mapping by <kind>/<hash>
  clear    - Remove all mappings, optionally of one kind
  stats    - Show video statistics for a dataset`,
	}

	mappingCmd.AddCommand(newMappingBuildCommand(ctx))
	mappingCmd.AddCommand(newMappingListCommand(ctx))
	mappingCmd.AddCommand(newMappingRemoveCommand(ctx))
	mappingCmd.AddCommand(newMappingClearCommand(ctx))
	mappingCmd.AddCommand(newMappingStatsCommand(ctx))

	return mappingCmd
}

func newMappingBuildCommand(ctx *commandContext) *cobra.Command {
	var flags datasetFlags
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Parse annotations and store the mapping",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := openPipeline(cmd.Context(), ctx, &flags, "cli-mapping")
			if err != nil {
				return err
			}
			defer p.Close()

			res, err := p.resolve(cmd.Context())
			if err != nil {
				return err
			}

			if ctx.JSONMode() {
				return writeJSON(cmd, map[string]any{
					"kind":         res.Key.Kind,
					"hash":         res.Key.Hash,
					"records":      res.List.Len(),
					"cache_hit":    res.CacheHit,
					"cache":        p.useCache,
					"elapsed_ms":   res.Elapsed.Milliseconds(),
					"buffer_bytes": res.List.Size(),
				})
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			fmt.Fprintf(out, "Mapping: %s\n", res.Key)
			fmt.Fprintf(out, "Records: %s\n", humanize.Comma(int64(res.List.Len())))
			fmt.Fprintf(out, "Status: %s\n", cacheStatus(res.CacheHit, p.useCache, colorize))
			fmt.Fprintf(out, "Buffer: %s\n", humanize.IBytes(uint64(res.List.Size())))
			fmt.Fprintf(out, "Elapsed: %s\n", res.Elapsed.Round(time.Millisecond))
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func newMappingListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List cached mappings",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeStore, cfg, err := openStoreForCLI(cmd.Context(), ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			entries, err := store.Entries(cmd.Context())
			if err != nil {
				return err
			}
			root, err := mapping.ResolveRoot(cfg.Paths.CacheDir)
			if err != nil {
				return err
			}
			usage, usageErr := mapping.FreeSpace(root)

			if ctx.JSONMode() {
				if entries == nil {
					entries = []mapping.Entry{}
				}
				payload := map[string]any{
					"cache_root": root,
					"store":      cfg.Mapping.Store,
					"entries":    entries,
				}
				if usageErr == nil {
					payload["usage"] = usage
				}
				return writeJSON(cmd, payload)
			}

			out := cmd.OutOrStdout()
			for _, line := range renderSectionHeader("Mapping cache", shouldColorize(out)) {
				fmt.Fprintln(out, line)
			}
			fmt.Fprintf(out, "Root: %s (%s store)\n", root, cfg.Mapping.Store)
			if usageErr == nil {
				fmt.Fprintf(out, "Free: %s of %s\n", humanize.IBytes(usage.FreeBytes), humanize.IBytes(usage.TotalBytes))
			}
			if len(entries) == 0 {
				fmt.Fprintln(out, "Mappings: none")
				return nil
			}

			var total int64
			rows := make([][]string, 0, len(entries))
			for i, entry := range entries {
				total += entry.Size
				updated := "unknown"
				if !entry.UpdatedAt.IsZero() {
					updated = humanize.Time(entry.UpdatedAt)
				}
				rows = append(rows, []string{
					fmt.Sprintf("%d", i+1),
					entry.Key.Kind,
					entry.Key.Hash,
					humanize.IBytes(uint64(entry.Size)),
					updated,
				})
			}
			fmt.Fprintf(out, "Mappings: %d (%s)\n", len(entries), humanize.IBytes(uint64(total)))
			fmt.Fprintln(out, renderTable(
				[]column{right("#"), left("Kind"), left("Hash"), right("Size"), left("Updated")},
				rows,
			))
			return nil
		},
	}
}

func parseMappingKey(value string) (mapping.Key, error) {
	kind, hash, ok := strings.Cut(strings.TrimSpace(value), "/")
	if !ok || kind == "" || hash == "" {
		return mapping.Key{}, fmt.Errorf("invalid mapping key %q (expected <kind>/<hash>)", value)
	}
	return mapping.Key{Kind: kind, Hash: hash}, nil
}

func newMappingRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <kind>/<hash>",
		Short: "Remove one cached mapping",
		Long: `Remove one cached mapping by its key, as printed by 'vis4d mapping list'.

Example:
  vis4d mapping remove Scalabel/3f8a2c1d9e0b4a77`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := parseMappingKey(args[0])
			if err != nil {
				return err
			}
			store, closeStore, _, err := openStoreForCLI(cmd.Context(), ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			if err := store.Remove(cmd.Context(), key); err != nil {
				if errors.Is(err, mapping.ErrNotFound) {
					return fmt.Errorf("mapping %s is not cached", key)
				}
				return err
			}
			if ctx.JSONMode() {
				return writeJSON(cmd, map[string]any{"removed": true, "key": key})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed mapping %s\n", key)
			return nil
		},
	}
}

func newMappingClearCommand(ctx *commandContext) *cobra.Command {
	var kind string
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove cached mappings",
		Long:  "Delete cached mappings. Workers regenerate them on their next start.",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeStore, _, err := openStoreForCLI(cmd.Context(), ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			removed, err := store.Clear(cmd.Context(), strings.TrimSpace(kind))
			if err != nil {
				return fmt.Errorf("clear mappings: %w", err)
			}
			if ctx.JSONMode() {
				return writeJSON(cmd, map[string]any{"removed": removed})
			}
			if removed == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Mapping cache is already empty")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cached mappings\n", removed)
			return nil
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "", "Only remove mappings of this dataset kind")
	return cmd
}

func newMappingStatsCommand(ctx *commandContext) *cobra.Command {
	var flags datasetFlags
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show video statistics for a dataset",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := openPipeline(cmd.Context(), ctx, &flags, "cli-mapping")
			if err != nil {
				return err
			}
			defer p.Close()

			res, err := p.resolve(cmd.Context())
			if err != nil {
				return err
			}
			frames, err := res.List.All()
			if err != nil {
				return err
			}
			index, err := sampling.BuildVideoIndex(len(frames), func(i int) (string, bool) {
				return dataset.VideoOf(frames[i])
			})
			if err != nil {
				return err
			}
			stats, err := index.Stats()
			if err != nil {
				return fmt.Errorf("compute video stats: %w", err)
			}

			if ctx.JSONMode() {
				return writeJSON(cmd, map[string]any{
					"key":   res.Key,
					"stats": stats,
				})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Mapping: %s\n", res.Key)
			fmt.Fprintln(out, renderTable(
				[]column{left("Metric"), right("Value")},
				[][]string{
					{"Frames", humanize.Comma(int64(stats.Records))},
					{"Videos", humanize.Comma(int64(stats.Videos))},
					{"Frames without video", humanize.Comma(int64(stats.Unassigned))},
					{"Mean frames/video", fmt.Sprintf("%.1f", stats.MeanFrames)},
					{"Median frames/video", fmt.Sprintf("%.1f", stats.Median)},
					{"P90 frames/video", fmt.Sprintf("%.1f", stats.P90)},
					{"Min / max frames", fmt.Sprintf("%d / %d", stats.MinFrames, stats.MaxFrames)},
				},
			))
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}
