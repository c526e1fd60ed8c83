package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"vis4d/internal/augment"
	"vis4d/internal/backend"
	"vis4d/internal/dataset"
	"vis4d/internal/fetch"
	"vis4d/internal/logging"
	"vis4d/internal/sampling"
)

// sampleImageCache bounds the in-memory image cache used by one fetch.
const sampleImageCache = 64

func newSampleCommand(ctx *commandContext) *cobra.Command {
	var flags datasetFlags
	cmd := &cobra.Command{
		Use:   "sample <index>",
		Short: "Fetch one training clip and describe it",
		Long: `Fetch the clip for one dataset index the way a training worker does.

The key frame is decoded and augmented. With [sampling] num_ref_imgs > 0 and
[loader] training enabled, reference frames from the same video are sampled
and transformed with the key frame's parameters. Failed frames are replaced
by other candidates.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := strconv.Atoi(strings.TrimSpace(args[0]))
			if err != nil {
				return fmt.Errorf("invalid index %q: %w", args[0], err)
			}

			workerID := uuid.NewString()
			runCtx := logging.WithWorkerID(cmd.Context(), workerID)

			p, err := openPipeline(runCtx, ctx, &flags, "cli-sample")
			if err != nil {
				return err
			}
			defer p.Close()

			res, err := p.resolve(runCtx)
			if err != nil {
				return err
			}
			if idx < 0 || idx >= res.List.Len() {
				return fmt.Errorf("index %d out of range [0, %d)", idx, res.List.Len())
			}

			images, err := backend.NewCached(backend.NewFileBackend(afero.NewOsFs()), sampleImageCache)
			if err != nil {
				return err
			}
			transformer, err := augment.FromConfig(images, p.cfg)
			if err != nil {
				return err
			}
			samplingCfg, err := sampling.FromConfig(p.cfg.Sampling)
			if err != nil {
				return err
			}
			ds, err := fetch.New(res.List, transformer.Apply, fetch.Options[dataset.Frame]{
				Training:       p.cfg.Loader.Training,
				Sampling:       samplingCfg,
				VideoOf:        dataset.VideoOf,
				RetryWarnAfter: p.cfg.Loader.RetryWarnAfter,
				MaxRetries:     p.cfg.Loader.MaxRetries,
				Seed:           p.cfg.Loader.Seed,
				WorkerID:       workerID,
				Logger:         p.logger,
			})
			if err != nil {
				return err
			}

			clip, err := ds.Get(runCtx, idx)
			if err != nil {
				return fmt.Errorf("fetch sample %d: %w", idx, err)
			}

			if ctx.JSONMode() {
				return writeJSON(cmd, map[string]any{
					"index":   idx,
					"mapping": res.Key,
					"samples": clip,
				})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Mapping: %s\n", res.Key)
			fmt.Fprintf(out, "Clip for index %d: %d frames\n", idx, len(clip))
			rows := make([][]string, 0, len(clip))
			for _, s := range clip {
				video := s.Frame.VideoName
				if video == "" {
					video = "-"
				}
				frame := "-"
				if i, ok := s.FrameIndex(); ok {
					frame = strconv.Itoa(i)
				}
				rows = append(rows, []string{
					s.Frame.Name,
					video,
					frame,
					yesNo(s.Keyframe),
					fmt.Sprintf("%dx%d", s.Image.Width, s.Image.Height),
					strconv.Itoa(len(s.Boxes)),
					yesNo(s.Params.Flip),
					fmt.Sprintf("%.2f", s.Params.Scale),
				})
			}
			fmt.Fprintln(out, renderTable([]column{
				left("Name"), left("Video"), right("Frame"), left("Key"),
				right("Size"), right("Boxes"), left("Flip"), right("Scale"),
			}, rows))
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}
