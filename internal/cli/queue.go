package cli

import (
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/Carmen-Shannon/oxy-outline/engine"
	"github.com/Carmen-Shannon/oxy-outline/engine/outline"
	"github.com/Carmen-Shannon/oxy-outline/engine/renderer/pipeline"
	"github.com/spf13/cobra"
)

func newQueueCmd() *cobra.Command {
	var (
		files  sceneFlags
		frames int
	)

	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Queue a scene's outlines and print each view's phases",
		RunE: func(cmd *cobra.Command, args []string) error {
			if frames < 1 {
				return fmt.Errorf("--frames must be at least 1")
			}
			logger := loggerFromContext(cmd.Context())
			e, err := buildEngine(logger, files)
			if err != nil {
				return err
			}
			defer e.Close()

			prog := newProgress(logger)
			var last engine.FrameResult
			for range frames {
				last, err = e.RenderFrame()
				if err != nil {
					return err
				}
			}
			prog.done(fmt.Sprintf("Queued %d frame(s)", frames))

			printFrame(cmd.OutOrStdout(), last, e.Pipelines(), entityNames(e.handles))
			if e.renderer != nil {
				printKeyValue(cmd.OutOrStdout(), "gpu pipelines", e.renderer.Registered())
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&files.settings, "config", "", "settings TOML file (defaults apply when omitted)")
	cmd.Flags().StringVar(&files.scene, "scene", "", "scene TOML file")
	cmd.Flags().IntVar(&frames, "frames", 1, "number of frames to queue")
	_ = cmd.MarkFlagRequired("scene")
	return cmd
}

func entityNames(h engine.SceneHandles) map[outline.Entity]string {
	names := make(map[outline.Entity]string, len(h.Entities))
	for name, e := range h.Entities {
		names[e] = name
	}
	return names
}

// printFrame writes every view's sorted phases and the pipelines they use.
func printFrame(w io.Writer, res engine.FrameResult, cache pipeline.Cache, names map[outline.Entity]string) {
	printTitle(w, "Frame %d", res.Frame)
	printKeyValue(w, "views", res.Stats.Views)
	printKeyValue(w, "queue time", res.QueueTime)
	fmt.Fprintln(w)

	used := make(map[pipeline.CachedPipelineID]struct{})
	for i, v := range res.Views {
		printInfo(w, "camera %d  layers %s  hdr %t", res.CameraKeys[i], v.Extracted.Layers(), v.Extracted.HDR)
		printPhase(w, "stencil", v.Stencil.Items(), names, used)
		printPhase(w, "opaque", v.Opaque.Items(), names, used)
		printPhase(w, "transparent", v.Transparent.Items(), names, used)
	}

	fmt.Fprintln(w)
	printTitle(w, "Pipelines")
	for _, id := range slices.Sorted(maps.Keys(used)) {
		if p, ok := cache.Get(id); ok {
			printDetail(w, "#%d %s", id, p.PipelineKey())
		}
	}
	printSuccess(w, "%s stencil, %s opaque, %s transparent entries using %s pipeline(s)",
		number(res.Stats.Stencil), number(res.Stats.Opaque), number(res.Stats.Transparent), number(len(used)))
}

func printPhase[T outline.StencilOutline | outline.OpaqueOutline | outline.TransparentOutline](
	w io.Writer, label string, items []T, names map[outline.Entity]string, used map[pipeline.CachedPipelineID]struct{},
) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(w, "  %s %s\n", styleValue.Render(label), number(len(items)))
	for _, it := range items {
		e, id, dist := phaseRow(it)
		used[id] = struct{}{}
		printDetail(w, "%-12s pipeline #%-3d distance %.3f", names[e], id, dist)
	}
}

func phaseRow(item any) (outline.Entity, pipeline.CachedPipelineID, float32) {
	switch it := item.(type) {
	case outline.StencilOutline:
		return it.Entity, it.Pipeline, it.Distance
	case outline.OpaqueOutline:
		return it.Entity, it.Pipeline, it.Distance
	case outline.TransparentOutline:
		return it.Entity, it.Pipeline, it.Distance
	default:
		return 0, 0, 0
	}
}
