package cli

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	var (
		files    sceneFlags
		duration time.Duration
		dolly    float32
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the engine loops on a scene for a fixed duration",
		Long:  `run starts the tick and render loops, optionally dollies every camera each tick, and stops after --duration. Enable profiling in the settings file to log queue timings.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := loggerFromContext(cmd.Context())
			e, err := buildEngine(logger, files)
			if err != nil {
				return err
			}
			defer e.Close()

			var frames atomic.Int64
			e.SetRenderCallback(func(float32) { frames.Add(1) })
			if dolly != 0 {
				e.SetTickCallback(func(dt float32) {
					for _, k := range e.handles.Cameras {
						if c := e.Camera(k); c != nil && c.Controller() != nil {
							c.Controller().Dolly(dolly * dt)
						}
					}
				})
			}

			timer := time.AfterFunc(duration, e.Quit)
			defer timer.Stop()

			prog := newProgress(logger)
			if err := e.Run(); err != nil {
				return err
			}
			prog.done(fmt.Sprintf("Rendered %d frame(s)", frames.Load()))

			out := cmd.OutOrStdout()
			printKeyValue(out, "frames", frames.Load())
			printKeyValue(out, "pipelines", e.Pipelines().Len())
			printKeyValue(out, "profiling", e.settings.Engine.Profiling)
			if e.renderer != nil {
				printKeyValue(out, "gpu pipelines", e.renderer.Registered())
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&files.settings, "config", "", "settings TOML file (defaults apply when omitted)")
	cmd.Flags().StringVar(&files.scene, "scene", "", "scene TOML file")
	cmd.Flags().DurationVar(&duration, "duration", 2*time.Second, "how long to run")
	cmd.Flags().Float32Var(&dolly, "dolly", 0, "camera dolly speed in units per second")
	_ = cmd.MarkFlagRequired("scene")
	return cmd
}
