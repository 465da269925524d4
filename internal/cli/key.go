package cli

import (
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/oxy-outline/engine/config"
	"github.com/Carmen-Shannon/oxy-outline/engine/mesh"
	"github.com/Carmen-Shannon/oxy-outline/engine/outline"
	"github.com/spf13/cobra"
)

var passTypes = map[string]outline.PassType{
	"stencil":     outline.PassTypeStencil,
	"opaque":      outline.PassTypeOpaque,
	"transparent": outline.PassTypeTransparent,
}

type keyFlags struct {
	msaa       uint32
	pass       string
	topology   string
	depth      string
	offsetZero bool
	hdr        bool
	backend    string
}

func (f keyFlags) build() (outline.PipelineKey, error) {
	pass, ok := passTypes[strings.ToLower(f.pass)]
	if !ok {
		return outline.PipelineKey{}, fmt.Errorf("unknown pass %q", f.pass)
	}
	topology, err := config.ParseTopology(f.topology)
	if err != nil {
		return outline.PipelineKey{}, err
	}
	depth, err := config.ParseDepthMode(f.depth)
	if err != nil {
		return outline.PipelineKey{}, err
	}
	backend, err := config.ParseBackend(f.backend)
	if err != nil {
		return outline.PipelineKey{}, err
	}

	return outline.NewPipelineKey().
		WithMSAA(f.msaa).
		WithPassType(pass).
		WithPrimitiveTopology(topology).
		WithDepthMode(depth).
		WithOffsetZero(f.offsetZero).
		WithHDRFormat(f.hdr).
		WithOpenGLWorkaround(outline.UsesOpenGLWorkaround(backend)), nil
}

func newKeyCmd() *cobra.Command {
	var f keyFlags

	cmd := &cobra.Command{
		Use:   "key",
		Short: "Print the outline pipeline variant selected by a key",
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := f.build()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printTitle(out, "%s", key)
			printKeyValue(out, "msaa", key.MSAA())
			printKeyValue(out, "pass", key.PassType())
			printKeyValue(out, "topology", key.PrimitiveTopology())
			printKeyValue(out, "depth", key.DepthMode())
			printKeyValue(out, "offset zero", key.OffsetZero())
			printKeyValue(out, "hdr", key.HDRFormat())
			printKeyValue(out, "gl workaround", key.OpenGLWorkaround())
			printKeyValue(out, "shader defs", strings.Join(outline.ShaderDefs(key), " "))

			p, err := outline.NewPipeline().Specialize(key, mesh.StandardLayout())
			if err != nil {
				fmt.Fprintln(out, styleWarning.Render("not specializable: "+err.Error()))
				return err
			}
			printKeyValue(out, "color target", p.ColorTargetEnabled())
			printKeyValue(out, "color format", p.ColorFormat())
			printKeyValue(out, "blend", p.BlendEnabled())
			printKeyValue(out, "depth write", p.DepthWriteEnabled())
			printKeyValue(out, "cull", p.CullMode())
			printSuccess(out, "specialized %s", p.PipelineKey())
			return nil
		},
	}

	cmd.Flags().Uint32Var(&f.msaa, "msaa", 4, "sample count")
	cmd.Flags().StringVar(&f.pass, "pass", "opaque", "pass type: stencil, opaque or transparent")
	cmd.Flags().StringVar(&f.topology, "topology", "triangle-list", "primitive topology")
	cmd.Flags().StringVar(&f.depth, "depth", "real", "depth mode: flat or real")
	cmd.Flags().BoolVar(&f.offsetZero, "offset-zero", false, "outline offset is zero")
	cmd.Flags().BoolVar(&f.hdr, "hdr", false, "view renders into an HDR target")
	cmd.Flags().StringVar(&f.backend, "backend", config.DefaultBackend, "adapter backend")
	return cmd
}
