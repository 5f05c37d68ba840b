package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/gekko3d/gridshadow"
	"github.com/gekko3d/gridshadow/config"
	"github.com/gekko3d/gridshadow/gpu"
	"github.com/gekko3d/gridshadow/gpu/headless"
	"github.com/gekko3d/gridshadow/scene"
	"github.com/gekko3d/gridshadow/shadow"
)

var (
	styleTitle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("36"))
	styleDim   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

type simulateOptions struct {
	scene  string
	frames int
}

func (c *CLI) simulateCommand() *cobra.Command {
	opts := simulateOptions{frames: 1}

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Render a scene file on the headless device and report the shadow passes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			report, err := c.simulate(cmd, cfg, opts)
			if err != nil {
				return err
			}
			return report.Print(c.Out)
		},
	}

	cmd.Flags().StringVarP(&opts.scene, "scene", "s", "", "YAML scene file (required)")
	cmd.Flags().IntVarP(&opts.frames, "frames", "n", opts.frames, "frames to render")
	_ = cmd.MarkFlagRequired("scene")
	return cmd
}

// GridReport describes one grid's shadow pass in the last simulated frame.
type GridReport struct {
	Name    string
	Width   uint32
	Height  uint32
	Area    shadow.Rect
	Queued  int
	Drawn   int
	Visible int
}

// Report summarizes a simulate run.
type Report struct {
	Frames    uint64
	Submitted int
	Textures  int
	Grids     []GridReport
}

func (c *CLI) simulate(cmd *cobra.Command, cfg *config.Config, opts simulateOptions) (*Report, error) {
	if opts.frames < 1 {
		return nil, errors.New("--frames must be at least 1")
	}
	desc, err := scene.LoadDescription(opts.scene)
	if err != nil {
		return nil, err
	}

	app := c.newApp(cfg)
	defer syncLogger(app)
	dev := app.UseHeadless(gridshadow.RenderModule{
		ValidateShaders:            cfg.Render.ValidateShaders,
		TexturePoolMaxUnusedFrames: cfg.Render.TexturePoolMaxUnusedFrames,
	})
	app.UseModules(gridshadow.GridShadowModule{Settings: cfg.ShadowSettings()})

	loaded, err := gridshadow.LoadScene(app, desc)
	if err != nil {
		return nil, err
	}
	if err := app.Run(cmd.Context(), opts.frames); err != nil {
		return nil, err
	}
	return buildReport(app, dev, loaded), nil
}

func buildReport(app *gridshadow.App, dev *headless.Device, loaded *gridshadow.LoadedScene) *Report {
	names := make(map[scene.Entity]string, len(loaded.Grids))
	for name, e := range loaded.Grids {
		names[e] = name
	}

	report := &Report{Frames: app.Frames(), Submitted: len(dev.Submitted)}
	if textures, ok := gridshadow.Resource[gpu.TextureCache](app); ok {
		report.Textures = textures.Len()
	}
	state, ok := gridshadow.Resource[shadow.State](app)
	if !ok {
		return report
	}
	for _, grid := range state.Grids() {
		view, _ := state.View(grid)
		name := names[grid]
		if name == "" {
			name = grid.String()
		}
		size := view.Texture.Descriptor.Size
		report.Grids = append(report.Grids, GridReport{
			Name:    name,
			Width:   size.Width,
			Height:  size.Height,
			Area:    view.Area,
			Queued:  len(state.Phase(grid).Items),
			Drawn:   drawnInto(dev, view),
			Visible: len(view.Visible),
		})
	}
	return report
}

// drawnInto counts the draws of the last pass that targeted view's texture.
func drawnInto(dev *headless.Device, view *shadow.ShadowView) int {
	for i := len(dev.Passes) - 1; i >= 0; i-- {
		p := dev.Passes[i]
		if len(p.Descriptor.ColorAttachments) > 0 && p.Descriptor.ColorAttachments[0].View == view.Texture.View {
			return len(p.Draws)
		}
	}
	return 0
}

func (r *Report) Print(w io.Writer) error {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("GRID", "TEXTURE", "AREA", "VISIBLE", "QUEUED", "DRAWN")
	for _, g := range r.Grids {
		t.Row(
			g.Name,
			fmt.Sprintf("%dx%d", g.Width, g.Height),
			fmt.Sprintf("%.1f x %.1f", g.Area.Width(), g.Area.Height()),
			fmt.Sprint(g.Visible),
			fmt.Sprint(g.Queued),
			fmt.Sprint(g.Drawn),
		)
	}
	_, err := fmt.Fprintf(w, "%s\n%s\n%s\n",
		styleTitle.Render(fmt.Sprintf("%d frames rendered", r.Frames)),
		t.Render(),
		styleDim.Render(fmt.Sprintf("%d submits, %d pooled textures", r.Submitted, r.Textures)),
	)
	return err
}
