package cli

import (
	"github.com/gogpu/gputypes"
	"github.com/spf13/cobra"

	"github.com/gekko3d/gridshadow"
	"github.com/gekko3d/gridshadow/config"
	"github.com/gekko3d/gridshadow/gpu/wgpudevice"
	"github.com/gekko3d/gridshadow/scene"
)

func (c *CLI) runCommand() *cobra.Command {
	var scenePath string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Open a window and render a scene file on the GPU until closed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			return c.run(cmd, cfg, scenePath)
		},
	}

	cmd.Flags().StringVarP(&scenePath, "scene", "s", "", "YAML scene file (required)")
	_ = cmd.MarkFlagRequired("scene")
	return cmd
}

func (c *CLI) run(cmd *cobra.Command, cfg *config.Config, scenePath string) error {
	desc, err := scene.LoadDescription(scenePath)
	if err != nil {
		return err
	}

	win, err := wgpudevice.OpenWindow(cfg.Window.Width, cfg.Window.Height, cfg.Window.Title)
	if err != nil {
		return err
	}
	defer win.Close()
	device, err := wgpudevice.New(win)
	if err != nil {
		return err
	}
	defer device.Release()

	app := c.newApp(cfg)
	defer syncLogger(app)
	app.UseRenderer(gridshadow.RendererWGPU, gridshadow.RenderModule{
		Device:                     device,
		ValidateShaders:            cfg.Render.ValidateShaders,
		TexturePoolMaxUnusedFrames: cfg.Render.TexturePoolMaxUnusedFrames,
		Surface:                    device,
		ClearColor:                 gputypes.Color{R: 0.1, G: 0.2, B: 0.3, A: 1},
	})
	app.UseModules(gridshadow.GridShadowModule{Settings: cfg.ShadowSettings()})
	if _, err := gridshadow.LoadScene(app, desc); err != nil {
		return err
	}

	world, _ := gridshadow.Resource[scene.World](app)
	ctx := cmd.Context()
	for !win.ShouldClose() {
		if err := ctx.Err(); err != nil {
			return err
		}
		win.PollEvents()
		width, height := win.FramebufferSize()
		if width == 0 || height == 0 {
			continue
		}
		device.Resize(width, height)
		world.SetViewport(width, height)
		if err := app.RunFrame(); err != nil {
			return err
		}
		device.Present()
	}
	app.Logger().Infof("Window closed after %d frames", app.Frames())
	return nil
}
