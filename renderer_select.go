package gridshadow

import (
	"github.com/gekko3d/gridshadow/gpu/headless"
)

// RendererName identifies the GPU backend behind the render graph.
type RendererName string

const (
	RendererHeadless RendererName = "headless"
	RendererWGPU     RendererName = "wgpu"
)

// UseRenderer installs the render module for one backend. It panics when a
// renderer is already installed.
//
//	app.UseRenderer(RendererWGPU, RenderModule{Device: device, ValidateShaders: true})
func (app *App) UseRenderer(name RendererName, mod RenderModule) *App {
	if err := claimRenderer(app, name); err != nil {
		app.Logger().Errorf("%v", err)
		panic(err.Error())
	}
	app.Logger().Infof("Renderer selected: %s", name)
	app.UseModules(mod)
	return app
}

// UseHeadless selects the recording in-memory device and returns it. Any
// Device set on mod is replaced.
func (app *App) UseHeadless(mod RenderModule) *headless.Device {
	device := headless.New()
	mod.Device = device
	app.UseRenderer(RendererHeadless, mod)
	return device
}
