package gridshadow

import (
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gekko3d/gridshadow/assets"
	"github.com/gekko3d/gridshadow/gpu"
	"github.com/gekko3d/gridshadow/render"
	"github.com/gekko3d/gridshadow/scene"
	"github.com/gekko3d/gridshadow/shader"
)

// PrepareViewUniforms runs after every view of the frame has been added and
// before anything binds the view uniforms.
var PrepareViewUniforms = Stage{Name: "PrepareViewUniforms"}

// RenderDevice is the device the render graph records on, plus the layouts
// shared by every pass.
type RenderDevice struct {
	Device         gpu.Device
	MaterialLayout gpu.BindGroupLayout
}

// RenderModule installs the scene, asset registry, view uniforms, caches and
// render graph, and the systems driving them. Install it through UseRenderer.
type RenderModule struct {
	Device gpu.Device
	// ValidateShaders runs naga over every specialized shader before the
	// device compiles it.
	ValidateShaders            bool
	TexturePoolMaxUnusedFrames int
	// Surface, when set, gets a main pass clearing it every frame.
	Surface    render.Surface
	ClearColor gputypes.Color
}

func (m RenderModule) Install(app *App, cmd *Commands) {
	if m.Device == nil {
		panic("RenderModule: no device")
	}
	layout, err := m.Device.CreateBindGroupLayout(assets.MaterialLayoutDescriptor())
	if err != nil {
		panic(fmt.Sprintf("RenderModule: material layout: %v", err))
	}

	var validator shader.Validator = shader.NopValidator{}
	if m.ValidateShaders {
		validator = shader.NagaValidator{}
	}
	maxUnused := m.TexturePoolMaxUnusedFrames
	if maxUnused <= 0 {
		maxUnused = gpu.DefaultMaxUnusedFrames
	}

	graph := render.NewGraph()
	if err := graph.AddNode(render.EndMainPass, render.EmptyNode{}); err != nil {
		panic(err)
	}
	if m.Surface != nil {
		if err := graph.AddNode(render.MainPass, &render.MainPassNode{Surface: m.Surface, Clear: m.ClearColor}); err != nil {
			panic(err)
		}
		if err := graph.AddEdge(render.MainPass, render.EndMainPass); err != nil {
			panic(err)
		}
	}

	cmd.AddResources(
		&RenderDevice{Device: m.Device, MaterialLayout: layout},
		scene.NewWorld(),
		scene.NewSnapshot(),
		&render.Views{},
		render.NewViewUniforms(),
		render.NewPipelineCache(m.Device, validator),
		gpu.NewTextureCache(maxUnused),
		assets.NewRegistry(),
		graph,
	)

	cmd.UseStage(PrepareViewUniforms, AfterStage(Prepare))
	cmd.UseSystem(System(extractSystem).InStage(Extract))
	cmd.UseSystem(System(prepareViewUniformsSystem).InStage(PrepareViewUniforms))
	cmd.UseSystem(System(renderGraphSystem).InStage(Render))
	cmd.UseSystem(System(textureCleanupSystem).InStage(Cleanup))
}

func extractSystem(world *scene.World, snapshot *scene.Snapshot, views *render.Views) {
	world.Extract(snapshot)
	views.Clear()
}

func prepareViewUniformsSystem(dev *RenderDevice, views *render.Views, uniforms *render.ViewUniforms) error {
	return render.PrepareViewUniforms(dev.Device, views, uniforms)
}

func renderGraphSystem(dev *RenderDevice, graph *render.Graph) error {
	return graph.Run(dev.Device)
}

func textureCleanupSystem(textures *gpu.TextureCache) {
	textures.Update()
}

// UploadMesh uploads mesh and registers it with the app's asset registry.
func (app *App) UploadMesh(mesh *assets.Mesh) (assets.MeshId, error) {
	dev, ok := Resource[RenderDevice](app)
	if !ok {
		return assets.MeshId{}, fmt.Errorf("upload mesh %q: no renderer installed", mesh.Label)
	}
	registry, _ := Resource[assets.Registry](app)
	gm, err := assets.UploadMesh(dev.Device, mesh)
	if err != nil {
		return assets.MeshId{}, err
	}
	return registry.AddMesh(gm), nil
}

// UploadMaterial uploads material and registers it with the app's asset
// registry.
func (app *App) UploadMaterial(material *assets.Material) (assets.MaterialId, error) {
	dev, ok := Resource[RenderDevice](app)
	if !ok {
		return assets.MaterialId{}, fmt.Errorf("upload material %q: no renderer installed", material.Label)
	}
	registry, _ := Resource[assets.Registry](app)
	gm, err := assets.UploadMaterial(dev.Device, dev.MaterialLayout, material)
	if err != nil {
		return assets.MaterialId{}, err
	}
	return registry.AddMaterial(gm), nil
}
