package gridshadow

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gputypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gekko3d/gridshadow/assets"
	"github.com/gekko3d/gridshadow/gpu"
	"github.com/gekko3d/gridshadow/gpu/headless"
	"github.com/gekko3d/gridshadow/render"
	"github.com/gekko3d/gridshadow/scene"
	"github.com/gekko3d/gridshadow/shadow"
)

func newShadowApp(t *testing.T) (*App, *headless.Device, *scene.World) {
	t.Helper()
	app := NewAppBuilder().UseModule(FrameModule{}).Build()
	dev := app.UseHeadless(RenderModule{})
	app.UseModules(GridShadowModule{})
	world, ok := Resource[scene.World](app)
	require.True(t, ok)
	return app, dev, world
}

func gridFootprint() scene.FrustumFootprint {
	return scene.FrustumFootprint{Width: 100, Height: 50, UpDir: mgl32.Vec3{0, 0, -1}}
}

func TestGridShadowModule_Stages(t *testing.T) {
	app, _, _ := newShadowApp(t)

	assert.Equal(t, []string{
		"Extract", "Prepare", "PrepareViewUniforms", "PrepareBindGroups",
		"Queue", "PhaseBatch", "Render", "Cleanup",
	}, app.Stages())

	graph, _ := Resource[render.Graph](app)
	order, err := graph.Order()
	require.NoError(t, err)
	assert.Equal(t, []string{shadow.PassNodeName, render.EndMainPass}, order)
}

func TestGridShadowModule_RendersCastersEveryFrame(t *testing.T) {
	app, dev, world := newShadowApp(t)
	world.SetViewport(1920, 1080)
	grid := world.SpawnGrid(scene.IdentityTransform(), gridFootprint())

	cube, err := app.UploadMesh(assets.CreateCubeMesh(1, 1, 1))
	require.NoError(t, err)
	mat, err := app.UploadMaterial(&assets.Material{Label: "grey", BaseColor: mgl32.Vec4{0.5, 0.5, 0.5, 1}})
	require.NoError(t, err)
	world.SpawnMesh(cube, mat, scene.FromTranslation(mgl32.Vec3{0, 1, 0}), true)
	world.SpawnMesh(cube, mat, scene.FromTranslation(mgl32.Vec3{5, 1, 0}), false)

	require.NoError(t, app.Run(context.Background(), 2))

	passes := dev.PassesLabelled(shadow.PassNodeName)
	require.Len(t, passes, 2)
	for _, p := range passes {
		assert.True(t, p.Ended)
		assert.Len(t, p.Draws, 1)
	}
	assert.Len(t, dev.Submitted, 2)

	groups, _ := Resource[shadow.BindGroups](app)
	_, _, ok := groups.GridShadow(grid)
	assert.True(t, ok)

	textures, _ := Resource[gpu.TextureCache](app)
	assert.Equal(t, 1, textures.Len())

	clock, _ := Resource[FrameClock](app)
	assert.Equal(t, uint64(2), clock.Frame)
	assert.Equal(t, uint64(2), app.Frames())
}

func TestGridShadowModule_NoViewportRendersNothing(t *testing.T) {
	app, dev, world := newShadowApp(t)
	world.SpawnGrid(scene.IdentityTransform(), gridFootprint())

	require.NoError(t, app.RunFrame())
	assert.Empty(t, dev.PassesLabelled(shadow.PassNodeName))
}

func TestGridShadowModule_DeviceErrorsReachTheHost(t *testing.T) {
	app, dev, world := newShadowApp(t)
	world.SetViewport(800, 600)
	world.SpawnGrid(scene.IdentityTransform(), gridFootprint())
	boom := errors.New("device lost")
	dev.FailOn("BeginRenderPass", boom)

	err := app.RunFrame()
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "stage Render")
}

func TestGridShadowModule_PartialSettingsKeepDefaults(t *testing.T) {
	app := NewAppBuilder().Build()
	app.UseHeadless(RenderModule{})
	app.UseModules(GridShadowModule{Settings: shadow.Settings{MaxTextureSize: 4096}})
	world, _ := Resource[scene.World](app)
	world.SetViewport(800, 600)
	grid := world.SpawnGrid(scene.IdentityTransform(), gridFootprint())

	require.NoError(t, app.RunFrame())

	settings, _ := Resource[shadow.Settings](app)
	assert.Equal(t, uint32(4096), settings.MaxTextureSize)
	assert.Equal(t, float32(shadow.DefaultCameraOffset), settings.CameraOffset)
	assert.Equal(t, shadow.DefaultPipelineWarnThreshold, settings.PipelineWarnThreshold)

	state, _ := Resource[shadow.State](app)
	v, ok := state.View(grid)
	require.True(t, ok)
	assert.Equal(t, uint32(4096), v.Texture.Descriptor.Size.Width)
	assert.Equal(t, uint32(3072), v.Texture.Descriptor.Size.Height)
	for i, f := range v.Uniform.ViewProj {
		assert.False(t, math.IsNaN(float64(f)) || math.IsInf(float64(f), 0), "view-projection entry %d is %v", i, f)
	}
	eye := v.View.Transform.Col(3).Vec3()
	assert.InDeltaSlice(t, []float32{0, shadow.DefaultCameraOffset, 0}, eye[:], 1e-3)
}

func TestGridShadowModule_NegativeCameraOffsetPanics(t *testing.T) {
	app := NewAppBuilder().Build()
	app.UseHeadless(RenderModule{})

	assert.PanicsWithValue(t, "GridShadowModule: grid shadow: camera offset -1 must be positive and finite", func() {
		app.UseModules(GridShadowModule{Settings: shadow.Settings{CameraOffset: -1}})
	})
}

func TestGridShadowModule_TexturePoolAgeOutFollowsRenderModule(t *testing.T) {
	for _, tt := range []struct {
		maxUnused int
		pooled    int
	}{
		{maxUnused: 1, pooled: 0},
		{maxUnused: 0, pooled: 1},
	} {
		app := NewAppBuilder().Build()
		dev := app.UseHeadless(RenderModule{TexturePoolMaxUnusedFrames: tt.maxUnused})
		app.UseModules(GridShadowModule{})
		world, _ := Resource[scene.World](app)
		world.SetViewport(800, 600)
		grid := world.SpawnGrid(scene.IdentityTransform(), gridFootprint())

		require.NoError(t, app.RunFrame())
		require.Len(t, dev.Textures, 1)
		world.Despawn(grid)
		require.NoError(t, app.RunFrame())

		textures, _ := Resource[gpu.TextureCache](app)
		assert.Equal(t, tt.pooled, textures.Len(), "max unused %d", tt.maxUnused)
		assert.Equal(t, tt.pooled == 0, dev.Textures[0].Released, "max unused %d", tt.maxUnused)
	}
}

func TestGridShadowModule_RequiresRenderer(t *testing.T) {
	app := NewAppBuilder().Build()

	assert.Panics(t, func() { app.UseModules(GridShadowModule{}) })
}

func TestUseRenderer_OnlyOneBackend(t *testing.T) {
	app := NewAppBuilder().Build()
	app.UseHeadless(RenderModule{})

	assert.PanicsWithValue(t, "multiple renderers installed: headless and wgpu", func() {
		app.UseRenderer(RendererWGPU, RenderModule{Device: headless.New()})
	})
	assert.PanicsWithValue(t, "renderer headless installed twice", func() {
		app.UseHeadless(RenderModule{})
	})
}

func TestUploadWithoutRenderer(t *testing.T) {
	app := NewAppBuilder().Build()

	_, err := app.UploadMesh(assets.CreatePlaneMesh(1))
	assert.Error(t, err)
	_, err = app.UploadMaterial(&assets.Material{Label: "m"})
	assert.Error(t, err)
}

type testSurface struct {
	view     gpu.TextureView
	acquired int
}

func (s *testSurface) Acquire() (gpu.TextureView, error) {
	s.acquired++
	return s.view, nil
}

func TestGridShadowModule_RunsBeforeMainPass(t *testing.T) {
	dev := headless.New()
	tex, err := dev.CreateTexture(&gputypes.TextureDescriptor{
		Label:  "surface",
		Size:   gputypes.Extent3D{Width: 4, Height: 4, DepthOrArrayLayers: 1},
		Format: gputypes.TextureFormatBGRA8Unorm,
		Usage:  gputypes.TextureUsageRenderAttachment,
	})
	require.NoError(t, err)
	view, err := tex.CreateView()
	require.NoError(t, err)
	surface := &testSurface{view: view}

	app := NewAppBuilder().Build()
	app.UseRenderer(RendererHeadless, RenderModule{Device: dev, Surface: surface})
	app.UseModules(GridShadowModule{})

	graph, _ := Resource[render.Graph](app)
	order, err := graph.Order()
	require.NoError(t, err)
	assert.Equal(t, []string{shadow.PassNodeName, render.MainPass, render.EndMainPass}, order)

	world, _ := Resource[scene.World](app)
	world.SetViewport(800, 600)
	world.SpawnGrid(scene.IdentityTransform(), gridFootprint())
	require.NoError(t, app.RunFrame())

	assert.Equal(t, 1, surface.acquired)
	main := dev.PassesLabelled(render.MainPass)
	require.Len(t, main, 1)
	assert.Same(t, view, main[0].Descriptor.ColorAttachments[0].View)
	assert.Equal(t, gputypes.LoadOpClear, main[0].Descriptor.ColorAttachments[0].LoadOp)
}
