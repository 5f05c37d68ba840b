package gridshadow

import (
	"fmt"

	"github.com/gekko3d/gridshadow/assets"
	"github.com/gekko3d/gridshadow/gpu"
	"github.com/gekko3d/gridshadow/render"
	"github.com/gekko3d/gridshadow/scene"
	"github.com/gekko3d/gridshadow/shadow"
)

// PhaseBatch runs after Queue: it writes the mesh uniforms of queued items
// and builds the mesh bind groups they reference.
var PhaseBatch = Stage{Name: "PhaseBatch"}

// GridShadowDraw holds the id of the draw function every shadow item uses.
type GridShadowDraw struct {
	Function render.DrawFunctionId
}

// GridShadowModule renders a shadow occlusion texture for every grid in the
// scene. It needs a renderer installed first.
type GridShadowModule struct {
	Settings shadow.Settings
}

func (m GridShadowModule) Install(app *App, cmd *Commands) {
	dev, ok := Resource[RenderDevice](app)
	if !ok {
		panic("GridShadowModule: no renderer installed, call UseRenderer first")
	}
	cache, _ := Resource[render.PipelineCache](app)
	registry, _ := Resource[assets.Registry](app)
	graph, _ := Resource[render.Graph](app)

	settings := m.Settings.WithDefaults()
	if err := settings.Validate(); err != nil {
		panic(fmt.Sprintf("GridShadowModule: %v", err))
	}
	log := cmd.Logger()

	pipeline, err := shadow.NewShadowPipeline(dev.Device, dev.MaterialLayout)
	if err != nil {
		panic(fmt.Sprintf("GridShadowModule: %v", err))
	}
	state := shadow.NewState()
	groups := shadow.NewBindGroups(dev.Device, pipeline, log)
	fns := shadow.NewDrawFunctions()
	drawID := fns.Add(shadow.DrawFunctionName, shadow.DrawShadowMesh(cache, groups, registry, registry))

	node := shadow.NewPassNode(state, fns, log)
	if err := graph.AddNode(shadow.PassNodeName, node); err != nil {
		panic(fmt.Sprintf("GridShadowModule: %v", err))
	}
	if err := graph.AddEdge(shadow.PassNodeName, render.EndMainPass); err != nil {
		panic(fmt.Sprintf("GridShadowModule: %v", err))
	}
	if _, ok := graph.Node(render.MainPass); ok {
		if err := graph.AddEdge(shadow.PassNodeName, render.MainPass); err != nil {
			panic(fmt.Sprintf("GridShadowModule: %v", err))
		}
	}

	cmd.AddResources(
		&settings,
		pipeline,
		shadow.NewSpecializer(pipeline, cache, settings, log),
		shadow.NewUniforms(),
		shadow.NewMeshUniforms(),
		state,
		groups,
		fns,
		&GridShadowDraw{Function: drawID},
	)

	cmd.UseStage(PhaseBatch, AfterStage(Queue))
	cmd.UseSystem(System(prepareGridShadowViewsSystem).InStage(Prepare))
	cmd.UseSystem(System(prepareGridShadowBindGroupsSystem).InStage(PrepareBindGroups))
	cmd.UseSystem(System(queueGridShadowsSystem).InStage(Queue))
	cmd.UseSystem(System(batchGridShadowsSystem).InStage(PhaseBatch))
	log.Infof("grid shadow: max texture size %d, camera offset %.1f", settings.MaxTextureSize, settings.CameraOffset)
}

func prepareGridShadowViewsSystem(
	cmd *Commands,
	dev *RenderDevice,
	snapshot *scene.Snapshot,
	settings *shadow.Settings,
	textures *gpu.TextureCache,
	views *render.Views,
	uniforms *shadow.Uniforms,
	state *shadow.State,
) error {
	return shadow.PrepareViews(shadow.ViewRequest{
		Device:   dev.Device,
		Snapshot: snapshot,
		Settings: *settings,
		Textures: textures,
		Views:    views,
		Uniforms: uniforms,
		State:    state,
		Log:      cmd.Logger(),
	})
}

func prepareGridShadowBindGroupsSystem(groups *shadow.BindGroups, views *render.ViewUniforms, uniforms *shadow.Uniforms, state *shadow.State) error {
	return groups.PrepareViews(views, uniforms, state)
}

func queueGridShadowsSystem(
	cmd *Commands,
	snapshot *scene.Snapshot,
	registry *assets.Registry,
	specializer *shadow.Specializer,
	draw *GridShadowDraw,
	state *shadow.State,
) {
	shadow.Queue(shadow.QueueRequest{
		Snapshot:     snapshot,
		Meshes:       registry,
		Materials:    registry,
		Specializer:  specializer,
		DrawFunction: draw.Function,
		State:        state,
		Log:          cmd.Logger(),
	})
}

func batchGridShadowsSystem(
	dev *RenderDevice,
	snapshot *scene.Snapshot,
	registry *assets.Registry,
	uniforms *shadow.MeshUniforms,
	groups *shadow.BindGroups,
	state *shadow.State,
) error {
	if err := shadow.BatchPhases(dev.Device, state, snapshot, uniforms); err != nil {
		return err
	}
	return groups.PrepareMeshes(uniforms, state, registry)
}
