package shadow

import (
	"fmt"

	"github.com/gekko3d/gridshadow/assets"
	"github.com/gekko3d/gridshadow/render"
	"github.com/gekko3d/gridshadow/scene"
)

const DrawFunctionName = "draw_grid_shadow_mesh"

type (
	RenderCommand = render.RenderCommand[*ShadowView, *ShadowDrawItem]
	DrawFunctions = render.DrawFunctions[*ShadowView, *ShadowDrawItem]
)

func NewDrawFunctions() *DrawFunctions {
	return render.NewDrawFunctions[*ShadowView, *ShadowDrawItem]()
}

// DrawShadowMesh is the draw function every shadow item uses.
func DrawShadowMesh(cache *render.PipelineCache, groups *BindGroups, meshes assets.MeshResolver, materials assets.MaterialResolver) render.RenderCommands[*ShadowView, *ShadowDrawItem] {
	return render.RenderCommands[*ShadowView, *ShadowDrawItem]{
		SetItemPipeline{Cache: cache},
		SetGridShadowViewBindGroup{Index: ViewGroup, Groups: groups},
		SetMaterialBindGroup{Index: MaterialGroup, Materials: materials},
		SetMeshBindGroup{Index: MeshGroup, Groups: groups, Meshes: meshes},
		DrawMesh{Meshes: meshes},
	}
}

type SetItemPipeline struct {
	Cache *render.PipelineCache
}

func (c SetItemPipeline) Render(_ *ShadowView, item *ShadowDrawItem, pass *render.TrackedRenderPass) error {
	p, ok := c.Cache.RenderPipeline(item.Pipeline)
	if !ok {
		return fmt.Errorf("pipeline %d not in cache", item.Pipeline)
	}
	pass.SetPipeline(p)
	return nil
}

// SetGridShadowViewBindGroup binds the shadow camera's view uniform.
type SetGridShadowViewBindGroup struct {
	Index  uint32
	Groups *BindGroups
}

func (c SetGridShadowViewBindGroup) Render(view *ShadowView, _ *ShadowDrawItem, pass *render.TrackedRenderPass) error {
	group, ok := c.Groups.View()
	if !ok {
		return fmt.Errorf("view bind group not prepared")
	}
	pass.SetBindGroup(c.Index, group, []uint32{view.View.UniformOffset})
	return nil
}

type SetMaterialBindGroup struct {
	Index     uint32
	Materials assets.MaterialResolver
}

func (c SetMaterialBindGroup) Render(_ *ShadowView, item *ShadowDrawItem, pass *render.TrackedRenderPass) error {
	m, ok := c.Materials.Material(item.Material)
	if !ok {
		return fmt.Errorf("material %s not loaded", item.Material)
	}
	pass.SetBindGroup(c.Index, m.BindGroup, nil)
	return nil
}

type SetMeshBindGroup struct {
	Index  uint32
	Groups *BindGroups
	Meshes assets.MeshResolver
}

func (c SetMeshBindGroup) Render(_ *ShadowView, item *ShadowDrawItem, pass *render.TrackedRenderPass) error {
	if item.DynamicOffset == nil {
		return fmt.Errorf("%s has no mesh uniform", item.Entity)
	}
	mesh, ok := c.Meshes.Mesh(item.Mesh)
	if !ok {
		return fmt.Errorf("mesh %s not loaded", item.Mesh)
	}
	group, ok := c.Groups.Mesh(mesh)
	if !ok {
		return fmt.Errorf("mesh bind group for %q not prepared", mesh.Label)
	}
	pass.SetBindGroup(c.Index, group, []uint32{*item.DynamicOffset})
	return nil
}

type DrawMesh struct {
	Meshes assets.MeshResolver
}

func (c DrawMesh) Render(_ *ShadowView, item *ShadowDrawItem, pass *render.TrackedRenderPass) error {
	mesh, ok := c.Meshes.Mesh(item.Mesh)
	if !ok {
		return fmt.Errorf("mesh %s not loaded", item.Mesh)
	}
	first, end := item.BatchRange[0], item.BatchRange[1]
	pass.SetVertexBuffer(0, mesh.VertexBuffer, 0)
	if mesh.IndexBuffer != nil {
		pass.SetIndexBuffer(mesh.IndexBuffer, mesh.IndexFormat, 0)
		pass.DrawIndexed(mesh.IndexCount, end-first, 0, 0, first)
		return nil
	}
	pass.Draw(mesh.VertexCount, end-first, 0, first)
	return nil
}

// SetGridShadowBindGroup binds a grid's shadow texture, sampler and uniform
// for the pass that shades the grid.
type SetGridShadowBindGroup struct {
	Index  uint32
	Groups *BindGroups
}

// Apply binds the group and reports whether the grid had one this frame.
// Without one the pass is left untouched.
func (c SetGridShadowBindGroup) Apply(pass *render.TrackedRenderPass, grid scene.Entity) bool {
	group, offset, ok := c.Groups.GridShadow(grid)
	if !ok {
		return false
	}
	pass.SetBindGroup(c.Index, group, []uint32{offset})
	return true
}
