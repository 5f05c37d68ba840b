package shadow

import (
	"fmt"

	"github.com/gekko3d/gridshadow/assets"
	"github.com/gekko3d/gridshadow/gpu"
	"github.com/gekko3d/gridshadow/render"
	"github.com/gekko3d/gridshadow/scene"
)

type bufferGroup struct {
	group  gpu.BindGroup
	buffer gpu.Buffer
}

func (b *bufferGroup) release() {
	if b.group != nil {
		b.group.Release()
	}
	*b = bufferGroup{}
}

type gridGroup struct {
	group  gpu.BindGroup
	buffer gpu.Buffer
	view   gpu.TextureView
	offset uint32
}

type meshGroup struct {
	group  gpu.BindGroup
	buffer gpu.Buffer
	used   bool
}

// BindGroups owns the bind groups of the shadow pass and the grid shadow
// bind group read by the grid shading pass. Groups are rebuilt only when a
// buffer or texture view they reference is replaced.
type BindGroups struct {
	device   gpu.Device
	pipeline *ShadowPipeline
	log      Logger

	view     bufferGroup
	viewOK   bool
	model    bufferGroup
	modelOK  bool
	deformed map[*assets.GpuMesh]*meshGroup
	grids    map[scene.Entity]*gridGroup
}

func NewBindGroups(device gpu.Device, pipeline *ShadowPipeline, log Logger) *BindGroups {
	return &BindGroups{
		device:   device,
		pipeline: pipeline,
		log:      orNop(log),
		deformed: make(map[*assets.GpuMesh]*meshGroup),
		grids:    make(map[scene.Entity]*gridGroup),
	}
}

// PrepareViews refreshes the view group and every grid shadow group. Groups
// of grids without a view this frame are released.
func (b *BindGroups) PrepareViews(views *render.ViewUniforms, shadows *Uniforms, state *State) error {
	b.viewOK = false
	if buf, ok := views.Buffer.Binding(); ok {
		if err := b.refresh(&b.view, buf, "grid_shadow_view_bind_group", b.pipeline.ViewLayout, render.ViewUniformSize); err != nil {
			return err
		}
		b.viewOK = true
	} else {
		b.log.Debugf("grid shadow: view uniforms unbound, skipping view bind group")
	}

	shadowBuf, shadowOK := shadows.Buffer.Binding()
	if !shadowOK && len(state.Grids()) > 0 {
		b.log.Debugf("grid shadow: shadow uniforms unbound, skipping grid bind groups")
	}
	for grid, g := range b.grids {
		if _, ok := state.View(grid); !ok || !shadowOK {
			g.group.Release()
			delete(b.grids, grid)
		}
	}
	if !shadowOK {
		return nil
	}

	for _, grid := range state.Grids() {
		v, _ := state.View(grid)
		g, ok := b.grids[grid]
		if ok && g.buffer == shadowBuf && g.view == v.Texture.View {
			g.offset = v.UniformOffset
			continue
		}
		group, err := b.device.CreateBindGroup(&gpu.BindGroupDescriptor{
			Label:  "grid_shadow_bind_group_" + grid.String(),
			Layout: b.pipeline.GridShadowLayout,
			Entries: []gpu.BindGroupEntry{
				{Binding: 0, Buffer: shadowBuf, Size: ShadowUniformSize},
				{Binding: 1, TextureView: v.Texture.View},
				{Binding: 2, Sampler: b.pipeline.Sampler},
			},
		})
		if err != nil {
			return fmt.Errorf("grid shadow bind group for %s: %w", grid, err)
		}
		if ok {
			g.group.Release()
		}
		b.grids[grid] = &gridGroup{group: group, buffer: shadowBuf, view: v.Texture.View, offset: v.UniformOffset}
	}
	return nil
}

// PrepareMeshes refreshes the model group and the per-mesh groups of
// skinned or morphed meshes queued this frame.
func (b *BindGroups) PrepareMeshes(uniforms *MeshUniforms, state *State, meshes assets.MeshResolver) error {
	b.modelOK = false
	buf, ok := uniforms.Buffer.Binding()
	if !ok {
		b.log.Debugf("grid shadow: mesh uniforms unbound, skipping mesh bind groups")
		return nil
	}
	if err := b.refresh(&b.model, buf, "grid_shadow_mesh_bind_group", b.pipeline.MeshLayout(0), MeshUniformSize); err != nil {
		return err
	}
	b.modelOK = true

	for _, g := range b.deformed {
		g.used = false
	}
	for _, grid := range state.Grids() {
		for _, item := range state.Phase(grid).Items {
			mesh, ok := meshes.Mesh(item.Mesh)
			if !ok || mesh.Flags == 0 {
				continue
			}
			if err := b.prepareDeformed(mesh, buf); err != nil {
				return err
			}
		}
	}
	for mesh, g := range b.deformed {
		if !g.used {
			g.group.Release()
			delete(b.deformed, mesh)
		}
	}
	return nil
}

func (b *BindGroups) prepareDeformed(mesh *assets.GpuMesh, buf gpu.Buffer) error {
	g, ok := b.deformed[mesh]
	if ok && g.buffer == buf {
		g.used = true
		return nil
	}
	entries := []gpu.BindGroupEntry{{Binding: 0, Buffer: buf, Size: MeshUniformSize}}
	if mesh.Flags.Skinned() {
		entries = append(entries, gpu.BindGroupEntry{Binding: 1, Buffer: mesh.JointBuffer, Size: assets.JointBufferSize})
	}
	if mesh.Flags.Morphed() {
		entries = append(entries,
			gpu.BindGroupEntry{Binding: 2, Buffer: mesh.MorphWeights, Size: assets.MorphWeightsSize},
			gpu.BindGroupEntry{Binding: 3, TextureView: mesh.MorphView},
		)
	}
	group, err := b.device.CreateBindGroup(&gpu.BindGroupDescriptor{
		Label:   mesh.Label + " grid shadow mesh bind group",
		Layout:  b.pipeline.MeshLayout(mesh.Flags),
		Entries: entries,
	})
	if err != nil {
		return fmt.Errorf("grid shadow mesh bind group for %q: %w", mesh.Label, err)
	}
	if ok {
		g.group.Release()
	}
	b.deformed[mesh] = &meshGroup{group: group, buffer: buf, used: true}
	return nil
}

func (b *BindGroups) refresh(cur *bufferGroup, buf gpu.Buffer, label string, layout gpu.BindGroupLayout, size uint64) error {
	if cur.group != nil && cur.buffer == buf {
		return nil
	}
	group, err := b.device.CreateBindGroup(&gpu.BindGroupDescriptor{
		Label:   label,
		Layout:  layout,
		Entries: []gpu.BindGroupEntry{{Binding: 0, Buffer: buf, Size: size}},
	})
	if err != nil {
		return fmt.Errorf("%s: %w", label, err)
	}
	cur.release()
	*cur = bufferGroup{group: group, buffer: buf}
	return nil
}

// View returns the view group when the view uniforms were written this
// frame.
func (b *BindGroups) View() (gpu.BindGroup, bool) {
	return b.view.group, b.viewOK
}

// Mesh returns the group 2 bind group for mesh.
func (b *BindGroups) Mesh(mesh *assets.GpuMesh) (gpu.BindGroup, bool) {
	if !b.modelOK {
		return nil, false
	}
	if mesh.Flags == 0 {
		return b.model.group, true
	}
	g, ok := b.deformed[mesh]
	if !ok {
		return nil, false
	}
	return g.group, true
}

// GridShadow returns the grid's shadow bind group and the dynamic offset of
// its uniform.
func (b *BindGroups) GridShadow(grid scene.Entity) (gpu.BindGroup, uint32, bool) {
	g, ok := b.grids[grid]
	if !ok {
		return nil, 0, false
	}
	return g.group, g.offset, true
}
