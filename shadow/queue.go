package shadow

import (
	"fmt"

	"github.com/gekko3d/gridshadow/assets"
	"github.com/gekko3d/gridshadow/gpu"
	"github.com/gekko3d/gridshadow/render"
	"github.com/gekko3d/gridshadow/scene"
)

// ShadowDrawItem is one shadow caster drawn into one grid's texture. Items
// carry no sort key and draw in queue order.
type ShadowDrawItem struct {
	Entity       scene.Entity
	Pipeline     render.PipelineId
	DrawFunction render.DrawFunctionId
	// BatchRange is the instance range drawn. Every item is its own batch.
	BatchRange [2]uint32
	// DynamicOffset is the item's model matrix offset in MeshUniforms, set
	// by BatchPhases.
	DynamicOffset *uint32

	Mesh     assets.MeshId
	Material assets.MaterialId
}

type QueueRequest struct {
	Snapshot     *scene.Snapshot
	Meshes       assets.MeshResolver
	Materials    assets.MaterialResolver
	Specializer  *Specializer
	DrawFunction render.DrawFunctionId
	State        *State
	Log          Logger
}

// Queue fills each grid's phase with a draw item per visible shadow caster
// whose mesh and material resolve. Entities that cannot be drawn are skipped
// for this frame only.
func Queue(req QueueRequest) {
	log := orNop(req.Log)
	for _, grid := range req.State.Grids() {
		view, _ := req.State.View(grid)
		phase := req.State.Phase(grid)
		phase.Items = phase.Items[:0]

		for _, e := range view.Visible {
			inst, ok := req.Snapshot.Instance(e)
			if !ok || !inst.ShadowCaster {
				continue
			}
			mesh, ok := req.Meshes.Mesh(inst.Mesh)
			if !ok {
				log.Debugf("grid shadow: %s: mesh %s not loaded", e, inst.Mesh)
				continue
			}
			material, ok := req.Materials.Material(inst.Material)
			if !ok {
				log.Debugf("grid shadow: %s: material %s not loaded", e, inst.Material)
				continue
			}

			key := PipelineKey{
				VertexLayoutID: mesh.Layout.ID(),
				Material:       material.Key,
				Topology:       mesh.Topology,
				Mesh:           mesh.Flags,
			}
			id, err := req.Specializer.Specialize(key, mesh.Layout)
			if err != nil {
				log.Errorf("grid shadow: %s: %v", e, err)
				continue
			}
			phase.Items = append(phase.Items, ShadowDrawItem{
				Entity:       e,
				Pipeline:     id,
				DrawFunction: req.DrawFunction,
				Mesh:         inst.Mesh,
				Material:     inst.Material,
			})
		}
	}
}

// BatchPhases writes one model matrix per queued entity and points every
// item at it. An entity queued for several grids shares one uniform.
func BatchPhases(device gpu.Device, state *State, snapshot *scene.Snapshot, uniforms *MeshUniforms) error {
	uniforms.Buffer.Clear()
	offsets := make(map[scene.Entity]uint32)
	for _, grid := range state.Grids() {
		phase := state.Phase(grid)
		for i := range phase.Items {
			item := &phase.Items[i]
			offset, ok := offsets[item.Entity]
			if !ok {
				inst, found := snapshot.Instance(item.Entity)
				if !found {
					return fmt.Errorf("batch grid shadow phase: %s has no mesh instance", item.Entity)
				}
				model := inst.Transform.Matrix()
				offset = uniforms.Buffer.Push(render.AppendFloats(make([]byte, 0, MeshUniformSize), model[:]...))
				offsets[item.Entity] = offset
			}
			item.DynamicOffset = &offset
			item.BatchRange = [2]uint32{0, 1}
		}
	}
	if err := uniforms.Buffer.Write(device); err != nil {
		return fmt.Errorf("grid shadow mesh uniforms: %w", err)
	}
	return nil
}
