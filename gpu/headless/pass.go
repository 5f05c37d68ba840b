package headless

import (
	"slices"

	"github.com/gogpu/gputypes"

	"github.com/gekko3d/gridshadow/gpu"
)

// Command is one recorded render pass call.
type Command struct {
	Op             string
	Pipeline       gpu.RenderPipeline
	Index          uint32
	BindGroup      gpu.BindGroup
	DynamicOffsets []uint32
	Buffer         gpu.Buffer
	IndexFormat    gputypes.IndexFormat
	Count          uint32
	Instances      uint32
}

// Draw captures the state bound when a draw call was recorded.
type Draw struct {
	Pipeline   gpu.RenderPipeline
	BindGroups map[uint32]gpu.BindGroup
	Offsets    map[uint32][]uint32
	Vertex     gpu.Buffer
	Index      gpu.Buffer
	Count      uint32
	Instances  uint32
	Indexed    bool
}

type Pass struct {
	Descriptor gpu.RenderPassDescriptor
	Commands   []Command
	Draws      []Draw
	Ended      bool

	pipeline gpu.RenderPipeline
	groups   map[uint32]gpu.BindGroup
	offsets  map[uint32][]uint32
	vertex   gpu.Buffer
	index    gpu.Buffer
}

func (p *Pass) SetPipeline(pipeline gpu.RenderPipeline) {
	p.pipeline = pipeline
	p.Commands = append(p.Commands, Command{Op: "SetPipeline", Pipeline: pipeline})
}

func (p *Pass) SetBindGroup(index uint32, group gpu.BindGroup, dynamicOffsets []uint32) {
	if p.groups == nil {
		p.groups = make(map[uint32]gpu.BindGroup)
		p.offsets = make(map[uint32][]uint32)
	}
	p.groups[index] = group
	p.offsets[index] = slices.Clone(dynamicOffsets)
	p.Commands = append(p.Commands, Command{
		Op:             "SetBindGroup",
		Index:          index,
		BindGroup:      group,
		DynamicOffsets: slices.Clone(dynamicOffsets),
	})
}

func (p *Pass) SetVertexBuffer(slot uint32, buffer gpu.Buffer, offset, size uint64) {
	p.vertex = buffer
	p.Commands = append(p.Commands, Command{Op: "SetVertexBuffer", Index: slot, Buffer: buffer})
}

func (p *Pass) SetIndexBuffer(buffer gpu.Buffer, format gputypes.IndexFormat, offset, size uint64) {
	p.index = buffer
	p.Commands = append(p.Commands, Command{Op: "SetIndexBuffer", Buffer: buffer, IndexFormat: format})
}

func (p *Pass) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	p.Commands = append(p.Commands, Command{Op: "Draw", Count: vertexCount, Instances: instanceCount})
	p.Draws = append(p.Draws, p.snapshot(vertexCount, instanceCount, false))
}

func (p *Pass) DrawIndexed(indexCount, instanceCount, firstIndex uint32, baseVertex int32, firstInstance uint32) {
	p.Commands = append(p.Commands, Command{Op: "DrawIndexed", Count: indexCount, Instances: instanceCount})
	p.Draws = append(p.Draws, p.snapshot(indexCount, instanceCount, true))
}

func (p *Pass) End() error {
	p.Ended = true
	return nil
}

// Ops lists the recorded operation names in order.
func (p *Pass) Ops() []string {
	ops := make([]string, len(p.Commands))
	for i, c := range p.Commands {
		ops[i] = c.Op
	}
	return ops
}

func (p *Pass) snapshot(count, instances uint32, indexed bool) Draw {
	d := Draw{
		Pipeline:   p.pipeline,
		BindGroups: make(map[uint32]gpu.BindGroup, len(p.groups)),
		Offsets:    make(map[uint32][]uint32, len(p.offsets)),
		Vertex:     p.vertex,
		Count:      count,
		Instances:  instances,
		Indexed:    indexed,
	}
	if indexed {
		d.Index = p.index
	}
	for k, v := range p.groups {
		d.BindGroups[k] = v
	}
	for k, v := range p.offsets {
		d.Offsets[k] = v
	}
	return d
}
