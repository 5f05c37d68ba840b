package render

import (
	"slices"

	"github.com/gogpu/gputypes"

	"github.com/gekko3d/gridshadow/gpu"
)

type boundGroup struct {
	group   gpu.BindGroup
	offsets []uint32
}

type boundBuffer struct {
	buffer gpu.Buffer
	offset uint64
}

// TrackedRenderPass wraps a gpu.RenderPass and drops state changes that
// would rebind what is already bound.
type TrackedRenderPass struct {
	pass     gpu.RenderPass
	pipeline gpu.RenderPipeline
	groups   map[uint32]boundGroup
	vertex   map[uint32]boundBuffer
	index    boundBuffer
	format   gputypes.IndexFormat
}

func NewTrackedRenderPass(pass gpu.RenderPass) *TrackedRenderPass {
	return &TrackedRenderPass{
		pass:   pass,
		groups: make(map[uint32]boundGroup),
		vertex: make(map[uint32]boundBuffer),
	}
}

func (t *TrackedRenderPass) SetPipeline(p gpu.RenderPipeline) {
	if t.pipeline == p {
		return
	}
	t.pipeline = p
	t.pass.SetPipeline(p)
}

func (t *TrackedRenderPass) SetBindGroup(index uint32, group gpu.BindGroup, dynamicOffsets []uint32) {
	if cur, ok := t.groups[index]; ok && cur.group == group && slices.Equal(cur.offsets, dynamicOffsets) {
		return
	}
	t.groups[index] = boundGroup{group: group, offsets: slices.Clone(dynamicOffsets)}
	t.pass.SetBindGroup(index, group, dynamicOffsets)
}

func (t *TrackedRenderPass) SetVertexBuffer(slot uint32, buffer gpu.Buffer, offset uint64) {
	if cur, ok := t.vertex[slot]; ok && cur.buffer == buffer && cur.offset == offset {
		return
	}
	t.vertex[slot] = boundBuffer{buffer: buffer, offset: offset}
	t.pass.SetVertexBuffer(slot, buffer, offset, gpu.WholeSize)
}

func (t *TrackedRenderPass) SetIndexBuffer(buffer gpu.Buffer, format gputypes.IndexFormat, offset uint64) {
	if t.index.buffer == buffer && t.index.offset == offset && t.format == format {
		return
	}
	t.index = boundBuffer{buffer: buffer, offset: offset}
	t.format = format
	t.pass.SetIndexBuffer(buffer, format, offset, gpu.WholeSize)
}

func (t *TrackedRenderPass) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	t.pass.Draw(vertexCount, instanceCount, firstVertex, firstInstance)
}

func (t *TrackedRenderPass) DrawIndexed(indexCount, instanceCount, firstIndex uint32, baseVertex int32, firstInstance uint32) {
	t.pass.DrawIndexed(indexCount, instanceCount, firstIndex, baseVertex, firstInstance)
}

func (t *TrackedRenderPass) End() error {
	return t.pass.End()
}
