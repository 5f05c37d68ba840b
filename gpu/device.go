// Package gpu defines the device contract the renderer is written against.
//
// Plain descriptors and enums come from gputypes. Descriptors that reference
// other GPU objects (bind groups, pipelines, render passes) are declared here
// so they can carry backend handles instead of raw pointers.
package gpu

import (
	"github.com/gogpu/gputypes"
)

// WholeSize binds a buffer from its offset to its end.
const WholeSize = ^uint64(0)

type Buffer interface {
	Label() string
	Size() uint64
	Release()
}

type Texture interface {
	CreateView() (TextureView, error)
	Release()
}

type TextureView interface {
	Release()
}

type Sampler interface {
	Release()
}

type BindGroupLayout interface {
	Release()
}

type BindGroup interface {
	Release()
}

type ShaderModule interface {
	Release()
}

type RenderPipeline interface {
	Release()
}

type CommandBuffer interface {
	Release()
}

// Device creates GPU objects and submits recorded work.
type Device interface {
	CreateBuffer(desc *gputypes.BufferDescriptor) (Buffer, error)
	WriteBuffer(buffer Buffer, offset uint64, data []byte) error
	CreateTexture(desc *gputypes.TextureDescriptor) (Texture, error)
	// WriteTexture fills mip 0 of texture from tightly packed rows.
	WriteTexture(texture Texture, data []byte, bytesPerRow uint32, size gputypes.Extent3D) error
	CreateSampler(desc *gputypes.SamplerDescriptor) (Sampler, error)
	CreateBindGroupLayout(desc *gputypes.BindGroupLayoutDescriptor) (BindGroupLayout, error)
	CreateBindGroup(desc *BindGroupDescriptor) (BindGroup, error)
	CreateShaderModule(desc *ShaderModuleDescriptor) (ShaderModule, error)
	CreateRenderPipeline(desc *RenderPipelineDescriptor) (RenderPipeline, error)
	CreateCommandEncoder(label string) (CommandEncoder, error)
	Submit(buffers ...CommandBuffer) error
}

type CommandEncoder interface {
	BeginRenderPass(desc *RenderPassDescriptor) (RenderPass, error)
	Finish() (CommandBuffer, error)
}

type RenderPass interface {
	SetPipeline(pipeline RenderPipeline)
	SetBindGroup(index uint32, group BindGroup, dynamicOffsets []uint32)
	SetVertexBuffer(slot uint32, buffer Buffer, offset, size uint64)
	SetIndexBuffer(buffer Buffer, format gputypes.IndexFormat, offset, size uint64)
	Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32)
	DrawIndexed(indexCount, instanceCount, firstIndex uint32, baseVertex int32, firstInstance uint32)
	End() error
}

type BindGroupEntry struct {
	Binding     uint32
	Buffer      Buffer
	Offset      uint64
	Size        uint64
	TextureView TextureView
	Sampler     Sampler
}

type BindGroupDescriptor struct {
	Label   string
	Layout  BindGroupLayout
	Entries []BindGroupEntry
}

type ShaderModuleDescriptor struct {
	Label string
	Code  string
}

type VertexState struct {
	Module     ShaderModule
	EntryPoint string
	Buffers    []gputypes.VertexBufferLayout
}

type FragmentState struct {
	Module     ShaderModule
	EntryPoint string
	Targets    []gputypes.ColorTargetState
}

// RenderPipelineDescriptor describes a render pipeline. Layouts lists the bind
// group layouts in group index order.
type RenderPipelineDescriptor struct {
	Label        string
	Layouts      []BindGroupLayout
	Vertex       VertexState
	Fragment     *FragmentState
	Primitive    gputypes.PrimitiveState
	DepthStencil *gputypes.DepthStencilState
	Multisample  gputypes.MultisampleState
}

type ColorAttachment struct {
	View       TextureView
	LoadOp     gputypes.LoadOp
	StoreOp    gputypes.StoreOp
	ClearValue gputypes.Color
}

type RenderPassDescriptor struct {
	Label            string
	ColorAttachments []ColorAttachment
}
