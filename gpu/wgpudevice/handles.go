package wgpudevice

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gogpu/gputypes"

	"github.com/gekko3d/gridshadow/gpu"
)

type Buffer struct {
	buf   *wgpu.Buffer
	label string
	size  uint64
}

func (b *Buffer) Label() string { return b.label }
func (b *Buffer) Size() uint64  { return b.size }
func (b *Buffer) Release()      { b.buf.Release() }

type Texture struct {
	tex *wgpu.Texture
}

func (t *Texture) CreateView() (gpu.TextureView, error) {
	v, err := t.tex.CreateView(nil)
	if err != nil {
		return nil, err
	}
	return &TextureView{view: v}, nil
}

func (t *Texture) Release() { t.tex.Release() }

type TextureView struct {
	view *wgpu.TextureView
}

func (v *TextureView) Release() { v.view.Release() }

type Sampler struct {
	sampler *wgpu.Sampler
}

func (s *Sampler) Release() { s.sampler.Release() }

type BindGroupLayout struct {
	layout *wgpu.BindGroupLayout
}

func (l *BindGroupLayout) Release() { l.layout.Release() }

type BindGroup struct {
	group *wgpu.BindGroup
}

func (g *BindGroup) Release() { g.group.Release() }

type ShaderModule struct {
	module *wgpu.ShaderModule
}

func (m *ShaderModule) Release() { m.module.Release() }

// RenderPipeline owns the pipeline layout it was created with.
type RenderPipeline struct {
	pipeline *wgpu.RenderPipeline
	layout   *wgpu.PipelineLayout
}

func (p *RenderPipeline) Release() {
	p.pipeline.Release()
	p.layout.Release()
}

type CommandBuffer struct {
	cmd *wgpu.CommandBuffer
}

func (c *CommandBuffer) Release() { c.cmd.Release() }

type encoder struct {
	enc *wgpu.CommandEncoder
}

func (e *encoder) BeginRenderPass(desc *gpu.RenderPassDescriptor) (gpu.RenderPass, error) {
	attachments := make([]wgpu.RenderPassColorAttachment, 0, len(desc.ColorAttachments))
	for i, a := range desc.ColorAttachments {
		view, ok := a.View.(*TextureView)
		if !ok {
			return nil, fmt.Errorf("render pass %q: attachment %d: %w", desc.Label, i, errForeignHandle)
		}
		load, err := lookup(loadOps, a.LoadOp, "load op")
		if err != nil {
			return nil, fmt.Errorf("render pass %q: %w", desc.Label, err)
		}
		store, err := lookup(storeOps, a.StoreOp, "store op")
		if err != nil {
			return nil, fmt.Errorf("render pass %q: %w", desc.Label, err)
		}
		attachments = append(attachments, wgpu.RenderPassColorAttachment{
			View:       view.view,
			LoadOp:     load,
			StoreOp:    store,
			ClearValue: wgpu.Color{R: a.ClearValue.R, G: a.ClearValue.G, B: a.ClearValue.B, A: a.ClearValue.A},
		})
	}
	p := e.enc.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label:            desc.Label,
		ColorAttachments: attachments,
	})
	return &pass{pass: p, label: desc.Label}, nil
}

func (e *encoder) Finish() (gpu.CommandBuffer, error) {
	defer e.enc.Release()
	cmd, err := e.enc.Finish(nil)
	if err != nil {
		return nil, err
	}
	return &CommandBuffer{cmd: cmd}, nil
}

// pass forwards to a wgpu render pass. Calls with handles from another
// backend are dropped and reported by End.
type pass struct {
	pass  *wgpu.RenderPassEncoder
	label string
	err   error
}

func (p *pass) fail(err error) {
	if p.err == nil {
		p.err = fmt.Errorf("render pass %q: %w", p.label, err)
	}
}

func (p *pass) SetPipeline(pipeline gpu.RenderPipeline) {
	rp, ok := pipeline.(*RenderPipeline)
	if !ok {
		p.fail(errForeignHandle)
		return
	}
	p.pass.SetPipeline(rp.pipeline)
}

func (p *pass) SetBindGroup(index uint32, group gpu.BindGroup, dynamicOffsets []uint32) {
	g, ok := group.(*BindGroup)
	if !ok {
		p.fail(errForeignHandle)
		return
	}
	p.pass.SetBindGroup(index, g.group, dynamicOffsets)
}

func (p *pass) SetVertexBuffer(slot uint32, buffer gpu.Buffer, offset, size uint64) {
	b, ok := buffer.(*Buffer)
	if !ok {
		p.fail(errForeignHandle)
		return
	}
	p.pass.SetVertexBuffer(slot, b.buf, offset, convertSize(size))
}

func (p *pass) SetIndexBuffer(buffer gpu.Buffer, format gputypes.IndexFormat, offset, size uint64) {
	b, ok := buffer.(*Buffer)
	if !ok {
		p.fail(errForeignHandle)
		return
	}
	f, err := lookup(indexFormats, format, "index format")
	if err != nil {
		p.fail(err)
		return
	}
	p.pass.SetIndexBuffer(b.buf, f, offset, convertSize(size))
}

func (p *pass) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	p.pass.Draw(vertexCount, instanceCount, firstVertex, firstInstance)
}

func (p *pass) DrawIndexed(indexCount, instanceCount, firstIndex uint32, baseVertex int32, firstInstance uint32) {
	p.pass.DrawIndexed(indexCount, instanceCount, firstIndex, baseVertex, firstInstance)
}

func (p *pass) End() error {
	defer p.pass.Release()
	if err := p.pass.End(); err != nil {
		return err
	}
	return p.err
}
