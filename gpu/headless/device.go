// Package headless is an in-memory gpu.Device that records every call. It
// backs the simulate command and the renderer tests.
package headless

import (
	"fmt"
	"slices"

	"github.com/gogpu/gputypes"

	"github.com/gekko3d/gridshadow/gpu"
)

type Buffer struct {
	Descriptor gputypes.BufferDescriptor
	Data       []byte
	Writes     int
	Released   bool
}

func (b *Buffer) Label() string { return b.Descriptor.Label }
func (b *Buffer) Size() uint64  { return b.Descriptor.Size }
func (b *Buffer) Release()      { b.Released = true }

type Texture struct {
	Descriptor gputypes.TextureDescriptor
	Data       []byte
	Views      []*TextureView
	Released   bool
}

func (t *Texture) CreateView() (gpu.TextureView, error) {
	if t.Released {
		return nil, fmt.Errorf("texture %q already released", t.Descriptor.Label)
	}
	v := &TextureView{Texture: t}
	t.Views = append(t.Views, v)
	return v, nil
}

func (t *Texture) Release() { t.Released = true }

type TextureView struct {
	Texture  *Texture
	Released bool
}

func (v *TextureView) Release() { v.Released = true }

type Sampler struct {
	Descriptor gputypes.SamplerDescriptor
	Released   bool
}

func (s *Sampler) Release() { s.Released = true }

type BindGroupLayout struct {
	Descriptor gputypes.BindGroupLayoutDescriptor
	Released   bool
}

func (l *BindGroupLayout) Release() { l.Released = true }

type BindGroup struct {
	Descriptor gpu.BindGroupDescriptor
	Released   bool
}

func (g *BindGroup) Release() { g.Released = true }

type ShaderModule struct {
	Descriptor gpu.ShaderModuleDescriptor
	Released   bool
}

func (m *ShaderModule) Release() { m.Released = true }

type RenderPipeline struct {
	Descriptor gpu.RenderPipelineDescriptor
	Released   bool
}

func (p *RenderPipeline) Release() { p.Released = true }

type CommandBuffer struct {
	Label    string
	Passes   []*Pass
	Released bool
}

func (c *CommandBuffer) Release() { c.Released = true }

// Device records created objects, passes and submissions.
type Device struct {
	Buffers          []*Buffer
	Textures         []*Texture
	Samplers         []*Sampler
	BindGroupLayouts []*BindGroupLayout
	BindGroups       []*BindGroup
	ShaderModules    []*ShaderModule
	Pipelines        []*RenderPipeline
	Passes           []*Pass
	Submitted        []*CommandBuffer

	failures map[string]error
}

var _ gpu.Device = (*Device)(nil)

func New() *Device {
	return &Device{failures: make(map[string]error)}
}

// FailOn makes every later call of the named Device method return err.
// A nil err clears the failure.
func (d *Device) FailOn(method string, err error) {
	if err == nil {
		delete(d.failures, method)
		return
	}
	d.failures[method] = err
}

func (d *Device) fail(method string) error {
	if err, ok := d.failures[method]; ok {
		return fmt.Errorf("%s: %w", method, err)
	}
	return nil
}

func (d *Device) CreateBuffer(desc *gputypes.BufferDescriptor) (gpu.Buffer, error) {
	if err := d.fail("CreateBuffer"); err != nil {
		return nil, err
	}
	b := &Buffer{Descriptor: *desc, Data: make([]byte, desc.Size)}
	d.Buffers = append(d.Buffers, b)
	return b, nil
}

func (d *Device) WriteBuffer(buffer gpu.Buffer, offset uint64, data []byte) error {
	if err := d.fail("WriteBuffer"); err != nil {
		return err
	}
	b, ok := buffer.(*Buffer)
	if !ok {
		return fmt.Errorf("write buffer: foreign buffer %T", buffer)
	}
	if b.Released {
		return fmt.Errorf("write buffer %q: released", b.Label())
	}
	end := offset + uint64(len(data))
	if end > uint64(len(b.Data)) {
		return fmt.Errorf("write buffer %q: range %d..%d exceeds size %d", b.Label(), offset, end, len(b.Data))
	}
	copy(b.Data[offset:end], data)
	b.Writes++
	return nil
}

func (d *Device) CreateTexture(desc *gputypes.TextureDescriptor) (gpu.Texture, error) {
	if err := d.fail("CreateTexture"); err != nil {
		return nil, err
	}
	stored := *desc
	stored.ViewFormats = slices.Clone(desc.ViewFormats)
	t := &Texture{Descriptor: stored}
	d.Textures = append(d.Textures, t)
	return t, nil
}

func (d *Device) WriteTexture(texture gpu.Texture, data []byte, bytesPerRow uint32, size gputypes.Extent3D) error {
	if err := d.fail("WriteTexture"); err != nil {
		return err
	}
	t, ok := texture.(*Texture)
	if !ok {
		return fmt.Errorf("write texture: foreign texture %T", texture)
	}
	if t.Released {
		return fmt.Errorf("write texture %q: released", t.Descriptor.Label)
	}
	want := uint64(bytesPerRow) * uint64(size.Height) * uint64(max(size.DepthOrArrayLayers, 1))
	if uint64(len(data)) < want {
		return fmt.Errorf("write texture %q: have %d bytes, want %d", t.Descriptor.Label, len(data), want)
	}
	t.Data = slices.Clone(data[:want])
	return nil
}

func (d *Device) CreateSampler(desc *gputypes.SamplerDescriptor) (gpu.Sampler, error) {
	if err := d.fail("CreateSampler"); err != nil {
		return nil, err
	}
	s := &Sampler{Descriptor: *desc}
	d.Samplers = append(d.Samplers, s)
	return s, nil
}

func (d *Device) CreateBindGroupLayout(desc *gputypes.BindGroupLayoutDescriptor) (gpu.BindGroupLayout, error) {
	if err := d.fail("CreateBindGroupLayout"); err != nil {
		return nil, err
	}
	l := &BindGroupLayout{Descriptor: *desc}
	d.BindGroupLayouts = append(d.BindGroupLayouts, l)
	return l, nil
}

func (d *Device) CreateBindGroup(desc *gpu.BindGroupDescriptor) (gpu.BindGroup, error) {
	if err := d.fail("CreateBindGroup"); err != nil {
		return nil, err
	}
	if desc.Layout == nil {
		return nil, fmt.Errorf("bind group %q: nil layout", desc.Label)
	}
	g := &BindGroup{Descriptor: *desc}
	g.Descriptor.Entries = slices.Clone(desc.Entries)
	d.BindGroups = append(d.BindGroups, g)
	return g, nil
}

func (d *Device) CreateShaderModule(desc *gpu.ShaderModuleDescriptor) (gpu.ShaderModule, error) {
	if err := d.fail("CreateShaderModule"); err != nil {
		return nil, err
	}
	m := &ShaderModule{Descriptor: *desc}
	d.ShaderModules = append(d.ShaderModules, m)
	return m, nil
}

func (d *Device) CreateRenderPipeline(desc *gpu.RenderPipelineDescriptor) (gpu.RenderPipeline, error) {
	if err := d.fail("CreateRenderPipeline"); err != nil {
		return nil, err
	}
	p := &RenderPipeline{Descriptor: *desc}
	d.Pipelines = append(d.Pipelines, p)
	return p, nil
}

func (d *Device) CreateCommandEncoder(label string) (gpu.CommandEncoder, error) {
	if err := d.fail("CreateCommandEncoder"); err != nil {
		return nil, err
	}
	return &encoder{device: d, label: label}, nil
}

func (d *Device) Submit(buffers ...gpu.CommandBuffer) error {
	if err := d.fail("Submit"); err != nil {
		return err
	}
	for _, b := range buffers {
		cb, ok := b.(*CommandBuffer)
		if !ok {
			return fmt.Errorf("submit: foreign command buffer %T", b)
		}
		d.Submitted = append(d.Submitted, cb)
	}
	return nil
}

// PassesLabelled returns the recorded passes carrying label, in begin order.
func (d *Device) PassesLabelled(label string) []*Pass {
	var out []*Pass
	for _, p := range d.Passes {
		if p.Descriptor.Label == label {
			out = append(out, p)
		}
	}
	return out
}

type encoder struct {
	device   *Device
	label    string
	passes   []*Pass
	finished bool
}

func (e *encoder) BeginRenderPass(desc *gpu.RenderPassDescriptor) (gpu.RenderPass, error) {
	if err := e.device.fail("BeginRenderPass"); err != nil {
		return nil, err
	}
	if e.finished {
		return nil, fmt.Errorf("encoder %q already finished", e.label)
	}
	p := &Pass{Descriptor: *desc}
	p.Descriptor.ColorAttachments = slices.Clone(desc.ColorAttachments)
	e.passes = append(e.passes, p)
	e.device.Passes = append(e.device.Passes, p)
	return p, nil
}

func (e *encoder) Finish() (gpu.CommandBuffer, error) {
	if err := e.device.fail("Finish"); err != nil {
		return nil, err
	}
	for _, p := range e.passes {
		if !p.Ended {
			return nil, fmt.Errorf("encoder %q: pass %q not ended", e.label, p.Descriptor.Label)
		}
	}
	e.finished = true
	return &CommandBuffer{Label: e.label, Passes: e.passes}, nil
}
