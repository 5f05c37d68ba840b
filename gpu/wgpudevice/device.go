// Package wgpudevice implements gpu.Device on top of WebGPU, rendering into
// a GLFW window surface.
package wgpudevice

import (
	"errors"
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/gogpu/gputypes"

	"github.com/gekko3d/gridshadow/gpu"
)

var errForeignHandle = errors.New("handle was not created by the wgpu device")

// Device owns the adapter, device, queue and window surface.
type Device struct {
	instance *wgpu.Instance
	surface  *wgpu.Surface
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
	config   *wgpu.SurfaceConfiguration

	frame     *wgpu.Texture
	frameView *TextureView
}

var _ gpu.Device = (*Device)(nil)

// New requests a high-performance adapter compatible with win and
// configures win's surface for presentation.
func New(win *Window) (*Device, error) {
	instance := wgpu.CreateInstance(nil)
	// wraps GLFW window into a wgpu surface.
	surface := instance.CreateSurface(wgpuglfw.GetSurfaceDescriptor(win.glfw))
	adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		CompatibleSurface: surface,
		PowerPreference:   wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		surface.Release()
		instance.Release()
		return nil, fmt.Errorf("request adapter: %w", err)
	}
	device, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "gridshadow device",
	})
	if err != nil {
		adapter.Release()
		surface.Release()
		instance.Release()
		return nil, fmt.Errorf("request device: %w", err)
	}

	caps := surface.GetCapabilities(adapter)
	if len(caps.Formats) == 0 || len(caps.AlphaModes) == 0 {
		device.Release()
		adapter.Release()
		surface.Release()
		instance.Release()
		return nil, errors.New("surface reports no formats")
	}
	width, height := win.FramebufferSize()
	config := &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      caps.Formats[0],
		Width:       width,
		Height:      height,
		PresentMode: wgpu.PresentModeFifo,
		AlphaMode:   caps.AlphaModes[0],
	}
	surface.Configure(adapter, device, config)

	return &Device{
		instance: instance,
		surface:  surface,
		adapter:  adapter,
		device:   device,
		queue:    device.GetQueue(),
		config:   config,
	}, nil
}

// SurfaceFormat is the format of the textures Acquire returns.
func (d *Device) SurfaceFormat() (gputypes.TextureFormat, error) {
	return lookup(surfaceFormats, d.config.Format, "surface format")
}

// Resize reconfigures the surface. Zero sizes, as reported for a minimized
// window, are ignored.
func (d *Device) Resize(width, height uint32) {
	if width == 0 || height == 0 || (width == d.config.Width && height == d.config.Height) {
		return
	}
	d.config.Width = width
	d.config.Height = height
	d.surface.Configure(d.adapter, d.device, d.config)
}

// Acquire returns a view of the surface texture for this frame. Call Present
// once the frame's work has been submitted.
func (d *Device) Acquire() (gpu.TextureView, error) {
	if d.frameView != nil {
		return d.frameView, nil
	}
	tex, err := d.surface.GetCurrentTexture()
	if err != nil {
		return nil, fmt.Errorf("acquire surface texture: %w", err)
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, fmt.Errorf("surface texture view: %w", err)
	}
	d.frame = tex
	d.frameView = &TextureView{view: view}
	return d.frameView, nil
}

// Present shows the acquired surface texture, if any.
func (d *Device) Present() {
	if d.frameView == nil {
		return
	}
	d.surface.Present()
	d.frameView.Release()
	d.frame.Release()
	d.frame = nil
	d.frameView = nil
}

func (d *Device) Release() {
	if d.frameView != nil {
		d.frameView.Release()
		d.frame.Release()
	}
	d.queue.Release()
	d.device.Release()
	d.adapter.Release()
	d.surface.Release()
	d.instance.Release()
}

func (d *Device) CreateBuffer(desc *gputypes.BufferDescriptor) (gpu.Buffer, error) {
	b, err := d.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label:            desc.Label,
		Size:             desc.Size,
		Usage:            flags(desc.Usage, bufferUsages),
		MappedAtCreation: desc.MappedAtCreation,
	})
	if err != nil {
		return nil, err
	}
	return &Buffer{buf: b, label: desc.Label, size: desc.Size}, nil
}

func (d *Device) WriteBuffer(buffer gpu.Buffer, offset uint64, data []byte) error {
	b, ok := buffer.(*Buffer)
	if !ok {
		return fmt.Errorf("write buffer: %w", errForeignHandle)
	}
	if offset+uint64(len(data)) > b.size {
		return fmt.Errorf("write buffer %q: %d bytes at %d overflow size %d", b.label, len(data), offset, b.size)
	}
	d.queue.WriteBuffer(b.buf, offset, data)
	return nil
}

func (d *Device) CreateTexture(desc *gputypes.TextureDescriptor) (gpu.Texture, error) {
	wdesc, err := convertTextureDescriptor(desc)
	if err != nil {
		return nil, fmt.Errorf("create texture %q: %w", desc.Label, err)
	}
	t, err := d.device.CreateTexture(wdesc)
	if err != nil {
		return nil, err
	}
	return &Texture{tex: t}, nil
}

func (d *Device) WriteTexture(texture gpu.Texture, data []byte, bytesPerRow uint32, size gputypes.Extent3D) error {
	t, ok := texture.(*Texture)
	if !ok {
		return fmt.Errorf("write texture: %w", errForeignHandle)
	}
	layers := max(size.DepthOrArrayLayers, 1)
	d.queue.WriteTexture(
		&wgpu.ImageCopyTexture{
			Texture:  t.tex,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{},
			Aspect:   wgpu.TextureAspectAll,
		},
		data,
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  bytesPerRow,
			RowsPerImage: size.Height,
		},
		&wgpu.Extent3D{
			Width:              size.Width,
			Height:             size.Height,
			DepthOrArrayLayers: layers,
		},
	)
	return nil
}

func (d *Device) CreateSampler(desc *gputypes.SamplerDescriptor) (gpu.Sampler, error) {
	wdesc, err := convertSamplerDescriptor(desc)
	if err != nil {
		return nil, fmt.Errorf("create sampler %q: %w", desc.Label, err)
	}
	s, err := d.device.CreateSampler(wdesc)
	if err != nil {
		return nil, err
	}
	return &Sampler{sampler: s}, nil
}

func (d *Device) CreateBindGroupLayout(desc *gputypes.BindGroupLayoutDescriptor) (gpu.BindGroupLayout, error) {
	entries := make([]wgpu.BindGroupLayoutEntry, 0, len(desc.Entries))
	for _, e := range desc.Entries {
		we, err := convertLayoutEntry(e)
		if err != nil {
			return nil, fmt.Errorf("create bind group layout %q: %w", desc.Label, err)
		}
		entries = append(entries, we)
	}
	l, err := d.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label:   desc.Label,
		Entries: entries,
	})
	if err != nil {
		return nil, err
	}
	return &BindGroupLayout{layout: l}, nil
}

func (d *Device) CreateBindGroup(desc *gpu.BindGroupDescriptor) (gpu.BindGroup, error) {
	layout, ok := desc.Layout.(*BindGroupLayout)
	if !ok {
		return nil, fmt.Errorf("create bind group %q: layout: %w", desc.Label, errForeignHandle)
	}
	entries := make([]wgpu.BindGroupEntry, 0, len(desc.Entries))
	for _, e := range desc.Entries {
		we := wgpu.BindGroupEntry{Binding: e.Binding}
		switch {
		case e.Buffer != nil:
			b, ok := e.Buffer.(*Buffer)
			if !ok {
				return nil, fmt.Errorf("create bind group %q: binding %d: %w", desc.Label, e.Binding, errForeignHandle)
			}
			we.Buffer = b.buf
			we.Offset = e.Offset
			we.Size = convertSize(e.Size)
		case e.TextureView != nil:
			v, ok := e.TextureView.(*TextureView)
			if !ok {
				return nil, fmt.Errorf("create bind group %q: binding %d: %w", desc.Label, e.Binding, errForeignHandle)
			}
			we.TextureView = v.view
		case e.Sampler != nil:
			s, ok := e.Sampler.(*Sampler)
			if !ok {
				return nil, fmt.Errorf("create bind group %q: binding %d: %w", desc.Label, e.Binding, errForeignHandle)
			}
			we.Sampler = s.sampler
		default:
			return nil, fmt.Errorf("create bind group %q: binding %d has no resource", desc.Label, e.Binding)
		}
		entries = append(entries, we)
	}
	g, err := d.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   desc.Label,
		Layout:  layout.layout,
		Entries: entries,
	})
	if err != nil {
		return nil, err
	}
	return &BindGroup{group: g}, nil
}

func (d *Device) CreateShaderModule(desc *gpu.ShaderModuleDescriptor) (gpu.ShaderModule, error) {
	m, err := d.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          desc.Label,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: desc.Code},
	})
	if err != nil {
		return nil, err
	}
	return &ShaderModule{module: m}, nil
}

func (d *Device) CreateRenderPipeline(desc *gpu.RenderPipelineDescriptor) (gpu.RenderPipeline, error) {
	wrap := func(err error) error { return fmt.Errorf("create render pipeline %q: %w", desc.Label, err) }

	layouts := make([]*wgpu.BindGroupLayout, 0, len(desc.Layouts))
	for _, l := range desc.Layouts {
		wl, ok := l.(*BindGroupLayout)
		if !ok {
			return nil, wrap(errForeignHandle)
		}
		layouts = append(layouts, wl.layout)
	}
	vs, ok := desc.Vertex.Module.(*ShaderModule)
	if !ok {
		return nil, wrap(errForeignHandle)
	}
	buffers, err := convertVertexBuffers(desc.Vertex.Buffers)
	if err != nil {
		return nil, wrap(err)
	}
	primitive, err := convertPrimitive(desc.Primitive)
	if err != nil {
		return nil, wrap(err)
	}
	depth, err := convertDepthStencil(desc.DepthStencil)
	if err != nil {
		return nil, wrap(err)
	}

	var fragment *wgpu.FragmentState
	if desc.Fragment != nil {
		fs, ok := desc.Fragment.Module.(*ShaderModule)
		if !ok {
			return nil, wrap(errForeignHandle)
		}
		targets, err := convertColorTargets(desc.Fragment.Targets)
		if err != nil {
			return nil, wrap(err)
		}
		fragment = &wgpu.FragmentState{
			Module:     fs.module,
			EntryPoint: desc.Fragment.EntryPoint,
			Targets:    targets,
		}
	}

	pipelineLayout, err := d.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            desc.Label + " layout",
		BindGroupLayouts: layouts,
	})
	if err != nil {
		return nil, wrap(err)
	}
	p, err := d.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  desc.Label,
		Layout: pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     vs.module,
			EntryPoint: desc.Vertex.EntryPoint,
			Buffers:    buffers,
		},
		Fragment:     fragment,
		Primitive:    primitive,
		DepthStencil: depth,
		Multisample:  convertMultisample(desc.Multisample),
	})
	if err != nil {
		pipelineLayout.Release()
		return nil, wrap(err)
	}
	return &RenderPipeline{pipeline: p, layout: pipelineLayout}, nil
}

func (d *Device) CreateCommandEncoder(label string) (gpu.CommandEncoder, error) {
	e, err := d.device.CreateCommandEncoder(&wgpu.CommandEncoderDescriptor{Label: label})
	if err != nil {
		return nil, err
	}
	return &encoder{enc: e}, nil
}

func (d *Device) Submit(buffers ...gpu.CommandBuffer) error {
	cmds := make([]*wgpu.CommandBuffer, 0, len(buffers))
	for _, b := range buffers {
		cb, ok := b.(*CommandBuffer)
		if !ok {
			return fmt.Errorf("submit: %w", errForeignHandle)
		}
		cmds = append(cmds, cb.cmd)
	}
	d.queue.Submit(cmds...)
	for _, cb := range cmds {
		cb.Release()
	}
	return nil
}
