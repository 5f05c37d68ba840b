package wgpudevice

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gogpu/gputypes"
)

// ErrUnsupported is wrapped by every conversion of a value this backend has
// no mapping for.
var ErrUnsupported = fmt.Errorf("unsupported by the wgpu backend")

func lookup[K comparable, V any](m map[K]V, k K, what string) (V, error) {
	v, ok := m[k]
	if !ok {
		var zero V
		return zero, fmt.Errorf("%s %v: %w", what, k, ErrUnsupported)
	}
	return v, nil
}

type flagBit[F, T any] struct {
	from F
	to   T
}

func flags[F, T ~uint8 | ~uint16 | ~uint32 | ~uint64](v F, bits []flagBit[F, T]) T {
	var out T
	for _, b := range bits {
		if v&b.from != 0 {
			out |= b.to
		}
	}
	return out
}

var textureFormats = map[gputypes.TextureFormat]wgpu.TextureFormat{
	gputypes.TextureFormatR8Unorm:        wgpu.TextureFormatR8Unorm,
	gputypes.TextureFormatR32Float:       wgpu.TextureFormatR32Float,
	gputypes.TextureFormatRGBA8Unorm:     wgpu.TextureFormatRGBA8Unorm,
	gputypes.TextureFormatRGBA8UnormSrgb: wgpu.TextureFormatRGBA8UnormSrgb,
	gputypes.TextureFormatBGRA8Unorm:     wgpu.TextureFormatBGRA8Unorm,
	gputypes.TextureFormatBGRA8UnormSrgb: wgpu.TextureFormatBGRA8UnormSrgb,
	gputypes.TextureFormatRGBA16Float:    wgpu.TextureFormatRGBA16Float,
	gputypes.TextureFormatRGBA32Float:    wgpu.TextureFormatRGBA32Float,
	gputypes.TextureFormatDepth24Plus:    wgpu.TextureFormatDepth24Plus,
	gputypes.TextureFormatDepth32Float:   wgpu.TextureFormatDepth32Float,
}

// surfaceFormats maps back the formats a surface may report.
var surfaceFormats = map[wgpu.TextureFormat]gputypes.TextureFormat{
	wgpu.TextureFormatRGBA8Unorm:     gputypes.TextureFormatRGBA8Unorm,
	wgpu.TextureFormatRGBA8UnormSrgb: gputypes.TextureFormatRGBA8UnormSrgb,
	wgpu.TextureFormatBGRA8Unorm:     gputypes.TextureFormatBGRA8Unorm,
	wgpu.TextureFormatBGRA8UnormSrgb: gputypes.TextureFormatBGRA8UnormSrgb,
	wgpu.TextureFormatRGBA16Float:    gputypes.TextureFormatRGBA16Float,
}

var textureUsages = []flagBit[gputypes.TextureUsage, wgpu.TextureUsage]{
	{gputypes.TextureUsageCopySrc, wgpu.TextureUsageCopySrc},
	{gputypes.TextureUsageCopyDst, wgpu.TextureUsageCopyDst},
	{gputypes.TextureUsageTextureBinding, wgpu.TextureUsageTextureBinding},
	{gputypes.TextureUsageStorageBinding, wgpu.TextureUsageStorageBinding},
	{gputypes.TextureUsageRenderAttachment, wgpu.TextureUsageRenderAttachment},
}

var bufferUsages = []flagBit[gputypes.BufferUsage, wgpu.BufferUsage]{
	{gputypes.BufferUsageMapRead, wgpu.BufferUsageMapRead},
	{gputypes.BufferUsageMapWrite, wgpu.BufferUsageMapWrite},
	{gputypes.BufferUsageCopySrc, wgpu.BufferUsageCopySrc},
	{gputypes.BufferUsageCopyDst, wgpu.BufferUsageCopyDst},
	{gputypes.BufferUsageIndex, wgpu.BufferUsageIndex},
	{gputypes.BufferUsageVertex, wgpu.BufferUsageVertex},
	{gputypes.BufferUsageUniform, wgpu.BufferUsageUniform},
	{gputypes.BufferUsageStorage, wgpu.BufferUsageStorage},
	{gputypes.BufferUsageIndirect, wgpu.BufferUsageIndirect},
	{gputypes.BufferUsageQueryResolve, wgpu.BufferUsageQueryResolve},
}

var shaderStages = []flagBit[gputypes.ShaderStage, wgpu.ShaderStage]{
	{gputypes.ShaderStageVertex, wgpu.ShaderStageVertex},
	{gputypes.ShaderStageFragment, wgpu.ShaderStageFragment},
	{gputypes.ShaderStageCompute, wgpu.ShaderStageCompute},
}

var colorWriteMasks = []flagBit[gputypes.ColorWriteMask, wgpu.ColorWriteMask]{
	{gputypes.ColorWriteMaskRed, wgpu.ColorWriteMaskRed},
	{gputypes.ColorWriteMaskGreen, wgpu.ColorWriteMaskGreen},
	{gputypes.ColorWriteMaskBlue, wgpu.ColorWriteMaskBlue},
	{gputypes.ColorWriteMaskAlpha, wgpu.ColorWriteMaskAlpha},
}

var textureDimensions = map[gputypes.TextureDimension]wgpu.TextureDimension{
	gputypes.TextureDimension2D: wgpu.TextureDimension2D,
}

var viewDimensions = map[gputypes.TextureViewDimension]wgpu.TextureViewDimension{
	gputypes.TextureViewDimension1D:        wgpu.TextureViewDimension1D,
	gputypes.TextureViewDimension2D:        wgpu.TextureViewDimension2D,
	gputypes.TextureViewDimension2DArray:   wgpu.TextureViewDimension2DArray,
	gputypes.TextureViewDimensionCube:      wgpu.TextureViewDimensionCube,
	gputypes.TextureViewDimensionCubeArray: wgpu.TextureViewDimensionCubeArray,
	gputypes.TextureViewDimension3D:        wgpu.TextureViewDimension3D,
}

var sampleTypes = map[gputypes.TextureSampleType]wgpu.TextureSampleType{
	gputypes.TextureSampleTypeFloat:             wgpu.TextureSampleTypeFloat,
	gputypes.TextureSampleTypeUnfilterableFloat: wgpu.TextureSampleTypeUnfilterableFloat,
	gputypes.TextureSampleTypeDepth:             wgpu.TextureSampleTypeDepth,
	gputypes.TextureSampleTypeSint:              wgpu.TextureSampleTypeSint,
	gputypes.TextureSampleTypeUint:              wgpu.TextureSampleTypeUint,
}

var samplerBindingTypes = map[gputypes.SamplerBindingType]wgpu.SamplerBindingType{
	gputypes.SamplerBindingTypeFiltering:  wgpu.SamplerBindingTypeFiltering,
	gputypes.SamplerBindingTypeComparison: wgpu.SamplerBindingTypeComparison,
}

var bufferBindingTypes = map[gputypes.BufferBindingType]wgpu.BufferBindingType{
	gputypes.BufferBindingTypeUniform:         wgpu.BufferBindingTypeUniform,
	gputypes.BufferBindingTypeStorage:         wgpu.BufferBindingTypeStorage,
	gputypes.BufferBindingTypeReadOnlyStorage: wgpu.BufferBindingTypeReadOnlyStorage,
}

var addressModes = map[gputypes.AddressMode]wgpu.AddressMode{
	gputypes.AddressModeUndefined:    wgpu.AddressModeClampToEdge,
	gputypes.AddressModeClampToEdge:  wgpu.AddressModeClampToEdge,
	gputypes.AddressModeRepeat:       wgpu.AddressModeRepeat,
	gputypes.AddressModeMirrorRepeat: wgpu.AddressModeMirrorRepeat,
}

var filterModes = map[gputypes.FilterMode]wgpu.FilterMode{
	gputypes.FilterModeUndefined: wgpu.FilterModeNearest,
	gputypes.FilterModeNearest:   wgpu.FilterModeNearest,
	gputypes.FilterModeLinear:    wgpu.FilterModeLinear,
}

var mipmapFilterModes = map[gputypes.MipmapFilterMode]wgpu.MipmapFilterMode{
	gputypes.MipmapFilterModeUndefined: wgpu.MipmapFilterModeNearest,
	gputypes.MipmapFilterModeNearest:   wgpu.MipmapFilterModeNearest,
	gputypes.MipmapFilterModeLinear:    wgpu.MipmapFilterModeLinear,
}

var compareFunctions = map[gputypes.CompareFunction]wgpu.CompareFunction{
	gputypes.CompareFunctionUndefined: wgpu.CompareFunctionUndefined,
	gputypes.CompareFunctionLess:      wgpu.CompareFunctionLess,
	gputypes.CompareFunctionAlways:    wgpu.CompareFunctionAlways,
}

var vertexFormats = map[gputypes.VertexFormat]wgpu.VertexFormat{
	gputypes.VertexFormatFloat32:   wgpu.VertexFormatFloat32,
	gputypes.VertexFormatFloat32x2: wgpu.VertexFormatFloat32x2,
	gputypes.VertexFormatFloat32x3: wgpu.VertexFormatFloat32x3,
	gputypes.VertexFormatFloat32x4: wgpu.VertexFormatFloat32x4,
	gputypes.VertexFormatUint16x4:  wgpu.VertexFormatUint16x4,
	gputypes.VertexFormatUint32:    wgpu.VertexFormatUint32,
	gputypes.VertexFormatUint32x2:  wgpu.VertexFormatUint32x2,
	gputypes.VertexFormatUint32x3:  wgpu.VertexFormatUint32x3,
	gputypes.VertexFormatUint32x4:  wgpu.VertexFormatUint32x4,
	gputypes.VertexFormatSint32:    wgpu.VertexFormatSint32,
	gputypes.VertexFormatSint32x2:  wgpu.VertexFormatSint32x2,
	gputypes.VertexFormatSint32x3:  wgpu.VertexFormatSint32x3,
	gputypes.VertexFormatSint32x4:  wgpu.VertexFormatSint32x4,
}

var stepModes = map[gputypes.VertexStepMode]wgpu.VertexStepMode{
	gputypes.VertexStepModeUndefined: wgpu.VertexStepModeVertex,
	gputypes.VertexStepModeVertex:    wgpu.VertexStepModeVertex,
	gputypes.VertexStepModeInstance:  wgpu.VertexStepModeInstance,
}

var topologies = map[gputypes.PrimitiveTopology]wgpu.PrimitiveTopology{
	gputypes.PrimitiveTopologyPointList:     wgpu.PrimitiveTopologyPointList,
	gputypes.PrimitiveTopologyLineList:      wgpu.PrimitiveTopologyLineList,
	gputypes.PrimitiveTopologyLineStrip:     wgpu.PrimitiveTopologyLineStrip,
	gputypes.PrimitiveTopologyTriangleList:  wgpu.PrimitiveTopologyTriangleList,
	gputypes.PrimitiveTopologyTriangleStrip: wgpu.PrimitiveTopologyTriangleStrip,
}

var indexFormats = map[gputypes.IndexFormat]wgpu.IndexFormat{
	gputypes.IndexFormatUint16: wgpu.IndexFormatUint16,
	gputypes.IndexFormatUint32: wgpu.IndexFormatUint32,
}

var frontFaces = map[gputypes.FrontFace]wgpu.FrontFace{
	gputypes.FrontFaceCCW: wgpu.FrontFaceCCW,
	gputypes.FrontFaceCW:  wgpu.FrontFaceCW,
}

var cullModes = map[gputypes.CullMode]wgpu.CullMode{
	gputypes.CullModeNone:  wgpu.CullModeNone,
	gputypes.CullModeFront: wgpu.CullModeFront,
	gputypes.CullModeBack:  wgpu.CullModeBack,
}

var loadOps = map[gputypes.LoadOp]wgpu.LoadOp{
	gputypes.LoadOpClear: wgpu.LoadOpClear,
	gputypes.LoadOpLoad:  wgpu.LoadOpLoad,
}

var storeOps = map[gputypes.StoreOp]wgpu.StoreOp{
	gputypes.StoreOpStore:   wgpu.StoreOpStore,
	gputypes.StoreOpDiscard: wgpu.StoreOpDiscard,
}

var blendFactors = map[gputypes.BlendFactor]wgpu.BlendFactor{
	gputypes.BlendFactorZero:             wgpu.BlendFactorZero,
	gputypes.BlendFactorOne:              wgpu.BlendFactorOne,
	gputypes.BlendFactorSrcAlpha:         wgpu.BlendFactorSrcAlpha,
	gputypes.BlendFactorOneMinusSrcAlpha: wgpu.BlendFactorOneMinusSrcAlpha,
}

var blendOperations = map[gputypes.BlendOperation]wgpu.BlendOperation{
	gputypes.BlendOperationAdd: wgpu.BlendOperationAdd,
}

func convertTextureDescriptor(desc *gputypes.TextureDescriptor) (*wgpu.TextureDescriptor, error) {
	format, err := lookup(textureFormats, desc.Format, "texture format")
	if err != nil {
		return nil, err
	}
	dim, err := lookup(textureDimensions, desc.Dimension, "texture dimension")
	if err != nil {
		return nil, err
	}
	return &wgpu.TextureDescriptor{
		Label: desc.Label,
		Size: wgpu.Extent3D{
			Width:              desc.Size.Width,
			Height:             desc.Size.Height,
			DepthOrArrayLayers: max(desc.Size.DepthOrArrayLayers, 1),
		},
		MipLevelCount: max(desc.MipLevelCount, 1),
		SampleCount:   max(desc.SampleCount, 1),
		Dimension:     dim,
		Format:        format,
		Usage:         flags(desc.Usage, textureUsages),
	}, nil
}

func convertSamplerDescriptor(desc *gputypes.SamplerDescriptor) (*wgpu.SamplerDescriptor, error) {
	var out wgpu.SamplerDescriptor
	var err error
	out.Label = desc.Label
	if out.AddressModeU, err = lookup(addressModes, desc.AddressModeU, "address mode"); err != nil {
		return nil, err
	}
	if out.AddressModeV, err = lookup(addressModes, desc.AddressModeV, "address mode"); err != nil {
		return nil, err
	}
	if out.AddressModeW, err = lookup(addressModes, desc.AddressModeW, "address mode"); err != nil {
		return nil, err
	}
	if out.MagFilter, err = lookup(filterModes, desc.MagFilter, "filter mode"); err != nil {
		return nil, err
	}
	if out.MinFilter, err = lookup(filterModes, desc.MinFilter, "filter mode"); err != nil {
		return nil, err
	}
	if out.MipmapFilter, err = lookup(mipmapFilterModes, desc.MipmapFilter, "mipmap filter mode"); err != nil {
		return nil, err
	}
	if out.Compare, err = lookup(compareFunctions, desc.Compare, "compare function"); err != nil {
		return nil, err
	}
	out.LodMinClamp = desc.LodMinClamp
	out.LodMaxClamp = desc.LodMaxClamp
	if out.LodMaxClamp == 0 {
		out.LodMaxClamp = 32
	}
	out.MaxAnisotropy = max(desc.MaxAnisotropy, 1)
	return &out, nil
}

func convertLayoutEntry(e gputypes.BindGroupLayoutEntry) (wgpu.BindGroupLayoutEntry, error) {
	out := wgpu.BindGroupLayoutEntry{
		Binding:    e.Binding,
		Visibility: flags(e.Visibility, shaderStages),
	}
	switch {
	case e.Buffer != nil:
		t, err := lookup(bufferBindingTypes, e.Buffer.Type, "buffer binding type")
		if err != nil {
			return out, err
		}
		out.Buffer = wgpu.BufferBindingLayout{
			Type:             t,
			HasDynamicOffset: e.Buffer.HasDynamicOffset,
			MinBindingSize:   e.Buffer.MinBindingSize,
		}
	case e.Sampler != nil:
		t, err := lookup(samplerBindingTypes, e.Sampler.Type, "sampler binding type")
		if err != nil {
			return out, err
		}
		out.Sampler = wgpu.SamplerBindingLayout{Type: t}
	case e.Texture != nil:
		st, err := lookup(sampleTypes, e.Texture.SampleType, "texture sample type")
		if err != nil {
			return out, err
		}
		vd, err := lookup(viewDimensions, e.Texture.ViewDimension, "texture view dimension")
		if err != nil {
			return out, err
		}
		out.Texture = wgpu.TextureBindingLayout{
			SampleType:    st,
			ViewDimension: vd,
			Multisampled:  e.Texture.Multisampled,
		}
	default:
		return out, fmt.Errorf("binding %d: no buffer, sampler or texture layout: %w", e.Binding, ErrUnsupported)
	}
	return out, nil
}

func convertVertexBuffers(layouts []gputypes.VertexBufferLayout) ([]wgpu.VertexBufferLayout, error) {
	out := make([]wgpu.VertexBufferLayout, 0, len(layouts))
	for _, l := range layouts {
		step, err := lookup(stepModes, l.StepMode, "vertex step mode")
		if err != nil {
			return nil, err
		}
		attrs := make([]wgpu.VertexAttribute, 0, len(l.Attributes))
		for _, a := range l.Attributes {
			f, err := lookup(vertexFormats, a.Format, "vertex format")
			if err != nil {
				return nil, err
			}
			attrs = append(attrs, wgpu.VertexAttribute{
				Format:         f,
				Offset:         a.Offset,
				ShaderLocation: a.ShaderLocation,
			})
		}
		out = append(out, wgpu.VertexBufferLayout{
			ArrayStride: l.ArrayStride,
			StepMode:    step,
			Attributes:  attrs,
		})
	}
	return out, nil
}

func convertBlendComponent(c gputypes.BlendComponent) (wgpu.BlendComponent, error) {
	src, err := lookup(blendFactors, c.SrcFactor, "blend factor")
	if err != nil {
		return wgpu.BlendComponent{}, err
	}
	dst, err := lookup(blendFactors, c.DstFactor, "blend factor")
	if err != nil {
		return wgpu.BlendComponent{}, err
	}
	op, err := lookup(blendOperations, c.Operation, "blend operation")
	if err != nil {
		return wgpu.BlendComponent{}, err
	}
	return wgpu.BlendComponent{Operation: op, SrcFactor: src, DstFactor: dst}, nil
}

func convertColorTargets(targets []gputypes.ColorTargetState) ([]wgpu.ColorTargetState, error) {
	out := make([]wgpu.ColorTargetState, 0, len(targets))
	for _, t := range targets {
		format, err := lookup(textureFormats, t.Format, "color target format")
		if err != nil {
			return nil, err
		}
		target := wgpu.ColorTargetState{
			Format:    format,
			WriteMask: flags(t.WriteMask, colorWriteMasks),
		}
		if t.Blend != nil {
			color, err := convertBlendComponent(t.Blend.Color)
			if err != nil {
				return nil, err
			}
			alpha, err := convertBlendComponent(t.Blend.Alpha)
			if err != nil {
				return nil, err
			}
			target.Blend = &wgpu.BlendState{Color: color, Alpha: alpha}
		}
		out = append(out, target)
	}
	return out, nil
}

func convertPrimitive(p gputypes.PrimitiveState) (wgpu.PrimitiveState, error) {
	var out wgpu.PrimitiveState
	var err error
	if out.Topology, err = lookup(topologies, p.Topology, "primitive topology"); err != nil {
		return out, err
	}
	if out.FrontFace, err = lookup(frontFaces, p.FrontFace, "front face"); err != nil {
		return out, err
	}
	if out.CullMode, err = lookup(cullModes, p.CullMode, "cull mode"); err != nil {
		return out, err
	}
	if p.StripIndexFormat != nil {
		if out.StripIndexFormat, err = lookup(indexFormats, *p.StripIndexFormat, "strip index format"); err != nil {
			return out, err
		}
	}
	return out, nil
}

func convertDepthStencil(d *gputypes.DepthStencilState) (*wgpu.DepthStencilState, error) {
	if d == nil {
		return nil, nil
	}
	format, err := lookup(textureFormats, d.Format, "depth format")
	if err != nil {
		return nil, err
	}
	compare, err := lookup(compareFunctions, d.DepthCompare, "depth compare")
	if err != nil {
		return nil, err
	}
	return &wgpu.DepthStencilState{
		Format:              format,
		DepthWriteEnabled:   d.DepthWriteEnabled,
		DepthCompare:        compare,
		DepthBias:           d.DepthBias,
		DepthBiasSlopeScale: d.DepthBiasSlopeScale,
		StencilFront:        wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
		StencilBack:         wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
	}, nil
}

func convertMultisample(m gputypes.MultisampleState) wgpu.MultisampleState {
	mask := uint32(m.Mask)
	if mask == 0 {
		mask = 0xFFFFFFFF
	}
	return wgpu.MultisampleState{
		Count:                  max(m.Count, 1),
		Mask:                   mask,
		AlphaToCoverageEnabled: m.AlphaToCoverageEnabled,
	}
}

func convertSize(size uint64) uint64 {
	if size == ^uint64(0) {
		return wgpu.WholeSize
	}
	return size
}
