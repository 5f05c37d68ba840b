package shadow

import (
	_ "embed"
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gekko3d/gridshadow/assets"
	"github.com/gekko3d/gridshadow/gpu"
	"github.com/gekko3d/gridshadow/render"
	"github.com/gekko3d/gridshadow/shader"
)

//go:embed shadow_render.wgsl
var shaderSource string

const (
	ShaderLabel   = "grid_shadow_shader"
	PipelineLabel = "grid_shadow_pipeline"

	MaxDirectionalLights = 10
	MaxCascadesPerLight  = 4
)

// Bind group indices the shadow shader expects.
const (
	ViewGroup     = 0
	MaterialGroup = 1
	MeshGroup     = 2
)

var (
	ErrNoPosition       = errors.New("vertex layout has no position attribute")
	ErrMissingAttribute = assets.ErrMissingAttribute
)

// PipelineKey is everything that selects a distinct shadow pipeline.
type PipelineKey struct {
	VertexLayoutID uint64
	Material       assets.MaterialKey
	Topology       gputypes.PrimitiveTopology
	Mesh           assets.MeshFlags
}

func (k PipelineKey) String() string {
	return fmt.Sprintf("layout=%016x material=%s[%s] topology=%s mesh=%d",
		k.VertexLayoutID, k.Material.Kind, k.Material.Defs, k.Topology, k.Mesh)
}

type SpecializationError struct {
	Key PipelineKey
	Err error
}

func (e *SpecializationError) Error() string {
	return fmt.Sprintf("specialize grid shadow pipeline (%s): %v", e.Key, e.Err)
}

func (e *SpecializationError) Unwrap() error { return e.Err }

// ShadowPipeline holds the layouts and sampler shared by every specialized
// shadow pipeline.
type ShadowPipeline struct {
	ViewLayout       gpu.BindGroupLayout
	MaterialLayout   gpu.BindGroupLayout
	GridShadowLayout gpu.BindGroupLayout
	Sampler          gpu.Sampler

	// meshLayouts is indexed by assets.MeshFlags.
	meshLayouts [4]gpu.BindGroupLayout
}

func NewShadowPipeline(device gpu.Device, materialLayout gpu.BindGroupLayout) (*ShadowPipeline, error) {
	p := &ShadowPipeline{MaterialLayout: materialLayout}

	var err error
	if p.ViewLayout, err = device.CreateBindGroupLayout(viewLayoutDescriptor()); err != nil {
		return nil, fmt.Errorf("grid shadow view layout: %w", err)
	}
	if p.GridShadowLayout, err = device.CreateBindGroupLayout(gridShadowLayoutDescriptor()); err != nil {
		return nil, fmt.Errorf("grid shadow layout: %w", err)
	}
	for flags := range assets.MeshFlags(len(p.meshLayouts)) {
		if p.meshLayouts[flags], err = device.CreateBindGroupLayout(meshLayoutDescriptor(flags)); err != nil {
			return nil, fmt.Errorf("grid shadow mesh layout %d: %w", flags, err)
		}
	}
	sampler := gputypes.LinearSamplerDescriptor()
	sampler.Label = "grid_shadow_sampler"
	sampler.MipmapFilter = gputypes.MipmapFilterModeNearest
	if p.Sampler, err = device.CreateSampler(&sampler); err != nil {
		return nil, fmt.Errorf("grid shadow sampler: %w", err)
	}
	return p, nil
}

// MeshLayout returns the group 2 layout for meshes with the given flags.
func (p *ShadowPipeline) MeshLayout(flags assets.MeshFlags) gpu.BindGroupLayout {
	return p.meshLayouts[flags&(assets.MeshSkinned|assets.MeshMorphed)]
}

func viewLayoutDescriptor() *gputypes.BindGroupLayoutDescriptor {
	return &gputypes.BindGroupLayoutDescriptor{
		Label: "grid_shadow_view_layout",
		Entries: []gputypes.BindGroupLayoutEntry{{
			Binding:    0,
			Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
			Buffer: &gputypes.BufferBindingLayout{
				Type:             gputypes.BufferBindingTypeUniform,
				HasDynamicOffset: true,
				MinBindingSize:   render.ViewUniformSize,
			},
		}},
	}
}

func gridShadowLayoutDescriptor() *gputypes.BindGroupLayoutDescriptor {
	return &gputypes.BindGroupLayoutDescriptor{
		Label: "grid_shadow_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
				Buffer: &gputypes.BufferBindingLayout{
					Type:             gputypes.BufferBindingTypeUniform,
					HasDynamicOffset: true,
					MinBindingSize:   ShadowUniformSize,
				},
			},
			{
				Binding:    1,
				Visibility: gputypes.ShaderStageFragment,
				Texture: &gputypes.TextureBindingLayout{
					SampleType:    gputypes.TextureSampleTypeFloat,
					ViewDimension: gputypes.TextureViewDimension2D,
				},
			},
			{
				Binding:    2,
				Visibility: gputypes.ShaderStageFragment,
				Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
			},
		},
	}
}

func meshLayoutDescriptor(flags assets.MeshFlags) *gputypes.BindGroupLayoutDescriptor {
	entries := []gputypes.BindGroupLayoutEntry{{
		Binding:    0,
		Visibility: gputypes.ShaderStageVertex,
		Buffer: &gputypes.BufferBindingLayout{
			Type:             gputypes.BufferBindingTypeUniform,
			HasDynamicOffset: true,
			MinBindingSize:   MeshUniformSize,
		},
	}}
	if flags.Skinned() {
		entries = append(entries, gputypes.BindGroupLayoutEntry{
			Binding:    1,
			Visibility: gputypes.ShaderStageVertex,
			Buffer: &gputypes.BufferBindingLayout{
				Type:           gputypes.BufferBindingTypeUniform,
				MinBindingSize: assets.JointBufferSize,
			},
		})
	}
	if flags.Morphed() {
		entries = append(entries,
			gputypes.BindGroupLayoutEntry{
				Binding:    2,
				Visibility: gputypes.ShaderStageVertex,
				Buffer: &gputypes.BufferBindingLayout{
					Type:           gputypes.BufferBindingTypeUniform,
					MinBindingSize: assets.MorphWeightsSize,
				},
			},
			gputypes.BindGroupLayoutEntry{
				Binding:    3,
				Visibility: gputypes.ShaderStageVertex,
				Texture: &gputypes.TextureBindingLayout{
					SampleType:    gputypes.TextureSampleTypeUnfilterableFloat,
					ViewDimension: gputypes.TextureViewDimension2D,
				},
			},
		)
	}
	return &gputypes.BindGroupLayoutDescriptor{
		Label:   fmt.Sprintf("grid_shadow_mesh_layout_%d", flags),
		Entries: entries,
	}
}

// Specializer builds shadow pipelines on demand and caches them by key for
// the rest of the session.
type Specializer struct {
	pipeline *ShadowPipeline
	cache    *render.PipelineCache
	settings Settings
	log      Logger

	specialized map[PipelineKey]render.PipelineId
	warned      bool
}

func NewSpecializer(pipeline *ShadowPipeline, cache *render.PipelineCache, settings Settings, log Logger) *Specializer {
	return &Specializer{
		pipeline:    pipeline,
		cache:       cache,
		settings:    settings,
		log:         orNop(log),
		specialized: make(map[PipelineKey]render.PipelineId),
	}
}

// Len is the number of pipelines specialized so far.
func (s *Specializer) Len() int { return len(s.specialized) }

// Specialize returns the pipeline for key, building it against layout on
// first use. Failures are not cached.
func (s *Specializer) Specialize(key PipelineKey, layout *assets.VertexLayout) (render.PipelineId, error) {
	if id, ok := s.specialized[key]; ok {
		return id, nil
	}
	id, err := s.build(key, layout)
	if err != nil {
		return 0, &SpecializationError{Key: key, Err: err}
	}
	s.specialized[key] = id

	n := len(s.specialized)
	s.log.Debugf("grid shadow: specialized pipeline %d (%s)", n, key)
	if threshold := s.settings.PipelineWarnThreshold; threshold > 0 && n > threshold && !s.warned {
		s.warned = true
		s.log.Warnf("grid shadow: %d specialized pipelines, more than %d; check for unbounded material or layout variants", n, threshold)
	}
	return id, nil
}

func (s *Specializer) build(key PipelineKey, layout *assets.VertexLayout) (render.PipelineId, error) {
	if layout == nil || !layout.Contains(assets.AttributePosition) {
		return 0, ErrNoPosition
	}
	attrs := []assets.LocatedAttribute{{ID: assets.AttributePosition, Location: 0}}
	if key.Mesh.Skinned() {
		attrs = append(attrs,
			assets.LocatedAttribute{ID: assets.AttributeJointIndex, Location: 1},
			assets.LocatedAttribute{ID: assets.AttributeJointWeight, Location: 2},
		)
	}
	vertexBuffer, err := layout.BufferLayout(attrs...)
	if err != nil {
		return 0, err
	}

	source, err := shader.Preprocess(shaderSource, shaderDefs(key))
	if err != nil {
		return 0, fmt.Errorf("preprocess: %w", err)
	}
	module, err := s.cache.ShaderModule(ShaderLabel, source)
	if err != nil {
		return 0, err
	}

	return s.cache.CreateRenderPipeline(&gpu.RenderPipelineDescriptor{
		Label: PipelineLabel,
		Layouts: []gpu.BindGroupLayout{
			ViewGroup:     s.pipeline.ViewLayout,
			MaterialGroup: s.pipeline.MaterialLayout,
			MeshGroup:     s.pipeline.MeshLayout(key.Mesh),
		},
		Vertex: gpu.VertexState{
			Module:     module,
			EntryPoint: "vertex",
			Buffers:    []gputypes.VertexBufferLayout{vertexBuffer},
		},
		Fragment: &gpu.FragmentState{
			Module:     module,
			EntryPoint: "fragment",
			Targets: []gputypes.ColorTargetState{{
				Format:    TextureFormat,
				WriteMask: gputypes.ColorWriteMaskRed,
			}},
		},
		Primitive: gputypes.PrimitiveState{
			Topology:  key.Topology,
			FrontFace: gputypes.FrontFaceCCW,
			CullMode:  gputypes.CullModeNone,
		},
		Multisample: gputypes.DefaultMultisampleState(),
	})
}

func shaderDefs(key PipelineKey) []shader.Def {
	defs := []shader.Def{
		shader.Uint("MAX_DIRECTIONAL_LIGHTS", MaxDirectionalLights),
		shader.Uint("MAX_CASCADES_PER_LIGHT", MaxCascadesPerLight),
		shader.Uint("MAX_JOINTS", assets.MaxJoints),
		shader.Uint("MAX_MORPH_TARGETS", assets.MaxMorphTargets),
		shader.Uint("MORPH_WEIGHT_VECS", assets.MaxMorphTargets/4),
	}
	if key.Mesh.Skinned() {
		defs = append(defs, shader.Flag("SKINNED"))
	}
	if key.Mesh.Morphed() {
		defs = append(defs, shader.Flag("MORPH_TARGETS"))
	}
	for _, name := range key.Material.ShaderDefs() {
		defs = append(defs, shader.Flag(name))
	}
	return defs
}
