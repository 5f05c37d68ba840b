package assets

import (
	"encoding/binary"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gputypes"

	"github.com/gekko3d/gridshadow/gpu"
)

type AlphaMode uint8

const (
	AlphaOpaque AlphaMode = iota
	AlphaMask
)

// MaterialUniformSize is the byte size of the material uniform block:
// base_color vec4, alpha_cutoff f32, padded to 32 bytes.
const MaterialUniformSize = 32

// MaterialKey captures everything about a material that changes the
// pipeline it renders with. It is comparable.
type MaterialKey struct {
	Kind string
	Defs string
}

// ShaderDefs splits the key's defs back into names.
func (k MaterialKey) ShaderDefs() []string {
	if k.Defs == "" {
		return nil
	}
	return strings.Split(k.Defs, ",")
}

type Material struct {
	Label       string
	Kind        string
	BaseColor   mgl32.Vec4
	AlphaMode   AlphaMode
	AlphaCutoff float32
}

func (m *Material) key() MaterialKey {
	var defs []string
	if m.AlphaMode == AlphaMask {
		defs = append(defs, "ALPHA_MASK")
	}
	slices.Sort(defs)
	kind := m.Kind
	if kind == "" {
		kind = "standard"
	}
	return MaterialKey{Kind: kind, Defs: strings.Join(defs, ",")}
}

func (m *Material) uniformBytes() []byte {
	out := make([]byte, 0, MaterialUniformSize)
	for _, f := range m.BaseColor {
		out = binary.LittleEndian.AppendUint32(out, math.Float32bits(f))
	}
	out = binary.LittleEndian.AppendUint32(out, math.Float32bits(m.AlphaCutoff))
	return append(out, make([]byte, MaterialUniformSize-len(out))...)
}

// GpuMaterial is a material with its uniform uploaded and bind group built
// against the shared material layout.
type GpuMaterial struct {
	Label     string
	Key       MaterialKey
	Layout    gpu.BindGroupLayout
	Uniform   gpu.Buffer
	BindGroup gpu.BindGroup
}

// MaterialLayoutDescriptor is the layout every material bind group uses.
func MaterialLayoutDescriptor() *gputypes.BindGroupLayoutDescriptor {
	return &gputypes.BindGroupLayoutDescriptor{
		Label: "material_layout",
		Entries: []gputypes.BindGroupLayoutEntry{{
			Binding:    0,
			Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
			Buffer: &gputypes.BufferBindingLayout{
				Type:           gputypes.BufferBindingTypeUniform,
				MinBindingSize: MaterialUniformSize,
			},
		}},
	}
}

func UploadMaterial(device gpu.Device, layout gpu.BindGroupLayout, m *Material) (*GpuMaterial, error) {
	buf, err := createFilled(device, m.Label+" material", gputypes.BufferUsageUniform, m.uniformBytes())
	if err != nil {
		return nil, fmt.Errorf("upload material %q: %w", m.Label, err)
	}
	bg, err := device.CreateBindGroup(&gpu.BindGroupDescriptor{
		Label:  m.Label + " material bind group",
		Layout: layout,
		Entries: []gpu.BindGroupEntry{{
			Binding: 0,
			Buffer:  buf,
			Size:    MaterialUniformSize,
		}},
	})
	if err != nil {
		buf.Release()
		return nil, fmt.Errorf("upload material %q: %w", m.Label, err)
	}
	return &GpuMaterial{
		Label:     m.Label,
		Key:       m.key(),
		Layout:    layout,
		Uniform:   buf,
		BindGroup: bg,
	}, nil
}

func (g *GpuMaterial) Release() {
	g.BindGroup.Release()
	g.Uniform.Release()
}
