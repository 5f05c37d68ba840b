package assets

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gputypes"

	"github.com/gekko3d/gridshadow/gpu"
)

type MeshFlags uint8

const (
	MeshSkinned MeshFlags = 1 << iota
	MeshMorphed
)

func (f MeshFlags) Skinned() bool { return f&MeshSkinned != 0 }
func (f MeshFlags) Morphed() bool { return f&MeshMorphed != 0 }

// Mesh is CPU-side geometry. Joints and Weights are optional and must match
// Positions in length when present.
type Mesh struct {
	Label     string
	Topology  gputypes.PrimitiveTopology
	Positions []mgl32.Vec3
	Normals   []mgl32.Vec3
	Joints    [][4]uint16
	Weights   []mgl32.Vec4
	Indices   []uint32
	// MorphTargets holds per-target position displacements, each matching
	// Positions in length.
	MorphTargets [][]mgl32.Vec3
}

// GpuMesh is a mesh uploaded to the device.
type GpuMesh struct {
	Label        string
	Layout       *VertexLayout
	VertexBuffer gpu.Buffer
	VertexCount  uint32
	IndexBuffer  gpu.Buffer
	IndexCount   uint32
	IndexFormat  gputypes.IndexFormat
	Topology     gputypes.PrimitiveTopology
	Flags        MeshFlags

	// JointBuffer holds MaxJoints joint matrices for skinned meshes.
	JointBuffer gpu.Buffer
	// MorphWeights and MorphTargets are set for morphed meshes. The target
	// texture stores one displacement texel per vertex and target.
	MorphWeights gpu.Buffer
	MorphTargets gpu.Texture
	MorphView    gpu.TextureView
}

const (
	MaxJoints        = 256
	JointBufferSize  = MaxJoints * 64
	MaxMorphTargets  = 64
	MorphWeightsSize = MaxMorphTargets * 4
)

func (m *Mesh) layout() *VertexLayout {
	specs := []AttributeSpec{{ID: AttributePosition, Format: gputypes.VertexFormatFloat32x3}}
	if len(m.Normals) > 0 {
		specs = append(specs, AttributeSpec{ID: AttributeNormal, Format: gputypes.VertexFormatFloat32x3})
	}
	if len(m.Joints) > 0 {
		specs = append(specs,
			AttributeSpec{ID: AttributeJointIndex, Format: gputypes.VertexFormatUint16x4},
			AttributeSpec{ID: AttributeJointWeight, Format: gputypes.VertexFormatFloat32x4},
		)
	}
	return NewVertexLayout(specs...)
}

func (m *Mesh) validate() error {
	if len(m.Positions) == 0 {
		return errors.New("mesh has no positions")
	}
	n := len(m.Positions)
	if len(m.Normals) > 0 && len(m.Normals) != n {
		return fmt.Errorf("normals: have %d, want %d", len(m.Normals), n)
	}
	if len(m.Joints) != len(m.Weights) {
		return fmt.Errorf("joints (%d) and weights (%d) differ", len(m.Joints), len(m.Weights))
	}
	if len(m.Joints) > 0 && len(m.Joints) != n {
		return fmt.Errorf("joints: have %d, want %d", len(m.Joints), n)
	}
	if len(m.MorphTargets) > MaxMorphTargets {
		return fmt.Errorf("%d morph targets, at most %d", len(m.MorphTargets), MaxMorphTargets)
	}
	for t, d := range m.MorphTargets {
		if len(d) != n {
			return fmt.Errorf("morph target %d: have %d, want %d", t, len(d), n)
		}
	}
	for _, i := range m.Indices {
		if int(i) >= n {
			return fmt.Errorf("index %d out of range for %d vertices", i, n)
		}
	}
	return nil
}

// vertexBytes interleaves attributes in layout order.
func (m *Mesh) vertexBytes(l *VertexLayout) []byte {
	out := make([]byte, 0, int(l.Stride)*len(m.Positions))
	putVec := func(v []float32) {
		for _, f := range v {
			out = binary.LittleEndian.AppendUint32(out, math.Float32bits(f))
		}
	}
	for i, p := range m.Positions {
		putVec(p[:])
		if len(m.Normals) > 0 {
			putVec(m.Normals[i][:])
		}
		if len(m.Joints) > 0 {
			for _, j := range m.Joints[i] {
				out = binary.LittleEndian.AppendUint16(out, j)
			}
			putVec(m.Weights[i][:])
		}
	}
	return out
}

func (m *Mesh) indexBytes() ([]byte, gputypes.IndexFormat) {
	wide := len(m.Positions) > math.MaxUint16
	if wide {
		out := make([]byte, 0, 4*len(m.Indices))
		for _, i := range m.Indices {
			out = binary.LittleEndian.AppendUint32(out, i)
		}
		return out, gputypes.IndexFormatUint32
	}
	out := make([]byte, 0, 4*((len(m.Indices)+1)/2))
	for _, i := range m.Indices {
		out = binary.LittleEndian.AppendUint16(out, uint16(i))
	}
	// keep buffer sizes a multiple of four bytes
	if len(out)%4 != 0 {
		out = append(out, 0, 0)
	}
	return out, gputypes.IndexFormatUint16
}

// UploadMesh validates m and copies it into new device buffers.
func UploadMesh(device gpu.Device, m *Mesh) (*GpuMesh, error) {
	if err := m.validate(); err != nil {
		return nil, fmt.Errorf("upload mesh %q: %w", m.Label, err)
	}
	l := m.layout()
	g := &GpuMesh{
		Label:       m.Label,
		Layout:      l,
		VertexCount: uint32(len(m.Positions)),
		Topology:    m.Topology,
	}
	if len(m.Joints) > 0 {
		g.Flags |= MeshSkinned
	}
	if len(m.MorphTargets) > 0 {
		g.Flags |= MeshMorphed
	}

	vb, err := createFilled(device, m.Label+" vertices", gputypes.BufferUsageVertex, m.vertexBytes(l))
	if err != nil {
		return nil, err
	}
	g.VertexBuffer = vb

	if len(m.Indices) > 0 {
		data, format := m.indexBytes()
		ib, err := createFilled(device, m.Label+" indices", gputypes.BufferUsageIndex, data)
		if err != nil {
			vb.Release()
			return nil, err
		}
		g.IndexBuffer = ib
		g.IndexCount = uint32(len(m.Indices))
		g.IndexFormat = format
	}

	if err := g.uploadDeformation(device, m); err != nil {
		g.Release()
		return nil, err
	}
	return g, nil
}

// uploadDeformation creates the joint palette and morph resources the mesh
// flags call for. Joints start at identity and weights at zero.
func (g *GpuMesh) uploadDeformation(device gpu.Device, m *Mesh) error {
	if g.Flags.Skinned() {
		data := make([]byte, 0, JointBufferSize)
		ident := mgl32.Ident4()
		for range MaxJoints {
			for _, f := range ident {
				data = binary.LittleEndian.AppendUint32(data, math.Float32bits(f))
			}
		}
		buf, err := createFilled(device, m.Label+" joints", gputypes.BufferUsageUniform, data)
		if err != nil {
			return err
		}
		g.JointBuffer = buf
	}
	if !g.Flags.Morphed() {
		return nil
	}

	buf, err := createFilled(device, m.Label+" morph weights", gputypes.BufferUsageUniform, make([]byte, MorphWeightsSize))
	if err != nil {
		return err
	}
	g.MorphWeights = buf

	tex, err := device.CreateTexture(&gputypes.TextureDescriptor{
		Label:         m.Label + " morph targets",
		Size:          gputypes.Extent3D{Width: g.VertexCount, Height: uint32(len(m.MorphTargets)), DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatRGBA32Float,
		Usage:         gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create morph texture %q: %w", m.Label, err)
	}
	g.MorphTargets = tex

	texels := make([]byte, 0, int(g.VertexCount)*16*len(m.MorphTargets))
	for _, target := range m.MorphTargets {
		for _, d := range target {
			for _, f := range d {
				texels = binary.LittleEndian.AppendUint32(texels, math.Float32bits(f))
			}
			texels = binary.LittleEndian.AppendUint32(texels, 0)
		}
	}
	size := gputypes.Extent3D{Width: g.VertexCount, Height: uint32(len(m.MorphTargets)), DepthOrArrayLayers: 1}
	if err := device.WriteTexture(tex, texels, g.VertexCount*16, size); err != nil {
		return fmt.Errorf("write morph texture %q: %w", m.Label, err)
	}

	view, err := tex.CreateView()
	if err != nil {
		return fmt.Errorf("create morph view %q: %w", m.Label, err)
	}
	g.MorphView = view
	return nil
}

func createFilled(device gpu.Device, label string, usage gputypes.BufferUsage, data []byte) (gpu.Buffer, error) {
	buf, err := device.CreateBuffer(&gputypes.BufferDescriptor{
		Label: label,
		Size:  uint64(len(data)),
		Usage: usage | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create buffer %q: %w", label, err)
	}
	if err := device.WriteBuffer(buf, 0, data); err != nil {
		buf.Release()
		return nil, fmt.Errorf("write buffer %q: %w", label, err)
	}
	return buf, nil
}

func (g *GpuMesh) Release() {
	if g.VertexBuffer != nil {
		g.VertexBuffer.Release()
	}
	if g.IndexBuffer != nil {
		g.IndexBuffer.Release()
	}
	if g.JointBuffer != nil {
		g.JointBuffer.Release()
	}
	if g.MorphWeights != nil {
		g.MorphWeights.Release()
	}
	if g.MorphView != nil {
		g.MorphView.Release()
	}
	if g.MorphTargets != nil {
		g.MorphTargets.Release()
	}
}
