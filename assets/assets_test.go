package assets_test

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gputypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gekko3d/gridshadow/assets"
	"github.com/gekko3d/gridshadow/gpu/headless"
)

func TestVertexLayout_OffsetsAndID(t *testing.T) {
	a := assets.NewVertexLayout(
		assets.AttributeSpec{ID: assets.AttributePosition, Format: gputypes.VertexFormatFloat32x3},
		assets.AttributeSpec{ID: assets.AttributeNormal, Format: gputypes.VertexFormatFloat32x3},
	)
	b := assets.NewVertexLayout(
		assets.AttributeSpec{ID: assets.AttributePosition, Format: gputypes.VertexFormatFloat32x3},
		assets.AttributeSpec{ID: assets.AttributeNormal, Format: gputypes.VertexFormatFloat32x3},
	)
	c := assets.NewVertexLayout(
		assets.AttributeSpec{ID: assets.AttributePosition, Format: gputypes.VertexFormatFloat32x3},
	)

	assert.Equal(t, uint64(24), a.Stride)
	assert.Equal(t, uint64(12), a.Attributes[1].Offset)
	assert.Equal(t, a.ID(), b.ID())
	assert.NotEqual(t, a.ID(), c.ID())
}

func TestVertexLayout_BufferLayout(t *testing.T) {
	l := assets.NewVertexLayout(
		assets.AttributeSpec{ID: assets.AttributePosition, Format: gputypes.VertexFormatFloat32x3},
		assets.AttributeSpec{ID: assets.AttributeNormal, Format: gputypes.VertexFormatFloat32x3},
	)

	vb, err := l.BufferLayout(assets.LocatedAttribute{ID: assets.AttributePosition, Location: 0})
	require.NoError(t, err)
	assert.Equal(t, uint64(24), vb.ArrayStride)
	require.Len(t, vb.Attributes, 1)
	assert.Equal(t, uint32(0), vb.Attributes[0].ShaderLocation)

	_, err = l.BufferLayout(assets.LocatedAttribute{ID: assets.AttributeJointIndex, Location: 1})
	assert.ErrorIs(t, err, assets.ErrMissingAttribute)
}

func TestUploadMesh_Cube(t *testing.T) {
	dev := headless.New()
	gm, err := assets.UploadMesh(dev, assets.CreateCubeMesh(2, 2, 2))
	require.NoError(t, err)

	assert.Equal(t, uint32(24), gm.VertexCount)
	assert.Equal(t, uint32(36), gm.IndexCount)
	assert.Equal(t, gputypes.IndexFormatUint16, gm.IndexFormat)
	assert.True(t, gm.Layout.Contains(assets.AttributeNormal))
	assert.False(t, gm.Flags.Skinned())

	vb := dev.Buffers[0]
	require.Len(t, vb.Data, 24*24)
	x := math.Float32frombits(binary.LittleEndian.Uint32(vb.Data[0:4]))
	assert.Equal(t, float32(-1), x)
}

func TestUploadMesh_Skinned(t *testing.T) {
	m := assets.CreatePlaneMesh(1)
	for range m.Positions {
		m.Joints = append(m.Joints, [4]uint16{0, 1, 0, 0})
		m.Weights = append(m.Weights, mgl32.Vec4{0.5, 0.5, 0, 0})
	}
	dev := headless.New()
	gm, err := assets.UploadMesh(dev, m)
	require.NoError(t, err)
	assert.True(t, gm.Flags.Skinned())
	assert.False(t, gm.Flags.Morphed())
	assert.Equal(t, uint64(48), gm.Layout.Stride)

	require.NotNil(t, gm.JointBuffer)
	joints := gm.JointBuffer.(*headless.Buffer)
	require.Len(t, joints.Data, assets.JointBufferSize)
	first := math.Float32frombits(binary.LittleEndian.Uint32(joints.Data[0:4]))
	assert.Equal(t, float32(1), first, "joints start at identity")
	assert.Nil(t, gm.MorphWeights)
}

func TestUploadMesh_MorphTargets(t *testing.T) {
	m := assets.CreatePlaneMesh(1)
	lift := make([]mgl32.Vec3, len(m.Positions))
	for i := range lift {
		lift[i] = mgl32.Vec3{0, 1, 0}
	}
	m.MorphTargets = [][]mgl32.Vec3{lift, lift}

	dev := headless.New()
	gm, err := assets.UploadMesh(dev, m)
	require.NoError(t, err)
	assert.True(t, gm.Flags.Morphed())
	require.NotNil(t, gm.MorphView)

	tex := gm.MorphTargets.(*headless.Texture)
	assert.Equal(t, uint32(4), tex.Descriptor.Size.Width)
	assert.Equal(t, uint32(2), tex.Descriptor.Size.Height)
	require.Len(t, tex.Data, 4*2*16)
	y := math.Float32frombits(binary.LittleEndian.Uint32(tex.Data[4:8]))
	assert.Equal(t, float32(1), y)

	gm.Release()
	assert.True(t, tex.Released)
	assert.True(t, gm.MorphWeights.(*headless.Buffer).Released)

	m.MorphTargets = [][]mgl32.Vec3{lift[:1]}
	_, err = assets.UploadMesh(dev, m)
	assert.ErrorContains(t, err, "morph target 0")
}

func TestUploadMesh_Invalid(t *testing.T) {
	_, err := assets.UploadMesh(headless.New(), &assets.Mesh{Label: "empty"})
	assert.Error(t, err)

	m := assets.CreatePlaneMesh(1)
	m.Indices = append(m.Indices, 9)
	_, err = assets.UploadMesh(headless.New(), m)
	assert.ErrorContains(t, err, "out of range")
}

func TestUploadMaterial_KeyAndUniform(t *testing.T) {
	dev := headless.New()
	layout, err := dev.CreateBindGroupLayout(assets.MaterialLayoutDescriptor())
	require.NoError(t, err)

	opaque, err := assets.UploadMaterial(dev, layout, &assets.Material{Label: "red", BaseColor: mgl32.Vec4{1, 0, 0, 1}})
	require.NoError(t, err)
	masked, err := assets.UploadMaterial(dev, layout, &assets.Material{Label: "leaf", AlphaMode: assets.AlphaMask, AlphaCutoff: 0.5})
	require.NoError(t, err)

	assert.Equal(t, assets.MaterialKey{Kind: "standard"}, opaque.Key)
	assert.Equal(t, []string{"ALPHA_MASK"}, masked.Key.ShaderDefs())
	assert.Nil(t, opaque.Key.ShaderDefs())
	assert.NotEqual(t, opaque.Key, masked.Key)
	assert.Len(t, dev.Buffers[0].Data, assets.MaterialUniformSize)
}

func TestRegistry(t *testing.T) {
	dev := headless.New()
	reg := assets.NewRegistry()
	gm, err := assets.UploadMesh(dev, assets.CreatePyramidMesh(1, 1))
	require.NoError(t, err)

	id := reg.AddMesh(gm)
	got, ok := reg.Mesh(id)
	require.True(t, ok)
	assert.Same(t, gm, got)

	_, ok = reg.Mesh(assets.NewMeshId())
	assert.False(t, ok)

	assert.True(t, reg.RemoveMesh(id))
	assert.True(t, dev.Buffers[0].Released)
	assert.False(t, reg.RemoveMesh(id))
}
