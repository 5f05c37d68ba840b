package gpu_test

import (
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gekko3d/gridshadow/gpu"
	"github.com/gekko3d/gridshadow/gpu/headless"
)

func shadowDescriptor(label string, w, h uint32) *gputypes.TextureDescriptor {
	return &gputypes.TextureDescriptor{
		Label:         label,
		Size:          gputypes.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatR8Unorm,
		Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageTextureBinding,
	}
}

func TestTextureCache_SameDescriptorSameFrame(t *testing.T) {
	dev := headless.New()
	cache := gpu.NewTextureCache(3)

	a, err := cache.Get(dev, shadowDescriptor("grid", 1024, 512))
	require.NoError(t, err)
	b, err := cache.Get(dev, shadowDescriptor("grid", 1024, 512))
	require.NoError(t, err)

	assert.Same(t, a.Texture, b.Texture)
	assert.Len(t, dev.Textures, 1)
}

func TestTextureCache_DifferentDescriptor(t *testing.T) {
	dev := headless.New()
	cache := gpu.NewTextureCache(3)

	a, err := cache.Get(dev, shadowDescriptor("grid", 1024, 512))
	require.NoError(t, err)
	b, err := cache.Get(dev, shadowDescriptor("grid", 2048, 512))
	require.NoError(t, err)
	c, err := cache.Get(dev, shadowDescriptor("other", 1024, 512))
	require.NoError(t, err)

	assert.NotSame(t, a.Texture, b.Texture)
	assert.NotSame(t, a.Texture, c.Texture)
	assert.Len(t, dev.Textures, 3)
	assert.Equal(t, 3, cache.Len())
}

func TestTextureCache_ReusedAcrossFrames(t *testing.T) {
	dev := headless.New()
	cache := gpu.NewTextureCache(3)

	a, err := cache.Get(dev, shadowDescriptor("grid", 64, 64))
	require.NoError(t, err)
	cache.Update()
	b, err := cache.Get(dev, shadowDescriptor("grid", 64, 64))
	require.NoError(t, err)

	assert.Same(t, a.Texture, b.Texture)
	assert.Len(t, dev.Textures, 1)
}

func TestTextureCache_AgesOutUnusedEntries(t *testing.T) {
	dev := headless.New()
	cache := gpu.NewTextureCache(2)

	_, err := cache.Get(dev, shadowDescriptor("grid", 64, 64))
	require.NoError(t, err)

	cache.Update()
	cache.Update()
	assert.Equal(t, 1, cache.Len())
	assert.False(t, dev.Textures[0].Released)

	cache.Update()
	assert.Equal(t, 0, cache.Len())
	assert.True(t, dev.Textures[0].Released)
	assert.True(t, dev.Textures[0].Views[0].Released)
}

func TestTextureCache_CreateFailure(t *testing.T) {
	dev := headless.New()
	dev.FailOn("CreateTexture", assert.AnError)
	cache := gpu.NewTextureCache(0)

	_, err := cache.Get(dev, shadowDescriptor("grid", 64, 64))
	require.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, gpu.DefaultMaxUnusedFrames, cache.MaxUnusedFrames)
	assert.Equal(t, 0, cache.Len())
}
