package gridshadow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gekko3d/gridshadow/assets"
	"github.com/gekko3d/gridshadow/scene"
	"github.com/gekko3d/gridshadow/shadow"
)

const testScene = `
viewport: {width: 1280, height: 720}
grids:
  - name: floor
    footprint: {width: 40, height: 20}
objects:
  - name: crate
    shape: cube
    size: [2, 2, 2]
    translation: [0, 1, 0]
  - name: fence
    shape: plane
    size: [4]
    alpha_cutoff: 0.5
    translation: [3, 0, 0]
  - name: marker
    shape: pyramid
    shadow_caster: false
`

func TestLoadScene_SpawnsAndRenders(t *testing.T) {
	app := NewAppBuilder().Build()
	dev := app.UseHeadless(RenderModule{})
	app.UseModules(GridShadowModule{})

	desc, err := scene.ParseDescription([]byte(testScene))
	require.NoError(t, err)
	loaded, err := LoadScene(app, desc)
	require.NoError(t, err)

	assert.Len(t, loaded.Grids, 1)
	assert.Len(t, loaded.Objects, 3)
	assert.Equal(t, 2, loaded.Casters)

	registry, _ := Resource[assets.Registry](app)
	fence, ok := registry.Material(loaded.Materials["fence"])
	require.True(t, ok)
	assert.Equal(t, assets.MaterialKey{Kind: "standard", Defs: "ALPHA_MASK"}, fence.Key)

	require.NoError(t, app.RunFrame())
	passes := dev.PassesLabelled(shadow.PassNodeName)
	require.Len(t, passes, 1)
	assert.Len(t, passes[0].Draws, 2)
}

func TestLoadScene_NeedsRenderer(t *testing.T) {
	app := NewAppBuilder().Build()
	_, err := LoadScene(app, &scene.Description{})
	assert.Error(t, err)
}
