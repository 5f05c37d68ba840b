package shadow

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gputypes"

	"github.com/gekko3d/gridshadow/gpu"
	"github.com/gekko3d/gridshadow/render"
	"github.com/gekko3d/gridshadow/scene"
)

const TextureFormat = gputypes.TextureFormatR8Unorm

// ShadowView is one grid's shadow camera and render target for the frame.
type ShadowView struct {
	Grid    scene.Entity
	Area    Rect
	View    *render.ExtractedView
	Texture gpu.CachedTexture
	Visible []scene.Entity

	Uniform       ShadowUniform
	UniformOffset uint32
}

// Phase is the unsorted list of draws for one grid.
type Phase struct {
	Items []ShadowDrawItem
}

// State is the per-frame shadow data, rebuilt by PrepareViews.
type State struct {
	order  []scene.Entity
	views  map[scene.Entity]*ShadowView
	phases map[scene.Entity]*Phase
}

func NewState() *State {
	return &State{
		views:  make(map[scene.Entity]*ShadowView),
		phases: make(map[scene.Entity]*Phase),
	}
}

func (s *State) Reset() {
	s.order = s.order[:0]
	clear(s.views)
	clear(s.phases)
}

// Grids lists grids with a prepared view, in snapshot order.
func (s *State) Grids() []scene.Entity { return s.order }

func (s *State) View(grid scene.Entity) (*ShadowView, bool) {
	v, ok := s.views[grid]
	return v, ok
}

func (s *State) Phase(grid scene.Entity) *Phase {
	p, ok := s.phases[grid]
	if !ok {
		p = &Phase{}
		s.phases[grid] = p
	}
	return p
}

func (s *State) add(v *ShadowView) bool {
	if _, dup := s.views[v.Grid]; dup {
		return false
	}
	s.views[v.Grid] = v
	s.order = append(s.order, v.Grid)
	return true
}

// ViewRequest carries the resources PrepareViews reads and writes.
type ViewRequest struct {
	Device   gpu.Device
	Snapshot *scene.Snapshot
	Settings Settings
	Textures *gpu.TextureCache
	Views    *render.Views
	Uniforms *Uniforms
	State    *State
	Log      Logger
}

// PrepareViews builds a shadow view and acquires a pooled render target for
// every grid in the snapshot, then writes the shadow uniforms. Without a
// primary viewport it leaves the state empty and does nothing else.
func PrepareViews(req ViewRequest) error {
	log := orNop(req.Log)
	req.State.Reset()
	req.Uniforms.Buffer.Clear()
	if err := req.Settings.Validate(); err != nil {
		return err
	}

	vw, vh, ok := req.Snapshot.PrimaryViewport()
	if !ok {
		log.Debugf("grid shadow: no primary viewport, skipping views")
		return nil
	}
	width, height, ok := TextureSize(vw, vh, req.Settings.MaxTextureSize)
	if !ok {
		return nil
	}

	for i := range req.Snapshot.Grids {
		grid := &req.Snapshot.Grids[i]
		if _, dup := req.State.View(grid.Entity); dup {
			log.Warnf("grid shadow: grid %s listed twice, keeping the first", grid.Entity)
			continue
		}

		tex, err := req.Textures.Get(req.Device, textureDescriptor(grid.Entity, width, height))
		if err != nil {
			return fmt.Errorf("grid shadow texture for %s: %w", grid.Entity, err)
		}

		v := buildView(grid, req.Settings, width, height)
		v.Texture = tex
		v.Uniform = newShadowUniform(v, grid.Footprint, width, height)
		v.UniformOffset = req.Uniforms.Buffer.Push(v.Uniform.Bytes())
		req.State.add(v)
		req.Views.Add(v.View)
	}

	if err := req.Uniforms.Buffer.Write(req.Device); err != nil {
		return fmt.Errorf("grid shadow uniforms: %w", err)
	}
	return nil
}

func textureDescriptor(grid scene.Entity, width, height uint32) *gputypes.TextureDescriptor {
	return &gputypes.TextureDescriptor{
		Label:         "grid_shadow_texture_" + grid.String(),
		Size:          gputypes.Extent3D{Width: width, Height: height, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        TextureFormat,
		Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageTextureBinding,
	}
}

func buildView(grid *scene.Grid, settings Settings, width, height uint32) *ShadowView {
	fp := grid.Footprint
	area := FootprintArea(fp.Width, fp.Height)
	eye := fp.Center.Add(grid.Up().Mul(settings.CameraOffset))
	lookAt := mgl32.LookAtV(eye, fp.Center, fp.UpDir)

	return &ShadowView{
		Grid: grid.Entity,
		Area: area,
		View: &render.ExtractedView{
			Label:      "grid_shadow_view_" + grid.Entity.String(),
			Projection: orthographic(area, 0, 2*settings.CameraOffset),
			Transform:  lookAt.Inv(),
			Viewport:   [4]uint32{0, 0, width, height},
		},
		Visible: grid.Visible,
	}
}
