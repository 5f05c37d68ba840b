package gpu

import (
	"fmt"
	"slices"

	"github.com/gogpu/gputypes"
)

// DefaultMaxUnusedFrames is how many frames an unclaimed texture survives in
// the cache before it is released.
const DefaultMaxUnusedFrames = 3

// CachedTexture is a texture handed out by TextureCache. The cache keeps
// ownership; callers must not release it.
type CachedTexture struct {
	Texture    Texture
	View       TextureView
	Descriptor gputypes.TextureDescriptor
}

type textureKey struct {
	label       string
	width       uint32
	height      uint32
	layers      uint32
	mips        uint32
	samples     uint32
	dimension   gputypes.TextureDimension
	format      gputypes.TextureFormat
	usage       gputypes.TextureUsage
	viewFormats string
}

func keyOf(desc *gputypes.TextureDescriptor) textureKey {
	return textureKey{
		label:       desc.Label,
		width:       desc.Size.Width,
		height:      desc.Size.Height,
		layers:      desc.Size.DepthOrArrayLayers,
		mips:        desc.MipLevelCount,
		samples:     desc.SampleCount,
		dimension:   desc.Dimension,
		format:      desc.Format,
		usage:       desc.Usage,
		viewFormats: fmt.Sprint(desc.ViewFormats),
	}
}

type textureEntry struct {
	texture      CachedTexture
	claimedFrame uint64
	claimed      bool
	lastUsed     uint64
}

// TextureCache pools textures by descriptor. A descriptor requested twice in
// the same frame yields the same texture; textures not requested for
// MaxUnusedFrames frames are released by Update.
type TextureCache struct {
	MaxUnusedFrames int

	entries map[textureKey][]*textureEntry
	frame   uint64
}

func NewTextureCache(maxUnusedFrames int) *TextureCache {
	if maxUnusedFrames <= 0 {
		maxUnusedFrames = DefaultMaxUnusedFrames
	}
	return &TextureCache{
		MaxUnusedFrames: maxUnusedFrames,
		entries:         make(map[textureKey][]*textureEntry),
	}
}

// Get returns a texture matching desc, allocating one on device when no
// pooled texture is available.
func (c *TextureCache) Get(device Device, desc *gputypes.TextureDescriptor) (CachedTexture, error) {
	key := keyOf(desc)
	free := -1
	for i, e := range c.entries[key] {
		if e.claimed && e.claimedFrame == c.frame {
			return e.texture, nil
		}
		if free < 0 {
			free = i
		}
	}
	if free >= 0 {
		e := c.entries[key][free]
		e.claimed = true
		e.claimedFrame = c.frame
		e.lastUsed = c.frame
		return e.texture, nil
	}

	tex, err := device.CreateTexture(desc)
	if err != nil {
		return CachedTexture{}, fmt.Errorf("create texture %q: %w", desc.Label, err)
	}
	view, err := tex.CreateView()
	if err != nil {
		tex.Release()
		return CachedTexture{}, fmt.Errorf("create view for %q: %w", desc.Label, err)
	}
	stored := *desc
	stored.ViewFormats = slices.Clone(desc.ViewFormats)
	e := &textureEntry{
		texture:      CachedTexture{Texture: tex, View: view, Descriptor: stored},
		claimed:      true,
		claimedFrame: c.frame,
		lastUsed:     c.frame,
	}
	c.entries[key] = append(c.entries[key], e)
	return e.texture, nil
}

// Update ends the current frame: every texture returns to the pool and
// entries idle for longer than MaxUnusedFrames are released.
func (c *TextureCache) Update() {
	for key, list := range c.entries {
		kept := list[:0]
		for _, e := range list {
			e.claimed = false
			if c.frame-e.lastUsed >= uint64(c.MaxUnusedFrames) {
				e.texture.View.Release()
				e.texture.Texture.Release()
				continue
			}
			kept = append(kept, e)
		}
		if len(kept) == 0 {
			delete(c.entries, key)
			continue
		}
		c.entries[key] = kept
	}
	c.frame++
}

// Len reports how many textures the cache currently owns.
func (c *TextureCache) Len() int {
	n := 0
	for _, list := range c.entries {
		n += len(list)
	}
	return n
}
