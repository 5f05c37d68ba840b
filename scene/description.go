package scene

import (
	"fmt"
	"os"

	"github.com/go-gl/mathgl/mgl32"
	"gopkg.in/yaml.v3"
)

// Description is a scene file: a viewport, grids and shaped objects.
type Description struct {
	Viewport *ViewportDescription `yaml:"viewport"`
	Grids    []GridDescription    `yaml:"grids"`
	Objects  []ObjectDescription  `yaml:"objects"`
}

type ViewportDescription struct {
	Width  uint32 `yaml:"width"`
	Height uint32 `yaml:"height"`
}

type GridDescription struct {
	Name        string               `yaml:"name"`
	Translation [3]float32           `yaml:"translation"`
	Footprint   FootprintDescription `yaml:"footprint"`
}

type FootprintDescription struct {
	Center [3]float32 `yaml:"center"`
	Width  float32    `yaml:"width"`
	Height float32    `yaml:"height"`
	UpDir  [3]float32 `yaml:"up_dir"`
}

type ObjectDescription struct {
	Name         string     `yaml:"name"`
	Shape        string     `yaml:"shape"`
	Size         [3]float32 `yaml:"size"`
	Translation  [3]float32 `yaml:"translation"`
	Color        [4]float32 `yaml:"color"`
	AlphaCutoff  float32    `yaml:"alpha_cutoff"`
	ShadowCaster *bool      `yaml:"shadow_caster"`
}

var shapes = map[string]bool{"cube": true, "plane": true, "pyramid": true}

// Caster reports whether the object casts grid shadows. Objects cast unless
// the file says otherwise.
func (o ObjectDescription) Caster() bool {
	return o.ShadowCaster == nil || *o.ShadowCaster
}

func (f FootprintDescription) Footprint() FrustumFootprint {
	up := mgl32.Vec3(f.UpDir)
	if up.Len() == 0 {
		up = mgl32.Vec3{0, 0, -1}
	}
	return FrustumFootprint{
		Center: mgl32.Vec3(f.Center),
		Width:  f.Width,
		Height: f.Height,
		UpDir:  up.Normalize(),
	}
}

// LoadDescription reads and validates a YAML scene file.
func LoadDescription(path string) (*Description, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	d, err := ParseDescription(data)
	if err != nil {
		return nil, fmt.Errorf("scene %s: %w", path, err)
	}
	return d, nil
}

func ParseDescription(data []byte) (*Description, error) {
	var d Description
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, err
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

func (d *Description) Validate() error {
	for i, g := range d.Grids {
		if g.Footprint.Width <= 0 || g.Footprint.Height <= 0 {
			return fmt.Errorf("grid %d (%s): footprint must have positive width and height", i, g.Name)
		}
	}
	for i, o := range d.Objects {
		if !shapes[o.Shape] {
			return fmt.Errorf("object %d (%s): unknown shape %q", i, o.Name, o.Shape)
		}
	}
	return nil
}
