package gridshadow

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/gridshadow/assets"
	"github.com/gekko3d/gridshadow/scene"
)

// LoadedScene maps the names in a scene description to spawned entities.
// Unnamed grids and objects are spawned but not listed.
type LoadedScene struct {
	Grids     map[string]scene.Entity
	Objects   map[string]scene.Entity
	Materials map[string]assets.MaterialId
	Casters   int
}

// LoadScene uploads the meshes and materials a description needs and spawns
// its grids and objects into the app's world.
func LoadScene(app *App, desc *scene.Description) (*LoadedScene, error) {
	world, ok := Resource[scene.World](app)
	if !ok {
		return nil, fmt.Errorf("load scene: no renderer installed")
	}
	loaded := &LoadedScene{
		Grids:     make(map[string]scene.Entity),
		Objects:   make(map[string]scene.Entity),
		Materials: make(map[string]assets.MaterialId),
	}

	if desc.Viewport != nil {
		world.SetViewport(desc.Viewport.Width, desc.Viewport.Height)
	}

	for _, g := range desc.Grids {
		e := world.SpawnGrid(scene.FromTranslation(mgl32.Vec3(g.Translation)), g.Footprint.Footprint())
		if g.Name != "" {
			loaded.Grids[g.Name] = e
		}
	}

	for i, o := range desc.Objects {
		mesh, err := app.UploadMesh(objectMesh(o))
		if err != nil {
			return nil, fmt.Errorf("load scene: object %d (%s): %w", i, o.Name, err)
		}
		material, err := app.UploadMaterial(objectMaterial(o))
		if err != nil {
			return nil, fmt.Errorf("load scene: object %d (%s): %w", i, o.Name, err)
		}
		e := world.SpawnMesh(mesh, material, scene.FromTranslation(mgl32.Vec3(o.Translation)), o.Caster())
		if o.Name != "" {
			loaded.Objects[o.Name] = e
			loaded.Materials[o.Name] = material
		}
		if o.Caster() {
			loaded.Casters++
		}
	}

	app.Logger().Infof("Scene loaded: %d grids, %d objects, %d casters", len(desc.Grids), len(desc.Objects), loaded.Casters)
	return loaded, nil
}

func objectMesh(o scene.ObjectDescription) *assets.Mesh {
	size := o.Size
	for i := range size {
		if size[i] <= 0 {
			size[i] = 1
		}
	}
	switch o.Shape {
	case "plane":
		return assets.CreatePlaneMesh(size[0])
	case "pyramid":
		return assets.CreatePyramidMesh(size[0], size[1])
	default:
		return assets.CreateCubeMesh(size[0], size[1], size[2])
	}
}

func objectMaterial(o scene.ObjectDescription) *assets.Material {
	color := mgl32.Vec4(o.Color)
	if color == (mgl32.Vec4{}) {
		color = mgl32.Vec4{0.5, 0.5, 0.5, 1}
	}
	m := &assets.Material{
		Label:     o.Name,
		BaseColor: color,
	}
	if o.AlphaCutoff > 0 {
		m.AlphaMode = assets.AlphaMask
		m.AlphaCutoff = o.AlphaCutoff
	}
	return m
}
