// Package assets holds render-ready meshes and materials and resolves them
// by id.
package assets

import "github.com/google/uuid"

type MeshId uuid.UUID

func NewMeshId() MeshId { return MeshId(uuid.New()) }

func (id MeshId) String() string { return uuid.UUID(id).String() }

type MaterialId uuid.UUID

func NewMaterialId() MaterialId { return MaterialId(uuid.New()) }

func (id MaterialId) String() string { return uuid.UUID(id).String() }

// ParseMeshId parses the canonical uuid text form.
func ParseMeshId(s string) (MeshId, error) {
	u, err := uuid.Parse(s)
	return MeshId(u), err
}

func ParseMaterialId(s string) (MaterialId, error) {
	u, err := uuid.Parse(s)
	return MaterialId(u), err
}
