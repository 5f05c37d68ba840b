package assets

type MeshResolver interface {
	Mesh(id MeshId) (*GpuMesh, bool)
}

type MaterialResolver interface {
	Material(id MaterialId) (*GpuMaterial, bool)
}

// Registry is an in-memory MeshResolver and MaterialResolver.
type Registry struct {
	meshes    map[MeshId]*GpuMesh
	materials map[MaterialId]*GpuMaterial
}

var (
	_ MeshResolver     = (*Registry)(nil)
	_ MaterialResolver = (*Registry)(nil)
)

func NewRegistry() *Registry {
	return &Registry{
		meshes:    make(map[MeshId]*GpuMesh),
		materials: make(map[MaterialId]*GpuMaterial),
	}
}

func (r *Registry) AddMesh(m *GpuMesh) MeshId {
	id := NewMeshId()
	r.meshes[id] = m
	return id
}

func (r *Registry) InsertMesh(id MeshId, m *GpuMesh) {
	r.meshes[id] = m
}

// RemoveMesh drops and releases the mesh stored under id.
func (r *Registry) RemoveMesh(id MeshId) bool {
	m, ok := r.meshes[id]
	if ok {
		m.Release()
		delete(r.meshes, id)
	}
	return ok
}

func (r *Registry) Mesh(id MeshId) (*GpuMesh, bool) {
	m, ok := r.meshes[id]
	return m, ok
}

func (r *Registry) AddMaterial(m *GpuMaterial) MaterialId {
	id := NewMaterialId()
	r.materials[id] = m
	return id
}

func (r *Registry) InsertMaterial(id MaterialId, m *GpuMaterial) {
	r.materials[id] = m
}

func (r *Registry) RemoveMaterial(id MaterialId) bool {
	m, ok := r.materials[id]
	if ok {
		m.Release()
		delete(r.materials, id)
	}
	return ok
}

func (r *Registry) Material(id MaterialId) (*GpuMaterial, bool) {
	m, ok := r.materials[id]
	return m, ok
}

func (r *Registry) Len() (meshes, materials int) {
	return len(r.meshes), len(r.materials)
}
