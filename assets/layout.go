package assets

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/fnv"

	"github.com/gogpu/gputypes"
)

var ErrMissingAttribute = errors.New("missing vertex attribute")

type AttributeId string

const (
	AttributePosition    AttributeId = "Vertex_Position"
	AttributeNormal      AttributeId = "Vertex_Normal"
	AttributeUV          AttributeId = "Vertex_Uv"
	AttributeJointIndex  AttributeId = "Vertex_JointIndex"
	AttributeJointWeight AttributeId = "Vertex_JointWeight"
)

type VertexAttribute struct {
	ID     AttributeId
	Format gputypes.VertexFormat
	Offset uint64
}

// VertexLayout describes one interleaved vertex buffer.
type VertexLayout struct {
	Stride     uint64
	Attributes []VertexAttribute

	id uint64
}

// AttributeSpec names an attribute and its format; offsets are assigned in
// order by NewVertexLayout.
type AttributeSpec struct {
	ID     AttributeId
	Format gputypes.VertexFormat
}

func NewVertexLayout(specs ...AttributeSpec) *VertexLayout {
	l := &VertexLayout{}
	h := fnv.New64a()
	var buf [4]byte
	for _, s := range specs {
		l.Attributes = append(l.Attributes, VertexAttribute{ID: s.ID, Format: s.Format, Offset: l.Stride})
		l.Stride += s.Format.Size()
		h.Write([]byte(s.ID))
		binary.LittleEndian.PutUint32(buf[:], uint32(s.Format))
		h.Write(buf[:])
	}
	l.id = h.Sum64()
	return l
}

// ID identifies the layout by attribute ids and formats. Equal layouts share
// an id.
func (l *VertexLayout) ID() uint64 { return l.id }

func (l *VertexLayout) Contains(id AttributeId) bool {
	_, ok := l.attribute(id)
	return ok
}

func (l *VertexLayout) attribute(id AttributeId) (VertexAttribute, bool) {
	for _, a := range l.Attributes {
		if a.ID == id {
			return a, true
		}
	}
	return VertexAttribute{}, false
}

// LocatedAttribute binds a layout attribute to a shader location.
type LocatedAttribute struct {
	ID       AttributeId
	Location uint32
}

// BufferLayout selects attrs from the layout and returns the vertex buffer
// layout a pipeline needs to read them.
func (l *VertexLayout) BufferLayout(attrs ...LocatedAttribute) (gputypes.VertexBufferLayout, error) {
	out := gputypes.VertexBufferLayout{
		ArrayStride: l.Stride,
		StepMode:    gputypes.VertexStepModeVertex,
	}
	for _, want := range attrs {
		a, ok := l.attribute(want.ID)
		if !ok {
			return gputypes.VertexBufferLayout{}, fmt.Errorf("%w: %s", ErrMissingAttribute, want.ID)
		}
		out.Attributes = append(out.Attributes, gputypes.VertexAttribute{
			Format:         a.Format,
			Offset:         a.Offset,
			ShaderLocation: want.Location,
		})
	}
	return out, nil
}
