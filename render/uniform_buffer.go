// Package render holds the frame rendering infrastructure: uniform buffers,
// views, tracked passes, draw functions, the pipeline cache and the render
// graph.
package render

import (
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gekko3d/gridshadow/gpu"
)

// UniformAlignment is the dynamic offset alignment every backend accepts.
const UniformAlignment = 256

// DynamicUniformBuffer packs fixed-size uniform elements at aligned offsets
// so one bind group serves every element through a dynamic offset.
type DynamicUniformBuffer struct {
	Label       string
	ElementSize uint64

	data       []byte
	buffer     gpu.Buffer
	generation uint64
	written    bool
}

func NewDynamicUniformBuffer(label string, elementSize uint64) *DynamicUniformBuffer {
	return &DynamicUniformBuffer{Label: label, ElementSize: elementSize}
}

// Clear drops the staged elements. The device buffer is kept for reuse.
func (b *DynamicUniformBuffer) Clear() {
	b.data = b.data[:0]
	b.written = false
}

// Push stages one element and returns its dynamic offset.
func (b *DynamicUniformBuffer) Push(element []byte) uint32 {
	if uint64(len(element)) != b.ElementSize {
		panic(fmt.Sprintf("%s: element is %d bytes, want %d", b.Label, len(element), b.ElementSize))
	}
	offset := uint32(len(b.data))
	b.data = append(b.data, element...)
	if pad := len(b.data) % UniformAlignment; pad != 0 {
		b.data = append(b.data, make([]byte, UniformAlignment-pad)...)
	}
	return offset
}

// Len is the number of staged elements.
func (b *DynamicUniformBuffer) Len() int {
	return len(b.data) / alignedSize(b.ElementSize)
}

func alignedSize(size uint64) int {
	return int((size + UniformAlignment - 1) / UniformAlignment * UniformAlignment)
}

// Write uploads the staged elements, growing the device buffer when needed.
// Growing replaces the buffer and bumps Generation.
func (b *DynamicUniformBuffer) Write(device gpu.Device) error {
	if len(b.data) == 0 {
		b.written = false
		return nil
	}
	if b.buffer == nil || b.buffer.Size() < uint64(len(b.data)) {
		size := uint64(len(b.data))
		if b.buffer != nil {
			size = max(size, 2*b.buffer.Size())
			b.buffer.Release()
			b.buffer = nil
		}
		buf, err := device.CreateBuffer(&gputypes.BufferDescriptor{
			Label: b.Label,
			Size:  size,
			Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
		})
		if err != nil {
			b.written = false
			return fmt.Errorf("grow %s: %w", b.Label, err)
		}
		b.buffer = buf
		b.generation++
	}
	if err := device.WriteBuffer(b.buffer, 0, b.data); err != nil {
		b.written = false
		return fmt.Errorf("write %s: %w", b.Label, err)
	}
	b.written = true
	return nil
}

// Binding returns the device buffer when it holds this frame's elements.
func (b *DynamicUniformBuffer) Binding() (gpu.Buffer, bool) {
	if !b.written || b.buffer == nil {
		return nil, false
	}
	return b.buffer, true
}

// Generation changes every time the device buffer is replaced. Bind groups
// built over the buffer are stale once it changes.
func (b *DynamicUniformBuffer) Generation() uint64 { return b.generation }
