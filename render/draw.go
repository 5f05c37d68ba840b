package render

import "fmt"

type PipelineId uint32

type DrawFunctionId uint32

// RenderCommand encodes one step of drawing item from view.
type RenderCommand[V, I any] interface {
	Render(view V, item I, pass *TrackedRenderPass) error
}

type RenderCommandFunc[V, I any] func(view V, item I, pass *TrackedRenderPass) error

func (f RenderCommandFunc[V, I]) Render(view V, item I, pass *TrackedRenderPass) error {
	return f(view, item, pass)
}

type DrawFunction[V, I any] interface {
	Draw(view V, item I, pass *TrackedRenderPass) error
}

// RenderCommands runs its commands in order and stops at the first failure.
type RenderCommands[V, I any] []RenderCommand[V, I]

func (c RenderCommands[V, I]) Draw(view V, item I, pass *TrackedRenderPass) error {
	for _, cmd := range c {
		if err := cmd.Render(view, item, pass); err != nil {
			return err
		}
	}
	return nil
}

// DrawFunctions registers draw functions by name and hands out stable ids.
type DrawFunctions[V, I any] struct {
	fns   []DrawFunction[V, I]
	names map[string]DrawFunctionId
}

func NewDrawFunctions[V, I any]() *DrawFunctions[V, I] {
	return &DrawFunctions[V, I]{names: make(map[string]DrawFunctionId)}
}

func (d *DrawFunctions[V, I]) Add(name string, fn DrawFunction[V, I]) DrawFunctionId {
	if _, ok := d.names[name]; ok {
		panic(fmt.Sprintf("draw function %s already registered", name))
	}
	id := DrawFunctionId(len(d.fns))
	d.fns = append(d.fns, fn)
	d.names[name] = id
	return id
}

func (d *DrawFunctions[V, I]) Id(name string) (DrawFunctionId, bool) {
	id, ok := d.names[name]
	return id, ok
}

func (d *DrawFunctions[V, I]) Get(id DrawFunctionId) (DrawFunction[V, I], bool) {
	if int(id) >= len(d.fns) {
		return nil, false
	}
	return d.fns[id], true
}
