package render_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gputypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gekko3d/gridshadow/gpu"
	"github.com/gekko3d/gridshadow/gpu/headless"
	"github.com/gekko3d/gridshadow/render"
	"github.com/gekko3d/gridshadow/shader"
)

func TestDynamicUniformBuffer_OffsetsAndGrowth(t *testing.T) {
	dev := headless.New()
	buf := render.NewDynamicUniformBuffer("test", 64)

	_, ok := buf.Binding()
	assert.False(t, ok, "no binding before the first write")

	assert.Equal(t, uint32(0), buf.Push(make([]byte, 64)))
	assert.Equal(t, uint32(256), buf.Push(make([]byte, 64)))
	assert.Equal(t, 2, buf.Len())
	require.NoError(t, buf.Write(dev))

	b, ok := buf.Binding()
	require.True(t, ok)
	assert.Equal(t, uint64(512), b.Size())
	assert.Equal(t, uint64(1), buf.Generation())

	buf.Clear()
	_, ok = buf.Binding()
	assert.False(t, ok, "cleared buffer has no binding until written")

	buf.Push(make([]byte, 64))
	require.NoError(t, buf.Write(dev))
	assert.Equal(t, uint64(1), buf.Generation(), "shrinking reuses the buffer")

	buf.Clear()
	for range 3 {
		buf.Push(make([]byte, 64))
	}
	require.NoError(t, buf.Write(dev))
	assert.Equal(t, uint64(2), buf.Generation())
	assert.True(t, dev.Buffers[0].Released)
	assert.Equal(t, uint64(1024), dev.Buffers[1].Size())
}

func TestDynamicUniformBuffer_EmptyWriteHasNoBinding(t *testing.T) {
	buf := render.NewDynamicUniformBuffer("empty", 16)
	require.NoError(t, buf.Write(headless.New()))
	_, ok := buf.Binding()
	assert.False(t, ok)
}

func TestDynamicUniformBuffer_WrongSizePanics(t *testing.T) {
	buf := render.NewDynamicUniformBuffer("strict", 16)
	assert.PanicsWithValue(t, "strict: element is 4 bytes, want 16", func() {
		buf.Push(make([]byte, 4))
	})
}

func TestPrepareViewUniforms(t *testing.T) {
	dev := headless.New()
	views := &render.Views{}
	a := &render.ExtractedView{Projection: mgl32.Ident4(), Transform: mgl32.Translate3D(1, 2, 3), Viewport: [4]uint32{0, 0, 64, 32}}
	b := &render.ExtractedView{Projection: mgl32.Ident4(), Transform: mgl32.Ident4()}
	views.Add(a)
	views.Add(b)

	uniforms := render.NewViewUniforms()
	require.NoError(t, render.PrepareViewUniforms(dev, views, uniforms))

	assert.Equal(t, uint32(0), a.UniformOffset)
	assert.Equal(t, uint32(256), b.UniformOffset)

	u := a.Uniform()
	assert.Equal(t, mgl32.Vec3{1, 2, 3}, u.WorldPosition)
	assert.Equal(t, mgl32.Vec4{0, 0, 64, 32}, u.Viewport)
	assert.Len(t, u.Bytes(), render.ViewUniformSize)

	views.Clear()
	assert.Empty(t, views.All())
}

func TestTrackedRenderPass_SkipsRedundantState(t *testing.T) {
	dev := headless.New()
	enc, err := dev.CreateCommandEncoder("test")
	require.NoError(t, err)
	raw, err := enc.BeginRenderPass(&gpu.RenderPassDescriptor{Label: "p"})
	require.NoError(t, err)

	pipe, _ := dev.CreateRenderPipeline(&gpu.RenderPipelineDescriptor{Label: "pipe"})
	layout, _ := dev.CreateBindGroupLayout(&gputypes.BindGroupLayoutDescriptor{})
	group, _ := dev.CreateBindGroup(&gpu.BindGroupDescriptor{Layout: layout})
	vb, _ := dev.CreateBuffer(&gputypes.BufferDescriptor{Size: 16})

	pass := render.NewTrackedRenderPass(raw)
	for range 2 {
		pass.SetPipeline(pipe)
		pass.SetBindGroup(0, group, []uint32{0})
		pass.SetVertexBuffer(0, vb, 0)
		pass.Draw(3, 1, 0, 0)
	}
	pass.SetBindGroup(0, group, []uint32{256})
	require.NoError(t, pass.End())

	p := dev.Passes[0]
	assert.Equal(t, []string{
		"SetPipeline", "SetBindGroup", "SetVertexBuffer", "Draw", "Draw", "SetBindGroup",
	}, p.Ops())
	assert.True(t, p.Ended)
}

func TestDrawFunctions(t *testing.T) {
	var calls []string
	step := func(name string, err error) render.RenderCommand[string, int] {
		return render.RenderCommandFunc[string, int](func(view string, item int, _ *render.TrackedRenderPass) error {
			calls = append(calls, name)
			return err
		})
	}
	fns := render.NewDrawFunctions[string, int]()
	ok := fns.Add("ok", render.RenderCommands[string, int]{step("a", nil), step("b", nil)})
	failing := fns.Add("failing", render.RenderCommands[string, int]{step("c", assert.AnError), step("d", nil)})

	id, found := fns.Id("failing")
	require.True(t, found)
	assert.Equal(t, failing, id)

	fn, found := fns.Get(ok)
	require.True(t, found)
	require.NoError(t, fn.Draw("view", 1, nil))

	fn, _ = fns.Get(failing)
	assert.ErrorIs(t, fn.Draw("view", 1, nil), assert.AnError)
	assert.Equal(t, []string{"a", "b", "c"}, calls)

	_, found = fns.Get(render.DrawFunctionId(9))
	assert.False(t, found)
	assert.Panics(t, func() { fns.Add("ok", render.RenderCommands[string, int]{}) })
}

type rejectAll struct{}

func (rejectAll) Validate(label, _ string) error {
	return errors.Join(shader.ErrInvalid, errors.New(label))
}

func TestPipelineCache_ShaderModules(t *testing.T) {
	dev := headless.New()
	cache := render.NewPipelineCache(dev, nil)

	a, err := cache.ShaderModule("a", "source one")
	require.NoError(t, err)
	b, err := cache.ShaderModule("b", "source one")
	require.NoError(t, err)
	c, err := cache.ShaderModule("c", "source two")
	require.NoError(t, err)

	assert.Same(t, a, b)
	assert.NotSame(t, a, c)
	assert.Equal(t, 2, cache.ShaderCount())
	assert.Len(t, dev.ShaderModules, 2)

	strict := render.NewPipelineCache(dev, rejectAll{})
	_, err = strict.ShaderModule("bad", "whatever")
	assert.ErrorIs(t, err, shader.ErrInvalid)
	assert.Len(t, dev.ShaderModules, 2)
}

func TestPipelineCache_ShaderModuleMatchesSource(t *testing.T) {
	dev := headless.New()
	cache := render.NewPipelineCache(dev, nil)

	sources := make([]string, 512)
	for i := range sources {
		sources[i] = fmt.Sprintf("const variant: u32 = %du;", i)
		_, err := cache.ShaderModule("variant", sources[i])
		require.NoError(t, err)
	}
	require.Equal(t, len(sources), cache.ShaderCount())

	for _, src := range sources {
		m, err := cache.ShaderModule("variant", src)
		require.NoError(t, err)
		assert.Equal(t, src, m.(*headless.ShaderModule).Descriptor.Code)
	}
	assert.Len(t, dev.ShaderModules, len(sources))
}

func TestPipelineCache_Pipelines(t *testing.T) {
	dev := headless.New()
	cache := render.NewPipelineCache(dev, shader.NopValidator{})

	id, err := cache.CreateRenderPipeline(&gpu.RenderPipelineDescriptor{Label: "one"})
	require.NoError(t, err)
	p, ok := cache.RenderPipeline(id)
	require.True(t, ok)
	assert.Same(t, dev.Pipelines[0], p)
	desc, _ := cache.Descriptor(id)
	assert.Equal(t, "one", desc.Label)

	dev.FailOn("CreateRenderPipeline", assert.AnError)
	_, err = cache.CreateRenderPipeline(&gpu.RenderPipelineDescriptor{Label: "two"})
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, 1, cache.Len())

	_, ok = cache.RenderPipeline(render.PipelineId(5))
	assert.False(t, ok)
}

type recordingNode struct {
	name    string
	log     *[]string
	updated bool
	err     error
}

func (n *recordingNode) Update() { n.updated = true }

func (n *recordingNode) Run(*render.RenderContext) error {
	*n.log = append(*n.log, n.name)
	return n.err
}

func TestGraph_OrderFollowsEdges(t *testing.T) {
	var log []string
	g := render.NewGraph()
	require.NoError(t, g.AddNode(render.EndMainPass, &recordingNode{name: render.EndMainPass, log: &log}))
	require.NoError(t, g.AddNode("grid_shadow_pass", &recordingNode{name: "grid_shadow_pass", log: &log}))
	require.NoError(t, g.AddNode("tonemap", &recordingNode{name: "tonemap", log: &log}))
	require.NoError(t, g.AddEdge("grid_shadow_pass", render.EndMainPass))
	require.NoError(t, g.AddEdge(render.EndMainPass, "tonemap"))

	order, err := g.Order()
	require.NoError(t, err)
	assert.Equal(t, []string{"grid_shadow_pass", render.EndMainPass, "tonemap"}, order)

	dev := headless.New()
	require.NoError(t, g.Run(dev))
	assert.Equal(t, order, log)
	assert.Len(t, dev.Submitted, 1)
}

func TestGraph_Errors(t *testing.T) {
	g := render.NewGraph()
	require.NoError(t, g.AddNode("a", render.EmptyNode{}))
	require.NoError(t, g.AddNode("b", render.EmptyNode{}))
	assert.ErrorIs(t, g.AddNode("a", render.EmptyNode{}), render.ErrDuplicateNode)
	assert.ErrorIs(t, g.AddEdge("a", "missing"), render.ErrUnknownNode)

	require.NoError(t, g.AddEdge("a", "b"))
	require.NoError(t, g.AddEdge("b", "a"))
	_, err := g.Order()
	assert.ErrorIs(t, err, render.ErrCycle)
}

func TestGraph_RunSurfacesNodeErrors(t *testing.T) {
	var log []string
	g := render.NewGraph()
	require.NoError(t, g.AddNode("broken", &recordingNode{name: "broken", log: &log, err: assert.AnError}))

	dev := headless.New()
	err := g.Run(dev)
	assert.ErrorIs(t, err, assert.AnError)
	assert.ErrorContains(t, err, "node broken")
	assert.Empty(t, dev.Submitted)
}
