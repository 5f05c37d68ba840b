package shadow

import (
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gekko3d/gridshadow/gpu"
	"github.com/gekko3d/gridshadow/render"
	"github.com/gekko3d/gridshadow/scene"
)

const PassNodeName = "grid_shadow_pass"

// PassNode renders every prepared grid's phase into its shadow texture.
type PassNode struct {
	state *State
	fns   *DrawFunctions
	log   Logger

	grids []scene.Entity
}

var _ render.Node = (*PassNode)(nil)

func NewPassNode(state *State, fns *DrawFunctions, log Logger) *PassNode {
	return &PassNode{state: state, fns: fns, log: orNop(log)}
}

func (n *PassNode) Update() {
	n.grids = append(n.grids[:0], n.state.Grids()...)
}

func (n *PassNode) Run(ctx *render.RenderContext) error {
	for _, grid := range n.grids {
		view, ok := n.state.View(grid)
		if !ok {
			continue
		}
		raw, err := ctx.Encoder.BeginRenderPass(&gpu.RenderPassDescriptor{
			Label: PassNodeName,
			ColorAttachments: []gpu.ColorAttachment{{
				View:       view.Texture.View,
				LoadOp:     gputypes.LoadOpClear,
				StoreOp:    gputypes.StoreOpStore,
				ClearValue: gputypes.Color{R: 0, G: 0, B: 0, A: 1},
			}},
		})
		if err != nil {
			return fmt.Errorf("begin grid shadow pass for %s: %w", grid, err)
		}

		pass := render.NewTrackedRenderPass(raw)
		items := n.state.Phase(grid).Items
		for i := range items {
			item := &items[i]
			fn, ok := n.fns.Get(item.DrawFunction)
			if !ok {
				n.log.Errorf("grid shadow: %s: unknown draw function %d", item.Entity, item.DrawFunction)
				continue
			}
			if err := fn.Draw(view, item, pass); err != nil {
				n.log.Warnf("grid shadow: skipping %s: %v", item.Entity, err)
			}
		}
		if err := pass.End(); err != nil {
			return fmt.Errorf("end grid shadow pass for %s: %w", grid, err)
		}
	}
	return nil
}
