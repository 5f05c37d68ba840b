package render

import (
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gekko3d/gridshadow/gpu"
)

const MainPass = "main_pass"

// Surface hands out the texture view a frame is presented from.
type Surface interface {
	Acquire() (gpu.TextureView, error)
}

// MainPassNode clears the surface view. Passes producing inputs for the
// main pass add an edge to MainPass.
type MainPassNode struct {
	Surface Surface
	Clear   gputypes.Color
}

func (n *MainPassNode) Update() {}

func (n *MainPassNode) Run(ctx *RenderContext) error {
	view, err := n.Surface.Acquire()
	if err != nil {
		return err
	}
	pass, err := ctx.Encoder.BeginRenderPass(&gpu.RenderPassDescriptor{
		Label: MainPass,
		ColorAttachments: []gpu.ColorAttachment{{
			View:       view,
			LoadOp:     gputypes.LoadOpClear,
			StoreOp:    gputypes.StoreOpStore,
			ClearValue: n.Clear,
		}},
	})
	if err != nil {
		return fmt.Errorf("main pass: %w", err)
	}
	return pass.End()
}
