package wgpudevice

import (
	"fmt"
	"runtime"

	"github.com/go-gl/glfw/v3.3/glfw"
)

// Window is a resizable GLFW window without a client API, ready to back a
// wgpu surface. GLFW must be driven from the thread that opened it.
type Window struct {
	glfw  *glfw.Window
	title string
}

func OpenWindow(width, height int, title string) (*Window, error) {
	runtime.LockOSThread()
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("glfw init: %w", err)
	}

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	glfw.WindowHint(glfw.Resizable, glfw.True)

	win, err := glfw.CreateWindow(width, height, title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("create window %q: %w", title, err)
	}
	return &Window{glfw: win, title: title}, nil
}

func (w *Window) ShouldClose() bool { return w.glfw.ShouldClose() }

func (w *Window) PollEvents() { glfw.PollEvents() }

// FramebufferSize is the drawable size in pixels.
func (w *Window) FramebufferSize() (uint32, uint32) {
	width, height := w.glfw.GetFramebufferSize()
	return uint32(max(width, 0)), uint32(max(height, 0))
}

func (w *Window) Close() {
	w.glfw.Destroy()
	glfw.Terminate()
}
