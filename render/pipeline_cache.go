package render

import (
	"fmt"

	"github.com/gekko3d/gridshadow/gpu"
	"github.com/gekko3d/gridshadow/shader"
)

type cachedPipeline struct {
	descriptor gpu.RenderPipelineDescriptor
	pipeline   gpu.RenderPipeline
}

// PipelineCache owns every render pipeline and shader module created for
// the session. Entries are never evicted.
type PipelineCache struct {
	device    gpu.Device
	validator shader.Validator
	pipelines []cachedPipeline
	shaders   map[string]gpu.ShaderModule
}

func NewPipelineCache(device gpu.Device, validator shader.Validator) *PipelineCache {
	if validator == nil {
		validator = shader.NopValidator{}
	}
	return &PipelineCache{
		device:    device,
		validator: validator,
		shaders:   make(map[string]gpu.ShaderModule),
	}
}

// ShaderModule validates source and returns the module compiled from it,
// reusing an earlier module built from identical source.
func (c *PipelineCache) ShaderModule(label, source string) (gpu.ShaderModule, error) {
	if m, ok := c.shaders[source]; ok {
		return m, nil
	}
	if err := c.validator.Validate(label, source); err != nil {
		return nil, err
	}
	m, err := c.device.CreateShaderModule(&gpu.ShaderModuleDescriptor{Label: label, Code: source})
	if err != nil {
		return nil, fmt.Errorf("create shader module %q: %w", label, err)
	}
	c.shaders[source] = m
	return m, nil
}

// CreateRenderPipeline builds desc on the device and stores it under a new id.
func (c *PipelineCache) CreateRenderPipeline(desc *gpu.RenderPipelineDescriptor) (PipelineId, error) {
	p, err := c.device.CreateRenderPipeline(desc)
	if err != nil {
		return 0, fmt.Errorf("create render pipeline %q: %w", desc.Label, err)
	}
	id := PipelineId(len(c.pipelines))
	c.pipelines = append(c.pipelines, cachedPipeline{descriptor: *desc, pipeline: p})
	return id, nil
}

func (c *PipelineCache) RenderPipeline(id PipelineId) (gpu.RenderPipeline, bool) {
	if int(id) >= len(c.pipelines) {
		return nil, false
	}
	return c.pipelines[id].pipeline, true
}

func (c *PipelineCache) Descriptor(id PipelineId) (*gpu.RenderPipelineDescriptor, bool) {
	if int(id) >= len(c.pipelines) {
		return nil, false
	}
	return &c.pipelines[id].descriptor, true
}

func (c *PipelineCache) Len() int { return len(c.pipelines) }

func (c *PipelineCache) ShaderCount() int { return len(c.shaders) }
