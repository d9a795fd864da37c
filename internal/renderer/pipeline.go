package renderer

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/core1_0"
)

const spirvMagic = 0x07230203

// Pipeline is the graphics pipeline that draws the triangle, along with its
// (empty) layout.
type Pipeline struct {
	device *Device

	Layout   core1_0.PipelineLayout
	Pipeline core1_0.Pipeline
}

func bytesToBytecode(b []byte) []uint32 {
	byteCode := make([]uint32, len(b)/4)
	for i := 0; i < len(byteCode); i++ {
		byteIndex := i * 4
		byteCode[i] = 0
		byteCode[i] |= uint32(b[byteIndex])
		byteCode[i] |= uint32(b[byteIndex+1]) << 8
		byteCode[i] |= uint32(b[byteIndex+2]) << 16
		byteCode[i] |= uint32(b[byteIndex+3]) << 24
	}

	return byteCode
}

// SPIRV converts a shader binary to words, rejecting anything that cannot be
// a SPIR-V module before it reaches the driver.
func SPIRV(stage string, b []byte) ([]uint32, error) {
	if len(b) == 0 || len(b)%4 != 0 {
		return nil, errors.Mark(errors.Newf("%s shader: %d bytes is not a whole number of SPIR-V words", stage, len(b)), ErrPipelineCreation)
	}

	code := bytesToBytecode(b)
	if code[0] != spirvMagic {
		return nil, errors.Mark(errors.Newf("%s shader: bad SPIR-V magic 0x%08x", stage, code[0]), ErrPipelineCreation)
	}

	return code, nil
}

// graphicsPipelineCreateInfo is the fixed pipeline: vertices come from the
// shader, viewport and scissor are set per frame, back faces are culled and
// color is written straight through.
func graphicsPipelineCreateInfo(vertShader, fragShader core1_0.ShaderModule, layout core1_0.PipelineLayout, renderPass core1_0.RenderPass) core1_0.GraphicsPipelineCreateInfo {
	vertexInput := &core1_0.PipelineVertexInputStateCreateInfo{}

	inputAssembly := &core1_0.PipelineInputAssemblyStateCreateInfo{
		Topology:               core1_0.PrimitiveTopologyTriangleList,
		PrimitiveRestartEnable: false,
	}

	vertStage := core1_0.PipelineShaderStageCreateInfo{
		Stage:  core1_0.StageVertex,
		Module: vertShader,
		Name:   "main",
	}

	fragStage := core1_0.PipelineShaderStageCreateInfo{
		Stage:  core1_0.StageFragment,
		Module: fragShader,
		Name:   "main",
	}

	// One of each; the values are replaced by the dynamic state every frame.
	viewport := &core1_0.PipelineViewportStateCreateInfo{
		Viewports: []core1_0.Viewport{{}},
		Scissors:  []core1_0.Rect2D{{}},
	}

	dynamicState := &core1_0.PipelineDynamicStateCreateInfo{
		DynamicStates: []core1_0.DynamicState{
			core1_0.DynamicStateViewport,
			core1_0.DynamicStateScissor,
		},
	}

	rasterization := &core1_0.PipelineRasterizationStateCreateInfo{
		DepthClampEnable:        false,
		RasterizerDiscardEnable: false,

		PolygonMode: core1_0.PolygonModeFill,
		CullMode:    core1_0.CullModeBack,
		FrontFace:   core1_0.FrontFaceClockwise,

		DepthBiasEnable: false,

		LineWidth: 1.0,
	}

	multisample := &core1_0.PipelineMultisampleStateCreateInfo{
		SampleShadingEnable:  false,
		RasterizationSamples: core1_0.Samples1,
		MinSampleShading:     1.0,
	}

	colorBlend := &core1_0.PipelineColorBlendStateCreateInfo{
		LogicOpEnabled: false,
		LogicOp:        core1_0.LogicOpCopy,

		BlendConstants: [4]float32{0, 0, 0, 0},
		Attachments: []core1_0.PipelineColorBlendAttachmentState{
			{
				BlendEnabled:   false,
				ColorWriteMask: core1_0.ColorComponentRed | core1_0.ColorComponentGreen | core1_0.ColorComponentBlue | core1_0.ColorComponentAlpha,
			},
		},
	}

	return core1_0.GraphicsPipelineCreateInfo{
		Stages: []core1_0.PipelineShaderStageCreateInfo{
			vertStage,
			fragStage,
		},
		VertexInputState:   vertexInput,
		InputAssemblyState: inputAssembly,
		ViewportState:      viewport,
		RasterizationState: rasterization,
		MultisampleState:   multisample,
		ColorBlendState:    colorBlend,
		DynamicState:       dynamicState,
		Layout:             layout,
		RenderPass:         renderPass,
		Subpass:            0,
		BasePipelineIndex:  -1,
	}
}

// CreatePipeline builds the graphics pipeline for target. The render target
// must have been built for swapchain; anything else is a bug in the caller.
func CreatePipeline(device *Device, swapchain *Swapchain, target *RenderTarget, vertexCode, fragmentCode []byte) (*Pipeline, error) {
	if target.Format != swapchain.Format {
		panic(fmt.Sprintf("render target format %s does not match swapchain format %s", target.Format, swapchain.Format))
	}

	vertWords, err := SPIRV("vertex", vertexCode)
	if err != nil {
		return nil, err
	}

	fragWords, err := SPIRV("fragment", fragmentCode)
	if err != nil {
		return nil, err
	}

	vertShader, res, err := device.Driver.CreateShaderModule(nil, core1_0.ShaderModuleCreateInfo{
		Code: vertWords,
	})
	if err != nil {
		return nil, pipelineError("vkCreateShaderModule(vertex)", res, err)
	}
	defer device.Driver.DestroyShaderModule(vertShader, nil)

	fragShader, res, err := device.Driver.CreateShaderModule(nil, core1_0.ShaderModuleCreateInfo{
		Code: fragWords,
	})
	if err != nil {
		return nil, pipelineError("vkCreateShaderModule(fragment)", res, err)
	}
	defer device.Driver.DestroyShaderModule(fragShader, nil)

	pipelineLayout, res, err := device.Driver.CreatePipelineLayout(nil, core1_0.PipelineLayoutCreateInfo{})
	if err != nil {
		return nil, pipelineError("vkCreatePipelineLayout", res, err)
	}

	pipelines, res, err := device.Driver.CreateGraphicsPipelines(nil, nil,
		graphicsPipelineCreateInfo(vertShader, fragShader, pipelineLayout, target.RenderPass),
	)
	if err != nil {
		device.Driver.DestroyPipelineLayout(pipelineLayout, nil)
		return nil, pipelineError("vkCreateGraphicsPipelines", res, err)
	}

	return &Pipeline{
		device:   device,
		Layout:   pipelineLayout,
		Pipeline: pipelines[0],
	}, nil
}

func (p *Pipeline) Destroy() {
	if p.Pipeline.Initialized() {
		p.device.Driver.DestroyPipeline(p.Pipeline, nil)
	}

	if p.Layout.Initialized() {
		p.device.Driver.DestroyPipelineLayout(p.Layout, nil)
	}
}
