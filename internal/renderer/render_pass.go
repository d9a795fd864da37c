package renderer

import (
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"
)

// RenderTarget is the render pass drawn into the swapchain images together
// with one framebuffer per image view.
type RenderTarget struct {
	device *Device

	Format       core1_0.Format
	RenderPass   core1_0.RenderPass
	Framebuffers []core1_0.Framebuffer
}

// renderPassCreateInfo describes a single color attachment that is cleared on
// load, stored on end, and handed to the presentation engine afterwards.
func renderPassCreateInfo(format core1_0.Format) core1_0.RenderPassCreateInfo {
	return core1_0.RenderPassCreateInfo{
		Attachments: []core1_0.AttachmentDescription{
			{
				Format:         format,
				Samples:        core1_0.Samples1,
				LoadOp:         core1_0.AttachmentLoadOpClear,
				StoreOp:        core1_0.AttachmentStoreOpStore,
				StencilLoadOp:  core1_0.AttachmentLoadOpDontCare,
				StencilStoreOp: core1_0.AttachmentStoreOpDontCare,
				InitialLayout:  core1_0.ImageLayoutUndefined,
				FinalLayout:    khr_swapchain.ImageLayoutPresentSrc,
			},
		},
		Subpasses: []core1_0.SubpassDescription{
			{
				PipelineBindPoint: core1_0.PipelineBindPointGraphics,
				ColorAttachments: []core1_0.AttachmentReference{
					{
						Attachment: 0,
						Layout:     core1_0.ImageLayoutColorAttachmentOptimal,
					},
				},
			},
		},
		SubpassDependencies: []core1_0.SubpassDependency{
			{
				SrcSubpass: core1_0.SubpassExternal,
				DstSubpass: 0,

				SrcStageMask:  core1_0.PipelineStageColorAttachmentOutput,
				SrcAccessMask: 0,

				DstStageMask:  core1_0.PipelineStageColorAttachmentOutput,
				DstAccessMask: core1_0.AccessColorAttachmentWrite,
			},
		},
	}
}

// CreateRenderTarget builds the render pass for swapchain's format and a
// framebuffer for each of its views.
func CreateRenderTarget(device *Device, swapchain *Swapchain) (*RenderTarget, error) {
	renderPass, res, err := device.Driver.CreateRenderPass(nil, renderPassCreateInfo(swapchain.Format))
	if err != nil {
		return nil, pipelineError("vkCreateRenderPass", res, err)
	}

	target := &RenderTarget{
		device:     device,
		Format:     swapchain.Format,
		RenderPass: renderPass,
	}

	for _, imageView := range swapchain.ImageViews {
		framebuffer, res, err := device.Driver.CreateFramebuffer(nil, core1_0.FramebufferCreateInfo{
			RenderPass: renderPass,
			Layers:     1,
			Attachments: []core1_0.ImageView{
				imageView,
			},
			Width:  swapchain.Extent.Width,
			Height: swapchain.Extent.Height,
		})
		if err != nil {
			target.Destroy()
			return nil, pipelineError("vkCreateFramebuffer", res, err)
		}

		target.Framebuffers = append(target.Framebuffers, framebuffer)
	}

	return target, nil
}

func (t *RenderTarget) Destroy() {
	for _, framebuffer := range t.Framebuffers {
		t.device.Driver.DestroyFramebuffer(framebuffer, nil)
	}
	t.Framebuffers = nil

	if t.RenderPass.Initialized() {
		t.device.Driver.DestroyRenderPass(t.RenderPass, nil)
	}
}
