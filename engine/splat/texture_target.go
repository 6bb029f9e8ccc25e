package splat

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-splat/common"
	"github.com/Carmen-Shannon/oxy-splat/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-splat/engine/uploader"
	"github.com/cogentcore/webgpu/wgpu"
)

// textureTarget exposes the data textures of the splat bind group to the uploader.
type textureTarget struct {
	renderer Renderer
	provider bind_group_provider.BindGroupProvider
	layout   wgpu.BindGroupLayoutDescriptor
}

var _ uploader.TextureTarget = &textureTarget{}

func (t *textureTarget) TexturesReady() bool {
	return t.renderer.TexturesReady(t.provider, bindingCenters, bindingCovariances)
}

// CreateDataTextures replaces both textures, then rebuilds the bind group over the new views.
func (t *textureTarget) CreateDataTextures(width, height uint32) error {
	textures := []struct {
		binding int
		format  common.DataTextureFormat
		name    string
	}{
		{bindingCenters, common.DataTextureFloat, "center"},
		{bindingCovariances, common.DataTextureUint, "covariance"},
	}
	for _, tex := range textures {
		staging := common.DataTextureStagingData{Width: width, Height: height, Format: tex.format}
		if err := t.renderer.CreateDataTexture(t.provider, tex.binding, staging); err != nil {
			return fmt.Errorf("creating %s texture %dx%d: %w", tex.name, width, height, err)
		}
	}
	if err := t.renderer.InitBindGroup(t.provider, t.layout); err != nil {
		return fmt.Errorf("creating splat bind group: %w", err)
	}
	common.Logger().Debug("splat: data textures allocated", "width", width, "height", height)
	return nil
}

func (t *textureTarget) WriteDataRegion(format common.DataTextureFormat, region common.TextureRegion, data []byte) error {
	binding := bindingCenters
	if format == common.DataTextureUint {
		binding = bindingCovariances
	}
	return t.renderer.WriteTextureRegion(t.provider, binding, region, data)
}
