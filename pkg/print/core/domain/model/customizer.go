package model

import (
	"image"
	"sync"
)

// Customizer binds a printable file to a printer and optional transform settings.
type Customizer struct {
	Name               string
	PrinterName        string
	PrintableName      string
	PrintableExtension string
	// SupportsTransform enables Transform. When false, Transform is ignored.
	SupportsTransform bool
	// Transform may be nil, meaning no transform is applied.
	Transform *TransformSettings

	mu        sync.Mutex
	cacheKey  string
	origSlice *image.Gray
}

// ActiveTransform returns the settings to apply, or nil when the customizer does not transform.
func (c *Customizer) ActiveTransform() *TransformSettings {
	if c == nil || !c.SupportsTransform {
		return nil
	}
	return c.Transform
}

// OriginalSlice returns the cached untransformed first layer when it was rendered for key.
func (c *Customizer) OriginalSlice(key string) (*image.Gray, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.origSlice == nil || c.cacheKey != key {
		return nil, false
	}
	return c.origSlice, true
}

// SetOriginalSlice caches img as the untransformed first layer for key.
func (c *Customizer) SetOriginalSlice(key string, img *image.Gray) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cacheKey = key
	c.origSlice = img
}

// InvalidateOriginalSlice drops the cached layer. Call it when the file or slicing parameters change.
func (c *Customizer) InvalidateOriginalSlice() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cacheKey = ""
	c.origSlice = nil
}
