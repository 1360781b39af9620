// Package qrcode renders payment intents as scannable PNG codes.
package qrcode

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	qr "github.com/skip2/go-qrcode"
)

// DefaultSize is the rendered image edge in pixels.
const DefaultSize = 256

// Renderer encodes arbitrary payloads into PNG data URLs.
type Renderer struct {
	size  int
	level qr.RecoveryLevel
}

// NewRenderer creates a Renderer producing size x size images.
func NewRenderer(size int) *Renderer {
	if size <= 0 {
		size = DefaultSize
	}
	return &Renderer{size: size, level: qr.Medium}
}

// DataURL marshals payload to JSON and returns it as a base64 PNG data URL.
func (r *Renderer) DataURL(payload any) (string, error) {
	content, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode qr payload: %w", err)
	}

	png, err := qr.Encode(string(content), r.level, r.size)
	if err != nil {
		return "", fmt.Errorf("render qr code: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
