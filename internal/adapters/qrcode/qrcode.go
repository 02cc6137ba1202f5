package qrcode

import (
	"fmt"

	"campusevents/internal/domain"

	goqr "github.com/skip2/go-qrcode"
)

const defaultSize = 256

type pngEncoder struct {
	size  int
	level goqr.RecoveryLevel
}

// NewEncoder returns a QREncoder producing square PNGs of the given pixel
// size with medium error recovery. A non-positive size uses 256.
func NewEncoder(size int) domain.QREncoder {
	if size <= 0 {
		size = defaultSize
	}
	return &pngEncoder{size: size, level: goqr.Medium}
}

func (e *pngEncoder) EncodePNG(content string) ([]byte, error) {
	png, err := goqr.Encode(content, e.level, e.size)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	return png, nil
}
