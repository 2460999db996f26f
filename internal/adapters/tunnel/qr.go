package tunnel

import (
	"fmt"

	"github.com/skip2/go-qrcode"
)

// DefaultQRSize is the side of generated QR images, in pixels.
const DefaultQRSize = 256

// QR encodes url as a PNG image of size pixels.
func QR(url string, size int) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("qr: empty url")
	}
	if size <= 0 {
		size = DefaultQRSize
	}
	png, err := qrcode.Encode(url, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("qr: %w", err)
	}
	return png, nil
}

// WriteQR writes the QR PNG for url to path.
func WriteQR(path, url string, size int) error {
	if url == "" {
		return fmt.Errorf("qr: empty url")
	}
	if size <= 0 {
		size = DefaultQRSize
	}
	if err := qrcode.WriteFile(url, qrcode.Medium, size, path); err != nil {
		return fmt.Errorf("qr: %w", err)
	}
	return nil
}
