// Package qrcode derives the identifiers printed on exhibit QR codes and
// renders them as PNG images.
package qrcode

import (
	"strings"

	goqrcode "github.com/skip2/go-qrcode"
)

// ImageSize is the edge length in pixels of rendered codes.
const ImageSize = 256

// Locator is the stable identifier stored with an exhibit. It is derived
// once from the exhibit UUID and never regenerated.
func Locator(uuid string) string {
	return "qr://" + uuid
}

// ScanContent is the text encoded in the printed code. With a public base
// URL it is a link to the exhibit endpoint; otherwise the bare UUID path.
func ScanContent(publicBaseURL, uuid string) string {
	base := strings.TrimRight(strings.TrimSpace(publicBaseURL), "/")
	if base == "" {
		return uuid + "/"
	}
	return base + "/v1/exhibits/" + uuid
}

// Render encodes content as a PNG image.
func Render(content string) ([]byte, error) {
	return goqrcode.Encode(content, goqrcode.Low, ImageSize)
}

// ImageKey is the storage key of an exhibit's rendered code.
func ImageKey(uuid string) string {
	return "qr_codes/qr_" + uuid + ".png"
}
