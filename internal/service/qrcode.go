package service

import (
	"encoding/base64"
	"fmt"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

const (
	DefaultQRSize = 200
	MinQRSize     = 100
	MaxQRSize     = 500
)

// QRCode is the JSON rendition of an encoded link.
type QRCode struct {
	URL     string `json:"url"`
	DataURL string `json:"data_url"`
	SVG     string `json:"svg"`
}

// encodeQR encodes content with medium error correction.
func encodeQR(content string) (*qrcode.QRCode, error) {
	code, err := qrcode.New(content, qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("encode qr code: %w", err)
	}
	return code, nil
}

func clampQRSize(size int) int {
	switch {
	case size == 0:
		return DefaultQRSize
	case size < MinQRSize:
		return MinQRSize
	case size > MaxQRSize:
		return MaxQRSize
	}
	return size
}

// QRPNG renders content as a size x size PNG.
func QRPNG(content string, size int) ([]byte, error) {
	code, err := encodeQR(content)
	if err != nil {
		return nil, err
	}
	return code.PNG(clampQRSize(size))
}

// QRSVG renders content as an SVG document drawn from the QR bitmap.
func QRSVG(content string, size int) (string, error) {
	code, err := encodeQR(content)
	if err != nil {
		return "", err
	}
	return bitmapSVG(code.Bitmap(), clampQRSize(size)), nil
}

func bitmapSVG(bitmap [][]bool, size int) string {
	n := len(bitmap)
	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d" shape-rendering="crispEdges">`, size, size, n, n)
	fmt.Fprintf(&b, `<rect width="%d" height="%d" fill="#FFFFFF"/>`, n, n)
	b.WriteString(`<path fill="#000000" d="`)
	for y, row := range bitmap {
		for x := 0; x < len(row); x++ {
			if !row[x] {
				continue
			}
			// merge horizontal runs into one rectangle
			start := x
			for x+1 < len(row) && row[x+1] {
				x++
			}
			fmt.Fprintf(&b, "M%d %dh%dv1h-%dz", start, y, x-start+1, x-start+1)
		}
	}
	b.WriteString(`"/></svg>`)
	return b.String()
}

// QRDataURL renders content as a base64 PNG data URL.
func QRDataURL(content string, size int) (string, error) {
	png, err := QRPNG(content, size)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}

// NewQRCode builds the JSON rendition of url.
func NewQRCode(url string, size int) (*QRCode, error) {
	dataURL, err := QRDataURL(url, size)
	if err != nil {
		return nil, err
	}
	svg, err := QRSVG(url, size)
	if err != nil {
		return nil, err
	}
	return &QRCode{URL: url, DataURL: dataURL, SVG: svg}, nil
}
