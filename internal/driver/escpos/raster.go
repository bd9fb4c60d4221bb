// internal/driver/escpos/raster.go
package escpos

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
)

// raster is a 1 bit image packed MSB first, one row of widthBytes per line
type raster struct {
	widthBytes int
	height     int
	data       []byte
}

// decodeRaster decodes a PNG, JPEG or GIF image and scales it to width dots
// keeping the aspect ratio. Dark pixels (luminance below half) are printed.
func decodeRaster(data []byte, width int) (*raster, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return nil, fmt.Errorf("image is empty")
	}
	if width <= 0 {
		width = bounds.Dx()
	}

	height := bounds.Dy() * width / bounds.Dx()
	if height < 1 {
		height = 1
	}

	r := &raster{
		widthBytes: (width + 7) / 8,
		height:     height,
	}
	r.data = make([]byte, r.widthBytes*height)

	for y := 0; y < height; y++ {
		sy := bounds.Min.Y + y*bounds.Dy()/height
		for x := 0; x < width; x++ {
			sx := bounds.Min.X + x*bounds.Dx()/width
			if dark(img.At(sx, sy)) {
				r.data[y*r.widthBytes+x/8] |= 0x80 >> uint(x%8)
			}
		}
	}

	return r, nil
}

// dark treats transparent pixels as paper
func dark(c color.Color) bool {
	_, _, _, a := c.RGBA()
	if a < 0x8000 {
		return false
	}
	gray := color.GrayModel.Convert(c).(color.Gray)
	return gray.Y < 128
}

// command renders GS v 0 with the raster payload
func (r *raster) command() []byte {
	out := make([]byte, 0, len(codes.RasterImage)+4+len(r.data))
	out = append(out, codes.RasterImage...)
	out = append(out, le16(r.widthBytes)...)
	out = append(out, le16(r.height)...)
	return append(out, r.data...)
}
