package artwork

import (
	"bytes"
	"image"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/nfnt/resize"
)

// DefaultBackground is used when no colour can be derived.
const DefaultBackground = "#141419"

// sampleSize is the edge of the downscaled image that gets sampled.
const sampleSize = 32

// DominantColor returns the hex colour of the most common hue region of a
// cover image. Transparent and near-white pixels are ignored. It returns
// DefaultBackground for undecodable data.
func DominantColor(data []byte) string {
	if len(data) == 0 {
		return DefaultBackground
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return DefaultBackground
	}
	return dominant(img)
}

type bucket struct {
	count   int
	l, a, b float64
}

func dominant(img image.Image) string {
	small := resize.Resize(sampleSize, sampleSize, img, resize.Bilinear)
	bounds := small.Bounds()

	// Pixels are binned on a coarse RGB grid, then averaged in Lab space.
	buckets := make(map[int]*bucket)
	var best *bucket

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			px := small.At(x, y)
			_, _, _, alpha := px.RGBA()
			if alpha < 0x8000 {
				continue
			}
			c, ok := colorful.MakeColor(px)
			if !ok {
				continue
			}
			if c.R > 0.98 && c.G > 0.98 && c.B > 0.98 {
				continue
			}

			r, g, b := c.RGB255()
			key := int(r>>5)<<6 | int(g>>5)<<3 | int(b>>5)
			bk := buckets[key]
			if bk == nil {
				bk = &bucket{}
				buckets[key] = bk
			}
			l, la, lb := c.Lab()
			bk.count++
			bk.l += l
			bk.a += la
			bk.b += lb

			if best == nil || bk.count > best.count {
				best = bk
			}
		}
	}

	if best == nil {
		return DefaultBackground
	}
	n := float64(best.count)
	return colorful.Lab(best.l/n, best.a/n, best.b/n).Clamped().Hex()
}
