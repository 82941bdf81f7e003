// Package imgproc prepares video frames for OCR: grayscale, denoise,
// local contrast equalisation, binarisation and width capping.
package imgproc

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"math"

	"github.com/disintegration/imaging"
)

// Options controls frame enhancement
type Options struct {
	MaxWidth  int     // Wider frames are resized down to this width
	ClipLimit float64 // CLAHE contrast clip limit
	TilesX    int     // CLAHE tile grid columns
	TilesY    int     // CLAHE tile grid rows
}

// DefaultOptions matches the OCR preprocessing used for banner frames
func DefaultOptions(maxWidth int) Options {
	return Options{MaxWidth: maxWidth, ClipLimit: 2.0, TilesX: 8, TilesY: 8}
}

// Enhance returns a binarised grayscale copy of img ready for OCR
func Enhance(img image.Image, opts Options) *image.Gray {
	gray := toGray(imaging.Grayscale(img))
	gray = MedianBlur3(gray)
	gray = CLAHE(gray, opts.ClipLimit, opts.TilesX, opts.TilesY)
	gray = Binarize(gray, OtsuThreshold(gray))

	if opts.MaxWidth > 0 && gray.Bounds().Dx() > opts.MaxWidth {
		gray = toGray(imaging.Resize(gray, opts.MaxWidth, 0, imaging.CatmullRom))
	}
	return gray
}

// EnhanceFile decodes an image file, enhances it and returns PNG bytes
func EnhanceFile(path string, opts Options) ([]byte, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}
	return EncodePNG(Enhance(img, opts))
}

// EncodePNG encodes img as PNG
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func toGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok && g.Rect.Min == (image.Point{}) {
		return g
	}
	b := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(gray, gray.Bounds(), img, b.Min, draw.Src)
	return gray
}

// MedianBlur3 applies a 3x3 median filter with replicated borders
func MedianBlur3(src *image.Gray) *image.Gray {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	dst := image.NewGray(image.Rect(0, 0, w, h))
	var win [9]uint8

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			k := 0
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					win[k] = src.Pix[clampInt(y+dy, 0, h-1)*src.Stride+clampInt(x+dx, 0, w-1)]
					k++
				}
			}
			// insertion sort; nine elements
			for i := 1; i < len(win); i++ {
				for j := i; j > 0 && win[j] < win[j-1]; j-- {
					win[j], win[j-1] = win[j-1], win[j]
				}
			}
			dst.Pix[y*dst.Stride+x] = win[4]
		}
	}
	return dst
}

// CLAHE performs contrast limited adaptive histogram equalisation over a
// tilesX by tilesY grid, blending neighbouring tile mappings bilinearly.
func CLAHE(src *image.Gray, clipLimit float64, tilesX, tilesY int) *image.Gray {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	if w == 0 || h == 0 {
		return src
	}
	tilesX = clampInt(tilesX, 1, w)
	tilesY = clampInt(tilesY, 1, h)
	// Tiles partition the image exactly, so none is empty and sizes differ by at most one pixel
	tileW := float64(w) / float64(tilesX)
	tileH := float64(h) / float64(tilesY)

	luts := make([][256]uint8, tilesX*tilesY)
	for ty := 0; ty < tilesY; ty++ {
		y0, y1 := ty*h/tilesY, (ty+1)*h/tilesY
		for tx := 0; tx < tilesX; tx++ {
			x0, x1 := tx*w/tilesX, (tx+1)*w/tilesX
			luts[ty*tilesX+tx] = tileLUT(src, x0, y0, x1, y1, clipLimit)
		}
	}

	dst := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		fy := (float64(y)+0.5)/tileH - 0.5
		ty0 := int(math.Floor(fy))
		wy := fy - float64(ty0)
		ty1 := clampInt(ty0+1, 0, tilesY-1)
		ty0 = clampInt(ty0, 0, tilesY-1)

		for x := 0; x < w; x++ {
			fx := (float64(x)+0.5)/tileW - 0.5
			tx0 := int(math.Floor(fx))
			wx := fx - float64(tx0)
			tx1 := clampInt(tx0+1, 0, tilesX-1)
			tx0 = clampInt(tx0, 0, tilesX-1)

			v := src.Pix[y*src.Stride+x]
			top := (1-wx)*float64(luts[ty0*tilesX+tx0][v]) + wx*float64(luts[ty0*tilesX+tx1][v])
			bottom := (1-wx)*float64(luts[ty1*tilesX+tx0][v]) + wx*float64(luts[ty1*tilesX+tx1][v])
			dst.Pix[y*dst.Stride+x] = uint8(clampInt(int(math.Round((1-wy)*top+wy*bottom)), 0, 255))
		}
	}
	return dst
}

// tileLUT builds the clipped-histogram equalisation mapping of one tile
func tileLUT(src *image.Gray, x0, y0, x1, y1 int, clipLimit float64) [256]uint8 {
	var hist [256]int
	for y := y0; y < y1; y++ {
		row := src.Pix[y*src.Stride:]
		for x := x0; x < x1; x++ {
			hist[row[x]]++
		}
	}
	area := (x1 - x0) * (y1 - y0)

	if clipLimit > 0 {
		limit := maxInt(int(clipLimit*float64(area)/256), 1)
		excess := 0
		for i := range hist {
			if hist[i] > limit {
				excess += hist[i] - limit
				hist[i] = limit
			}
		}
		bonus, residual := excess/256, excess%256
		for i := range hist {
			hist[i] += bonus
		}
		if residual > 0 {
			step := maxInt(256/residual, 1)
			for i := 0; i < 256 && residual > 0; i += step {
				hist[i]++
				residual--
			}
		}
	}

	var lut [256]uint8
	scale := 255.0 / float64(maxInt(area, 1))
	sum := 0
	for i := range hist {
		sum += hist[i]
		lut[i] = uint8(clampInt(int(math.Round(float64(sum)*scale)), 0, 255))
	}
	return lut
}

// OtsuThreshold returns the threshold maximising between-class variance
func OtsuThreshold(src *image.Gray) uint8 {
	var hist [256]int
	w, h := src.Rect.Dx(), src.Rect.Dy()
	for y := 0; y < h; y++ {
		row := src.Pix[y*src.Stride:]
		for x := 0; x < w; x++ {
			hist[row[x]]++
		}
	}
	total := w * h
	if total == 0 {
		return 0
	}

	var sumAll float64
	for i, c := range hist {
		sumAll += float64(i * c)
	}

	var sumB float64
	var weightB int
	var best float64
	var threshold uint8
	for t := 0; t < 256; t++ {
		weightB += hist[t]
		if weightB == 0 {
			continue
		}
		weightF := total - weightB
		if weightF == 0 {
			break
		}
		sumB += float64(t * hist[t])
		meanB := sumB / float64(weightB)
		meanF := (sumAll - sumB) / float64(weightF)
		between := float64(weightB) * float64(weightF) * (meanB - meanF) * (meanB - meanF)
		if between > best {
			best = between
			threshold = uint8(t)
		}
	}
	return threshold
}

// Binarize maps pixels above threshold to white and the rest to black
func Binarize(src *image.Gray, threshold uint8) *image.Gray {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	dst := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if src.Pix[y*src.Stride+x] > threshold {
				dst.Pix[y*dst.Stride+x] = 255
			}
		}
	}
	return dst
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
