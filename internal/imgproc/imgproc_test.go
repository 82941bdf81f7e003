package imgproc

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uniform(w, h int, v uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = v
	}
	return img
}

func TestMedianBlur3_RemovesSaltNoise(t *testing.T) {
	img := uniform(5, 5, 10)
	img.SetGray(2, 2, color.Gray{Y: 255})

	out := MedianBlur3(img)
	assert.Equal(t, uint8(10), out.GrayAt(2, 2).Y)
	assert.Equal(t, uint8(10), out.GrayAt(0, 0).Y)
}

func TestOtsuThreshold_Bimodal(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 10, 10))
	for i := range img.Pix {
		if i%2 == 0 {
			img.Pix[i] = 40
		} else {
			img.Pix[i] = 200
		}
	}

	th := OtsuThreshold(img)
	assert.GreaterOrEqual(t, th, uint8(40))
	assert.Less(t, th, uint8(200))

	bin := Binarize(img, th)
	assert.Equal(t, uint8(0), bin.Pix[0])
	assert.Equal(t, uint8(255), bin.Pix[1])
}

func TestOtsuThreshold_Empty(t *testing.T) {
	assert.Equal(t, uint8(0), OtsuThreshold(image.NewGray(image.Rect(0, 0, 0, 0))))
}

func TestCLAHE_UniformStaysUniform(t *testing.T) {
	out := CLAHE(uniform(64, 48, 100), 2.0, 8, 8)
	require.Equal(t, image.Rect(0, 0, 64, 48), out.Bounds())
	first := out.Pix[0]
	for _, v := range out.Pix {
		if v != first {
			t.Fatalf("expected uniform output, got %d and %d", first, v)
		}
	}
}

func TestCLAHE_UnevenTilesHaveNoSeams(t *testing.T) {
	// 50 does not divide into 8 tiles; every tile must still cover real pixels
	out := CLAHE(uniform(50, 50, 128), 2.0, 8, 8)
	require.Equal(t, image.Rect(0, 0, 50, 50), out.Bounds())

	center, edge, corner := out.GrayAt(25, 25).Y, out.GrayAt(49, 25).Y, out.GrayAt(49, 49).Y
	lo, hi := uint8(255), uint8(0)
	for _, v := range out.Pix {
		lo, hi = min(lo, v), max(hi, v)
	}
	assert.LessOrEqual(t, int(hi)-int(lo), 2, "center=%d edge=%d corner=%d", center, edge, corner)
}

func TestCLAHE_StretchesLowContrast(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 32, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8(100 + (x+y)%8)})
		}
	}

	out := CLAHE(img, 2.0, 4, 4)
	lo, hi := uint8(255), uint8(0)
	for _, v := range out.Pix {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	assert.Greater(t, int(hi)-int(lo), 7, "contrast should be stretched beyond the input range")
}

func TestCLAHE_TinyImage(t *testing.T) {
	out := CLAHE(uniform(3, 2, 50), 2.0, 8, 8)
	assert.Equal(t, image.Rect(0, 0, 3, 2), out.Bounds())
}

func TestEnhance_CapsWidth(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 1600, 400))
	out := Enhance(img, DefaultOptions(800))
	assert.Equal(t, 800, out.Bounds().Dx())
	assert.Equal(t, 200, out.Bounds().Dy())
}

func TestEnhance_KeepsNarrowFrames(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 640, 360))
	out := Enhance(img, DefaultOptions(1200))
	assert.Equal(t, 640, out.Bounds().Dx())
}
