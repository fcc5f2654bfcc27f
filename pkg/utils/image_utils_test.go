package utils

import (
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func noisyImage(w, h int) *image.RGBA {
	rng := rand.New(rand.NewSource(1))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{
				R: uint8(x * 255 / w),
				G: uint8(y * 255 / h),
				B: uint8(rng.Intn(256)),
				A: 0xff,
			})
		}
	}
	return img
}

func writeJPEG(t *testing.T, path string, img image.Image, quality int) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, jpeg.Encode(f, img, &jpeg.Options{Quality: quality}))
}

func decodeJPEG(t *testing.T, path string) image.Image {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	img, err := jpeg.Decode(f)
	require.NoError(t, err)
	return img
}

var defaultOpts = OptimizeOptions{MaxWidth: 1920, Quality: 85}

func TestImageProcessor_Optimize_Downscales(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wide.jpg")
	writeJPEG(t, path, noisyImage(2400, 1200), 100)

	before, err := os.Stat(path)
	require.NoError(t, err)

	p := NewImageProcessor(zap.NewNop())
	res, err := p.Optimize(path, defaultOpts)
	require.NoError(t, err)

	require.True(t, res.Resized)
	require.Equal(t, 2400, res.Original.Width)
	require.Equal(t, 1200, res.Original.Height)
	require.Equal(t, before.Size(), res.Original.Size)
	require.Equal(t, 1920, res.Optimized.Width)
	require.Equal(t, 960, res.Optimized.Height)

	img := decodeJPEG(t, path)
	require.Equal(t, 1920, img.Bounds().Dx())
	require.Equal(t, 960, img.Bounds().Dy())

	after, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, res.Optimized.Size, after.Size())
	require.LessOrEqual(t, after.Size(), before.Size())
	require.Greater(t, res.ReductionPercent(), 0.0)
	require.Equal(t, before.Mode().Perm(), after.Mode().Perm())
}

func TestImageProcessor_Optimize_KeepsSmallDimensions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "small.jpg")
	writeJPEG(t, path, noisyImage(640, 427), 100)

	p := NewImageProcessor(zap.NewNop())
	res, err := p.Optimize(path, defaultOpts)
	require.NoError(t, err)

	require.False(t, res.Resized)
	require.Equal(t, 640, res.Optimized.Width)
	require.Equal(t, 427, res.Optimized.Height)
	require.LessOrEqual(t, res.Optimized.Size, res.Original.Size)
}

func TestImageProcessor_Optimize_TruncatesHeight(t *testing.T) {
	path := filepath.Join(t.TempDir(), "odd.jpg")
	writeJPEG(t, path, noisyImage(2000, 1001), 90)

	res, err := NewImageProcessor(zap.NewNop()).Optimize(path, defaultOpts)
	require.NoError(t, err)
	// 1001 * 1920 / 2000 = 960.96
	require.Equal(t, 960, res.Optimized.Height)
}

func TestImageProcessor_Optimize_TransparentPNG(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "logo.jpg")

	src := image.NewNRGBA(image.Rect(0, 0, 100, 50))
	for i := range src.Pix {
		src.Pix[i] = 0x80
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, src))
	require.NoError(t, f.Close())

	_, err = NewImageProcessor(zap.NewNop()).Optimize(path, defaultOpts)
	require.NoError(t, err)

	img := decodeJPEG(t, path)
	r, g, b, a := img.At(10, 10).RGBA()
	require.Equal(t, uint32(0xffff), a)
	// alpha is dropped, not composited onto black
	require.InDelta(t, 0x80, r>>8, 3)
	require.InDelta(t, 0x80, g>>8, 3)
	require.InDelta(t, 0x80, b>>8, 3)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestImageProcessor_Optimize_InvalidImage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.jpg")
	require.NoError(t, os.WriteFile(path, []byte("not an image"), 0o644))

	_, err := NewImageProcessor(zap.NewNop()).Optimize(path, defaultOpts)
	require.Error(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "not an image", string(data))
}

func TestImageProcessor_Optimize_MissingFile(t *testing.T) {
	_, err := NewImageProcessor(zap.NewNop()).Optimize(filepath.Join(t.TempDir(), "nope.jpg"), defaultOpts)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestToRGB(t *testing.T) {
	ycc := image.NewYCbCr(image.Rect(0, 0, 2, 2), image.YCbCrSubsampleRatio420)
	require.Same(t, ycc, ToRGB(ycc))

	gray := image.NewGray(image.Rect(0, 0, 2, 2))
	require.Same(t, gray, ToRGB(gray))

	pal := image.NewPaletted(image.Rect(0, 0, 2, 2), color.Palette{color.NRGBA{R: 10, G: 20, B: 30, A: 0}})
	out, ok := ToRGB(pal).(*image.RGBA)
	require.True(t, ok)
	require.Equal(t, color.RGBA{R: 10, G: 20, B: 30, A: 0xff}, out.RGBAAt(1, 1))
}

func TestReplaceFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.jpg")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0o600))

	require.NoError(t, ReplaceFile(path, []byte("new"), 0o600))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "new", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}
