package utils

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"
	_ "golang.org/x/image/webp"

	"siteops/internal/domain"
)

type OptimizeOptions struct {
	MaxWidth int
	Quality  int
}

type ImageProcessor struct {
	log *zap.Logger
}

func NewImageProcessor(log *zap.Logger) *ImageProcessor {
	return &ImageProcessor{log: log}
}

// Optimize downscales the image at path to at most opts.MaxWidth pixels
// wide, re-encodes it as JPEG and replaces the file in place.
func (p *ImageProcessor) Optimize(path string, opts OptimizeOptions) (*domain.OptimizeResult, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	img, err := imaging.Decode(file)
	file.Close()
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	bounds := img.Bounds()
	result := &domain.OptimizeResult{
		Original: domain.ImageRecord{
			Path:   path,
			Width:  bounds.Dx(),
			Height: bounds.Dy(),
			Size:   info.Size(),
		},
	}

	if bounds.Dx() > opts.MaxWidth {
		height := bounds.Dy() * opts.MaxWidth / bounds.Dx()
		if height < 1 {
			height = 1
		}
		img = imaging.Resize(img, opts.MaxWidth, height, imaging.Lanczos)
		result.Resized = true

		p.log.Debug("Image resized",
			zap.String("path", path),
			zap.Int("width", opts.MaxWidth),
			zap.Int("height", height))
	}

	img = ToRGB(img)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(opts.Quality)); err != nil {
		return nil, fmt.Errorf("encode %s: %w", path, err)
	}

	if err := ReplaceFile(path, buf.Bytes(), info.Mode().Perm()); err != nil {
		return nil, err
	}

	result.Optimized = domain.ImageRecord{
		Path:   path,
		Width:  img.Bounds().Dx(),
		Height: img.Bounds().Dy(),
		Size:   int64(buf.Len()),
	}

	p.log.Info("Image optimized",
		zap.String("path", path),
		zap.Int("quality", opts.Quality),
		zap.Int64("original_size", result.Original.Size),
		zap.Int64("size", result.Optimized.Size))

	return result, nil
}

// ToRGB returns an opaque image JPEG can encode without losing colour
// data. Alpha is dropped, not composited. Grey, YCbCr and CMYK images are
// returned unchanged.
func ToRGB(img image.Image) image.Image {
	switch src := img.(type) {
	case *image.YCbCr, *image.Gray, *image.CMYK:
		return img
	case *image.RGBA:
		if src.Opaque() {
			return src
		}
	case *image.NRGBA:
		dst := &image.RGBA{
			Pix:    make([]uint8, len(src.Pix)),
			Stride: src.Stride,
			Rect:   src.Rect,
		}
		copy(dst.Pix, src.Pix)
		for i := 3; i < len(dst.Pix); i += 4 {
			dst.Pix[i] = 0xff
		}
		return dst
	}

	b := img.Bounds()
	dst := image.NewRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			dst.SetRGBA(x, y, color.RGBA{R: c.R, G: c.G, B: c.B, A: 0xff})
		}
	}
	return dst
}

// ReplaceFile writes data next to path and renames it over path, so readers
// see either the old or the new content.
func ReplaceFile(path string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".optimized-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	cleanup := func(err error) error {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}

	if _, err := tmp.Write(data); err != nil {
		return cleanup(err)
	}
	if err := tmp.Sync(); err != nil {
		return cleanup(err)
	}
	if err := tmp.Chmod(perm); err != nil {
		return cleanup(err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
