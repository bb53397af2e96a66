package retriever

import (
	"bytes"
	"image"
	"image/jpeg"
	_ "image/png" // register PNG decoding alongside JPEG

	"github.com/Sadra3st/CBIR/internal/errors"
)

const thumbnailSize = 64

// generateThumbnail decodes the image at path and downsamples it to a
// fixed thumbnailSize x thumbnailSize JPEG, best-effort: a non-image file
// or unsupported format is a ThumbnailFailure the caller swallows rather
// than failing AddImage. No third-party image library appears anywhere in
// the example corpus, so this one helper is a deliberate stdlib exception
// (DESIGN.md): image/jpeg and image/png cover the two common formats
// without pulling in a dependency nothing else in the corpus grounds.
func generateThumbnail(data []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.New(errors.ErrCodeThumbnailFailed, "failed to decode image for thumbnail", err)
	}

	thumb := downsampleNearest(img, thumbnailSize, thumbnailSize)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, thumb, &jpeg.Options{Quality: 80}); err != nil {
		return nil, errors.New(errors.ErrCodeThumbnailFailed, "failed to encode thumbnail", err)
	}
	return buf.Bytes(), nil
}

// downsampleNearest produces a w x h image.RGBA by nearest-neighbor
// sampling src, avoiding a dependency on a resize library for a
// best-effort preview image.
func downsampleNearest(src image.Image, w, h int) image.Image {
	bounds := src.Bounds()
	srcW, srcH := bounds.Dx(), bounds.Dy()

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		srcY := bounds.Min.Y + y*srcH/h
		for x := 0; x < w; x++ {
			srcX := bounds.Min.X + x*srcW/w
			dst.Set(x, y, src.At(srcX, srcY))
		}
	}
	return dst
}
