package assets

import (
	"bytes"
	"fmt"
	"image"
	"net/http"

	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder

	"sociogram/internal/models"

	"github.com/chai2010/webp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register WebP decoder
)

const (
	// MaxEdge is the longest image edge kept after normalization.
	MaxEdge = 2048
	// WebPQuality is the encoding quality for normalized images.
	WebPQuality = 80
)

// Image is a normalized, upload-ready image.
type Image struct {
	Data        []byte
	ContentType string
}

// Extension returns the file extension matching the image content type.
func (i *Image) Extension() string {
	if i.ContentType == "image/webp" {
		return ".webp"
	}
	return ""
}

// Prepare validates and normalizes raw upload bytes: it decodes the image,
// downscales anything larger than MaxEdge, and re-encodes as WebP so the
// asset host only ever stores one format.
func Prepare(content []byte, maxBytes int64) (*Image, error) {
	if len(content) == 0 {
		return nil, models.NewValidationError("No file uploaded")
	}
	if maxBytes > 0 && int64(len(content)) > maxBytes {
		return nil, models.NewValidationError(fmt.Sprintf("File too large (max %dMB)", maxBytes/(1024*1024)))
	}

	detectedType := http.DetectContentType(content)
	if !isAllowedImageMIME(detectedType) {
		return nil, models.NewValidationError("Invalid image type")
	}

	decoded, _, err := image.Decode(bytes.NewReader(content))
	if err != nil {
		return nil, models.NewValidationError("Invalid image file")
	}

	decoded = downscale(decoded, MaxEdge)

	var buf bytes.Buffer
	if err := webp.Encode(&buf, decoded, &webp.Options{Quality: WebPQuality}); err != nil {
		return nil, models.NewInternalError(err)
	}

	return &Image{Data: buf.Bytes(), ContentType: "image/webp"}, nil
}

func isAllowedImageMIME(mime string) bool {
	switch mime {
	case "image/jpeg", "image/png", "image/gif", "image/webp":
		return true
	}
	return false
}

// downscale resizes img so its longest edge is at most maxEdge, preserving
// aspect ratio. Images already within bounds are returned unchanged.
func downscale(img image.Image, maxEdge int) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= maxEdge && h <= maxEdge {
		return img
	}

	scale := float64(maxEdge) / float64(w)
	if h > w {
		scale = float64(maxEdge) / float64(h)
	}
	dst := image.NewRGBA(image.Rect(0, 0, int(float64(w)*scale), int(float64(h)*scale)))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, bounds, xdraw.Over, nil)
	return dst
}
