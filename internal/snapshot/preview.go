package snapshot

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/nfnt/resize"
)

// Thumbnail decodes the image at path and scales it to width pixels,
// keeping the aspect ratio. Images narrower than width are returned as is.
func Thumbnail(path string, width uint) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	if width == 0 || uint(img.Bounds().Dx()) <= width {
		return img, nil
	}
	return resize.Resize(width, 0, img, resize.Lanczos3), nil
}
