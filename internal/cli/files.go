package cli

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"product-mockup-studio/internal/imagedata"
)

func readImage(path string) (imagedata.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return imagedata.Image{}, fmt.Errorf("read image: %w", err)
	}
	return imagedata.FromBytes(data, mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))), nil
}

func readOptionalImage(path string) (imagedata.Image, error) {
	if strings.TrimSpace(path) == "" {
		return imagedata.Image{}, nil
	}
	return readImage(path)
}

// writeImage writes img to path. An empty path derives one from prefix and
// the image media type.
func writeImage(path, prefix string, img imagedata.Image) (string, error) {
	if path == "" {
		path = prefix + img.Extension()
	}
	data, err := img.Bytes()
	if err != nil {
		return "", fmt.Errorf("decode image: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write image: %w", err)
	}
	return path, nil
}
