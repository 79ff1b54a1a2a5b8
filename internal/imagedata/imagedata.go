package imagedata

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var ErrMalformed = errors.New("malformed image data url")

// Image is an image in transport form: base64 payload plus media type.
type Image struct {
	MediaType string `json:"mimeType"`
	Base64    string `json:"data"`
}

// Parse splits a "data:<media-type>;base64,<payload>" string.
func Parse(dataURL string) (Image, error) {
	dataURL = strings.TrimSpace(dataURL)

	const prefix = "data:"
	if !strings.HasPrefix(dataURL, prefix) {
		return Image{}, fmt.Errorf("%w: missing %q prefix", ErrMalformed, prefix)
	}

	meta, payload, ok := strings.Cut(strings.TrimPrefix(dataURL, prefix), ";base64,")
	if !ok {
		return Image{}, fmt.Errorf("%w: missing \";base64,\" delimiter", ErrMalformed)
	}

	mediaType := strings.TrimSpace(meta)
	if mediaType == "" || !strings.Contains(mediaType, "/") {
		return Image{}, fmt.Errorf("%w: invalid media type %q", ErrMalformed, meta)
	}
	if payload == "" {
		return Image{}, fmt.Errorf("%w: empty payload", ErrMalformed)
	}
	if _, err := base64.StdEncoding.DecodeString(payload); err != nil {
		return Image{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	return Image{MediaType: mediaType, Base64: payload}, nil
}

// FromBytes encodes raw bytes. An empty or generic media type is sniffed from the content.
func FromBytes(data []byte, mediaType string) Image {
	return Image{
		MediaType: DetectMediaType(data, mediaType),
		Base64:    base64.StdEncoding.EncodeToString(data),
	}
}

func DetectMediaType(data []byte, declared string) string {
	mediaType := stripParams(declared)
	if mediaType == "" || mediaType == "application/octet-stream" {
		mediaType = stripParams(http.DetectContentType(data))
	}
	if mediaType == "" || mediaType == "application/octet-stream" {
		mediaType = "image/jpeg"
	}
	return mediaType
}

func (i Image) Bytes() ([]byte, error) {
	return base64.StdEncoding.DecodeString(i.Base64)
}

func (i Image) DataURL() string {
	return fmt.Sprintf("data:%s;base64,%s", i.MediaType, i.Base64)
}

func (i Image) IsZero() bool {
	return i.Base64 == ""
}

// Equal reports whether both images carry the same payload and media type.
func (i Image) Equal(other Image) bool {
	return i.MediaType == other.MediaType && i.Base64 == other.Base64
}

// Extension returns a file extension for the media type, defaulting to ".png".
func (i Image) Extension() string {
	switch i.MediaType {
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	default:
		return ".png"
	}
}

func stripParams(mediaType string) string {
	mediaType = strings.TrimSpace(mediaType)
	if before, _, ok := strings.Cut(mediaType, ";"); ok {
		mediaType = strings.TrimSpace(before)
	}
	return mediaType
}
