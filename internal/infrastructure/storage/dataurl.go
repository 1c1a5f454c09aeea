// Package storage persists uploaded images submitted as data URLs.
package storage

import (
	"encoding/base64"
	"errors"
	"net/url"
	"strings"
)

var (
	ErrInvalidDataURL   = errors.New("invalid data URL")
	ErrUnsupportedImage = errors.New("unsupported image type")
)

var imageExtensions = map[string]string{
	"image/png":     ".png",
	"image/jpeg":    ".jpg",
	"image/jpg":     ".jpg",
	"image/gif":     ".gif",
	"image/webp":    ".webp",
	"image/svg+xml": ".svg",
	"image/avif":    ".avif",
}

// IsDataURL reports whether s looks like a data: URL
func IsDataURL(s string) bool {
	return len(s) > 5 && strings.EqualFold(s[:5], "data:")
}

// DecodeDataURL decodes an RFC 2397 data URL such as the ones produced by
// FileReader.readAsDataURL. It returns the payload and its media type.
func DecodeDataURL(s string) ([]byte, string, error) {
	if !IsDataURL(s) {
		return nil, "", ErrInvalidDataURL
	}
	header, payload, ok := strings.Cut(s[5:], ",")
	if !ok {
		return nil, "", ErrInvalidDataURL
	}

	params := strings.Split(header, ";")
	mediaType := strings.ToLower(strings.TrimSpace(params[0]))
	if mediaType == "" {
		mediaType = "text/plain"
	}

	isBase64 := false
	for _, p := range params[1:] {
		if strings.EqualFold(strings.TrimSpace(p), "base64") {
			isBase64 = true
		}
	}

	if isBase64 {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			// some encoders drop the padding
			data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
			if err != nil {
				return nil, "", ErrInvalidDataURL
			}
		}
		return data, mediaType, nil
	}

	decoded, err := url.PathUnescape(payload)
	if err != nil {
		return nil, "", ErrInvalidDataURL
	}
	return []byte(decoded), mediaType, nil
}

// ImageExtension returns the file extension for an image media type
func ImageExtension(mediaType string) (string, error) {
	ext, ok := imageExtensions[mediaType]
	if !ok {
		return "", ErrUnsupportedImage
	}
	return ext, nil
}
