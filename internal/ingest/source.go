package ingest

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// Source is something an image can be decoded from. Exactly one of Data,
// URL or Path is set.
type Source struct {
	Data []byte
	URL  string // data: or http(s): URL
	Path string
}

func FromBytes(data []byte) Source { return Source{Data: data} }
func FromURL(url string) Source { return Source{URL: url} }
func FromPath(path string) Source { return Source{Path: path} }

func (s Source) String() string {
	switch {
	case s.Path != "":
		return s.Path
	case strings.HasPrefix(s.URL, "data:"):
		return "data URL"
	case s.URL != "":
		return s.URL
	default:
		return fmt.Sprintf("%d bytes", len(s.Data))
	}
}

// IsDataURL reports whether u is an inline data URL.
func IsDataURL(u string) bool { return strings.HasPrefix(u, "data:") }

// IsRemoteURL reports whether u is fetched over http(s).
func IsRemoteURL(u string) bool {
	return strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://")
}

// ParseDataURL splits a base64 data URL into its MIME type and payload.
func ParseDataURL(u string) (string, []byte, error) {
	if !IsDataURL(u) {
		return "", nil, fmt.Errorf("not a data URL")
	}
	meta, payload, ok := strings.Cut(strings.TrimPrefix(u, "data:"), ",")
	if !ok {
		return "", nil, fmt.Errorf("malformed data URL")
	}
	mime, enc, _ := strings.Cut(meta, ";")
	if enc != "base64" {
		return "", nil, fmt.Errorf("unsupported data URL encoding %q", enc)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("decode data URL: %w", err)
	}
	return mime, data, nil
}

// DataURL encodes data as a base64 data URL.
func DataURL(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// MimeType maps an image.Decode format name to its MIME type.
func MimeType(format string) string {
	switch format {
	case "jpeg":
		return "image/jpeg"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	case "bmp":
		return "image/bmp"
	case "tiff":
		return "image/tiff"
	default:
		return "image/png"
	}
}

// IsImageFile reports whether the file name has a decodable image extension.
func IsImageFile(name string) bool {
	i := strings.LastIndex(name, ".")
	if i < 0 {
		return false
	}
	switch strings.ToLower(name[i+1:]) {
	case "png", "jpg", "jpeg", "gif", "webp", "bmp", "tif", "tiff":
		return true
	}
	return false
}
