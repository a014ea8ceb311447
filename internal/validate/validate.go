// Package validate holds the pure validation and sanitization helpers used
// by the storage and import layers. Nothing here touches storage or logging.
package validate

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// imageMIMEs is the set of image content types accepted inside data URIs.
var imageMIMEs = map[string]bool{
	"image/png":     true,
	"image/jpeg":    true,
	"image/gif":     true,
	"image/webp":    true,
	"image/svg+xml": true,
	"image/x-icon":  true,
}

var classToken = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_-]*$`)

// URL checks that s is an absolute http(s) URL with a host.
func URL(s string) error {
	u, err := url.Parse(s)
	if err != nil {
		return fmt.Errorf("invalid url %q: %w", s, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid url %q: scheme must be http or https", s)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid url %q: missing host", s)
	}
	return nil
}

// ImageDataURI checks that s is a well-formed base64 image data URI with a
// recognized image content type.
func ImageDataURI(s string) error {
	_, _, err := ParseImageDataURI(s)
	return err
}

// ParseImageDataURI splits a "data:image/...;base64,..." URI into its MIME
// type and decoded bytes.
func ParseImageDataURI(s string) (mime string, data []byte, err error) {
	if !strings.HasPrefix(s, "data:") {
		return "", nil, fmt.Errorf("not a data uri")
	}
	rest := s[len("data:"):]
	sep := strings.Index(rest, ",")
	if sep < 0 {
		return "", nil, fmt.Errorf("malformed data uri: missing comma")
	}
	meta, payload := rest[:sep], rest[sep+1:]
	if !strings.HasSuffix(meta, ";base64") {
		return "", nil, fmt.Errorf("malformed data uri: not base64 encoded")
	}
	mime = strings.TrimSuffix(meta, ";base64")
	if !imageMIMEs[mime] {
		return "", nil, fmt.Errorf("unsupported image type %q", mime)
	}
	data, err = base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("malformed data uri payload: %w", err)
	}
	return mime, data, nil
}

// EncodeImageDataURI is the inverse of ParseImageDataURI.
func EncodeImageDataURI(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// CSS rejects stylesheet text that could escape its styling context.
// The rules stay deliberately small: no NUL or other control bytes besides
// whitespace, no closing style tag, no javascript: URLs.
func CSS(s string) error {
	lower := strings.ToLower(s)
	if strings.Contains(lower, "</style") {
		return fmt.Errorf("css must not contain a closing style tag")
	}
	if strings.Contains(lower, "javascript:") {
		return fmt.Errorf("css must not contain javascript urls")
	}
	for _, r := range s {
		if r < 0x20 && r != '\n' && r != '\r' && r != '\t' {
			return fmt.Errorf("css contains control character %q", r)
		}
	}
	return nil
}

// SanitizeCSS strips the constructs CSS rejects instead of failing, for
// paths where a best-effort cleanup beats a hard error.
func SanitizeCSS(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < 0x20 && r != '\n' && r != '\r' && r != '\t' {
			continue
		}
		b.WriteRune(r)
	}
	out := b.String()
	out = replaceFold(out, "</style", "")
	out = replaceFold(out, "javascript:", "")
	return out
}

// replaceFold removes every case-insensitive occurrence of old from s.
func replaceFold(s, old, new string) string {
	lower := strings.ToLower(s)
	target := strings.ToLower(old)
	var b strings.Builder
	for {
		i := strings.Index(lower, target)
		if i < 0 {
			b.WriteString(s)
			return b.String()
		}
		b.WriteString(s[:i])
		b.WriteString(new)
		s = s[i+len(old):]
		lower = lower[i+len(target):]
	}
}

// BackgroundSize checks the background size enum.
func BackgroundSize(s string) error {
	switch s {
	case "cover", "contain", "auto", "custom":
		return nil
	}
	return fmt.Errorf("invalid background size %q", s)
}

// BackgroundRepeat checks the background repeat enum.
func BackgroundRepeat(s string) error {
	switch s {
	case "no-repeat", "repeat", "repeat-x", "repeat-y":
		return nil
	}
	return fmt.Errorf("invalid background repeat %q", s)
}

// BackgroundPosition checks the background position enum.
func BackgroundPosition(s string) error {
	switch s {
	case "center", "top", "bottom", "left", "right",
		"top left", "top right", "bottom left", "bottom right":
		return nil
	}
	return fmt.Errorf("invalid background position %q", s)
}

// ThemeMode checks the theme selection mode enum.
func ThemeMode(s string) error {
	switch s {
	case "preset", "custom", "browser":
		return nil
	}
	return fmt.Errorf("invalid theme mode %q", s)
}

// CustomClasses checks a space-separated CSS class list. Empty is valid.
func CustomClasses(s string) error {
	if s == "" {
		return nil
	}
	for _, tok := range strings.Fields(s) {
		if !classToken.MatchString(tok) {
			return fmt.Errorf("invalid css class %q", tok)
		}
	}
	return nil
}
