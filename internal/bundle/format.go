package bundle

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// extByMIME maps image content types to the file extension their archive
// entry gets.
var extByMIME = map[string]string{
	"image/png":     "png",
	"image/jpeg":    "jpg",
	"image/gif":     "gif",
	"image/webp":    "webp",
	"image/svg+xml": "svg",
	"image/x-icon":  "ico",
}

var mimeByExt = map[string]string{
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"gif":  "image/gif",
	"webp": "image/webp",
	"svg":  "image/svg+xml",
	"ico":  "image/x-icon",
}

// ExtensionForMIME returns the archive file extension for an image content
// type, or "" when the type is unknown.
func ExtensionForMIME(mime string) string {
	return extByMIME[mime]
}

// MIMEForExtension returns the content type for an archive file extension,
// or "" when the extension is unknown.
func MIMEForExtension(ext string) string {
	return mimeByExt[strings.ToLower(strings.TrimPrefix(ext, "."))]
}

// FormatBytes renders a byte count with base-1024 units and one-decimal
// rounding, trailing zeros stripped: 512 -> "512 Bytes", 1536 -> "1.5 KB".
func FormatBytes(n int64) string {
	if n <= 0 {
		return "0 Bytes"
	}
	units := []string{"Bytes", "KB", "MB", "GB"}
	v := float64(n)
	i := 0
	for v >= 1024 && i < len(units)-1 {
		v /= 1024
		i++
	}
	rounded := math.Round(v*10) / 10
	return strconv.FormatFloat(rounded, 'f', -1, 64) + " " + units[i]
}

// Timestamp renders t as an ISO-8601 UTC timestamp with colons replaced and
// milliseconds stripped, safe for filenames on every filesystem.
func Timestamp(t time.Time) string {
	return strings.ReplaceAll(t.UTC().Format("2006-01-02T15:04:05Z"), ":", "-")
}

// ExportFilename builds the download filename for an exported archive.
func ExportFilename(typ ExportType, t time.Time) string {
	return fmt.Sprintf("tabdeck-%s-%s.zip", typ, Timestamp(t))
}
