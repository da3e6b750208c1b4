// Package sniffer identifies the image formats accepted for item photos from
// their leading bytes.
package sniffer

import (
	"bytes"
	"errors"
	"mime"
	"net/textproto"
	"strings"
)

// HeadSize is how many leading bytes Sniff needs to see.
const HeadSize = 512

var ErrUnsupported = errors.New("unsupported image format")

type Format struct {
	Ext  string
	MIME string
}

var (
	JPEG = Format{Ext: "jpg", MIME: "image/jpeg"}
	PNG  = Format{Ext: "png", MIME: "image/png"}
	GIF  = Format{Ext: "gif", MIME: "image/gif"}
	WEBP = Format{Ext: "webp", MIME: "image/webp"}
	AVIF = Format{Ext: "avif", MIME: "image/avif"}
	SVG  = Format{Ext: "svg", MIME: "image/svg+xml"}
)

type signature struct {
	format Format
	match  func(head []byte) bool
}

// ordered: svg is last because it is the only text format
var signatures = []signature{
	{JPEG, func(h []byte) bool { return bytes.HasPrefix(h, []byte{0xff, 0xd8, 0xff}) }},
	{PNG, func(h []byte) bool { return bytes.HasPrefix(h, []byte("\x89PNG\r\n\x1a\n")) }},
	{GIF, func(h []byte) bool { return bytes.HasPrefix(h, []byte("GIF87a")) || bytes.HasPrefix(h, []byte("GIF89a")) }},
	{WEBP, func(h []byte) bool {
		return len(h) >= 12 && bytes.Equal(h[:4], []byte("RIFF")) && bytes.Equal(h[8:12], []byte("WEBP"))
	}},
	{AVIF, func(h []byte) bool {
		return len(h) >= 12 && bytes.Equal(h[4:8], []byte("ftyp")) && bytes.Contains(h[8:], []byte("avif"))
	}},
	{SVG, looksLikeSVG},
}

func Sniff(head []byte) (Format, error) {
	if len(head) > HeadSize {
		head = head[:HeadSize]
	}
	for _, sig := range signatures {
		if sig.match(head) {
			return sig.format, nil
		}
	}
	return Format{}, ErrUnsupported
}

func looksLikeSVG(head []byte) bool {
	text := strings.ToLower(strings.TrimSpace(string(bytes.TrimPrefix(head, []byte("\xef\xbb\xbf")))))
	if strings.HasPrefix(text, "<svg") {
		return true
	}
	return strings.HasPrefix(text, "<?xml") && strings.Contains(text, "<svg")
}

// DeclaredMIME returns the media type from a multipart part header without
// parameters, or "" when none was sent.
func DeclaredMIME(header textproto.MIMEHeader) string {
	raw := header.Get("Content-Type")
	if raw == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(raw)
	if err != nil {
		return strings.TrimSpace(strings.SplitN(raw, ";", 2)[0])
	}
	return mediaType
}

// Compatible reports whether a declared type is acceptable for the sniffed
// format. Browsers commonly send octet-stream for files they cannot classify.
func Compatible(declared string, f Format) bool {
	switch declared {
	case "", "application/octet-stream", f.MIME:
		return true
	case "image/jpg", "image/pjpeg":
		return f == JPEG
	}
	return false
}
