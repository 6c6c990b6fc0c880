package services

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"regexp"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"
	"golang.org/x/image/draw"

	"hugo-drive-sync/pkg/config"
)

const (
	sourceMimeType = "image/png"
	targetMimeType = "image/jpeg"
)

var (
	// ![alt](data:image/png;base64,...)
	inlineImagePattern = regexp.MustCompile(`(!\[[^\]\n]*\]\()data:image/png;base64,([^)\s]+)(\))`)
	// [image1]: <data:image/png;base64,...>
	referenceImagePattern = regexp.MustCompile(`(?m)^(\[image[0-9]+\]:\s*<)data:image/png;base64,([^>\s]+)(>)`)
)

var errNotPNG = errors.New("embedded data is not a PNG image")

// TranscodeStats counts what happened to the embedded images of one document.
type TranscodeStats struct {
	Converted int
	Resized   int
	Failed    int
}

// ImageTranscoder re-encodes base64 PNG images embedded in Markdown as JPEG,
// downscaling anything wider than MaxWidth.
type ImageTranscoder struct {
	MaxWidth int
	Quality  int
	logger   zerolog.Logger
}

func NewImageTranscoder(cfg config.Config, logger zerolog.Logger) *ImageTranscoder {
	return &ImageTranscoder{
		MaxWidth: cfg.ImageMaxWidth,
		Quality:  cfg.ImageQuality,
		logger:   logger.With().Str("component", "ImageTranscoder").Logger(),
	}
}

// Transcode rewrites every inline and reference-style PNG data URI. An image
// that cannot be converted is left as it was.
func (t *ImageTranscoder) Transcode(markdown string) (string, TranscodeStats) {
	var stats TranscodeStats
	out := t.replaceEmbeds(referenceImagePattern, markdown, &stats)
	out = t.replaceEmbeds(inlineImagePattern, out, &stats)
	return out, stats
}

func (t *ImageTranscoder) replaceEmbeds(pattern *regexp.Regexp, text string, stats *TranscodeStats) string {
	matches := pattern.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return text
	}

	var b strings.Builder
	b.Grow(len(text))
	last := 0
	for _, m := range matches {
		prefix := text[m[2]:m[3]]
		payload := text[m[4]:m[5]]
		suffix := text[m[6]:m[7]]

		encoded, resized, err := t.convert(payload)
		if err != nil {
			stats.Failed++
			t.logger.Warn().Err(err).Msg("Failed to convert embedded image, keeping original")
			continue
		}
		stats.Converted++
		if resized {
			stats.Resized++
		}

		b.WriteString(text[last:m[0]])
		b.WriteString(prefix)
		b.WriteString("data:" + targetMimeType + ";base64,")
		b.WriteString(encoded)
		b.WriteString(suffix)
		last = m[1]
	}
	b.WriteString(text[last:])
	return b.String()
}

func (t *ImageTranscoder) convert(payload string) (string, bool, error) {
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", false, fmt.Errorf("decode base64: %w", err)
	}
	if !mimetype.Detect(raw).Is(sourceMimeType) {
		return "", false, errNotPNG
	}

	img, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		return "", false, fmt.Errorf("decode png: %w", err)
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width == 0 || height == 0 {
		return "", false, fmt.Errorf("empty image %dx%d", width, height)
	}

	newWidth, newHeight := width, height
	resized := false
	if t.MaxWidth > 0 && width > t.MaxWidth {
		newWidth = t.MaxWidth
		newHeight = (height*t.MaxWidth + width/2) / width
		if newHeight < 1 {
			newHeight = 1
		}
		resized = true
	}

	// JPEG has no alpha channel; flatten onto white first.
	dst := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	if resized {
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	} else {
		draw.Draw(dst, dst.Bounds(), img, bounds.Min, draw.Over)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: t.Quality}); err != nil {
		return "", false, fmt.Errorf("encode jpeg: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), resized, nil
}
