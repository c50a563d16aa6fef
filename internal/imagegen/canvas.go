package imagegen

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"strings"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

const (
	thumbnailWidth  = 1024
	thumbnailHeight = 576
	maxLineWidth    = 800
	maxPromptLines  = 2
)

// Renderer draws a thumbnail locally and returns it as a data: URL.
type Renderer interface {
	Render(prompt, style string) (string, error)
}

var canvasGradients = map[string][2]color.RGBA{
	StylePhotorealistic: {{0x1e, 0x40, 0xaf, 0xff}, {0x3b, 0x82, 0xf6, 0xff}},
	StyleCartoon:        {{0xf5, 0x9e, 0x0b, 0xff}, {0xfb, 0xbf, 0x24, 0xff}},
	StyleCinematic:      {{0x7c, 0x3a, 0xed, 0xff}, {0xa8, 0x55, 0xf7, 0xff}},
	StyleDigitalArt:     {{0xdc, 0x26, 0x26, 0xff}, {0xef, 0x44, 0x44, 0xff}},
}

// CanvasRenderer is the last stage of the chain. It has no external
// dependencies and only fails if JPEG encoding fails.
type CanvasRenderer struct {
	// font.Face implementations are not safe for concurrent use.
	mu        sync.Mutex
	titleFace font.Face
	labelFace font.Face
}

func NewCanvasRenderer() (*CanvasRenderer, error) {
	parsed, err := opentype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	title, err := opentype.NewFace(parsed, &opentype.FaceOptions{Size: 48, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		return nil, fmt.Errorf("title face: %w", err)
	}
	label, err := opentype.NewFace(parsed, &opentype.FaceOptions{Size: 24, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		return nil, fmt.Errorf("label face: %w", err)
	}
	return &CanvasRenderer{titleFace: title, labelFace: label}, nil
}

func (r *CanvasRenderer) Render(prompt, style string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	colors, ok := canvasGradients[strings.ToLower(style)]
	if !ok {
		colors = canvasGradients[StylePhotorealistic]
	}

	img := image.NewRGBA(image.Rect(0, 0, thumbnailWidth, thumbnailHeight))
	fillDiagonalGradient(img, colors[0], colors[1])

	accent := image.NewUniform(color.NRGBA{R: 255, G: 255, B: 255, A: 26})
	for _, c := range []circle{{center: image.Pt(200, 150), r: 100}, {center: image.Pt(800, 400), r: 80}} {
		draw.DrawMask(img, c.Bounds(), accent, image.Point{}, c, c.Bounds().Min, draw.Over)
	}

	band := image.Rect(50, 400, 974, 520)
	draw.Draw(img, band, image.NewUniform(color.NRGBA{A: 179}), image.Point{}, draw.Over)

	for i, line := range wrapWords(prompt, r.titleFace, maxLineWidth, maxPromptLines) {
		drawCentered(img, r.titleFace, image.White, line, 440+i*60)
	}
	drawCentered(img, r.labelFace, image.NewUniform(colors[0]), strings.ToUpper(style)+" STYLE", 520)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		return "", fmt.Errorf("encode jpeg: %w", err)
	}
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// fillDiagonalGradient blends from top-left to bottom-right.
func fillDiagonalGradient(img *image.RGBA, from, to color.RGBA) {
	b := img.Bounds()
	w, h := float64(b.Dx()), float64(b.Dy())
	denom := w*w + h*h
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			t := (float64(x)*w + float64(y)*h) / denom
			img.SetRGBA(x, y, color.RGBA{
				R: lerp(from.R, to.R, t),
				G: lerp(from.G, to.G, t),
				B: lerp(from.B, to.B, t),
				A: 0xff,
			})
		}
	}
}

func lerp(a, b uint8, t float64) uint8 {
	return uint8(float64(a) + (float64(b)-float64(a))*t + 0.5)
}

// wrapWords breaks text on spaces so each line fits maxWidth, keeping at most
// maxLines lines. A single word wider than maxWidth gets its own line.
func wrapWords(text string, face font.Face, maxWidth, maxLines int) []string {
	limit := fixed.I(maxWidth)
	var lines []string
	current := ""
	for _, word := range strings.Split(text, " ") {
		candidate := current + word + " "
		if font.MeasureString(face, candidate) > limit && current != "" {
			lines = append(lines, strings.TrimSpace(current))
			current = word + " "
			continue
		}
		current = candidate
	}
	lines = append(lines, strings.TrimSpace(current))
	if len(lines) > maxLines {
		lines = lines[:maxLines]
	}
	return lines
}

func drawCentered(dst draw.Image, face font.Face, src image.Image, text string, baseline int) {
	d := &font.Drawer{Dst: dst, Src: src, Face: face}
	width := d.MeasureString(text)
	d.Dot = fixed.Point26_6{
		X: fixed.I(thumbnailWidth/2) - width/2,
		Y: fixed.I(baseline),
	}
	d.DrawString(text)
}

type circle struct {
	center image.Point
	r      int
}

func (c circle) ColorModel() color.Model { return color.AlphaModel }

func (c circle) Bounds() image.Rectangle {
	return image.Rect(c.center.X-c.r, c.center.Y-c.r, c.center.X+c.r, c.center.Y+c.r)
}

func (c circle) At(x, y int) color.Color {
	dx, dy := x-c.center.X, y-c.center.Y
	if dx*dx+dy*dy <= c.r*c.r {
		return color.Alpha{A: 255}
	}
	return color.Alpha{}
}
