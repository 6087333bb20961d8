package web

import (
	"bytes"
	"hash/fnv"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"path"
	"path/filepath"
	"strings"
)

const contentTypePNG = "image/png"

// handleAvatar serves /character/<characterID>.png from
// <AssetDir>/character/ when present, otherwise a generated pixel-art
// placeholder.
func (s *Server) handleAvatar(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	base := path.Base(r.URL.Path)
	if path.Ext(base) != ".png" || strings.Count(strings.TrimPrefix(r.URL.Path, "/character/"), "/") > 0 {
		http.NotFound(w, r)
		return
	}
	id := strings.TrimSuffix(base, ".png")
	if id == "" || s.Catalog == nil || !s.Catalog.HasCharacter(id) {
		http.NotFound(w, r)
		return
	}

	// id is a roster key, so the joined path cannot leave the avatar dir.
	staticPath := filepath.Join(s.assetBase(), "character", id+".png")
	if serveFile(w, r, staticPath, contentTypePNG) {
		return
	}

	img := generateAvatar(id, s.Catalog.Character(id).IsUnlocked)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", contentTypePNG)
	w.Header().Set("Cache-Control", "public, max-age=300")
	_, _ = w.Write(buf.Bytes())
}

const blockPx = 8
const avatarPx = 128
const avatarBlocks = avatarPx / blockPx

// heartMask is a 16x16 block heart; '#' is body, '+' is highlight.
var heartMask = [avatarBlocks]string{
	"................",
	"................",
	"...####..####...",
	"..##+###.#####..",
	".##++####.#####.",
	".#++###########.",
	".##############.",
	".##############.",
	"..############..",
	"...##########...",
	"....########....",
	".....######.....",
	"......####......",
	".......##.......",
	"................",
	"................",
}

type avatarPalette struct {
	bg, body, light color.RGBA
}

var avatarPalettes = []avatarPalette{
	{bg: color.RGBA{0x2b, 0x14, 0x28, 255}, body: color.RGBA{0xe0, 0x3c, 0x78, 255}, light: color.RGBA{0xff, 0xb0, 0xc8, 255}},
	{bg: color.RGBA{0x14, 0x1c, 0x30, 255}, body: color.RGBA{0x9c, 0x4c, 0xe0, 255}, light: color.RGBA{0xd8, 0xb8, 0xff, 255}},
	{bg: color.RGBA{0x30, 0x1c, 0x10, 255}, body: color.RGBA{0xe0, 0x70, 0x3c, 255}, light: color.RGBA{0xff, 0xd0, 0xa0, 255}},
	{bg: color.RGBA{0x10, 0x28, 0x24, 255}, body: color.RGBA{0xd0, 0x40, 0x60, 255}, light: color.RGBA{0xf8, 0xc0, 0xd0, 255}},
}

var lockedPalette = avatarPalette{
	bg:    color.RGBA{0x18, 0x18, 0x1c, 255},
	body:  color.RGBA{0x55, 0x55, 0x66, 255},
	light: color.RGBA{0x88, 0x88, 0x99, 255},
}

// fillBlock fills one 8x8 block at block coords (bx, by) with clr.
func fillBlock(img *image.RGBA, bx, by int, clr color.RGBA) {
	for dy := 0; dy < blockPx; dy++ {
		for dx := 0; dx < blockPx; dx++ {
			img.SetRGBA(bx*blockPx+dx, by*blockPx+dy, clr)
		}
	}
}

// generateAvatar draws a blocky heart. The palette is picked from the
// character id so each character keeps its colours; locked characters are
// grey.
func generateAvatar(id string, unlocked bool) image.Image {
	pal := lockedPalette
	if unlocked {
		h := fnv.New32a()
		_, _ = h.Write([]byte(id))
		pal = avatarPalettes[h.Sum32()%uint32(len(avatarPalettes))]
	}

	img := image.NewRGBA(image.Rect(0, 0, avatarPx, avatarPx))
	for by, row := range heartMask {
		for bx, c := range row {
			clr := pal.bg
			switch c {
			case '#':
				clr = pal.body
			case '+':
				clr = pal.light
			}
			fillBlock(img, bx, by, clr)
		}
	}
	return img
}
