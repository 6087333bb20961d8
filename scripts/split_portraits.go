// split_portraits cuts a 2x2 character sheet into the roster avatars served
// at /character/<id>.png. Cells are taken in roster order, left to right then
// top to bottom, and centre-cropped to squares.
//
// Usage: go run scripts/split_portraits.go [-catalog catalog.yaml] [-out public/character] <sheet.png>
package main

import (
	"flag"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"heartclick/internal/game"
)

const gridSize = 2

func main() {
	if code := run(os.Args[1:]); code != 0 {
		os.Exit(code)
	}
}

func run(args []string) int {
	fs := flag.NewFlagSet("split_portraits", flag.ContinueOnError)
	catalogPath := fs.String("catalog", "", "catalog YAML; empty uses the built-in roster")
	outDir := fs.String("out", filepath.Join("public", "character"), "output directory")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: go run scripts/split_portraits.go [flags] <sheet.png>\n")
		return 1
	}

	catalog := game.DefaultCatalog()
	if *catalogPath != "" {
		var err error
		if catalog, err = game.LoadCatalog(*catalogPath); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			return 1
		}
	}
	if len(catalog.Characters) > gridSize*gridSize {
		fmt.Fprintf(os.Stderr, "roster has %d characters, sheet holds %d\n", len(catalog.Characters), gridSize*gridSize)
		return 1
	}

	inPath := filepath.Clean(fs.Arg(0))
	if strings.Contains(inPath, "..") {
		fmt.Fprintf(os.Stderr, "path must not escape current directory\n")
		return 1
	}
	sheet, err := decode(inPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}

	if err := os.MkdirAll(*outDir, 0o750); err != nil {
		fmt.Fprintf(os.Stderr, "mkdir %s: %v\n", *outDir, err)
		return 1
	}
	for i, ch := range catalog.Characters {
		outPath := filepath.Join(*outDir, ch.ID+".png")
		if err := writePNG(outPath, crop(sheet, cell(sheet.Bounds(), i))); err != nil {
			fmt.Fprintf(os.Stderr, "write %s: %v\n", outPath, err)
			return 1
		}
		fmt.Println(outPath)
	}
	return 0
}

func decode(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

// cell returns the square centred in grid cell i of b.
func cell(b image.Rectangle, i int) image.Rectangle {
	w, h := b.Dx()/gridSize, b.Dy()/gridSize
	x0 := b.Min.X + (i%gridSize)*w
	y0 := b.Min.Y + (i/gridSize)*h
	side := min(w, h)
	x0 += (w - side) / 2
	y0 += (h - side) / 2
	return image.Rect(x0, y0, x0+side, y0+side)
}

func crop(img image.Image, r image.Rectangle) *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	for y := 0; y < r.Dy(); y++ {
		for x := 0; x < r.Dx(); x++ {
			dst.Set(x, y, img.At(r.Min.X+x, r.Min.Y+y))
		}
	}
	return dst
}

func writePNG(path string, img image.Image) (err error) {
	f, err := os.Create(path) // #nosec G304 -- path is built from roster ids
	if err != nil {
		return err
	}
	defer func() {
		if cErr := f.Close(); cErr != nil && err == nil {
			err = cErr
		}
	}()
	return png.Encode(f, img)
}
