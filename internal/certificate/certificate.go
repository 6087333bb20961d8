// Package certificate renders a printable affection certificate for a
// session: character, affection meter, stamina and unlocked videos.
package certificate

import (
	"bytes"
	"fmt"
	"math"
	"time"

	"heartclick/internal/game"

	"github.com/jung-kurt/gofpdf/v2"
)

const (
	pageW     = 595
	pageH     = 842
	margin    = 40
	barW      = 360.0
	barH      = 18.0
	heartSize = 14.0
	fontSize  = 11
	titleSize = 24
)

// Generate returns PDF bytes for the state of one session. issued is
// printed as the certificate date.
func Generate(cat *game.Catalog, st game.GameState, issued time.Time) ([]byte, error) {
	if cat == nil {
		return nil, fmt.Errorf("certificate: nil catalog")
	}
	character := cat.Character(st.SelectedCharacter)
	videos := cat.UpdateVideoUnlockStatus(character.ID, st.CharacterProgress)

	pdf := gofpdf.New("P", "pt", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	// Blush paper
	pdf.SetFillColor(255, 238, 242)
	pdf.Rect(0, 0, pageW, pageH, "F")
	drawWavyBorder(pdf)

	pdf.SetTextColor(150, 30, 80)
	pdf.SetFont("Helvetica", "B", titleSize)
	pdf.SetXY(margin, margin+30)
	pdf.CellFormat(pageW-2*margin, 30, "Certificate of Affection", "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "I", fontSize)
	pdf.SetX(margin)
	pdf.CellFormat(pageW-2*margin, 16, "issued "+issued.Format("2 January 2006"), "", 1, "C", false, 0, "")

	// Row of hearts under the title, filled up to the affection reached
	filled := st.CharacterProgress / 10
	for i := 0; i < 10; i++ {
		x := float64(pageW)/2 - 4.5*heartSize*1.6 + float64(i)*heartSize*1.6
		drawHeart(pdf, x, margin+110, heartSize, i < filled)
	}

	pdf.SetTextColor(60, 20, 40)
	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetXY(margin, margin+140)
	pdf.CellFormat(pageW-2*margin, 20, tr(character.DisplayName), "", 1, "C", false, 0, "")
	if character.Description != "" {
		pdf.SetFont("Helvetica", "", fontSize)
		pdf.SetX(margin)
		pdf.CellFormat(pageW-2*margin, 14, tr(character.Description), "", 1, "C", false, 0, "")
	}

	y := float64(margin + 200)
	drawMeter(pdf, "Affection", st.CharacterProgress, 100, y, [3]int{220, 60, 120})
	drawMeter(pdf, "Stamina", st.CurrentStamina, st.MaxStamina, y+50, [3]int{240, 170, 40})

	// Video list
	pdf.SetTextColor(60, 20, 40)
	pdf.SetFont("Helvetica", "B", 13)
	pdf.SetXY(margin+40, y+110)
	pdf.CellFormat(200, 16, fmt.Sprintf("Videos %d / %d", cat.UnlockedVideoCount(character.ID, st.CharacterProgress), len(videos)), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", fontSize)
	for i, v := range videos {
		status := "locked: " + v.UnlockCondition
		if v.IsUnlocked {
			status = "unlocked"
		}
		pdf.SetXY(margin+50, y+132+float64(i)*16)
		pdf.CellFormat(pageW-2*margin-90, 14, tr(fmt.Sprintf("%s (%s)", v.Name, status)), "", 0, "L", false, 0, "")
	}

	if st.IsWin {
		drawStamp(pdf, pageW-margin-110, pageH-margin-120)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("certificate: %w", err)
	}
	return buf.Bytes(), nil
}

// drawMeter draws a labelled bar filled to value/limit.
func drawMeter(pdf *gofpdf.Fpdf, label string, value, limit int, y float64, rgb [3]int) {
	x := float64(pageW-barW) / 2
	pdf.SetTextColor(60, 20, 40)
	pdf.SetFont("Helvetica", "B", fontSize)
	pdf.SetXY(x, y-16)
	pdf.CellFormat(barW, 14, fmt.Sprintf("%s %d / %d", label, value, limit), "", 0, "L", false, 0, "")

	pdf.SetDrawColor(120, 40, 80)
	pdf.SetLineWidth(1)
	pdf.SetFillColor(255, 255, 255)
	pdf.Rect(x, y, barW, barH, "FD")
	if limit > 0 && value > 0 {
		frac := math.Min(float64(value)/float64(limit), 1)
		pdf.SetFillColor(rgb[0], rgb[1], rgb[2])
		pdf.Rect(x, y, barW*frac, barH, "F")
	}
}

// drawHeart draws a heart centred at (cx, cy): two lobes and a point.
func drawHeart(pdf *gofpdf.Fpdf, cx, cy, size float64, filled bool) {
	style := "D"
	if filled {
		style = "FD"
	}
	pdf.SetDrawColor(200, 40, 100)
	pdf.SetFillColor(230, 60, 120)
	pdf.SetLineWidth(1)
	r := size / 4
	pdf.Circle(cx-r, cy-r/2, r, style)
	pdf.Circle(cx+r, cy-r/2, r, style)
	pdf.Polygon([]gofpdf.PointType{
		{X: cx - 2*r, Y: cy - r/4},
		{X: cx + 2*r, Y: cy - r/4},
		{X: cx, Y: cy + 2*r},
	}, style)
}

// drawStamp marks a won game with a tilted double ring.
func drawStamp(pdf *gofpdf.Fpdf, cx, cy float64) {
	pdf.SetDrawColor(200, 30, 60)
	pdf.SetTextColor(200, 30, 60)
	pdf.SetLineWidth(3)
	pdf.Circle(cx, cy, 60, "D")
	pdf.SetLineWidth(1)
	pdf.Circle(cx, cy, 52, "D")
	pdf.TransformBegin()
	pdf.TransformRotate(15, cx, cy)
	pdf.SetFont("Helvetica", "B", 18)
	pdf.SetXY(cx-50, cy-9)
	pdf.CellFormat(100, 18, "100%", "", 0, "C", false, 0, "")
	pdf.TransformEnd()
}

// drawWavyBorder draws a scalloped border around the page.
func drawWavyBorder(pdf *gofpdf.Fpdf) {
	pts := wavyRectPoints(margin, margin, pageW-2*margin, pageH-2*margin, 16, 4)
	pdf.SetDrawColor(200, 60, 110)
	pdf.SetLineWidth(2)
	pdf.Polygon(pts, "D")
	pdf.SetLineWidth(1)
}

// wavyRectPoints returns polygon points for a rectangle with sinusoidal wobble on each side.
func wavyRectPoints(x, y, w, h float64, steps int, amp float64) []gofpdf.PointType {
	pts := make([]gofpdf.PointType, 0, steps*4+4)
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		pts = append(pts, gofpdf.PointType{X: x + t*w, Y: y + amp*math.Sin(float64(i)*math.Pi/2)})
	}
	for i := 1; i <= steps; i++ {
		t := float64(i) / float64(steps)
		pts = append(pts, gofpdf.PointType{X: x + w + amp*math.Sin(float64(i)*math.Pi/2), Y: y + t*h})
	}
	for i := 1; i <= steps; i++ {
		t := float64(i) / float64(steps)
		pts = append(pts, gofpdf.PointType{X: x + w - t*w, Y: y + h + amp*math.Sin(float64(i)*math.Pi/2)})
	}
	for i := 1; i <= steps; i++ {
		t := float64(i) / float64(steps)
		pts = append(pts, gofpdf.PointType{X: x + amp*math.Sin(float64(i)*math.Pi/2), Y: y + h - t*h})
	}
	return pts
}
