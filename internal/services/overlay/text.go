package overlay

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

// DrawText draws text with the default scale and thickness.
func DrawText(mat *gocv.Mat, text string, x, y int, textColor color.RGBA) {
	DrawTextEnhanced(mat, text, x, y, textColor, 0.7, 2)
}

// DrawTextEnhanced draws text over a dark background box with a subtle
// border and shadow for readability on busy frames.
func DrawTextEnhanced(mat *gocv.Mat, text string, x, y int, textColor color.RGBA, fontScale float64, thickness int) {
	fontFace := gocv.FontHersheySimplex
	textSize := gocv.GetTextSize(text, fontFace, fontScale, thickness)

	padding := 8
	bgColor := color.RGBA{R: 0, G: 0, B: 0, A: 200}

	bgRect := image.Rect(x-padding, y-textSize.Y-padding, x+textSize.X+padding, y+padding)
	gocv.Rectangle(mat, bgRect, bgColor, -1)

	borderColor := color.RGBA{R: 40, G: 40, B: 40, A: 255}
	gocv.Rectangle(mat, bgRect, borderColor, 1)

	shadowColor := color.RGBA{R: 0, G: 0, B: 0, A: 100}
	gocv.PutText(mat, text, image.Pt(x+1, y+1), fontFace, fontScale, shadowColor, thickness)
	gocv.PutText(mat, text, image.Pt(x, y), fontFace, fontScale, textColor, thickness)
}

// DrawCompactCounter draws a one-line counter: "TITLE | Curr: X | T: Y".
// Returns the drawn width for horizontal positioning.
func DrawCompactCounter(mat *gocv.Mat, title string, currentValue, totalValue int64, x, y int, titleColor, currentColor, totalColor color.RGBA) int {
	fontFace := gocv.FontHersheySimplex
	fontScale := 0.65
	thickness := 2
	padding := 10
	spacing := 10

	titleSize := gocv.GetTextSize(title, fontFace, fontScale, thickness)
	currentText := fmt.Sprintf("Curr: %d", currentValue)
	currentSize := gocv.GetTextSize(currentText, fontFace, fontScale, thickness)
	totalText := fmt.Sprintf("T: %d", totalValue)
	totalSize := gocv.GetTextSize(totalText, fontFace, fontScale, thickness)
	separator := "|"
	sepSize := gocv.GetTextSize(separator, fontFace, fontScale, thickness)

	totalWidth := titleSize.X + (sepSize.X * 2) + currentSize.X + totalSize.X + (spacing * 4) + (padding * 2)
	textHeight := titleSize.Y

	bgRect := image.Rect(x, y-textHeight-padding, x+totalWidth, y+padding)
	bgColor := color.RGBA{R: 0, G: 0, B: 0, A: 240}
	gocv.Rectangle(mat, bgRect, bgColor, -1)

	innerBorderColor := color.RGBA{R: 40, G: 40, B: 40, A: 255}
	gocv.Rectangle(mat, bgRect, innerBorderColor, 1)
	borderColor := color.RGBA{R: 80, G: 80, B: 80, A: 255}
	gocv.Rectangle(mat, image.Rect(x-1, y-textHeight-padding-1, x+totalWidth+1, y+padding+1), borderColor, 1)

	sepColor := color.RGBA{R: 120, G: 120, B: 120, A: 255}
	shadowColor := color.RGBA{R: 0, G: 0, B: 0, A: 150}

	textX := x + padding
	textY := y

	gocv.PutText(mat, title, image.Pt(textX+1, textY+1), fontFace, fontScale, shadowColor, thickness)
	gocv.PutText(mat, title, image.Pt(textX, textY), fontFace, fontScale, titleColor, thickness)
	textX += titleSize.X + spacing

	gocv.PutText(mat, separator, image.Pt(textX, textY), fontFace, fontScale, sepColor, thickness)
	textX += sepSize.X + spacing

	gocv.PutText(mat, currentText, image.Pt(textX+1, textY+1), fontFace, fontScale, shadowColor, thickness)
	gocv.PutText(mat, currentText, image.Pt(textX, textY), fontFace, fontScale, currentColor, thickness)
	textX += currentSize.X + spacing

	gocv.PutText(mat, separator, image.Pt(textX, textY), fontFace, fontScale, sepColor, thickness)
	textX += sepSize.X + spacing

	gocv.PutText(mat, totalText, image.Pt(textX+1, textY+1), fontFace, fontScale, shadowColor, thickness)
	gocv.PutText(mat, totalText, image.Pt(textX, textY), fontFace, fontScale, totalColor, thickness)

	return totalWidth
}
