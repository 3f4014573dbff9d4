package extract

import (
	"clipline/internal/store"
)

// CalculateCrop returns the centered source-pixel window that crops
// srcW x srcH down to the target aspect before scaling. When the source
// is wider than the target aspect, the height is kept and the window is
// centered horizontally; portrait-ish sources crop vertically around
// the middle instead.
func CalculateCrop(srcW, srcH, targetW, targetH int) store.CropRect {
	if float64(srcW)/float64(srcH) > float64(targetW)/float64(targetH) {
		cropH := srcH
		cropW := srcH * targetW / targetH
		return store.CropRect{X: (srcW - cropW) / 2, Y: 0, Width: cropW, Height: cropH}
	}

	cropW := srcW
	cropH := srcW * targetH / targetW
	if cropH > srcH {
		cropH = srcH
	}
	return store.CropRect{X: 0, Y: (srcH - cropH) / 2, Width: cropW, Height: cropH}
}
