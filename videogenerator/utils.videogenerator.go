package videogenerator

import (
	"fmt"
	"path/filepath"
)

func getFileNameWithoutExtension(filePath string) string {
	fileName := filepath.Base(filePath)
	return fileName[:len(fileName)-len(filepath.Ext(fileName))]
}

func getDarkerShade(c Color) Color {
	var d = 0.8
	return Color{c.R * d, c.G * d, c.B * d}
}

// getColor picks a highlight colour from a note velocity.
func getColor(velocity uint8) Color {
	i := int(velocity) * len(colors) / 128
	return colors[i%len(colors)]
}

func pitchName(pitch int) string {
	if pitch < 0 {
		return fmt.Sprintf("?%d", pitch)
	}
	return fmt.Sprintf("%s%d", noteNames[pitch%12], (pitch/12)-1)
}
