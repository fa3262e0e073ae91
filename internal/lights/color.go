package lights

import (
	"math"

	"github.com/scheerer/redlight/internal/game"
)

type Color struct {
	Red   uint8
	Green uint8
	Blue  uint8
}

var (
	Red   = Color{Red: 255}
	Green = Color{Green: 255}
	Off   = Color{}
)

// SignalColor is the colour a light shows for a signal.
func SignalColor(s game.Signal) Color {
	if s == game.Go {
		return Green
	}
	return Red
}

// RgbToHsb converts to the 16-bit hue, saturation and brightness that LIFX
// bulbs take.
func RgbToHsb(r, g, b uint8) (hue, saturation, brightness uint16) {
	rf, gf, bf := float64(r)/255, float64(g)/255, float64(b)/255
	hi := math.Max(rf, math.Max(gf, bf))
	lo := math.Min(rf, math.Min(gf, bf))
	chroma := hi - lo

	// sector is the hue in sixths of a turn.
	var sector float64
	switch {
	case chroma == 0:
	case hi == rf:
		sector = math.Mod((gf-bf)/chroma+6, 6)
	case hi == gf:
		sector = (bf-rf)/chroma + 2
	default:
		sector = (rf-gf)/chroma + 4
	}

	var s float64
	if hi > 0 {
		s = chroma / hi
	}
	return scale16(sector / 6), scale16(s), scale16(hi)
}

func scale16(f float64) uint16 {
	return uint16(math.Round(f * 0xFFFF))
}
