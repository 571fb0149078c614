package x11

import (
	"strconv"
	"strings"

	"github.com/BurntSushi/xgbutil/xprop"
)

const baseDPI = 96.0

// readScale derives the scale from the Xft.dpi resource, defaulting to 1.
func (b *Backend) readScale() float64 {
	reply, err := xprop.GetProperty(b.xu, b.root, "RESOURCE_MANAGER")
	if err != nil || reply == nil {
		return 1
	}
	dpi, ok := parseXftDPI(string(reply.Value))
	if !ok {
		return 1
	}
	return scaleFromDPI(dpi)
}

// parseXftDPI finds "Xft.dpi: <n>" in a resource database string.
func parseXftDPI(db string) (float64, bool) {
	for _, line := range strings.Split(db, "\n") {
		name, value, ok := strings.Cut(line, ":")
		if !ok || strings.TrimSpace(name) != "Xft.dpi" {
			continue
		}
		dpi, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil || dpi <= 0 {
			return 0, false
		}
		return dpi, true
	}
	return 0, false
}

func scaleFromDPI(dpi float64) float64 {
	s := dpi / baseDPI
	if s < 1 {
		return 1
	}
	return s
}
