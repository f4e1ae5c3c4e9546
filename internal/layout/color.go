package layout

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/prateekraiger/buildmeCV/internal/resume"
)

// RGB parses #rgb or #rrggbb. Malformed input yields the default accent.
func RGB(hex string) (r, g, b int) {
	hex = strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if len(hex) != 6 || err != nil {
		if hex != strings.TrimPrefix(resume.DefaultAccentColor, "#") {
			return RGB(resume.DefaultAccentColor)
		}
		return 0, 0, 0
	}
	return int(v >> 16 & 0xff), int(v >> 8 & 0xff), int(v & 0xff)
}

// Tint blends the color towards white; alpha 0 is white, 1 the color itself.
func Tint(hex string, alpha float64) (r, g, b int) {
	cr, cg, cb := RGB(hex)
	mix := func(c int) int { return int(float64(c)*alpha + 255*(1-alpha) + 0.5) }
	return mix(cr), mix(cg), mix(cb)
}

// CSSTint returns Tint as a css rgb() value.
func CSSTint(hex string, alpha float64) string {
	r, g, b := Tint(hex, alpha)
	return fmt.Sprintf("rgb(%d, %d, %d)", r, g, b)
}
