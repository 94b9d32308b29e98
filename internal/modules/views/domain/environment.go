package domain

import (
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Environment holds the client signals a visitor fingerprint is built from.
type Environment struct {
	ScreenWidth     int
	ScreenHeight    int
	ColorDepth      int
	PixelRatio      float64
	Timezone        string
	Locale          string
	Platform        string
	CanvasSignature string
	UserAgent       string
}

// Fingerprint hashes the environment into a short base-36 token. Equal
// environments give equal tokens; distinct devices may collide, so the value
// is only a deduplication hint.
func (e Environment) Fingerprint() string {
	parts := []string{
		strconv.Itoa(e.ScreenWidth) + "x" + strconv.Itoa(e.ScreenHeight),
		strconv.Itoa(e.ColorDepth),
		strconv.FormatFloat(e.PixelRatio, 'f', 2, 64),
		e.Timezone,
		strings.ToLower(e.Locale),
		strings.ToLower(e.Platform),
		strconv.FormatUint(xxhash.Sum64String(e.CanvasSignature), 36),
		strconv.FormatUint(xxhash.Sum64String(e.UserAgent), 36),
	}
	return strconv.FormatUint(xxhash.Sum64String(strings.Join(parts, "|")), 36)
}
