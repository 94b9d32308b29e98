package checkout

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/fadl200/suaqiraq-sub000/internal/modules/shared/apperrors"
)

const iraqCountryCode = "964"

// Channel opens an outbound conversation with a seller. It is fire-and-forget:
// the returned link is the handoff, delivery is never confirmed.
type Channel interface {
	Open(ctx context.Context, phone, text string) (string, error)
}

// WhatsAppChannel builds click-to-chat links. Links are collected so the HTTP
// layer can return them to the client, which performs the actual handoff.
type WhatsAppChannel struct {
	mu    sync.Mutex
	base  string
	links []string
}

func NewWhatsAppChannel(base string) *WhatsAppChannel {
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return &WhatsAppChannel{base: base}
}

// Open returns https://wa.me/<digits>?text=<message>.
func (w *WhatsAppChannel) Open(_ context.Context, phone, text string) (string, error) {
	digits := NormalizePhone(phone)
	if digits == "" {
		return "", fmt.Errorf("%w: seller has no usable phone number", apperrors.ErrValidation)
	}

	link := w.base + digits + "?text=" + strings.ReplaceAll(url.QueryEscape(text), "+", "%20")

	w.mu.Lock()
	w.links = append(w.links, link)
	w.mu.Unlock()
	return link, nil
}

// Links returns the links opened so far.
func (w *WhatsAppChannel) Links() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.links...)
}

// NormalizePhone keeps digits only and rewrites local Iraqi numbers
// (07xx..., 00964...) to the international 9647xx... form.
func NormalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()

	switch {
	case strings.HasPrefix(digits, "00"):
		digits = digits[2:]
	case strings.HasPrefix(digits, "0"):
		digits = iraqCountryCode + digits[1:]
	case strings.HasPrefix(digits, "7") && len(digits) == 10:
		digits = iraqCountryCode + digits
	}
	return digits
}
