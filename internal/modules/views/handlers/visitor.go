package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/fadl200/suaqiraq-sub000/internal/modules/views/domain"
	"github.com/labstack/echo/v4"
)

const (
	VisitorCookie   = "mv_vid"
	SessionHeader   = "X-Session-ID"
	visitorLifetime = 400 * 24 * time.Hour
)

// cookieStore keeps the visitor id in a long-lived cookie.
type cookieStore struct {
	c echo.Context
}

func (s cookieStore) LoadVisitorID(_ context.Context) (string, error) {
	cookie, err := s.c.Cookie(VisitorCookie)
	if errors.Is(err, http.ErrNoCookie) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return cookie.Value, nil
}

func (s cookieStore) SaveVisitorID(_ context.Context, id string) error {
	s.c.SetCookie(&http.Cookie{
		Name:     VisitorCookie,
		Value:    id,
		Path:     "/",
		MaxAge:   int(visitorLifetime.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// environmentFromRequest reads the fingerprint signals the client sends as headers.
func environmentFromRequest(r *http.Request) domain.Environment {
	env := domain.Environment{
		Timezone:        r.Header.Get("X-Timezone"),
		Locale:          requestLocale(r),
		Platform:        strings.Trim(r.Header.Get("Sec-CH-UA-Platform"), `"`),
		CanvasSignature: r.Header.Get("X-Canvas-Signature"),
		UserAgent:       r.UserAgent(),
	}
	if w, h, ok := strings.Cut(r.Header.Get("X-Screen"), "x"); ok {
		env.ScreenWidth, _ = strconv.Atoi(strings.TrimSpace(w))
		env.ScreenHeight, _ = strconv.Atoi(strings.TrimSpace(h))
	}
	env.ColorDepth, _ = strconv.Atoi(r.Header.Get("X-Color-Depth"))
	env.PixelRatio, _ = strconv.ParseFloat(r.Header.Get("X-Pixel-Ratio"), 64)
	return env
}

// requestLocale returns the first Accept-Language tag, "ar" when absent.
func requestLocale(r *http.Request) string {
	tag, _, _ := strings.Cut(r.Header.Get("Accept-Language"), ",")
	tag, _, _ = strings.Cut(tag, ";")
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return "ar"
	}
	return tag
}
