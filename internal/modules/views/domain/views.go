// Package domain contains the view ledger records and the visitor environment
// used to derive a pseudo-anonymous visitor identifier.
package domain

import (
	"time"
)

// Visit is a single attempt to count a product view.
type Visit struct {
	ProductID string `json:"productId"`
	VisitorID string `json:"visitorId"`
	SessionID string `json:"sessionId,omitempty"`
}

// ViewRecord is one counted view. Records are kept only to answer whether a
// visitor viewed a product within the cooldown window.
type ViewRecord struct {
	ID        string    `json:"id"`
	ProductID string    `json:"productId"`
	ViewerID  string    `json:"viewerId"`
	ViewedAt  time.Time `json:"viewedAt"`
	SessionID string    `json:"sessionId,omitempty"`
}

// ViewCounter holds the running totals of one product.
// TodayViews is only meaningful for the calendar day of LastUpdated.
type ViewCounter struct {
	ProductID   string    `json:"productId"`
	TotalViews  int64     `json:"totalViews"`
	TodayViews  int64     `json:"todayViews"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// TrackResult reports whether a visit was counted and the resulting total.
type TrackResult struct {
	Recorded  bool  `json:"recorded"`
	ViewCount int64 `json:"viewCount"`
}

// DailyViews is the number of counted views of a product on one calendar day.
type DailyViews struct {
	Day       string `json:"day"`
	ProductID string `json:"productId"`
	Views     int64  `json:"views"`
}

// TopProduct is a product ranked by archived views.
type TopProduct struct {
	ProductID  string `json:"productId"`
	TotalViews int64  `json:"totalViews"`
}

// SameDay reports whether a and b fall on the same calendar day in b's location.
func SameDay(a, b time.Time) bool {
	a = a.In(b.Location())
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// ViewStats is the display view of a product's counter.
type ViewStats struct {
	ProductID       string       `json:"productId"`
	TotalViews      int64        `json:"totalViews"`
	TodayViews      int64        `json:"todayViews"`
	Formatted       string       `json:"formatted"`
	ViewedByVisitor bool         `json:"viewedByVisitor"`
	LastUpdated     time.Time    `json:"lastUpdated"`
	History         []DailyViews `json:"history,omitempty"`
}
