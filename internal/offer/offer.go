// Package offer decides whether a club's sign-up offer may be shown.
package offer

import (
	"time"

	"cellardoor/internal/domain"
	applog "cellardoor/internal/log"
)

// Accepted expiry layouts, tried in order.
var expiryLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// IsValid reports whether the offer can be rendered at the given time.
// A missing offer or one without id/title is invalid. An unparsable
// expiry is treated as already expired; a broken offer is never shown.
func IsValid(o *domain.SignUpOffer, now time.Time) bool {
	if o == nil || o.ID == "" || o.Title == "" {
		return false
	}
	if o.ExpiryDate == "" {
		return true
	}
	expiry, err := parseExpiry(o.ExpiryDate)
	if err != nil {
		applog.Diag("offer.expiry.unparsable", map[string]any{"offer_id": o.ID, "expiry": o.ExpiryDate})
		return false
	}
	return expiry.After(now)
}

func parseExpiry(s string) (time.Time, error) {
	var lastErr error
	for _, layout := range expiryLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
