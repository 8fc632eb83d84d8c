package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestReservation_Overlaps(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2026, 11, d, 0, 0, 0, 0, time.UTC) }
	r := &Reservation{StartDate: day(10), EndDate: day(13)}

	tests := []struct {
		name       string
		start, end time.Time
		want       bool
	}{
		{name: "inside", start: day(11), end: day(12), want: true},
		{name: "covers", start: day(9), end: day(14), want: true},
		{name: "overlaps start", start: day(8), end: day(11), want: true},
		{name: "overlaps end", start: day(12), end: day(15), want: true},
		{name: "ends at start", start: day(8), end: day(10), want: false},
		{name: "starts at end", start: day(13), end: day(15), want: false},
		{name: "before", start: day(1), end: day(5), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Overlaps(tt.start, tt.end))
		})
	}
}

func TestRefreshToken_Expired(t *testing.T) {
	now := time.Now()
	assert.False(t, (&RefreshToken{ExpiresAt: now.Add(time.Minute)}).Expired(now))
	assert.True(t, (&RefreshToken{ExpiresAt: now}).Expired(now))
	assert.True(t, (&RefreshToken{ExpiresAt: now.Add(-time.Minute)}).Expired(now))
}
