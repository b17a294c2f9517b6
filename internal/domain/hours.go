package domain

import (
	"fmt"
	"math"
	"time"
)

// parseClock parses "HH:MM" (or "HH:MM:SS") into seconds since midnight.
func parseClock(s string) (int, bool) {
	for _, layout := range []string{"15:04", "15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Hour()*3600 + t.Minute()*60 + t.Second(), true
		}
	}
	return 0, false
}

// clockLabel formats seconds since midnight as zero-padded "HH:MM".
func clockLabel(sec int) string {
	return fmt.Sprintf("%02d:%02d", sec/3600, sec%3600/60)
}

// IsOpenNow reports whether the store is open at now. It returns nil when the
// store has no usable hours. When open is later than close the store runs an
// overnight shift and is open from open until midnight and from midnight
// until close. Both ends are inclusive.
func IsOpenNow(s Store, now time.Time) *bool {
	open := true
	if s.Is24h {
		return &open
	}
	from, okFrom := parseClock(s.OpenTime)
	to, okTo := parseClock(s.CloseTime)
	if !okFrom || !okTo {
		return nil
	}
	t := now.Hour()*3600 + now.Minute()*60 + now.Second()
	if from <= to {
		open = from <= t && t <= to
	} else {
		open = t >= from || t <= to
	}
	return &open
}

// BusinessHoursLabel renders store hours for display: "24/7", "07:00-22:00",
// "Mo 07:00" (opening time only), "Dong 22:00" (closing time only), or "".
func BusinessHoursLabel(s Store) string {
	if s.Is24h {
		return "24/7"
	}
	from, okFrom := parseClock(s.OpenTime)
	to, okTo := parseClock(s.CloseTime)
	switch {
	case okFrom && okTo:
		return clockLabel(from) + "-" + clockLabel(to)
	case okFrom:
		return "Mo " + clockLabel(from)
	case okTo:
		return "Dong " + clockLabel(to)
	default:
		return ""
	}
}

// NewStoreResult derives the read-time view of a hit. The open-now flag uses
// the package clock in loc; a nil loc means UTC.
func NewStoreResult(hit StoreHit, loc *time.Location) StoreResult {
	if loc == nil {
		loc = time.UTC
	}
	res := StoreResult{
		Store:         hit.Store,
		IsOpenNow:     IsOpenNow(hit.Store, clock.Now().In(loc)),
		BusinessHours: BusinessHoursLabel(hit.Store),
	}
	if hit.DistanceKm != nil {
		d := math.Round(*hit.DistanceKm*1000) / 1000
		res.DistanceKm = &d
	}
	return res
}

// NewStoreResults maps NewStoreResult over hits.
func NewStoreResults(hits []StoreHit, loc *time.Location) []StoreResult {
	out := make([]StoreResult, len(hits))
	for i, h := range hits {
		out[i] = NewStoreResult(h, loc)
	}
	return out
}
