package liveness

import (
	"slices"
	"time"

	"github.com/Nixie-Tech-LLC/signton/internal/model"
)

// DefaultStaleAfter is how long an online device may go without a heartbeat
// before dashboards show it offline.
const DefaultStaleAfter = 2 * time.Minute

// Classify returns the status to display for d. A stored online status whose
// last ping is older than staleAfter is shown offline; the record itself is
// never changed. staleAfter <= 0 disables the check.
func Classify(d model.ScreenDevice, now time.Time, staleAfter time.Duration) model.DeviceStatus {
	if d.Status != model.StatusOnline {
		return model.StatusOffline
	}
	if staleAfter <= 0 {
		return model.StatusOnline
	}
	if now.Sub(time.UnixMilli(d.LastPing)) > staleAfter {
		return model.StatusOffline
	}
	return model.StatusOnline
}

// Displayed returns copies of devices with Status replaced by Classify.
func Displayed(devices []model.ScreenDevice, now time.Time, staleAfter time.Duration) []model.ScreenDevice {
	out := make([]model.ScreenDevice, len(devices))
	for i, d := range devices {
		d.Status = Classify(d, now, staleAfter)
		out[i] = d
	}
	return out
}

// SortByStatus orders online devices first, keeping the incoming order
// within each group.
func SortByStatus(devices []model.ScreenDevice) {
	slices.SortStableFunc(devices, func(a, b model.ScreenDevice) int {
		return rank(a.Status) - rank(b.Status)
	})
}

func rank(s model.DeviceStatus) int {
	if s == model.StatusOnline {
		return 0
	}
	return 1
}

type Summary struct {
	Online int `json:"online"`
	Total  int `json:"total"`
}

func Summarize(devices []model.ScreenDevice) Summary {
	s := Summary{Total: len(devices)}
	for _, d := range devices {
		if d.Status == model.StatusOnline {
			s.Online++
		}
	}
	return s
}
