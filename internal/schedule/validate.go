package schedule

import "github.com/Nixie-Tech-LLC/signton/internal/model"

// ValidTime reports whether s is a zero-padded 24-hour "HH:MM" value. Only
// zero-padded values compare correctly as strings.
func ValidTime(s string) bool {
	if len(s) != 5 || s[2] != ':' {
		return false
	}
	for _, i := range []int{0, 1, 3, 4} {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	hour := int(s[0]-'0')*10 + int(s[1]-'0')
	minute := int(s[3]-'0')*10 + int(s[4]-'0')
	return hour < 24 && minute < 60
}

// Overnight reports whether the window wraps past midnight. Such windows are
// stored as given but never match.
func Overnight(s model.Schedule) bool {
	return s.StartTime > s.EndTime
}

// ValidDay reports whether d is a weekday number, 0 = Sunday.
func ValidDay(d int) bool {
	return d >= 0 && d <= 6
}
