package hours

import "fmt"

// clockLabel renders an HHMM value as a 12-hour label, dropping ":00" minutes
// so 0900 reads "9 AM" and 0930 reads "9:30 AM".
func clockLabel(hhmm int) string {
	h := hhmm / 100
	m := hhmm % 100

	suffix := "AM"
	switch {
	case h == 0:
		h = 12
	case h == 12:
		suffix = "PM"
	case h > 12:
		h -= 12
		suffix = "PM"
	}
	if m == 0 {
		return fmt.Sprintf("%d %s", h, suffix)
	}
	return fmt.Sprintf("%d:%02d %s", h, m, suffix)
}

// OpensInLabel turns a minutes-until-open count into a countdown label.
func OpensInLabel(minutes int) string {
	if minutes <= 0 {
		return "soon"
	}
	if minutes < 60 {
		return fmt.Sprintf("in %d min", minutes)
	}
	h := minutes / 60
	m := minutes % 60
	unit := "hrs"
	if h == 1 {
		unit = "hr"
	}
	if m == 0 {
		return fmt.Sprintf("in %d %s", h, unit)
	}
	return fmt.Sprintf("in %d %s %d min", h, unit, m)
}
