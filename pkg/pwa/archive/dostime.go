package archive

import "time"

var (
	dosEpoch = time.Date(1980, 1, 1, 0, 0, 0, 0, time.UTC)
	dosLast  = time.Date(2107, 12, 31, 23, 59, 58, 0, time.UTC)
)

// dosDateTime packs the wall clock fields of t into MS-DOS date and time
// words. Seconds are stored at 2 second resolution; years outside
// 1980..2107 clamp to the representable range.
func dosDateTime(t time.Time) (date, clock uint16) {
	switch {
	case t.Year() < 1980:
		t = dosEpoch
	case t.Year() > 2107:
		t = dosLast
	}
	date = uint16(t.Day() + int(t.Month())<<5 + (t.Year()-1980)<<9)
	clock = uint16(t.Second()/2 + t.Minute()<<5 + t.Hour()<<11)
	return date, clock
}
