package energy

import "time"

// DefaultAge is used when a profile has no birth date
const DefaultAge = 18

// AgeOn returns age in full years on the given day.
// A birth date after today yields zero or a negative value.
func AgeOn(birth, today time.Time) int {
	years := today.Year() - birth.Year()
	if today.Month() < birth.Month() ||
		(today.Month() == birth.Month() && today.Day() < birth.Day()) {
		years--
	}
	return years
}

// Age returns age in full years as of now
func Age(birth time.Time) int {
	return AgeOn(birth, time.Now())
}

// ProfileAge returns the profile's age on today, or DefaultAge when the
// birth date is unknown
func ProfileAge(p Profile, today time.Time) int {
	if p.Birth.IsZero() {
		return DefaultAge
	}
	return AgeOn(p.Birth, today)
}
