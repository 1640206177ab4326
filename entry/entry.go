// Package entry holds the normalized work-location record shared by storage,
// services, and outputs, plus the identity and location rules applied at
// every boundary.
package entry

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Entry is one person's work location for one calendar day.
type Entry struct {
	ID          int64
	DisplayName string
	UserKey     string
	Date        time.Time
	Location    Location
	Client      string
	Notes       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Location is the closed set of recognized work locations.
type Location string

const (
	LocationOffice  Location = "Neal Street"
	LocationHome    Location = "WFH"
	LocationClient  Location = "Client Office"
	LocationHoliday Location = "Holiday"
	LocationAbroad  Location = "Working From Abroad"
	LocationOther   Location = "Other"
)

// legacyLocations maps names written by earlier releases onto current ones.
var legacyLocations = map[string]Location{
	"Office": LocationOffice,
	"Client": LocationClient,
	"Off":    LocationHoliday,
	"PTO":    LocationHoliday,
}

var validLocations = map[Location]bool{
	LocationOffice:  true,
	LocationHome:    true,
	LocationClient:  true,
	LocationHoliday: true,
	LocationAbroad:  true,
	LocationOther:   true,
}

// ParseLocation resolves a submitted location name, accepting legacy aliases.
func ParseLocation(raw string) (Location, error) {
	name := strings.TrimSpace(raw)
	if mapped, ok := legacyLocations[name]; ok {
		return mapped, nil
	}
	if validLocations[Location(name)] {
		return Location(name), nil
	}
	return "", fmt.Errorf("unknown location %q (valid: %s)", raw, validLocationNames())
}

// RequiresClientDetail reports whether the location needs a client/description
// qualifier to be meaningful.
func (l Location) RequiresClientDetail() bool {
	return l == LocationClient || l == LocationOther
}

// CountsAsOffice reports whether a day at this location counts toward office
// attendance (not at home, not on holiday).
func (l Location) CountsAsOffice() bool {
	return l == LocationOffice || l == LocationClient
}

// Locations returns every recognized location in display order.
func Locations() []Location {
	return []Location{
		LocationOffice,
		LocationHome,
		LocationClient,
		LocationHoliday,
		LocationAbroad,
		LocationOther,
	}
}

func validLocationNames() string {
	names := make([]string, 0, len(validLocations))
	for _, location := range Locations() {
		names = append(names, string(location))
	}
	return strings.Join(names, ", ")
}

var ErrInvalidIdentity = errors.New("display name is empty after trimming")

// NormalizeName derives the canonical user key from a submitted display name.
// The transform is exactly lowercase(trim(raw)); internal whitespace is kept
// as typed, so "jo  smith" and "jo smith" remain distinct identities.
func NormalizeName(raw string) (string, error) {
	key := strings.ToLower(strings.TrimSpace(raw))
	if key == "" {
		return "", ErrInvalidIdentity
	}
	return key, nil
}
