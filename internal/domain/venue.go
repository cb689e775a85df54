package domain

import (
	"fmt"
	"strings"
)

// Venue identifies the exchange a route step is executed against.
type Venue uint8

const (
	VenueOrca Venue = iota
	VenueRaydium
	VenueMeteora
	VenuePhoenix
	VenueLifinity
	VenueJupiter
)

// AllVenues lists every venue in wire tag order.
var AllVenues = []Venue{
	VenueOrca,
	VenueRaydium,
	VenueMeteora,
	VenuePhoenix,
	VenueLifinity,
	VenueJupiter,
}

func (v Venue) String() string {
	switch v {
	case VenueOrca:
		return "Orca"
	case VenueRaydium:
		return "Raydium"
	case VenueMeteora:
		return "Meteora"
	case VenuePhoenix:
		return "Phoenix"
	case VenueLifinity:
		return "Lifinity"
	case VenueJupiter:
		return "Jupiter"
	default:
		return "UNKNOWN"
	}
}

func (v Venue) IsValid() bool {
	return v <= VenueJupiter
}

// ParseVenue accepts venue names case-insensitively.
func ParseVenue(s string) (Venue, error) {
	for _, v := range AllVenues {
		if strings.EqualFold(v.String(), strings.TrimSpace(s)) {
			return v, nil
		}
	}
	return 0, fmt.Errorf("unknown venue %q", s)
}

func (v Venue) MarshalText() ([]byte, error) {
	if !v.IsValid() {
		return nil, fmt.Errorf("unknown venue tag %d", uint8(v))
	}
	return []byte(strings.ToLower(v.String())), nil
}

func (v *Venue) UnmarshalText(text []byte) error {
	parsed, err := ParseVenue(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
