package teetime

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"teetimes-backend/internal/extract"
)

const (
	DefaultPlayers = 4
	DefaultHoles   = 18
)

// TeeTime is the canonical, source-agnostic record handed to the store and
// everything downstream of it.
type TeeTime struct {
	CourseID   string `json:"courseId"`
	Date       string `json:"date"`
	Time       string `json:"time"`
	Players    int    `json:"players"`
	Holes      int    `json:"holes"`
	Price      *int   `json:"price"`
	HasCart    bool   `json:"hasCart"`
	BookingURL string `json:"bookingUrl"`
	Source     string `json:"source"`
}

// LocalDatetime is the date and time joined as written, with no zone
// conversion: "2024-08-30T07:30".
func (t TeeTime) LocalDatetime() string {
	return t.Date + "T" + t.Time
}

// In resolves the record to an instant in loc.
func (t TeeTime) In(loc *time.Location) (time.Time, error) {
	return time.ParseInLocation("2006-01-02T15:04", t.LocalDatetime(), loc)
}

func (t TeeTime) Key() Key {
	return Key{CourseID: t.CourseID, Date: t.Date, Source: t.Source}
}

// Key identifies one refresh unit, every write to the store is scoped to
// exactly one key.
type Key struct {
	CourseID string
	Date     string
	Source   string
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%s/%s", k.Source, k.CourseID, k.Date)
}

// NormalizationError means a raw time token could not be read as a
// 12-hour clock time.
type NormalizationError struct {
	Token string
}

func (e *NormalizationError) Error() string {
	return fmt.Sprintf("unparseable time token %q", e.Token)
}

var twelveHour = regexp.MustCompile(`(?i)^\s*(1[0-2]|0?[1-9]):([0-5]\d)\s*([ap])\.?\s?m\.?\s*$`)

// To24Hour converts "7:30 PM" style tokens into zero padded "19:30".
func To24Hour(token string) (string, bool) {
	match := twelveHour.FindStringSubmatch(token)
	if match == nil {
		return "", false
	}
	hour, _ := strconv.Atoi(match[1])
	pm := strings.EqualFold(match[3], "p")
	switch {
	case hour == 12 && !pm:
		hour = 0
	case hour != 12 && pm:
		hour += 12
	}
	return fmt.Sprintf("%02d:%s", hour, match[2]), true
}

// To12Hour is the inverse of To24Hour, producing "h:mm AM".
func To12Hour(hhmm string) (string, bool) {
	parsed, err := time.Parse("15:04", hhmm)
	if err != nil {
		return "", false
	}
	return parsed.Format("3:04 PM"), true
}

// Normalize turns one extracted row into a canonical record for key.
func Normalize(key Key, row extract.Row, bookingURL string) (TeeTime, error) {
	hhmm, ok := To24Hour(row.Time)
	if !ok {
		return TeeTime{}, &NormalizationError{Token: row.Time}
	}

	players := row.Players
	switch {
	case players <= 0:
		players = DefaultPlayers
	case players > 4:
		players = 4
	}
	holes := row.Holes
	if holes != 9 && holes != 18 {
		holes = DefaultHoles
	}

	return TeeTime{
		CourseID:   key.CourseID,
		Date:       key.Date,
		Time:       hhmm,
		Players:    players,
		Holes:      holes,
		Price:      row.Price,
		HasCart:    row.Cart,
		BookingURL: bookingURL,
		Source:     key.Source,
	}, nil
}
