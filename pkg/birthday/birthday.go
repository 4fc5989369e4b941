package birthday

import (
	"errors"
	"regexp"
	"strconv"
	"time"
)

const maxFieldLen = 255

// Birthday is one record as the record-store API exchanges it.
// Year and Note are nullable on the wire.
type Birthday struct {
	ID    int64   `json:"id,omitempty"`
	Name  string  `json:"name"`
	Day   int     `json:"day"`
	Month int     `json:"month"`
	Year  *int    `json:"year"`
	Note  *string `json:"note"`
}

// Incoming is a record due within the reminder horizon, annotated
// with the contact identity of its owner.
type Incoming struct {
	Birthday
	IncomingInDays int `json:"incoming_in_days"`
	Creator        struct {
		TelegramID int64 `json:"telegram_id"`
	} `json:"creator"`
}

var (
	ErrNameTooLong = errors.New("that name is too long")
	ErrNoteTooLong = errors.New("this note is too long")
	ErrLeapDay     = errors.New("29th of February is forbidden. Choose 28.02 or 1.03")
	ErrInvalidDate = errors.New("invalid date")
	ErrFutureDate  = errors.New("future dates are forbidden")
)

func ValidateName(name string) error {
	if len(name) > maxFieldLen {
		return ErrNameTooLong
	}
	return nil
}

func ValidateNote(note string) error {
	if len(note) > maxFieldLen {
		return ErrNoteTooLong
	}
	return nil
}

var digitGroups = regexp.MustCompile(`\d+`)

// ParseDate extracts day, month and an optional year from free text,
// taking digit groups in order. Formats like "15.03", "15 03 1990"
// and "15/3" all parse.
func ParseDate(text string) (day, month int, year *int, err error) {
	groups := digitGroups.FindAllString(text, -1)
	if len(groups) < 2 {
		return 0, 0, nil, ErrInvalidDate
	}

	day, err = strconv.Atoi(groups[0])
	if err != nil {
		return 0, 0, nil, ErrInvalidDate
	}
	month, err = strconv.Atoi(groups[1])
	if err != nil {
		return 0, 0, nil, ErrInvalidDate
	}
	if len(groups) > 2 {
		y, err := strconv.Atoi(groups[2])
		if err != nil {
			return 0, 0, nil, ErrInvalidDate
		}
		year = &y
	}
	return day, month, year, nil
}

// ValidateDate applies the shared date rule. February 29th has no
// canonical representation and is always rejected. A record without a
// year is checked against last year; that sentinel is never stored.
// Dates strictly after today are rejected.
func ValidateDate(day, month int, year *int, today time.Time) error {
	if month == 2 && day == 29 {
		return ErrLeapDay
	}

	checkYear := today.Year() - 1
	if year != nil {
		checkYear = *year
	}

	if month < 1 || month > 12 || day < 1 || day > 31 {
		return ErrInvalidDate
	}
	date := time.Date(checkYear, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if date.Day() != day || date.Month() != time.Month(month) || date.Year() != checkYear {
		// time.Date normalizes overflow, e.g. 31.04 becomes 01.05.
		return ErrInvalidDate
	}

	todayDate := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	if date.After(todayDate) {
		return ErrFutureDate
	}
	return nil
}
