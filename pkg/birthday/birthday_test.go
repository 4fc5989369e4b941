package birthday_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"birthdaybot/pkg/birthday"
)

func intPtr(v int) *int { return &v }

func TestValidateDate(t *testing.T) {
	today := time.Date(2026, time.June, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		day, month  int
		year        *int
		expectedErr error
	}{
		{"valid with year", 15, 3, intPtr(1990), nil},
		{"valid without year", 15, 3, nil, nil},
		{"today itself", 15, 6, intPtr(2026), nil},
		{"dec 31 on sentinel path", 31, 12, nil, nil},
		{"jan 1 on sentinel path", 1, 1, nil, nil},
		{"feb 29 always rejected", 29, 2, intPtr(2024), birthday.ErrLeapDay},
		{"feb 29 rejected without year", 29, 2, nil, birthday.ErrLeapDay},
		{"feb 29 rejected non-leap year", 29, 2, intPtr(2023), birthday.ErrLeapDay},
		{"feb 28 fine", 28, 2, intPtr(2024), nil},
		{"day overflow", 31, 4, intPtr(2000), birthday.ErrInvalidDate},
		{"feb 30", 30, 2, intPtr(2000), birthday.ErrInvalidDate},
		{"month zero", 15, 0, intPtr(2000), birthday.ErrInvalidDate},
		{"month thirteen", 15, 13, intPtr(2000), birthday.ErrInvalidDate},
		{"day zero", 0, 5, intPtr(2000), birthday.ErrInvalidDate},
		{"tomorrow rejected", 16, 6, intPtr(2026), birthday.ErrFutureDate},
		{"next year rejected", 1, 1, intPtr(2027), birthday.ErrFutureDate},
		{"far future rejected", 15, 3, intPtr(3000), birthday.ErrFutureDate},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := birthday.ValidateDate(test.day, test.month, test.year, today)
			if test.expectedErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, test.expectedErr)
			}
		})
	}
}

func TestValidateDateLeapDayEveryYear(t *testing.T) {
	today := time.Date(2026, time.June, 15, 0, 0, 0, 0, time.UTC)

	for year := 1900; year <= 2026; year++ {
		err := birthday.ValidateDate(29, 2, intPtr(year), today)
		assert.ErrorIs(t, err, birthday.ErrLeapDay, "year %d", year)
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		day   int
		month int
		year  *int
		fails bool
	}{
		{"dotted", "15.03", 15, 3, nil, false},
		{"dotted with year", "15.03.1990", 15, 3, intPtr(1990), false},
		{"spaces", "15 3 1990", 15, 3, intPtr(1990), false},
		{"slashes", "1/12", 1, 12, nil, false},
		{"extra words", "born 15.03", 15, 3, nil, false},
		{"one number", "15", 0, 0, nil, true},
		{"no numbers", "march", 0, 0, nil, true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			day, month, year, err := birthday.ParseDate(test.text)
			if test.fails {
				assert.ErrorIs(t, err, birthday.ErrInvalidDate)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, test.day, day)
			assert.Equal(t, test.month, month)
			assert.Equal(t, test.year, year)
		})
	}
}

func TestValidateName(t *testing.T) {
	assert.NoError(t, birthday.ValidateName("Alice"))
	assert.NoError(t, birthday.ValidateName(string(make([]byte, 255))))
	assert.ErrorIs(t, birthday.ValidateName(string(make([]byte, 256))), birthday.ErrNameTooLong)
}

func TestValidateNote(t *testing.T) {
	assert.NoError(t, birthday.ValidateNote("loves cake"))
	assert.ErrorIs(t, birthday.ValidateNote(string(make([]byte, 256))), birthday.ErrNoteTooLong)
}
