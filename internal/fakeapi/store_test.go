package fakeapi

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"birthdaybot/pkg/birthday"
)

func TestStoreUniqueNamePerOwner(t *testing.T) {
	store, err := NewStore()
	assert.NoError(t, err)
	defer store.Close()

	_, err = store.Create("7", birthday.Birthday{Name: "Tom", Day: 1, Month: 1})
	assert.NoError(t, err)

	_, err = store.Create("7", birthday.Birthday{Name: "Tom", Day: 2, Month: 2})
	assert.ErrorIs(t, err, errDuplicateName)

	// Different owner, same name is fine.
	_, err = store.Create("8", birthday.Birthday{Name: "Tom", Day: 1, Month: 1})
	assert.NoError(t, err)
}

func TestStoreUpdateChecksNameConflict(t *testing.T) {
	store, err := NewStore()
	assert.NoError(t, err)
	defer store.Close()

	_, err = store.Create("7", birthday.Birthday{Name: "Tom", Day: 1, Month: 1})
	assert.NoError(t, err)
	id, err := store.Create("7", birthday.Birthday{Name: "Anna", Day: 2, Month: 1})
	assert.NoError(t, err)

	assert.ErrorIs(t, store.Update("7", id, birthday.Birthday{Name: "Tom", Day: 2, Month: 1}), errDuplicateName)

	// Renaming a record to its own name is not a conflict.
	assert.NoError(t, store.Update("7", id, birthday.Birthday{Name: "Anna", Day: 3, Month: 1}))

	assert.ErrorIs(t, store.Update("7", 999, birthday.Birthday{Name: "Ghost", Day: 1, Month: 1}), errNoRows)
}

func TestDaysUntil(t *testing.T) {
	today := time.Date(2026, time.June, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		day, month int
		days       int
		due        bool
	}{
		{"today", 15, 6, 0, true},
		{"tomorrow", 16, 6, 1, true},
		{"in a week", 22, 6, 7, true},
		{"in two days", 17, 6, 0, false},
		{"yesterday wraps to next year", 14, 6, 0, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			days, due := daysUntil(test.day, test.month, today)
			assert.Equal(t, test.due, due)
			if test.due {
				assert.Equal(t, test.days, days)
			}
		})
	}

	// Horizon crossing the year boundary.
	newYearsEve := time.Date(2026, time.December, 31, 0, 0, 0, 0, time.UTC)
	days, due := daysUntil(7, 1, newYearsEve)
	assert.True(t, due)
	assert.Equal(t, 7, days)
}

func TestStoreIncoming(t *testing.T) {
	store, err := NewStore()
	assert.NoError(t, err)
	defer store.Close()

	today := time.Date(2026, time.June, 15, 0, 0, 0, 0, time.UTC)

	_, err = store.Create("100", birthday.Birthday{Name: "Today", Day: 15, Month: 6})
	assert.NoError(t, err)
	_, err = store.Create("200", birthday.Birthday{Name: "NextWeek", Day: 22, Month: 6})
	assert.NoError(t, err)
	_, err = store.Create("300", birthday.Birthday{Name: "FarOff", Day: 25, Month: 12})
	assert.NoError(t, err)

	incoming, err := store.Incoming(today)
	assert.NoError(t, err)
	assert.Len(t, incoming, 2)

	assert.Equal(t, "Today", incoming[0].Name)
	assert.Equal(t, 0, incoming[0].IncomingInDays)
	assert.Equal(t, int64(100), incoming[0].Creator.TelegramID)

	assert.Equal(t, "NextWeek", incoming[1].Name)
	assert.Equal(t, 7, incoming[1].IncomingInDays)
}
