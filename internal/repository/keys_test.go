package repository

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/travel-reservation/internal/model"
)

func TestLockKeys(t *testing.T) {
	night := time.Date(2030, 3, 10, 18, 0, 0, 0, time.UTC)
	assert.Equal(t, "room:1:101:2030-03-10", RoomLockKey(1, "101", night))
	assert.Equal(t, "seat:train:7:EC:2030-03-10", SeatLockKey(model.ResourceTrain, 7, "EC", night))
	assert.Equal(t, "booking:abc", BookingLockKey("abc"))
}

func TestSortedKeys(t *testing.T) {
	got := SortedKeys([]string{"room:1:101:2030-03-11", "room:1:101:2030-03-10", "room:1:101:2030-03-11"})
	assert.Equal(t, []string{"room:1:101:2030-03-10", "room:1:101:2030-03-11"}, got)
	assert.Empty(t, SortedKeys(nil))
}

func TestMapMySQLError(t *testing.T) {
	wrap := func(n uint16) error { return fmt.Errorf("exec: %w", &mysql.MySQLError{Number: n, Message: "x"}) }

	assert.ErrorIs(t, mapMySQLError(wrap(errLockWaitTimeout)), ErrLockTimeout)
	assert.ErrorIs(t, mapMySQLError(wrap(errDeadlock)), ErrLockTimeout)
	assert.ErrorIs(t, mapMySQLError(wrap(errDuplicateEntry)), ErrConflict)

	var me *mysql.MySQLError
	assert.True(t, errors.As(mapMySQLError(wrap(errDeadlock)), &me), "driver error stays in the chain")

	other := errors.New("boom")
	assert.Equal(t, other, mapMySQLError(other))
	assert.NoError(t, mapMySQLError(nil))
}

func TestParseWeekdays(t *testing.T) {
	days, err := parseWeekdays("1, 5")
	assert.NoError(t, err)
	assert.Equal(t, []time.Weekday{time.Monday, time.Friday}, days)
	assert.Equal(t, "1,5", FormatWeekdays(days))

	days, err = parseWeekdays("")
	assert.NoError(t, err)
	assert.Empty(t, days)

	_, err = parseWeekdays("8")
	assert.Error(t, err)
}
