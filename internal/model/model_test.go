package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := ParseDate(s)
	require.NoError(t, err)
	return d
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(StatusPending, StatusConfirmed))
	assert.True(t, CanTransition(StatusPending, StatusCancelled))
	assert.True(t, CanTransition(StatusConfirmed, StatusCancelled))
	assert.True(t, CanTransition(StatusConfirmed, StatusCheckedIn))
	assert.True(t, CanTransition(StatusCheckedIn, StatusCheckedOut))

	assert.False(t, CanTransition(StatusCancelled, StatusCancelled))
	assert.False(t, CanTransition(StatusCancelled, StatusConfirmed))
	assert.False(t, CanTransition(StatusCheckedIn, StatusCancelled))
	assert.False(t, CanTransition(StatusCompleted, StatusCancelled))
	assert.False(t, CanTransition(Status("bogus"), StatusConfirmed))
}

func TestStatusConsumes(t *testing.T) {
	for _, s := range []Status{StatusPending, StatusConfirmed, StatusCheckedIn} {
		assert.True(t, s.Consumes(), s)
	}
	for _, s := range []Status{StatusCancelled, StatusCompleted, StatusCheckedOut, StatusNoShow} {
		assert.False(t, s.Consumes(), s)
	}
}

func TestParseResourceType(t *testing.T) {
	rt, ok := ParseResourceType(" Train ")
	require.True(t, ok)
	assert.Equal(t, ResourceTrain, rt)
	assert.True(t, rt.IsSeated())
	assert.False(t, ResourceHotel.IsSeated())

	_, ok = ParseResourceType("ferry")
	assert.False(t, ok)
}

func TestStay(t *testing.T) {
	stay := NewStay(mustDate(t, "2030-03-10"), mustDate(t, "2030-03-12").Add(15*time.Hour))
	require.True(t, stay.Valid())
	assert.Len(t, stay.Nights(), 2)

	assert.True(t, stay.Overlaps(mustDate(t, "2030-03-11"), mustDate(t, "2030-03-13")))
	assert.True(t, stay.Overlaps(mustDate(t, "2030-03-01"), mustDate(t, "2030-03-20")))
	assert.False(t, stay.Overlaps(mustDate(t, "2030-03-12"), mustDate(t, "2030-03-14")), "check-out day is free")
	assert.False(t, stay.Overlaps(mustDate(t, "2030-03-08"), mustDate(t, "2030-03-10")))

	assert.False(t, NewStay(mustDate(t, "2030-03-10"), mustDate(t, "2030-03-10")).Valid())
}

func TestAt(t *testing.T) {
	got, err := At(mustDate(t, "2030-03-10"), "08:30")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2030, 3, 10, 8, 30, 0, 0, time.UTC), got)

	_, err = At(mustDate(t, "2030-03-10"), "25:00")
	assert.Error(t, err)
	_, err = At(mustDate(t, "2030-03-10"), "noon")
	assert.Error(t, err)
}

func TestScheduleRunsOn(t *testing.T) {
	weekly := Schedule{
		ValidFrom:     mustDate(t, "2030-03-01"),
		ValidTo:       mustDate(t, "2030-03-31"),
		Frequency:     FrequencyWeekly,
		OperatingDays: []time.Weekday{time.Monday, time.Friday},
	}
	assert.True(t, weekly.RunsOn(mustDate(t, "2030-03-11")), "monday")
	assert.True(t, weekly.RunsOn(mustDate(t, "2030-03-15")), "friday")
	assert.False(t, weekly.RunsOn(mustDate(t, "2030-03-12")), "tuesday")
	assert.False(t, weekly.RunsOn(mustDate(t, "2030-04-01")), "after validity")

	daily := Schedule{ValidFrom: mustDate(t, "2030-03-01"), ValidTo: mustDate(t, "2030-03-31"), Frequency: FrequencyDaily}
	assert.True(t, daily.RunsOn(mustDate(t, "2030-03-31")), "valid_to is inclusive")
	assert.False(t, daily.RunsOn(mustDate(t, "2030-02-28")))
}

func TestRoomLookup(t *testing.T) {
	rt := RoomType{Rooms: []PhysicalRoom{
		{Number: "101", UnavailableDates: []time.Time{mustDate(t, "2030-03-11")}},
	}}
	r, ok := rt.Room("101")
	require.True(t, ok)
	assert.True(t, r.BlockedOn(mustDate(t, "2030-03-11").Add(3*time.Hour)))
	assert.False(t, r.BlockedOn(mustDate(t, "2030-03-12")))

	_, ok = rt.Room("999")
	assert.False(t, ok)
}
