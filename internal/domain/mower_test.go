package domain

import (
	"testing"
	"time"
)

func TestIsAtHome(t *testing.T) {
	tests := []struct {
		activity Activity
		want     bool
	}{
		{ActivityParkedInCS, true},
		{ActivityCharging, true},
		{ActivityMowing, false},
		{ActivityGoingHome, false},
		{ActivityLeaving, false},
		{ActivityStoppedInGarden, false},
		{ActivityUnknown, false},
	}

	for _, tt := range tests {
		s := Snapshot{Activity: tt.activity}
		if got := s.IsAtHome(); got != tt.want {
			t.Errorf("IsAtHome() with %s = %v, want %v", tt.activity, got, tt.want)
		}
	}
}

func TestProblem(t *testing.T) {
	healthy := Snapshot{State: StateInOperation, ErrorCode: 0}
	if got := healthy.Problem(); got != "" {
		t.Errorf("healthy mower reports problem %q", got)
	}

	trapped := Snapshot{State: StateError, ErrorCode: 9}
	if got := trapped.Problem(); got != "Trapped" {
		t.Errorf("Problem() = %q, want Trapped", got)
	}

	exotic := Snapshot{State: StateFatalError, ErrorCode: 9999}
	if got := exotic.Problem(); got != "unknown error 9999" {
		t.Errorf("Problem() = %q", got)
	}
}

func TestCurrentPosition(t *testing.T) {
	var empty Snapshot
	if _, ok := empty.CurrentPosition(); ok {
		t.Error("empty snapshot claims a position")
	}

	s := Snapshot{Positions: []GeoPoint{{Lat: 52.0, Lon: 13.01}, {Lat: 52.0, Lon: 13.0}}}
	pos, ok := s.CurrentPosition()
	if !ok || pos != (GeoPoint{Lat: 52.0, Lon: 13.01}) {
		t.Errorf("CurrentPosition() = %v, %v; want first element", pos, ok)
	}
}

func TestSnapshotClone(t *testing.T) {
	s := &Snapshot{
		MowerID:   "m1",
		Positions: []GeoPoint{{Lat: 52.0, Lon: 13.0}},
		Calendar:  []CalendarTask{{Start: 420, Duration: 60, Monday: true}},
	}

	c := s.Clone()
	c.Positions[0] = GeoPoint{Lat: 1, Lon: 1}
	c.Calendar[0].Start = 0

	if s.Positions[0] != (GeoPoint{Lat: 52.0, Lon: 13.0}) {
		t.Error("clone shares the positions slice")
	}
	if s.Calendar[0].Start != 420 {
		t.Error("clone shares the calendar slice")
	}
}

func TestCalendarTaskRunsOn(t *testing.T) {
	task := CalendarTask{Start: 420, Duration: 780, Monday: true, Friday: true}

	for day, want := range map[time.Weekday]bool{
		time.Monday:  true,
		time.Tuesday: false,
		time.Friday:  true,
		time.Sunday:  false,
	} {
		if got := task.RunsOn(day); got != want {
			t.Errorf("RunsOn(%s) = %v, want %v", day, got, want)
		}
	}
}
