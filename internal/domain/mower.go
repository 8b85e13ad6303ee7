package domain

import (
	"fmt"
	"time"
)

// Activity is what the mower is doing right now, as reported by the
// vendor cloud.
type Activity string

const (
	ActivityUnknown         Activity = "UNKNOWN"
	ActivityNotApplicable   Activity = "NOT_APPLICABLE"
	ActivityMowing          Activity = "MOWING"
	ActivityGoingHome       Activity = "GOING_HOME"
	ActivityCharging        Activity = "CHARGING"
	ActivityLeaving         Activity = "LEAVING"
	ActivityParkedInCS      Activity = "PARKED_IN_CS"
	ActivityStoppedInGarden Activity = "STOPPED_IN_GARDEN"
)

// State is the coarse operational state of the mower.
type State string

const (
	StateUnknown        State = "UNKNOWN"
	StateNotApplicable  State = "NOT_APPLICABLE"
	StatePaused         State = "PAUSED"
	StateInOperation    State = "IN_OPERATION"
	StateWaitUpdating   State = "WAIT_UPDATING"
	StateWaitPowerUp    State = "WAIT_POWER_UP"
	StateRestricted     State = "RESTRICTED"
	StateOff            State = "OFF"
	StateStopped        State = "STOPPED"
	StateError          State = "ERROR"
	StateFatalError     State = "FATAL_ERROR"
	StateErrorAtPowerUp State = "ERROR_AT_POWER_UP"
)

// Mode is the configured operating mode.
type Mode string

const (
	ModeUnknown       Mode = "UNKNOWN"
	ModeMainArea      Mode = "MAIN_AREA"
	ModeSecondaryArea Mode = "SECONDARY_AREA"
	ModeHome          Mode = "HOME"
	ModeDemo          Mode = "DEMO"
)

// HeadlightMode is the configured headlight behavior.
type HeadlightMode string

const (
	HeadlightAlwaysOn        HeadlightMode = "ALWAYS_ON"
	HeadlightAlwaysOff       HeadlightMode = "ALWAYS_OFF"
	HeadlightEveningOnly     HeadlightMode = "EVENING_ONLY"
	HeadlightEveningAndNight HeadlightMode = "EVENING_AND_NIGHT"
)

// CalendarTask is one slot of the weekly mowing calendar: start minutes
// after midnight, duration in minutes and the weekdays it runs on.
type CalendarTask struct {
	Start     int  `json:"start"`
	Duration  int  `json:"duration"`
	Monday    bool `json:"monday"`
	Tuesday   bool `json:"tuesday"`
	Wednesday bool `json:"wednesday"`
	Thursday  bool `json:"thursday"`
	Friday    bool `json:"friday"`
	Saturday  bool `json:"saturday"`
	Sunday    bool `json:"sunday"`
}

// RunsOn reports whether the task is active on the given weekday.
func (t CalendarTask) RunsOn(day time.Weekday) bool {
	switch day {
	case time.Monday:
		return t.Monday
	case time.Tuesday:
		return t.Tuesday
	case time.Wednesday:
		return t.Wednesday
	case time.Thursday:
		return t.Thursday
	case time.Friday:
		return t.Friday
	case time.Saturday:
		return t.Saturday
	case time.Sunday:
		return t.Sunday
	}
	return false
}

// Planner carries the cloud scheduler's view of the mower.
type Planner struct {
	NextStart        time.Time `json:"nextStart"`
	OverrideAction   string    `json:"overrideAction,omitempty"`
	RestrictedReason string    `json:"restrictedReason,omitempty"`
}

// Settings are the user-adjustable mower parameters.
type Settings struct {
	CuttingHeight int           `json:"cuttingHeight"`
	Headlight     HeadlightMode `json:"headlight,omitempty"`
}

// Statistics are the lifetime counters the mower accumulates.
type Statistics struct {
	ChargingCycles int64         `json:"chargingCycles"`
	Collisions     int64         `json:"collisions"`
	ChargingTime   time.Duration `json:"chargingTime"`
	CuttingTime    time.Duration `json:"cuttingTime"`
	RunningTime    time.Duration `json:"runningTime"`
	SearchingTime  time.Duration `json:"searchingTime"`
}

// Snapshot is one decoded state report for a mower. Positions are ordered
// most recent first, the order the vendor delivers them in.
type Snapshot struct {
	MowerID        string         `json:"mowerId"`
	Name           string         `json:"name"`
	Model          string         `json:"model,omitempty"`
	SerialNumber   int64          `json:"serialNumber,omitempty"`
	Connected      bool           `json:"connected"`
	StatusAt       time.Time      `json:"statusAt"`
	BatteryPercent int            `json:"batteryPercent"`
	Mode           Mode           `json:"mode"`
	Activity       Activity       `json:"activity"`
	State          State          `json:"state"`
	ErrorCode      int            `json:"errorCode,omitempty"`
	ErrorAt        time.Time      `json:"errorAt"`
	Positions      []GeoPoint     `json:"positions,omitempty"`
	Calendar       []CalendarTask `json:"calendar,omitempty"`
	Planner        Planner        `json:"planner"`
	Settings       Settings       `json:"settings"`
	Statistics     Statistics     `json:"statistics"`
	ReceivedAt     time.Time      `json:"receivedAt"`
}

// IsAtHome reports whether the mower is docked. Parked or charging in the
// station both count: a docked mower keeps emitting noisy GPS fixes and
// those must not move it out of the home zone.
func (s *Snapshot) IsAtHome() bool {
	return s.Activity == ActivityParkedInCS || s.Activity == ActivityCharging
}

// HasError reports whether the mower is in any error state.
func (s *Snapshot) HasError() bool {
	return s.State == StateError || s.State == StateFatalError || s.State == StateErrorAtPowerUp
}

// CurrentPosition returns the newest fix, positions[0].
func (s *Snapshot) CurrentPosition() (GeoPoint, bool) {
	if len(s.Positions) == 0 {
		return GeoPoint{}, false
	}
	return s.Positions[0], true
}

// Problem renders the active error as operator text, or "" when healthy.
func (s *Snapshot) Problem() string {
	if !s.HasError() {
		return ""
	}
	return ErrorText(s.ErrorCode)
}

// Clone returns a deep copy safe to hand across goroutines.
func (s *Snapshot) Clone() *Snapshot {
	c := *s
	if s.Positions != nil {
		c.Positions = make([]GeoPoint, len(s.Positions))
		copy(c.Positions, s.Positions)
	}
	if s.Calendar != nil {
		c.Calendar = make([]CalendarTask, len(s.Calendar))
		copy(c.Calendar, s.Calendar)
	}
	return &c
}

// ErrorText maps a vendor error code to its text. Unknown codes degrade
// to a generic message rather than failing.
func ErrorText(code int) string {
	if text, ok := errorTexts[code]; ok {
		return text
	}
	return fmt.Sprintf("unknown error %d", code)
}

// errorTexts covers the codes the vendor documents for robotic mowers.
var errorTexts = map[int]string{
	0:  "Unexpected error",
	1:  "Outside working area",
	2:  "No loop signal",
	3:  "Wrong loop signal",
	4:  "Loop sensor problem, front",
	5:  "Loop sensor problem, rear",
	6:  "Loop sensor problem, left",
	7:  "Loop sensor problem, right",
	8:  "Wrong PIN code",
	9:  "Trapped",
	10: "Upside down",
	11: "Low battery",
	12: "Empty battery",
	13: "No drive",
	14: "Mower lifted",
	15: "Lifted",
	16: "Stuck in charging station",
	17: "Charging station blocked",
	18: "Collision sensor problem, rear",
	19: "Collision sensor problem, front",
	20: "Wheel motor blocked, right",
	21: "Wheel motor blocked, left",
	22: "Wheel drive problem, right",
	23: "Wheel drive problem, left",
	24: "Cutting system blocked",
	25: "Cutting system blocked",
	26: "Invalid sub-device combination",
	27: "Settings restored",
	28: "Memory circuit problem",
	29: "Slope too steep",
	30: "Charging system problem",
	31: "STOP button problem",
	32: "Tilt sensor problem",
	33: "Mower tilted",
	34: "Cutting stopped - slope too steep",
	35: "Wheel motor overloaded, right",
	36: "Wheel motor overloaded, left",
	37: "Charging current too high",
	38: "Electronic problem",
	39: "Cutting motor problem",
	40: "Limited cutting height range",
	41: "Unexpected cutting height adjustment",
	42: "Limited cutting height range",
	43: "Cutting height problem, drive",
	44: "Cutting height problem, current",
	45: "Cutting height problem, direction",
	46: "Cutting height blocked",
	47: "Cutting height problem",
	48: "No response from charger",
	49: "Ultrasonic problem",
	50: "Guide 1 not found",
	51: "Guide 2 not found",
	52: "Guide 3 not found",
	54: "Weak GPS signal",
	55: "Difficult finding home",
	56: "Guide calibration accomplished",
	57: "Guide calibration failed",
	58: "Temporary battery problem",
	59: "Temporary battery problem",
	60: "Temporary battery problem",
	61: "Temporary battery problem",
	62: "Temporary battery problem",
	63: "Temporary battery problem",
	64: "Temporary battery problem",
	65: "Temporary battery problem",
	66: "Battery problem",
	67: "Battery problem",
	68: "Temporary battery problem",
	69: "Alarm! Mower switched off",
	70: "Alarm! Mower stopped",
	71: "Alarm! Mower lifted",
	72: "Alarm! Mower tilted",
	73: "Alarm! Mower in motion",
	74: "Alarm! Outside geofence",
	75: "Connection changed",
	76: "Connection NOT changed",
	77: "Com board not available",
	78: "Slipped - Mower has slipped. Situation not solved with moving pattern",
}
