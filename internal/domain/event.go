package domain

import "time"

// ZoneResult is the answer to "which zone is the mower in".
type ZoneResult struct {
	Name string `json:"zoneName"`
	ID   string `json:"zoneId"`
}

// Reserved results. ZoneHome wins whenever a docked mower has a home
// position configured; ZoneUnknown is the fallback when no polygon
// contains the fix.
var (
	ZoneHome    = ZoneResult{Name: "Home", ID: "home"}
	ZoneUnknown = ZoneResult{Name: "Unknown", ID: "unknown"}
)

// FrameInfo is the side-band metadata of the last rendered map frame.
type FrameInfo struct {
	LastUpdate      time.Time `json:"lastUpdate"`
	IntervalSeconds int       `json:"updateFrequencySeconds"`
	AverageSeconds  float64   `json:"averageUpdateFrequencySeconds"`
	SizeBytes       int       `json:"sizeBytes"`
}

// MowerState is the externally served summary of one mower.
type MowerState struct {
	MowerID        string     `json:"mowerId"`
	Name           string     `json:"name"`
	Model          string     `json:"model,omitempty"`
	Connected      bool       `json:"connected"`
	Activity       Activity   `json:"activity"`
	State          State      `json:"state"`
	Mode           Mode       `json:"mode"`
	BatteryPercent int        `json:"batteryPercent"`
	Problem        string     `json:"problem,omitempty"`
	CuttingHeight  int        `json:"cuttingHeight,omitempty"`
	AtHome         bool       `json:"atHome"`
	Position       *GeoPoint  `json:"position,omitempty"`
	Zone           ZoneResult `json:"zone"`
	NextStart      time.Time  `json:"nextStart"`
	Frame          *FrameInfo `json:"frame,omitempty"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// EventKind tags a change fanned out to websocket subscribers.
type EventKind string

const (
	EventState  EventKind = "state"
	EventZone   EventKind = "zone"
	EventFrame  EventKind = "frame"
	EventRemove EventKind = "remove"
)

// Event is one change notification. Exactly one of State, Zone or Frame
// is set, matching Kind; EventRemove carries only the mower id.
type Event struct {
	Kind    EventKind   `json:"kind"`
	MowerID string      `json:"mowerId"`
	State   *MowerState `json:"state,omitempty"`
	Zone    *ZoneResult `json:"zone,omitempty"`
	Frame   *FrameInfo  `json:"frame,omitempty"`
}
