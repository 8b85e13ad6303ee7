// Package automower decodes Husqvarna Automower Connect attribute
// payloads into the domain model.
package automower

// Attributes mirrors the vendor attribute tree for one mower. Sections
// are pointers so an omitted section is distinguishable from an empty
// one; absent sections fall back to defaults during mapping.
type Attributes struct {
	System     *System     `json:"system,omitempty"`
	Battery    *Battery    `json:"battery,omitempty"`
	Mower      *Status     `json:"mower,omitempty"`
	Calendar   *Calendar   `json:"calendar,omitempty"`
	Planner    *Planner    `json:"planner,omitempty"`
	Metadata   *Metadata   `json:"metadata,omitempty"`
	Positions  []Position  `json:"positions,omitempty"`
	Settings   *Settings   `json:"settings,omitempty"`
	Statistics *Statistics `json:"statistics,omitempty"`
}

type System struct {
	Name         string `json:"name"`
	Model        string `json:"model"`
	SerialNumber int64  `json:"serialNumber"`
}

type Battery struct {
	BatteryPercent int `json:"batteryPercent"`
}

type Status struct {
	Mode               string `json:"mode"`
	Activity           string `json:"activity"`
	State              string `json:"state"`
	ErrorCode          int    `json:"errorCode"`
	ErrorCodeTimestamp int64  `json:"errorCodeTimestamp"`
}

type Calendar struct {
	Tasks []Task `json:"tasks"`
}

type Task struct {
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

type Planner struct {
	NextStartTimestamp int64    `json:"nextStartTimestamp"`
	Override           Override `json:"override"`
	RestrictedReason   string   `json:"restrictedReason"`
}

type Override struct {
	Action string `json:"action"`
}

type Metadata struct {
	Connected       bool  `json:"connected"`
	StatusTimestamp int64 `json:"statusTimestamp"`
}

type Position struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type Settings struct {
	CuttingHeight int       `json:"cuttingHeight"`
	Headlight     Headlight `json:"headlight"`
}

type Headlight struct {
	Mode string `json:"mode"`
}

type Statistics struct {
	NumberOfChargingCycles int64 `json:"numberOfChargingCycles"`
	NumberOfCollisions     int64 `json:"numberOfCollisions"`
	TotalChargingTime      int64 `json:"totalChargingTime"`
	TotalCuttingTime       int64 `json:"totalCuttingTime"`
	TotalRunningTime       int64 `json:"totalRunningTime"`
	TotalSearchingTime     int64 `json:"totalSearchingTime"`
}
