package automower

import (
	"encoding/json"
	"fmt"
	"time"

	"mowmap/internal/domain"
)

// Decode parses one vendor attribute payload into a domain snapshot.
func Decode(mowerID string, payload []byte, receivedAt time.Time) (*domain.Snapshot, error) {
	var attrs Attributes
	if err := json.Unmarshal(payload, &attrs); err != nil {
		return nil, fmt.Errorf("decoding attributes: %w", err)
	}
	return ToSnapshot(mowerID, &attrs, receivedAt), nil
}

// ToSnapshot maps the attribute tree onto the domain model. Omitted
// sections keep zero values, with the status enums defaulting to UNKNOWN.
// Positions that fail coordinate validation are dropped; one bad fix must
// not take the whole snapshot down.
func ToSnapshot(mowerID string, attrs *Attributes, receivedAt time.Time) *domain.Snapshot {
	s := &domain.Snapshot{
		MowerID:    mowerID,
		Name:       mowerID,
		Mode:       domain.ModeUnknown,
		Activity:   domain.ActivityUnknown,
		State:      domain.StateUnknown,
		ReceivedAt: receivedAt,
	}

	if sys := attrs.System; sys != nil {
		if sys.Name != "" {
			s.Name = sys.Name
		}
		s.Model = sys.Model
		s.SerialNumber = sys.SerialNumber
	}

	if bat := attrs.Battery; bat != nil {
		s.BatteryPercent = bat.BatteryPercent
	}

	if st := attrs.Mower; st != nil {
		if st.Mode != "" {
			s.Mode = domain.Mode(st.Mode)
		}
		if st.Activity != "" {
			s.Activity = domain.Activity(st.Activity)
		}
		if st.State != "" {
			s.State = domain.State(st.State)
		}
		s.ErrorCode = st.ErrorCode
		if st.ErrorCodeTimestamp > 0 {
			s.ErrorAt = time.UnixMilli(st.ErrorCodeTimestamp).UTC()
		}
	}

	if cal := attrs.Calendar; cal != nil {
		s.Calendar = make([]domain.CalendarTask, 0, len(cal.Tasks))
		for _, t := range cal.Tasks {
			s.Calendar = append(s.Calendar, domain.CalendarTask(t))
		}
	}

	if pl := attrs.Planner; pl != nil {
		if pl.NextStartTimestamp > 0 {
			s.Planner.NextStart = time.UnixMilli(pl.NextStartTimestamp).UTC()
		}
		s.Planner.OverrideAction = pl.Override.Action
		s.Planner.RestrictedReason = pl.RestrictedReason
	}

	if md := attrs.Metadata; md != nil {
		s.Connected = md.Connected
		if md.StatusTimestamp > 0 {
			s.StatusAt = time.UnixMilli(md.StatusTimestamp).UTC()
		}
	}

	for _, pos := range attrs.Positions {
		p := domain.GeoPoint{Lat: pos.Latitude, Lon: pos.Longitude}
		if p.Validate(nil) != nil {
			continue
		}
		s.Positions = append(s.Positions, p)
	}

	if set := attrs.Settings; set != nil {
		s.Settings.CuttingHeight = set.CuttingHeight
		s.Settings.Headlight = domain.HeadlightMode(set.Headlight.Mode)
	}

	if st := attrs.Statistics; st != nil {
		s.Statistics = domain.Statistics{
			ChargingCycles: st.NumberOfChargingCycles,
			Collisions:     st.NumberOfCollisions,
			ChargingTime:   time.Duration(st.TotalChargingTime) * time.Second,
			CuttingTime:    time.Duration(st.TotalCuttingTime) * time.Second,
			RunningTime:    time.Duration(st.TotalRunningTime) * time.Second,
			SearchingTime:  time.Duration(st.TotalSearchingTime) * time.Second,
		}
	}

	return s
}
