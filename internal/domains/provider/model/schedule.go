package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var ErrInvalidSchedule = errors.New("invalid weekly schedule")

// DayHours is the open/close window for one weekday, "15:04" format.
// A nil entry in WeeklySchedule means the provider is closed that day.
type DayHours struct {
	Open  string `json:"open"`
	Close string `json:"close"`
}

// WeeklySchedule maps weekday names (lowercase English) to working hours.
type WeeklySchedule map[string]DayHours

var weekdays = map[string]bool{
	"monday": true, "tuesday": true, "wednesday": true, "thursday": true,
	"friday": true, "saturday": true, "sunday": true,
}

// Validate checks day names and hour formats once at the boundary.
func (ws WeeklySchedule) Validate() error {
	for day, hours := range ws {
		if !weekdays[day] {
			return fmt.Errorf("%w: unknown day %q", ErrInvalidSchedule, day)
		}
		open, err := time.Parse("15:04", hours.Open)
		if err != nil {
			return fmt.Errorf("%w: %s open %q", ErrInvalidSchedule, day, hours.Open)
		}
		close, err := time.Parse("15:04", hours.Close)
		if err != nil {
			return fmt.Errorf("%w: %s close %q", ErrInvalidSchedule, day, hours.Close)
		}
		if !open.Before(close) {
			return fmt.Errorf("%w: %s opens at or after close", ErrInvalidSchedule, day)
		}
	}
	return nil
}

// Value implements driver.Valuer for JSONB
func (ws WeeklySchedule) Value() (driver.Value, error) {
	if ws == nil {
		return nil, nil
	}
	return json.Marshal(ws)
}

// Scan implements sql.Scanner for JSONB
func (ws *WeeklySchedule) Scan(value interface{}) error {
	if value == nil {
		*ws = nil
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return ErrInvalidSchedule
	}

	return json.Unmarshal(bytes, ws)
}
