package monitor

import "time"

type Status struct {
	Healthy   bool            `json:"healthy"`
	Checks    map[string]bool `json:"checks"`
	LastCheck time.Time       `json:"last_check"`
}
