package domain

import "time"

// Simulation is the full record of one simulated run of a flow against a fact.
type Simulation struct {
	ID        string      `json:"id"`
	FlowID    string      `json:"flow_id,omitempty"`
	At        time.Time   `json:"at"`
	Fact      Fact        `json:"fact"`
	Preflight Report      `json:"preflight"`
	Route     RouteResult `json:"route"`
}
