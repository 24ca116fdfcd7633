package core

import (
	"github.com/aretw0/introspection"
)

// ServiceState exposes internal state for observability.
type ServiceState struct {
	OutputBase string `json:"output_base"`
	Policy     string `json:"policy"`
	InFlight   int    `json:"in_flight"`
	LastSeq    int64  `json:"last_seq"`
	Relocated  int    `json:"relocated"`
	Skipped    int    `json:"skipped"`
	Failed     int    `json:"failed"`
}

// State implements introspection.Introspectable.
func (s *Service) State() any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return ServiceState{
		OutputBase: s.outputBase,
		Policy:     s.resolver.Policy.String(),
		InFlight:   s.inFlight,
		LastSeq:    s.lastSeq,
		Relocated:  s.counts[OutcomeRelocated],
		Skipped:    s.counts[OutcomeSkipped],
		Failed:     s.counts[OutcomeFailed],
	}
}

// ComponentType implements introspection.Component.
func (s *Service) ComponentType() string {
	return "processor"
}

var _ introspection.Introspectable = (*Service)(nil)
var _ introspection.Component = (*Service)(nil)
