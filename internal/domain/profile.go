package domain

// MobilityConstraints describes how a candidate is willing to commute.
type MobilityConstraints struct {
	AcceptedModes  []TransportMode         `validate:"required,min=1"`
	MaxMinutes     map[TransportMode]int   `validate:"required"`
	RemoteDaysWeek int                     `validate:"gte=0,lte=5"`
	FlexibleHours  bool
}

// AcceptsMode reports whether m is among the candidate's accepted modes.
func (c MobilityConstraints) AcceptsMode(m TransportMode) bool {
	for _, accepted := range c.AcceptedModes {
		if accepted == m {
			return true
		}
	}
	return false
}

// AllowedMinutes returns the candidate's ceiling for mode m, or 0 if the
// candidate never specified one (treated as "unacceptable").
func (c MobilityConstraints) AllowedMinutes(m TransportMode) int {
	return c.MaxMinutes[m]
}

// AcceptsRemote reports whether the candidate is willing to work remotely at
// all.
func (c MobilityConstraints) AcceptsRemote() bool {
	return c.RemoteDaysWeek > 0
}

// CandidateProfile is the normalized, already-parsed candidate record the
// core consumes. It is immutable after construction: one instance may be
// scored against many jobs concurrently, so no method on it may mutate
// shared state.
type CandidateProfile struct {
	ID                   string          `validate:"required"`
	Skills               []string        `validate:"required,min=1,dive,required"`
	YearsExperience      int             `validate:"gte=0"`
	Level                HierarchicalLevel
	CurrentCompensation  int             `validate:"gte=0"`
	ExpectedCompensation int             `validate:"gte=0"`
	Sector               string          `validate:"required"`
	HomeAddress          string          `validate:"required"`
	Mobility             MobilityConstraints
	ListeningReason      ListeningReason

	// DetailedExperiences, when known, feeds the AdaptiveWeighter's
	// "many detailed experiences" adjustment (§4.8).
	DetailedExperiences Optional[int]
}

// HasManyDetailedExperiences reports whether the candidate's work history is
// rich enough to trigger the experience-weight adjustment.
func (c CandidateProfile) HasManyDetailedExperiences() bool {
	n, known := c.DetailedExperiences.Get()
	return known && n >= 3
}
