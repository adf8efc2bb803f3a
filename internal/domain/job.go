package domain

// SalaryRange is an inclusive [Min, Max] compensation band, currency-neutral.
type SalaryRange struct {
	Min int `validate:"gte=0"`
	Max int `validate:"gtefield=Min"`
}

// Contains reports whether v falls within the range, inclusive.
func (r SalaryRange) Contains(v int) bool {
	return v >= r.Min && v <= r.Max
}

// ExperienceRange is an inclusive [Min, Max] years-of-experience band.
type ExperienceRange struct {
	Min int `validate:"gte=0"`
	Max int `validate:"gtefield=Min"`
}

// Contains reports whether years falls within the range, inclusive.
func (r ExperienceRange) Contains(years int) bool {
	return years >= r.Min && years <= r.Max
}

// JobRequirement is the normalized, already-parsed job record the core
// consumes. Immutable after construction; shared read-only across
// concurrent scorers.
type JobRequirement struct {
	ID               string   `validate:"required"`
	RequiredSkills   []string `validate:"dive,required"`
	PreferredSkills  []string `validate:"dive,required"`
	Experience       ExperienceRange
	RequiredLevel    HierarchicalLevel
	Salary           SalaryRange
	Sector           string `validate:"required"`
	OfficeAddress    string `validate:"required"`
	RemotePolicy     RemotePolicy
	ParkingProvided  bool
	FlexibleHours    bool
}
