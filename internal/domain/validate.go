package domain

import (
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// ValidateCandidateProfile checks CandidateProfile against its struct-tag
// constraints (required fields and numeric ranges) from spec §3; nothing
// beyond those tags is checked.
func ValidateCandidateProfile(c *CandidateProfile) error {
	return validatorInstance().Struct(c)
}

// ValidateJobRequirement checks JobRequirement against its struct-tag
// constraints from spec §3.
func ValidateJobRequirement(j *JobRequirement) error {
	return validatorInstance().Struct(j)
}
