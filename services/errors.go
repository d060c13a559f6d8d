package services

import "errors"

// Domain errors surfaced by the admission and institute services. Handlers
// map these to HTTP responses; anything else is treated as an internal
// failure.
var (
	// ErrInstituteNotApproved is returned when an operation requires an
	// approved institute (publishing categories/courses, processing
	// admissions) and the institute is still pending or was rejected.
	ErrInstituteNotApproved = errors.New("institute is not approved")

	// ErrApplicationPending is returned when an owner re-applies while a
	// previous application is still awaiting review.
	ErrApplicationPending = errors.New("institute application is already pending review")

	// ErrAlreadyApproved is returned when an owner applies while already
	// holding an approved institute.
	ErrAlreadyApproved = errors.New("owner already has an approved institute")

	// ErrIncompleteApplicant is returned when an admission is accepted but
	// does not resolve to a linked student identity or references no course.
	// The admission status is left untouched.
	ErrIncompleteApplicant = errors.New("admission has no linked student or course")

	// ErrInvalidTransition is returned for a status change the lifecycle
	// does not permit (e.g. rejecting an already accepted admission).
	ErrInvalidTransition = errors.New("invalid admission status transition")

	// ErrAlreadyPaid is returned when a paid admission is paid again.
	ErrAlreadyPaid = errors.New("admission is already paid")

	// ErrNotEligible is returned when offer-letter data is requested for an
	// admission that has no enrollment or whose institute is not approved.
	ErrNotEligible = errors.New("admission is not eligible for an offer letter")
)
