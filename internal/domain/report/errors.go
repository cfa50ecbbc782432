package report

import "errors"

var (
	// ErrStudentNotFound is returned when a roll number appears in no subject section.
	ErrStudentNotFound = errors.New("student not found")
	// ErrInsufficientData is returned for sheets too short to hold a header and a data row.
	ErrInsufficientData = errors.New("insufficient sheet data")
)
