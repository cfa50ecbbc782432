package service

import "errors"

// Sentinel kinds returned by the service.
var (
	ErrSubjectNotFound = errors.New("subject not found")
	ErrRefreshRejected = errors.New("refresh rejected")
)
