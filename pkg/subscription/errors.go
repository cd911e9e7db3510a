package subscription

import "errors"

var (
	ErrRecordNotFound = errors.New("subscriber record not found")
	ErrMissingUserID  = errors.New("user ID is required")
)
