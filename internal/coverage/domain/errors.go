package coverage

import "errors"

var (
	ErrDeviceNotFound          = errors.New("coverage: device not found")
	ErrPolicyNotFound          = errors.New("coverage: policy not found")
	ErrDuplicateSerial         = errors.New("coverage: serial number already registered")
	ErrInvalidPolicyTransition = errors.New("coverage: invalid policy transition")
	ErrConcurrentUpdate        = errors.New("coverage: record changed concurrently")
	ErrNotIncomplete           = errors.New("coverage: device registration is not incomplete")
)
