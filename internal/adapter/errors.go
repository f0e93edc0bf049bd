// Table-driven normalization of backend driver errors to container codes.
// Unknown driver tokens map to INTERNAL; no heuristics beyond token match.
package adapter

import (
	"errors"
	"fmt"
	"strings"
)

// Normalized container errors.
var (
	ErrInvalidRange = errors.New("INVALID_RANGE")
	ErrBusy         = errors.New("BUSY")
	ErrUnavailable  = errors.New("UNAVAILABLE")
	ErrInternal     = errors.New("INTERNAL")
)

// DriverMap defines the error token mapping for a specific tuner driver.
type DriverMap struct {
	Range       []string // Tokens that map to INVALID_RANGE
	Busy        []string // Tokens that map to BUSY
	Unavailable []string // Tokens that map to UNAVAILABLE
}

// DriverErrorMappings contains the deterministic error mapping tables per
// driver family. Drivers not present here fall back to "generic".
var DriverErrorMappings = map[string]DriverMap{
	"fis": {
		Range: []string{
			"FREQUENCY_OUT_OF_RANGE",
			"STEP_OUT_OF_BAND",
			"INVALID_FREQUENCY",
			"PARAMETER_OUT_OF_RANGE",
			"VALUE_OUT_OF_BOUNDS",
		},
		Busy: []string{
			"TUNER_BUSY",
			"SEEK_IN_PROGRESS",
			"OPERATION_IN_PROGRESS",
			"RATE_LIMITED",
		},
		Unavailable: []string{
			"TUNER_OFFLINE",
			"NOT_INITIALIZED",
			"POWERED_OFF",
			"NOT_READY",
			"OFFLINE",
		},
	},
	"generic": {
		Range: []string{
			"OUT_OF_RANGE",
			"INVALID_PARAMETER",
			"INVALID_RANGE",
			"BAD_VALUE",
			"RANGE_ERROR",
		},
		Busy: []string{
			"BUSY",
			"RETRY",
			"RATE_LIMIT",
			"TOO_MANY_REQUESTS",
			"BACKOFF",
		},
		Unavailable: []string{
			"UNAVAILABLE",
			"REBOOT",
			"OFFLINE",
			"NOT_READY",
		},
	},
}

// DriverError wraps a driver error with its normalized code and the raw
// diagnostic payload.
type DriverError struct {
	Code     error       // Normalized container code
	Original error       // Driver error
	Details  interface{} // Driver payload (opaque)
}

func (e *DriverError) Error() string {
	return fmt.Sprintf("%v (driver: %v)", e.Code, e.Original)
}

func (e *DriverError) Unwrap() error {
	return e.Code
}

// NormalizeDriverError maps a driver error to a normalized container code
// using the generic mapping table.
func NormalizeDriverError(driverErr error, payload interface{}) error {
	return NormalizeDriverErrorWithDriver(driverErr, payload, "generic")
}

// NormalizeDriverErrorWithDriver maps a driver error using a specific
// driver's mapping table.
func NormalizeDriverErrorWithDriver(driverErr error, payload interface{}, driverID string) error {
	if driverErr == nil {
		return nil
	}

	code := mapDriverErrorToCode(driverErr.Error(), driverID)

	return &DriverError{
		Code:     code,
		Original: driverErr,
		Details:  payload,
	}
}

// mapDriverErrorToCode matches tokens from the driver's table against the
// error message, falling back to generic and finally to INTERNAL. Range
// tokens win over busy tokens, busy over unavailable.
func mapDriverErrorToCode(msg string, driverID string) error {
	driverMap, exists := DriverErrorMappings[driverID]
	if !exists {
		driverMap = DriverErrorMappings["generic"]
	}

	upperMsg := strings.ToUpper(msg)

	classes := []struct {
		code   error
		tokens []string
	}{
		{ErrInvalidRange, driverMap.Range},
		{ErrBusy, driverMap.Busy},
		{ErrUnavailable, driverMap.Unavailable},
	}
	for _, class := range classes {
		for _, token := range class.tokens {
			if strings.Contains(upperMsg, strings.ToUpper(token)) {
				return class.code
			}
		}
	}

	return ErrInternal
}
