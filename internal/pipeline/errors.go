package pipeline

import "fmt"

// EncodeError is a codec failure reported by an Encoder.
type EncodeError struct {
	Code int
	Err  error
}

func (e *EncodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("encode error code %d: %v", e.Code, e.Err)
	}
	return fmt.Sprintf("encode error code %d", e.Code)
}

func (e *EncodeError) Unwrap() error {
	return e.Err
}

var _ error = (*EncodeError)(nil)

// EncodeFailureError aborts a run. It names the frame that could not be
// encoded; Cause is usually an *EncodeError or a packet size violation.
type EncodeFailureError struct {
	FrameIndex int
	Cause      error
}

func (e *EncodeFailureError) Error() string {
	return fmt.Sprintf("encoding failed at frame %d: %v", e.FrameIndex, e.Cause)
}

func (e *EncodeFailureError) Unwrap() error {
	return e.Cause
}

var _ error = (*EncodeFailureError)(nil)

// ConfigError reports a Config field that failed validation.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid pipeline config: %s %s", e.Field, e.Reason)
}

var _ error = (*ConfigError)(nil)
