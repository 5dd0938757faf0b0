package enums

import "fmt"

// CaptureMethod controls when an authorized amount is captured.
type CaptureMethod string

const (
	CaptureMethodAutomatic CaptureMethod = "automatic"
	CaptureMethodManual    CaptureMethod = "manual"
)

var validCaptureMethods = []CaptureMethod{
	CaptureMethodAutomatic,
	CaptureMethodManual,
}

// String implements fmt.Stringer.
func (m CaptureMethod) String() string {
	return string(m)
}

// IsAutomatic reports whether capture happens in the same connector call as
// the authorization.
func (m CaptureMethod) IsAutomatic() bool {
	return m == CaptureMethodAutomatic
}

// IsValid reports whether the value is a known CaptureMethod.
func (m CaptureMethod) IsValid() bool {
	for _, candidate := range validCaptureMethods {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseCaptureMethod converts raw input into a CaptureMethod.
func ParseCaptureMethod(value string) (CaptureMethod, error) {
	for _, candidate := range validCaptureMethods {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid capture method %q", value)
}
