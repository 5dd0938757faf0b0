package enums

// MandateStatus tracks whether a customer's recurring mandate is live.
type MandateStatus string

const (
	MandateStatusActive   MandateStatus = "active"
	MandateStatusInactive MandateStatus = "inactive"
	MandateStatusPending  MandateStatus = "pending"
	MandateStatusRevoked  MandateStatus = "revoked"
)

// String implements fmt.Stringer.
func (s MandateStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known MandateStatus.
func (s MandateStatus) IsValid() bool {
	switch s {
	case MandateStatusActive, MandateStatusInactive, MandateStatusPending, MandateStatusRevoked:
		return true
	}
	return false
}
