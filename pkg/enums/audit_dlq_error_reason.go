package enums

// AuditDLQErrorReason explains why an audit event landed in the DLQ.
type AuditDLQErrorReason string

const (
	AuditDLQReasonMaxAttempts  AuditDLQErrorReason = "max_attempts"
	AuditDLQReasonNonRetryable AuditDLQErrorReason = "non_retryable"
)

var validAuditDLQErrorReasons = []AuditDLQErrorReason{
	AuditDLQReasonMaxAttempts,
	AuditDLQReasonNonRetryable,
}

// IsValid reports whether the reason is recognized.
func (r AuditDLQErrorReason) IsValid() bool {
	for _, candidate := range validAuditDLQErrorReasons {
		if candidate == r {
			return true
		}
	}
	return false
}
