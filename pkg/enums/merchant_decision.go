package enums

// MerchantDecision marks how a merchant resolved a payment outside the
// connector flow.
type MerchantDecision string

const (
	MerchantDecisionApproved MerchantDecision = "approved"
	MerchantDecisionRejected MerchantDecision = "rejected"
)

// String implements fmt.Stringer.
func (d MerchantDecision) String() string {
	return string(d)
}
