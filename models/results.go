package models

// AttributionResult reports the outcome of crediting a referral. The zero
// value is AttributionNone so an error path can never read as accepted.
type AttributionResult int

const (
	AttributionNone AttributionResult = iota
	AttributionAccepted
	RejectedSelfReferral
	RejectedAlreadyReferred
	RejectedCapReached
)

func (r AttributionResult) String() string {
	switch r {
	case AttributionNone:
		return "none"
	case AttributionAccepted:
		return "accepted"
	case RejectedSelfReferral:
		return "rejected_self_referral"
	case RejectedAlreadyReferred:
		return "rejected_already_referred"
	case RejectedCapReached:
		return "rejected_cap_reached"
	default:
		return "unknown"
	}
}

// MembershipStatus is the verdict of the channel-membership gate. A transport
// failure while checking is reported as an error alongside, never folded into
// either verdict.
type MembershipStatus int

const (
	NotMember MembershipStatus = iota
	Member
)
