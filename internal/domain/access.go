package domain

// AccessReason is a stable, machine-readable explanation of an AccessDecision.
type AccessReason string

const (
	ReasonNotAthlete     AccessReason = "not_athlete"
	ReasonActive         AccessReason = "active"
	ReasonAwaitingReview AccessReason = "awaiting_review"
	ReasonRejected       AccessReason = "rejected"
	ReasonSuspended      AccessReason = "suspended"
	ReasonMustApply      AccessReason = "must_apply"
	ReasonLookupFailed   AccessReason = "lookup_failed"
)

// Page paths the access gate redirects to.
const (
	LoginPath           = "/login"
	PendingApprovalPath = "/pending-approval"
	ApplyPath           = "/athlete/apply"
)

// AccessDecision is the derived (never persisted) outcome of evaluating a
// user's role and membership status.
//
// MembershipStatus is nil when the athlete has never applied, and is always
// serialized so clients can tell "null" apart from a missing field.
type AccessDecision struct {
	HasAccess        bool              `json:"hasAccess"`
	Role             Role              `json:"role,omitempty"`
	MembershipStatus *MembershipStatus `json:"membershipStatus"`
	Reason           AccessReason      `json:"reason"`
	Message          string            `json:"message"`
	RedirectPath     string            `json:"redirectPath,omitempty"`
	ClubName         string            `json:"clubName,omitempty"`
	RejectionReason  string            `json:"rejectionReason,omitempty"`
}

// Denied builds a deny decision that carries no role information.
func Denied(reason AccessReason, msg string) AccessDecision {
	return AccessDecision{
		HasAccess:    false,
		Reason:       reason,
		Message:      msg,
		RedirectPath: PendingApprovalPath,
	}
}
