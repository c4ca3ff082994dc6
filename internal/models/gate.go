package models

type GateState string

const (
	GateLoading         GateState = "loading"
	GateUnauthenticated GateState = "unauthenticated"
	GateVerified        GateState = "verified"
	GateUnverified      GateState = "unverified"
)

// GateDecision is the outcome of one verification gate evaluation.
type GateDecision struct {
	State    GateState `json:"state"`
	Redirect string    `json:"redirect,omitempty"`
	Email    string    `json:"email,omitempty"`
}

type ResendResult struct {
	Decision     GateDecision  `json:"decision"`
	Sent         bool          `json:"sent"`
	Notification *Notification `json:"notification,omitempty"`
}
