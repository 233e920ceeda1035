package http

// DecisionRequest is the body for POST /applications/{id}/decision.
type DecisionRequest struct {
	RequestedStatus string `json:"requested_status"`
	Reason          string `json:"reason,omitempty"`
}

// ReturnRequest is the body for POST /applications/{id}/return.
type ReturnRequest struct {
	CaseNote string `json:"case_note"`
}

// CorrectionRequest is the body for POST /applications/{id}/approved-in-error.
type CorrectionRequest struct {
	Reason string `json:"reason"`
}
