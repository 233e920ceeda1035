package http

import "coppice/internal/fla/service"

// ResultResponse reports a workflow operation back to the caller,
// including the classified sub-process outcomes for display/remediation.
type ResultResponse struct {
	Success            bool     `json:"success"`
	FailureReason      string   `json:"failure_reason,omitempty"`
	SubProcessOutcomes []string `json:"sub_process_outcomes,omitempty"`
	RegisterOutcome    string   `json:"register_outcome,omitempty"`
}

func toResultResponse(result service.Result) ResultResponse {
	resp := ResultResponse{
		Success:         result.IsSuccess,
		FailureReason:   string(result.FailureReason),
		RegisterOutcome: string(result.RegisterOutcome),
	}
	for _, o := range result.SubProcessOutcomes {
		resp.SubProcessOutcomes = append(resp.SubProcessOutcomes, string(o))
	}
	return resp
}
