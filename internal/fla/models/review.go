package models

import id "coppice/pkg/domain"

// ApproverReview captures the approver's confirmed review settings for an
// application sitting in SentForApproval, resolved before a decision is
// finalised. PublishToDecisionRegister false means the approver opted out
// of publication, which the synchronizer classifies as Exempt.
type ApproverReview struct {
	ApplicationID                id.ApplicationID
	PublishToDecisionRegister    bool
	ApprovedLicenceDurationYears int
}
