package models

// Status is a felling licence application lifecycle status. The aggregate
// never stores a mutable "current status" field; the current status is
// always derived from the newest StatusHistory entry.
type Status string

const (
	StatusDraft                    Status = "Draft"
	StatusSubmitted                Status = "Submitted"
	StatusReceived                 Status = "Received"
	StatusWithApplicant            Status = "WithApplicant"
	StatusReturnedToApplicant      Status = "ReturnedToApplicant"
	StatusAdminOfficerReview       Status = "AdminOfficerReview"
	StatusWoodlandOfficerReview    Status = "WoodlandOfficerReview"
	StatusSentForApproval          Status = "SentForApproval"
	StatusApproved                 Status = "Approved"
	StatusRefused                  Status = "Refused"
	StatusReferredToLocalAuthority Status = "ReferredToLocalAuthority"
	StatusWithdrawn                Status = "Withdrawn"
)

// DecisionStatuses are the only legal targets of an approve/refuse/refer
// request.
var DecisionStatuses = map[Status]bool{
	StatusApproved:                 true,
	StatusRefused:                  true,
	StatusReferredToLocalAuthority: true,
}

// ReviewStatuses are the internal review stages an application passes
// through before SentForApproval. The extension job only considers
// applications sitting in one of these.
var ReviewStatuses = map[Status]bool{
	StatusReceived:              true,
	StatusAdminOfficerReview:    true,
	StatusWoodlandOfficerReview: true,
	StatusSentForApproval:       true,
}

// WithApplicantStatuses mark the application as parked with the applicant;
// the voluntary withdrawal job times these out.
var WithApplicantStatuses = map[Status]bool{
	StatusWithApplicant:       true,
	StatusReturnedToApplicant: true,
}

// Role names an assignment an account can hold against an application.
type Role string

const (
	RoleApplicant       Role = "Applicant"
	RoleAuthor          Role = "Author"
	RoleAdminOfficer    Role = "AdminOfficer"
	RoleWoodlandOfficer Role = "WoodlandOfficer"
	RoleFieldManager    Role = "FieldManager"
)

// externalRoles are excluded when resolving the internal staff notification
// fan-out for a decision.
var externalRoles = map[Role]bool{
	RoleApplicant: true,
	RoleAuthor:    true,
}

// IsInternal reports whether the role belongs to internal staff.
func (r Role) IsInternal() bool { return !externalRoles[r] }
