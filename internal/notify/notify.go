// Package notify defines the notification contract the workflow dispatches
// through. Delivery (GOV-style templated email) is an external collaborator;
// this package owns the notification types, the recipient model, and
// in-memory/logging dispatchers.
package notify

import (
	"context"
	"strings"

	"coppice/internal/users"
	"coppice/pkg/email"
	pkgstrings "coppice/pkg/platform/strings"
)

// Type selects the downstream template.
type Type string

const (
	TypeInformApplicantOfDecision     Type = "InformApplicantOfApplicationDecision"
	TypeInformStaffOfDecision         Type = "InformStaffOfApplicationDecision"
	TypeInformApplicantOfReturnedCase Type = "InformApplicantOfReturnedApplication"
	TypeInformStaffOfReturnedCase     Type = "InformStaffOfReturnedApplication"
	TypeInformApplicantOfCorrection   Type = "InformApplicantOfApprovedInError"
	TypeInformApplicantOfExtension    Type = "InformApplicantOfFinalActionDateExtension"
	TypeInformStaffOfExtension        Type = "InformStaffOfFinalActionDateExtension"
	TypeInformApplicantOfWithdrawal   Type = "InformApplicantOfVoluntaryWithdrawal"
	TypeInformStaffOfProcessFailure   Type = "InformStaffOfAutomatedProcessFailure"
)

// Recipient is one notification target.
type Recipient struct {
	Name  string
	Email string
}

// Notification is a single templated send.
type Notification struct {
	Type      Type
	Recipient Recipient
	CC        []Recipient
	ReplyTo   string
	// Data feeds the template: case reference, decision, dates, reasons.
	Data map[string]string
}

// Dispatcher sends notifications. Implementations must treat each Send as
// independent; a failed send never affects another recipient.
type Dispatcher interface {
	Send(ctx context.Context, n Notification) error
}

// RecipientFor builds a Recipient from a directory record, deriving a
// display name from the address when the record has none.
func RecipientFor(user users.User) Recipient {
	name := user.FirstName + " " + user.LastName
	if user.FirstName == "" && user.LastName == "" {
		first, last := email.DeriveNameFromEmail(user.Email)
		name = first + " " + last
	}
	return Recipient{Name: name, Email: user.Email}
}

// DedupeRecipients drops directory records resolving to the same email
// address, so a person holding several open assignments gets one send.
func DedupeRecipients(staff []users.User) []users.User {
	emails := make([]string, 0, len(staff))
	for _, member := range staff {
		emails = append(emails, member.Email)
	}
	keep := make(map[string]struct{}, len(emails))
	for _, e := range pkgstrings.DedupeAndTrimLower(emails) {
		keep[e] = struct{}{}
	}

	out := make([]users.User, 0, len(staff))
	for _, member := range staff {
		key := strings.ToLower(strings.TrimSpace(member.Email))
		if _, ok := keep[key]; !ok {
			continue
		}
		delete(keep, key)
		out = append(out, member)
	}
	return out
}
