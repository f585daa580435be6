package events

import (
	"time"
)

// Kafka topics the service publishes to. A separate mailer service consumes
// the notification topic and renders the actual messages.
const (
	TopicNotifications = "registration.notifications"
	TopicAudit         = "registration.audit"
)

// Event types
const (
	EventRegistrationConfirmed   = "registration.confirmed"
	EventRegistrationAdminNotice = "registration.admin_notice"
	EventCancellationAdminNotice = "registration.cancellation_admin_notice"
	EventClassRequestSubmitted   = "class_request.submitted"
	EventClassRequestApproved    = "class_request.approved"
	EventClassRequestRejected    = "class_request.rejected"
)

// Event is the envelope every published message shares.
type Event struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	Source    string      `json:"source"`
	Version   string      `json:"version"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

const (
	EventSource  = "class-registration-service"
	EventVersion = "1.0"
)

// ClassDetails is the snapshot of a class embedded in notification payloads.
// Speakers are flattened to a single display string for the mailer.
type ClassDetails struct {
	ClassID   string `json:"class_id"`
	Title     string `json:"title"`
	Speaker   string `json:"speaker"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Format    string `json:"format"`
	JoinLink  string `json:"join_link,omitempty"`
	Location  string `json:"location,omitempty"`
}

// Participant identifies a registered user in admin notices.
type Participant struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// RegistrationConfirmedEvent asks the mailer to confirm a registration to the
// registrant.
type RegistrationConfirmedEvent struct {
	RecipientEmail string       `json:"recipient_email"`
	RecipientName  string       `json:"recipient_name"`
	Class          ClassDetails `json:"class"`
}

// RegistrationAdminNoticeEvent notifies admins of a new registration together
// with the full roster after the commit.
type RegistrationAdminNoticeEvent struct {
	AdminEmails []string      `json:"admin_emails"`
	Registrant  Participant   `json:"registrant"`
	Class       ClassDetails  `json:"class"`
	Roster      []Participant `json:"roster"`
}

// CancellationAdminNoticeEvent notifies admins of a cancellation with the
// remaining roster.
type CancellationAdminNoticeEvent struct {
	AdminEmails []string      `json:"admin_emails"`
	Cancelling  Participant   `json:"cancelling"`
	Class       ClassDetails  `json:"class"`
	Remaining   []Participant `json:"remaining"`
}

// ClassRequestNoticeEvent covers the submitted/approved/rejected request
// notifications; Reason carries the rejection reason when present.
type ClassRequestNoticeEvent struct {
	AdminEmails []string    `json:"admin_emails,omitempty"`
	Recipient   string      `json:"recipient,omitempty"`
	RequestedBy Participant `json:"requested_by"`
	Title       string      `json:"title"`
	Reason      string      `json:"reason,omitempty"`
}
