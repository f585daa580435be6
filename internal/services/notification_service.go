package services

import (
	"context"
	"log/slog"
	"strings"

	"github.com/HSL-KM/class-registration-service/internal/events"
	"github.com/HSL-KM/class-registration-service/internal/models"
)

// notificationService translates state changes into notification events on
// the Kafka stream. The mailer that renders and sends the actual messages is
// a separate consumer; this service only publishes.
type notificationService struct {
	publisher events.EventPublisher
	logger    *slog.Logger
}

// NewNotificationService creates the notification service. A nil publisher
// turns every send into a logged no-op, which keeps local development working
// without a broker.
func NewNotificationService(publisher events.EventPublisher, logger *slog.Logger) NotificationService {
	return &notificationService{publisher: publisher, logger: logger}
}

func (s *notificationService) SendRegistrationConfirmation(ctx context.Context, email string, class *models.ClassSession, name string) error {
	return s.publish(ctx, events.TopicNotifications, events.EventRegistrationConfirmed, events.RegistrationConfirmedEvent{
		RecipientEmail: email,
		RecipientName:  name,
		Class:          classDetails(class),
	})
}

func (s *notificationService) SendAdminRegistrationNotice(ctx context.Context, adminEmails []string, class *models.ClassSession, registrant RegistrantInfo, roster []RegistrantInfo) error {
	return s.publish(ctx, events.TopicNotifications, events.EventRegistrationAdminNotice, events.RegistrationAdminNoticeEvent{
		AdminEmails: adminEmails,
		Registrant:  events.Participant{Name: registrant.Name, Email: registrant.Email},
		Class:       classDetails(class),
		Roster:      participants(roster),
	})
}

func (s *notificationService) SendAdminCancellationNotice(ctx context.Context, adminEmails []string, name, email string, class *models.ClassSession, remaining []RegistrantInfo) error {
	return s.publish(ctx, events.TopicNotifications, events.EventCancellationAdminNotice, events.CancellationAdminNoticeEvent{
		AdminEmails: adminEmails,
		Cancelling:  events.Participant{Name: name, Email: email},
		Class:       classDetails(class),
		Remaining:   participants(remaining),
	})
}

func (s *notificationService) SendClassRequestSubmitted(ctx context.Context, adminEmails []string, request *models.ClassRequest) error {
	return s.publish(ctx, events.TopicNotifications, events.EventClassRequestSubmitted, events.ClassRequestNoticeEvent{
		AdminEmails: adminEmails,
		RequestedBy: requester(request),
		Title:       request.Title,
	})
}

func (s *notificationService) SendClassRequestResolved(ctx context.Context, request *models.ClassRequest, approved bool) error {
	eventType := events.EventClassRequestApproved
	reason := ""
	if !approved {
		eventType = events.EventClassRequestRejected
		if request.RejectionReason != nil {
			reason = *request.RejectionReason
		}
	}
	return s.publish(ctx, events.TopicNotifications, eventType, events.ClassRequestNoticeEvent{
		Recipient:   request.RequestedByEmail,
		RequestedBy: requester(request),
		Title:       request.Title,
		Reason:      reason,
	})
}

func requester(request *models.ClassRequest) events.Participant {
	p := events.Participant{Email: request.RequestedByEmail}
	if request.RequestedByName != nil {
		p.Name = *request.RequestedByName
	}
	return p
}

func (s *notificationService) publish(ctx context.Context, topic, eventType string, data interface{}) error {
	if s.publisher == nil {
		s.logger.Debug("Event publisher not configured, dropping event", "event_type", eventType)
		return nil
	}
	return s.publisher.Publish(ctx, topic, eventType, data)
}

func classDetails(class *models.ClassSession) events.ClassDetails {
	details := events.ClassDetails{
		ClassID:   class.ClassID,
		Title:     class.Title,
		Speaker:   strings.Join(class.Speakers(), ", "),
		StartDate: class.StartDate,
		EndDate:   class.EndDate,
		StartTime: class.StartTime,
		EndTime:   class.EndTime,
		Format:    string(class.Format),
	}
	if class.JoinLink != nil {
		details.JoinLink = *class.JoinLink
	}
	if class.Location != nil {
		details.Location = *class.Location
	}
	return details
}

func participants(infos []RegistrantInfo) []events.Participant {
	out := make([]events.Participant, 0, len(infos))
	for _, info := range infos {
		out = append(out, events.Participant{Name: info.Name, Email: info.Email})
	}
	return out
}
