package notify

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"bnpl-risk-core/internal/domain/notification"
)

// LogNotifier implements notification.Notifier by writing structured
// log lines. Real channels (SMS, push, email) hang off the same
// interface outside the core.
type LogNotifier struct {
	log *logrus.Logger
}

// NewLogNotifier creates a log-backed notifier.
func NewLogNotifier(log *logrus.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

// Notify logs the notification.
func (n *LogNotifier) Notify(_ context.Context, userID uuid.UUID, notifType notification.Type, message string, data map[string]string) error {
	fields := logrus.Fields{
		"user_id": userID,
		"type":    string(notifType),
	}
	for k, v := range data {
		fields["data_"+k] = v
	}
	n.log.WithFields(fields).Info(message)
	return nil
}
