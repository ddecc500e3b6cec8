package worker

import (
	"go.uber.org/zap"

	"github.com/spec-kit/jobcard-service/internal/service"
)

// StartNotificationWorker attaches the notification fan-out to the event
// dispatcher. Calling it with a nil service turns notifications off entirely.
func StartNotificationWorker(notificationService *service.NotificationService, logger *zap.Logger) {
	if notificationService == nil {
		if logger != nil {
			logger.Warn("notification worker disabled: no service wired")
		}
		return
	}
	notificationService.RegisterHandlers()
	if logger != nil {
		logger.Info("notification worker registered event handlers")
	}
}
