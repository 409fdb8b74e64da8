package worker

import (
	"github.com/nxl-pharma/crm-api/internal/service"
)

// StartNotificationWorker registers the activity log and staff alert handlers.
func StartNotificationWorker(notificationService *service.NotificationService) {
	if notificationService == nil {
		return
	}
	notificationService.RegisterHandlers()
}
