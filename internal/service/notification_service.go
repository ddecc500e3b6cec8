package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/jobcard-service/internal/config"
	"github.com/spec-kit/jobcard-service/internal/events"
)

// notificationRoute decides which channels an event type fans out to.
type notificationRoute struct {
	email   bool
	webhook bool
	warn    bool
}

var notificationRoutes = map[events.EventType]notificationRoute{
	events.EventJobCardCreated:         {email: true, webhook: true},
	events.EventJobCardStatusChanged:   {webhook: true},
	events.EventJobCardPriorityChanged: {webhook: true},
	events.EventJobCardAssigned:        {email: true, webhook: true},
	events.EventJobCardNoteAdded:       {email: true},
	events.EventJobCardOverdue:         {email: true, webhook: true, warn: true},
}

// NotificationService fans domain events out to the configured notification
// channels. Channel delivery is a logging stub; real email and webhook
// transports are out of scope.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig

	mu          sync.Mutex
	lastOverdue map[string]time.Time
	renotifyGap time.Duration
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	gap := time.Duration(cfg.OverdueRenotifyHours) * time.Hour
	if gap <= 0 {
		gap = 24 * time.Hour
	}
	return &NotificationService{
		dispatcher:  dispatcher,
		logger:      logger,
		cfg:         cfg,
		lastOverdue: make(map[string]time.Time),
		renotifyGap: gap,
	}
}

// RegisterHandlers subscribes one handler per routed event type.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	for eventType := range notificationRoutes {
		n.dispatcher.Subscribe(eventType, n.handleEvent)
	}
}

func (n *NotificationService) handleEvent(ctx context.Context, event events.Event) error {
	route, ok := notificationRoutes[event.Type]
	if !ok {
		return nil
	}
	// The overdue sweep re-emits the same event on every scan; operators
	// want at most one notice per card per renotify gap.
	if event.Type == events.EventJobCardOverdue && !n.shouldNotifyOverdue(event.JobCardID, event.Timestamp) {
		n.logger.Debug("suppressing repeated overdue notice",
			zap.String("job_card_id", event.JobCardID))
		return nil
	}

	log := n.logger.Info
	if route.warn {
		log = n.logger.Warn
	}
	log(string(event.Type),
		zap.String("job_card_id", event.JobCardID),
		zap.Any("payload", event.Payload))

	if route.email {
		n.emitEmail(ctx, event)
	}
	if route.webhook {
		n.emitWebhook(ctx, event)
	}
	return nil
}

func (n *NotificationService) shouldNotifyOverdue(jobCardID string, at time.Time) bool {
	if at.IsZero() {
		at = time.Now()
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if last, ok := n.lastOverdue[jobCardID]; ok && at.Sub(last) < n.renotifyGap {
		return false
	}
	n.lastOverdue[jobCardID] = at
	return true
}

func (n *NotificationService) emitEmail(_ context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return
	}
	n.logger.Debug("email notification",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("job_card_id", event.JobCardID),
		zap.String("event_type", string(event.Type)))
}

func (n *NotificationService) emitWebhook(_ context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("webhook notification",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("job_card_id", event.JobCardID),
		zap.String("event_type", string(event.Type)))
}
