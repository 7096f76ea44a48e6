package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/Dosada05/walker-tournament/models"
	"github.com/Dosada05/walker-tournament/repositories"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

const (
	AuditActionCreate         = "Create"
	AuditActionOpen           = "Open"
	AuditActionExtendDeadline = "ExtendDeadline"
	AuditActionJoin           = "Join"
	AuditActionRemoveMember   = "RemoveMember"
	AuditActionLock           = "Lock"
	AuditActionDraw           = "Draw"
	AuditActionSetWinner      = "SetWinner"
	AuditActionUploadImage    = "UploadImage"
	AuditActionComplete       = "Complete"

	AuditEntityTournament = "Tournament"
	AuditEntityMatch      = "Match"
)

const auditPersistTimeout = 5 * time.Second

// AuditLogger is a fire-and-forget sink: Log never blocks and never fails the caller.
type AuditLogger interface {
	Log(ctx context.Context, actor uuid.UUID, action, entityType string, entityID uuid.UUID, metadata map[string]any)
}

type AuditService struct {
	repo   repositories.AuditLogRepository
	logger *slog.Logger

	mu     sync.RWMutex
	closed bool
	queue  chan models.AuditLog
	done   chan struct{}
}

// NewAuditService starts the background worker. Call Close to drain it.
func NewAuditService(repo repositories.AuditLogRepository, logger *slog.Logger, bufferSize int) *AuditService {
	if bufferSize <= 0 {
		bufferSize = 256
	}
	s := &AuditService{
		repo:   repo,
		logger: logger.With(slog.String("component", "audit")),
		queue:  make(chan models.AuditLog, bufferSize),
		done:   make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *AuditService) Log(ctx context.Context, actor uuid.UUID, action, entityType string, entityID uuid.UUID, metadata map[string]any) {
	entry := models.AuditLog{
		ID:          uuid.New(),
		ActorUserID: actor,
		ActionType:  action,
		EntityType:  entityType,
		EntityID:    entityID,
	}
	if len(metadata) > 0 {
		if raw, err := json.Marshal(metadata); err == nil {
			encoded := string(raw)
			entry.Metadata = &encoded
		} else {
			s.logger.Warn("failed to encode audit metadata", slog.String("action", action), slog.Any("error", err))
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		s.logger.Warn("audit sink closed, record dropped", slog.String("action", action), slog.String("entity_id", entityID.String()))
		return
	}

	select {
	case s.queue <- entry:
	default:
		s.logger.Warn("audit buffer full, record dropped",
			slog.String("action", action),
			slog.String("entity_id", entityID.String()),
			slog.String("request_id", middleware.GetReqID(ctx)),
		)
	}
}

func (s *AuditService) run() {
	defer close(s.done)
	for entry := range s.queue {
		ctx, cancel := context.WithTimeout(context.Background(), auditPersistTimeout)
		err := s.repo.Create(ctx, &entry)
		cancel()

		attrs := []any{
			slog.String("actor", entry.ActorUserID.String()),
			slog.String("action", entry.ActionType),
			slog.String("entity_type", entry.EntityType),
			slog.String("entity_id", entry.EntityID.String()),
		}
		if entry.Metadata != nil {
			attrs = append(attrs, slog.String("metadata", *entry.Metadata))
		}
		if err != nil {
			s.logger.Warn("failed to persist audit record", append(attrs, slog.Any("error", err))...)
			continue
		}
		s.logger.Info("audit", attrs...)
	}
}

// Close stops accepting records and waits until queued ones are persisted.
func (s *AuditService) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		<-s.done
		return
	}
	s.closed = true
	close(s.queue)
	s.mu.Unlock()
	<-s.done
}
