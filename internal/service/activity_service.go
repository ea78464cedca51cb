package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"foodway/internal/apperror"
	"foodway/internal/model"
	"foodway/internal/repository"

	"github.com/sirupsen/logrus"
)

// Activity actions recorded outside the HTTP activity middleware.
const (
	ActionLogin          = "login"
	ActionLogout         = "logout"
	ActionPasswordChange = "password_change"
	ActionPasswordReset  = "password_reset"
	ActionOrderStatus    = "order_status_update"
)

type ActivityEntry struct {
	UserID       *uint
	RestaurantID *uint
	Action       string
	EntityType   string
	EntityID     *uint
	Details      map[string]any
	IP           string
	UserAgent    string
}

type ActivityResponse struct {
	ID           uint           `json:"id"`
	UserID       *uint          `json:"user_id"`
	RestaurantID *uint          `json:"restaurant_id"`
	Action       string         `json:"action"`
	EntityType   string         `json:"entity_type"`
	EntityID     *uint          `json:"entity_id"`
	Details      map[string]any `json:"details"`
	IPAddress    string         `json:"ip_address"`
	UserAgent    string         `json:"user_agent"`
	CreatedAt    time.Time      `json:"created_at"`
}

// ActivityService records and lists audit rows.
type ActivityService interface {
	// Record writes an entry; failures are logged and swallowed.
	Record(ctx context.Context, entry ActivityEntry)
	ListByUser(ctx context.Context, userID uint, q ListQuery) (*ListResult[ActivityResponse], error)
}

type activityService struct {
	repo repository.ActivityRepository
	log  logrus.FieldLogger
}

func NewActivityService(repo repository.ActivityRepository, log logrus.FieldLogger) ActivityService {
	return &activityService{repo: repo, log: log}
}

func (s *activityService) Record(ctx context.Context, entry ActivityEntry) {
	details := "{}"
	if len(entry.Details) > 0 {
		if raw, err := json.Marshal(entry.Details); err == nil {
			details = string(raw)
		}
	}

	row := &model.ActivityLog{
		UserID:       entry.UserID,
		RestaurantID: entry.RestaurantID,
		Action:       entry.Action,
		EntityType:   entry.EntityType,
		EntityID:     entry.EntityID,
		Details:      details,
		IPAddress:    entry.IP,
		UserAgent:    entry.UserAgent,
	}
	if err := s.repo.Log(ctx, row); err != nil {
		s.log.WithError(err).WithField("action", entry.Action).Warn("failed to record activity")
	}
}

func (s *activityService) ListByUser(ctx context.Context, userID uint, q ListQuery) (*ListResult[ActivityResponse], error) {
	params := q.params(20)
	logs, total, err := s.repo.ListByUser(ctx, userID, pageOf(params))
	if err != nil {
		return nil, apperror.FromDB(err, "")
	}

	items := make([]ActivityResponse, 0, len(logs))
	for _, l := range logs {
		details := map[string]any{}
		if l.Details != "" {
			if err := json.Unmarshal([]byte(l.Details), &details); err != nil {
				return nil, fmt.Errorf("failed to decode activity details: %w", err)
			}
		}
		items = append(items, ActivityResponse{
			ID:           l.ID,
			UserID:       l.UserID,
			RestaurantID: l.RestaurantID,
			Action:       l.Action,
			EntityType:   l.EntityType,
			EntityID:     l.EntityID,
			Details:      details,
			IPAddress:    l.IPAddress,
			UserAgent:    l.UserAgent,
			CreatedAt:    l.CreatedAt,
		})
	}
	return &ListResult[ActivityResponse]{Items: items, Pagination: params.Meta(total)}, nil
}
