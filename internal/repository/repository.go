package repository

import (
	"context"
	"time"

	"github.com/coastwatch/coastal-hazard-alerts/internal/models"
)

type Filter struct {
	Limit      int
	Since      *time.Time
	HazardType *models.HazardType
	Level      *models.AlertLevel
	MinLevel   *models.AlertLevel // >= this level (e.g., ORANGE includes ORANGE and RED)
}

type AlertRepository interface {
	Add(ctx context.Context, a *models.Alert) error
	GetByID(ctx context.Context, id string) (*models.Alert, error)
	ListAlerts(ctx context.Context, opts Filter) ([]models.Alert, error)
	CountAlerts(ctx context.Context) (int, error)
}
