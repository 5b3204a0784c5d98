package orders

import (
	"context"

	"github.com/google/uuid"
	"github.com/stagepass/stagepass-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository defines persistence operations for order snapshots.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, snapshot *models.OrderSnapshot) (*models.OrderSnapshot, error)
	FindByOrderRef(ctx context.Context, orderRef string) (*models.OrderSnapshot, error)
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]models.OrderSnapshot, error)
}
