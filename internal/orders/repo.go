package orders

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/stagepass/stagepass-backend/pkg/db/models"
	pkgerrors "github.com/stagepass/stagepass-backend/pkg/errors"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an order snapshot repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, snapshot *models.OrderSnapshot) (*models.OrderSnapshot, error) {
	if err := r.db.WithContext(ctx).Create(snapshot).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order snapshot")
	}
	return snapshot, nil
}

func (r *repository) FindByOrderRef(ctx context.Context, orderRef string) (*models.OrderSnapshot, error) {
	var snapshot models.OrderSnapshot
	err := r.db.WithContext(ctx).
		Where("order_ref = ?", orderRef).
		First(&snapshot).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order snapshot not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find order snapshot")
	}
	return &snapshot, nil
}

func (r *repository) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]models.OrderSnapshot, error) {
	var snapshots []models.OrderSnapshot
	err := r.db.WithContext(ctx).
		Where("cart_session_id = ?", sessionID).
		Order("created_at ASC").
		Find(&snapshots).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list order snapshots")
	}
	return snapshots, nil
}
