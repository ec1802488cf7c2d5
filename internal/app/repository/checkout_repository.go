package repository

import (
	"context"
	"time"

	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/pkg/logger"
	"gorm.io/gorm"
)

type CheckoutRepository interface {
	Create(ctx context.Context, session *model.CheckoutSession) error
	FindByID(ctx context.Context, id uint) (*model.CheckoutSession, error)
	FindByGatewaySessionID(ctx context.Context, gatewayID string) (*model.CheckoutSession, error)
	// FindLatestByKeyBase returns the newest attempt for an idempotency key base.
	FindLatestByKeyBase(ctx context.Context, userID uint, keyBase string) (*model.CheckoutSession, int64, error)
	// Transition moves a session from one status to another and applies
	// fields; it reports false when the session was not in status from.
	Transition(ctx context.Context, id uint, from, to model.CheckoutStatus, fields map[string]interface{}) (bool, error)
	// Confirm marks the session CONFIRMED and writes its order atomically.
	Confirm(ctx context.Context, session *model.CheckoutSession, order *model.Order) (bool, error)
	FindStale(ctx context.Context, statuses []model.CheckoutStatus, olderThan time.Time, limit int) ([]model.CheckoutSession, error)
	FindOrdersByUserID(ctx context.Context, userID uint) ([]model.Order, error)
}

type checkoutRepository struct {
	db *gorm.DB
}

func NewCheckoutRepository(db *gorm.DB) CheckoutRepository {
	return &checkoutRepository{db: db}
}

func (r *checkoutRepository) Create(ctx context.Context, session *model.CheckoutSession) error {
	logger.Debug("Creating checkout session in database", map[string]interface{}{
		"user_id":         session.UserID,
		"kind":            session.Kind,
		"idempotency_key": session.IdempotencyKey,
	})

	if err := r.db.WithContext(ctx).Create(session).Error; err != nil {
		logger.Error("Failed to create checkout session in database", err, map[string]interface{}{
			"user_id": session.UserID,
		})
		return err
	}
	return nil
}

func (r *checkoutRepository) FindByID(ctx context.Context, id uint) (*model.CheckoutSession, error) {
	var session model.CheckoutSession
	if err := r.db.WithContext(ctx).First(&session, id).Error; err != nil {
		logLookupError("Failed to find checkout session by ID", err, map[string]interface{}{
			"checkout_id": id,
		})
		return nil, err
	}
	return &session, nil
}

func (r *checkoutRepository) FindByGatewaySessionID(ctx context.Context, gatewayID string) (*model.CheckoutSession, error) {
	var session model.CheckoutSession
	err := r.db.WithContext(ctx).
		Where("gateway_session_id = ?", gatewayID).
		First(&session).Error
	if err != nil {
		logLookupError("Failed to find checkout session by gateway ID", err, map[string]interface{}{
			"gateway_session_id": gatewayID,
		})
		return nil, err
	}
	return &session, nil
}

func (r *checkoutRepository) FindLatestByKeyBase(ctx context.Context, userID uint, keyBase string) (*model.CheckoutSession, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&model.CheckoutSession{}).
		Where("user_id = ? AND key_base = ?", userID, keyBase)

	var attempts int64
	if err := query.Count(&attempts).Error; err != nil {
		return nil, 0, err
	}
	if attempts == 0 {
		return nil, 0, gorm.ErrRecordNotFound
	}

	var session model.CheckoutSession
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND key_base = ?", userID, keyBase).
		Order("id DESC").
		First(&session).Error
	if err != nil {
		return nil, attempts, err
	}
	return &session, attempts, nil
}

func (r *checkoutRepository) Transition(ctx context.Context, id uint, from, to model.CheckoutStatus, fields map[string]interface{}) (bool, error) {
	updates := map[string]interface{}{
		"status":     to,
		"updated_at": time.Now(),
	}
	for k, v := range fields {
		updates[k] = v
	}

	result := r.db.WithContext(ctx).
		Model(&model.CheckoutSession{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if result.Error != nil {
		logger.Error("Failed to transition checkout session", result.Error, map[string]interface{}{
			"checkout_id": id,
			"from":        from,
			"to":          to,
		})
		return false, result.Error
	}

	logger.Debug("Checkout session transition applied", map[string]interface{}{
		"checkout_id": id,
		"from":        from,
		"to":          to,
		"applied":     result.RowsAffected == 1,
	})
	return result.RowsAffected == 1, nil
}

func (r *checkoutRepository) Confirm(ctx context.Context, session *model.CheckoutSession, order *model.Order) (bool, error) {
	confirmed := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		updates := map[string]interface{}{
			"status":       model.CheckoutStatusConfirmed,
			"confirmed_at": now,
			"updated_at":   now,
		}
		// a session confirmed after a timed-out create learns its gateway ID here
		if session.GatewaySessionID != "" {
			updates["gateway_session_id"] = session.GatewaySessionID
		}
		result := tx.Model(&model.CheckoutSession{}).
			Where("id = ? AND status IN ?", session.ID, []model.CheckoutStatus{
				model.CheckoutStatusPending,
				model.CheckoutStatusOpen,
				model.CheckoutStatusUnknown,
			}).
			Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}

		if err := tx.Create(order).Error; err != nil {
			return err
		}
		confirmed = true
		return nil
	})
	if err != nil {
		logger.Error("Failed to confirm checkout session", err, map[string]interface{}{
			"checkout_id": session.ID,
		})
		return false, err
	}
	return confirmed, nil
}

func (r *checkoutRepository) FindStale(ctx context.Context, statuses []model.CheckoutStatus, olderThan time.Time, limit int) ([]model.CheckoutSession, error) {
	var sessions []model.CheckoutSession
	err := r.db.WithContext(ctx).
		Where("status IN ? AND updated_at < ?", statuses, olderThan).
		Order("updated_at").
		Limit(limit).
		Find(&sessions).Error
	if err != nil {
		logger.Error("Failed to find stale checkout sessions", err)
		return nil, err
	}
	return sessions, nil
}

func (r *checkoutRepository) FindOrdersByUserID(ctx context.Context, userID uint) ([]model.Order, error) {
	var orders []model.Order
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Preload("Items").
		Order("created_at DESC, id DESC").
		Find(&orders).Error
	if err != nil {
		logger.Error("Failed to find orders by user ID", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}
	return orders, nil
}
