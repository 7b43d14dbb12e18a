package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/phenrril/marketplace/internal/domain"
)

// TxManager abre una transacción de base por unidad de trabajo.
type TxManager struct{ db *gorm.DB }

func NewTxManager(db *gorm.DB) *TxManager { return &TxManager{db: db} }

func (m *TxManager) Do(ctx context.Context, fn func(ctx context.Context, uow domain.UnitOfWork) error) error {
	tx := m.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return fmt.Errorf("iniciar transacción: %w", tx.Error)
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(ctx, &unitOfWork{tx: tx}); err != nil {
		if rbErr := tx.Rollback().Error; rbErr != nil {
			log.Error().Err(rbErr).Msg("falló rollback")
		}
		return err
	}
	if err := tx.Commit().Error; err != nil {
		if isUniqueViolation(err) {
			return domain.Conflict("concurrent write conflict, retry")
		}
		return fmt.Errorf("confirmar transacción: %w", err)
	}
	return nil
}

type unitOfWork struct{ tx *gorm.DB }

func (u *unitOfWork) Products() domain.ProductRepo  { return NewProductRepo(u.tx) }
func (u *unitOfWork) Addresses() domain.AddressRepo { return NewAddressRepo(u.tx) }
func (u *unitOfWork) Orders() domain.OrderRepo      { return NewOrderRepo(u.tx) }

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}
