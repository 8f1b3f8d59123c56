package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/ikkim/handmade-storefront/internal/app/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SQLPersister keeps each cart in the cart_sessions table.
type SQLPersister struct {
	db *gorm.DB
}

func NewSQLPersister(db *gorm.DB) *SQLPersister {
	return &SQLPersister{db: db}
}

func (p *SQLPersister) Load(ctx context.Context, key string) (State, error) {
	var row model.CartSession
	err := p.db.WithContext(ctx).Where("session_key = ?", storageKey(key)).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return State{}, ErrStateNotFound
	}
	if err != nil {
		return State{}, fmt.Errorf("load cart session failed: %w", err)
	}

	state, err := Decode([]byte(row.Payload))
	if err != nil {
		return State{}, fmt.Errorf("decode cart state failed: %w", err)
	}
	return state, nil
}

func (p *SQLPersister) Save(ctx context.Context, key string, state State) error {
	data, err := Encode(state)
	if err != nil {
		return fmt.Errorf("encode cart state failed: %w", err)
	}

	row := model.CartSession{SessionKey: storageKey(key), Payload: string(data)}
	err = p.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "session_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
		}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("save cart session failed: %w", err)
	}
	return nil
}
