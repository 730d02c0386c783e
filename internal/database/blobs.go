package database

import (
	"encoding/json"
	"time"

	"go-pos-ledger/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Blob is one persisted collection snapshot: the products list, the customer
// ledger, the transaction history, and so on, each stored whole as JSON.
// Whole-snapshot writes keep the store trivially consistent with the engine's
// read-modify-write-the-full-collection model.
type Blob struct {
	ScopeID   string    `gorm:"primaryKey;size:64"`
	Key       string    `gorm:"primaryKey;size:32"`
	Data      []byte    `gorm:"type:blob"`
	UpdatedAt time.Time
}

// Store adapts the gorm connection to the persistence fan-out. It is the one
// destination that must not be debounced: it is the shop's source of truth
// across restarts.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Name() string { return "local" }

func (s *Store) Debounce() time.Duration { return 0 }

func (s *Store) Write(scopeID, key string, data []byte) error {
	blob := Blob{ScopeID: scopeID, Key: key, Data: data, UpdatedAt: time.Now()}
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "scope_id"}, {Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
	}).Create(&blob).Error
}

func (s *Store) Read(scopeID, key string) ([]byte, error) {
	var blob Blob
	// Struct condition so the dialect quotes the columns; KEY is a reserved
	// word on MySQL and a raw string condition would not survive there.
	err := s.db.Where(&Blob{ScopeID: scopeID, Key: key}).First(&blob).Error
	if err != nil {
		return nil, err
	}
	return blob.Data, nil
}

// LoadBackup reads whatever collections the store has for a shop into a
// backup envelope, ready to seed the engine at boot. Missing or unreadable
// collections are simply left nil, which the importer treats as "untouched".
func (s *Store) LoadBackup(scopeID string) models.Backup {
	var b models.Backup

	load := func(key string, dst any) {
		data, err := s.Read(scopeID, key)
		if err != nil {
			return
		}
		_ = json.Unmarshal(data, dst)
	}

	load("products", &b.Products)
	load("customers", &b.Customers)
	load("transactions", &b.Transactions)
	load("categories", &b.Categories)
	load("chargeRules", &b.ChargeRules)
	return b
}
