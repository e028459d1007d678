// Package store persists the operator profile and local session counters
// in a sqlite file next to the binary. These records are display-only;
// the session lifecycle and the alert scheduler never read them.
package store

import (
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const recentKept = 10

// Profile is the operator's display card.
type Profile struct {
	ID         string `gorm:"primaryKey;type:varchar(36)"`
	Name       string
	Email      string
	JoinedDate time.Time
}

// Stats is a single-row record of local counters.
type Stats struct {
	ID            uint `gorm:"primaryKey"`
	TotalSessions int
	TotalSales    decimal.Decimal `gorm:"type:decimal(20,2)"`
	LastActive    time.Time
}

// RecentSession is one line of the recent-session list shown on the
// profile screen.
type RecentSession struct {
	ID           string `gorm:"primaryKey;type:varchar(36)"`
	CustomerName string
	DeviceName   string
	Price        decimal.Decimal `gorm:"type:decimal(20,2)"`
	ClosedAt     time.Time       `gorm:"index"`
}

func (r *RecentSession) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return
}

type Store struct {
	db *gorm.DB
}

// Open migrates the schema and seeds default records on first run.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&Profile{}, &Stats{}, &RecentSession{}); err != nil {
		return nil, err
	}

	s := &Store{db: db}
	if err := s.seedDefaults(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) seedDefaults() error {
	var count int64
	s.db.Model(&Profile{}).Count(&count)
	if count == 0 {
		p := Profile{
			ID:         "1",
			Name:       "Demo User",
			Email:      "demo@crossplay.shop",
			JoinedDate: time.Now(),
		}
		if err := s.db.Create(&p).Error; err != nil {
			return err
		}
	}

	s.db.Model(&Stats{}).Count(&count)
	if count == 0 {
		st := Stats{ID: 1, TotalSales: decimal.Zero, LastActive: time.Now()}
		if err := s.db.Create(&st).Error; err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) Profile() (Profile, error) {
	var p Profile
	err := s.db.First(&p).Error
	return p, err
}

func (s *Store) SaveProfile(p Profile) error {
	return s.db.Save(&p).Error
}

func (s *Store) Stats() (Stats, error) {
	var st Stats
	err := s.db.First(&st, "id = ?", 1).Error
	return st, err
}

// RecordSessionOpened bumps the local counter after a successful add.
func (s *Store) RecordSessionOpened() error {
	return s.db.Model(&Stats{}).Where("id = ?", 1).Updates(map[string]interface{}{
		"total_sessions": gorm.Expr("total_sessions + 1"),
		"last_active":    time.Now(),
	}).Error
}

// RecordSessionClosed adds the final price to the sales counter and
// pushes the session onto the recent list, keeping only the newest few.
func (s *Store) RecordSessionClosed(customerName, deviceName string, price decimal.Decimal) error {
	st, err := s.Stats()
	if err != nil {
		return err
	}

	err = s.db.Model(&Stats{}).Where("id = ?", 1).Updates(map[string]interface{}{
		"total_sales": st.TotalSales.Add(price),
		"last_active": time.Now(),
	}).Error
	if err != nil {
		return err
	}

	recent := RecentSession{
		CustomerName: customerName,
		DeviceName:   deviceName,
		Price:        price,
		ClosedAt:     time.Now(),
	}
	if err := s.db.Create(&recent).Error; err != nil {
		return err
	}
	return s.trimRecent()
}

func (s *Store) trimRecent() error {
	newest := s.db.Model(&RecentSession{}).
		Select("id").
		Order("closed_at desc").
		Limit(recentKept)
	return s.db.Delete(&RecentSession{}, "id NOT IN (?)", newest).Error
}

func (s *Store) RecentSessions(limit int) ([]RecentSession, error) {
	var out []RecentSession
	err := s.db.Order("closed_at desc").Limit(limit).Find(&out).Error
	return out, err
}
