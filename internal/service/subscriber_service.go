package service

import (
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/pressroom/internal/db"
	"gorm.io/gorm"
)

// SubscriberService manages newsletter subscriptions keyed by email.
type SubscriberService struct {
	db *gorm.DB
}

// NewSubscriberService creates a SubscriberService instance.
func NewSubscriberService(gdb *gorm.DB) *SubscriberService {
	return &SubscriberService{db: gdb}
}

// Subscribe registers email, reactivating an earlier unsubscribed record.
func (s *SubscriberService) Subscribe(email string) (*db.Subscriber, error) {
	email, err := NormalizeEmail(email)
	if err != nil {
		return nil, err
	}

	var subscriber db.Subscriber
	err = s.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("email = ?", email).First(&subscriber).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			subscriber = db.Subscriber{Email: email, Active: true}
			return tx.Create(&subscriber).Error
		case err != nil:
			return err
		}

		result := tx.Model(&db.Subscriber{}).
			Where("id = ? AND active = ?", subscriber.ID, false).
			Updates(map[string]interface{}{"active": true, "updated_at": time.Now()})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrAlreadySubscribed
		}
		return tx.First(&subscriber, "id = ?", subscriber.ID).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrAlreadySubscribed
		}
		return nil, err
	}
	return &subscriber, nil
}

// Unsubscribe deactivates email. Unsubscribing an inactive record succeeds.
// An address that could never have subscribed is reported as not found.
func (s *SubscriberService) Unsubscribe(email string) error {
	if strings.TrimSpace(email) == "" {
		return invalid("email", "is required")
	}
	email, err := NormalizeEmail(email)
	if err != nil {
		return ErrSubscriberNotFound
	}

	result := s.db.Model(&db.Subscriber{}).
		Where("email = ?", email).
		Updates(map[string]interface{}{"active": false, "updated_at": time.Now()})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrSubscriberNotFound
	}
	return nil
}

// ListActive returns active subscribers, newest first.
func (s *SubscriberService) ListActive() ([]db.Subscriber, error) {
	return s.list(s.db.Where("active = ?", true))
}

// ListAll returns every subscriber record regardless of state.
func (s *SubscriberService) ListAll() ([]db.Subscriber, error) {
	return s.list(s.db)
}

// ActiveCount returns the number of active subscribers.
func (s *SubscriberService) ActiveCount() (int64, error) {
	var count int64
	err := s.db.Model(&db.Subscriber{}).Where("active = ?", true).Count(&count).Error
	return count, err
}

func (s *SubscriberService) list(query *gorm.DB) ([]db.Subscriber, error) {
	subscribers := make([]db.Subscriber, 0)
	if err := query.Order("created_at desc").Order("id asc").Find(&subscribers).Error; err != nil {
		return nil, err
	}
	return subscribers, nil
}

// NormalizeEmail trims and lower-cases an address and checks that it is a
// bare address without a display name.
func NormalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return "", invalid("email", "is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", invalid("email", "is not a valid address")
	}
	return email, nil
}
