package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "esarbank/internal/errors"
	"esarbank/internal/models"
)

// loginService keeps the per-email sign-in history.
type loginService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewLoginService creates a new LoginServicer.
func NewLoginService(db *gorm.DB) LoginServicer {
	return &loginService{db: db, now: time.Now}
}

// RecordLogin appends a sign-in to the history of email. LastLogin holds the
// previous sign-in so the user can be shown when they were last here; on the
// first sign-in it is the current time.
func (s *loginService) RecordLogin(ctx context.Context, email string) (*models.LoginDetail, error) {
	email = strings.ToLower(email)
	now := s.now().UTC()

	var detail models.LoginDetail
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("email = ?", email).First(&detail).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			detail = models.LoginDetail{
				Email:         email,
				LastLogin:     now,
				LoginAttempts: 1,
				LoginTimes:    []time.Time{now},
			}
			return tx.Create(&detail).Error
		}
		if err != nil {
			return err
		}

		if n := len(detail.LoginTimes); n > 0 {
			detail.LastLogin = detail.LoginTimes[n-1]
		} else {
			detail.LastLogin = now
		}
		detail.LoginAttempts++
		detail.LoginTimes = append(detail.LoginTimes, now)
		return tx.Save(&detail).Error
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &detail, nil
}

// GetLastLogin returns the stored last-login time for email.
func (s *loginService) GetLastLogin(ctx context.Context, email string) (time.Time, error) {
	var detail models.LoginDetail
	if err := s.db.WithContext(ctx).Where("email = ?", strings.ToLower(email)).First(&detail).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return time.Time{}, apperrors.ErrLoginDetailsNotFound
		}
		return time.Time{}, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return detail.LastLogin, nil
}
