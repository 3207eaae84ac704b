package auth

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/avikal/sahaay/internal/model"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is the single failure result for the senior login
// path. Wrong PIN and unknown phone both map here so the response can't be
// used to probe which guardians exist.
var ErrInvalidCredentials = errors.New("invalid PIN or credentials")

type guardianLookup interface {
	GetByPhone(phone string) (*model.Guardian, error)
	GetByPhoneDigits(digits string) (*model.Guardian, error)
}

type seniorLookup interface {
	ListForGuardian(guardianID int64) ([]model.Senior, error)
	GetPINHash(id int64) (string, error)
}

// Validator resolves a guardian phone + senior PIN pair to a senior profile.
type Validator struct {
	guardians guardianLookup
	seniors   seniorLookup
	logger    *slog.Logger
}

func NewValidator(guardians guardianLookup, seniors seniorLookup, logger *slog.Logger) *Validator {
	return &Validator{guardians: guardians, seniors: seniors, logger: logger}
}

// ValidPIN reports whether the code is exactly 4 numeric digits.
func ValidPIN(pin string) bool {
	if len(pin) != 4 {
		return false
	}
	for _, c := range pin {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// NormalizePhone strips everything but digits. The result must be at least 10
// digits to be usable.
func NormalizePhone(phone string) string {
	var b strings.Builder
	for _, c := range phone {
		if c >= '0' && c <= '9' {
			b.WriteByte(byte(c))
		}
	}
	return b.String()
}

// Validate checks the phone and PIN locally, then resolves the guardian and
// bcrypt-compares the PIN against each linked senior. The phone lookup is
// tried raw first and digits-only second; guardian phones were historically
// stored in whatever format the onboarding form received.
func (v *Validator) Validate(phone, pin string) (*model.SeniorProfile, error) {
	if !ValidPIN(pin) {
		return nil, ErrInvalidCredentials
	}
	digits := NormalizePhone(phone)
	if len(digits) < 10 {
		return nil, ErrInvalidCredentials
	}

	guardian, err := v.guardians.GetByPhone(phone)
	if err != nil {
		v.logger.Error("guardian phone lookup", "error", err)
		return nil, ErrInvalidCredentials
	}
	if guardian == nil {
		guardian, err = v.guardians.GetByPhoneDigits(digits)
		if err != nil {
			v.logger.Error("guardian phone digits lookup", "error", err)
			return nil, ErrInvalidCredentials
		}
	}
	if guardian == nil {
		return nil, ErrInvalidCredentials
	}

	seniors, err := v.seniors.ListForGuardian(guardian.ID)
	if err != nil {
		v.logger.Error("list seniors for guardian", "guardian_id", guardian.ID, "error", err)
		return nil, ErrInvalidCredentials
	}

	for _, sr := range seniors {
		if !sr.Active || !sr.HasPIN {
			continue
		}
		hash, err := v.seniors.GetPINHash(sr.ID)
		if err != nil {
			v.logger.Error("get pin hash", "senior_id", sr.ID, "error", err)
			continue
		}
		if hash == "" {
			continue
		}
		if bcrypt.CompareHashAndPassword([]byte(hash), []byte(pin)) == nil {
			return &model.SeniorProfile{
				SeniorID:   sr.ID,
				Name:       sr.Name,
				PhotoKey:   sr.PhotoKey,
				GuardianID: guardian.ID,
			}, nil
		}
	}

	return nil, ErrInvalidCredentials
}
