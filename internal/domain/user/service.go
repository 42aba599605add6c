package user

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/exp/slog"

	"notesync/internal/app/server/crypto"
	"notesync/internal/domain/apperr"
	"notesync/internal/domain/identity"
	"notesync/internal/infrastructure/storage"
)

const shareIDAttempts = 5

type Servicer interface {
	Register(ctx context.Context, req RegisterRequest) (*Registration, error)
	Lookup(ctx context.Context, shareID string) (*Profile, error)
	Devices(ctx context.Context, p identity.Principal) ([]identity.Identity, error)
}

// ShareIDFunc генерирует share id для имени пользователя
type ShareIDFunc func(username string) (string, error)

type Service struct {
	repo       Repository
	identities identity.Repository
	tx         storage.Transactor
	validator  Validator
	shareID    ShareIDFunc
	log        *slog.Logger
}

func NewService(repo Repository, identities identity.Repository, tx storage.Transactor, validator Validator, log *slog.Logger) *Service {
	return &Service{
		repo:       repo,
		identities: identities,
		tx:         tx,
		validator:  validator,
		shareID:    GenerateShareID,
		log:        log.With(slog.String("component", "user")),
	}
}

// GenerateShareID возвращает username# и четыре случайных символа base64 в нижнем регистре
func GenerateShareID(username string) (string, error) {
	b := make([]byte, 3)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("share id: %w", err)
	}
	suffix := strings.NewReplacer("+", "", "/", "", "=", "").Replace(base64.StdEncoding.EncodeToString(b))
	return username + "#" + strings.ToLower(suffix), nil
}

func (s *Service) Register(ctx context.Context, req RegisterRequest) (*Registration, error) {
	if err := s.validator.ValidateRegister(req); err != nil {
		s.log.Debug("validation failed", slog.String("username", req.Username), slog.String("error", err.Error()))
		return nil, err
	}
	if err := identity.ValidatePublicKey(req.PublicKey); err != nil {
		return nil, err
	}

	fingerprint := crypto.Fingerprint(req.PublicKey)
	reg := &Registration{
		Username:    req.Username,
		DeviceID:    req.DeviceID,
		Fingerprint: fingerprint,
	}

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		u, created, err := s.findOrCreate(ctx, req.Username)
		if err != nil {
			return err
		}
		reg.UserID, reg.ShareID, reg.NewUser = u.ID, u.ShareID, created

		_, err = s.identities.FindByUserDevice(ctx, u.ID, req.DeviceID)
		switch {
		case err == nil:
			return ErrDeviceExists
		case !errors.Is(err, apperr.ErrNotFound):
			return fmt.Errorf("find user device: %w", err)
		}

		existing, err := s.identities.FindByFingerprintDevice(ctx, fingerprint, req.DeviceID)
		switch {
		case err == nil:
			if existing.UserID != "" {
				return ErrKeyBoundElsewhere
			}
			if err := s.identities.BindUser(ctx, existing.ID, u.ID); err != nil {
				return fmt.Errorf("bind device: %w", err)
			}
			if err := s.identities.UpdateDisplayName(ctx, existing.ID, req.DeviceName); err != nil {
				return fmt.Errorf("update device: %w", err)
			}
			reg.SyncGroupID = existing.GroupID
			return nil
		case !errors.Is(err, apperr.ErrNotFound):
			return fmt.Errorf("find identity: %w", err)
		}

		groupID, err := s.identities.CreateGroup(ctx, identity.GroupName(fingerprint))
		if err != nil {
			return fmt.Errorf("create group: %w", err)
		}
		if err := s.identities.Create(ctx, &identity.Identity{
			DeviceID:    req.DeviceID,
			PublicKey:   req.PublicKey,
			Fingerprint: fingerprint,
			DisplayName: req.DeviceName,
			GroupID:     groupID,
			UserID:      u.ID,
		}); err != nil {
			return fmt.Errorf("create identity: %w", err)
		}
		reg.SyncGroupID = groupID
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("user device registered",
		slog.String("username", reg.Username),
		slog.String("share_id", reg.ShareID),
		slog.String("device_id", reg.DeviceID),
		slog.Bool("new_user", reg.NewUser),
	)
	return reg, nil
}

// findOrCreate переиспользует существующего пользователя или создает нового.
// Коллизия share id повторяется до shareIDAttempts раз.
func (s *Service) findOrCreate(ctx context.Context, username string) (*User, bool, error) {
	u, err := s.repo.FindByUsername(ctx, username)
	if err == nil {
		return u, false, nil
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return nil, false, fmt.Errorf("find user: %w", err)
	}

	for attempt := 0; attempt < shareIDAttempts; attempt++ {
		shareID, err := s.shareID(username)
		if err != nil {
			return nil, false, err
		}

		u, err := s.repo.Create(ctx, username, shareID)
		if err == nil {
			return u, true, nil
		}
		if !errors.Is(err, apperr.ErrConflict) {
			return nil, false, fmt.Errorf("create user: %w", err)
		}

		// конфликт по username означает параллельную регистрацию того же имени
		if u, err := s.repo.FindByUsername(ctx, username); err == nil {
			return u, false, nil
		}
		s.log.Debug("share id collision", slog.String("share_id", shareID))
	}

	return nil, false, ErrShareIDExhausted
}

func (s *Service) Lookup(ctx context.Context, shareID string) (*Profile, error) {
	u, err := s.repo.FindByShareID(ctx, shareID)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &Profile{
		Username:    u.Username,
		ShareID:     u.ShareID,
		MemberSince: u.CreatedAt,
	}, nil
}

func (s *Service) Devices(ctx context.Context, p identity.Principal) ([]identity.Identity, error) {
	if !p.HasUser() {
		return nil, ErrNoUser
	}
	devices, err := s.identities.ListByUser(ctx, p.UserID)
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	return devices, nil
}
