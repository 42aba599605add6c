package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/exp/slog"

	"notesync/internal/app/server/crypto"
	"notesync/internal/domain/apperr"
	"notesync/internal/infrastructure/storage"
)

type Servicer interface {
	// Register идемпотентна по (fingerprint, deviceId)
	Register(ctx context.Context, in RegisterInput) (*Identity, error)
	Lookup(ctx context.Context, fingerprint, deviceID string) (*Identity, error)
	Challenge(ctx context.Context, fingerprint, deviceID string) (ChallengeResult, error)
	Verify(ctx context.Context, creds Credentials) (Principal, error)
}

type Service struct {
	repo Repository
	tx   storage.Transactor
	log  *slog.Logger
}

func NewService(repo Repository, tx storage.Transactor, log *slog.Logger) *Service {
	return &Service{
		repo: repo,
		tx:   tx,
		log:  log.With(slog.String("component", "identity")),
	}
}

// ValidatePublicKey проверяет, что ключ можно разобрать
func ValidatePublicKey(publicKey string) error {
	if strings.TrimSpace(publicKey) == "" {
		return ErrPublicKeyMissing
	}
	if _, err := crypto.ParsePublicKey(publicKey); err != nil {
		return apperr.Wrap(apperr.KindValidation, err, "invalid public key format")
	}
	return nil
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (*Identity, error) {
	if strings.TrimSpace(in.DeviceID) == "" {
		return nil, ErrDeviceIDRequired
	}
	if err := ValidatePublicKey(in.PublicKey); err != nil {
		return nil, err
	}

	fingerprint := crypto.Fingerprint(in.PublicKey)

	var result *Identity
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		existing, err := s.repo.FindByFingerprintDevice(ctx, fingerprint, in.DeviceID)
		switch {
		case err == nil:
			if err := s.repo.UpdateDisplayName(ctx, existing.ID, in.DisplayName); err != nil {
				return fmt.Errorf("update identity: %w", err)
			}
			existing.DisplayName = in.DisplayName
			result = existing
			return nil
		case !errors.Is(err, apperr.ErrNotFound):
			return fmt.Errorf("find identity: %w", err)
		}

		groupID, err := s.repo.CreateGroup(ctx, GroupName(fingerprint))
		if err != nil {
			return fmt.Errorf("create group: %w", err)
		}

		created := &Identity{
			DeviceID:    in.DeviceID,
			PublicKey:   in.PublicKey,
			Fingerprint: fingerprint,
			DisplayName: in.DisplayName,
			GroupID:     groupID,
		}
		if err := s.repo.Create(ctx, created); err != nil {
			return fmt.Errorf("create identity: %w", err)
		}
		result = created
		return nil
	})

	// параллельная регистрация того же ключа выиграла гонку
	if errors.Is(err, apperr.ErrConflict) {
		s.log.Debug("concurrent registration, reading existing identity",
			slog.String("fingerprint", fingerprint),
			slog.String("device_id", in.DeviceID),
		)
		return s.repo.FindByFingerprintDevice(ctx, fingerprint, in.DeviceID)
	}
	if err != nil {
		return nil, err
	}

	s.log.Info("device registered",
		slog.String("fingerprint", fingerprint),
		slog.String("device_id", in.DeviceID),
		slog.String("group_id", result.GroupID),
	)
	return result, nil
}

func (s *Service) Lookup(ctx context.Context, fingerprint, deviceID string) (*Identity, error) {
	id, err := s.repo.FindByFingerprintDevice(ctx, fingerprint, deviceID)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return id, nil
}

func (s *Service) Challenge(ctx context.Context, fingerprint, deviceID string) (ChallengeResult, error) {
	if fingerprint == "" || deviceID == "" {
		return ChallengeResult{}, ErrAuthRequired
	}

	id, err := s.repo.FindByFingerprintDevice(ctx, fingerprint, deviceID)
	if errors.Is(err, apperr.ErrNotFound) {
		return ChallengeResult{}, ErrUnknownIdentity
	}
	if err != nil {
		return ChallengeResult{}, err
	}

	challenge, err := crypto.NewChallenge()
	if err != nil {
		return ChallengeResult{}, err
	}

	return ChallengeResult{Challenge: challenge, GroupID: id.GroupID}, nil
}

func (s *Service) Verify(ctx context.Context, creds Credentials) (Principal, error) {
	if !creds.Complete() {
		return Principal{}, ErrAuthRequired
	}

	id, err := s.repo.FindByFingerprintDevice(ctx, creds.Fingerprint, creds.DeviceID)
	if errors.Is(err, apperr.ErrNotFound) {
		return Principal{}, ErrUnknownIdentity
	}
	if err != nil {
		return Principal{}, err
	}

	if err := crypto.VerifySignature(id.PublicKey, creds.Challenge, creds.Signature); err != nil {
		s.log.Debug("signature rejected",
			slog.String("fingerprint", creds.Fingerprint),
			slog.String("device_id", creds.DeviceID),
			slog.String("reason", err.Error()),
		)
		return Principal{}, ErrInvalidSignature
	}

	if err := s.repo.Touch(ctx, id.ID); err != nil {
		s.log.Warn("failed to update last used", slog.String("identity_id", id.ID), slog.String("error", err.Error()))
	}

	return id.Principal(), nil
}
