package pairing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/exp/slog"

	"notesync/internal/domain/apperr"
	"notesync/internal/domain/identity"
	"notesync/internal/domain/sync"
	"notesync/internal/domain/user"
	"notesync/internal/infrastructure/storage"
)

type Servicer interface {
	Request(ctx context.Context, p identity.Principal, targetShareID string) (*Sent, error)
	Incoming(ctx context.Context, p identity.Principal) ([]Incoming, error)
	Respond(ctx context.Context, p identity.Principal, requestID string, action Action) (*Response, error)
	Paired(ctx context.Context, p identity.Principal) ([]PairedDevice, error)
}

// Users поиск целевого пользователя по share id
type Users interface {
	FindByShareID(ctx context.Context, shareID string) (*user.User, error)
}

type Service struct {
	repo     Repository
	users    Users
	tx       storage.Transactor
	notifier sync.ChangeNotifier
	log      *slog.Logger
	newID    func() string
}

func NewService(repo Repository, users Users, tx storage.Transactor, notifier sync.ChangeNotifier, log *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		users:    users,
		tx:       tx,
		notifier: notifier,
		log:      log.With(slog.String("component", "pairing")),
		newID:    uuid.NewString,
	}
}

func (s *Service) Request(ctx context.Context, p identity.Principal, targetShareID string) (*Sent, error) {
	if !p.HasUser() {
		return nil, ErrNoUser
	}
	targetShareID = strings.TrimSpace(targetShareID)
	if targetShareID == "" {
		return nil, ErrTargetRequired
	}

	target, err := s.users.FindByShareID(ctx, targetShareID)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, ErrTargetNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find target user: %w", err)
	}
	if target.ID == p.UserID {
		return nil, ErrSelfPairing
	}

	pending, err := s.repo.HasPending(ctx, p.IdentityID, target.ID)
	if err != nil {
		return nil, fmt.Errorf("check pending request: %w", err)
	}
	if pending {
		return nil, ErrAlreadyRequested
	}

	paired, err := s.repo.EdgeExists(ctx, p.IdentityID, target.ID)
	if err != nil {
		return nil, fmt.Errorf("check pairing: %w", err)
	}
	if paired {
		return nil, ErrAlreadyPaired
	}

	req := &Request{FromDevice: p.IdentityID, FromUserID: p.UserID, ToUser: target.ID, Status: StatusPending}
	if err := s.repo.CreateRequest(ctx, req); err != nil {
		// параллельный дубль отсекается частичным уникальным индексом
		if errors.Is(err, apperr.ErrConflict) {
			return nil, ErrAlreadyRequested
		}
		return nil, fmt.Errorf("create pairing request: %w", err)
	}

	s.log.Info("pairing request sent",
		slog.String("request_id", req.ID),
		slog.String("from_device", p.IdentityID),
		slog.String("to_user", target.ID),
	)
	return &Sent{RequestID: req.ID, TargetUser: target.Username, SentAt: req.CreatedAt}, nil
}

func (s *Service) Incoming(ctx context.Context, p identity.Principal) ([]Incoming, error) {
	if !p.HasUser() {
		return nil, ErrNoUser
	}
	requests, err := s.repo.Incoming(ctx, p.UserID)
	if err != nil {
		return nil, fmt.Errorf("list pairing requests: %w", err)
	}
	return requests, nil
}

func (s *Service) Respond(ctx context.Context, p identity.Principal, requestID string, action Action) (*Response, error) {
	if !action.Valid() {
		return nil, ErrInvalidAction
	}
	if !p.HasUser() {
		return nil, ErrNoUser
	}
	if _, err := uuid.Parse(requestID); err != nil {
		return nil, ErrRequestNotFound
	}

	resp := &Response{RequestID: requestID, Action: action}
	var vacated []string

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		req, err := s.repo.LockPending(ctx, requestID, p.UserID)
		if errors.Is(err, apperr.ErrNotFound) {
			return ErrRequestNotFound
		}
		if err != nil {
			return fmt.Errorf("lock pairing request: %w", err)
		}

		if action == ActionReject {
			return s.repo.SetStatus(ctx, req.ID, StatusRejected)
		}

		shared, groups, err := s.merge(ctx, req)
		if err != nil {
			return err
		}
		resp.SharedGroupID = shared
		vacated = groups
		return s.repo.SetStatus(ctx, req.ID, StatusAccepted)
	})
	if err != nil {
		if !apperr.Is(err, apperr.KindNotFound) {
			s.log.Error("pairing response failed", slog.String("request_id", requestID), slog.String("error", err.Error()))
		}
		return nil, err
	}

	if action == ActionAccept && s.notifier != nil {
		// клиенты, подписанные на старые группы, узнают о переезде
		for _, g := range vacated {
			s.notifier.NotifyGroup(g, p.DeviceID)
		}
		s.notifier.NotifyGroup(resp.SharedGroupID, p.DeviceID)
	}

	s.log.Info("pairing request answered",
		slog.String("request_id", requestID),
		slog.String("action", string(action)),
		slog.String("shared_group_id", resp.SharedGroupID),
	)
	return resp, nil
}

// merge сводит устройства обоих пользователей и все их текущие группы в одну новую
func (s *Service) merge(ctx context.Context, req *Request) (string, []string, error) {
	shared := s.newID()
	if err := s.repo.CreateGroup(ctx, shared, SharedGroupName(shared)); err != nil {
		return "", nil, fmt.Errorf("create shared group: %w", err)
	}

	from, err := s.repo.DevicesOfUser(ctx, req.FromUserID)
	if err != nil {
		return "", nil, fmt.Errorf("list requester devices: %w", err)
	}
	to, err := s.repo.DevicesOfUser(ctx, req.ToUser)
	if err != nil {
		return "", nil, fmt.Errorf("list target devices: %w", err)
	}

	edges := 0
	for _, a := range from {
		for _, b := range to {
			created, err := s.repo.CreateEdge(ctx, a, b, shared)
			if err != nil {
				return "", nil, fmt.Errorf("create edge: %w", err)
			}
			if created {
				edges++
			}
		}
	}

	groups, err := s.repo.GroupsOfUsers(ctx, req.FromUserID, req.ToUser)
	if err != nil {
		return "", nil, fmt.Errorf("list current groups: %w", err)
	}

	moved, err := s.repo.MoveDevices(ctx, groups, shared)
	if err != nil {
		return "", nil, fmt.Errorf("move devices: %w", err)
	}
	if err := s.repo.Rehome(ctx, groups, shared); err != nil {
		return "", nil, fmt.Errorf("rehome group content: %w", err)
	}
	if err := s.repo.DeleteGroups(ctx, groups, shared); err != nil {
		return "", nil, fmt.Errorf("delete vacated groups: %w", err)
	}

	s.log.Debug("groups merged",
		slog.String("shared_group_id", shared),
		slog.Int("edges", edges),
		slog.Int64("devices", moved),
		slog.Int("vacated", len(groups)),
	)
	return shared, groups, nil
}

func (s *Service) Paired(ctx context.Context, p identity.Principal) ([]PairedDevice, error) {
	if !p.HasUser() {
		return nil, ErrNoUser
	}
	devices, err := s.repo.Paired(ctx, p.UserID)
	if err != nil {
		return nil, fmt.Errorf("list paired devices: %w", err)
	}
	return devices, nil
}

