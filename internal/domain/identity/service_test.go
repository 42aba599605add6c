package identity

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"

	"notesync/internal/app/server/crypto"
	"notesync/internal/domain/apperr"
)

// MockRepository is a mock implementation of the Repository interface for testing
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) FindByFingerprintDevice(ctx context.Context, fingerprint, deviceID string) (*Identity, error) {
	args := m.Called(ctx, fingerprint, deviceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Identity), args.Error(1)
}

func (m *MockRepository) FindByUserDevice(ctx context.Context, userID, deviceID string) (*Identity, error) {
	args := m.Called(ctx, userID, deviceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Identity), args.Error(1)
}

func (m *MockRepository) ListByUser(ctx context.Context, userID string) ([]Identity, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]Identity), args.Error(1)
}

func (m *MockRepository) Create(ctx context.Context, identity *Identity) error {
	args := m.Called(ctx, identity)
	if args.Error(0) == nil {
		identity.ID = "identity-1"
	}
	return args.Error(0)
}

func (m *MockRepository) UpdateDisplayName(ctx context.Context, id, displayName string) error {
	args := m.Called(ctx, id, displayName)
	return args.Error(0)
}

func (m *MockRepository) BindUser(ctx context.Context, id, userID string) error {
	args := m.Called(ctx, id, userID)
	return args.Error(0)
}

func (m *MockRepository) Touch(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockRepository) CreateGroup(ctx context.Context, name string) (string, error) {
	args := m.Called(ctx, name)
	return args.String(0), args.Error(1)
}

// fakeTx выполняет fn напрямую
type fakeTx struct {
	calls int
}

func (f *fakeTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	f.calls++
	return fn(ctx)
}

func newTestService(repo Repository) *Service {
	return NewService(repo, &fakeTx{}, slog.Default())
}

func testKey(t *testing.T) *crypto.KeyPair {
	t.Helper()
	kp, err := crypto.GenerateRSAKeyPair(2048)
	require.NoError(t, err)
	return kp
}

func TestService_Register_New(t *testing.T) {
	kp := testKey(t)
	repo := new(MockRepository)
	svc := newTestService(repo)

	repo.On("FindByFingerprintDevice", mock.Anything, kp.Fingerprint, "phone-1").
		Return(nil, fmt.Errorf("select: %w", apperr.ErrNotFound))
	repo.On("CreateGroup", mock.Anything, "group_"+kp.Fingerprint).Return("group-1", nil)
	repo.On("Create", mock.Anything, mock.MatchedBy(func(i *Identity) bool {
		return i.Fingerprint == kp.Fingerprint && i.GroupID == "group-1" && i.DisplayName == "Pixel"
	})).Return(nil)

	id, err := svc.Register(context.Background(), RegisterInput{
		DeviceID:    "phone-1",
		PublicKey:   kp.PublicPEM,
		DisplayName: "Pixel",
	})

	require.NoError(t, err)
	assert.Equal(t, "identity-1", id.ID)
	assert.Equal(t, "group-1", id.GroupID)
	assert.Equal(t, kp.Fingerprint, id.Fingerprint)
	repo.AssertExpectations(t)
}

func TestService_Register_Idempotent(t *testing.T) {
	kp := testKey(t)
	repo := new(MockRepository)
	svc := newTestService(repo)

	existing := &Identity{ID: "identity-7", DeviceID: "phone-1", Fingerprint: kp.Fingerprint, GroupID: "group-7", DisplayName: "Old"}
	repo.On("FindByFingerprintDevice", mock.Anything, kp.Fingerprint, "phone-1").Return(existing, nil)
	repo.On("UpdateDisplayName", mock.Anything, "identity-7", "New").Return(nil)

	id, err := svc.Register(context.Background(), RegisterInput{DeviceID: "phone-1", PublicKey: kp.PublicPEM, DisplayName: "New"})

	require.NoError(t, err)
	assert.Equal(t, "group-7", id.GroupID)
	assert.Equal(t, "New", id.DisplayName)
	repo.AssertNotCalled(t, "CreateGroup", mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestService_Register_ConcurrentDuplicate(t *testing.T) {
	kp := testKey(t)
	repo := new(MockRepository)
	svc := newTestService(repo)

	winner := &Identity{ID: "identity-9", GroupID: "group-9"}
	repo.On("FindByFingerprintDevice", mock.Anything, kp.Fingerprint, "phone-1").
		Return(nil, apperr.ErrNotFound).Once()
	repo.On("CreateGroup", mock.Anything, mock.Anything).Return("group-x", nil)
	repo.On("Create", mock.Anything, mock.Anything).Return(fmt.Errorf("insert: %w", apperr.ErrConflict))
	repo.On("FindByFingerprintDevice", mock.Anything, kp.Fingerprint, "phone-1").Return(winner, nil).Once()

	id, err := svc.Register(context.Background(), RegisterInput{DeviceID: "phone-1", PublicKey: kp.PublicPEM})

	require.NoError(t, err)
	assert.Equal(t, "identity-9", id.ID)
}

func TestService_Register_Validation(t *testing.T) {
	tests := []struct {
		name string
		in   RegisterInput
	}{
		{name: "missing device", in: RegisterInput{PublicKey: "ssh-rsa AAAA"}},
		{name: "missing key", in: RegisterInput{DeviceID: "phone-1"}},
		{name: "garbage key", in: RegisterInput{DeviceID: "phone-1", PublicKey: "hello"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRepository)
			_, err := newTestService(repo).Register(context.Background(), tt.in)

			assert.True(t, apperr.Is(err, apperr.KindValidation))
			repo.AssertNotCalled(t, "FindByFingerprintDevice", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestService_Verify(t *testing.T) {
	kp := testKey(t)
	challenge, err := crypto.NewChallenge()
	require.NoError(t, err)
	sig, err := crypto.SignChallenge(kp.PrivatePEM, challenge)
	require.NoError(t, err)

	stored := &Identity{
		ID:          "identity-1",
		DeviceID:    "phone-1",
		PublicKey:   kp.PublicPEM,
		Fingerprint: kp.Fingerprint,
		GroupID:     "group-1",
		UserID:      "user-1",
	}

	t.Run("valid signature", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("FindByFingerprintDevice", mock.Anything, kp.Fingerprint, "phone-1").Return(stored, nil)
		repo.On("Touch", mock.Anything, "identity-1").Return(nil)

		p, err := newTestService(repo).Verify(context.Background(), Credentials{
			Fingerprint: kp.Fingerprint, DeviceID: "phone-1", Challenge: challenge, Signature: sig,
		})

		require.NoError(t, err)
		assert.Equal(t, "group-1", p.GroupID)
		assert.Equal(t, "user-1", p.UserID)
		assert.True(t, p.HasUser())
		repo.AssertExpectations(t)
	})

	t.Run("touch failure is ignored", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("FindByFingerprintDevice", mock.Anything, kp.Fingerprint, "phone-1").Return(stored, nil)
		repo.On("Touch", mock.Anything, "identity-1").Return(errors.New("db down"))

		_, err := newTestService(repo).Verify(context.Background(), Credentials{
			Fingerprint: kp.Fingerprint, DeviceID: "phone-1", Challenge: challenge, Signature: sig,
		})

		assert.NoError(t, err)
	})

	t.Run("altered challenge", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("FindByFingerprintDevice", mock.Anything, kp.Fingerprint, "phone-1").Return(stored, nil)

		_, err := newTestService(repo).Verify(context.Background(), Credentials{
			Fingerprint: kp.Fingerprint, DeviceID: "phone-1", Challenge: challenge + "x", Signature: sig,
		})

		assert.ErrorIs(t, err, ErrInvalidSignature)
		repo.AssertNotCalled(t, "Touch", mock.Anything, mock.Anything)
	})

	t.Run("unknown identity", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("FindByFingerprintDevice", mock.Anything, "deadbeefdeadbeef", "phone-1").Return(nil, apperr.ErrNotFound)

		_, err := newTestService(repo).Verify(context.Background(), Credentials{
			Fingerprint: "deadbeefdeadbeef", DeviceID: "phone-1", Challenge: challenge, Signature: sig,
		})

		assert.ErrorIs(t, err, ErrUnknownIdentity)
		assert.True(t, apperr.Is(err, apperr.KindAuth))
	})

	t.Run("missing headers", func(t *testing.T) {
		_, err := newTestService(new(MockRepository)).Verify(context.Background(), Credentials{Fingerprint: kp.Fingerprint})
		assert.ErrorIs(t, err, ErrAuthRequired)
	})
}

func TestService_Challenge(t *testing.T) {
	repo := new(MockRepository)
	repo.On("FindByFingerprintDevice", mock.Anything, "fp", "dev").Return(&Identity{GroupID: "group-1"}, nil)
	repo.On("FindByFingerprintDevice", mock.Anything, "fp", "other").Return(nil, apperr.ErrNotFound)
	svc := newTestService(repo)

	res, err := svc.Challenge(context.Background(), "fp", "dev")
	require.NoError(t, err)
	assert.Len(t, res.Challenge, 64)
	assert.Equal(t, "group-1", res.GroupID)

	_, err = svc.Challenge(context.Background(), "fp", "other")
	assert.ErrorIs(t, err, ErrUnknownIdentity)
}

func TestService_Lookup_NotFound(t *testing.T) {
	repo := new(MockRepository)
	repo.On("FindByFingerprintDevice", mock.Anything, "fp", "dev").Return(nil, apperr.ErrNotFound)

	_, err := newTestService(repo).Lookup(context.Background(), "fp", "dev")

	assert.ErrorIs(t, err, ErrNotFound)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}
