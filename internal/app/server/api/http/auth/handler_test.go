package auth

import (
	"context"
	"net/http"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"

	"notesync/internal/app/server/api/http/apierror"
	"notesync/internal/domain/identity"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Register(ctx context.Context, in identity.RegisterInput) (*identity.Identity, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.Identity), args.Error(1)
}

func (m *MockService) Lookup(ctx context.Context, fingerprint, deviceID string) (*identity.Identity, error) {
	args := m.Called(ctx, fingerprint, deviceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.Identity), args.Error(1)
}

func (m *MockService) Challenge(ctx context.Context, fingerprint, deviceID string) (identity.ChallengeResult, error) {
	args := m.Called(ctx, fingerprint, deviceID)
	return args.Get(0).(identity.ChallengeResult), args.Error(1)
}

func (m *MockService) Verify(ctx context.Context, creds identity.Credentials) (identity.Principal, error) {
	args := m.Called(ctx, creds)
	return args.Get(0).(identity.Principal), args.Error(1)
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	var se huma.StatusError
	require.ErrorAs(t, err, &se)
	return se.GetStatus()
}

func TestHandler_Register(t *testing.T) {
	apierror.Install(true)

	t.Run("success", func(t *testing.T) {
		svc := new(MockService)
		h := NewHandler(svc, slog.Default(), nil)
		svc.On("Register", mock.Anything, identity.RegisterInput{DeviceID: "phone", PublicKey: "pem", DisplayName: "Pixel"}).
			Return(&identity.Identity{DeviceID: "phone", Fingerprint: "fp", GroupID: "g-1"}, nil).Once()

		input := &registerInput{}
		input.Body = registerRequest{PublicKey: "pem", DeviceID: "phone", DeviceName: "Pixel"}
		out, err := h.register(context.Background(), input)
		require.NoError(t, err)
		assert.Equal(t, "fp", out.Body.Fingerprint)
		assert.Equal(t, "g-1", out.Body.GroupID)
		svc.AssertExpectations(t)
	})

	t.Run("invalid key", func(t *testing.T) {
		svc := new(MockService)
		h := NewHandler(svc, slog.Default(), nil)
		svc.On("Register", mock.Anything, mock.Anything).Return(nil, identity.ValidatePublicKey("not a key")).Once()

		_, err := h.register(context.Background(), &registerInput{})
		assert.Equal(t, http.StatusBadRequest, statusOf(t, err))
	})
}

func TestHandler_ChallengeAndVerify(t *testing.T) {
	apierror.Install(true)

	tests := []struct {
		name       string
		setup      func(svc *MockService)
		call       func(h *Handler) error
		wantStatus int
	}{
		{
			name: "challenge issued",
			setup: func(svc *MockService) {
				svc.On("Challenge", mock.Anything, "fp", "dev").Return(identity.ChallengeResult{Challenge: "abc", GroupID: "g"}, nil)
			},
			call: func(h *Handler) error {
				out, err := h.challenge(context.Background(), &challengeInput{Body: challengeRequest{Fingerprint: "fp", DeviceID: "dev"}})
				if err == nil && out.Body.Challenge != "abc" {
					t.Fatalf("unexpected challenge %q", out.Body.Challenge)
				}
				return err
			},
		},
		{
			name: "challenge for unknown key",
			setup: func(svc *MockService) {
				svc.On("Challenge", mock.Anything, "fp", "dev").Return(identity.ChallengeResult{}, identity.ErrUnknownIdentity)
			},
			call: func(h *Handler) error {
				_, err := h.challenge(context.Background(), &challengeInput{Body: challengeRequest{Fingerprint: "fp", DeviceID: "dev"}})
				return err
			},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "verify ok",
			setup: func(svc *MockService) {
				svc.On("Verify", mock.Anything, identity.Credentials{Fingerprint: "fp", DeviceID: "dev", Challenge: "c", Signature: "s"}).
					Return(identity.Principal{GroupID: "g"}, nil)
			},
			call: func(h *Handler) error {
				out, err := h.verify(context.Background(), &verifyInput{Body: verifyRequest{Fingerprint: "fp", DeviceID: "dev", Challenge: "c", Signature: "s"}})
				if err == nil && !out.Body.Success {
					t.Fatal("expected success")
				}
				return err
			},
		},
		{
			name: "verify bad signature",
			setup: func(svc *MockService) {
				svc.On("Verify", mock.Anything, mock.Anything).Return(identity.Principal{}, identity.ErrInvalidSignature)
			},
			call: func(h *Handler) error {
				_, err := h.verify(context.Background(), &verifyInput{})
				return err
			},
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setup(svc)
			err := tt.call(NewHandler(svc, slog.Default(), nil))
			if tt.wantStatus == 0 {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, tt.wantStatus, statusOf(t, err))
		})
	}
}
