package device

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"

	"notesync/internal/app/server/api/http/apierror"
	"notesync/internal/app/server/api/http/middleware/auth"
	"notesync/internal/domain/identity"
	"notesync/internal/domain/pairing"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Request(ctx context.Context, p identity.Principal, targetShareID string) (*pairing.Sent, error) {
	args := m.Called(ctx, p, targetShareID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pairing.Sent), args.Error(1)
}

func (m *MockService) Incoming(ctx context.Context, p identity.Principal) ([]pairing.Incoming, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]pairing.Incoming), args.Error(1)
}

func (m *MockService) Respond(ctx context.Context, p identity.Principal, requestID string, action pairing.Action) (*pairing.Response, error) {
	args := m.Called(ctx, p, requestID, action)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pairing.Response), args.Error(1)
}

func (m *MockService) Paired(ctx context.Context, p identity.Principal) ([]pairing.PairedDevice, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]pairing.PairedDevice), args.Error(1)
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	var se huma.StatusError
	require.ErrorAs(t, err, &se)
	return se.GetStatus()
}

var principal = identity.Principal{DeviceID: "phone", UserID: "user-1", GroupID: "g1", DisplayName: "Pixel"}

func TestHandler_PairRequest(t *testing.T) {
	apierror.Install(true)
	sentAt := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		result     *pairing.Sent
		err        error
		wantStatus int
	}{
		{name: "sent", result: &pairing.Sent{RequestID: "req-1", TargetUser: "bob", SentAt: sentAt}},
		{name: "self", err: pairing.ErrSelfPairing, wantStatus: http.StatusBadRequest},
		{name: "unknown target", err: pairing.ErrTargetNotFound, wantStatus: http.StatusNotFound},
		{name: "duplicate", err: pairing.ErrAlreadyRequested, wantStatus: http.StatusConflict},
		{name: "already paired", err: pairing.ErrAlreadyPaired, wantStatus: http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			h := NewHandler(svc, slog.Default(), nil)
			svc.On("Request", mock.Anything, principal, "bob#a1b2").Return(tt.result, tt.err).Once()

			ctx := auth.WithPrincipal(context.Background(), principal)
			out, err := h.pairRequest(ctx, &pairRequestInput{Body: pairRequestBody{TargetShareID: "bob#a1b2"}})
			svc.AssertExpectations(t)
			if tt.wantStatus != 0 {
				assert.Equal(t, tt.wantStatus, statusOf(t, err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "req-1", out.Body.RequestID)
			assert.Equal(t, "bob", out.Body.TargetUser)
			assert.Equal(t, sentAt, out.Body.SentAt)
		})
	}
}

func TestHandler_Unauthorized(t *testing.T) {
	apierror.Install(true)
	h := NewHandler(new(MockService), slog.Default(), nil)
	ctx := context.Background()

	_, err := h.pairRequest(ctx, &pairRequestInput{})
	assert.Equal(t, http.StatusUnauthorized, statusOf(t, err))
	_, err = h.requests(ctx, nil)
	assert.Equal(t, http.StatusUnauthorized, statusOf(t, err))
	_, err = h.respond(ctx, &respondInput{})
	assert.Equal(t, http.StatusUnauthorized, statusOf(t, err))
	_, err = h.paired(ctx, nil)
	assert.Equal(t, http.StatusUnauthorized, statusOf(t, err))
}

func TestHandler_Requests(t *testing.T) {
	svc := new(MockService)
	h := NewHandler(svc, slog.Default(), nil)
	svc.On("Incoming", mock.Anything, principal).Return([]pairing.Incoming{
		{ID: "req-2", Status: pairing.StatusPending, FromUsername: "bob"},
	}, nil).Once()

	out, err := h.requests(auth.WithPrincipal(context.Background(), principal), nil)
	require.NoError(t, err)
	require.Len(t, out.Body.Requests, 1)
	assert.Equal(t, "bob", out.Body.Requests[0].FromUsername)
}

func TestHandler_Respond(t *testing.T) {
	apierror.Install(true)

	tests := []struct {
		name        string
		action      string
		result      *pairing.Response
		err         error
		wantStatus  int
		wantMessage string
		wantGroup   bool
	}{
		{
			name:        "accept",
			action:      "accept",
			result:      &pairing.Response{RequestID: "req-1", Action: pairing.ActionAccept, SharedGroupID: "shared"},
			wantMessage: "pairing request accepted successfully",
			wantGroup:   true,
		},
		{
			name:        "reject",
			action:      "reject",
			result:      &pairing.Response{RequestID: "req-1", Action: pairing.ActionReject},
			wantMessage: "pairing request rejected successfully",
		},
		{name: "not found", action: "accept", err: pairing.ErrRequestNotFound, wantStatus: http.StatusNotFound},
		{name: "bad action", action: "maybe", err: pairing.ErrInvalidAction, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			h := NewHandler(svc, slog.Default(), nil)
			svc.On("Respond", mock.Anything, principal, "req-1", pairing.Action(tt.action)).Return(tt.result, tt.err).Once()

			ctx := auth.WithPrincipal(context.Background(), principal)
			out, err := h.respond(ctx, &respondInput{RequestID: "req-1", Body: respondBody{Action: tt.action}})
			if tt.wantStatus != 0 {
				assert.Equal(t, tt.wantStatus, statusOf(t, err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantMessage, out.Body.Message)
			assert.Equal(t, tt.action, out.Body.Action)
			if tt.wantGroup {
				require.NotNil(t, out.Body.SharedGroupID)
				assert.Equal(t, "shared", *out.Body.SharedGroupID)
			} else {
				assert.Nil(t, out.Body.SharedGroupID)
			}
		})
	}
}

func TestHandler_Paired(t *testing.T) {
	svc := new(MockService)
	h := NewHandler(svc, slog.Default(), nil)
	svc.On("Paired", mock.Anything, principal).Return([]pairing.PairedDevice{
		{DeviceID: "laptop", DeviceName: "MacBook", Username: "bob"},
	}, nil).Once()

	out, err := h.paired(auth.WithPrincipal(context.Background(), principal), nil)
	require.NoError(t, err)
	require.Len(t, out.Body.PairedDevices, 1)
	assert.Equal(t, "MacBook", out.Body.PairedDevices[0].DeviceName)
}
