package user

import (
	"context"
	"net/url"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"

	"notesync/internal/app/server/api/http/apierror"
	"notesync/internal/app/server/api/http/middleware/auth"
	"notesync/internal/domain/user"
)

type Handler struct {
	service   user.Servicer
	log       *slog.Logger
	public    huma.Middlewares
	protected huma.Middlewares
}

// NewHandler принимает два набора мидлварей: для открытых операций и для операций с подписью
func NewHandler(service user.Servicer, log *slog.Logger, public, protected huma.Middlewares) *Handler {
	return &Handler{
		service:   service,
		log:       log,
		public:    public,
		protected: protected,
	}
}

func (h *Handler) SetupRoutes(api huma.API) {
	huma.Register(api, h.registerOp(), h.register)
	huma.Register(api, h.lookupOp(), h.lookup)
	huma.Register(api, h.devicesOp(), h.devices)
}

func (h *Handler) register(ctx context.Context, input *registerInput) (*registerOutput, error) {
	reg, err := h.service.Register(ctx, user.RegisterRequest{
		Username:   input.Body.Username,
		DeviceName: input.Body.DeviceName,
		PublicKey:  input.Body.PublicKey,
		DeviceID:   input.Body.DeviceID,
	})
	if err != nil {
		return nil, apierror.From(err)
	}

	return &registerOutput{
		Body: registerResponse{
			Message:     "device registered successfully",
			ShareID:     reg.ShareID,
			SyncGroupID: reg.SyncGroupID,
			DeviceID:    reg.DeviceID,
			Fingerprint: reg.Fingerprint,
			User: userSummary{
				Username: reg.Username,
				ShareID:  reg.ShareID,
			},
		},
	}, nil
}

func (h *Handler) lookup(ctx context.Context, input *lookupInput) (*lookupOutput, error) {
	// '#' в share id приходит как %23, роутер может отдать его неразобранным
	shareID := input.ShareID
	if unescaped, err := url.PathUnescape(shareID); err == nil {
		shareID = unescaped
	}

	profile, err := h.service.Lookup(ctx, shareID)
	if err != nil {
		return nil, apierror.From(err)
	}

	return &lookupOutput{
		Body: lookupResponse{
			Username:    profile.Username,
			ShareID:     profile.ShareID,
			MemberSince: profile.MemberSince,
		},
	}, nil
}

func (h *Handler) devices(ctx context.Context, _ *struct{}) (*devicesOutput, error) {
	p, ok := auth.GetPrincipal(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("Unauthorized")
	}

	devices, err := h.service.Devices(ctx, p)
	if err != nil {
		return nil, apierror.From(err)
	}

	items := make([]deviceItem, 0, len(devices))
	for _, d := range devices {
		items = append(items, deviceItem{
			DeviceName:  d.DisplayName,
			DeviceID:    d.DeviceID,
			Fingerprint: d.Fingerprint,
			CreatedAt:   d.CreatedAt,
			LastSeen:    d.LastUsedAt,
		})
	}

	return &devicesOutput{Body: devicesResponse{Devices: items}}, nil
}

