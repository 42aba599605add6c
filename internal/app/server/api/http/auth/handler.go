package auth

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"

	"notesync/internal/app/server/api/http/apierror"
	"notesync/internal/domain/identity"
)

type Handler struct {
	service    identity.Servicer
	log        *slog.Logger
	middleware huma.Middlewares
}

func NewHandler(service identity.Servicer, log *slog.Logger, mws huma.Middlewares) *Handler {
	return &Handler{
		service:    service,
		log:        log,
		middleware: mws,
	}
}

func (h *Handler) SetupRoutes(api huma.API) {
	huma.Register(api, h.registerOp(), h.register)
	huma.Register(api, h.challengeOp(), h.challenge)
	huma.Register(api, h.verifyOp(), h.verify)
}

func (h *Handler) register(ctx context.Context, input *registerInput) (*registerOutput, error) {
	id, err := h.service.Register(ctx, identity.RegisterInput{
		DeviceID:    input.Body.DeviceID,
		PublicKey:   input.Body.PublicKey,
		DisplayName: input.Body.DeviceName,
	})
	if err != nil {
		return nil, apierror.From(err)
	}

	return &registerOutput{
		Body: registerResponse{
			Message:     "device registered",
			Fingerprint: id.Fingerprint,
			GroupID:     id.GroupID,
			DeviceID:    id.DeviceID,
		},
	}, nil
}

func (h *Handler) challenge(ctx context.Context, input *challengeInput) (*challengeOutput, error) {
	res, err := h.service.Challenge(ctx, input.Body.Fingerprint, input.Body.DeviceID)
	if err != nil {
		return nil, apierror.From(err)
	}

	return &challengeOutput{
		Body: challengeResponse{
			Challenge: res.Challenge,
			GroupID:   res.GroupID,
		},
	}, nil
}

func (h *Handler) verify(ctx context.Context, input *verifyInput) (*verifyOutput, error) {
	p, err := h.service.Verify(ctx, identity.Credentials{
		Fingerprint: input.Body.Fingerprint,
		DeviceID:    input.Body.DeviceID,
		Challenge:   input.Body.Challenge,
		Signature:   input.Body.Signature,
	})
	if err != nil {
		return nil, apierror.From(err)
	}

	return &verifyOutput{
		Body: verifyResponse{
			Success: true,
			GroupID: p.GroupID,
			Message: "authentication successful",
		},
	}, nil
}
