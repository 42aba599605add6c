package device

import (
	"context"
	"fmt"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"

	"notesync/internal/app/server/api/http/apierror"
	"notesync/internal/app/server/api/http/middleware/auth"
	"notesync/internal/domain/pairing"
)

type Handler struct {
	service    pairing.Servicer
	log        *slog.Logger
	middleware huma.Middlewares
}

func NewHandler(service pairing.Servicer, log *slog.Logger, mws huma.Middlewares) *Handler {
	return &Handler{
		service:    service,
		log:        log,
		middleware: mws,
	}
}

func (h *Handler) SetupRoutes(api huma.API) {
	huma.Register(api, h.pairRequestOp(), h.pairRequest)
	huma.Register(api, h.requestsOp(), h.requests)
	huma.Register(api, h.respondOp(), h.respond)
	huma.Register(api, h.pairedOp(), h.paired)
}

func (h *Handler) pairRequest(ctx context.Context, input *pairRequestInput) (*pairRequestOutput, error) {
	p, ok := auth.GetPrincipal(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("Unauthorized")
	}

	sent, err := h.service.Request(ctx, p, input.Body.TargetShareID)
	if err != nil {
		return nil, apierror.From(err)
	}

	return &pairRequestOutput{
		Body: pairRequestResponse{
			Message:    "pairing request sent successfully",
			RequestID:  sent.RequestID,
			TargetUser: sent.TargetUser,
			SentAt:     sent.SentAt,
		},
	}, nil
}

func (h *Handler) requests(ctx context.Context, _ *struct{}) (*requestsOutput, error) {
	p, ok := auth.GetPrincipal(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("Unauthorized")
	}

	requests, err := h.service.Incoming(ctx, p)
	if err != nil {
		return nil, apierror.From(err)
	}
	return &requestsOutput{Body: requestsResponse{Requests: requests}}, nil
}

func (h *Handler) respond(ctx context.Context, input *respondInput) (*respondOutput, error) {
	p, ok := auth.GetPrincipal(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("Unauthorized")
	}

	resp, err := h.service.Respond(ctx, p, input.RequestID, pairing.Action(input.Body.Action))
	if err != nil {
		return nil, apierror.From(err)
	}

	out := &respondOutput{
		Body: respondResponse{
			Message: fmt.Sprintf("pairing request %sed successfully", resp.Action),
			Action:  string(resp.Action),
		},
	}
	if resp.SharedGroupID != "" {
		out.Body.SharedGroupID = &resp.SharedGroupID
	}
	return out, nil
}

func (h *Handler) paired(ctx context.Context, _ *struct{}) (*pairedOutput, error) {
	p, ok := auth.GetPrincipal(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("Unauthorized")
	}

	devices, err := h.service.Paired(ctx, p)
	if err != nil {
		return nil, apierror.From(err)
	}
	return &pairedOutput{Body: pairedResponse{PairedDevices: devices}}, nil
}
