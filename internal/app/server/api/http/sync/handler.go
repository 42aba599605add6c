package sync

import (
	"context"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"

	"notesync/internal/app/server/api/http/apierror"
	"notesync/internal/app/server/api/http/middleware/auth"
	"notesync/internal/domain/apperr"
	"notesync/internal/domain/sync"
)

type Handler struct {
	service    sync.Servicer
	log        *slog.Logger
	middleware huma.Middlewares
}

func NewHandler(service sync.Servicer, log *slog.Logger, mws huma.Middlewares) *Handler {
	return &Handler{
		service:    service,
		log:        log,
		middleware: mws,
	}
}

func (h *Handler) SetupRoutes(api huma.API) {
	huma.Register(api, h.notesOp(), h.notes)
	huma.Register(api, h.changesOp(), h.changes)
	huma.Register(api, h.pushOp(), h.push)
}

func (h *Handler) notes(ctx context.Context, _ *struct{}) (*notesOutput, error) {
	p, ok := auth.GetPrincipal(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("Unauthorized")
	}

	notes, cursor, err := h.service.Snapshot(ctx, p)
	if err != nil {
		return nil, apierror.From(err)
	}
	return &notesOutput{Body: notesResponse{Notes: notes, Timestamp: cursor}}, nil
}

func (h *Handler) changes(ctx context.Context, input *changesInput) (*changesOutput, error) {
	p, ok := auth.GetPrincipal(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("Unauthorized")
	}

	var since *time.Time
	if input.Since != "" {
		t, err := time.Parse(time.RFC3339Nano, input.Since)
		if err != nil {
			return nil, apierror.From(apperr.Validation("since must be an RFC3339 timestamp"))
		}
		since = &t
	}

	changes, cursor, err := h.service.Pull(ctx, p, since)
	if err != nil {
		return nil, apierror.From(err)
	}
	return &changesOutput{Body: changesResponse{Changes: fromChanges(changes), Timestamp: cursor}}, nil
}

func (h *Handler) push(ctx context.Context, input *pushInput) (*pushOutput, error) {
	p, ok := auth.GetPrincipal(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("Unauthorized")
	}

	res, err := h.service.Push(ctx, p, toDomainItems(input.Body.Notes))
	if err != nil {
		return nil, apierror.From(err)
	}

	return &pushOutput{
		Body: pushResponse{
			Success:   true,
			Results:   fromResults(res.Results),
			Timestamp: res.Timestamp,
		},
	}, nil
}
