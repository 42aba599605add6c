package image

import (
	"context"
	"fmt"
	"io"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"

	"notesync/internal/app/server/api/http/apierror"
	"notesync/internal/app/server/api/http/middleware/auth"
	"notesync/internal/domain/attachment"
)

// запас на заголовки multipart сверх размера файла
const formOverhead = 1 << 20

type Handler struct {
	service    attachment.Servicer
	log        *slog.Logger
	middleware huma.Middlewares
	maxBytes   int64
}

func NewHandler(service attachment.Servicer, log *slog.Logger, mws huma.Middlewares, maxBytes int64) *Handler {
	return &Handler{
		service:    service,
		log:        log,
		middleware: mws,
		maxBytes:   maxBytes,
	}
}

func (h *Handler) SetupRoutes(api huma.API) {
	huma.Register(api, h.uploadOp(), h.upload)
	huma.Register(api, h.uploadURLOp(), h.uploadURL)
	huma.Register(api, h.listOp(), h.list)
	huma.Register(api, h.deleteOp(), h.delete)
}

func (h *Handler) upload(ctx context.Context, input *uploadInput) (*uploadOutput, error) {
	p, ok := auth.GetPrincipal(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("Unauthorized")
	}

	form := input.RawBody.Data()
	if form == nil || !form.Image.IsSet {
		return nil, apierror.From(attachment.ErrNoFile)
	}
	defer form.Image.Close()

	// на байт больше лимита, чтобы сервис увидел превышение
	data, err := io.ReadAll(io.LimitReader(form.Image, h.maxBytes+1))
	if err != nil {
		h.log.Warn("read upload failed", slog.String("error", err.Error()))
		return nil, huma.Error400BadRequest("cannot read image file")
	}

	img, err := h.service.Upload(ctx, p, attachment.UploadInput{
		NoteID:      form.NoteID,
		Filename:    form.Image.Filename,
		ContentType: form.Image.ContentType,
		Data:        data,
	})
	if err != nil {
		return nil, apierror.From(err)
	}

	return &uploadOutput{Body: uploadResponse{Success: true, Image: *img}}, nil
}

func (h *Handler) uploadURL(ctx context.Context, input *uploadURLInput) (*uploadURLOutput, error) {
	p, ok := auth.GetPrincipal(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("Unauthorized")
	}

	u, err := h.service.UploadURL(ctx, p, attachment.UploadURLInput{
		Filename:    input.Body.Filename,
		ContentType: input.Body.ContentType,
		NoteID:      input.Body.NoteID,
	})
	if err != nil {
		return nil, apierror.From(err)
	}

	return &uploadURLOutput{
		Body: uploadURLResponse{
			UploadURL:   u.UploadURL,
			StoragePath: u.StoragePath,
			FilePath:    u.StoragePath,
			ExpiresIn:   u.ExpiresIn,
		},
	}, nil
}

func (h *Handler) list(ctx context.Context, input *listInput) (*listOutput, error) {
	p, ok := auth.GetPrincipal(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("Unauthorized")
	}

	images, err := h.service.List(ctx, p, input.NoteID)
	if err != nil {
		return nil, apierror.From(err)
	}
	if images == nil {
		images = []attachment.Image{}
	}
	return &listOutput{Body: listResponse{Images: images}}, nil
}

func (h *Handler) delete(ctx context.Context, input *deleteInput) (*deleteOutput, error) {
	p, ok := auth.GetPrincipal(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("Unauthorized")
	}

	if err := h.service.Delete(ctx, p, input.ImageID); err != nil {
		return nil, apierror.From(err)
	}

	h.log.Debug("image deleted", slog.String("image_id", input.ImageID), slog.String("group_id", p.GroupID))
	return &deleteOutput{Body: deleteResponse{Success: true, Message: "image deleted successfully"}}, nil
}

func (h *Handler) bodyLimit() int64 {
	return h.maxBytes + formOverhead
}

func (h *Handler) uploadDescription() string {
	return fmt.Sprintf("multipart/form-data: поле image (до %d байт), необязательное noteId.", h.maxBytes)
}
