package apierror

import (
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"notesync/internal/domain/apperr"
)

// Body тело любой ошибки API: {"error": "...", "details": [...]}
type Body struct {
	Status  int      `json:"-"`
	Message string   `json:"error" example:"invalid push batch"`
	Details []string `json:"details,omitempty"`
}

func (b *Body) Error() string {
	return b.Message
}

func (b *Body) GetStatus() int {
	return b.Status
}

// Install подменяет конструктор ошибок huma. Ошибки валидации схемы отдаются как 400,
// подробности внутренних ошибок скрываются, если exposeDetails выключен.
func Install(exposeDetails bool) {
	huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
		if status == http.StatusUnprocessableEntity {
			status = http.StatusBadRequest
		}

		body := &Body{Status: status, Message: msg}
		if status >= http.StatusInternalServerError && !exposeDetails {
			return body
		}
		for _, err := range errs {
			if err != nil {
				body.Details = append(body.Details, err.Error())
			}
		}
		return body
	}
}

// From переводит ошибку домена в ответ с нужным статусом
func From(err error) error {
	if err == nil {
		return nil
	}

	var se huma.StatusError
	if errors.As(err, &se) {
		return se
	}

	kind := apperr.KindOf(err)
	if kind == apperr.KindInternal {
		return huma.NewError(http.StatusInternalServerError, "internal server error", err)
	}

	msg := defaultMessage(kind)
	var ae *apperr.Error
	if errors.As(err, &ae) {
		msg = ae.Error()
	}

	details := apperr.DetailsOf(err)
	errs := make([]error, 0, len(details))
	for _, d := range details {
		errs = append(errs, errors.New(d))
	}
	return huma.NewError(kind.HTTPStatus(), msg, errs...)
}

func defaultMessage(kind apperr.Kind) string {
	switch kind {
	case apperr.KindNotFound:
		return "resource not found"
	case apperr.KindConflict:
		return "resource already exists"
	case apperr.KindAuth:
		return "unauthorized"
	default:
		return "invalid request"
	}
}

// StatusOf статус и текст ответа для ошибки, которую нужно записать вручную
func StatusOf(err error) (int, string) {
	var se huma.StatusError
	if errors.As(From(err), &se) {
		return se.GetStatus(), se.Error()
	}
	return http.StatusInternalServerError, "internal server error"
}
