package user

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

var signature = []map[string][]string{{"signature": {}}}

func (h *Handler) registerOp() huma.Operation {
	return huma.Operation{
		OperationID:   "users-register",
		Method:        http.MethodPost,
		Path:          "/users/register",
		Summary:       "Регистрация пользователя и устройства",
		Description:   "Создает пользователя, если имя новое, и привязывает к нему ключ устройства.",
		Tags:          []string{"users"},
		DefaultStatus: http.StatusCreated,
		Middlewares:   h.public,
	}
}

func (h *Handler) lookupOp() huma.Operation {
	return huma.Operation{
		OperationID: "users-lookup",
		Method:      http.MethodGet,
		Path:        "/users/lookup/{shareId}",
		Summary:     "Найти пользователя по Share ID",
		Tags:        []string{"users"},
		Middlewares: h.public,
	}
}

func (h *Handler) devicesOp() huma.Operation {
	return huma.Operation{
		OperationID: "users-devices",
		Method:      http.MethodGet,
		Path:        "/users/devices",
		Summary:     "Устройства текущего пользователя",
		Tags:        []string{"users"},
		Security:    signature,
		Middlewares: h.protected,
	}
}
