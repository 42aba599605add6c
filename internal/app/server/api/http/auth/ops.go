package auth

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (h *Handler) registerOp() huma.Operation {
	return huma.Operation{
		OperationID: "auth-register",
		Method:      http.MethodPost,
		Path:        "/auth/register",
		Summary:     "Регистрация ключа устройства",
		Description: "Идемпотентна для пары (fingerprint, deviceId). Первая регистрация создает отдельную группу.",
		Tags:        []string{"auth"},
		Middlewares: h.middleware,
	}
}

func (h *Handler) challengeOp() huma.Operation {
	return huma.Operation{
		OperationID: "auth-challenge",
		Method:      http.MethodPost,
		Path:        "/auth/challenge",
		Summary:     "Получить challenge для подписи",
		Tags:        []string{"auth"},
		Middlewares: h.middleware,
	}
}

func (h *Handler) verifyOp() huma.Operation {
	return huma.Operation{
		OperationID: "auth-verify",
		Method:      http.MethodPost,
		Path:        "/auth/verify",
		Summary:     "Проверить подпись challenge",
		Tags:        []string{"auth"},
		Middlewares: h.middleware,
	}
}
