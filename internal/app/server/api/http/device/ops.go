package device

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

var signature = []map[string][]string{{"signature": {}}}

func (h *Handler) pairRequestOp() huma.Operation {
	return huma.Operation{
		OperationID:   "devices-pair-request",
		Method:        http.MethodPost,
		Path:          "/devices/pair-request",
		Summary:       "Отправить запрос на сопряжение",
		Tags:          []string{"devices"},
		DefaultStatus: http.StatusCreated,
		Security:      signature,
		Middlewares:   h.middleware,
	}
}

func (h *Handler) requestsOp() huma.Operation {
	return huma.Operation{
		OperationID: "devices-requests",
		Method:      http.MethodGet,
		Path:        "/devices/requests",
		Summary:     "Входящие запросы на сопряжение",
		Description: "Только запросы в статусе pending, сначала новые.",
		Tags:        []string{"devices"},
		Security:    signature,
		Middlewares: h.middleware,
	}
}

func (h *Handler) respondOp() huma.Operation {
	return huma.Operation{
		OperationID: "devices-respond",
		Method:      http.MethodPost,
		Path:        "/devices/requests/{requestId}/respond",
		Summary:     "Принять или отклонить запрос",
		Description: "Принятие объединяет группы обоих пользователей в одну общую.",
		Tags:        []string{"devices"},
		Security:    signature,
		Middlewares: h.middleware,
	}
}

func (h *Handler) pairedOp() huma.Operation {
	return huma.Operation{
		OperationID: "devices-paired",
		Method:      http.MethodGet,
		Path:        "/devices/paired",
		Summary:     "Сопряженные устройства других пользователей",
		Tags:        []string{"devices"},
		Security:    signature,
		Middlewares: h.middleware,
	}
}
