package sync

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

var signature = []map[string][]string{{"signature": {}}}

func (h *Handler) notesOp() huma.Operation {
	return huma.Operation{
		OperationID: "sync-notes",
		Method:      http.MethodGet,
		Path:        "/sync/notes",
		Summary:     "Все заметки группы",
		Description: "Полный снимок для первичной синхронизации, сначала свежие.",
		Tags:        []string{"sync"},
		Security:    signature,
		Middlewares: h.middleware,
	}
}

func (h *Handler) changesOp() huma.Operation {
	return huma.Operation{
		OperationID: "sync-changes",
		Method:      http.MethodGet,
		Path:        "/sync/changes",
		Summary:     "Изменения после since",
		Description: "События других устройств группы в порядке журнала.",
		Tags:        []string{"sync"},
		Security:    signature,
		Middlewares: h.middleware,
	}
}

func (h *Handler) pushOp() huma.Operation {
	return huma.Operation{
		OperationID: "sync-push",
		Method:      http.MethodPost,
		Path:        "/sync/push",
		Summary:     "Отправить пакет изменений",
		Description: "Пакет применяется в одной транзакции, результат по каждому элементу.",
		Tags:        []string{"sync"},
		Security:    signature,
		Middlewares: h.middleware,
	}
}
