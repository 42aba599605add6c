package image

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

var signature = []map[string][]string{{"signature": {}}}

func (h *Handler) uploadOp() huma.Operation {
	return huma.Operation{
		OperationID:  "images-upload",
		Method:       http.MethodPost,
		Path:         "/images/upload",
		Summary:      "Загрузить изображение",
		Description:  h.uploadDescription(),
		Tags:         []string{"images"},
		MaxBodyBytes: h.bodyLimit(),
		Security:     signature,
		Middlewares:  h.middleware,
	}
}

func (h *Handler) uploadURLOp() huma.Operation {
	return huma.Operation{
		OperationID: "images-upload-url",
		Method:      http.MethodPost,
		Path:        "/images/upload-url",
		Summary:     "Получить ссылку для прямой загрузки",
		Tags:        []string{"images"},
		Security:    signature,
		Middlewares: h.middleware,
	}
}

func (h *Handler) listOp() huma.Operation {
	return huma.Operation{
		OperationID: "images-list",
		Method:      http.MethodGet,
		Path:        "/images/note/{noteId}",
		Summary:     "Изображения заметки",
		Tags:        []string{"images"},
		Security:    signature,
		Middlewares: h.middleware,
	}
}

func (h *Handler) deleteOp() huma.Operation {
	return huma.Operation{
		OperationID: "images-delete",
		Method:      http.MethodDelete,
		Path:        "/images/{imageId}",
		Summary:     "Удалить изображение",
		Tags:        []string{"images"},
		Security:    signature,
		Middlewares: h.middleware,
	}
}
