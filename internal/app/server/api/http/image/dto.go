package image

import (
	"github.com/danielgtaylor/huma/v2"

	"notesync/internal/domain/attachment"
)

type uploadForm struct {
	Image  huma.FormFile `form:"image" doc:"Файл изображения, тип определяется по содержимому"`
	NoteID string        `form:"noteId" doc:"ID заметки, к которой относится изображение"`
}

type uploadInput struct {
	RawBody huma.MultipartFormFiles[uploadForm]
}

type uploadOutput struct {
	Body uploadResponse
}

type uploadResponse struct {
	Success bool             `json:"success"`
	Image   attachment.Image `json:"image"`
}

type uploadURLInput struct {
	Body uploadURLRequest
}

type uploadURLRequest struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	NoteID      string `json:"noteId,omitempty"`
}

type uploadURLOutput struct {
	Body uploadURLResponse
}

type uploadURLResponse struct {
	UploadURL   string `json:"uploadUrl"`
	StoragePath string `json:"storagePath"`
	// FilePath то же, что StoragePath, для старых клиентов
	FilePath  string `json:"filePath"`
	ExpiresIn int    `json:"expiresIn"`
}

type listInput struct {
	NoteID string `path:"noteId"`
}

type listOutput struct {
	Body listResponse
}

type listResponse struct {
	Images []attachment.Image `json:"images"`
}

type deleteInput struct {
	ImageID string `path:"imageId"`
}

type deleteOutput struct {
	Body deleteResponse
}

type deleteResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
