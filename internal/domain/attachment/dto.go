package attachment

type UploadInput struct {
	NoteID      string
	Filename    string
	ContentType string
	Data        []byte
}

type UploadURLInput struct {
	Filename    string
	ContentType string
	NoteID      string
}

// UploadURL ссылка для прямой загрузки в хранилище
type UploadURL struct {
	UploadURL   string
	StoragePath string
	ExpiresIn   int
}
