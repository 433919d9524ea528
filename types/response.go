package types

type ErrorResponse struct {
	Error string `json:"error"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type UploadResponse struct {
	Message string `json:"message"`
	PdfID   string `json:"pdf_id"`
}

type FilesResponse struct {
	UserID string   `json:"user_id"`
	Files  []string `json:"files"`
}
