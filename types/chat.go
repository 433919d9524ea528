package types

type ChatRequest struct {
	PdfID    string `json:"pdf_id"`
	Question string `json:"question"`
}

type ChatResponse struct {
	Answer string `json:"answer"`
}

type InsightsRequest struct {
	PdfID string `json:"pdf_id"`
}

// Conversation is the accumulated question/answer log of one document.
type Conversation struct {
	DocumentID string
	History    string
}
