package dto

// AddKnowledgeRequest ingests documents into the global or per-user corpus.
type AddKnowledgeRequest struct {
	Documents []KnowledgeDocument `json:"documents" validate:"required,min=1,dive"`
	Personal  bool                `json:"personal,omitempty"` // true → caller's namespace instead of global
}

type KnowledgeDocument struct {
	Content  string `json:"content" validate:"required"`
	Filename string `json:"filename,omitempty"`
}

type AddKnowledgeResponse struct {
	Queued int `json:"queued"`
}

// DeleteKnowledgeRequest removes chunks from the caller's private namespace.
type DeleteKnowledgeRequest struct {
	Ids []string `json:"ids" validate:"required,min=1"`
}

// IngestKnowledgeMessage is the async ingestion payload published to the
// in-process queue and consumed by the ingestion worker.
type IngestKnowledgeMessage struct {
	Namespace string              `json:"namespace"`
	Documents []KnowledgeDocument `json:"documents"`
}

type SemanticSearchResult struct {
	Content    string                 `json:"content"`
	Score      float32                `json:"score"` // distance, lower is closer
	Collection string                 `json:"collection"`
	Metadata   map[string]interface{} `json:"metadata"`
}
