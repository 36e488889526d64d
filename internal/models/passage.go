package models

// Passage is one retrievable span of extracted document text.
type Passage struct {
	Content        string
	SourceFilename string
	PageNumber     int
	ChunkID        int
}

// PassageEmbedding pairs a passage with its embedding vector.
type PassageEmbedding struct {
	Passage
	Embedding []float32
}

// Evaluation is the structured verdict for a claim query.
type Evaluation struct {
	Decision      string `json:"decision"`
	Amount        string `json:"amount"`
	Justification string `json:"justification"`
}

const (
	DecisionApproved = "Approved"
	DecisionRejected = "Rejected"
	AmountNone       = "Not Applicable"
)
