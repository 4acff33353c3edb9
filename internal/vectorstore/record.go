package vectorstore

// MaxSnippetRunes bounds the text kept next to each vector.
const MaxSnippetRunes = 240

// Record is the metadata stored for one vector. Position i of the metadata
// list describes vector i of the index. The JSON keys are the ones external
// tooling expects.
type Record struct {
	TenantID string `json:"company_id"`
	JobID    string `json:"job_id"`
	Kind     Kind   `json:"type"`
	// ChunkIndex is the chunk position within one ingestion call; nil for
	// query documents. It is informational, RecordID is the unique key.
	ChunkIndex  *int   `json:"chunk_id"`
	CreatedAt   int64  `json:"created_at"`
	RecordID    string `json:"embed_id"`
	Snippet     string `json:"snippet"`
	CandidateID string `json:"candidate_id,omitempty"`
}

// Entry pairs a vector with the record describing it.
type Entry struct {
	Vector []float32
	Record Record
}

// Snapshot is a read-only copy of a key's vectors and metadata.
type Snapshot struct {
	Key     Key
	Vectors [][]float32
	Records []Record
}

// Stats describes a key after a write.
type Stats struct {
	IndexPath    string `json:"index_path"`
	MetadataPath string `json:"meta_path"`
	TotalVectors int    `json:"total_vectors"`
}
