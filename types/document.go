package types

// Segment is a chunk of document text used for targeted retrieval.
type Segment struct {
	Index    int             `json:"index"`
	Content  string          `json:"content"`
	Metadata SegmentMetadata `json:"metadata"`
}

// SegmentMetadata contains metadata information for a segment
type SegmentMetadata struct {
	OwnerID  string `json:"owner_id"`
	Filename string `json:"filename"`
	PageNum  int    `json:"page_num"`
}

// Document is an uploaded statement and the segments derived from it.
type Document struct {
	ID        string     `json:"id"`
	OwnerID   string     `json:"owner_id"`
	Filename  string     `json:"filename"`
	Pages     []PageText `json:"-"`
	Segments  []Segment  `json:"segments"`
	CreatedAt int64      `json:"created_at"`
}

// PageText is the cleaned text of a single PDF page.
type PageText struct {
	PageNum int
	Text    string
}

// ChunkConfig contains configuration options for sentence splitting
type ChunkConfig struct {
	MaxChunkSize int // Maximum tokens per segment
	OverlapSize  int // Tokens carried over between segments
}

type IngestRequest struct {
	OwnerID  string
	Filename string
	Path     string
}
