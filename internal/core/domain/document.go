package domain

// Document is the raw byte content of one uploaded PDF. It is owned by a
// single pipeline invocation and discarded when that invocation completes.
type Document struct {
	ID       string
	Filename string
	Size     int64
	Data     []byte
}

// PageImage is one rasterized page, encoded as PNG. Index is the zero-based
// page position in the source document; concatenation downstream relies on it.
type PageImage struct {
	Index  int
	PNG    []byte
	Width  int
	Height int
	DPI    int
}

// PageText is the raw OCR output for one page, aligned with PageImage.Index.
type PageText struct {
	Index int
	Text  string
}

// Result is the final pipeline output for one document.
type Result struct {
	Fields FieldSet
	// PageCount is the number of pages the rasterizer produced.
	PageCount int
	// SkippedPages lists zero-based indices of pages whose text extraction
	// failed and was skipped, in ascending order. Empty on a clean run.
	SkippedPages []int
}
