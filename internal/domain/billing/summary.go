package billing

import "errors"

// SyncSummary reports the outcome of one sync run over a batch of documents.
type SyncSummary struct {
	PDFCount                int      `json:"pdf_count"`
	FilesProcessed          int      `json:"files_processed"`
	FilesFailed             int      `json:"files_failed"`
	FailedFiles             []string `json:"failed_files"`
	RowsParsed              int      `json:"rows_parsed"`
	DistinctReferencesFound int      `json:"distinct_references_found"`
	Created                 int      `json:"created"`
	Skipped                 int      `json:"skipped"`
	CreatedReferences       []string `json:"created_references"`
}

// NewSyncSummary returns a summary for n documents with non-nil slices,
// so an empty run still encodes as [] rather than null.
func NewSyncSummary(n int) *SyncSummary {
	return &SyncSummary{
		PDFCount:          n,
		FailedFiles:       []string{},
		CreatedReferences: []string{},
	}
}

const (
	DefaultListLimit = 50
	MaxListLimit     = 200
)

// ErrInvalidListParams is returned for out-of-range paging values.
var ErrInvalidListParams = errors.New("invalid list parameters")

// ListParams pages through bills ordered by creation time.
type ListParams struct {
	Offset         int
	Limit          int
	IncludeDeleted bool
	OrderDesc      bool
}

// DefaultListParams returns the first page, newest first.
func DefaultListParams() ListParams {
	return ListParams{Limit: DefaultListLimit, OrderDesc: true}
}

// Validate checks offset >= 0 and 1 <= limit <= MaxListLimit.
func (p ListParams) Validate() error {
	if p.Offset < 0 {
		return errors.Join(ErrInvalidListParams, errors.New("offset must be >= 0"))
	}
	if p.Limit < 1 || p.Limit > MaxListLimit {
		return errors.Join(ErrInvalidListParams, errors.New("limit must be between 1 and 200"))
	}
	return nil
}
