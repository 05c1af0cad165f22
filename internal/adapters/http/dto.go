package httpadapter

import (
	"github.com/propertyiq/taxbill-ocr/internal/core/domain"
)

// extractionResponse is the fixed-shape success payload: every field carries
// the normalized value or the "not found" sentinel, never a missing key.
type extractionResponse struct {
	Owner     string             `json:"owner"`
	Address   string             `json:"address"`
	TaxYear   string             `json:"tax_year"`
	AmountDue string             `json:"amount_due"`
	DueDate   string             `json:"due_date"`
	Metadata  extractionMetadata `json:"metadata"`
}

type extractionMetadata struct {
	PageCount    int   `json:"page_count"`
	SkippedPages []int `json:"skipped_pages"`
}

type failureResponse struct {
	Stage  string `json:"stage"`
	Reason string `json:"reason"`
}

func newExtractionResponse(result *domain.Result) extractionResponse {
	skipped := result.SkippedPages
	if skipped == nil {
		skipped = []int{}
	}
	return extractionResponse{
		Owner:     result.Fields.Render(domain.FieldOwner),
		Address:   result.Fields.Render(domain.FieldAddress),
		TaxYear:   result.Fields.Render(domain.FieldTaxYear),
		AmountDue: result.Fields.Render(domain.FieldAmountDue),
		DueDate:   result.Fields.Render(domain.FieldDueDate),
		Metadata: extractionMetadata{
			PageCount:    result.PageCount,
			SkippedPages: skipped,
		},
	}
}
