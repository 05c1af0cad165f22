// Package redaction post-processes extracted fields so that precise street
// locations never leave the service: the street number and unit are replaced
// with a fixed placeholder while city, state, and zip are kept verbatim.
package redaction

import (
	"regexp"
	"strings"

	"github.com/propertyiq/taxbill-ocr/internal/core/domain"
)

// Placeholder replaces the masked address portions.
const Placeholder = "[REDACTED]"

var (
	// Leading street number, including letter suffixes and ranges: "123",
	// "123B", "123-125".
	streetNumberRE = regexp.MustCompile(`^\d+[A-Za-z]?(?:[-/]\d+[A-Za-z]?)?\b`)
	// Unit designators anywhere in the address: "Apt 4B", "Unit #2", "# 12".
	unitRE = regexp.MustCompile(`(?i)\b(?:apt|apartment|unit|suite|ste|bldg)\.?[ \t]*#?[ \t]*[0-9A-Za-z\-]+|#[ \t]*[0-9A-Za-z\-]+`)
)

// Redactor is a pure post-processing step; it performs no I/O and cannot
// fail. Account-number suppression applies only to free-text fields, and the
// fixed five-field output has none today, so address masking is the whole
// job.
type Redactor struct{}

func New() *Redactor { return &Redactor{} }

// Redact returns a new field set with the address masked. Fields that were
// not found stay not found; the input set is never mutated.
func (r *Redactor) Redact(fields domain.FieldSet) domain.FieldSet {
	out := fields.Clone()
	addr := out.Get(domain.FieldAddress)
	if addr.Found {
		out.Set(domain.FieldAddress, MaskAddress(addr.Value))
	}
	return out
}

// MaskAddress redacts the leading street number and any unit designator,
// retaining the rest of the address.
func MaskAddress(address string) string {
	s := strings.TrimSpace(address)
	s = streetNumberRE.ReplaceAllString(s, Placeholder)
	s = unitRE.ReplaceAllString(s, Placeholder)
	return s
}
