package domain

// FieldName identifies one of the fixed extraction targets.
type FieldName string

const (
	FieldOwner     FieldName = "owner"
	FieldAddress   FieldName = "address"
	FieldTaxYear   FieldName = "tax_year"
	FieldAmountDue FieldName = "amount_due"
	FieldDueDate   FieldName = "due_date"
)

// NotFoundSentinel is the literal returned for a field that no pattern
// matched. Absence is always explicit; an empty string means the field was
// found empty, which is a different outcome.
const NotFoundSentinel = "not found"

// AllFields returns the fixed field set in its canonical order.
func AllFields() []FieldName {
	return []FieldName{FieldOwner, FieldAddress, FieldTaxYear, FieldAmountDue, FieldDueDate}
}

// FieldValue distinguishes "found (possibly empty)" from "not found".
type FieldValue struct {
	Value string
	Found bool
}

// FieldSet maps every fixed field to its extraction outcome. Constructed via
// NewFieldSet so all five keys are always present.
type FieldSet map[FieldName]FieldValue

// NewFieldSet returns a complete field set with every field marked not found.
func NewFieldSet() FieldSet {
	fs := make(FieldSet, len(AllFields()))
	for _, name := range AllFields() {
		fs[name] = FieldValue{}
	}
	return fs
}

// Set marks a field as found with the given value.
func (fs FieldSet) Set(name FieldName, value string) {
	fs[name] = FieldValue{Value: value, Found: true}
}

// Get returns the outcome for a field.
func (fs FieldSet) Get(name FieldName) FieldValue {
	return fs[name]
}

// Render returns the extracted value, or the sentinel when the field was not
// found.
func (fs FieldSet) Render(name FieldName) string {
	v := fs[name]
	if !v.Found {
		return NotFoundSentinel
	}
	return v.Value
}

// Clone returns an independent copy, complete over the fixed field set.
func (fs FieldSet) Clone() FieldSet {
	out := NewFieldSet()
	for name, v := range fs {
		out[name] = v
	}
	return out
}
