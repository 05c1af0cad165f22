// Package parsing extracts the fixed tax-bill field set from raw OCR text
// with label-anchored regular expressions. Matching is case-insensitive and
// exact; there is no OCR correction and no fuzzy matching.
package parsing

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/propertyiq/taxbill-ocr/internal/core/domain"
)

// DefaultProximityWindow is the number of characters after the end of a label
// match in which a value token must begin to be associated with that label.
// Tokens beyond the window are ignored for that label occurrence.
const DefaultProximityWindow = 64

// Config carries the tunable matching rules. Label keywords and locale
// assumptions are deployment defaults, not hard-coded facts about documents.
type Config struct {
	OwnerLabels   []string
	AddressLabels []string
	TaxYearLabels []string
	AmountLabels  []string
	DueDateLabels []string

	// ProximityWindow bounds label-to-value association, in characters.
	ProximityWindow int
	// MinYear is the lower bound for the unlabeled tax-year fallback. The
	// upper bound is the current year plus one.
	MinYear int
	// Now is overridable for deterministic tests.
	Now func() time.Time
}

// DefaultConfig mirrors the label vocabulary of US county tax bills.
func DefaultConfig() Config {
	return Config{
		OwnerLabels:     []string{"Owner", "Property Owner", "Name"},
		AddressLabels:   []string{"Address", "Property Address", "Property"},
		TaxYearLabels:   []string{"Tax Year", "Year"},
		AmountLabels:    []string{"Amount Due", "Total Due", "Balance"},
		DueDateLabels:   []string{"Due Date", "Payment Due"},
		ProximityWindow: DefaultProximityWindow,
		MinYear:         1990,
		Now:             time.Now,
	}
}

func (c Config) normalize() Config {
	def := DefaultConfig()
	out := c
	if len(out.OwnerLabels) == 0 {
		out.OwnerLabels = def.OwnerLabels
	}
	if len(out.AddressLabels) == 0 {
		out.AddressLabels = def.AddressLabels
	}
	if len(out.TaxYearLabels) == 0 {
		out.TaxYearLabels = def.TaxYearLabels
	}
	if len(out.AmountLabels) == 0 {
		out.AmountLabels = def.AmountLabels
	}
	if len(out.DueDateLabels) == 0 {
		out.DueDateLabels = def.DueDateLabels
	}
	if out.ProximityWindow <= 0 {
		out.ProximityWindow = def.ProximityWindow
	}
	if out.MinYear <= 0 {
		out.MinYear = def.MinYear
	}
	if out.Now == nil {
		out.Now = time.Now
	}
	return out
}

// Parser applies one extraction rule per target field. When several
// candidates match a field, the first occurrence in document order wins;
// pages are concatenated in page order upstream, so document order is simply
// string order here.
type Parser struct {
	cfg Config

	ownerLineRE   *regexp.Regexp
	addressLineRE *regexp.Regexp
	streetRE      *regexp.Regexp
	yearLabelRE   *regexp.Regexp
	amountLabelRE *regexp.Regexp
	dateLabelRE   *regexp.Regexp
}

var (
	amountRE = regexp.MustCompile(`\$?[ \t]*\d{1,3}(?:,\d{3})*\.\d{2}\b|\$?[ \t]*\d+\.\d{2}\b`)
	yearRE   = regexp.MustCompile(`\d{4}`)

	numericDateRE = regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})/(\d{4})\b`)
	writtenDateRE = regexp.MustCompile(`(?i)\b(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\.?[ \t]+(\d{1,2}),?[ \t]+(\d{4})\b`)
)

func New(cfg Config) (*Parser, error) {
	cfg = cfg.normalize()
	p := &Parser{cfg: cfg}

	var err error
	if p.ownerLineRE, err = labeledLineRE(cfg.OwnerLabels); err != nil {
		return nil, fmt.Errorf("owner rule: %w", err)
	}
	if p.addressLineRE, err = labeledLineRE(cfg.AddressLabels); err != nil {
		return nil, fmt.Errorf("address rule: %w", err)
	}
	if p.yearLabelRE, err = labelRE(cfg.TaxYearLabels); err != nil {
		return nil, fmt.Errorf("tax year rule: %w", err)
	}
	if p.amountLabelRE, err = labelRE(cfg.AmountLabels); err != nil {
		return nil, fmt.Errorf("amount rule: %w", err)
	}
	if p.dateLabelRE, err = labelRE(cfg.DueDateLabels); err != nil {
		return nil, fmt.Errorf("due date rule: %w", err)
	}

	// Street-address fallback: number, street, optional unit, city, two
	// letter state, zip. US-format assumption, same as the label defaults.
	p.streetRE = regexp.MustCompile(
		`(?i)\b\d{1,6}[a-z]?[ \t]+[0-9a-z.'\- ]+?` +
			`(?:,?[ \t]+(?:apt|unit|suite|ste)\.?[ \t]*#?[ \t]*[0-9a-z\-]+)?` +
			`,[ \t]*[a-z.'\- ]+,[ \t]*[a-z]{2}[ \t]+\d{5}(?:-\d{4})?\b`)

	return p, nil
}

// labeledLineRE captures the remainder of a line after "<label>:".
func labeledLineRE(labels []string) (*regexp.Regexp, error) {
	return regexp.Compile(`(?im)^[^\S\n]*(?:` + alternation(labels) + `)[^\S\n]*:[^\S\n]*(\S[^\n]*)`)
}

// labelRE matches a bare label occurrence; the value is searched for within
// the proximity window after the match.
func labelRE(labels []string) (*regexp.Regexp, error) {
	return regexp.Compile(`(?i)\b(?:` + alternation(labels) + `)\b[^\S\n]*:?`)
}

func alternation(labels []string) string {
	quoted := make([]string, 0, len(labels))
	for _, l := range labels {
		l = strings.TrimSpace(l)
		if l == "" {
			continue
		}
		quoted = append(quoted, regexp.QuoteMeta(l))
	}
	return strings.Join(quoted, "|")
}

// Parse extracts all five fields. The returned set always contains every
// field; fields with zero matches stay marked not found, never empty strings.
func (p *Parser) Parse(text string) domain.FieldSet {
	fields := domain.NewFieldSet()

	if owner, ok := p.firstLabeledLine(p.ownerLineRE, text); ok {
		fields.Set(domain.FieldOwner, owner)
	}
	if address, ok := p.parseAddress(text); ok {
		fields.Set(domain.FieldAddress, address)
	}
	if year, ok := p.parseTaxYear(text); ok {
		fields.Set(domain.FieldTaxYear, year)
	}
	if amount, ok := p.parseAmountDue(text); ok {
		fields.Set(domain.FieldAmountDue, amount)
	}
	if date, ok := p.parseDueDate(text); ok {
		fields.Set(domain.FieldDueDate, date)
	}
	return fields
}

func (p *Parser) firstLabeledLine(re *regexp.Regexp, text string) (string, bool) {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(m[1]), true
}

func (p *Parser) parseAddress(text string) (string, bool) {
	if v, ok := p.firstLabeledLine(p.addressLineRE, text); ok {
		return collapseSpaces(v), true
	}
	if m := p.streetRE.FindString(text); m != "" {
		return collapseSpaces(m), true
	}
	return "", false
}

// parseTaxYear prefers a 4-digit year near a tax-year label; without any
// label it falls back to the first standalone 4-digit token in the plausible
// range [MinYear, current_year+1].
func (p *Parser) parseTaxYear(text string) (string, bool) {
	maxYear := p.cfg.Now().Year() + 1

	for _, window := range p.windowsAfter(p.yearLabelRE, text) {
		for _, loc := range yearRE.FindAllStringIndex(window, -1) {
			tok := window[loc[0]:loc[1]]
			if !standaloneDigits(window, loc[0], loc[1]) {
				continue
			}
			if y := atoi(tok); y >= p.cfg.MinYear && y <= maxYear {
				return tok, true
			}
		}
	}

	for _, loc := range yearRE.FindAllStringIndex(text, -1) {
		tok := text[loc[0]:loc[1]]
		if !standaloneDigits(text, loc[0], loc[1]) {
			continue
		}
		if y := atoi(tok); y >= p.cfg.MinYear && y <= maxYear {
			return tok, true
		}
	}
	return "", false
}

// parseAmountDue accepts currency tokens with exactly two decimal digits and
// returns the canonical decimal string: no currency symbol, no thousands
// separators. Bare integers are not amounts.
func (p *Parser) parseAmountDue(text string) (string, bool) {
	for _, window := range p.windowsAfter(p.amountLabelRE, text) {
		if m := amountRE.FindString(window); m != "" {
			return normalizeAmount(m), true
		}
	}
	return "", false
}

// parseDueDate accepts "MM/DD/YYYY" and "Month DD, YYYY" near a due-date
// label and normalizes both to "Month DD, YYYY".
func (p *Parser) parseDueDate(text string) (string, bool) {
	for _, window := range p.windowsAfter(p.dateLabelRE, text) {
		numLoc := numericDateRE.FindStringSubmatchIndex(window)
		wrtLoc := writtenDateRE.FindStringSubmatchIndex(window)

		switch {
		case numLoc != nil && (wrtLoc == nil || numLoc[0] <= wrtLoc[0]):
			if d, ok := normalizeNumericDate(window, numLoc); ok {
				return d, true
			}
		case wrtLoc != nil:
			if d, ok := normalizeWrittenDate(window, wrtLoc); ok {
				return d, true
			}
		}
	}
	return "", false
}

// windowsAfter returns the proximity window following each label occurrence,
// in document order.
func (p *Parser) windowsAfter(label *regexp.Regexp, text string) []string {
	locs := label.FindAllStringIndex(text, -1)
	if locs == nil {
		return nil
	}
	windows := make([]string, 0, len(locs))
	for _, loc := range locs {
		end := loc[1] + p.cfg.ProximityWindow
		if end > len(text) {
			end = len(text)
		}
		windows = append(windows, text[loc[1]:end])
	}
	return windows
}
