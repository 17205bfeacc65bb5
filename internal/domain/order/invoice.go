package order

import (
	"regexp"
	"strings"
	"time"
)

// InvoiceFields are the order form values suggested from invoice text.
type InvoiceFields struct {
	SerialNumbers []string `json:"serialNumbers"`
	OrderDate     string   `json:"orderDate,omitempty"`
	Owner         string   `json:"owner,omitempty"`
}

var (
	serialLabel = regexp.MustCompile(`(?i)\b(?:serial(?:\s*(?:no\.?|number|#))?|s/n|tracking(?:\s*(?:no\.?|number|#|id))?|order\s*(?:#|no\.?|number))\s*[:#-]?\s*([A-Za-z0-9][A-Za-z0-9-]{2,})`)

	isoDate  = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`)
	dayFirst = regexp.MustCompile(`\b(\d{2})[/-](\d{2})[/-](\d{4})\b`)
)

// ExtractInvoiceFields scans recognized invoice text for serial numbers after
// known labels, the first valid date and the first known owner name.
func ExtractInvoiceFields(text string, owners []string) InvoiceFields {
	var serials []string
	for _, m := range serialLabel.FindAllStringSubmatch(text, -1) {
		serials = append(serials, m[1])
	}

	return InvoiceFields{
		SerialNumbers: DedupeSerials(serials),
		OrderDate:     firstDate(text),
		Owner:         findOwner(text, owners),
	}
}

func firstDate(text string) string {
	type candidate struct {
		at   int
		date string
	}
	var best *candidate
	consider := func(at int, y, m, d string) {
		date := y + "-" + m + "-" + d
		if _, err := time.Parse(DateLayout, date); err != nil {
			return
		}
		if best == nil || at < best.at {
			best = &candidate{at: at, date: date}
		}
	}

	for _, idx := range isoDate.FindAllStringSubmatchIndex(text, -1) {
		consider(idx[0], text[idx[2]:idx[3]], text[idx[4]:idx[5]], text[idx[6]:idx[7]])
	}
	for _, idx := range dayFirst.FindAllStringSubmatchIndex(text, -1) {
		consider(idx[0], text[idx[6]:idx[7]], text[idx[4]:idx[5]], text[idx[2]:idx[3]])
	}
	if best == nil {
		return ""
	}
	return best.date
}

func findOwner(text string, owners []string) string {
	lower := strings.ToLower(text)
	for _, owner := range owners {
		name := strings.TrimSpace(owner)
		if name == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(name)) {
			return name
		}
	}
	return ""
}
