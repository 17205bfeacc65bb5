package order

import (
	"sort"
	"strings"
)

// AllOwners is the owner option that applies no owner constraint.
const AllOwners = "All"

const (
	excludePrefix = "All (Exc. "
	excludeSuffix = ")"
)

// OwnerOption is the owner part of a filter. A plain owner is sent to the
// remote store as a query parameter; an excluding option fetches everything
// and drops that owner locally.
type OwnerOption struct {
	Owner   string
	Exclude bool
}

// ExcludeOption returns the display value of the option that hides owner.
func ExcludeOption(owner string) string {
	return excludePrefix + owner + excludeSuffix
}

// ParseOwnerOption interprets an owner dropdown value.
func ParseOwnerOption(value string) OwnerOption {
	value = strings.TrimSpace(value)
	if value == "" || strings.EqualFold(value, AllOwners) {
		return OwnerOption{}
	}
	if strings.HasPrefix(value, excludePrefix) && strings.HasSuffix(value, excludeSuffix) {
		owner := strings.TrimSpace(value[len(excludePrefix) : len(value)-len(excludeSuffix)])
		if owner != "" {
			return OwnerOption{Owner: owner, Exclude: true}
		}
	}
	return OwnerOption{Owner: value}
}

// String returns the dropdown value for the option.
func (o OwnerOption) String() string {
	switch {
	case o.Owner == "":
		return AllOwners
	case o.Exclude:
		return ExcludeOption(o.Owner)
	default:
		return o.Owner
	}
}

// RemoteOwner is the owner query parameter to send, empty for none.
func (o OwnerOption) RemoteOwner() string {
	if o.Exclude {
		return ""
	}
	return o.Owner
}

func (o OwnerOption) match(owner string) bool {
	if o.Owner == "" {
		return true
	}
	same := strings.EqualFold(strings.TrimSpace(owner), o.Owner)
	if o.Exclude {
		return !same
	}
	return same
}

// Filter selects which fetched orders a table displays.
type Filter struct {
	Owner  OwnerOption
	Status Status
	Search string
	From   string
	To     string
}

// RemoteOwner is the owner query parameter to send for this filter.
func (f Filter) RemoteOwner() string {
	return f.Owner.RemoteOwner()
}

// RemoteQuery returns the query parameters for the remote list call.
// Everything else in the filter is applied locally by Match.
func (f Filter) RemoteQuery() map[string]string {
	q := make(map[string]string, 1)
	if owner := f.RemoteOwner(); owner != "" {
		q["owner"] = owner
	}
	return q
}

// Match applies the client-side part of the filter. Status comparison is
// case-insensitive and the date range is inclusive on both ends.
func (f Filter) Match(o Order) bool {
	if !f.Owner.match(o.Owner) {
		return false
	}
	if f.Status != "" && !o.Status.Is(f.Status) {
		return false
	}
	if f.Search != "" && !strings.Contains(strings.ToLower(o.SerialNumber), strings.ToLower(strings.TrimSpace(f.Search))) {
		return false
	}
	date := NormalizeDate(o.OrderDate)
	if f.From != "" && date < f.From {
		return false
	}
	if f.To != "" && date > f.To {
		return false
	}
	return true
}

// Apply returns the matching orders in display order.
func (f Filter) Apply(orders []Order) []Order {
	out := make([]Order, 0, len(orders))
	for _, o := range orders {
		if f.Match(o) {
			out = append(out, o)
		}
	}
	SortForDisplay(out)
	return out
}

// SortForDisplay orders rows newest first, then by serial and ID.
func SortForDisplay(orders []Order) {
	sort.SliceStable(orders, func(i, j int) bool {
		a, b := orders[i], orders[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		if a.SerialNumber != b.SerialNumber {
			return a.SerialNumber < b.SerialNumber
		}
		return a.ID < b.ID
	})
}
