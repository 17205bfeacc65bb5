package order

import (
	"sync"
	"time"
)

// Table is the in-memory state behind one dashboard view: the last fetched
// list, the active filter, the rows it displays and the selected IDs.
// Remote calls are never made while the lock is held.
type Table struct {
	mu        sync.RWMutex
	filter    Filter
	orders    []Order
	displayed []Order
	selected  map[string]struct{}
	loadedAt  time.Time
}

// NewTable creates an empty table with the given filter.
func NewTable(filter Filter) *Table {
	return &Table{
		filter:   filter,
		selected: make(map[string]struct{}),
	}
}

// Filter returns the active filter.
func (t *Table) Filter() Filter {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.filter
}

// Loaded reports whether the table has been filled from the remote store.
func (t *Table) Loaded() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return !t.loadedAt.IsZero()
}

// LoadedAt returns when the list was last replaced.
func (t *Table) LoadedAt() time.Time {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.loadedAt
}

// Load replaces the fetched list under the current filter.
func (t *Table) Load(orders []Order) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.orders = append([]Order(nil), orders...)
	t.loadedAt = time.Now()
	t.recompute()
}

// Reload replaces the filter and the fetched list together.
func (t *Table) Reload(filter Filter, orders []Order) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.filter = filter
	t.orders = append([]Order(nil), orders...)
	t.loadedAt = time.Now()
	t.recompute()
}

// Displayed returns a copy of the displayed rows.
func (t *Table) Displayed() []Order {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]Order(nil), t.displayed...)
}

// Count returns the number of displayed rows.
func (t *Table) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.displayed)
}

// Find looks up a fetched order by ID, displayed or not.
func (t *Table) Find(id string) (Order, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, o := range t.orders {
		if o.ID == id {
			return o, true
		}
	}
	return Order{}, false
}

// PatchStatus sets the status of one row in place.
func (t *Table) PatchStatus(id string, status Status) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.orders {
		if t.orders[i].ID == id {
			t.orders[i].Status = status
			t.recompute()
			return true
		}
	}
	return false
}

// Replace swaps in an edited order with the same ID.
func (t *Table) Replace(o Order) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.orders {
		if t.orders[i].ID == o.ID {
			t.orders[i] = o
			t.recompute()
			return true
		}
	}
	return false
}

// Prepend inserts a newly created order at the head of the fetched list.
func (t *Table) Prepend(o Order) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.orders = append([]Order{o}, t.orders...)
	t.recompute()
}

// Remove drops the given rows and their selection. It returns how many rows
// were present.
func (t *Table) Remove(ids ...string) int {
	if len(ids) == 0 {
		return 0
	}
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	kept := t.orders[:0]
	removed := 0
	for _, o := range t.orders {
		if _, ok := drop[o.ID]; ok {
			removed++
			continue
		}
		kept = append(kept, o)
	}
	t.orders = kept
	for id := range drop {
		delete(t.selected, id)
	}
	t.recompute()
	return removed
}

// Select marks displayed rows as selected and returns the selection size.
// IDs that are not displayed are ignored.
func (t *Table) Select(ids ...string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	visible := t.displayedIDs()
	for _, id := range ids {
		if _, ok := visible[id]; ok {
			t.selected[id] = struct{}{}
		}
	}
	return len(t.selected)
}

// Deselect unmarks rows and returns the selection size.
func (t *Table) Deselect(ids ...string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, id := range ids {
		delete(t.selected, id)
	}
	return len(t.selected)
}

// Toggle flips one displayed row and reports whether it is now selected.
func (t *Table) Toggle(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.selected[id]; ok {
		delete(t.selected, id)
		return false
	}
	if _, ok := t.displayedIDs()[id]; !ok {
		return false
	}
	t.selected[id] = struct{}{}
	return true
}

// SelectAllDisplayed selects every displayed row.
func (t *Table) SelectAllDisplayed() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, o := range t.displayed {
		t.selected[o.ID] = struct{}{}
	}
	return len(t.selected)
}

// ClearSelection empties the selection.
func (t *Table) ClearSelection() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.selected = make(map[string]struct{})
}

// Selected returns the selected rows in display order.
func (t *Table) Selected() []Order {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Order, 0, len(t.selected))
	for _, o := range t.displayed {
		if _, ok := t.selected[o.ID]; ok {
			out = append(out, o)
		}
	}
	return out
}

// SelectedIDs returns the selected IDs in display order.
func (t *Table) SelectedIDs() []string {
	return ids(t.Selected())
}

// DisplayedIDsWithStatus returns displayed IDs whose status matches,
// ignoring case.
func (t *Table) DisplayedIDsWithStatus(status Status) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]string, 0)
	for _, o := range t.displayed {
		if o.Status.Is(status) {
			out = append(out, o.ID)
		}
	}
	return out
}

// DisplayedIDs returns every displayed ID in display order.
func (t *Table) DisplayedIDs() []string {
	return ids(t.Displayed())
}

// recompute rebuilds the displayed rows and prunes the selection to them.
// Callers hold the write lock.
func (t *Table) recompute() {
	t.displayed = t.filter.Apply(t.orders)
	visible := t.displayedIDs()
	for id := range t.selected {
		if _, ok := visible[id]; !ok {
			delete(t.selected, id)
		}
	}
}

func (t *Table) displayedIDs() map[string]struct{} {
	out := make(map[string]struct{}, len(t.displayed))
	for _, o := range t.displayed {
		out[o.ID] = struct{}{}
	}
	return out
}

func ids(orders []Order) []string {
	out := make([]string, len(orders))
	for i, o := range orders {
		out[i] = o.ID
	}
	return out
}
