package order

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/orderdesk/backend/internal/domain/local"
	"github.com/orderdesk/backend/internal/domain/order"
	"github.com/orderdesk/backend/internal/domain/shared"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// MainView is the unrestricted orders view.
const MainView = "orders"

// View is a named dashboard table. A view with an Owner only ever shows that
// owner's orders.
type View struct {
	Name  string `json:"name"`
	Owner string `json:"owner,omitempty"`
}

// ActivityRecorder appends entries to the local activity log.
type ActivityRecorder interface {
	Record(ctx context.Context, entry local.ActivityEntry) error
}

// TableServiceOption configures a TableService.
type TableServiceOption func(*TableService)

// WithBulkDeleteLimit caps concurrent remote deletes in one bulk delete.
// Zero means one goroutine per order.
func WithBulkDeleteLimit(n int) TableServiceOption {
	return func(s *TableService) {
		s.bulkDeleteLimit = n
	}
}

// WithOwnerViews registers fixed-owner views keyed by view name.
func WithOwnerViews(views map[string]string) TableServiceOption {
	return func(s *TableService) {
		for name, owner := range views {
			name = strings.ToLower(strings.TrimSpace(name))
			if name == "" || name == MainView {
				continue
			}
			s.views[name] = View{Name: name, Owner: owner}
		}
	}
}

// TableService holds one order table per user and view and keeps it in step
// with the remote order store. Single-row mutations patch the held table;
// bulk mutations refetch it.
type TableService struct {
	gateway         order.Gateway
	activity        ActivityRecorder
	logger          *zap.Logger
	bulkDeleteLimit int

	views map[string]View

	mu     sync.Mutex
	tables map[string]*order.Table
}

// NewTableService creates a TableService. activity may be nil.
func NewTableService(gateway order.Gateway, activity ActivityRecorder, logger *zap.Logger, opts ...TableServiceOption) *TableService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &TableService{
		gateway:  gateway,
		activity: activity,
		logger:   logger,
		views:    map[string]View{MainView: {Name: MainView}},
		tables:   make(map[string]*order.Table),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// View looks up a view by name.
func (s *TableService) View(name string) (View, error) {
	v, ok := s.views[strings.ToLower(name)]
	if !ok {
		return View{}, shared.NewDomainError("NOT_FOUND", fmt.Sprintf("Unknown view %q", name))
	}
	return v, nil
}

// Views lists the configured views.
func (s *TableService) Views() []View {
	out := make([]View, 0, len(s.views))
	for name, v := range s.views {
		if name != MainView {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return append([]View{s.views[MainView]}, out...)
}

func (s *TableService) table(user string, v View) *order.Table {
	key := user + "\x00" + v.Name
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tables[key]
	if !ok {
		t = order.NewTable(s.defaultFilter(v))
		s.tables[key] = t
	}
	return t
}

func (s *TableService) defaultFilter(v View) order.Filter {
	if v.Owner != "" {
		return order.Filter{Owner: order.OwnerOption{Owner: v.Owner}}
	}
	return order.Filter{}
}

// buildFilter turns a request into a filter. Fixed-owner views ignore the
// requested owner.
func (s *TableService) buildFilter(v View, req FilterRequest) (order.Filter, error) {
	f := s.defaultFilter(v)
	if v.Owner == "" {
		f.Owner = order.ParseOwnerOption(req.Owner)
	}
	if strings.TrimSpace(req.Status) != "" && !strings.EqualFold(strings.TrimSpace(req.Status), "all") {
		st, err := order.ParseStatus(req.Status)
		if err != nil {
			return order.Filter{}, err
		}
		f.Status = st
	}
	f.Search = strings.TrimSpace(req.Search)
	for _, d := range []*string{&req.From, &req.To} {
		*d = order.NormalizeDate(*d)
		if *d == "" {
			continue
		}
		if err := order.ValidateDate(*d); err != nil {
			return order.Filter{}, err
		}
	}
	f.From, f.To = req.From, req.To
	return f, nil
}

// Refresh refetches a view with a new filter.
func (s *TableService) Refresh(ctx context.Context, user, view string, req FilterRequest) (*TableView, error) {
	v, err := s.View(view)
	if err != nil {
		return nil, err
	}
	f, err := s.buildFilter(v, req)
	if err != nil {
		return nil, err
	}
	t := s.table(user, v)
	orders, err := s.gateway.List(ctx, f.RemoteOwner())
	if err != nil {
		return nil, err
	}
	t.Reload(f, orders)
	return snapshot(v, t), nil
}

// Current returns the held table, fetching it first if it was never loaded.
func (s *TableService) Current(ctx context.Context, user, view string) (*TableView, error) {
	v, t, err := s.loaded(ctx, user, view)
	if err != nil {
		return nil, err
	}
	return snapshot(v, t), nil
}

// Rows returns the displayed rows of a view.
func (s *TableService) Rows(ctx context.Context, user, view string) ([]order.Order, error) {
	_, t, err := s.loaded(ctx, user, view)
	if err != nil {
		return nil, err
	}
	return t.Displayed(), nil
}

// Find returns a held row by ID.
func (s *TableService) Find(ctx context.Context, user, view, id string) (order.Order, error) {
	_, t, err := s.loaded(ctx, user, view)
	if err != nil {
		return order.Order{}, err
	}
	o, ok := t.Find(id)
	if !ok {
		return order.Order{}, shared.NewDomainError("NOT_FOUND", "Order not found")
	}
	return o, nil
}

func (s *TableService) loaded(ctx context.Context, user, view string) (View, *order.Table, error) {
	v, err := s.View(view)
	if err != nil {
		return View{}, nil, err
	}
	t := s.table(user, v)
	if !t.Loaded() {
		if err := s.refetch(ctx, t); err != nil {
			return View{}, nil, err
		}
	}
	return v, t, nil
}

func (s *TableService) refetch(ctx context.Context, t *order.Table) error {
	orders, err := s.gateway.List(ctx, t.Filter().RemoteOwner())
	if err != nil {
		return err
	}
	t.Load(orders)
	return nil
}

func (s *TableService) prepareDraft(v View, in OrderInput) (order.Draft, error) {
	d := in.draft()
	if v.Owner != "" {
		d.Owner = v.Owner
	}
	d = d.Normalize()
	if err := d.Validate(); err != nil {
		return order.Draft{}, err
	}
	return d, nil
}

// Create creates an order remotely and prepends the returned order.
func (s *TableService) Create(ctx context.Context, user, view string, in OrderInput) (*order.Order, error) {
	v, err := s.View(view)
	if err != nil {
		return nil, err
	}
	d, err := s.prepareDraft(v, in)
	if err != nil {
		return nil, err
	}
	created, err := s.gateway.Create(ctx, d)
	if err != nil {
		return nil, err
	}
	s.table(user, v).Prepend(created)
	s.record(ctx, user, local.ActionCreate, fmt.Sprintf("Created order %s", created.SerialNumber), created.SerialNumber, created.Owner)
	return &created, nil
}

// Update replaces every editable field of an order and patches the held row.
func (s *TableService) Update(ctx context.Context, user, view, id string, in OrderInput) (*order.Order, error) {
	v, err := s.View(view)
	if err != nil {
		return nil, err
	}
	d, err := s.prepareDraft(v, in)
	if err != nil {
		return nil, err
	}
	updated, err := s.gateway.Update(ctx, id, d)
	if err != nil {
		return nil, err
	}
	if updated.ID == "" {
		updated.ID = id
	}
	t := s.table(user, v)
	if !t.Replace(updated) {
		t.Prepend(updated)
	}
	s.record(ctx, user, local.ActionUpdate, fmt.Sprintf("Edited order %s", updated.SerialNumber), updated.SerialNumber, updated.Owner)
	return &updated, nil
}

// UpdateStatus changes one order's status and patches the held row without
// refetching.
func (s *TableService) UpdateStatus(ctx context.Context, user, view, id, status string) (*order.Order, error) {
	v, err := s.View(view)
	if err != nil {
		return nil, err
	}
	st, err := order.ParseStatus(status)
	if err != nil {
		return nil, err
	}
	updated, err := s.gateway.UpdateStatus(ctx, id, st)
	if err != nil {
		return nil, err
	}
	t := s.table(user, v)
	t.PatchStatus(id, st)
	if o, ok := t.Find(id); ok {
		updated = o
	} else if updated.ID == "" {
		updated = order.Order{ID: id, Status: st}
	}
	s.record(ctx, user, local.ActionStatusChange, fmt.Sprintf("Changed %s to %s", updated.SerialNumber, st), updated.SerialNumber, updated.Owner)
	return &updated, nil
}

// Delete deletes one order and removes the held row without refetching.
func (s *TableService) Delete(ctx context.Context, user, view, id string) error {
	v, err := s.View(view)
	if err != nil {
		return err
	}
	t := s.table(user, v)
	held, _ := t.Find(id)
	if err := s.gateway.Delete(ctx, id); err != nil {
		return err
	}
	t.Remove(id)
	s.record(ctx, user, local.ActionDelete, fmt.Sprintf("Deleted order %s", orDefault(held.SerialNumber, id)), held.SerialNumber, held.Owner)
	return nil
}

// Selection returns the selected IDs of a view.
func (s *TableService) Selection(ctx context.Context, user, view string) (*SelectionView, error) {
	_, t, err := s.loaded(ctx, user, view)
	if err != nil {
		return nil, err
	}
	return selection(t), nil
}

// ApplySelection changes the selection of a view.
func (s *TableService) ApplySelection(ctx context.Context, user, view string, req SelectionRequest) (*SelectionView, error) {
	_, t, err := s.loaded(ctx, user, view)
	if err != nil {
		return nil, err
	}
	switch req.Mode {
	case SelectionSelect:
		t.Select(req.IDs...)
	case SelectionDeselect:
		t.Deselect(req.IDs...)
	case SelectionToggle:
		for _, id := range req.IDs {
			t.Toggle(id)
		}
	case SelectionAll:
		t.SelectAllDisplayed()
	case SelectionClear:
		t.ClearSelection()
	default:
		return nil, shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Unknown selection mode %q", req.Mode))
	}
	return selection(t), nil
}

// DeleteSelected deletes the selected rows.
func (s *TableService) DeleteSelected(ctx context.Context, user, view string) (*BulkDeleteResult, error) {
	v, t, err := s.loaded(ctx, user, view)
	if err != nil {
		return nil, err
	}
	return s.deleteMany(ctx, user, v, t, t.SelectedIDs(), "selected")
}

// DeleteByStatus deletes every displayed row with the given status.
func (s *TableService) DeleteByStatus(ctx context.Context, user, view, status string) (*BulkDeleteResult, error) {
	st, err := order.ParseStatus(status)
	if err != nil {
		return nil, err
	}
	v, t, err := s.loaded(ctx, user, view)
	if err != nil {
		return nil, err
	}
	return s.deleteMany(ctx, user, v, t, t.DisplayedIDsWithStatus(st), string(st))
}

// DeleteAll deletes every displayed row.
func (s *TableService) DeleteAll(ctx context.Context, user, view string) (*BulkDeleteResult, error) {
	v, t, err := s.loaded(ctx, user, view)
	if err != nil {
		return nil, err
	}
	return s.deleteMany(ctx, user, v, t, t.DisplayedIDs(), "all")
}

// deleteMany sends one remote delete per ID concurrently and waits for all
// of them. The deletes outlive a cancelled request. Failures are reported,
// not rolled back.
func (s *TableService) deleteMany(ctx context.Context, user string, v View, t *order.Table, ids []string, scope string) (*BulkDeleteResult, error) {
	if len(ids) == 0 {
		return nil, shared.ErrNothingToApply
	}

	deleteCtx := context.WithoutCancel(ctx)
	errs := make([]error, len(ids))
	var g errgroup.Group
	if s.bulkDeleteLimit > 0 {
		g.SetLimit(s.bulkDeleteLimit)
	}
	for i, id := range ids {
		g.Go(func() error {
			errs[i] = s.gateway.Delete(deleteCtx, id)
			return nil
		})
	}
	_ = g.Wait()

	result := &BulkDeleteResult{
		Requested: len(ids),
		Deleted:   make([]string, 0, len(ids)),
		Failed:    make([]DeleteFailure, 0),
	}
	for i, id := range ids {
		if errs[i] != nil {
			result.Failed = append(result.Failed, DeleteFailure{ID: id, Error: errs[i].Error()})
			continue
		}
		result.Deleted = append(result.Deleted, id)
	}

	t.ClearSelection()
	if err := s.refetch(ctx, t); err != nil {
		s.logger.Warn("refetch after bulk delete failed, removing deleted rows locally",
			zap.String("view", v.Name),
			zap.Error(err))
		t.Remove(result.Deleted...)
		result.RefetchFailed = true
	}
	result.Table = snapshot(v, t)

	s.logger.Info("bulk delete finished",
		zap.String("view", v.Name),
		zap.String("scope", scope),
		zap.Int("requested", result.Requested),
		zap.Int("deleted", len(result.Deleted)),
		zap.Int("failed", len(result.Failed)))
	s.record(deleteCtx, user, local.ActionBulkDelete,
		fmt.Sprintf("Deleted %d of %d orders (%s)", len(result.Deleted), result.Requested, scope), "", v.Owner)
	return result, nil
}

// BulkImport creates one order per serial number in pasted text.
func (s *TableService) BulkImport(ctx context.Context, user, view string, req BulkImportRequest) (*BulkImportResult, error) {
	serials, err := order.ParseSerialBatch(req.SerialNumbers)
	if err != nil {
		return nil, err
	}
	return s.BulkImportSerials(ctx, user, view, serials, req)
}

// BulkImportSerials creates one order per serial number. The serials are
// deduplicated before sending; the text field of req is ignored.
func (s *TableService) BulkImportSerials(ctx context.Context, user, view string, serials []string, req BulkImportRequest) (*BulkImportResult, error) {
	v, err := s.View(view)
	if err != nil {
		return nil, err
	}
	serials = order.DedupeSerials(serials)
	if len(serials) == 0 {
		return nil, order.ErrEmptyBatch
	}
	// The placeholder serial only lets the shared fields go through draft
	// validation.
	d, err := s.prepareDraft(v, OrderInput{SerialNumber: serials[0], Owner: req.Owner, OrderDate: req.OrderDate, Status: req.Status})
	if err != nil {
		return nil, err
	}

	res, err := s.gateway.BulkCreate(ctx, order.BulkCreateRequest{
		SerialNumbers: serials,
		Owner:         d.Owner,
		OrderDate:     d.OrderDate,
		Status:        d.Status,
	})
	if err != nil {
		return nil, err
	}

	result := &BulkImportResult{
		Submitted:      len(serials),
		Created:        res.Created,
		Skipped:        res.Skipped,
		SkippedSerials: res.SkippedSerials,
	}
	if result.SkippedSerials == nil {
		result.SkippedSerials = []string{}
	}
	t := s.table(user, v)
	if err := s.refetch(ctx, t); err != nil {
		s.logger.Warn("refetch after bulk import failed", zap.String("view", v.Name), zap.Error(err))
		result.RefetchFailed = true
	}
	result.Table = snapshot(v, t)

	s.record(ctx, user, local.ActionBulkImport,
		fmt.Sprintf("Imported %d orders, skipped %d", res.Created, res.Skipped), "", d.Owner)
	return result, nil
}

// BulkStatus sets the status of every serial number in pasted text.
func (s *TableService) BulkStatus(ctx context.Context, user, view string, req BulkStatusRequest) (*BulkStatusResult, error) {
	v, err := s.View(view)
	if err != nil {
		return nil, err
	}
	st, err := order.ParseStatus(req.Status)
	if err != nil {
		return nil, err
	}
	serials, err := order.ParseSerialBatch(req.SerialNumbers)
	if err != nil {
		return nil, err
	}

	res, err := s.gateway.BulkStatus(ctx, order.BulkStatusRequest{SerialNumbers: serials, Status: st})
	if err != nil {
		return nil, err
	}

	result := &BulkStatusResult{
		Submitted: len(serials),
		Updated:   res.Updated,
		NotFound:  res.NotFound,
	}
	if result.NotFound == nil {
		result.NotFound = []string{}
	}
	t := s.table(user, v)
	if err := s.refetch(ctx, t); err != nil {
		s.logger.Warn("refetch after bulk status failed", zap.String("view", v.Name), zap.Error(err))
		result.RefetchFailed = true
	}
	result.Table = snapshot(v, t)

	s.record(ctx, user, local.ActionBulkStatus,
		fmt.Sprintf("Set %d orders to %s", res.Updated, st), "", v.Owner)
	return result, nil
}

func (s *TableService) record(ctx context.Context, user string, action local.Action, description, serial, owner string) {
	if s.activity == nil {
		return
	}
	entry := local.NewActivityEntry(action, description)
	entry.Serial = serial
	entry.Owner = owner
	entry.Username = user
	if err := s.activity.Record(ctx, entry); err != nil {
		s.logger.Warn("failed to record activity", zap.String("action", string(action)), zap.Error(err))
	}
}

func snapshot(v View, t *order.Table) *TableView {
	rows := t.Displayed()
	return &TableView{
		View:     v.Name,
		Filter:   filterView(t.Filter()),
		Orders:   rows,
		Count:    len(rows),
		Selected: t.SelectedIDs(),
		LoadedAt: t.LoadedAt(),
	}
}

func selection(t *order.Table) *SelectionView {
	ids := t.SelectedIDs()
	return &SelectionView{Selected: ids, Count: len(ids)}
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
