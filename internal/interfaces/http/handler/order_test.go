package handler

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	apporder "github.com/orderdesk/backend/internal/application/order"
	"github.com/orderdesk/backend/internal/domain/order"
	"github.com/orderdesk/backend/internal/domain/shared"
	"github.com/orderdesk/backend/internal/interfaces/http/dto"
	"github.com/orderdesk/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// memGateway is an in-memory remote order store.
type memGateway struct {
	mu      sync.Mutex
	orders  []order.Order
	nextID  int
	failIDs map[string]bool
}

func newMemGateway(orders ...order.Order) *memGateway {
	return &memGateway{orders: orders, nextID: len(orders) + 1, failIDs: map[string]bool{}}
}

func (g *memGateway) List(_ context.Context, owner string) ([]order.Order, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]order.Order, 0, len(g.orders))
	for _, o := range g.orders {
		if owner == "" || o.Owner == owner {
			out = append(out, o)
		}
	}
	return out, nil
}

func (g *memGateway) Create(_ context.Context, d order.Draft) (order.Order, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	o := order.Order{
		ID:           fmt.Sprintf("o%d", g.nextID),
		SerialNumber: d.SerialNumber,
		Owner:        d.Owner,
		OrderDate:    d.OrderDate,
		Status:       d.Status,
		CreatedAt:    time.Now(),
	}
	g.nextID++
	g.orders = append(g.orders, o)
	return o, nil
}

func (g *memGateway) Update(_ context.Context, id string, d order.Draft) (order.Order, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for i, o := range g.orders {
		if o.ID == id {
			g.orders[i].SerialNumber = d.SerialNumber
			g.orders[i].Owner = d.Owner
			g.orders[i].OrderDate = d.OrderDate
			g.orders[i].Status = d.Status
			return g.orders[i], nil
		}
	}
	return order.Order{}, shared.NewDomainError("NOT_FOUND", "Order not found")
}

func (g *memGateway) UpdateStatus(_ context.Context, id string, status order.Status) (order.Order, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for i, o := range g.orders {
		if o.ID == id {
			g.orders[i].Status = status
			return g.orders[i], nil
		}
	}
	return order.Order{}, shared.NewDomainError("NOT_FOUND", "Order not found")
}

func (g *memGateway) Delete(_ context.Context, id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failIDs[id] {
		return shared.ErrUpstream
	}
	for i, o := range g.orders {
		if o.ID == id {
			g.orders = append(g.orders[:i], g.orders[i+1:]...)
			return nil
		}
	}
	return shared.NewDomainError("NOT_FOUND", "Order not found")
}

func (g *memGateway) BulkCreate(ctx context.Context, req order.BulkCreateRequest) (order.BulkCreateResult, error) {
	res := order.BulkCreateResult{SkippedSerials: []string{}}
	existing := map[string]bool{}
	g.mu.Lock()
	for _, o := range g.orders {
		existing[o.SerialNumber] = true
	}
	g.mu.Unlock()
	for _, sn := range req.SerialNumbers {
		if existing[sn] {
			res.Skipped++
			res.SkippedSerials = append(res.SkippedSerials, sn)
			continue
		}
		_, _ = g.Create(ctx, order.Draft{SerialNumber: sn, Owner: req.Owner, OrderDate: req.OrderDate, Status: req.Status})
		res.Created++
	}
	return res, nil
}

func (g *memGateway) BulkStatus(_ context.Context, req order.BulkStatusRequest) (order.BulkStatusResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	res := order.BulkStatusResult{NotFound: []string{}}
	for _, sn := range req.SerialNumbers {
		found := false
		for i, o := range g.orders {
			if o.SerialNumber == sn {
				g.orders[i].Status = req.Status
				found = true
			}
		}
		if found {
			res.Updated++
		} else {
			res.NotFound = append(res.NotFound, sn)
		}
	}
	return res, nil
}

type bulkCall struct {
	operation         string
	succeeded, failed int
}

type recordingObserver struct {
	mu      sync.Mutex
	bulk    []bulkCall
	exports []string
}

func (r *recordingObserver) ObserveBulk(operation string, succeeded, failed int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bulk = append(r.bulk, bulkCall{operation, succeeded, failed})
}

func (r *recordingObserver) ObserveExport(format string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.exports = append(r.exports, format)
}

var created = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func seedOrders() []order.Order {
	return []order.Order{
		{ID: "o1", SerialNumber: "SN-1", Owner: "Ahsan", OrderDate: "2026-03-01", Status: order.StatusPending, CreatedAt: created},
		{ID: "o2", SerialNumber: "SN-2", Owner: "Wahab", OrderDate: "2026-03-01", Status: order.StatusDelivered, CreatedAt: created.Add(time.Minute)},
		{ID: "o3", SerialNumber: "SN-3", Owner: "Ahsan", OrderDate: "2026-03-02", Status: "delivered", CreatedAt: created.Add(2 * time.Minute)},
	}
}

type fakeViewResolver struct{ tables *apporder.TableService }

func (f fakeViewResolver) View(name string) (apporder.View, error) { return f.tables.View(name) }

// orderRouter mounts the view routes the way the server does, for one user.
func orderRouter(t *testing.T, gw order.Gateway, obs BulkObserver, user gin.HandlerFunc) (*gin.Engine, *apporder.TableService) {
	t.Helper()
	tables := apporder.NewTableService(gw, nil, zaptest.NewLogger(t),
		apporder.WithOwnerViews(map[string]string{"wahab": "Wahab"}))
	h := NewOrderHandler(tables, obs)

	router := gin.New()
	router.Use(middleware.RequestID(), user)
	router.GET("/views", h.ListViews)
	views := router.Group("/views/:view", middleware.ViewAccess(fakeViewResolver{tables}))
	views.GET("/orders", h.List)
	views.GET("/orders/current", h.Current)
	views.GET("/orders/:id", h.Get)
	views.POST("/orders", h.Create)
	views.PUT("/orders/:id", h.Update)
	views.PATCH("/orders/:id/status", h.UpdateStatus)
	views.DELETE("/orders/:id", h.Delete)
	views.GET("/selection", h.GetSelection)
	views.POST("/selection", h.ApplySelection)
	views.POST("/orders/delete-selected", h.DeleteSelected)
	views.POST("/orders/delete-by-status", h.DeleteByStatus)
	views.POST("/orders/delete-all", h.DeleteAll)
	views.POST("/orders/bulk", h.BulkImport)
	views.POST("/orders/bulk/csv", h.BulkImportCSV)
	views.POST("/orders/bulk-status", h.BulkStatus)
	return router, tables
}

func serials(orders []order.Order) []string {
	out := make([]string, len(orders))
	for i, o := range orders {
		out[i] = o.SerialNumber
	}
	sort.Strings(out)
	return out
}

func TestOrderHandler_ListViews(t *testing.T) {
	router, _ := orderRouter(t, newMemGateway(), nil, asUser("ahsan", "Ahsan"))
	var views []apporder.View
	decodeData(t, doRequest(router, http.MethodGet, "/views", nil), &views)
	assert.Equal(t, []apporder.View{{Name: "orders"}}, views)

	router, _ = orderRouter(t, newMemGateway(), nil, asUser("admin", "*"))
	decodeData(t, doRequest(router, http.MethodGet, "/views", nil), &views)
	assert.Equal(t, []apporder.View{{Name: "orders"}, {Name: "wahab", Owner: "Wahab"}}, views)
}

func TestOrderHandler_List(t *testing.T) {
	router, _ := orderRouter(t, newMemGateway(seedOrders()...), nil, asUser("admin", "*"))

	t.Run("excluding an owner", func(t *testing.T) {
		w := doRequest(router, http.MethodGet, "/views/orders/orders?owner=All+(Exc.+Wahab)", nil)
		require.Equal(t, http.StatusOK, w.Code)
		var table apporder.TableView
		resp := decodeData(t, w, &table)
		assert.Equal(t, 2, table.Count)
		assert.Equal(t, []string{"SN-1", "SN-3"}, serials(table.Orders))
		assert.Equal(t, int64(2), resp.Meta.Total)
	})

	t.Run("owner view is pinned", func(t *testing.T) {
		var table apporder.TableView
		decodeData(t, doRequest(router, http.MethodGet, "/views/wahab/orders", nil), &table)
		assert.Equal(t, []string{"SN-2"}, serials(table.Orders))
	})

	t.Run("status filter ignores case", func(t *testing.T) {
		var table apporder.TableView
		decodeData(t, doRequest(router, http.MethodGet, "/views/orders/orders?status=delivered", nil), &table)
		assert.Equal(t, []string{"SN-2", "SN-3"}, serials(table.Orders))
	})

	t.Run("unknown view", func(t *testing.T) {
		w := doRequest(router, http.MethodGet, "/views/nobody/orders", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestOrderHandler_OwnerViewForbidden(t *testing.T) {
	router, _ := orderRouter(t, newMemGateway(seedOrders()...), nil, asUser("ahsan", "Ahsan"))
	w := doRequest(router, http.MethodGet, "/views/wahab/orders", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, dto.ErrCodeForbidden, decodeError(t, w).Code)
}

func TestOrderHandler_SingleMutations(t *testing.T) {
	gw := newMemGateway(seedOrders()...)
	router, tables := orderRouter(t, gw, nil, asUser("admin", "*"))
	require.Equal(t, http.StatusOK, doRequest(router, http.MethodGet, "/views/orders/orders", nil).Code)

	t.Run("create prepends the new row", func(t *testing.T) {
		w := doRequest(router, http.MethodPost, "/views/orders/orders", gin.H{
			"serialNumber": "SN-9", "owner": "Ahsan", "orderDate": "2026-03-05",
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		var o order.Order
		decodeData(t, w, &o)
		assert.Equal(t, "SN-9", o.SerialNumber)

		rows, err := tables.Rows(context.Background(), "admin", "orders")
		require.NoError(t, err)
		assert.Equal(t, "SN-9", rows[0].SerialNumber)
	})

	t.Run("create validates the body", func(t *testing.T) {
		w := doRequest(router, http.MethodPost, "/views/orders/orders", gin.H{"orderDate": "2026-03-05", "status": "lost"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeValidation, decodeError(t, w).Code)
	})

	t.Run("status change patches the held row", func(t *testing.T) {
		w := doRequest(router, http.MethodPatch, "/views/orders/orders/o1/status", gin.H{"status": "in transit"})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		w = doRequest(router, http.MethodGet, "/views/orders/orders/o1", nil)
		var o order.Order
		decodeData(t, w, &o)
		assert.Equal(t, order.StatusInTransit, o.Status)
	})

	t.Run("full edit", func(t *testing.T) {
		w := doRequest(router, http.MethodPut, "/views/orders/orders/o3", gin.H{
			"serialNumber": "SN-3B", "owner": "Ahsan", "orderDate": "2026-03-02", "status": "Cancelled",
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var o order.Order
		decodeData(t, w, &o)
		assert.Equal(t, "SN-3B", o.SerialNumber)
	})

	t.Run("delete", func(t *testing.T) {
		w := doRequest(router, http.MethodDelete, "/views/orders/orders/o2", nil)
		assert.Equal(t, http.StatusNoContent, w.Code)

		w = doRequest(router, http.MethodGet, "/views/orders/orders/o2", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestOrderHandler_SelectionAndDeleteSelected(t *testing.T) {
	obs := &recordingObserver{}
	router, _ := orderRouter(t, newMemGateway(seedOrders()...), obs, asUser("admin", "*"))

	w := doRequest(router, http.MethodPost, "/views/orders/selection", gin.H{"mode": "select", "ids": []string{"o1", "o3"}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var sel apporder.SelectionView
	decodeData(t, w, &sel)
	assert.Equal(t, 2, sel.Count)

	w = doRequest(router, http.MethodPost, "/views/orders/orders/delete-selected", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var res apporder.BulkDeleteResult
	decodeData(t, w, &res)
	assert.ElementsMatch(t, []string{"o1", "o3"}, res.Deleted)
	assert.Empty(t, res.Failed)
	assert.Equal(t, []string{"SN-2"}, serials(res.Table.Orders))
	assert.Empty(t, res.Table.Selected)

	decodeData(t, doRequest(router, http.MethodGet, "/views/orders/selection", nil), &sel)
	assert.Zero(t, sel.Count)
	assert.Equal(t, []bulkCall{{"delete_selected", 2, 0}}, obs.bulk)

	w = doRequest(router, http.MethodPost, "/views/orders/orders/delete-selected", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, dto.ErrCodeNothingSelected, decodeError(t, w).Code)
}

func TestOrderHandler_SelectionModeValidated(t *testing.T) {
	router, _ := orderRouter(t, newMemGateway(seedOrders()...), nil, asUser("admin", "*"))
	w := doRequest(router, http.MethodPost, "/views/orders/selection", gin.H{"mode": "invert"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOrderHandler_DeleteByStatusReportsFailures(t *testing.T) {
	gw := newMemGateway(seedOrders()...)
	gw.failIDs["o3"] = true
	obs := &recordingObserver{}
	router, _ := orderRouter(t, gw, obs, asUser("admin", "*"))

	w := doRequest(router, http.MethodPost, "/views/orders/orders/delete-by-status", gin.H{"status": "DELIVERED"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var res apporder.BulkDeleteResult
	decodeData(t, w, &res)
	assert.Equal(t, 2, res.Requested)
	assert.Equal(t, []string{"o2"}, res.Deleted)
	require.Len(t, res.Failed, 1)
	assert.Equal(t, "o3", res.Failed[0].ID)
	assert.Equal(t, []bulkCall{{"delete_by_status", 1, 1}}, obs.bulk)
}

func TestOrderHandler_DeleteAll(t *testing.T) {
	router, _ := orderRouter(t, newMemGateway(seedOrders()...), nil, asUser("admin", "*"))
	require.Equal(t, http.StatusOK, doRequest(router, http.MethodGet, "/views/wahab/orders", nil).Code)

	w := doRequest(router, http.MethodPost, "/views/wahab/orders/delete-all", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var res apporder.BulkDeleteResult
	decodeData(t, w, &res)
	assert.Equal(t, []string{"o2"}, res.Deleted)

	var table apporder.TableView
	decodeData(t, doRequest(router, http.MethodGet, "/views/orders/orders", nil), &table)
	assert.Equal(t, []string{"SN-1", "SN-3"}, serials(table.Orders))
}

func TestOrderHandler_BulkImport(t *testing.T) {
	obs := &recordingObserver{}
	router, _ := orderRouter(t, newMemGateway(seedOrders()...), obs, asUser("admin", "*"))

	w := doRequest(router, http.MethodPost, "/views/orders/orders/bulk", gin.H{
		"serialNumbers": "SN-1\nSN-10\n SN-11 \n\nSN-10",
		"owner":         "Ahsan",
		"orderDate":     "2026-03-03",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var res apporder.BulkImportResult
	decodeData(t, w, &res)
	assert.Equal(t, 3, res.Submitted)
	assert.Equal(t, 2, res.Created)
	assert.Equal(t, []string{"SN-1"}, res.SkippedSerials)
	assert.Equal(t, 5, res.Table.Count)
	assert.Equal(t, []bulkCall{{"import", 2, 1}}, obs.bulk)

	w = doRequest(router, http.MethodPost, "/views/orders/orders/bulk", gin.H{"serialNumbers": " \n ", "orderDate": "2026-03-03"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeEmptyBatch, decodeError(t, w).Code)
}

func TestOrderHandler_BulkImportCSV(t *testing.T) {
	router, _ := orderRouter(t, newMemGateway(), nil, asUser("admin", "*"))

	upload := func(content string, fields map[string]string) *httptest.ResponseRecorder {
		var body bytes.Buffer
		mw := multipart.NewWriter(&body)
		for k, v := range fields {
			require.NoError(t, mw.WriteField(k, v))
		}
		if content != "" {
			part, err := mw.CreateFormFile("file", "serials.csv")
			require.NoError(t, err)
			_, _ = part.Write([]byte(content))
		}
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(http.MethodPost, "/views/wahab/orders/bulk/csv", &body)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	t.Run("serial column", func(t *testing.T) {
		w := upload("Notes,Serial Number\nx,CSV-1\ny,CSV-2\nz,CSV-1\n", map[string]string{"orderDate": "2026-03-04"})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var res apporder.BulkImportResult
		decodeData(t, w, &res)
		assert.Equal(t, 2, res.Created)
		for _, o := range res.Table.Orders {
			assert.Equal(t, "Wahab", o.Owner)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		w := upload("", map[string]string{"orderDate": "2026-03-04"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("header only", func(t *testing.T) {
		w := upload("serial\n", map[string]string{"orderDate": "2026-03-04"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, decodeError(t, w).Message, "no serial numbers")
	})

	t.Run("order date required", func(t *testing.T) {
		w := upload("serial\nCSV-3\n", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestOrderHandler_BulkStatus(t *testing.T) {
	obs := &recordingObserver{}
	router, _ := orderRouter(t, newMemGateway(seedOrders()...), obs, asUser("admin", "*"))

	w := doRequest(router, http.MethodPost, "/views/orders/orders/bulk-status", gin.H{
		"serialNumbers": "SN-1\nSN-404",
		"status":        "Cancelled",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var res apporder.BulkStatusResult
	decodeData(t, w, &res)
	assert.Equal(t, 1, res.Updated)
	assert.Equal(t, []string{"SN-404"}, res.NotFound)
	assert.Equal(t, []bulkCall{{"status", 1, 1}}, obs.bulk)
}
