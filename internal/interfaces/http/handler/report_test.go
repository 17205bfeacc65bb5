package handler

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	apporder "github.com/orderdesk/backend/internal/application/order"
	"github.com/orderdesk/backend/internal/domain/order"
	"github.com/orderdesk/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func reportRouter(t *testing.T) *gin.Engine {
	t.Helper()
	tables := apporder.NewTableService(newMemGateway(seedOrders()...), nil, zaptest.NewLogger(t),
		apporder.WithOwnerViews(map[string]string{"wahab": "Wahab"}))
	h := NewReportHandler(apporder.NewReportService(tables, []string{"Ahsan", "Wahab"}))

	router := gin.New()
	router.Use(middleware.RequestID(), asUser("admin", "*"))
	router.POST("/orders/prefill", h.Prefill)
	views := router.Group("/views/:view", middleware.ViewAccess(fakeViewResolver{tables}))
	views.GET("/reports/summary", h.Summary)
	views.GET("/reports/charts", h.Charts)
	return router
}

func TestReportHandler_Summary(t *testing.T) {
	router := reportRouter(t)

	var summary apporder.ReportSummary
	decodeData(t, doRequest(router, http.MethodGet, "/views/orders/reports/summary", nil), &summary)
	assert.Equal(t, 3, summary.Total)
	require.Len(t, summary.Counts, 4)
	counts := map[order.Status]int{}
	for _, c := range summary.Counts {
		counts[c.Status] = c.Count
	}
	assert.Equal(t, 2, counts[order.StatusDelivered])
	assert.Equal(t, 1, counts[order.StatusPending])
	assert.Equal(t, 0, counts[order.StatusCancelled])

	decodeData(t, doRequest(router, http.MethodGet, "/views/wahab/reports/summary", nil), &summary)
	assert.Equal(t, 1, summary.Total)
}

func TestReportHandler_Charts(t *testing.T) {
	router := reportRouter(t)

	var charts apporder.ChartData
	decodeData(t, doRequest(router, http.MethodGet, "/views/orders/reports/charts", nil), &charts)
	assert.Equal(t, []order.BarPoint{{Label: "Ahsan", Value: 2}, {Label: "Wahab", Value: 1}}, charts.ByOwner)
	assert.Equal(t, []order.BarPoint{{Label: "2026-03-01", Value: 2}, {Label: "2026-03-02", Value: 1}}, charts.ByDate)
}

func TestReportHandler_Prefill(t *testing.T) {
	router := reportRouter(t)

	w := doRequest(router, http.MethodPost, "/orders/prefill", gin.H{
		"text": "INVOICE\nShip to: Wahab Traders\nDate: 2026-03-04\nTracking No: TRK-123456",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var fields order.InvoiceFields
	decodeData(t, w, &fields)
	assert.Equal(t, []string{"TRK-123456"}, fields.SerialNumbers)
	assert.Equal(t, "2026-03-04", fields.OrderDate)
	assert.Equal(t, "Wahab", fields.Owner)

	w = doRequest(router, http.MethodPost, "/orders/prefill", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
