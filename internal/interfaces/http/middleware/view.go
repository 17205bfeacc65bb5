package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	apporder "github.com/orderdesk/backend/internal/application/order"
	"github.com/orderdesk/backend/internal/domain/shared"
	"github.com/orderdesk/backend/internal/infrastructure/logger"
	"github.com/orderdesk/backend/internal/interfaces/http/dto"
)

// ViewKey holds the resolved apporder.View in the gin context.
const ViewKey = "order_view"

// ViewResolver looks up a dashboard view by name.
type ViewResolver interface {
	View(name string) (apporder.View, error)
}

// ViewAccess resolves the :view path parameter and rejects callers whose
// token does not cover the view's owner. Must run after JWT authentication.
func ViewAccess(views ViewResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetString("request_id")

		v, err := views.View(c.Param("view"))
		if err != nil {
			message := "Unknown view"
			var domainErr *shared.DomainError
			if errors.As(err, &domainErr) {
				message = domainErr.Message
			}
			c.AbortWithStatusJSON(http.StatusNotFound,
				dto.NewErrorResponseWithRequestID(dto.ErrCodeNotFound, message, requestID))
			return
		}

		claims := GetJWTClaims(c)
		if claims == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				dto.NewErrorResponseWithRequestID(dto.ErrCodeUnauthorized, "Authentication required", requestID))
			return
		}
		if v.Owner != "" && !claims.CanAccessOwner(v.Owner) {
			c.AbortWithStatusJSON(http.StatusForbidden,
				dto.NewErrorResponseWithRequestID(dto.ErrCodeForbidden, "You cannot access the "+v.Name+" view", requestID))
			return
		}

		c.Set(ViewKey, v)
		ctx := c.Request.Context()
		ctx, l := logger.WithView(ctx, logger.FromContext(ctx), v.Name)
		c.Set("logger", l)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// GetView returns the view resolved by ViewAccess.
func GetView(c *gin.Context) (apporder.View, bool) {
	if v, ok := c.Get(ViewKey); ok {
		view, ok := v.(apporder.View)
		return view, ok
	}
	return apporder.View{}, false
}
