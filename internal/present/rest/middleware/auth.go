package middleware

import (
	"context"
	"fmt"
	"strings"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/yuzuhara/fieldwise/internal/domain"
)

var tracer = otel.Tracer("auth")

type AuthMiddleware struct {
	config domain.Config
}

func NewAuthMiddleware(
	config domain.Config,
) *AuthMiddleware {
	return &AuthMiddleware{
		config: config,
	}
}

// IdentifyRequester lifts the vendor bearer token and the requester id
// header into the request context. Both are optional here; handlers
// that need them reject their absence themselves.
func (s *AuthMiddleware) IdentifyRequester(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, span := tracer.Start(c.Request().Context(), "Auth.Middleware.IdentifyRequester")
		defer span.End()

		authHeader := c.Request().Header.Get("authorization")

		if authHeader != "" {
			split := strings.Split(authHeader, " ")
			if len(split) != 2 {
				span.RecordError(fmt.Errorf("invalid authentication header"))
				goto skipCheckAuthorization
			}

			{
				authType, token := split[0], split[1]
				if authType != "Bearer" {
					span.RecordError(fmt.Errorf("only Bearer is acceptable"))
					goto skipCheckAuthorization
				}

				ctx = context.WithValue(ctx, domain.VendorTokenCtxKey, token)
			}
		}

	skipCheckAuthorization:

		if userID := c.Request().Header.Get("X-User-Id"); userID != "" {
			ctx = context.WithValue(ctx, domain.RequesterIdCtxKey, userID)
			span.SetAttributes(attribute.String("RequesterId", userID))
		}

		c.SetRequest(c.Request().WithContext(ctx))
		return next(c)
	}
}
