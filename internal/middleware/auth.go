package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/kataras/iris/v12"
	"go.uber.org/zap"

	"github.com/ejg/cestas/internal/auth"
	"github.com/ejg/cestas/internal/service"
)

const identityKey = "identity"

// IdentityResolver turns a bearer token into the caller.
type IdentityResolver interface {
	Identify(ctx context.Context, token string) (*auth.Identity, error)
}

// BearerToken extracts the token of an "Authorization: Bearer <t>" header.
// A bare token is accepted too.
func BearerToken(ctx iris.Context) string {
	h := strings.TrimSpace(ctx.GetHeader("Authorization"))
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return h
}

// Identify resolves the caller once per request. Requests without a valid
// token continue anonymously; operations decide whether that is enough.
func Identify(r IdentityResolver) iris.Handler {
	return func(ctx iris.Context) {
		token := BearerToken(ctx)
		if token != "" {
			id, err := r.Identify(ctx.Request().Context(), token)
			switch {
			case err == nil:
				ctx.Values().Set(identityKey, id)
			case errors.Is(err, service.ErrUnauthenticated):
			default:
				zap.L().Error("identify caller", zap.Error(err))
				ctx.StopWithJSON(iris.StatusInternalServerError, iris.Map{
					"code": iris.StatusInternalServerError,
					"msg":  "internal error",
				})
				return
			}
		}
		ctx.Next()
	}
}

// CurrentIdentity returns the caller resolved by Identify, or nil.
func CurrentIdentity(ctx iris.Context) *auth.Identity {
	id, _ := ctx.Values().Get(identityKey).(*auth.Identity)
	return id
}

// RequireUser stops anonymous requests with 401.
func RequireUser() iris.Handler {
	return func(ctx iris.Context) {
		if CurrentIdentity(ctx) == nil {
			ctx.StopWithJSON(iris.StatusUnauthorized, iris.Map{
				"code": iris.StatusUnauthorized,
				"msg":  "unauthenticated",
			})
			return
		}
		ctx.Next()
	}
}

// RequireAdmin stops anonymous requests with 401 and non-admins with 403.
func RequireAdmin() iris.Handler {
	return func(ctx iris.Context) {
		id := CurrentIdentity(ctx)
		if id == nil {
			ctx.StopWithJSON(iris.StatusUnauthorized, iris.Map{
				"code": iris.StatusUnauthorized,
				"msg":  "unauthenticated",
			})
			return
		}
		if !id.IsAdmin() {
			ctx.StopWithJSON(iris.StatusForbidden, iris.Map{
				"code": iris.StatusForbidden,
				"msg":  "forbidden",
			})
			return
		}
		ctx.Next()
	}
}
