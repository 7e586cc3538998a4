// Package ctx stores the authenticated principal on a request.
package ctx

import (
	"github.com/valyala/fasthttp"

	dbpkg "releasedash/internal/db"
)

type key int

const (
	userKey key = iota
	apiKeyKey
)

// SetUser records the signed-in user. A nil user is ignored.
func SetUser(ctx *fasthttp.RequestCtx, user *dbpkg.User) {
	if user == nil {
		return
	}
	ctx.SetUserValue(userKey, user)
}

// UserFromCtx returns the user set by one of the auth middlewares.
func UserFromCtx(ctx *fasthttp.RequestCtx) (*dbpkg.User, bool) {
	u, ok := ctx.UserValue(userKey).(*dbpkg.User)
	return u, ok && u != nil
}

// SetAPIKey records the key a machine client authenticated with.
func SetAPIKey(ctx *fasthttp.RequestCtx, apiKey *dbpkg.APIKey) {
	ctx.SetUserValue(apiKeyKey, apiKey)
}

func APIKeyFromCtx(ctx *fasthttp.RequestCtx) (*dbpkg.APIKey, bool) {
	ak, ok := ctx.UserValue(apiKeyKey).(*dbpkg.APIKey)
	return ak, ok && ak != nil
}
