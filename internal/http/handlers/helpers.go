package handlers

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/valyala/fasthttp"

	dbpkg "releasedash/internal/db"
	httpctx "releasedash/internal/http/ctx"
)

// loadErrorText is shown whenever release notes data could not be loaded.
const loadErrorText = "Some errors occurred. Please refresh the page or try again later."

const requestTimeout = 10 * time.Second

// MustUser returns the current user from context, or sends 401 and returns (nil, false).
func MustUser(ctx *fasthttp.RequestCtx) (*dbpkg.User, bool) {
	user, ok := httpctx.UserFromCtx(ctx)
	if !ok {
		ctx.SetStatusCode(fasthttp.StatusUnauthorized)
		ctx.SetBodyString("unauthorized")
		return nil, false
	}
	return user, true
}

// currentUser returns the signed-in user, if any, without writing a response.
func currentUser(ctx *fasthttp.RequestCtx) *dbpkg.User {
	user, _ := httpctx.UserFromCtx(ctx)
	return user
}

// requestContext bounds the store and upstream calls made for one request.
// It is canceled on timeout or when the server shuts down.
func requestContext(ctx *fasthttp.RequestCtx) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, requestTimeout)
}

func jsonResponse(ctx *fasthttp.RequestCtx, data any) {
	body, err := json.Marshal(data)
	if err != nil {
		errResponse(ctx, fasthttp.StatusInternalServerError, "failed to encode response")
		return
	}
	ctx.SetContentType("application/json")
	ctx.SetBody(body)
}

func errResponse(ctx *fasthttp.RequestCtx, code int, msg string) {
	ctx.SetStatusCode(code)
	ctx.SetBodyString(msg)
}

// milestoneQuery reads the "milestone" query argument. Missing or malformed
// values yield nil so the stable milestone is used.
func milestoneQuery(ctx *fasthttp.RequestCtx) *int {
	raw := ctx.QueryArgs().Peek("milestone")
	if len(raw) == 0 {
		return nil
	}
	m, err := strconv.Atoi(string(raw))
	if err != nil {
		return nil
	}
	return &m
}

// idParam parses the {id} route parameter as a positive integer.
func idParam(ctx *fasthttp.RequestCtx) (int64, bool) {
	s, ok := ctx.UserValue("id").(string)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
