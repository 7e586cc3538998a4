package middleware

import (
	"net/url"

	"github.com/valyala/fasthttp"
	"gorm.io/gorm"

	"releasedash/internal/config"
	dbpkg "releasedash/internal/db"
	httpctx "releasedash/internal/http/ctx"
)

// sessionUser loads the user named by the session cookie.
func sessionUser(ctx *fasthttp.RequestCtx, db *gorm.DB, cfg *config.Config) (*dbpkg.User, bool) {
	cookie := ctx.Request.Header.Cookie("session_user")
	if len(cookie) == 0 {
		return nil, false
	}

	var user dbpkg.User
	if err := db.Where("username = ?", string(cookie)).First(&user).Error; err != nil {
		return nil, false
	}
	if user.Username == cfg.AdminUser {
		user.IsAdmin = true
	}
	return &user, true
}

// AdminAuth returns middleware that loads the session user and sets it on the
// context. Requests without a valid session are sent to the login page.
func AdminAuth(db *gorm.DB, cfg *config.Config) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			user, ok := sessionUser(ctx, db, cfg)
			if !ok {
				ctx.Redirect("/login?next="+url.QueryEscape(string(ctx.RequestURI())), fasthttp.StatusSeeOther)
				return
			}
			httpctx.SetUser(ctx, user)
			next(ctx)
		}
	}
}

// OptionalAuth sets the session user when there is one and lets anonymous
// requests through.
func OptionalAuth(db *gorm.DB, cfg *config.Config) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			if user, ok := sessionUser(ctx, db, cfg); ok {
				httpctx.SetUser(ctx, user)
			}
			next(ctx)
		}
	}
}

// RequireAdmin rejects users without admin rights. It must run after
// AdminAuth or BearerAuth.
func RequireAdmin(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		user, ok := httpctx.UserFromCtx(ctx)
		if !ok || !user.IsAdmin {
			ctx.SetStatusCode(fasthttp.StatusForbidden)
			ctx.SetBodyString("forbidden")
			return
		}
		next(ctx)
	}
}
