package handlers

import (
	"strconv"
	"strings"

	"github.com/valyala/fasthttp"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"releasedash/internal/config"
	dbpkg "releasedash/internal/db"
)

func CreateUser(db *gorm.DB) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		username := strings.TrimSpace(string(ctx.PostArgs().Peek("username")))
		password := string(ctx.PostArgs().Peek("password"))

		if username == "" || password == "" {
			errResponse(ctx, fasthttp.StatusBadRequest, "username and password required")
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			errResponse(ctx, fasthttp.StatusInternalServerError, "failed to hash password")
			return
		}

		user := &dbpkg.User{
			Username:     username,
			PasswordHash: string(hash),
			IsAdmin:      string(ctx.PostArgs().Peek("is_admin")) == "true",
			CanEditAll:   string(ctx.PostArgs().Peek("can_edit_all")) == "true",
		}

		if err := db.Create(user).Error; err != nil {
			errResponse(ctx, fasthttp.StatusBadRequest, "failed to create user (username may already exist)")
			return
		}

		ctx.Redirect("/users", fasthttp.StatusSeeOther)
	}
}

// targetUser loads the user named by the {id} route parameter. The bootstrap
// admin cannot be modified through the UI.
func targetUser(ctx *fasthttp.RequestCtx, db *gorm.DB, cfg *config.Config) (*dbpkg.User, bool) {
	id, ok := idParam(ctx)
	if !ok {
		errResponse(ctx, fasthttp.StatusBadRequest, "invalid user ID")
		return nil, false
	}

	var user dbpkg.User
	if err := db.First(&user, id).Error; err != nil {
		errResponse(ctx, fasthttp.StatusNotFound, "user not found")
		return nil, false
	}

	if user.Username == cfg.AdminUser {
		errResponse(ctx, fasthttp.StatusForbidden, "cannot modify bootstrap admin user")
		return nil, false
	}
	return &user, true
}

func ResetPassword(db *gorm.DB, cfg *config.Config) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		user, ok := targetUser(ctx, db, cfg)
		if !ok {
			return
		}

		password := string(ctx.PostArgs().Peek("password"))
		if password == "" {
			errResponse(ctx, fasthttp.StatusBadRequest, "password required")
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			errResponse(ctx, fasthttp.StatusInternalServerError, "failed to hash password")
			return
		}

		if err := db.Model(user).Update("password_hash", string(hash)).Error; err != nil {
			errResponse(ctx, fasthttp.StatusInternalServerError, "failed to update password")
			return
		}

		ctx.Redirect("/users", fasthttp.StatusSeeOther)
	}
}

// parseFeatureIDs reads a comma or whitespace separated list of feature IDs.
func parseFeatureIDs(s string) ([]int64, bool) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\n' || r == '\r' || r == '\t'
	})
	ids := make([]int64, 0, len(fields))
	seen := make(map[int64]bool, len(fields))
	for _, f := range fields {
		id, err := strconv.ParseInt(f, 10, 64)
		if err != nil || id <= 0 {
			return nil, false
		}
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids, true
}

// SetPermissions updates which feature summaries a user may edit.
func SetPermissions(db *gorm.DB, cfg *config.Config) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		user, ok := targetUser(ctx, db, cfg)
		if !ok {
			return
		}

		ids, ok := parseFeatureIDs(string(ctx.PostArgs().Peek("editable_features")))
		if !ok {
			errResponse(ctx, fasthttp.StatusBadRequest, "editable_features must be a list of feature IDs")
			return
		}
		user.CanEditAll = string(ctx.PostArgs().Peek("can_edit_all")) == "true"
		user.EditableFeatures = ids

		if err := db.Model(user).Select("can_edit_all", "editable_features").Updates(user).Error; err != nil {
			errResponse(ctx, fasthttp.StatusInternalServerError, "failed to update permissions")
			return
		}

		ctx.Redirect("/users", fasthttp.StatusSeeOther)
	}
}

func DeleteUser(db *gorm.DB, cfg *config.Config) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		user, ok := targetUser(ctx, db, cfg)
		if !ok {
			return
		}

		if err := db.Delete(user).Error; err != nil {
			errResponse(ctx, fasthttp.StatusInternalServerError, "failed to delete user")
			return
		}

		ctx.Redirect("/users", fasthttp.StatusSeeOther)
	}
}
