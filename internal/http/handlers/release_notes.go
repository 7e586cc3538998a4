package handlers

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"releasedash/internal/config"
	dbpkg "releasedash/internal/db"
	"releasedash/internal/releasenotes"
)

// NotesProvider resolves the release notes for a requested milestone. A nil
// or non-positive request means the stable milestone.
type NotesProvider interface {
	Resolve(ctx context.Context, requested *int) (releasenotes.Notes, error)
}

func ReleaseNotesPage(notes NotesProvider, cfg *config.Config, log *zap.Logger) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		c, cancel := requestContext(ctx)
		defer cancel()

		data := getLayoutData(ctx, cfg, "release-notes", "Release notes", "release_notes")
		n, err := notes.Resolve(c, milestoneQuery(ctx))
		if err != nil {
			log.Error("release notes failed",
				zap.ByteString("milestone", ctx.QueryArgs().Peek("milestone")),
				zap.Error(err))
			data.Error = loadErrorText
			ctx.SetStatusCode(fasthttp.StatusBadGateway)
			renderLayout(ctx, data)
			return
		}

		user := currentUser(ctx)
		data.Title = fmt.Sprintf("Chrome %d Enterprise and Education release notes", n.Milestone)
		data.Notes = &n
		data.Sections = n.Sections()
		data.Milestones = releasenotes.MilestoneOptions(n.Milestone)
		data.Editable, data.Updated = annotateFeatures(n, user, time.Now(), data.TimeFormat, data.DateFormat)
		if id, err := strconv.ParseInt(string(ctx.QueryArgs().Peek("edit")), 10, 64); err == nil && data.Editable[id] {
			data.EditID = id
		}
		renderLayout(ctx, data)
	}
}

// annotateFeatures computes, per feature ID, whether user may edit its
// summary and its "last updated" line.
func annotateFeatures(n releasenotes.Notes, user *dbpkg.User, now time.Time, timeFormat, dateFormat string) (map[int64]bool, map[int64]string) {
	editable := make(map[int64]bool)
	updated := make(map[int64]string)
	for _, sec := range n.Sections() {
		for _, f := range sec.Features {
			if user.CanEdit(f.ID) {
				editable[f.ID] = true
			}
			updated[f.ID] = FormatUpdated(f.Updated.When, f.Updated.By, now, timeFormat, dateFormat)
		}
	}
	return editable, updated
}

// ReleaseNotesAPI serves the release notes as JSON, or as markdown with
// format=markdown.
func ReleaseNotesAPI(notes NotesProvider, log *zap.Logger) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		c, cancel := requestContext(ctx)
		defer cancel()

		n, err := notes.Resolve(c, milestoneQuery(ctx))
		if err != nil {
			log.Error("release notes api failed",
				zap.ByteString("milestone", ctx.QueryArgs().Peek("milestone")),
				zap.Error(err))
			ctx.SetStatusCode(fasthttp.StatusBadGateway)
			jsonResponse(ctx, map[string]any{"error": loadErrorText})
			return
		}

		if string(ctx.QueryArgs().Peek("format")) == "markdown" {
			ctx.SetContentType("text/markdown; charset=utf-8")
			ctx.SetBodyString(n.Markdown())
			return
		}
		jsonResponse(ctx, n)
	}
}
