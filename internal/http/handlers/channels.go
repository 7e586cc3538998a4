package handlers

import (
	"context"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"releasedash/internal/channels"
)

// ChannelReader reports the current release channels.
type ChannelReader interface {
	Channels(ctx context.Context) (channels.Channels, error)
}

func ChannelsAPI(src ChannelReader, log *zap.Logger) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		c, cancel := requestContext(ctx)
		defer cancel()

		ch, err := src.Channels(c)
		if err != nil {
			log.Error("channels lookup failed", zap.Error(err))
			ctx.SetStatusCode(fasthttp.StatusBadGateway)
			jsonResponse(ctx, map[string]any{"error": loadErrorText})
			return
		}
		ctx.Response.Header.Set("Cache-Control", "public, max-age=300")
		jsonResponse(ctx, ch)
	}
}
