// Package net provides request scoped helpers shared by transports
package net

import (
	"context"

	chimw "github.com/go-chi/chi/v5/middleware"
)

type ctxKey string

const keyGuildID ctxKey = "guild_id"

// GuildHeader carries the guild a request acts for
const GuildHeader = "X-Guild-ID"

// WithRequest annotates ctx with a request id and guild id
// empty values are skipped so the returned ctx may be ctx itself
func WithRequest(ctx context.Context, reqID, guildID string) context.Context {
	if reqID != "" {
		ctx = context.WithValue(ctx, chimw.RequestIDKey, reqID)
	}
	if guildID != "" {
		ctx = context.WithValue(ctx, keyGuildID, guildID)
	}
	return ctx
}

// RequestID returns the request id on ctx or empty
func RequestID(ctx context.Context) string { return chimw.GetReqID(ctx) }

// GuildID returns the guild id on ctx or empty
func GuildID(ctx context.Context) string {
	v, _ := ctx.Value(keyGuildID).(string)
	return v
}
