package api

import (
	"context"
	"net/http"
)

func contextWithOwner(ctx context.Context, owner string) context.Context {
	return context.WithValue(ctx, ownerKey, owner)
}

// ownerID returns the authenticated owner for the request. The
// requireOwner middleware guarantees it is set on /api routes.
func ownerID(r *http.Request) string {
	if v, ok := r.Context().Value(ownerKey).(string); ok {
		return v
	}
	return ""
}
