package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

func routeParam(r *http.Request, key string) string {
	return chi.URLParam(r, key)
}

func timeoutContext(r *http.Request, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), d)
}
