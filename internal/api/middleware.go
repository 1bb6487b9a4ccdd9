package api

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

type contextKey string

const (
	cartIDKey    contextKey = "cart_id"
	requestIDKey contextKey = "request_id"
)

const cartIDHeader = "X-Cart-ID"

// CartIDMiddleware resolves the visitor's cart ID from the X-Cart-ID header
// or cart_id cookie, minting a new one when absent so first-time visitors
// get a cart without a separate handshake.
func CartIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cartID := r.Header.Get(cartIDHeader)
		if cartID == "" {
			if cookie, err := r.Cookie("cart_id"); err == nil {
				cartID = cookie.Value
			}
		}
		if cartID == "" {
			cartID = uuid.New().String()
			http.SetCookie(w, &http.Cookie{
				Name:     "cart_id",
				Value:    cartID,
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}
		w.Header().Set(cartIDHeader, cartID)

		ctx := context.WithValue(r.Context(), cartIDKey, cartID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequestIDMiddleware adds a unique request ID to each request.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}

		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func getCartIDFromContext(ctx context.Context) string {
	if cartID, ok := ctx.Value(cartIDKey).(string); ok {
		return cartID
	}
	return ""
}
