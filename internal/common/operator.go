package common

import (
	"context"
	"net/http"
	"strings"
)

// OperatorHeader carries the back-office user on behalf of whom a form calls the API.
const OperatorHeader = "X-Operator-ID"

type ctxKey string

const operatorKey ctxKey = "backoffice/operator"

// WithOperator stores the operator identifier on the provided context.
func WithOperator(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, operatorKey, id)
}

// Operator extracts the operator identifier from the context if present.
func Operator(ctx context.Context) (string, bool) {
	v := ctx.Value(operatorKey)
	if v == nil {
		return "", false
	}
	id, ok := v.(string)
	return id, ok && id != ""
}

// OperatorMiddleware copies the operator header onto the request context.
func OperatorMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := strings.TrimSpace(r.Header.Get(OperatorHeader)); id != "" {
			r = r.WithContext(WithOperator(r.Context(), id))
		}
		next.ServeHTTP(w, r)
	})
}
