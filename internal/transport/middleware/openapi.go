package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/org-management/internal"
	"github.com/frahmantamala/org-management/internal/transport"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/legacy"
)

// RequestValidator checks incoming requests against the OpenAPI document.
// Requests for operations the document does not describe pass through
// untouched.
type RequestValidator struct {
	router routers.Router
	base   *transport.BaseHandler
}

// NewRequestValidator loads and validates the document at path.
func NewRequestValidator(ctx context.Context, path string, log *slog.Logger) (*RequestValidator, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("load openapi document: %w", err)
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("invalid openapi document: %w", err)
	}
	// paths in the document are absolute
	doc.Servers = nil

	router, err := legacy.NewRouter(doc)
	if err != nil {
		return nil, fmt.Errorf("build openapi router: %w", err)
	}
	return &RequestValidator{router: router, base: transport.NewBaseHandler(log)}, nil
}

func (v *RequestValidator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route, params, err := v.router.FindRoute(r)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		input := &openapi3filter.RequestValidationInput{
			Request:    r,
			PathParams: params,
			Route:      route,
			Options: &openapi3filter.Options{
				AuthenticationFunc: openapi3filter.NoopAuthenticationFunc,
				MultiError:         false,
			},
		}
		if err := openapi3filter.ValidateRequest(r.Context(), input); err != nil {
			v.base.Logger.WarnContext(r.Context(), "request failed openapi validation",
				"method", r.Method, "path", r.URL.Path, "error", err)
			v.base.WriteAppError(w, internal.NewValidationError(validationMessage(err), internal.ErrCodeValidationFailed))
			return
		}

		next.ServeHTTP(w, r)
	})
}

func validationMessage(err error) string {
	switch e := err.(type) {
	case *openapi3filter.RequestError:
		if e.Parameter != nil {
			return fmt.Sprintf("invalid parameter %q: %s", e.Parameter.Name, e.Reason)
		}
		if e.RequestBody != nil {
			return "invalid request body: " + e.Error()
		}
		return e.Error()
	default:
		return err.Error()
	}
}
