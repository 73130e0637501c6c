package swagger

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"
)

// Handler serves the Swagger UI pointed at the document mounted at specURL.
func Handler(specURL string) http.Handler {
	if specURL == "" {
		specURL = "/openapi.yml"
	}
	return httpSwagger.Handler(
		httpSwagger.URL(specURL),
	)
}
