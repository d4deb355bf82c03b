package swagger

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"
)

// Handler serves the Swagger UI together with the OpenAPI document it
// renders. specPath points at the yml file on disk.
func Handler(specPath string) http.Handler {
	ui := httpSwagger.Handler(
		httpSwagger.URL("/swagger/openapi.yml"),
	)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/swagger/openapi.yml" {
			http.ServeFile(w, r, specPath)
			return
		}
		ui.ServeHTTP(w, r)
	})
}
