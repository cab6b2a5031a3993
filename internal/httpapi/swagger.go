//go:build swagger

package httpapi

import (
	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger"
	"github.com/swaggo/swag"
)

// MountSwagger serves the swagger UI at /swagger/. The spec itself comes from
// the docs package generated by `swag init -g cmd/koboldd/docs.go`
// and registered with swag.
func MountSwagger(r chi.Router) {
	if _, err := swag.ReadDoc(); err != nil {
		zlog.Warn().Err(err).Msg("swagger docs not registered; run swag init")
	}
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
}
