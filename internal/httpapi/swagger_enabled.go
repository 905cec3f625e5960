//go:build swagger

package httpapi

import (
	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger"
	"github.com/swaggo/swag"
)

// minimal hand-registered spec; regenerate with `swag init` when the API grows.
const docTemplate = `{
  "swagger": "2.0",
  "info": {"title": "inferd API", "version": "1.0"},
  "basePath": "/",
  "paths": {
    "/predict": {"post": {"summary": "Run a prediction against the loaded model"}},
    "/status": {"get": {"summary": "Loaded model status"}},
    "/healthz": {"get": {"summary": "Liveness probe"}},
    "/readyz": {"get": {"summary": "Readiness probe"}}
  }
}`

func init() {
	swag.Register(swag.Name, &swagSpec{})
}

type swagSpec struct{}

func (s *swagSpec) ReadDoc() string { return docTemplate }

// MountSwagger serves the swagger UI at /swagger/.
func MountSwagger(r chi.Router) {
	r.Get("/swagger/*", httpSwagger.Handler())
}
