package handlers

import (
	_ "embed"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"
)

//go:embed swagger/doc.json
var swaggerDoc []byte

const swaggerDocPath = "/swagger/doc.json"

// SwaggerDoc serves the OpenAPI document for the JSON API
func SwaggerDoc(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write(swaggerDoc)
}

// SwaggerUI serves the interactive API browser
func SwaggerUI() http.HandlerFunc {
	return httpSwagger.Handler(httpSwagger.URL(swaggerDocPath))
}
