package http

import (
	_ "embed"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
)

//go:embed openapi.yaml
var openapiYAML []byte

var (
	swaggerOnce sync.Once
	swaggerDoc  *openapi3.T
	swaggerErr  error
)

// RawSwagger returns the embedded OpenAPI document as served on /openapi.yaml.
func RawSwagger() []byte {
	return openapiYAML
}

// GetSwagger parses the embedded OpenAPI document. The result is cached.
func GetSwagger() (*openapi3.T, error) {
	swaggerOnce.Do(func() {
		loader := openapi3.NewLoader()
		swaggerDoc, swaggerErr = loader.LoadFromData(openapiYAML)
	})
	return swaggerDoc, swaggerErr
}
