package cmd

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/dukex/fuzzie/pkg/connectors"
)

// NewConnectors registers the built-in connector actions against the public service APIs.
func NewConnectors(logger *slog.Logger, timeout time.Duration) *connectors.Registry {
	return connectors.NewDefaultRegistry(logger, connectors.Options{
		HTTPClient: &http.Client{Timeout: timeout},
	})
}
