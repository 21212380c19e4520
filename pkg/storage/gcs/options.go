package gcs

import (
	"go.uber.org/zap"
)

// Option is a functor to pass optional parameters to the gcs store
type Option func(*gcs)

// Logger specifies a logger for this store
func Logger(logger *zap.Logger) Option {
	return func(g *gcs) {
		if logger != nil {
			g.l = logger
		}
	}
}

// Prefix prepended to all object names in the bucket
func Prefix(prefix string) Option {
	return func(g *gcs) {
		g.prefix = prefix
	}
}

// CredentialsFile points to a service account JSON file.
// When omitted, the application default credentials are used.
func CredentialsFile(file string) Option {
	return func(g *gcs) {
		g.credentialFile = file
	}
}
