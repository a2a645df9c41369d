// ABOUTME: Handler turns Go errors into FriendlyErrors and logs the original detail
// ABOUTME: Log level follows severity: critical -> error, config -> warn, info -> info
package errors

import (
	"github.com/rs/zerolog"

	"github.com/WildEllie/t3nets/internal/logging"
)

// Handler matches failures against a catalog
type Handler struct {
	catalog *Catalog
	logger  zerolog.Logger
}

// NewHandler creates a handler over the default catalog
func NewHandler() *Handler {
	return NewHandlerWithCatalog(DefaultCatalog())
}

// NewHandlerWithCatalog creates a handler over a custom catalog
func NewHandlerWithCatalog(c *Catalog) *Handler {
	return &Handler{
		catalog: c,
		logger:  logging.Get("errors"),
	}
}

// Handle converts err to a FriendlyError. where names the call site, e.g. "chat".
func (h *Handler) Handle(err error, where string) FriendlyError {
	if err == nil {
		return GenericError
	}
	return h.HandleString(err.Error(), where)
}

// HandleString matches a raw error string, e.g. one returned by an external API
func (h *Handler) HandleString(raw, where string) FriendlyError {
	friendly, matched := h.catalog.Lookup(raw)
	h.log(friendly, where, matched)
	return friendly
}

func (h *Handler) log(f FriendlyError, where string, matched bool) {
	code := f.Code
	if !matched {
		code = "UNMATCHED"
	}

	var ev *zerolog.Event
	switch f.Severity {
	case SeverityCritical:
		ev = h.logger.Error()
	case SeverityConfig:
		ev = h.logger.Warn()
	default:
		ev = h.logger.Info()
	}
	ev.Str("where", where).Str("code", code).Str("original", f.OriginalError).Msg("Handled failure")
}
