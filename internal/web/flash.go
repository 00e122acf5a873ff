package web

import (
	"net/http"

	"go.uber.org/zap"
)

const sessionName = "kiroku_session"

// Flash categories. Errors render as warnings, successes as notices.
const (
	flashError   = "error"
	flashSuccess = "success"
)

// flash queues a one-shot message in the cookie session. It survives exactly
// one redirect and is cleared on the next read.
func (h *Handler) flash(w http.ResponseWriter, r *http.Request, kind, msg string) {
	session, _ := h.sessions.Get(r, sessionName)
	session.AddFlash(msg, kind)
	if err := session.Save(r, w); err != nil {
		h.logger.Warn("save flash session", zap.Error(err))
	}
}

// popFlashes drains queued flash messages. Reading flashes mutates the
// session, so it is saved again to clear them.
func (h *Handler) popFlashes(w http.ResponseWriter, r *http.Request) (errs, notices []string) {
	session, _ := h.sessions.Get(r, sessionName)
	for _, f := range session.Flashes(flashError) {
		if s, ok := f.(string); ok {
			errs = append(errs, s)
		}
	}
	for _, f := range session.Flashes(flashSuccess) {
		if s, ok := f.(string); ok {
			notices = append(notices, s)
		}
	}
	if err := session.Save(r, w); err != nil {
		h.logger.Warn("save flash session", zap.Error(err))
	}
	return errs, notices
}
