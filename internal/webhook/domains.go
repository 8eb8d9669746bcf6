package webhook

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nhle/inboundkit/internal/apperr"
	"github.com/nhle/inboundkit/internal/domain"
)

// domainProxy forwards the wizard's domain calls to the email API so the
// API key never reaches the browser.
type domainProxy struct {
	api    domain.API
	logger *slog.Logger
}

type createDomainBody struct {
	Domain string `json:"domain"`
}

func (p *domainProxy) create(w http.ResponseWriter, r *http.Request) {
	var body createDomainBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		badRequest(w, "Invalid JSON payload")
		return
	}

	name := domain.Normalize(body.Domain)
	if err := domain.Validate(name); err != nil {
		badRequest(w, err.Error())
		return
	}

	d, err := p.api.CreateDomain(r.Context(), name)
	if err != nil {
		p.upstreamFailure(w, r, err, "Failed to create domain")
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (p *domainProxy) check(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		badRequest(w, "Missing domain id")
		return
	}

	d, err := p.api.CheckDomain(r.Context(), id)
	if err != nil {
		p.upstreamFailure(w, r, err, "Failed to check domain")
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// upstreamFailure passes an upstream status and message through; any
// other failure is a generic 500.
func (p *domainProxy) upstreamFailure(w http.ResponseWriter, r *http.Request, err error, publicMsg string) {
	if ue, ok := apperr.AsUpstream(err); ok {
		p.logger.Warn(publicMsg, "status", ue.Status, "error", ue.Message, "request_id", requestID(r))
		writeError(w, ue.Status, ue.Message)
		return
	}
	var ve *apperr.ValidationError
	if errors.As(err, &ve) {
		badRequest(w, ve.Error())
		return
	}
	internalError(w, r, p.logger, err, publicMsg)
}
