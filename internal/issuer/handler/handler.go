package handler

import (
	"encoding/json"
	"log/slog"
	"math/big"
	"net/http"

	"github.com/go-chi/chi/v5"

	"pdtoken/internal/issuer/service"
	"pdtoken/pkg/chainctx"
	"pdtoken/pkg/domain"
	dErrors "pdtoken/pkg/domain-errors"
)

// Handler wires HTTP endpoints to the issuance controller. It stays thin:
// parse, delegate, render.
type Handler struct {
	svc    *service.Service
	logger *slog.Logger
}

func New(svc *service.Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// RegisterAdmin mounts the mutating routes. Mount behind the admin-token
// middleware.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Post("/issuers", h.authorize)
	r.Delete("/issuers/{address}", h.deauthorize)
	r.Post("/issuers/sweep", h.sweep)
	r.Post("/issuers/transfer", h.transfer)
	r.Post("/mint", h.mint)
	r.Post("/burn", h.burn)
	r.Post("/burn-from", h.burnFrom)
}

// RegisterPublic mounts the read-only query routes.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Get("/issuers", h.listIssuers)
	r.Get("/issuers/expired", h.listExpired)
	r.Get("/issuers/{address}/mint-factor", h.mintFactor)
	r.Get("/issuers/{address}/max-mintable", h.maxMintable)
}

func (h *Handler) authorize(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Address string `json:"address"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeBadRequest(w, "invalid JSON body")
		return
	}
	addr, err := domain.ParseAddress(req.Address)
	if err != nil {
		h.writeBadRequest(w, err.Error())
		return
	}
	rec, err := h.svc.AuthorizeIssuer(r.Context(), addr)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, rec)
}

func (h *Handler) deauthorize(w http.ResponseWriter, r *http.Request) {
	addr, err := domain.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		h.writeBadRequest(w, err.Error())
		return
	}
	if !h.requireCaller(w, r) {
		return
	}
	if err := h.svc.DeauthorizeIssuer(r.Context(), addr); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) sweep(w http.ResponseWriter, r *http.Request) {
	removed, err := h.svc.DeauthorizeAllExpired(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"removed": addressStrings(removed)})
}

func (h *Handler) transfer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		To string `json:"to"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeBadRequest(w, "invalid JSON body")
		return
	}
	to, err := domain.ParseAddress(req.To)
	if err != nil {
		h.writeBadRequest(w, err.Error())
		return
	}
	if !h.requireCaller(w, r) {
		return
	}
	rec, err := h.svc.TransferAuthorization(r.Context(), to)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) mint(w http.ResponseWriter, r *http.Request) {
	var req struct {
		To     string `json:"to"`
		Amount string `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeBadRequest(w, "invalid JSON body")
		return
	}
	to, err := domain.ParseAddress(req.To)
	if err != nil {
		h.writeBadRequest(w, err.Error())
		return
	}
	amount, ok := parseAmount(req.Amount)
	if !ok {
		h.writeBadRequest(w, "invalid amount")
		return
	}
	if !h.requireCaller(w, r) {
		return
	}
	res, err := h.svc.Mint(r.Context(), to, amount)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"amount": res.Amount.String(),
		"record": res.Record,
	})
}

func (h *Handler) burn(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount string `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeBadRequest(w, "invalid JSON body")
		return
	}
	amount, ok := parseAmount(req.Amount)
	if !ok {
		h.writeBadRequest(w, "invalid amount")
		return
	}
	if !h.requireCaller(w, r) {
		return
	}
	rec, err := h.svc.Burn(r.Context(), amount)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) burnFrom(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Account string `json:"account"`
		Amount  string `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeBadRequest(w, "invalid JSON body")
		return
	}
	account, err := domain.ParseAddress(req.Account)
	if err != nil {
		h.writeBadRequest(w, err.Error())
		return
	}
	amount, ok := parseAmount(req.Amount)
	if !ok {
		h.writeBadRequest(w, "invalid amount")
		return
	}
	if !h.requireCaller(w, r) {
		return
	}
	rec, err := h.svc.BurnFrom(r.Context(), account, amount)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) listIssuers(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]any{
		"issuers": addressStrings(h.svc.Issuers(r.Context())),
	})
}

func (h *Handler) listExpired(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]any{
		"issuers": addressStrings(h.svc.ExpiredIssuers(r.Context())),
	})
}

func (h *Handler) mintFactor(w http.ResponseWriter, r *http.Request) {
	addr, err := domain.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		h.writeBadRequest(w, err.Error())
		return
	}
	factor, err := h.svc.MintFactor(r.Context(), addr)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"mint_factor": factor, "scale": 10000})
}

func (h *Handler) maxMintable(w http.ResponseWriter, r *http.Request) {
	addr, err := domain.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		h.writeBadRequest(w, err.Error())
		return
	}
	max, err := h.svc.MaxMintable(r.Context(), addr)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"max_mintable": max.String()})
}

// requireCaller rejects mutating requests that carry no caller identity.
func (h *Handler) requireCaller(w http.ResponseWriter, r *http.Request) bool {
	if chainctx.Caller(r.Context()).IsZero() {
		h.writeBadRequest(w, "X-Caller-Address header required")
		return false
	}
	return true
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Warn("encode response", "error", err)
	}
}

func (h *Handler) writeBadRequest(w http.ResponseWriter, msg string) {
	h.writeJSON(w, http.StatusBadRequest, map[string]string{
		"error":             string(dErrors.CodeValidation),
		"error_description": msg,
	})
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := dErrors.CodeOf(err)
	status := http.StatusInternalServerError
	switch code {
	case dErrors.CodeValidation, dErrors.CodeBadRequest:
		status = http.StatusBadRequest
	case dErrors.CodeNotFound:
		status = http.StatusNotFound
	case dErrors.CodeConflict:
		status = http.StatusConflict
	case dErrors.CodeForbidden:
		status = http.StatusForbidden
	case dErrors.CodeUnauthorized:
		status = http.StatusUnauthorized
	}
	if status == http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "internal error",
			"request_id", chainctx.RequestID(r.Context()), "error", err)
	}
	h.writeJSON(w, status, map[string]string{
		"error":             string(code),
		"error_description": err.Error(),
	})
}

func parseAmount(s string) (*big.Int, bool) {
	if s == "" {
		return nil, false
	}
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, false
	}
	return n, true
}

func addressStrings(addrs []domain.Address) []string {
	out := make([]string, len(addrs))
	for i, a := range addrs {
		out[i] = a.String()
	}
	return out
}
