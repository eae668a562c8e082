package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"ssal/internal/types"
)

type SequencerService interface {
	Register(ctx context.Context, identity string) (types.SequencerEntry, error)
	Deregister(ctx context.Context, identity string) error
	List(ctx context.Context) ([]types.SequencerEntry, error)
}

type RollupService interface {
	Register(ctx context.Context, identity string) (types.RollupEntry, error)
	Deregister(ctx context.Context, identity string) error
	List(ctx context.Context) ([]types.RollupEntry, error)
}

type LeaderService interface {
	Leader() (types.Round, error)
}

type BlockService interface {
	CloseBlock(ctx context.Context, rollupID, rawTx string) (types.BlockReceipt, error)
	Round(number uint64) (types.ClosedRound, error)
}

type Config struct {
	Sequencers SequencerService
	Rollups    RollupService
	Leader     LeaderService
	Blocks     BlockService

	MaxBodyBytes int64
}

type Handlers struct {
	log *slog.Logger
	cfg Config
}

func New(log *slog.Logger, cfg Config) *Handlers {
	return &Handlers{log: log, cfg: cfg}
}

type SequencerSetResponse struct {
	Sequencers []types.SequencerEntry `json:"sequencers"`
}

type RollupSetResponse struct {
	Rollups []types.RollupEntry `json:"rollups"`
}

// LeaderResponse carries a null leader when the round is idle.
type LeaderResponse struct {
	Round     uint64                `json:"round"`
	Status    types.RoundStatus     `json:"status"`
	Leader    *types.SequencerEntry `json:"leader"`
	ElectedAt *time.Time            `json:"elected_at,omitempty"`
}

func (h *Handlers) GetSequencerSet(w http.ResponseWriter, req *http.Request) {
	list, err := h.cfg.Sequencers.List(req.Context())
	if err != nil {
		WriteError(h.log, w, req, err)
		return
	}
	writeJSON(h.log, w, http.StatusOK, SequencerSetResponse{Sequencers: list})
}

func (h *Handlers) GetRollupSet(w http.ResponseWriter, req *http.Request) {
	list, err := h.cfg.Rollups.List(req.Context())
	if err != nil {
		WriteError(h.log, w, req, err)
		return
	}
	writeJSON(h.log, w, http.StatusOK, RollupSetResponse{Rollups: list})
}

func (h *Handlers) RegisterSequencer(w http.ResponseWriter, req *http.Request) {
	var body RegisterRequest
	if err := decodeRequest(w, req, h.cfg.MaxBodyBytes, &body); err != nil {
		WriteError(h.log, w, req, err)
		return
	}

	entry, err := h.cfg.Sequencers.Register(req.Context(), body.Identity)
	if err != nil {
		WriteError(h.log, w, req, err)
		return
	}
	writeJSON(h.log, w, http.StatusOK, entry)
}

func (h *Handlers) DeregisterSequencer(w http.ResponseWriter, req *http.Request) {
	var body RegisterRequest
	if err := decodeRequest(w, req, h.cfg.MaxBodyBytes, &body); err != nil {
		WriteError(h.log, w, req, err)
		return
	}

	if err := h.cfg.Sequencers.Deregister(req.Context(), body.Identity); err != nil {
		WriteError(h.log, w, req, err)
		return
	}
	writeOK(h.log, w)
}

func (h *Handlers) GetLeader(w http.ResponseWriter, req *http.Request) {
	round, err := h.cfg.Leader.Leader()
	if err != nil {
		WriteError(h.log, w, req, err)
		return
	}
	writeJSON(h.log, w, http.StatusOK, LeaderResponse{
		Round:     round.Number,
		Status:    round.Status,
		Leader:    round.Leader,
		ElectedAt: round.ElectedAt,
	})
}

func (h *Handlers) RegisterRollup(w http.ResponseWriter, req *http.Request) {
	var body RegisterRequest
	if err := decodeRequest(w, req, h.cfg.MaxBodyBytes, &body); err != nil {
		WriteError(h.log, w, req, err)
		return
	}

	entry, err := h.cfg.Rollups.Register(req.Context(), body.Identity)
	if err != nil {
		WriteError(h.log, w, req, err)
		return
	}
	writeJSON(h.log, w, http.StatusOK, entry)
}

func (h *Handlers) DeregisterRollup(w http.ResponseWriter, req *http.Request) {
	var body RegisterRequest
	if err := decodeRequest(w, req, h.cfg.MaxBodyBytes, &body); err != nil {
		WriteError(h.log, w, req, err)
		return
	}

	if err := h.cfg.Rollups.Deregister(req.Context(), body.Identity); err != nil {
		WriteError(h.log, w, req, err)
		return
	}
	writeOK(h.log, w)
}

func (h *Handlers) CloseBlock(w http.ResponseWriter, req *http.Request) {
	var body CloseBlockRequest
	if err := decodeRequest(w, req, h.cfg.MaxBodyBytes, &body); err != nil {
		WriteError(h.log, w, req, err)
		return
	}

	receipt, err := h.cfg.Blocks.CloseBlock(req.Context(), body.RollupID, body.RawTx)
	if err != nil {
		WriteError(h.log, w, req, err)
		return
	}
	writeJSON(h.log, w, http.StatusOK, receipt)
}

func (h *Handlers) GetBlock(w http.ResponseWriter, req *http.Request) {
	number, err := parseRound(req.URL.Query().Get("round"))
	if err != nil {
		WriteError(h.log, w, req, err)
		return
	}

	closed, err := h.cfg.Blocks.Round(number)
	if err != nil {
		WriteError(h.log, w, req, err)
		return
	}
	writeJSON(h.log, w, http.StatusOK, closed)
}

func (h *Handlers) NotFound(w http.ResponseWriter, req *http.Request) {
	writeJSON(h.log, w, http.StatusNotFound, ErrorResponse{Error: ErrorDetail{
		Code:    "not_found",
		Message: "no route for " + req.Method + " " + req.URL.Path,
	}})
}

func (h *Handlers) MethodNotAllowed(w http.ResponseWriter, req *http.Request) {
	writeJSON(h.log, w, http.StatusMethodNotAllowed, ErrorResponse{Error: ErrorDetail{
		Code:    "method_not_allowed",
		Message: req.Method + " is not allowed on " + req.URL.Path,
	}})
}
