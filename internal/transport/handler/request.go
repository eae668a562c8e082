package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
)

type RegisterRequest struct {
	Identity string `json:"identity"`
}

func (r *RegisterRequest) Validate() error {
	if strings.TrimSpace(r.Identity) == "" {
		return fmt.Errorf("%w: identity is required", ErrInvalidRequest)
	}
	return nil
}

type CloseBlockRequest struct {
	RollupID string `json:"rollup_id"`
	RawTx    string `json:"raw_tx"`
}

func (r *CloseBlockRequest) Validate() error {
	if strings.TrimSpace(r.RollupID) == "" {
		return fmt.Errorf("%w: rollup_id is required", ErrInvalidRequest)
	}
	if r.RawTx == "" {
		return fmt.Errorf("%w: raw_tx is required", ErrInvalidRequest)
	}
	return nil
}

type validator interface {
	Validate() error
}

// decodeRequest reads exactly one JSON object with no unknown fields and
// validates it before anything touches the store.
func decodeRequest(w http.ResponseWriter, req *http.Request, maxBytes int64, v validator) error {
	if maxBytes > 0 {
		req.Body = http.MaxBytesReader(w, req.Body, maxBytes)
	}

	dec := json.NewDecoder(req.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return fmt.Errorf("%w: body exceeds %d bytes", ErrInvalidRequest, tooLarge.Limit)
		}
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body", ErrInvalidRequest)
		}
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: body must contain a single JSON object", ErrInvalidRequest)
	}

	return v.Validate()
}

func parseRound(raw string) (uint64, error) {
	if raw == "" {
		return 0, fmt.Errorf("%w: round is required", ErrInvalidRequest)
	}
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || n == 0 {
		return 0, fmt.Errorf("%w: round must be a positive integer", ErrInvalidRequest)
	}
	return n, nil
}
