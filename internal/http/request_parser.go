// Package http provides the JSON API server and its handlers.
//
// This file implements utilities for parsing and validating request bodies
// and query parameters.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"ledger/internal/core"
)

// maxBodyBytes bounds transaction request bodies.
const maxBodyBytes = 64 << 10

// TransactionRequest is the body of create and update requests.
type TransactionRequest struct {
	Kind        string     `json:"kind"`
	Category    string     `json:"category"`
	Amount      core.Money `json:"amount"`
	Date        core.Date  `json:"date"`
	Description string     `json:"description"`
	IsRecurring bool       `json:"is_recurring"`
	Frequency   string     `json:"frequency"`
}

// DecodeTransactionRequest reads a JSON transaction body. Malformed bodies and
// unknown fields are validation errors.
func DecodeTransactionRequest(w http.ResponseWriter, r *http.Request) (TransactionRequest, error) {
	var req TransactionRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		if errors.Is(err, core.ErrValidation) {
			return TransactionRequest{}, err
		}
		if errors.Is(err, io.EOF) {
			return TransactionRequest{}, fmt.Errorf("%w: empty request body", core.ErrValidation)
		}
		return TransactionRequest{}, fmt.Errorf("%w: malformed request body: %v", core.ErrValidation, err)
	}
	return req, nil
}

// ToTransaction converts the request into a transaction for owner.
func (req TransactionRequest) ToTransaction(owner string) (core.Transaction, error) {
	kind, err := core.ParseKind(req.Kind)
	if err != nil {
		return core.Transaction{}, err
	}
	freq, err := core.ParseFrequency(req.Frequency)
	if err != nil {
		return core.Transaction{}, err
	}
	return core.Transaction{
		Owner:       owner,
		Kind:        kind,
		Category:    sanitizeInput(req.Category),
		Amount:      req.Amount,
		Date:        req.Date,
		Description: sanitizeInput(req.Description),
		IsRecurring: req.IsRecurring,
		Frequency:   freq,
	}, nil
}

// ParseTopParam reads the optional "top" query parameter. Blank means the
// configured default and is returned as 0.
func ParseTopParam(query url.Values) (int, error) {
	v := strings.TrimSpace(query.Get("top"))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: top must be a positive integer", core.ErrValidation)
	}
	return n, nil
}

// ParseRefParam reads the optional "ref" reference date (YYYY-MM-DD) used
// to pick the current month and year. Blank means now.
func ParseRefParam(query url.Values, now time.Time) (time.Time, error) {
	v := strings.TrimSpace(query.Get("ref"))
	if v == "" {
		return now, nil
	}
	d, err := core.ParseDate(v)
	if err != nil {
		return time.Time{}, fmt.Errorf("ref: %w", err)
	}
	return d.Time, nil
}
