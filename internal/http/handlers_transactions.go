package http

import (
	"net/http"
	"time"

	"ledger/internal/core"
	"ledger/internal/log"
)

// TransactionResponse is the wire form of a stored or projected transaction.
type TransactionResponse struct {
	ID          string     `json:"id"`
	Owner       string     `json:"owner"`
	Kind        core.Kind  `json:"kind"`
	Category    string     `json:"category"`
	Amount      core.Money `json:"amount"`
	Date        core.Date  `json:"date"`
	Description string     `json:"description"`
	IsRecurring bool       `json:"is_recurring"`
	Frequency   string     `json:"frequency,omitempty"`
	Projected   bool       `json:"projected"`
	TemplateID  string     `json:"template_id,omitempty"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

func toResponse(tx core.Transaction) TransactionResponse {
	out := TransactionResponse{
		ID:          tx.ID,
		Owner:       tx.Owner,
		Kind:        tx.Kind,
		Category:    tx.Category,
		Amount:      tx.Amount,
		Date:        tx.Date,
		Description: tx.Description,
		IsRecurring: tx.IsRecurring,
		Frequency:   string(tx.Frequency),
		Projected:   tx.IsProjected(),
		TemplateID:  tx.TemplateID,
	}
	if !tx.IsProjected() {
		if !tx.CreatedAt.IsZero() {
			out.CreatedAt = &tx.CreatedAt
		}
		if !tx.UpdatedAt.IsZero() {
			out.UpdatedAt = &tx.UpdatedAt
		}
	}
	return out
}

// handleListTransactions returns the merged ledger view, newest first.
func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	owner := r.PathValue("owner")
	view, err := s.deps.Views.BuildView(r.Context(), owner, s.deps.Clock())
	if err != nil {
		s.fail(w, r, err, log.OpList)
		return
	}
	sortByDateDesc(view)

	items := make([]TransactionResponse, 0, len(view))
	for _, tx := range view {
		items = append(items, toResponse(tx))
	}
	NewJSONResponse().Body(map[string]any{"transactions": items}).Write(w)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	tx, err := s.decodeTransaction(w, r)
	if err != nil {
		s.fail(w, r, err, log.OpParse)
		return
	}
	created, err := s.deps.Transactions.Create(r.Context(), tx)
	if err != nil {
		s.fail(w, r, err, log.OpCreate)
		return
	}
	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", r.URL.Path+"/"+created.ID).
		Body(toResponse(created)).
		Write(w)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	tx, err := s.decodeTransaction(w, r)
	if err != nil {
		s.fail(w, r, err, log.OpParse)
		return
	}
	tx.ID = r.PathValue("id")
	updated, err := s.deps.Transactions.Update(r.Context(), tx)
	if err != nil {
		s.fail(w, r, err, log.OpUpdate)
		return
	}
	NewJSONResponse().Body(toResponse(updated)).Write(w)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Transactions.Delete(r.Context(), r.PathValue("owner"), r.PathValue("id")); err != nil {
		s.fail(w, r, err, log.OpDelete)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

func (s *Server) decodeTransaction(w http.ResponseWriter, r *http.Request) (core.Transaction, error) {
	req, err := DecodeTransactionRequest(w, r)
	if err != nil {
		return core.Transaction{}, err
	}
	return req.ToTransaction(r.PathValue("owner"))
}

// fail writes the error response and logs anything that is not a client error.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error, op string) {
	resp := ErrorFor(err)
	if resp.statusCode >= http.StatusInternalServerError {
		log.NewStructuredLogger(log.FromContext(r.Context())).LogError(r.Context(), "Request failed",
			err, log.ComponentHTTP, op, log.NewFields().WithOwner(r.PathValue("owner")))
	}
	resp.Write(w)
}
