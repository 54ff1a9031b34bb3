// Package handlers implements the JSON API: transaction listing and
// lifecycle, the summary report and the free-text chat entry path.
package handlers

import (
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"github.com/arifhasan/khata/internal/api/middleware"
	"github.com/arifhasan/khata/internal/domain"
	"github.com/arifhasan/khata/internal/extract"
	"github.com/arifhasan/khata/internal/store"
	"github.com/arifhasan/khata/internal/summary"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// TransactionsHandler handles transaction CRUD endpoints.
type TransactionsHandler struct {
	store store.Store
	log   zerolog.Logger
}

// NewTransactionsHandler creates a new transactions handler.
func NewTransactionsHandler(s store.Store, log zerolog.Logger) *TransactionsHandler {
	return &TransactionsHandler{store: s, log: log}
}

// List handles GET /api/transactions with optional start_date, end_date
// and type filters. Results are sorted by date descending.
func (h *TransactionsHandler) List(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFromContext(r.Context())
	query := r.URL.Query()

	var (
		startDate, endDate domain.Date
		hasStart, hasEnd   bool
		kind               domain.Kind
		hasKind            bool
		err                error
	)

	if s := query.Get("start_date"); s != "" {
		startDate, err = domain.ParseDate(s)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid start_date format")
			return
		}
		hasStart = true
	}
	if s := query.Get("end_date"); s != "" {
		endDate, err = domain.ParseDate(s)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid end_date format")
			return
		}
		hasEnd = true
	}
	if s := query.Get("type"); s != "" {
		kind, err = domain.ParseKind(s)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid type: must be income or expense")
			return
		}
		hasKind = true
	}

	txs, err := h.store.Load(identity)
	if err != nil {
		h.log.Error().Err(err).Str("identity", identity).Msg("Failed to load transactions")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to load transactions")
		return
	}

	filtered := make([]domain.Transaction, 0, len(txs))
	for _, tx := range txs {
		if hasStart && tx.OccurredOn.Before(startDate.Time) {
			continue
		}
		if hasEnd && tx.OccurredOn.After(endDate.Time) {
			continue
		}
		if hasKind && tx.Kind != kind {
			continue
		}
		filtered = append(filtered, tx)
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].OccurredOn.After(filtered[j].OccurredOn.Time)
	})

	middleware.WriteJSON(w, http.StatusOK, filtered)
}

// Create handles POST /api/transactions. The transaction is persisted as
// given and echoed back; a missing id is filled in by the server.
func (h *TransactionsHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFromContext(r.Context())

	var tx domain.Transaction
	if err := json.NewDecoder(r.Body).Decode(&tx); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid transaction body: "+err.Error())
		return
	}

	if tx.ID == "" {
		tx.ID = uuid.New().String()
	}
	if tx.RecordedAt.IsZero() {
		tx.RecordedAt = time.Now()
	}

	if err := tx.Validate(); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.store.Add(tx, identity); err != nil {
		h.log.Error().Err(err).Str("identity", identity).Msg("Failed to save transaction")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to save transaction")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, tx)
}

// Delete handles DELETE /api/transactions/{id}. Deletion is idempotent:
// unknown ids still report success.
func (h *TransactionsHandler) Delete(w http.ResponseWriter, r *http.Request, id string) {
	identity := middleware.IdentityFromContext(r.Context())

	if err := h.store.Delete(id, identity); err != nil {
		h.log.Error().Err(err).Str("identity", identity).Str("id", id).Msg("Failed to delete transaction")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to delete transaction")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]string{"message": "Transaction deleted"})
}

// SummaryHandler handles the aggregation endpoint.
type SummaryHandler struct {
	store store.Store
	log   zerolog.Logger
}

// NewSummaryHandler creates a new summary handler.
func NewSummaryHandler(s store.Store, log zerolog.Logger) *SummaryHandler {
	return &SummaryHandler{store: s, log: log}
}

// Get handles GET /api/summary.
func (h *SummaryHandler) Get(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFromContext(r.Context())

	txs, err := h.store.Load(identity)
	if err != nil {
		h.log.Error().Err(err).Str("identity", identity).Msg("Failed to load transactions")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to load transactions")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, summary.Compute(txs))
}

// ChatHandler turns free text into a stored transaction via the
// extraction collaborator.
type ChatHandler struct {
	store     store.Store
	extractor extract.Extractor
	log       zerolog.Logger

	// today supplies the reference date for relative-date resolution;
	// overridable in tests.
	today func() domain.Date
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(s store.Store, e extract.Extractor, log zerolog.Logger) *ChatHandler {
	return &ChatHandler{
		store:     s,
		extractor: e,
		log:       log,
		today:     domain.Today,
	}
}

// chatRequest is the POST /api/chat body.
type chatRequest struct {
	Text string `json:"text"`
}

// Post handles POST /api/chat. An unusable extraction (no amount, model
// failure, timeout) is a client error; nothing partial is ever persisted.
func (h *ChatHandler) Post(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFromContext(r.Context())

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Text == "" {
		middleware.WriteError(w, http.StatusBadRequest, "text is required")
		return
	}

	result, err := h.extractor.Extract(r.Context(), req.Text, h.today())
	if err != nil {
		h.log.Info().Err(err).Str("identity", identity).Msg("Extraction failed")
		middleware.WriteError(w, http.StatusBadRequest, "Could not extract valid transaction data.")
		return
	}

	// The model's note is optional; fall back to the raw input so the
	// stored record keeps what the user actually said.
	note := result.Note
	if note == "" {
		note = req.Text
	}

	tx := domain.Transaction{
		ID:         uuid.New().String(),
		Kind:       result.Kind,
		Amount:     result.Amount,
		Category:   result.Category,
		OccurredOn: result.Date,
		Note:       note,
		RecordedAt: time.Now(),
	}

	if err := tx.Validate(); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.store.Add(tx, identity); err != nil {
		h.log.Error().Err(err).Str("identity", identity).Msg("Failed to save extracted transaction")
		middleware.WriteError(w, http.StatusInternalServerError, "Error saving transaction")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"message":             "Processed successfully",
		"data":                tx,
		"original_extraction": result.Raw,
	})
}
