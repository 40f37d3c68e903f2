package handler

import (
	"net/http"

	"github.com/guilhermekollet/financas-api/internal/domain"
	"github.com/guilhermekollet/financas-api/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ============================================================
// Cartões de Crédito
// ============================================================

func listCardsHandler(svc *service.CardsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/cards")
		defer span.End()

		cards, err := svc.List(ctx, AuthIDFromContext(ctx))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{"cards": cards})
	}
}

func getCardHandler(svc *service.CardsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/cards/{cardId}")
		defer span.End()

		cardID := pathID(r, "cardId")
		if cardID == 0 {
			writeError(w, http.StatusBadRequest, "cardId inválido")
			return
		}

		card, err := svc.Get(ctx, AuthIDFromContext(ctx), cardID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, card)
	}
}

func createCardHandler(svc *service.CardsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/cards")
		defer span.End()

		var req domain.CreditCardRequest
		if !decodeBody(w, r, &req) {
			return
		}

		card, err := svc.Create(ctx, AuthIDFromContext(ctx), &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusCreated, card)
	}
}

func updateCardHandler(svc *service.CardsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/cards/{cardId}")
		defer span.End()

		cardID := pathID(r, "cardId")
		if cardID == 0 {
			writeError(w, http.StatusBadRequest, "cardId inválido")
			return
		}

		var req domain.CreditCardRequest
		if !decodeBody(w, r, &req) {
			return
		}

		card, err := svc.Update(ctx, AuthIDFromContext(ctx), cardID, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, card)
	}
}

func deleteCardHandler(svc *service.CardsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/cards/{cardId}")
		defer span.End()

		cardID := pathID(r, "cardId")
		if cardID == 0 {
			writeError(w, http.StatusBadRequest, "cardId inválido")
			return
		}

		if err := svc.Delete(ctx, AuthIDFromContext(ctx), cardID); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// ============================================================
// Faturas por cartão
// ============================================================

func listCardBillsHandler(svc *service.BillsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/cards/{cardId}/bills")
		defer span.End()

		cardID := pathID(r, "cardId")
		if cardID == 0 {
			writeError(w, http.StatusBadRequest, "cardId inválido")
			return
		}

		monthsBack := queryInt(r, "months_back", 0)
		monthsAhead := queryInt(r, "months_ahead", 0)

		bills, err := svc.ListBills(ctx, AuthIDFromContext(ctx), cardID, monthsBack, monthsAhead)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{"bills": bills})
	}
}

func getCardBillHandler(svc *service.BillsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/cards/{cardId}/bills/{month}")
		defer span.End()

		cardID := pathID(r, "cardId")
		if cardID == 0 {
			writeError(w, http.StatusBadRequest, "cardId inválido")
			return
		}
		month := chi.URLParam(r, "month")

		bill, err := svc.GetBillForMonth(ctx, AuthIDFromContext(ctx), cardID, month)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, bill)
	}
}
