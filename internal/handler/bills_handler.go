package handler

import (
	"net/http"

	"github.com/guilhermekollet/financas-api/internal/domain"
	"github.com/guilhermekollet/financas-api/internal/service"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Faturas
// ============================================================

func payBillHandler(svc *service.BillsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/bills/{billId}/pay")
		defer span.End()

		billID := pathID(r, "billId")
		if billID == 0 {
			writeError(w, http.StatusBadRequest, "billId inválido")
			return
		}
		span.SetAttributes(attribute.Int64("bill.id", billID))

		var req domain.BillPayRequest
		if !decodeBody(w, r, &req) {
			return
		}

		bill, err := svc.PayBill(ctx, AuthIDFromContext(ctx), billID, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, bill)
	}
}

func listBillPaymentsHandler(svc *service.BillsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/bills/{billId}/payments")
		defer span.End()

		billID := pathID(r, "billId")
		if billID == 0 {
			writeError(w, http.StatusBadRequest, "billId inválido")
			return
		}

		payments, err := svc.ListPayments(ctx, AuthIDFromContext(ctx), billID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{"payments": payments})
	}
}

func undoBillPaymentHandler(svc *service.BillsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/bills/{billId}/payments/{paymentId}")
		defer span.End()

		billID := pathID(r, "billId")
		paymentID := pathID(r, "paymentId")
		if billID == 0 || paymentID == 0 {
			writeError(w, http.StatusBadRequest, "identificador inválido")
			return
		}

		bill, err := svc.UndoPayment(ctx, AuthIDFromContext(ctx), billID, paymentID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, bill)
	}
}

func archiveBillHandler(svc *service.BillsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/bills/{billId}/archive")
		defer span.End()

		billID := pathID(r, "billId")
		if billID == 0 {
			writeError(w, http.StatusBadRequest, "billId inválido")
			return
		}

		bill, err := svc.ArchiveBill(ctx, AuthIDFromContext(ctx), billID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, bill)
	}
}
