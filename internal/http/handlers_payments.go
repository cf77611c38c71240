package http

import (
	"net/http"

	"aguin/internal/core"
	"aguin/internal/services"
)

type paymentsView struct {
	Payments []services.PaymentRow
	Unpaid   []services.ReservationRow
}

func (s *Server) handlePayments(w http.ResponseWriter, r *http.Request) {
	payments, err := s.deps.Payments.List(r.Context())
	if err != nil {
		s.adminPage(w, r, "admin_pagos", "Pagos", nil, err)
		return
	}
	rows, err := s.deps.Reservations.List(r.Context())
	view := paymentsView{Payments: payments}
	for _, row := range rows {
		if !row.Paid() {
			view.Unpaid = append(view.Unpaid, row)
		}
	}
	s.adminPage(w, r, "admin_pagos", "Pagos", view, err)
}

func (s *Server) handleRecordPayment(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, "/admin/pagos", "Pago registrado correctamente. Se actualizó el estado a pagado.", "No se pudo registrar el pago.", false, func(int64) error {
		_, err := s.deps.Payments.Record(r.Context(), parseInt64(r.PostFormValue("reserva")), formValue(r, "total"))
		return err
	})
}

func (s *Server) handleReceipt(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err == nil {
		var receipt services.Receipt
		if receipt, err = s.deps.Payments.Receipt(r.Context(), id); err == nil {
			s.render(w, r, http.StatusOK, "receipt", layoutPrint, s.page(w, r, "Comprobante "+receipt.Number, "pagos", receipt))
			return
		}
	}
	status, msg := userMessage(err, "No se pudo generar el comprobante.")
	s.fail(w, r, status, msg, err)
}

func (s *Server) handleDeletePayment(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, "/admin/pagos", "Pago eliminado correctamente.", "No se pudo eliminar el pago seleccionado.", true, func(id int64) error {
		return s.deps.Payments.Delete(r.Context(), id)
	})
}

// Reviews

func (s *Server) handleAdminReviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := s.deps.Reviews.List(r.Context())
	s.adminPage(w, r, "admin_resenas", "Reseñas", struct {
		Reviews []core.Review
		Average string
	}{reviews, core.AverageScore(reviews).StringFixed(1)}, err)
}

func (s *Server) handleDeleteReview(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, "/admin/resenas", "Reseña eliminada correctamente.", "No se pudo eliminar la reseña seleccionada.", true, func(id int64) error {
		return s.deps.Reviews.Delete(r.Context(), id)
	})
}
