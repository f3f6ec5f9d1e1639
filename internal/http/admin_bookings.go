package httpapi

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"toursite-backend-go/internal/models"
	"toursite-backend-go/internal/services"

	"github.com/go-chi/chi/v5"
)

func (s *Server) AdminListBookings(w http.ResponseWriter, r *http.Request) {
	page, size := paging(r)
	q := r.URL.Query()
	result, err := s.Bookings.List(r.Context(), services.BookingFilter{
		Page:     page,
		PageSize: size,
		Status:   models.BookingStatus(q.Get("status")),
		Search:   q.Get("q"),
	})
	if err != nil {
		writeServiceError(w, s.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, result)
}

func (s *Server) AdminGetBooking(w http.ResponseWriter, r *http.Request) {
	inquiry, err := s.Bookings.Get(r.Context(), chi.URLParam(r, "bookingId"))
	if err != nil {
		writeServiceError(w, s.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, inquiry)
}

type BookingStatusRequest struct {
	Status     models.BookingStatus `json:"status"`
	AdminNotes string               `json:"adminNotes"`
}

func (s *Server) AdminUpdateBookingStatus(w http.ResponseWriter, r *http.Request) {
	var req BookingStatusRequest
	if !decodeJSON(w, r, maxJSONBody, &req) {
		return
	}
	inquiry, err := s.Bookings.UpdateStatus(r.Context(), chi.URLParam(r, "bookingId"), req.Status, req.AdminNotes)
	if err != nil {
		writeServiceError(w, s.Logger, err)
		return
	}
	s.publish("booking.updated", inquiry)
	WriteJSON(w, http.StatusOK, inquiry)
}

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (s *Server) AdminExportBookings(w http.ResponseWriter, r *http.Request) {
	status := models.BookingStatus(r.URL.Query().Get("status"))
	if status != "" && !status.Valid() {
		WriteError(w, http.StatusBadRequest, "Unknown booking status")
		return
	}
	rows, err := s.Bookings.All(r.Context(), status)
	if err != nil {
		writeServiceError(w, s.Logger, err)
		return
	}
	var buf bytes.Buffer
	if err := services.WriteBookingsXLSX(&buf, rows); err != nil {
		s.Logger.Error().Err(err).Msg("bookings export failed")
		WriteError(w, http.StatusInternalServerError, "Export failed")
		return
	}
	filename := fmt.Sprintf("bookings-%s.xlsx", time.Now().UTC().Format("20060102"))
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
