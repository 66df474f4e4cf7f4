package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"fixaphone-web/internal/contextutil"
	"fixaphone-web/internal/service"
)

// BookingHandler handles HTTP requests for the booking form.
type BookingHandler struct {
	bookingService service.BookingService
}

// NewBookingHandler creates a new BookingHandler.
func NewBookingHandler(bookingService service.BookingService) *BookingHandler {
	return &BookingHandler{
		bookingService: bookingService,
	}
}

// BookingRequest mirrors the booking form's fields.
//
// swagger:model BookingRequest
type BookingRequest struct {
	Name        string `json:"name"`
	Phone       string `json:"phone"`
	Email       string `json:"email,omitempty"`
	DeviceType  string `json:"deviceType"`
	DeviceBrand string `json:"deviceBrand,omitempty"`
	// Required when deviceType is mobile
	MobileService string `json:"mobileService,omitempty"`
	// Required when deviceType is computer
	ComputerService string `json:"computerService,omitempty"`
	// Date in YYYY-MM-DD, tomorrow or later
	PreferredDate string `json:"preferredDate"`
	PreferredTime string `json:"preferredTime,omitempty"`
	Description   string `json:"description,omitempty"`
}

// BookingResponse acknowledges an accepted booking.
//
// swagger:model BookingResponse
type BookingResponse struct {
	Reference   string `json:"reference"`
	SubmittedAt string `json:"submitted_at"`
	Estimate    string `json:"estimate,omitempty"`
	Message     string `json:"message"`
}

// EstimateResponse is the price estimate for a booking selection.
type EstimateResponse struct {
	Device   string `json:"device"`
	Service  string `json:"service"`
	Estimate string `json:"estimate"`
}

// FieldsResponse tells the form which service subgroup to show.
type FieldsResponse struct {
	Device        string   `json:"device"`
	RequiredField string   `json:"required_field,omitempty"`
	Services      []string `json:"services,omitempty"`
	MinDate       string   `json:"min_date"`
}

// Submit validates and records a booking request.
//
// swagger:route POST /api/booking booking submitBooking
//
// Validates the booking form and returns a confirmation. Nothing is stored.
//
// responses:
//
//	'201':
//	  description: Booking accepted
//	  schema:
//	    "$ref": "#/definitions/BookingResponse"
//	'400':
//	  description: Invalid form
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
func (h *BookingHandler) Submit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	var req BookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	// Convert HTTP request to service request
	conf, err := h.bookingService.Submit(ctx, service.BookingForm{
		Name:            req.Name,
		Phone:           req.Phone,
		Email:           req.Email,
		DeviceType:      req.DeviceType,
		DeviceBrand:     req.DeviceBrand,
		MobileService:   req.MobileService,
		ComputerService: req.ComputerService,
		PreferredDate:   req.PreferredDate,
		PreferredTime:   req.PreferredTime,
		Description:     req.Description,
	})
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to submit booking")
		return
	}

	writeJSON(w, ctx, http.StatusCreated, BookingResponse{
		Reference:   conf.Reference,
		SubmittedAt: conf.SubmittedAt.Format(time.RFC3339),
		Estimate:    conf.Estimate,
		Message:     conf.Message,
	})
}

// Estimate returns the price estimate for a device and service.
func (h *BookingHandler) Estimate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	device := r.URL.Query().Get("device")
	svc := r.URL.Query().Get("service")

	if device == "" || svc == "" {
		writeError(w, http.StatusBadRequest, "device and service are required")
		return
	}

	estimate, ok := h.bookingService.Estimate(device, svc)
	if !ok {
		writeError(w, http.StatusNotFound, "No estimate for this selection")
		return
	}

	writeJSON(w, ctx, http.StatusOK, EstimateResponse{
		Device:   device,
		Service:  svc,
		Estimate: estimate,
	})
}

// Fields returns the service subgroup required for a device category.
func (h *BookingHandler) Fields(w http.ResponseWriter, r *http.Request) {
	fs := h.bookingService.Fields(r.URL.Query().Get("device"))
	writeJSON(w, r.Context(), http.StatusOK, FieldsResponse{
		Device:        fs.Device,
		RequiredField: fs.RequiredField,
		Services:      fs.Services,
		MinDate:       fs.MinDate,
	})
}

// Rates returns the shop's price tables.
//
// swagger:route GET /api/services rates listRates
//
// Informational price ranges by service and device class.
func (h *BookingHandler) Rates(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r.Context(), http.StatusOK, h.bookingService.Rates())
}
