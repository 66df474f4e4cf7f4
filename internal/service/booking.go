package service

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"fixaphone-web/internal/contextutil"
	"fixaphone-web/internal/metrics"
	"fixaphone-web/internal/pricing"
)

// Booking device categories.
const (
	DeviceMobile   = "mobile"
	DeviceComputer = "computer"
)

const (
	phoneDigits = 10
	dateLayout  = "2006-01-02"
)

// ConfirmationMessage is shown after a booking is accepted.
const ConfirmationMessage = "Thank you! Your booking request has been received. We will contact you shortly to confirm your appointment."

// BookingForm is a submitted booking request.
type BookingForm struct {
	Name            string
	Phone           string
	Email           string
	DeviceType      string
	DeviceBrand     string
	MobileService   string
	ComputerService string
	PreferredDate   string
	PreferredTime   string
	Description     string
}

// SelectedService returns the service picked in the subgroup that matches
// the device type.
func (f BookingForm) SelectedService() string {
	switch f.DeviceType {
	case DeviceMobile:
		return f.MobileService
	case DeviceComputer:
		return f.ComputerService
	default:
		return ""
	}
}

// Confirmation acknowledges an accepted booking.
type Confirmation struct {
	Reference   string
	SubmittedAt time.Time
	Estimate    string
	Message     string
}

// FieldSet tells the form which service subgroup to show for a device.
type FieldSet struct {
	Device        string
	RequiredField string
	Services      []string
	MinDate       string
}

// BookingService provides booking form functionality.
type BookingService interface {
	// Submit validates and records a booking request.
	Submit(ctx context.Context, form BookingForm) (Confirmation, error)
	// Estimate returns the price estimate for a device category and service.
	Estimate(device, svc string) (string, bool)
	// Fields returns the required subgroup for a device category.
	Fields(device string) FieldSet
	// Rates returns the shop's price tables.
	Rates() *pricing.Rates
}

// bookingService implements BookingService.
type bookingService struct {
	rates    *pricing.Rates
	metrics  *metrics.Metrics
	location *time.Location
	now      func() time.Time
}

// NewBookingService creates a new BookingService. Dates are interpreted in loc.
func NewBookingService(rates *pricing.Rates, m *metrics.Metrics, loc *time.Location) BookingService {
	return newBookingService(rates, m, loc, time.Now)
}

func newBookingService(rates *pricing.Rates, m *metrics.Metrics, loc *time.Location, now func() time.Time) *bookingService {
	if loc == nil {
		loc = time.Local
	}
	if m == nil {
		m = metrics.NewNop()
	}
	return &bookingService{
		rates:    rates,
		metrics:  m,
		location: loc,
		now:      now,
	}
}

// RequiredServiceField names the form field that must be filled for a device
// category, or "" when the category shows no subgroup.
func RequiredServiceField(device string) string {
	switch device {
	case DeviceMobile:
		return "mobileService"
	case DeviceComputer:
		return "computerService"
	default:
		return ""
	}
}

// NormalizePhone keeps only digits and at most ten of them.
func NormalizePhone(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if b.Len() == phoneDigits {
			break
		}
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// MinPreferredDate returns the earliest bookable date: tomorrow in loc.
func MinPreferredDate(now time.Time, loc *time.Location) time.Time {
	local := now.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day()+1, 0, 0, 0, 0, loc)
}

func (s *bookingService) Rates() *pricing.Rates {
	return s.rates
}

func (s *bookingService) Estimate(device, svc string) (string, bool) {
	return s.rates.Estimate(device, svc)
}

func (s *bookingService) Fields(device string) FieldSet {
	fs := FieldSet{
		Device:        device,
		RequiredField: RequiredServiceField(device),
		MinDate:       MinPreferredDate(s.now(), s.location).Format(dateLayout),
	}
	if fs.RequiredField != "" {
		fs.Services = s.rates.ServicesFor(device)
	}
	return fs
}

// Submit validates the form, logs it and returns a confirmation. Nothing is
// stored and no outbound call is made.
func (s *bookingService) Submit(ctx context.Context, form BookingForm) (Confirmation, error) {
	logger := contextutil.LoggerFromContext(ctx)

	form = trimForm(form)
	form.Phone = NormalizePhone(form.Phone)

	if err := s.validate(form); err != nil {
		logger.WarnContext(ctx, "invalid booking submission", "error", err)
		return Confirmation{}, err
	}

	service := form.SelectedService()
	estimate, _ := s.rates.Estimate(form.DeviceType, service)
	submittedAt := s.now().UTC()
	reference := uuid.NewString()

	logger.InfoContext(ctx, "booking submitted",
		"reference", reference,
		"name", form.Name,
		"phone", form.Phone,
		"email", form.Email,
		"device_type", form.DeviceType,
		"device_brand", form.DeviceBrand,
		"service", service,
		"preferred_date", form.PreferredDate,
		"preferred_time", form.PreferredTime,
		"description", form.Description,
		"estimate", estimate,
		"submitted_at", submittedAt.Format(time.RFC3339),
	)
	s.metrics.RecordBooking(form.DeviceType)

	return Confirmation{
		Reference:   reference,
		SubmittedAt: submittedAt,
		Estimate:    estimate,
		Message:     ConfirmationMessage,
	}, nil
}

func (s *bookingService) validate(form BookingForm) error {
	if form.Name == "" {
		return invalidf("name", "cannot be empty")
	}
	if len(form.Phone) != phoneDigits {
		return invalidf("phone", "must have 10 digits")
	}
	if form.Email != "" {
		if _, err := mail.ParseAddress(form.Email); err != nil {
			return invalidf("email", "is not a valid address")
		}
	}

	field := RequiredServiceField(form.DeviceType)
	if field == "" {
		return invalidf("deviceType", "must be mobile or computer")
	}
	service := form.SelectedService()
	if service == "" {
		return invalidf(field, "cannot be empty")
	}
	if _, ok := s.rates.Estimate(form.DeviceType, service); !ok {
		return invalidf(field, "unknown service %q", service)
	}

	date, err := time.ParseInLocation(dateLayout, form.PreferredDate, s.location)
	if err != nil {
		return invalidf("preferredDate", "must be a date (YYYY-MM-DD)")
	}
	if date.Before(MinPreferredDate(s.now(), s.location)) {
		return invalidf("preferredDate", "must be tomorrow or later")
	}
	return nil
}

func trimForm(f BookingForm) BookingForm {
	trim := strings.TrimSpace
	return BookingForm{
		Name:            trim(f.Name),
		Phone:           trim(f.Phone),
		Email:           trim(f.Email),
		DeviceType:      trim(f.DeviceType),
		DeviceBrand:     trim(f.DeviceBrand),
		MobileService:   trim(f.MobileService),
		ComputerService: trim(f.ComputerService),
		PreferredDate:   trim(f.PreferredDate),
		PreferredTime:   trim(f.PreferredTime),
		Description:     trim(f.Description),
	}
}
