package core

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// ReservationStatus is a human-assigned label on a reservation. The set is open:
// labels outside Statuses are stored and displayed as entered.
type ReservationStatus string

const (
	StatusPending    ReservationStatus = "pendiente"
	StatusConfirmed  ReservationStatus = "confirmada"
	StatusInProgress ReservationStatus = "en progreso"
	StatusPaid       ReservationStatus = "pagado"
	StatusCompleted  ReservationStatus = "completada"
	StatusCancelled  ReservationStatus = "cancelada"
)

// Statuses lists the labels offered in the admin forms, in workflow order.
var Statuses = []ReservationStatus{
	StatusPending, StatusConfirmed, StatusInProgress, StatusPaid, StatusCompleted, StatusCancelled,
}

type PhotographerStatus string

const (
	PhotographerActive   PhotographerStatus = "activo"
	PhotographerInactive PhotographerStatus = "inactivo"
)

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleViewer Role = "viewer"
)

const (
	MinReviewScore         = 1
	MaxReviewScore         = 5
	MinReviewCommentLength = 10
	maxNameLength          = 120
	maxTextLength          = 1000
)

type (
	// Date is a calendar date without time of day.
	Date struct {
		time.Time
	}

	Client struct {
		ID           int64
		FullName     string
		Phone        string
		Email        string
		RegisteredAt time.Time
	}

	Photographer struct {
		ID        int64
		FullName  string
		Phone     string
		Email     string
		Specialty string
		Status    PhotographerStatus
	}

	Service struct {
		ID          int64
		Name        string
		Description string
		Price       decimal.Decimal
	}

	Package struct {
		ID         int64
		Name       string
		ServiceIDs []int64
	}

	Reservation struct {
		ID            int64
		ClientID      int64
		Comments      string
		Status        ReservationStatus
		RequestedDate Date // zero when not set
	}

	Payment struct {
		ID            int64
		ReservationID int64
		Total         decimal.Decimal
		RegisteredAt  time.Time
	}

	Gallery struct {
		ID            int64
		Name          string
		ReservationID *int64
		CreatedAt     time.Time
	}

	Photo struct {
		ID        int64
		GalleryID int64
		URL       string
	}

	Review struct {
		ID        int64
		Score     int
		Comment   string
		CreatedAt time.Time
	}

	User struct {
		ID           int64
		Username     string
		PasswordHash string
		Role         Role
	}
)

// ErrValidation is matched by every *ValidationError through errors.Is.
var ErrValidation = errors.New("validation failed")

// ValidationError reports a rejected field with a message suitable for end users.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// NormalizeStatus trims and lowercases a status; empty becomes StatusPending.
func NormalizeStatus(s string) ReservationStatus {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return StatusPending
	}
	return ReservationStatus(s)
}

// IsKnown reports whether s is one of Statuses.
func (s ReservationStatus) IsKnown() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

// ParseDate parses a YYYY-MM-DD value. An empty string yields the zero Date.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, invalid("fecha", "la fecha debe tener el formato AAAA-MM-DD")
	}
	return Date{Time: t}, nil
}

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// String returns YYYY-MM-DD, or "" for the zero date.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format("2006-01-02")
}

func requireText(field, value, message string, max int) error {
	v := strings.TrimSpace(value)
	if v == "" {
		return invalid(field, message)
	}
	if utf8.RuneCountInString(v) > max {
		return invalid(field, fmt.Sprintf("máximo %d caracteres", max))
	}
	return nil
}

func validEmail(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	if _, err := mail.ParseAddress(value); err != nil {
		return invalid(field, "correo electrónico no válido")
	}
	return nil
}

func (c Client) Validate() error {
	if err := requireText("nombre", c.FullName, "el nombre del cliente es obligatorio", maxNameLength); err != nil {
		return err
	}
	return validEmail("correo", c.Email)
}

func (p Photographer) Validate() error {
	if err := requireText("nombre", p.FullName, "el nombre del fotógrafo es obligatorio", maxNameLength); err != nil {
		return err
	}
	if err := validEmail("correo", p.Email); err != nil {
		return err
	}
	switch p.Status {
	case PhotographerActive, PhotographerInactive:
		return nil
	default:
		return invalid("estado", "el estado debe ser activo o inactivo")
	}
}

func (s Service) Validate() error {
	if err := requireText("nombre", s.Name, "completa el nombre y el precio del servicio", maxNameLength); err != nil {
		return err
	}
	if utf8.RuneCountInString(s.Description) > maxTextLength {
		return invalid("descripcion", fmt.Sprintf("máximo %d caracteres", maxTextLength))
	}
	if s.Price.IsNegative() {
		return invalid("precio", "el precio no puede ser negativo")
	}
	return nil
}

func (p Package) Validate() error {
	return requireText("nombre", p.Name, "el nombre del paquete es obligatorio", maxNameLength)
}

func (g Gallery) Validate() error {
	return requireText("nombre", g.Name, "el nombre de la galería es obligatorio", maxNameLength)
}

func (r Reservation) Validate() error {
	if r.ClientID <= 0 {
		return invalid("cliente", "selecciona un cliente")
	}
	if r.RequestedDate.IsZero() {
		return invalid("fecha", "la fecha de la reserva es obligatoria")
	}
	if utf8.RuneCountInString(r.Comments) > maxTextLength {
		return invalid("comentarios", fmt.Sprintf("máximo %d caracteres", maxTextLength))
	}
	return nil
}

func (p Payment) Validate() error {
	if p.ReservationID <= 0 {
		return invalid("reserva", "selecciona una reserva y especifica el monto cobrado")
	}
	if !p.Total.IsPositive() {
		return invalid("total", "el monto debe ser mayor que cero")
	}
	return nil
}

func (p Photo) Validate() error {
	if p.GalleryID <= 0 {
		return invalid("galeria", "selecciona una galería")
	}
	u := strings.TrimSpace(p.URL)
	if !strings.HasPrefix(u, "https://") && !strings.HasPrefix(u, "http://") {
		return invalid("url", "la URL de la foto debe comenzar con http:// o https://")
	}
	return nil
}

func (r Review) Validate() error {
	if r.Score < MinReviewScore || r.Score > MaxReviewScore {
		return invalid("puntaje", "el puntaje debe ser un valor entre 1 y 5")
	}
	comment := strings.TrimSpace(r.Comment)
	if utf8.RuneCountInString(comment) < MinReviewCommentLength {
		return invalid("comentario", "cuéntanos tu experiencia en al menos 10 caracteres")
	}
	if utf8.RuneCountInString(comment) > maxTextLength {
		return invalid("comentario", fmt.Sprintf("máximo %d caracteres", maxTextLength))
	}
	return nil
}

func (u User) Validate() error {
	if err := requireText("usuario", u.Username, "el usuario es obligatorio", 64); err != nil {
		return err
	}
	if u.PasswordHash == "" {
		return invalid("contraseña", "la contraseña es obligatoria")
	}
	switch u.Role {
	case RoleAdmin, RoleViewer:
		return nil
	default:
		return invalid("rol", "rol desconocido")
	}
}
