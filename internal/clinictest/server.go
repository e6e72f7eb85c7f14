// Package clinictest provides an in-memory stand-in for the clinic API,
// used by the test suites and by the fakeclinic command for local
// development. It speaks the production envelope ({success, message, ...}),
// authenticates the role-token headers case-insensitively, and can be told
// to force failure statuses on individual routes.
package clinictest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/me/clinicli/pkg/clinic"
)

// Built-in admin credentials.
const (
	AdminEmail    = "admin@clinic.test"
	AdminPassword = "admin123"
)

// DoctorPassword is shared by all seeded doctors.
const DoctorPassword = "doctor123"

const defaultTokenTTL = time.Hour

type ctxKey string

const ctxKeySubject ctxKey = "subject"

// Server is the fake clinic backend.
type Server struct {
	secret   []byte
	tokenTTL time.Duration
	logger   *slog.Logger
	router   chi.Router

	mu            sync.Mutex
	doctors       []clinic.Doctor
	passwords     map[string]string // doctor email -> password
	appointments  []clinic.Appointment
	notifications []clinic.Notification
	schedule      []clinic.ScheduleEntry
	forced        map[string]int

	requests atomic.Int64
}

// Option configures the fake server.
type Option func(*Server)

// WithTokenTTL sets the lifetime of minted tokens.
func WithTokenTTL(ttl time.Duration) Option {
	return func(s *Server) { s.tokenTTL = ttl }
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// New creates a seeded fake clinic API.
func New(opts ...Option) *Server {
	s := &Server{
		secret:   []byte("clinictest-" + uuid.New().String()),
		tokenTTL: defaultTokenTTL,
		logger:   slog.Default(),
		router:   chi.NewRouter(),
		forced:   make(map[string]int),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.seed()
	s.routes()
	return s
}

// Handler returns the http.Handler for this server.
func (s *Server) Handler() http.Handler { return s.router }

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Requests returns how many API requests reached the server. Tests use it
// to prove that preflight aborts never touch the wire.
func (s *Server) Requests() int64 { return s.requests.Load() }

// ForceStatus makes every request to path fail with the given HTTP status
// until cleared with status 0.
func (s *Server) ForceStatus(path string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status == 0 {
		delete(s.forced, path)
		return
	}
	s.forced[path] = status
}

// Doctors returns a copy of the current roster.
func (s *Server) Doctors() []clinic.Doctor {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]clinic.Doctor(nil), s.doctors...)
}

// MintToken signs a token for role/subject with the given lifetime.
// Negative lifetimes produce already-expired tokens.
func (s *Server) MintToken(role clinic.Role, subject string, ttl time.Duration) string {
	now := time.Now()
	claims := jwt.MapClaims{
		"role": string(role),
		"sub":  subject,
		"iat":  jwt.NewNumericDate(now),
		"exp":  jwt.NewNumericDate(now.Add(ttl)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		panic("clinictest: sign token: " + err.Error())
	}
	return token
}

func (s *Server) routes() {
	r := s.router

	r.Use(s.countRequests)
	r.Use(s.forcedStatus)

	r.Route("/api/admin", func(r chi.Router) {
		r.Post("/login", s.handleAdminLogin)
		r.Group(func(r chi.Router) {
			r.Use(s.requireRole(clinic.RoleAdmin))
			r.Get("/all-doctors", s.handleAllDoctors)
			r.Post("/change-availability", s.handleChangeAvailability)
			r.Post("/add-doctor", s.handleAddDoctor)
			r.Get("/appointments", s.handleAdminAppointments)
			r.Post("/cancel-appointment", s.handleCancelAppointment)
			r.Get("/dashboard", s.handleAdminDashboard)
		})
	})

	r.Route("/api/doctor", func(r chi.Router) {
		r.Post("/login", s.handleDoctorLogin)
		r.Group(func(r chi.Router) {
			r.Use(s.requireRole(clinic.RoleDoctor))
			r.Get("/appointments", s.handleDoctorAppointments)
			r.Post("/cancel-appointment", s.handleCancelAppointment)
			r.Post("/complete-appointment", s.handleCompleteAppointment)
			r.Get("/dashboard", s.handleDoctorDashboard)
			r.Get("/profile", s.handleProfile)
			r.Post("/update-profile", s.handleUpdateProfile)
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(s.requireAnyRole)
		r.Get("/api/notifications", s.handleNotifications)
		r.Post("/api/notifications/mark-read", s.handleMarkNotificationRead)
		r.Get("/api/schedule", s.handleSchedule)
		r.Post("/api/schedule/block", s.handleBlockSlot)
		r.Get("/api/reports/summary", s.handleReportSummary)
	})
}

func (s *Server) countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.requests.Add(1)
		s.logger.Debug("request", "method", r.Method, "path", r.URL.Path)
		next.ServeHTTP(w, r)
	})
}

// forcedStatus short-circuits routes the test has broken on purpose.
func (s *Server) forcedStatus(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		status := s.forced[r.URL.Path]
		s.mu.Unlock()
		if status == 0 {
			next.ServeHTTP(w, r)
			return
		}
		message := ""
		switch status {
		case http.StatusUnauthorized:
			message = "invalid token"
		case http.StatusForbidden:
			message = "access denied for this account"
		case http.StatusTooManyRequests:
			message = "rate limit exceeded, slow down"
		default:
			message = "internal server error"
		}
		respond(w, status, map[string]any{"success": false, "message": message})
	})
}

// requireRole validates the role-specific token header. 401 bodies
// distinguish expired tokens from invalid ones, the way the production
// backend words them.
func (s *Server) requireRole(role clinic.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			subject, ok := s.authenticate(w, r, role)
			if !ok {
				return
			}
			ctx := contextWithSubject(r.Context(), subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// requireAnyRole accepts whichever role header is present, preferring the
// admin one when both are attached.
func (s *Server) requireAnyRole(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		role := clinic.RoleAdmin
		if r.Header.Get("Atoken") == "" && r.Header.Get("Dtoken") != "" {
			role = clinic.RoleDoctor
		}
		subject, ok := s.authenticate(w, r, role)
		if !ok {
			return
		}
		ctx := contextWithSubject(r.Context(), subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) authenticate(w http.ResponseWriter, r *http.Request, role clinic.Role) (string, bool) {
	header := "Atoken"
	if role == clinic.RoleDoctor {
		header = "Dtoken"
	}
	raw := r.Header.Get(header)
	if raw == "" {
		respond(w, http.StatusUnauthorized, map[string]any{"success": false, "message": "not authorized, login again"})
		return "", false
	}

	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	})
	if err != nil {
		message := "invalid token"
		if errors.Is(err, jwt.ErrTokenExpired) {
			message = "token expired"
		}
		respond(w, http.StatusUnauthorized, map[string]any{"success": false, "message": message})
		return "", false
	}
	if claims["role"] != string(role) {
		respond(w, http.StatusUnauthorized, map[string]any{"success": false, "message": "invalid token"})
		return "", false
	}
	subject, _ := claims["sub"].(string)
	return subject, true
}

func contextWithSubject(ctx context.Context, subject string) context.Context {
	return context.WithValue(ctx, ctxKeySubject, subject)
}

func subjectFromContext(ctx context.Context) string {
	if subject, ok := ctx.Value(ctxKeySubject).(string); ok {
		return subject
	}
	return ""
}

func respond(w http.ResponseWriter, status int, body map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func (s *Server) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusOK, map[string]any{"success": false, "message": "invalid request body"})
		return
	}
	if req.Email != AdminEmail || req.Password != AdminPassword {
		respond(w, http.StatusOK, map[string]any{"success": false, "message": "invalid credentials"})
		return
	}
	token := s.MintToken(clinic.RoleAdmin, "admin", s.tokenTTL)
	respond(w, http.StatusOK, map[string]any{"success": true, "token": token})
}

func (s *Server) handleDoctorLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusOK, map[string]any{"success": false, "message": "invalid request body"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.doctors {
		if d.Email == req.Email && s.passwords[d.Email] == req.Password {
			token := s.MintToken(clinic.RoleDoctor, d.ID, s.tokenTTL)
			respond(w, http.StatusOK, map[string]any{"success": true, "token": token})
			return
		}
	}
	respond(w, http.StatusOK, map[string]any{"success": false, "message": "invalid credentials"})
}

func (s *Server) handleAllDoctors(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	respond(w, http.StatusOK, map[string]any{"success": true, "doctors": s.doctors})
}

func (s *Server) handleChangeAvailability(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DocID string `json:"docId"`
	}
	json.NewDecoder(r.Body).Decode(&req)
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.doctors {
		if s.doctors[i].ID == req.DocID {
			s.doctors[i].Available = !s.doctors[i].Available
			respond(w, http.StatusOK, map[string]any{"success": true, "message": "availability changed"})
			return
		}
	}
	respond(w, http.StatusOK, map[string]any{"success": false, "message": "doctor not found"})
}

func (s *Server) handleAddDoctor(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(16 << 20); err != nil {
		respond(w, http.StatusOK, map[string]any{"success": false, "message": "invalid form data"})
		return
	}
	form := r.MultipartForm.Value
	name := formValue(form, "name")
	email := formValue(form, "email")
	if name == "" || email == "" {
		respond(w, http.StatusOK, map[string]any{"success": false, "message": "missing details"})
		return
	}
	fees, _ := strconv.ParseFloat(formValue(form, "fees"), 64)
	available, _ := strconv.ParseBool(formValue(form, "available"))
	var addr clinic.Address
	json.Unmarshal([]byte(formValue(form, "address")), &addr)

	doc := clinic.Doctor{
		ID:         "doc_" + uuid.New().String()[:8],
		Name:       name,
		Email:      email,
		Speciality: formValue(form, "speciality"),
		Degree:     formValue(form, "degree"),
		Experience: formValue(form, "experience"),
		About:      formValue(form, "about"),
		Fees:       fees,
		Available:  available,
		Address:    addr,
	}
	if _, header, err := r.FormFile("image"); err == nil {
		doc.Image = "/images/" + header.Filename
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.doctors {
		if d.Email == email {
			respond(w, http.StatusOK, map[string]any{"success": false, "message": "doctor already exists"})
			return
		}
	}
	s.doctors = append(s.doctors, doc)
	s.passwords[email] = formValue(form, "password")
	respond(w, http.StatusOK, map[string]any{"success": true, "message": "doctor added"})
}

func formValue(form map[string][]string, key string) string {
	if v := form[key]; len(v) > 0 {
		return v[0]
	}
	return ""
}

func (s *Server) handleAdminAppointments(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	respond(w, http.StatusOK, map[string]any{"success": true, "appointments": s.appointments})
}

func (s *Server) handleDoctorAppointments(w http.ResponseWriter, r *http.Request) {
	docID := subjectFromContext(r.Context())
	s.mu.Lock()
	defer s.mu.Unlock()
	own := []clinic.Appointment{}
	for _, a := range s.appointments {
		if a.DocID == docID {
			own = append(own, a)
		}
	}
	respond(w, http.StatusOK, map[string]any{"success": true, "appointments": own})
}

func (s *Server) handleCancelAppointment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AppointmentID string `json:"appointmentId"`
	}
	json.NewDecoder(r.Body).Decode(&req)
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.appointments {
		if s.appointments[i].ID == req.AppointmentID {
			s.appointments[i].Cancelled = true
			respond(w, http.StatusOK, map[string]any{"success": true, "message": "appointment cancelled"})
			return
		}
	}
	respond(w, http.StatusOK, map[string]any{"success": false, "message": "appointment not found"})
}

func (s *Server) handleCompleteAppointment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AppointmentID string `json:"appointmentId"`
	}
	json.NewDecoder(r.Body).Decode(&req)
	docID := subjectFromContext(r.Context())
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.appointments {
		if s.appointments[i].ID == req.AppointmentID && s.appointments[i].DocID == docID {
			s.appointments[i].IsCompleted = true
			respond(w, http.StatusOK, map[string]any{"success": true, "message": "appointment completed"})
			return
		}
	}
	respond(w, http.StatusOK, map[string]any{"success": false, "message": "appointment not found"})
}

func (s *Server) handleAdminDashboard(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	patients := map[string]bool{}
	for _, a := range s.appointments {
		patients[a.UserID] = true
	}
	dash := clinic.Dashboard{
		Doctors:            len(s.doctors),
		Appointments:       len(s.appointments),
		Patients:           len(patients),
		LatestAppointments: latest(s.appointments, 5),
	}
	respond(w, http.StatusOK, map[string]any{"success": true, "dashData": dash})
}

func (s *Server) handleDoctorDashboard(w http.ResponseWriter, r *http.Request) {
	docID := subjectFromContext(r.Context())
	s.mu.Lock()
	defer s.mu.Unlock()
	var own []clinic.Appointment
	patients := map[string]bool{}
	earnings := 0.0
	for _, a := range s.appointments {
		if a.DocID != docID {
			continue
		}
		own = append(own, a)
		patients[a.UserID] = true
		if a.IsCompleted || a.Payment {
			earnings += a.Amount
		}
	}
	dash := clinic.Dashboard{
		Appointments:       len(own),
		Patients:           len(patients),
		Earnings:           earnings,
		LatestAppointments: latest(own, 5),
	}
	respond(w, http.StatusOK, map[string]any{"success": true, "dashData": dash})
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	docID := subjectFromContext(r.Context())
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.doctors {
		if d.ID == docID {
			respond(w, http.StatusOK, map[string]any{"success": true, "profileData": d})
			return
		}
	}
	respond(w, http.StatusOK, map[string]any{"success": false, "message": "profile not found"})
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(16 << 20); err != nil {
		respond(w, http.StatusOK, map[string]any{"success": false, "message": "invalid form data"})
		return
	}
	form := r.MultipartForm.Value
	docID := formValue(form, "docId")
	if docID == "" {
		docID = subjectFromContext(r.Context())
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.doctors {
		if s.doctors[i].ID != docID {
			continue
		}
		d := &s.doctors[i]
		if v := formValue(form, "name"); v != "" {
			d.Name = v
		}
		if v := formValue(form, "speciality"); v != "" {
			d.Speciality = v
		}
		if v := formValue(form, "degree"); v != "" {
			d.Degree = v
		}
		if v := formValue(form, "experience"); v != "" {
			d.Experience = v
		}
		if v := formValue(form, "about"); v != "" {
			d.About = v
		}
		if v := formValue(form, "fees"); v != "" {
			if fees, err := strconv.ParseFloat(v, 64); err == nil {
				d.Fees = fees
			}
		}
		if v := formValue(form, "address"); v != "" {
			json.Unmarshal([]byte(v), &d.Address)
		}
		if v := formValue(form, "available"); v != "" {
			if available, err := strconv.ParseBool(v); err == nil {
				d.Available = available
			}
		}
		if _, header, err := r.FormFile("image"); err == nil {
			d.Image = "/images/" + header.Filename
		}
		respond(w, http.StatusOK, map[string]any{"success": true, "message": "profile updated"})
		return
	}
	respond(w, http.StatusOK, map[string]any{"success": false, "message": "profile not found"})
}

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	respond(w, http.StatusOK, map[string]any{"success": true, "notifications": s.notifications})
}

func (s *Server) handleMarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	var req struct {
		NotificationID string `json:"notificationId"`
	}
	json.NewDecoder(r.Body).Decode(&req)
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.notifications {
		if s.notifications[i].ID == req.NotificationID {
			s.notifications[i].Read = true
			respond(w, http.StatusOK, map[string]any{"success": true, "message": "marked read"})
			return
		}
	}
	respond(w, http.StatusOK, map[string]any{"success": false, "message": "notification not found"})
}

func (s *Server) handleSchedule(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	respond(w, http.StatusOK, map[string]any{"success": true, "schedule": s.schedule})
}

func (s *Server) handleBlockSlot(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Date   string `json:"date"`
		Period string `json:"period"`
		Reason string `json:"reason"`
	}
	json.NewDecoder(r.Body).Decode(&req)
	if req.Date == "" || req.Period == "" {
		respond(w, http.StatusOK, map[string]any{"success": false, "message": "date and period are required"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.schedule {
		if s.schedule[i].Date == req.Date && s.schedule[i].Period == req.Period {
			s.schedule[i].Blocked = true
			s.schedule[i].Reason = req.Reason
			respond(w, http.StatusOK, map[string]any{"success": true, "message": "slot blocked"})
			return
		}
	}
	s.schedule = append(s.schedule, clinic.ScheduleEntry{
		ID:      "sch_" + uuid.New().String()[:8],
		Date:    req.Date,
		Period:  req.Period,
		Blocked: true,
		Reason:  req.Reason,
	})
	respond(w, http.StatusOK, map[string]any{"success": true, "message": "slot blocked"})
}

func (s *Server) handleReportSummary(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	report := clinic.ReportSummary{TotalAppointments: len(s.appointments)}
	for _, a := range s.appointments {
		switch {
		case a.Cancelled:
			report.Cancelled++
		case a.IsCompleted:
			report.Completed++
			report.Revenue += a.Amount
		}
	}
	respond(w, http.StatusOK, map[string]any{"success": true, "report": report})
}

func latest(appointments []clinic.Appointment, n int) []clinic.Appointment {
	if len(appointments) <= n {
		return append([]clinic.Appointment(nil), appointments...)
	}
	return append([]clinic.Appointment(nil), appointments[len(appointments)-n:]...)
}
