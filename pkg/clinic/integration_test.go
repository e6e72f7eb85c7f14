package clinic_test

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/me/clinicli/internal/clinictest"
	"github.com/me/clinicli/pkg/clinic"
)

func newFixture(t *testing.T) (*clinic.Client, *clinictest.Server) {
	t.Helper()
	backend := clinictest.New()
	srv := httptest.NewServer(backend.Handler())
	t.Cleanup(srv.Close)

	store := clinic.NewSessionStore(filepath.Join(t.TempDir(), "credentials.json"))
	client := clinic.NewClient(clinic.DefaultConfig().WithBaseURL(srv.URL), store, nil)
	return client, backend
}

func TestAdminEndToEnd(t *testing.T) {
	client, backend := newFixture(t)
	portal := clinic.NewPortal(client, clinic.RoleAdmin)
	ctx := context.Background()

	if err := portal.Login(ctx, clinictest.AdminEmail, clinictest.AdminPassword); err != nil {
		t.Fatalf("login: %v", err)
	}
	if !portal.LoggedIn() {
		t.Fatal("LoggedIn() = false after login")
	}

	if ok, err := portal.RefreshDoctors(ctx); !ok || err != nil {
		t.Fatalf("RefreshDoctors() = (%v, %v)", ok, err)
	}
	if got := len(portal.Doctors()); got != 2 {
		t.Fatalf("seeded roster = %d doctors, want 2", got)
	}

	if ok, err := portal.AddDoctor(ctx, clinic.DoctorUpdate{
		Name:       "Dr. Priya Nair",
		Email:      "priya@clinic.test",
		Password:   "pw12345",
		Speciality: "Pediatrician",
		Fees:       45,
		Available:  true,
	}); !ok || err != nil {
		t.Fatalf("AddDoctor() = (%v, %v)", ok, err)
	}
	if ok, err := portal.RefreshDoctors(ctx); !ok || err != nil {
		t.Fatalf("RefreshDoctors() = (%v, %v)", ok, err)
	}
	if got := len(portal.Doctors()); got != 3 {
		t.Errorf("roster after add = %d, want 3", got)
	}

	// Adding the same email again is a business rejection, not a transport
	// failure.
	_, err := portal.AddDoctor(ctx, clinic.DoctorUpdate{
		Name: "Dr. Priya Nair", Email: "priya@clinic.test", Password: "pw12345",
	})
	if !clinic.IsValidationError(err) {
		t.Errorf("duplicate AddDoctor error = %v, want validation", err)
	}

	if ok, err := portal.ChangeAvailability(ctx, "doc_marco"); !ok || err != nil {
		t.Fatalf("ChangeAvailability() = (%v, %v)", ok, err)
	}
	for _, d := range backend.Doctors() {
		if d.ID == "doc_marco" && !d.Available {
			t.Error("doc_marco still unavailable after toggle")
		}
	}

	if ok, err := portal.RefreshAppointments(ctx); !ok || err != nil {
		t.Fatalf("RefreshAppointments() = (%v, %v)", ok, err)
	}
	if got := len(portal.Appointments()); got != 4 {
		t.Fatalf("appointments = %d, want 4", got)
	}
	if ok, err := portal.CancelAppointment(ctx, "apt_2"); !ok || err != nil {
		t.Fatalf("CancelAppointment() = (%v, %v)", ok, err)
	}

	if ok, err := portal.RefreshDashboard(ctx); !ok || err != nil {
		t.Fatalf("RefreshDashboard() = (%v, %v)", ok, err)
	}
	dash := portal.Dashboard()
	if dash.Doctors != 3 || dash.Appointments != 4 || dash.Patients != 3 {
		t.Errorf("dashboard = %+v, want 3 doctors, 4 appointments, 3 patients", dash)
	}

	if ok, err := portal.RefreshNotifications(ctx); !ok || err != nil {
		t.Fatalf("RefreshNotifications() = (%v, %v)", ok, err)
	}
	if got := len(portal.Notifications()); got != 2 {
		t.Fatalf("notifications = %d, want 2", got)
	}
	if ok, err := portal.MarkNotificationRead(ctx, "ntf_1"); !ok || err != nil {
		t.Fatalf("MarkNotificationRead() = (%v, %v)", ok, err)
	}
	for _, n := range portal.Notifications() {
		if n.ID == "ntf_1" && !n.Read {
			t.Error("ntf_1 not marked read in cache")
		}
	}

	if ok, err := portal.RefreshSchedule(ctx); !ok || err != nil {
		t.Fatalf("RefreshSchedule() = (%v, %v)", ok, err)
	}
	if got := len(portal.Schedule()); got != 2 {
		t.Fatalf("schedule = %d entries, want 2", got)
	}
	if ok, err := portal.BlockSlot(ctx, "1_9_2026", "morning", "maintenance"); !ok || err != nil {
		t.Fatalf("BlockSlot() = (%v, %v)", ok, err)
	}

	if ok, err := portal.RefreshReport(ctx); !ok || err != nil {
		t.Fatalf("RefreshReport() = (%v, %v)", ok, err)
	}
	report := portal.Report()
	if report.TotalAppointments != 4 || report.Cancelled != 1 || report.Completed != 1 {
		t.Errorf("report = %+v, want 4 total, 1 cancelled, 1 completed", report)
	}
	if report.Revenue != 50 {
		t.Errorf("revenue = %v, want 50 (one completed visit at doc_emily's fee)", report.Revenue)
	}
}

func TestDoctorEndToEnd(t *testing.T) {
	client, _ := newFixture(t)
	portal := clinic.NewPortal(client, clinic.RoleDoctor)
	ctx := context.Background()

	if err := portal.Login(ctx, "emily@clinic.test", clinictest.DoctorPassword); err != nil {
		t.Fatalf("login: %v", err)
	}

	if ok, err := portal.RefreshAppointments(ctx); !ok || err != nil {
		t.Fatalf("RefreshAppointments() = (%v, %v)", ok, err)
	}
	appointments := portal.Appointments()
	if got := len(appointments); got != 3 {
		t.Fatalf("doctor sees %d appointments, want only their own 3", got)
	}
	for _, a := range appointments {
		if a.DocID != "doc_emily" {
			t.Errorf("appointment %s belongs to %s, leaked across doctors", a.ID, a.DocID)
		}
	}

	if ok, err := portal.CompleteAppointment(ctx, "apt_1"); !ok || err != nil {
		t.Fatalf("CompleteAppointment() = (%v, %v)", ok, err)
	}

	// Completing another doctor's appointment is rejected by the backend.
	_, err := portal.CompleteAppointment(ctx, "apt_3")
	if !clinic.IsValidationError(err) {
		t.Errorf("cross-doctor complete error = %v, want validation", err)
	}

	if ok, err := portal.RefreshProfile(ctx); !ok || err != nil {
		t.Fatalf("RefreshProfile() = (%v, %v)", ok, err)
	}
	profile := portal.Profile()
	if profile.Name != "Dr. Emily Hart" || profile.Fees != 50 {
		t.Errorf("profile = %s/%v, want Dr. Emily Hart/50", profile.Name, profile.Fees)
	}

	update := clinic.DoctorUpdate{
		DocID:      profile.ID,
		Name:       profile.Name,
		Email:      profile.Email,
		Speciality: profile.Speciality,
		Degree:     profile.Degree,
		Experience: profile.Experience,
		About:      profile.About,
		Fees:       65,
		Address:    profile.Address,
		Available:  profile.Available,
	}
	if ok, err := portal.UpdateProfile(ctx, update); !ok || err != nil {
		t.Fatalf("UpdateProfile() = (%v, %v)", ok, err)
	}
	if portal.Profile() != nil {
		t.Error("profile cache not invalidated by update")
	}
	if ok, err := portal.RefreshProfile(ctx); !ok || err != nil {
		t.Fatalf("RefreshProfile() after update = (%v, %v)", ok, err)
	}
	if got := portal.Profile().Fees; got != 65 {
		t.Errorf("fees after update = %v, want 65", got)
	}

	if ok, err := portal.RefreshDashboard(ctx); !ok || err != nil {
		t.Fatalf("RefreshDashboard() = (%v, %v)", ok, err)
	}
	dash := portal.Dashboard()
	if dash.Appointments != 3 {
		t.Errorf("doctor dashboard appointments = %d, want 3", dash.Appointments)
	}
	// apt_4 was seeded paid and apt_1 was just completed, both at fee 50.
	if dash.Earnings != 100 {
		t.Errorf("earnings = %v, want 100", dash.Earnings)
	}
}

func TestBothRolesConcurrentSessions(t *testing.T) {
	client, _ := newFixture(t)
	admin := clinic.NewPortal(client, clinic.RoleAdmin)
	doctor := clinic.NewPortal(client, clinic.RoleDoctor)
	ctx := context.Background()

	if err := admin.Login(ctx, clinictest.AdminEmail, clinictest.AdminPassword); err != nil {
		t.Fatalf("admin login: %v", err)
	}
	if err := doctor.Login(ctx, "emily@clinic.test", clinictest.DoctorPassword); err != nil {
		t.Fatalf("doctor login: %v", err)
	}

	if ok, err := admin.RefreshDoctors(ctx); !ok || err != nil {
		t.Fatalf("admin RefreshDoctors() = (%v, %v)", ok, err)
	}
	if ok, err := doctor.RefreshProfile(ctx); !ok || err != nil {
		t.Fatalf("doctor RefreshProfile() = (%v, %v)", ok, err)
	}

	// Dropping the doctor session leaves the admin session alone.
	if err := doctor.Logout(); err != nil {
		t.Fatalf("doctor logout: %v", err)
	}
	if !admin.LoggedIn() {
		t.Error("admin logged out by doctor logout")
	}
	if ok, err := admin.RefreshDashboard(ctx); !ok || err != nil {
		t.Errorf("admin RefreshDashboard() after doctor logout = (%v, %v)", ok, err)
	}
}

func TestExpiredServerTokenRejectedOffline(t *testing.T) {
	client, backend := newFixture(t)
	ctx := context.Background()

	expired := backend.MintToken(clinic.RoleAdmin, "admin", -time.Minute)
	if err := client.Store().Set(clinic.RoleAdmin, expired); err != nil {
		t.Fatal(err)
	}

	before := backend.Requests()
	_, err := client.Dashboard(ctx, clinic.RoleAdmin)
	if clinic.KindOf(err) != clinic.KindUnauthorizedExpired {
		t.Fatalf("KindOf() = %v, want %v", clinic.KindOf(err), clinic.KindUnauthorizedExpired)
	}
	if got := backend.Requests() - before; got != 0 {
		t.Errorf("requests reaching server = %d, want 0 (preflight must refuse expired tokens)", got)
	}
	if client.Token(clinic.RoleAdmin) != "" {
		t.Error("expired token survived preflight teardown")
	}
}

func TestForcedFailureStatuses(t *testing.T) {
	client, backend := newFixture(t)
	portal := clinic.NewPortal(client, clinic.RoleAdmin)
	ctx := context.Background()

	if err := portal.Login(ctx, clinictest.AdminEmail, clinictest.AdminPassword); err != nil {
		t.Fatalf("login: %v", err)
	}

	tests := []struct {
		name        string
		status      int
		wantKind    clinic.ErrorKind
		sessionDies bool
	}{
		{name: "forbidden", status: 403, wantKind: clinic.KindForbidden},
		{name: "rate limited", status: 429, wantKind: clinic.KindRateLimited},
		{name: "server error", status: 500, wantKind: clinic.KindServerError},
		{name: "unauthorized", status: 401, wantKind: clinic.KindUnauthorizedInvalid, sessionDies: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend.ForceStatus("/api/admin/dashboard", tt.status)
			defer backend.ForceStatus("/api/admin/dashboard", 0)

			_, err := portal.RefreshDashboard(ctx)
			if clinic.KindOf(err) != tt.wantKind {
				t.Errorf("KindOf() = %v, want %v", clinic.KindOf(err), tt.wantKind)
			}
			if tt.sessionDies {
				if portal.LoggedIn() {
					t.Error("session survived a 401")
				}
				// Log back in for any tests that follow.
				if err := portal.Login(ctx, clinictest.AdminEmail, clinictest.AdminPassword); err != nil {
					t.Fatalf("re-login: %v", err)
				}
			} else if !portal.LoggedIn() {
				t.Errorf("session torn down by a %d", tt.status)
			}
		})
	}
}
