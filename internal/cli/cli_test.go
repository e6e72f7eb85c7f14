package cli

import (
	"bytes"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/me/clinicli/internal/clinictest"
)

// startTestServer starts a fake clinic API and returns its URL.
func startTestServer(t *testing.T) string {
	t.Helper()
	backend := clinictest.New()
	ts := httptest.NewServer(backend.Handler())
	t.Cleanup(ts.Close)
	return ts.URL
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()

	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs(args)

	err := root.Execute()
	return buf.String(), err
}

// captureStdout runs fn with os.Stdout redirected and returns what it wrote.
func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	os.Stdout = w

	fn()

	w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	buf.ReadFrom(r)
	return buf.String()
}

func credentialsPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "credentials.json")
}

func TestLoginAndWhoami(t *testing.T) {
	url := startTestServer(t)
	creds := credentialsPath(t)

	var err error
	output := captureStdout(t, func() {
		_, err = runCLI(t,
			"--server", url, "--credentials", creds,
			"login", "--role", "admin",
			"--email", clinictest.AdminEmail, "--password", clinictest.AdminPassword,
		)
	})
	if err != nil {
		t.Fatalf("login error: %v\noutput: %s", err, output)
	}
	if !strings.Contains(output, "Logged in as admin") {
		t.Errorf("expected 'Logged in as admin' in output, got: %s", output)
	}

	output = captureStdout(t, func() {
		_, err = runCLI(t, "--server", url, "--credentials", creds, "whoami")
	})
	if err != nil {
		t.Fatalf("whoami error: %v", err)
	}
	if !strings.Contains(output, "admin") || !strings.Contains(output, "expires") {
		t.Errorf("expected admin session with expiry in whoami output, got: %s", output)
	}
	if !strings.Contains(output, "not logged in") {
		t.Errorf("expected doctor to be reported logged out, got: %s", output)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	url := startTestServer(t)
	creds := credentialsPath(t)

	_, err := runCLI(t,
		"--server", url, "--credentials", creds,
		"login", "--role", "admin",
		"--email", clinictest.AdminEmail, "--password", "wrong",
	)
	if err == nil {
		t.Fatal("expected login failure")
	}
	if !strings.Contains(err.Error(), "invalid credentials") {
		t.Errorf("error = %v, want the backend's rejection message", err)
	}
}

func TestCommandsRequireLogin(t *testing.T) {
	url := startTestServer(t)
	creds := credentialsPath(t)

	_, err := runCLI(t, "--server", url, "--credentials", creds, "admin", "doctors")
	if err == nil {
		t.Fatal("expected error without a session")
	}
	if !strings.Contains(err.Error(), "not logged in as admin") {
		t.Errorf("error = %v, want a login hint", err)
	}
}

func loginAs(t *testing.T, url, creds, role, email, password string) {
	t.Helper()
	captureStdout(t, func() {
		if _, err := runCLI(t,
			"--server", url, "--credentials", creds,
			"login", "--role", role, "--email", email, "--password", password,
		); err != nil {
			t.Fatalf("login as %s: %v", role, err)
		}
	})
}

func TestAdminDoctorsCommand(t *testing.T) {
	url := startTestServer(t)
	creds := credentialsPath(t)
	loginAs(t, url, creds, "admin", clinictest.AdminEmail, clinictest.AdminPassword)

	var err error
	output := captureStdout(t, func() {
		_, err = runCLI(t, "--server", url, "--credentials", creds, "admin", "doctors")
	})
	if err != nil {
		t.Fatalf("admin doctors error: %v\noutput: %s", err, output)
	}
	if !strings.Contains(output, "Dr. Emily Hart") || !strings.Contains(output, "Dr. Marco Silva") {
		t.Errorf("expected seeded roster in output, got: %s", output)
	}
}

func TestAdminCancelCommand(t *testing.T) {
	url := startTestServer(t)
	creds := credentialsPath(t)
	loginAs(t, url, creds, "admin", clinictest.AdminEmail, clinictest.AdminPassword)

	var err error
	output := captureStdout(t, func() {
		_, err = runCLI(t, "--server", url, "--credentials", creds, "admin", "cancel", "apt_1")
	})
	if err != nil {
		t.Fatalf("admin cancel error: %v\noutput: %s", err, output)
	}
	if !strings.Contains(output, "Appointment apt_1 cancelled") {
		t.Errorf("expected cancel confirmation, got: %s", output)
	}

	output = captureStdout(t, func() {
		_, err = runCLI(t, "--server", url, "--credentials", creds, "admin", "appointments")
	})
	if err != nil {
		t.Fatalf("admin appointments error: %v", err)
	}
	if !strings.Contains(output, "cancelled") {
		t.Errorf("expected a cancelled row in listing, got: %s", output)
	}
}

func TestDoctorFlow(t *testing.T) {
	url := startTestServer(t)
	creds := credentialsPath(t)
	loginAs(t, url, creds, "doctor", "emily@clinic.test", clinictest.DoctorPassword)

	var err error
	output := captureStdout(t, func() {
		_, err = runCLI(t, "--server", url, "--credentials", creds, "doctor", "appointments")
	})
	if err != nil {
		t.Fatalf("doctor appointments error: %v\noutput: %s", err, output)
	}
	if !strings.Contains(output, "apt_1") {
		t.Errorf("expected own appointments in output, got: %s", output)
	}
	if strings.Contains(output, "apt_3") {
		t.Errorf("doctor listing leaked another doctor's appointment: %s", output)
	}

	output = captureStdout(t, func() {
		_, err = runCLI(t, "--server", url, "--credentials", creds, "doctor", "complete", "apt_1")
	})
	if err != nil {
		t.Fatalf("doctor complete error: %v\noutput: %s", err, output)
	}
	if !strings.Contains(output, "Appointment apt_1 completed") {
		t.Errorf("expected completion confirmation, got: %s", output)
	}

	output = captureStdout(t, func() {
		_, err = runCLI(t, "--server", url, "--credentials", creds, "doctor", "profile")
	})
	if err != nil {
		t.Fatalf("doctor profile error: %v", err)
	}
	if !strings.Contains(output, "Dr. Emily Hart") {
		t.Errorf("expected profile in output, got: %s", output)
	}
}

func TestScheduleBlockCommand(t *testing.T) {
	url := startTestServer(t)
	creds := credentialsPath(t)
	loginAs(t, url, creds, "admin", clinictest.AdminEmail, clinictest.AdminPassword)

	var err error
	output := captureStdout(t, func() {
		_, err = runCLI(t,
			"--server", url, "--credentials", creds,
			"schedule", "--block-date", "1_9_2026", "--block-period", "morning", "--block-reason", "maintenance",
		)
	})
	if err != nil {
		t.Fatalf("schedule block error: %v\noutput: %s", err, output)
	}
	if !strings.Contains(output, "Blocked 1_9_2026 morning") {
		t.Errorf("expected block confirmation, got: %s", output)
	}

	output = captureStdout(t, func() {
		_, err = runCLI(t, "--server", url, "--credentials", creds, "schedule")
	})
	if err != nil {
		t.Fatalf("schedule list error: %v", err)
	}
	if !strings.Contains(output, "maintenance") {
		t.Errorf("expected blocked slot with reason in listing, got: %s", output)
	}
}

func TestLogoutCommand(t *testing.T) {
	url := startTestServer(t)
	creds := credentialsPath(t)
	loginAs(t, url, creds, "admin", clinictest.AdminEmail, clinictest.AdminPassword)

	var err error
	output := captureStdout(t, func() {
		_, err = runCLI(t, "--server", url, "--credentials", creds, "logout", "--role", "admin")
	})
	if err != nil {
		t.Fatalf("logout error: %v\noutput: %s", err, output)
	}
	if !strings.Contains(output, "Logged out of admin") {
		t.Errorf("expected logout confirmation, got: %s", output)
	}

	_, err = runCLI(t, "--server", url, "--credentials", creds, "admin", "doctors")
	if err == nil || !strings.Contains(err.Error(), "not logged in as admin") {
		t.Errorf("expected login hint after logout, got: %v", err)
	}
}

func TestNotificationsCommand(t *testing.T) {
	url := startTestServer(t)
	creds := credentialsPath(t)
	loginAs(t, url, creds, "admin", clinictest.AdminEmail, clinictest.AdminPassword)

	var err error
	output := captureStdout(t, func() {
		_, err = runCLI(t, "--server", url, "--credentials", creds, "notifications")
	})
	if err != nil {
		t.Fatalf("notifications error: %v\noutput: %s", err, output)
	}
	if !strings.Contains(output, "New booking") {
		t.Errorf("expected seeded notification in output, got: %s", output)
	}

	output = captureStdout(t, func() {
		_, err = runCLI(t, "--server", url, "--credentials", creds, "notifications", "--mark-read", "ntf_1")
	})
	if err != nil {
		t.Fatalf("mark-read error: %v", err)
	}
	if !strings.Contains(output, "marked read") {
		t.Errorf("expected mark-read confirmation, got: %s", output)
	}
}

func TestReportCommand(t *testing.T) {
	url := startTestServer(t)
	creds := credentialsPath(t)
	loginAs(t, url, creds, "admin", clinictest.AdminEmail, clinictest.AdminPassword)

	var err error
	output := captureStdout(t, func() {
		_, err = runCLI(t, "--server", url, "--credentials", creds, "report")
	})
	if err != nil {
		t.Fatalf("report error: %v\noutput: %s", err, output)
	}
	if !strings.Contains(output, "Appointments: 4") {
		t.Errorf("expected seeded totals in report, got: %s", output)
	}
}
