package clinic

import (
	"context"
	"fmt"
)

// endpoints lists the API paths that differ between the two portals. Admin
// and doctor expose the same contract under different families, so one
// table entry per role is all that distinguishes them; the shared families
// (notifications, schedule, reports) are role-agnostic paths authenticated
// by whichever role token is attached.
type endpoints struct {
	login         string
	appointments  string
	cancel        string
	complete      string
	dashboard     string
	profile       string
	updateProfile string
	allDoctors    string
	availability  string
	addDoctor     string
}

var endpointTable = map[Role]endpoints{
	RoleAdmin: {
		login:        "/api/admin/login",
		appointments: "/api/admin/appointments",
		cancel:       "/api/admin/cancel-appointment",
		dashboard:    "/api/admin/dashboard",
		allDoctors:   "/api/admin/all-doctors",
		availability: "/api/admin/change-availability",
		addDoctor:    "/api/admin/add-doctor",
	},
	RoleDoctor: {
		login:         "/api/doctor/login",
		appointments:  "/api/doctor/appointments",
		cancel:        "/api/doctor/cancel-appointment",
		complete:      "/api/doctor/complete-appointment",
		dashboard:     "/api/doctor/dashboard",
		profile:       "/api/doctor/profile",
		updateProfile: "/api/doctor/update-profile",
	},
}

type loginResponse struct {
	envelope
	Token string `json:"token"`
}

// Login authenticates role against the backend, stores the returned token
// durably and re-arms the expiry latch. Credentials are never persisted.
func (c *Client) Login(ctx context.Context, role Role, email, password string) error {
	var out loginResponse
	body := map[string]string{"email": email, "password": password}
	if err := c.post(ctx, role, endpointTable[role].login, body, &out, unauthenticated()); err != nil {
		return err
	}
	if out.Token == "" {
		return &APIError{Kind: KindValidation, Role: role, Message: "login response carried no token"}
	}
	if err := c.store.Set(role, out.Token); err != nil {
		return fmt.Errorf("store %s token: %w", role, err)
	}
	c.rearm(role)
	return nil
}

// Logout drops the role's stored token. Safe to call when already logged
// out.
func (c *Client) Logout(role Role) error {
	return c.store.Clear(role)
}

type appointmentsResponse struct {
	envelope
	Appointments []Appointment `json:"appointments"`
}

// Appointments returns the role's appointment list: every appointment for
// admin, the logged-in doctor's own for doctor.
func (c *Client) Appointments(ctx context.Context, role Role, opts ...RequestOption) ([]Appointment, error) {
	var out appointmentsResponse
	if err := c.get(ctx, role, endpointTable[role].appointments, &out, opts...); err != nil {
		return nil, err
	}
	return out.Appointments, nil
}

// CancelAppointment cancels an appointment on behalf of role.
func (c *Client) CancelAppointment(ctx context.Context, role Role, appointmentID string) error {
	var out okResponse
	body := map[string]string{"appointmentId": appointmentID}
	return c.post(ctx, role, endpointTable[role].cancel, body, &out)
}

// CompleteAppointment marks an appointment as completed. Doctor portal only.
func (c *Client) CompleteAppointment(ctx context.Context, appointmentID string) error {
	var out okResponse
	body := map[string]string{"appointmentId": appointmentID}
	return c.post(ctx, RoleDoctor, endpointTable[RoleDoctor].complete, body, &out)
}

type dashboardResponse struct {
	envelope
	DashData Dashboard `json:"dashData"`
}

// Dashboard returns the role's back-office snapshot.
func (c *Client) Dashboard(ctx context.Context, role Role, opts ...RequestOption) (*Dashboard, error) {
	var out dashboardResponse
	if err := c.get(ctx, role, endpointTable[role].dashboard, &out, opts...); err != nil {
		return nil, err
	}
	return &out.DashData, nil
}

type notificationsResponse struct {
	envelope
	Notifications []Notification `json:"notifications"`
}

// Notifications returns the notices for whichever role is asking.
func (c *Client) Notifications(ctx context.Context, role Role, opts ...RequestOption) ([]Notification, error) {
	var out notificationsResponse
	if err := c.get(ctx, role, "/api/notifications", &out, opts...); err != nil {
		return nil, err
	}
	return out.Notifications, nil
}

// MarkNotificationRead flags one notice as read.
func (c *Client) MarkNotificationRead(ctx context.Context, role Role, notificationID string) error {
	var out okResponse
	body := map[string]string{"notificationId": notificationID}
	return c.post(ctx, role, "/api/notifications/mark-read", body, &out)
}

type scheduleResponse struct {
	envelope
	Schedule []ScheduleEntry `json:"schedule"`
}

// Schedule returns the working-calendar records visible to role.
func (c *Client) Schedule(ctx context.Context, role Role, opts ...RequestOption) ([]ScheduleEntry, error) {
	var out scheduleResponse
	if err := c.get(ctx, role, "/api/schedule", &out, opts...); err != nil {
		return nil, err
	}
	return out.Schedule, nil
}

// BlockSlot takes a day/period off the books.
func (c *Client) BlockSlot(ctx context.Context, role Role, date, period, reason string) error {
	var out okResponse
	body := map[string]string{"date": date, "period": period, "reason": reason}
	return c.post(ctx, role, "/api/schedule/block", body, &out)
}

type reportResponse struct {
	envelope
	Report ReportSummary `json:"report"`
}

// ReportSummary returns aggregated appointment outcomes.
func (c *Client) ReportSummary(ctx context.Context, role Role, opts ...RequestOption) (*ReportSummary, error) {
	var out reportResponse
	if err := c.get(ctx, role, "/api/reports/summary", &out, opts...); err != nil {
		return nil, err
	}
	return &out.Report, nil
}
