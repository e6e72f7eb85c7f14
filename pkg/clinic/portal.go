package clinic

import (
	"context"
	"sync"
)

// Portal is the role-scoped context adapter: one per portal, owning that
// role's cached domain data. Every fetch/mutate operation shares one
// contract: with no token held it is a no-op ((false, nil), zero network
// calls); on success the cache is updated and (true, nil) returned; on
// failure the gateway's classified error passes through untouched;
// teardown decisions stay with the gateway.
//
// Logout clears the token and resets every cached list in one critical
// section, so no reader ever sees stale data next to a missing token. A
// generation counter guards against slow responses: a fetch that resolves
// after a logout or reset observes a stale generation and discards its
// result instead of repopulating the cache.
type Portal struct {
	role   Role
	client *Client

	mu    sync.Mutex
	gen   uint64
	cache portalCache
}

type portalCache struct {
	doctors       []Doctor
	appointments  []Appointment
	dashboard     *Dashboard
	profile       *Doctor
	notifications []Notification
	schedule      []ScheduleEntry
	report        *ReportSummary
}

// NewPortal creates the adapter for one role and registers it with the
// gateway: when the gateway tears the role's session down, the cache is
// reset automatically.
func NewPortal(client *Client, role Role) *Portal {
	p := &Portal{role: role, client: client}
	client.OnSessionExpired(func(r Role) {
		if r == role {
			p.Reset()
		}
	})
	return p
}

// Role returns the portal's role.
func (p *Portal) Role() Role { return p.role }

// Client returns the gateway this portal fetches through.
func (p *Portal) Client() *Client { return p.client }

// LoggedIn reports whether a token is currently held for this role.
func (p *Portal) LoggedIn() bool { return p.client.Token(p.role) != "" }

// Login authenticates the role and starts a fresh session: any cache left
// over from a previous session is dropped.
func (p *Portal) Login(ctx context.Context, email, password string) error {
	if err := p.client.Login(ctx, p.role, email, password); err != nil {
		return err
	}
	p.Reset()
	return nil
}

// Logout clears the token and the cached lists in one step. Idempotent.
func (p *Portal) Logout() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.client.Logout(p.role); err != nil {
		return err
	}
	p.gen++
	p.cache = portalCache{}
	return nil
}

// Reset drops all cached data without touching the token store. Fetches
// already in flight will have their results discarded.
func (p *Portal) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.gen++
	p.cache = portalCache{}
}

// begin snapshots the generation before a fetch goes out.
func (p *Portal) begin() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.gen
}

// commit applies fn to the cache only when no logout/reset happened while
// the fetch was in flight. Returns whether the update was applied.
func (p *Portal) commit(gen uint64, fn func(*portalCache)) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.gen != gen {
		return false
	}
	fn(&p.cache)
	return true
}

// RefreshDoctors fetches the practitioner roster. Admin portals only.
func (p *Portal) RefreshDoctors(ctx context.Context) (bool, error) {
	if !p.LoggedIn() {
		return false, nil
	}
	gen := p.begin()
	doctors, err := p.client.AllDoctors(ctx)
	if err != nil {
		return false, err
	}
	return p.commit(gen, func(c *portalCache) { c.doctors = doctors }), nil
}

// RefreshAppointments fetches the role's appointment list.
func (p *Portal) RefreshAppointments(ctx context.Context) (bool, error) {
	if !p.LoggedIn() {
		return false, nil
	}
	gen := p.begin()
	appointments, err := p.client.Appointments(ctx, p.role)
	if err != nil {
		return false, err
	}
	return p.commit(gen, func(c *portalCache) { c.appointments = appointments }), nil
}

// RefreshDashboard fetches the back-office snapshot.
func (p *Portal) RefreshDashboard(ctx context.Context) (bool, error) {
	if !p.LoggedIn() {
		return false, nil
	}
	gen := p.begin()
	dash, err := p.client.Dashboard(ctx, p.role)
	if err != nil {
		return false, err
	}
	return p.commit(gen, func(c *portalCache) { c.dashboard = dash }), nil
}

// RefreshProfile fetches the doctor's own record. Doctor portals only.
func (p *Portal) RefreshProfile(ctx context.Context) (bool, error) {
	if !p.LoggedIn() {
		return false, nil
	}
	gen := p.begin()
	profile, err := p.client.Profile(ctx)
	if err != nil {
		return false, err
	}
	return p.commit(gen, func(c *portalCache) { c.profile = profile }), nil
}

// RefreshNotifications fetches the role's notices.
func (p *Portal) RefreshNotifications(ctx context.Context) (bool, error) {
	if !p.LoggedIn() {
		return false, nil
	}
	gen := p.begin()
	notifications, err := p.client.Notifications(ctx, p.role)
	if err != nil {
		return false, err
	}
	return p.commit(gen, func(c *portalCache) { c.notifications = notifications }), nil
}

// RefreshSchedule fetches the working-calendar records.
func (p *Portal) RefreshSchedule(ctx context.Context) (bool, error) {
	if !p.LoggedIn() {
		return false, nil
	}
	gen := p.begin()
	schedule, err := p.client.Schedule(ctx, p.role)
	if err != nil {
		return false, err
	}
	return p.commit(gen, func(c *portalCache) { c.schedule = schedule }), nil
}

// RefreshReport fetches the aggregated report summary.
func (p *Portal) RefreshReport(ctx context.Context) (bool, error) {
	if !p.LoggedIn() {
		return false, nil
	}
	gen := p.begin()
	report, err := p.client.ReportSummary(ctx, p.role)
	if err != nil {
		return false, err
	}
	return p.commit(gen, func(c *portalCache) { c.report = report }), nil
}

// CancelAppointment cancels an appointment and marks the cached entry.
func (p *Portal) CancelAppointment(ctx context.Context, appointmentID string) (bool, error) {
	if !p.LoggedIn() {
		return false, nil
	}
	gen := p.begin()
	if err := p.client.CancelAppointment(ctx, p.role, appointmentID); err != nil {
		return false, err
	}
	return p.commit(gen, func(c *portalCache) {
		for i := range c.appointments {
			if c.appointments[i].ID == appointmentID {
				c.appointments[i].Cancelled = true
			}
		}
	}), nil
}

// CompleteAppointment marks an appointment done. Doctor portals only.
func (p *Portal) CompleteAppointment(ctx context.Context, appointmentID string) (bool, error) {
	if !p.LoggedIn() {
		return false, nil
	}
	gen := p.begin()
	if err := p.client.CompleteAppointment(ctx, appointmentID); err != nil {
		return false, err
	}
	return p.commit(gen, func(c *portalCache) {
		for i := range c.appointments {
			if c.appointments[i].ID == appointmentID {
				c.appointments[i].IsCompleted = true
			}
		}
	}), nil
}

// ChangeAvailability toggles a doctor's bookability and flips the cached
// record. Admin portals only.
func (p *Portal) ChangeAvailability(ctx context.Context, docID string) (bool, error) {
	if !p.LoggedIn() {
		return false, nil
	}
	gen := p.begin()
	if err := p.client.ChangeAvailability(ctx, docID); err != nil {
		return false, err
	}
	return p.commit(gen, func(c *portalCache) {
		for i := range c.doctors {
			if c.doctors[i].ID == docID {
				c.doctors[i].Available = !c.doctors[i].Available
			}
		}
	}), nil
}

// AddDoctor registers a practitioner. Admin portals only. The roster cache
// is refreshed by the next RefreshDoctors, not speculatively updated.
func (p *Portal) AddDoctor(ctx context.Context, d DoctorUpdate) (bool, error) {
	if !p.LoggedIn() {
		return false, nil
	}
	if err := p.client.AddDoctor(ctx, d); err != nil {
		return false, err
	}
	return true, nil
}

// UpdateProfile edits the doctor's record and invalidates the cached
// profile so the next refresh re-reads it. Doctor portals only.
func (p *Portal) UpdateProfile(ctx context.Context, d DoctorUpdate) (bool, error) {
	if !p.LoggedIn() {
		return false, nil
	}
	gen := p.begin()
	if err := p.client.UpdateProfile(ctx, d); err != nil {
		return false, err
	}
	return p.commit(gen, func(c *portalCache) { c.profile = nil }), nil
}

// MarkNotificationRead flags a notice and updates the cached copy.
func (p *Portal) MarkNotificationRead(ctx context.Context, notificationID string) (bool, error) {
	if !p.LoggedIn() {
		return false, nil
	}
	gen := p.begin()
	if err := p.client.MarkNotificationRead(ctx, p.role, notificationID); err != nil {
		return false, err
	}
	return p.commit(gen, func(c *portalCache) {
		for i := range c.notifications {
			if c.notifications[i].ID == notificationID {
				c.notifications[i].Read = true
			}
		}
	}), nil
}

// BlockSlot takes a day/period off the books. The schedule cache is
// refreshed by the next RefreshSchedule.
func (p *Portal) BlockSlot(ctx context.Context, date, period, reason string) (bool, error) {
	if !p.LoggedIn() {
		return false, nil
	}
	if err := p.client.BlockSlot(ctx, p.role, date, period, reason); err != nil {
		return false, err
	}
	return true, nil
}

// Doctors returns the cached roster.
func (p *Portal) Doctors() []Doctor {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cache.doctors
}

// Appointments returns the cached appointment list.
func (p *Portal) Appointments() []Appointment {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cache.appointments
}

// Dashboard returns the cached snapshot, nil before the first refresh.
func (p *Portal) Dashboard() *Dashboard {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cache.dashboard
}

// Profile returns the cached doctor record, nil before the first refresh.
func (p *Portal) Profile() *Doctor {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cache.profile
}

// Notifications returns the cached notices.
func (p *Portal) Notifications() []Notification {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cache.notifications
}

// Schedule returns the cached calendar records.
func (p *Portal) Schedule() []ScheduleEntry {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cache.schedule
}

// Report returns the cached report summary, nil before the first refresh.
func (p *Portal) Report() *ReportSummary {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cache.report
}
