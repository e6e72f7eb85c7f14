package clinic

// Address is a two-line postal address, stored as a sub-document.
type Address struct {
	Line1 string `json:"line1"`
	Line2 string `json:"line2"`
}

// Doctor is a bookable practitioner as the API returns it.
type Doctor struct {
	ID          string              `json:"_id"`
	Name        string              `json:"name"`
	Email       string              `json:"email"`
	Image       string              `json:"image,omitempty"`
	Speciality  string              `json:"speciality"`
	Degree      string              `json:"degree"`
	Experience  string              `json:"experience"`
	About       string              `json:"about"`
	Available   bool                `json:"available"`
	Fees        float64             `json:"fees"`
	Address     Address             `json:"address"`
	SlotsBooked map[string][]string `json:"slots_booked,omitempty"`
}

// Patient mirrors the user record the API embeds in appointments.
type Patient struct {
	ID      string  `json:"_id"`
	Name    string  `json:"name"`
	Email   string  `json:"email"`
	Image   string  `json:"image,omitempty"`
	Phone   string  `json:"phone,omitempty"`
	Gender  string  `json:"gender,omitempty"`
	DOB     string  `json:"dob,omitempty"`
	Address Address `json:"address"`
}

// Appointment is a booked slot joining the patient and doctor documents.
// SlotDate uses the API's day_month_year form (e.g. "21_8_2026"); Date is
// the booking instant in unix milliseconds.
type Appointment struct {
	ID          string  `json:"_id"`
	UserID      string  `json:"userId"`
	DocID       string  `json:"docId"`
	SlotDate    string  `json:"slotDate"`
	SlotTime    string  `json:"slotTime"`
	UserData    Patient `json:"userData"`
	DocData     Doctor  `json:"docData"`
	Amount      float64 `json:"amount"`
	Date        int64   `json:"date"`
	Cancelled   bool    `json:"cancelled"`
	Payment     bool    `json:"payment"`
	IsCompleted bool    `json:"isCompleted"`
}

// Dashboard is the back-office snapshot. Doctors is only meaningful for
// the admin portal, Earnings only for the doctor portal.
type Dashboard struct {
	Doctors            int           `json:"doctors,omitempty"`
	Appointments       int           `json:"appointments"`
	Patients           int           `json:"patients"`
	Earnings           float64       `json:"earnings,omitempty"`
	LatestAppointments []Appointment `json:"latestAppointments"`
}

// Notification is a back-office notice (booking, cancellation, reminder).
type Notification struct {
	ID        string `json:"_id"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	Read      bool   `json:"read"`
	CreatedAt int64  `json:"createdAt"`
}

// ScheduleEntry is one day/period record of the working calendar. Blocked
// entries carry the reason the period was taken off the books.
type ScheduleEntry struct {
	ID      string `json:"_id"`
	DocID   string `json:"docId,omitempty"`
	Date    string `json:"date"`
	Period  string `json:"period"`
	Blocked bool   `json:"blocked"`
	Reason  string `json:"reason,omitempty"`
}

// ReportSummary aggregates appointment outcomes for the reports screen.
type ReportSummary struct {
	TotalAppointments int     `json:"totalAppointments"`
	Completed         int     `json:"completed"`
	Cancelled         int     `json:"cancelled"`
	Revenue           float64 `json:"revenue"`
}

// DoctorUpdate is the fixed multipart field set used to create or edit a
// doctor record. ImagePath optionally names a local portrait file to
// upload; when empty no image part is sent.
type DoctorUpdate struct {
	DocID      string
	Name       string
	Email      string
	Password   string // only used by AddDoctor
	Speciality string
	Degree     string
	Experience string
	About      string
	Fees       float64
	Address    Address
	Available  bool
	ImagePath  string
}

// envelope is the response shape shared by every endpoint:
// {success: bool, message?: string, <payload fields>}.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (e envelope) status() (bool, string) { return e.Success, e.Message }

// payload is implemented by typed responses embedding envelope.
type payload interface {
	status() (ok bool, message string)
}

type okResponse struct {
	envelope
}
