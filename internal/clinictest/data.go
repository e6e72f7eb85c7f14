package clinictest

import (
	"fmt"
	"time"

	"github.com/me/clinicli/pkg/clinic"
)

// seed populates the server with a small, deterministic data set: two
// doctors, a handful of appointments in mixed states, unread notices and a
// partially blocked calendar.
func (s *Server) seed() {
	s.doctors = []clinic.Doctor{
		{
			ID:         "doc_emily",
			Name:       "Dr. Emily Hart",
			Email:      "emily@clinic.test",
			Speciality: "General physician",
			Degree:     "MBBS",
			Experience: "4 Years",
			About:      "Focused on preventive care and early diagnosis.",
			Available:  true,
			Fees:       50,
			Address:    clinic.Address{Line1: "17 Cross Road", Line2: "London"},
		},
		{
			ID:         "doc_marco",
			Name:       "Dr. Marco Silva",
			Email:      "marco@clinic.test",
			Speciality: "Dermatologist",
			Degree:     "MBBS",
			Experience: "2 Years",
			About:      "Skin conditions, allergies and minor procedures.",
			Available:  false,
			Fees:       40,
			Address:    clinic.Address{Line1: "27 Main Street", Line2: "Lisbon"},
		},
	}
	s.passwords = map[string]string{
		"emily@clinic.test": DoctorPassword,
		"marco@clinic.test": DoctorPassword,
	}

	now := time.Now()
	patients := []clinic.Patient{
		{ID: "usr_1", Name: "Alice Morgan", Email: "alice@example.test", Phone: "0555 101"},
		{ID: "usr_2", Name: "Ben Okafor", Email: "ben@example.test", Phone: "0555 102"},
		{ID: "usr_3", Name: "Carla Jimenez", Email: "carla@example.test", Phone: "0555 103"},
	}
	mk := func(i int, doc clinic.Doctor, patient clinic.Patient, daysAhead int, slot string) clinic.Appointment {
		day := now.AddDate(0, 0, daysAhead)
		return clinic.Appointment{
			ID:       fmt.Sprintf("apt_%d", i),
			UserID:   patient.ID,
			DocID:    doc.ID,
			SlotDate: fmt.Sprintf("%d_%d_%d", day.Day(), int(day.Month()), day.Year()),
			SlotTime: slot,
			UserData: patient,
			DocData:  doc,
			Amount:   doc.Fees,
			Date:     now.UnixMilli(),
		}
	}
	s.appointments = []clinic.Appointment{
		mk(1, s.doctors[0], patients[0], 1, "10:00 AM"),
		mk(2, s.doctors[0], patients[1], 2, "11:30 AM"),
		mk(3, s.doctors[1], patients[2], 3, "02:00 PM"),
		mk(4, s.doctors[0], patients[2], -2, "09:00 AM"),
	}
	s.appointments[3].IsCompleted = true
	s.appointments[3].Payment = true

	s.notifications = []clinic.Notification{
		{ID: "ntf_1", Title: "New booking", Body: "Alice Morgan booked 10:00 AM with Dr. Emily Hart", CreatedAt: now.UnixMilli()},
		{ID: "ntf_2", Title: "Payment received", Body: "Carla Jimenez paid for her visit", Read: true, CreatedAt: now.Add(-time.Hour).UnixMilli()},
	}

	tomorrow := now.AddDate(0, 0, 1)
	s.schedule = []clinic.ScheduleEntry{
		{ID: "sch_1", DocID: "doc_emily", Date: fmt.Sprintf("%d_%d_%d", tomorrow.Day(), int(tomorrow.Month()), tomorrow.Year()), Period: "morning"},
		{ID: "sch_2", DocID: "doc_emily", Date: fmt.Sprintf("%d_%d_%d", tomorrow.Day(), int(tomorrow.Month()), tomorrow.Year()), Period: "afternoon", Blocked: true, Reason: "staff meeting"},
	}
}
