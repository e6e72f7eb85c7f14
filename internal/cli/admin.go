package cli

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/me/clinicli/pkg/clinic"
)

func newAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Admin portal commands",
	}
	cmd.AddCommand(
		newAdminDoctorsCmd(),
		newAdminAddDoctorCmd(),
		newAdminAvailabilityCmd(),
		newAdminAppointmentsCmd(),
		newAdminCancelCmd(),
		newAdminDashboardCmd(),
	)
	return cmd
}

func adminPortal() *clinic.Portal { return portals[clinic.RoleAdmin] }

func newAdminDoctorsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctors",
		Short: "List the practitioner roster",
		RunE: func(cmd *cobra.Command, args []string) error {
			p := adminPortal()
			ok, err := p.RefreshDoctors(cmd.Context())
			if err != nil {
				return fmt.Errorf("list doctors: %w", err)
			}
			if !ok {
				return errNotLoggedIn(p.Role())
			}

			doctors := p.Doctors()
			if len(doctors) == 0 {
				fmt.Println("No doctors registered.")
				return nil
			}
			fmt.Printf("%-12s  %-24s  %-20s  %-9s  %s\n", "ID", "NAME", "SPECIALITY", "AVAILABLE", "FEES")
			for _, d := range doctors {
				available := "no"
				if d.Available {
					available = "yes"
				}
				fmt.Printf("%-12s  %-24s  %-20s  %-9s  $%s\n", d.ID, d.Name, d.Speciality, available, humanize.Commaf(d.Fees))
			}
			return nil
		},
	}
}

func newAdminAddDoctorCmd() *cobra.Command {
	var d clinic.DoctorUpdate

	cmd := &cobra.Command{
		Use:   "add-doctor",
		Short: "Register a new practitioner",
		RunE: func(cmd *cobra.Command, args []string) error {
			p := adminPortal()
			ok, err := p.AddDoctor(cmd.Context(), d)
			if err != nil {
				return fmt.Errorf("add doctor: %w", err)
			}
			if !ok {
				return errNotLoggedIn(p.Role())
			}
			fmt.Printf("Doctor %s added.\n", d.Name)
			return nil
		},
	}

	cmd.Flags().StringVar(&d.Name, "name", "", "Full name")
	cmd.Flags().StringVar(&d.Email, "email", "", "Login email")
	cmd.Flags().StringVar(&d.Password, "password", "", "Initial password")
	cmd.Flags().StringVar(&d.Speciality, "speciality", "", "Speciality")
	cmd.Flags().StringVar(&d.Degree, "degree", "", "Degree")
	cmd.Flags().StringVar(&d.Experience, "experience", "", "Experience, e.g. '4 Years'")
	cmd.Flags().StringVar(&d.About, "about", "", "Short bio")
	cmd.Flags().Float64Var(&d.Fees, "fees", 0, "Consultation fee")
	cmd.Flags().StringVar(&d.Address.Line1, "address1", "", "Address line 1")
	cmd.Flags().StringVar(&d.Address.Line2, "address2", "", "Address line 2")
	cmd.Flags().BoolVar(&d.Available, "available", true, "Bookable right away")
	cmd.Flags().StringVar(&d.ImagePath, "image", "", "Portrait image file (optional)")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("password")
	return cmd
}

func newAdminAvailabilityCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "availability <doctor_id>",
		Short: "Toggle whether a doctor can be booked",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := adminPortal()
			ok, err := p.ChangeAvailability(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("change availability: %w", err)
			}
			if !ok {
				return errNotLoggedIn(p.Role())
			}
			fmt.Printf("Availability toggled for %s.\n", args[0])
			return nil
		},
	}
}

func newAdminAppointmentsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "appointments",
		Short: "List every appointment",
		RunE: func(cmd *cobra.Command, args []string) error {
			p := adminPortal()
			ok, err := p.RefreshAppointments(cmd.Context())
			if err != nil {
				return fmt.Errorf("list appointments: %w", err)
			}
			if !ok {
				return errNotLoggedIn(p.Role())
			}
			printAppointments(p.Appointments())
			return nil
		},
	}
}

func newAdminCancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <appointment_id>",
		Short: "Cancel an appointment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := adminPortal()
			ok, err := p.CancelAppointment(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("cancel appointment: %w", err)
			}
			if !ok {
				return errNotLoggedIn(p.Role())
			}
			fmt.Printf("Appointment %s cancelled.\n", args[0])
			return nil
		},
	}
}

func newAdminDashboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Show the admin back-office snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			p := adminPortal()
			ok, err := p.RefreshDashboard(cmd.Context())
			if err != nil {
				return fmt.Errorf("dashboard: %w", err)
			}
			if !ok {
				return errNotLoggedIn(p.Role())
			}

			dash := p.Dashboard()
			fmt.Printf("Doctors:      %d\n", dash.Doctors)
			fmt.Printf("Appointments: %d\n", dash.Appointments)
			fmt.Printf("Patients:     %d\n", dash.Patients)
			if len(dash.LatestAppointments) > 0 {
				fmt.Println("Latest:")
				printAppointments(dash.LatestAppointments)
			}
			return nil
		},
	}
}
