package cli

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/me/clinicli/pkg/clinic"
)

func newDoctorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Doctor portal commands",
	}
	cmd.AddCommand(
		newDoctorAppointmentsCmd(),
		newDoctorCompleteCmd(),
		newDoctorCancelCmd(),
		newDoctorDashboardCmd(),
		newDoctorProfileCmd(),
		newDoctorUpdateProfileCmd(),
	)
	return cmd
}

func doctorPortal() *clinic.Portal { return portals[clinic.RoleDoctor] }

func newDoctorAppointmentsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "appointments",
		Short: "List the doctor's appointments",
		RunE: func(cmd *cobra.Command, args []string) error {
			p := doctorPortal()
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

func newDoctorCompleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "complete <appointment_id>",
		Short: "Mark an appointment as completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := doctorPortal()
			ok, err := p.CompleteAppointment(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("complete appointment: %w", err)
			}
			if !ok {
				return errNotLoggedIn(p.Role())
			}
			fmt.Printf("Appointment %s completed.\n", args[0])
			return nil
		},
	}
}

func newDoctorCancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <appointment_id>",
		Short: "Cancel one of the doctor's appointments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := doctorPortal()
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

func newDoctorDashboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Show the doctor's earnings and bookings snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			p := doctorPortal()
			ok, err := p.RefreshDashboard(cmd.Context())
			if err != nil {
				return fmt.Errorf("dashboard: %w", err)
			}
			if !ok {
				return errNotLoggedIn(p.Role())
			}

			dash := p.Dashboard()
			fmt.Printf("Earnings:     $%s\n", humanize.Commaf(dash.Earnings))
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

func newDoctorProfileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "profile",
		Short: "Show the doctor's own record",
		RunE: func(cmd *cobra.Command, args []string) error {
			p := doctorPortal()
			ok, err := p.RefreshProfile(cmd.Context())
			if err != nil {
				return fmt.Errorf("profile: %w", err)
			}
			if !ok {
				return errNotLoggedIn(p.Role())
			}

			prof := p.Profile()
			fmt.Printf("Name:       %s\n", prof.Name)
			fmt.Printf("Email:      %s\n", prof.Email)
			fmt.Printf("Speciality: %s (%s, %s)\n", prof.Speciality, prof.Degree, prof.Experience)
			fmt.Printf("Fees:       $%s\n", humanize.Commaf(prof.Fees))
			fmt.Printf("Address:    %s, %s\n", prof.Address.Line1, prof.Address.Line2)
			if prof.Available {
				fmt.Println("Available:  yes")
			} else {
				fmt.Println("Available:  no")
			}
			if prof.About != "" {
				fmt.Printf("About:      %s\n", prof.About)
			}
			return nil
		},
	}
}

func newDoctorUpdateProfileCmd() *cobra.Command {
	var d clinic.DoctorUpdate

	cmd := &cobra.Command{
		Use:   "update-profile",
		Short: "Edit the doctor's own record",
		RunE: func(cmd *cobra.Command, args []string) error {
			p := doctorPortal()

			// The API replaces the whole field set, so start from the
			// current record and overlay only the flags that were set.
			ok, err := p.RefreshProfile(cmd.Context())
			if err != nil {
				return fmt.Errorf("load profile: %w", err)
			}
			if !ok {
				return errNotLoggedIn(p.Role())
			}
			current := p.Profile()

			merged := clinic.DoctorUpdate{
				DocID:      current.ID,
				Name:       current.Name,
				Email:      current.Email,
				Speciality: current.Speciality,
				Degree:     current.Degree,
				Experience: current.Experience,
				About:      current.About,
				Fees:       current.Fees,
				Address:    current.Address,
				Available:  current.Available,
			}
			if cmd.Flags().Changed("fees") {
				merged.Fees = d.Fees
			}
			if cmd.Flags().Changed("about") {
				merged.About = d.About
			}
			if cmd.Flags().Changed("address1") {
				merged.Address.Line1 = d.Address.Line1
			}
			if cmd.Flags().Changed("address2") {
				merged.Address.Line2 = d.Address.Line2
			}
			if cmd.Flags().Changed("available") {
				merged.Available = d.Available
			}
			if cmd.Flags().Changed("image") {
				merged.ImagePath = d.ImagePath
			}

			ok, err = p.UpdateProfile(cmd.Context(), merged)
			if err != nil {
				return fmt.Errorf("update profile: %w", err)
			}
			if !ok {
				return errNotLoggedIn(p.Role())
			}
			fmt.Println("Profile updated.")
			return nil
		},
	}

	cmd.Flags().Float64Var(&d.Fees, "fees", 0, "Consultation fee")
	cmd.Flags().StringVar(&d.About, "about", "", "Short bio")
	cmd.Flags().StringVar(&d.Address.Line1, "address1", "", "Address line 1")
	cmd.Flags().StringVar(&d.Address.Line2, "address2", "", "Address line 2")
	cmd.Flags().BoolVar(&d.Available, "available", true, "Bookable")
	cmd.Flags().StringVar(&d.ImagePath, "image", "", "Portrait image file")
	return cmd
}
