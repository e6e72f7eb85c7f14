package cli

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/me/clinicli/pkg/clinic"
)

func newNotificationsCmd() *cobra.Command {
	var roleName string
	var markRead string

	cmd := &cobra.Command{
		Use:   "notifications",
		Short: "List back-office notices, or mark one read",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := portalFor(roleName)
			if err != nil {
				return err
			}

			if markRead != "" {
				ok, err := p.MarkNotificationRead(cmd.Context(), markRead)
				if err != nil {
					return fmt.Errorf("mark notification read: %w", err)
				}
				if !ok {
					return errNotLoggedIn(p.Role())
				}
				fmt.Printf("Notification %s marked read.\n", markRead)
				return nil
			}

			ok, err := p.RefreshNotifications(cmd.Context())
			if err != nil {
				return fmt.Errorf("list notifications: %w", err)
			}
			if !ok {
				return errNotLoggedIn(p.Role())
			}

			notes := p.Notifications()
			if len(notes) == 0 {
				fmt.Println("No notifications.")
				return nil
			}
			for _, n := range notes {
				marker := " "
				if !n.Read {
					marker = "*"
				}
				fmt.Printf("%s %-8s  %-28s  %s (%s)\n", marker, n.ID, n.Title, n.Body,
					humanize.Time(time.UnixMilli(n.CreatedAt)))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&roleName, "role", "admin", "Portal role (admin or doctor)")
	cmd.Flags().StringVar(&markRead, "mark-read", "", "Mark the given notification read instead of listing")
	return cmd
}

func newScheduleCmd() *cobra.Command {
	var roleName string
	var blockDate, blockPeriod, blockReason string

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Show the working calendar, or block a slot",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := portalFor(roleName)
			if err != nil {
				return err
			}

			if blockDate != "" || blockPeriod != "" {
				if blockDate == "" || blockPeriod == "" {
					return fmt.Errorf("both --block-date and --block-period are required to block a slot")
				}
				ok, err := p.BlockSlot(cmd.Context(), blockDate, blockPeriod, blockReason)
				if err != nil {
					return fmt.Errorf("block slot: %w", err)
				}
				if !ok {
					return errNotLoggedIn(p.Role())
				}
				fmt.Printf("Blocked %s %s.\n", blockDate, blockPeriod)
				return nil
			}

			ok, err := p.RefreshSchedule(cmd.Context())
			if err != nil {
				return fmt.Errorf("schedule: %w", err)
			}
			if !ok {
				return errNotLoggedIn(p.Role())
			}

			entries := p.Schedule()
			if len(entries) == 0 {
				fmt.Println("No schedule entries.")
				return nil
			}
			fmt.Printf("%-8s  %-12s  %-10s  %s\n", "ID", "DATE", "PERIOD", "STATUS")
			for _, e := range entries {
				status := "open"
				if e.Blocked {
					status = "blocked"
					if e.Reason != "" {
						status = "blocked (" + e.Reason + ")"
					}
				}
				fmt.Printf("%-8s  %-12s  %-10s  %s\n", e.ID, e.Date, e.Period, status)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&roleName, "role", "admin", "Portal role (admin or doctor)")
	cmd.Flags().StringVar(&blockDate, "block-date", "", "Date to block (day_month_year)")
	cmd.Flags().StringVar(&blockPeriod, "block-period", "", "Period to block, e.g. 'morning'")
	cmd.Flags().StringVar(&blockReason, "block-reason", "", "Reason shown on the calendar")
	return cmd
}

func newReportCmd() *cobra.Command {
	var roleName string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show the aggregated appointment report",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := portalFor(roleName)
			if err != nil {
				return err
			}
			ok, err := p.RefreshReport(cmd.Context())
			if err != nil {
				return fmt.Errorf("report: %w", err)
			}
			if !ok {
				return errNotLoggedIn(p.Role())
			}

			r := p.Report()
			fmt.Printf("Appointments: %d\n", r.TotalAppointments)
			fmt.Printf("Completed:    %d\n", r.Completed)
			fmt.Printf("Cancelled:    %d\n", r.Cancelled)
			fmt.Printf("Revenue:      $%s\n", humanize.Commaf(r.Revenue))
			return nil
		},
	}

	cmd.Flags().StringVar(&roleName, "role", "admin", "Portal role (admin or doctor)")
	return cmd
}

// printAppointments renders an appointment table shared by the admin and
// doctor listings.
func printAppointments(appointments []clinic.Appointment) {
	if len(appointments) == 0 {
		fmt.Println("No appointments.")
		return
	}
	fmt.Printf("%-8s  %-20s  %-20s  %-12s  %-8s  %-9s  %s\n",
		"ID", "PATIENT", "DOCTOR", "DATE", "TIME", "PAID", "STATUS")
	for _, a := range appointments {
		status := "booked"
		switch {
		case a.Cancelled:
			status = "cancelled"
		case a.IsCompleted:
			status = "completed"
		}
		paid := "no"
		if a.Payment {
			paid = "yes"
		}
		fmt.Printf("%-8s  %-20s  %-20s  %-12s  %-8s  %-9s  %s\n",
			a.ID, a.UserData.Name, a.DocData.Name, a.SlotDate, a.SlotTime, paid, status)
	}
}
