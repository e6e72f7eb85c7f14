package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/me/clinicli/internal/config"
	"github.com/me/clinicli/internal/logging"
	"github.com/me/clinicli/pkg/clinic"
)

var (
	flagConfig      string
	flagServer      string
	flagCredentials string
	flagDebug       bool
	flagLogLevel    string
	flagLogFormat   string

	logger  *slog.Logger
	client  *clinic.Client
	portals map[clinic.Role]*clinic.Portal
)

// defaultServer resolves the API base URL: flag, then CLINICLI_SERVER,
// then the config file.
func defaultServer(cfg config.Config) string {
	if s := os.Getenv("CLINICLI_SERVER"); s != "" {
		return s
	}
	return cfg.Server
}

// NewRootCmd creates the root cobra command for the clinicli CLI.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "clinicli",
		Short: "Back-office client for the clinic booking API",
		Long:  "clinicli manages doctors, appointments, schedules and reports through the clinic REST API, as admin or doctor.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := flagConfig
			if cfgPath == "" {
				if p, err := config.DefaultPath(); err == nil {
					cfgPath = p
				}
			}
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}

			if flagLogLevel == "" {
				flagLogLevel = cfg.LogLevel
			}
			if flagLogFormat == "" {
				flagLogFormat = cfg.LogFormat
			}
			if flagDebug {
				flagLogLevel = "debug"
			}
			logger = logging.NewLogger(logging.ParseLevel(flagLogLevel), flagLogFormat)

			server := flagServer
			if server == "" {
				server = defaultServer(cfg)
			}

			credPath := flagCredentials
			if credPath == "" {
				credPath, err = clinic.DefaultCredentialsPath()
				if err != nil {
					return err
				}
			}

			store := clinic.NewSessionStore(credPath)
			clientCfg := clinic.DefaultConfig().WithBaseURL(server).WithTimeout(cfg.Timeout())
			client = clinic.NewClient(clientCfg, store, logger)
			client.OnSessionExpired(func(r clinic.Role) {
				fmt.Fprintf(cmd.ErrOrStderr(), "Session for %s has expired, please log in again.\n", r)
			})
			portals = map[clinic.Role]*clinic.Portal{
				clinic.RoleAdmin:  clinic.NewPortal(client, clinic.RoleAdmin),
				clinic.RoleDoctor: clinic.NewPortal(client, clinic.RoleDoctor),
			}
			return nil
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file (default ~/.clinicli/config.yaml)")
	root.PersistentFlags().StringVar(&flagServer, "server", "", "Clinic API URL (or CLINICLI_SERVER env, or config file)")
	root.PersistentFlags().StringVar(&flagCredentials, "credentials", "", "Credentials file (default ~/.clinicli/credentials.json)")
	root.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&flagLogFormat, "log-format", "", "Log format (text, json)")

	root.AddCommand(
		newLoginCmd(),
		newLogoutCmd(),
		newWhoamiCmd(),
		newAdminCmd(),
		newDoctorCmd(),
		newNotificationsCmd(),
		newScheduleCmd(),
		newReportCmd(),
	)

	return root
}

// portalFor returns the adapter for a role named on the command line.
func portalFor(roleName string) (*clinic.Portal, error) {
	role, err := clinic.ParseRole(roleName)
	if err != nil {
		return nil, err
	}
	return portals[role], nil
}

// errNotLoggedIn builds the hint shown when an operation no-ops because
// the role holds no session.
func errNotLoggedIn(role clinic.Role) error {
	return fmt.Errorf("not logged in as %s, run 'clinicli login --role %s' first", role, role)
}
