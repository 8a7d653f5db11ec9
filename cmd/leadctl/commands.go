package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/ellistech/leadgate/internal/lead_service/adapters/delivery"
	"github.com/ellistech/leadgate/internal/lead_service/app"
	"github.com/ellistech/leadgate/internal/lead_service/domain"
	"github.com/ellistech/leadgate/internal/lead_service/middleware"
	"github.com/ellistech/leadgate/internal/platform/config"
	"github.com/ellistech/leadgate/internal/platform/logger"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"
)

// cli carries what the subcommands share once the root command has run.
type cli struct {
	logLevel  string
	formsFile string

	cfg     *config.Config
	logger  *slog.Logger
	catalog *domain.Catalog
}

// errDeliveryFailed makes submit exit non-zero without a usage dump.
var errDeliveryFailed = errors.New("delivery failed")

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:           "leadctl",
		Short:         "Inspect lead forms and send test submissions",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.init(stderr)
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&c.formsFile, "forms-file", "", "Forms YAML file (overrides APP_FORMS_FILE)")

	root.AddCommand(
		c.formsCmd(),
		c.previewCmd(),
		c.submitCmd(),
		c.projectTypeCmd(),
		c.tokenCmd(),
	)
	return root
}

func (c *cli) init(stderr io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	c.cfg = cfg
	c.logger = logger.NewWithWriter(stderr, c.logLevel)

	path := c.formsFile
	if path == "" {
		path = cfg.FormsFile
	}
	if path == "" {
		c.catalog = domain.DefaultCatalog()
		return nil
	}
	c.catalog, err = domain.LoadCatalog(path)
	return err
}

// pipeline builds a pipeline around sender. Reset timers never matter for a
// one-shot CLI run.
func (c *cli) pipeline(sender app.Sender) (*app.Pipeline, error) {
	fv, err := app.NewFieldValidator(validator.New(), c.catalog)
	if err != nil {
		return nil, err
	}
	return app.NewPipeline(c.catalog, fv, sender, c.logger, app.WithResetDelay(0)), nil
}

func (c *cli) formsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "forms",
		Short: "List the forms and their fields",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, f := range c.catalog.Forms() {
				fmt.Fprintf(w, "%s\t%s %s\tmodal=%t\n", f.Kind, f.Emoji, f.Title, f.Modal)
				for _, field := range f.Fields {
					req := ""
					if field.Required {
						req = "required"
					}
					fmt.Fprintf(w, "  %s\t%s\t%s\n", field.Name, field.Type, req)
				}
			}
			return w.Flush()
		},
	}
}

func (c *cli) previewCmd() *cobra.Command {
	var (
		fields       []string
		serviceTitle string
	)
	cmd := &cobra.Command{
		Use:   "preview <form>",
		Short: "Print the message a submission would send",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := parseFields(fields)
			if err != nil {
				return err
			}
			p, err := c.pipeline(delivery.NewMockSender(c.logger, false, 0))
			if err != nil {
				return err
			}
			ctrl, err := p.Open(domain.FormKind(args[0]), serviceTitle, nil)
			if err != nil {
				return err
			}
			defer ctrl.Close()
			for name, value := range values {
				if err := ctrl.SetField(name, value); err != nil {
					return err
				}
			}

			snap := ctrl.Snapshot()
			if err := p.Validate(ctrl.Schema(), snap.Fields); err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), "warning:", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), p.Formatter().Format(ctrl.Schema(), snap.Fields))
			return nil
		},
	}
	cmd.Flags().StringArrayVarP(&fields, "field", "f", nil, "Field value as name=value (repeatable)")
	cmd.Flags().StringVar(&serviceTitle, "service-title", "", "Service the form is opened for")
	return cmd
}

func (c *cli) submitCmd() *cobra.Command {
	var (
		fields       []string
		serviceTitle string
		endpoint     string
	)
	cmd := &cobra.Command{
		Use:   "submit <form>",
		Short: "Validate, format and deliver one submission",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := parseFields(fields)
			if err != nil {
				return err
			}
			if endpoint == "" {
				endpoint = c.cfg.DeliveryEndpoint
			}
			p, err := c.pipeline(delivery.NewSender(c.logger, endpoint, c.cfg.DeliveryTimeout))
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), c.cfg.DeliveryTimeout+5*time.Second)
			defer cancel()
			outcome, err := p.SubmitOnce(ctx, domain.FormKind(args[0]), serviceTitle, values)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "status=%s attempt=%s\n", outcome.Status, outcome.AttemptID)
			if !outcome.OK {
				return errDeliveryFailed
			}
			return nil
		},
	}
	cmd.Flags().StringArrayVarP(&fields, "field", "f", nil, "Field value as name=value (repeatable)")
	cmd.Flags().StringVar(&serviceTitle, "service-title", "", "Service the form is opened for")
	cmd.Flags().StringVar(&endpoint, "endpoint", "", "Delivery endpoint (overrides APP_DELIVERY_ENDPOINT)")
	return cmd
}

func (c *cli) projectTypeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "project-type <service title>",
		Short: "Print the project type derived from a service title",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), domain.DeriveProjectType(strings.Join(args, " ")))
			return nil
		},
	}
}

func (c *cli) tokenCmd() *cobra.Command {
	var (
		subject string
		ttl     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an admin token for the delivery ledger API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := middleware.IssueAdminToken(c.cfg.AdminJWTSecret, subject, ttl)
			if err != nil {
				return fmt.Errorf("%w (set APP_ADMIN_JWT_SECRET)", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "leadctl", "Token subject")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "Token lifetime")
	return cmd
}

func parseFields(raw []string) (map[string]string, error) {
	values := make(map[string]string, len(raw))
	for _, kv := range raw {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("invalid --field %q, want name=value", kv)
		}
		values[strings.TrimSpace(name)] = value
	}
	return values, nil
}
