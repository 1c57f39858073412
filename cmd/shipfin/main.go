// Command shipfin drives the shipping and finance state store from the
// command line: session management, journal balance checks and a demo run of
// the business workflows.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"shipfin/internal/config"
	"shipfin/internal/core"
	"shipfin/internal/infra/persistence/memory"
	"shipfin/internal/journal"
	"shipfin/internal/logger"
	"shipfin/pkg/domain"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

const (
	Version = "0.1.0"
	appName = "shipfin"
)

var exitFunc = os.Exit

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			exitFunc(2)
		}
	}()
	if err := rootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		exitFunc(1)
	}
}

// options carries the persistent flags.
type options struct {
	configPath string
	logLevel   string
}

func rootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:           appName,
		Short:         "Shipping and finance state store",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Config file path (YAML)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Audit log level (debug, info, warn, error, critical)")

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", appName, Version)
		},
	})
	cmd.AddCommand(sessionCmd(opts), journalCmd(), demoCmd(opts))
	return cmd
}

// app is one wired service plus the resources it holds open.
type app struct {
	svc     *core.Service
	log     *logger.Logger
	backend *core.Backend
	metrics *prometheus.Registry
}

func openApp(ctx context.Context, opts *options, stderr io.Writer) (*app, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	diagLevel := slog.LevelWarn
	if strings.EqualFold(cfg.Log.Level, "debug") {
		diagLevel = slog.LevelDebug
	}
	diag := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: diagLevel}))
	diag.Debug("configuration loaded", "storage", cfg.Storage.Driver, "blob", cfg.Blob.Driver)

	backend, err := core.OpenBackend(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	store := memory.NewStore(core.NewDefaultRulesEngine())
	registry := prometheus.NewRegistry()
	log, err := core.OpenLogger(ctx, cfg, backend,
		logger.WithConsoleWriter(stderr),
		logger.WithIdentity(core.SessionIdentity(store)),
		logger.WithMetrics(logger.NewMetrics(registry)),
		logger.WithFailureHandler(func(f logger.SinkFailure) {
			diag.Warn("audit sink failed", "sink", f.Sink, "error", f.Err)
		}),
	)
	if err != nil {
		_ = backend.Close()
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	svc := core.NewService(store,
		core.WithLogger(log),
		core.WithSessionStorage(backend.Sessions),
		core.WithMetricsRecorder(core.NewPrometheusMetricsRecorder(registry)),
	)
	if _, err := svc.Hydrate(ctx); err != nil {
		diag.Warn("session hydrate failed", "error", err)
	}
	return &app{svc: svc, log: log, backend: backend, metrics: registry}, nil
}

func (a *app) Close(ctx context.Context) error {
	logErr := a.log.Close(ctx)
	if err := a.backend.Close(); err != nil {
		return err
	}
	return logErr
}

// withApp opens the app for the duration of fn.
func withApp(cmd *cobra.Command, opts *options, fn func(ctx context.Context, a *app) error) (err error) {
	ctx := logger.WithRequestID(cmd.Context(), domain.NewID("REQ", time.Now()))
	a, err := openApp(ctx, opts, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(ctx); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(ctx, a)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

type sessionView struct {
	User            *domain.User `json:"user"`
	IsAuthenticated bool         `json:"isAuthenticated"`
	Theme           domain.Theme `json:"theme"`
	SidebarOpen     bool         `json:"sidebarOpen"`
	SessionID       string       `json:"sessionId,omitempty"`
}

func viewOf(s domain.Session) sessionView {
	return sessionView{User: s.User, IsAuthenticated: s.IsAuthenticated, Theme: s.Theme, SidebarOpen: s.SidebarOpen, SessionID: s.SessionID}
}

func sessionCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{Use: "session", Short: "Inspect and change the persisted session"}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				sess, err := a.svc.Session(ctx)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), viewOf(sess))
			})
		},
	})

	var creds core.Credentials
	var role string
	login := &cobra.Command{
		Use:   "login",
		Short: "Sign in",
		RunE: func(cmd *cobra.Command, _ []string) error {
			creds.Role = domain.Role(role)
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				if !a.svc.Login(ctx, creds) {
					return fmt.Errorf("login failed for %q", creds.Email)
				}
				sess, err := a.svc.Session(ctx)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), viewOf(sess))
			})
		},
	}
	login.Flags().StringVar(&creds.Email, "email", "", "Email address")
	login.Flags().StringVar(&creds.Password, "password", "", "Password")
	login.Flags().StringVar(&creds.Name, "name", "", "Display name (defaults to the email local part)")
	login.Flags().StringVar(&role, "role", string(domain.RoleEmployee), "Role (admin, employee, client)")
	cmd.AddCommand(login)

	cmd.AddCommand(&cobra.Command{
		Use:   "logout",
		Short: "Sign out",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				sess, err := a.svc.Logout(ctx)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), viewOf(sess))
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "theme <light|dark|system>",
		Short: "Change the colour scheme",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			theme, err := domain.ParseTheme(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				sess, err := a.svc.SetTheme(ctx, theme)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), viewOf(sess))
			})
		},
	})
	return cmd
}

// parseJournalLine reads ACCOUNT:DEBIT:CREDIT. Missing amounts count as zero.
func parseJournalLine(raw string) (journal.Line, error) {
	parts := strings.Split(raw, ":")
	if len(parts) < 1 || len(parts) > 3 || strings.TrimSpace(parts[0]) == "" {
		return journal.Line{}, fmt.Errorf("line %q: want ACCOUNT:DEBIT:CREDIT", raw)
	}
	for len(parts) < 3 {
		parts = append(parts, "")
	}
	return journal.Line{Account: strings.TrimSpace(parts[0]), Debit: parts[1], Credit: parts[2]}, nil
}

type journalReport struct {
	Reference     string `json:"reference,omitempty"`
	Lines         int    `json:"lines"`
	Debit         string `json:"debit"`
	Credit        string `json:"credit"`
	Difference    string `json:"difference"`
	Balanced      bool   `json:"balanced"`
	CanSaveDraft  bool   `json:"canSaveDraft"`
	CanPost       bool   `json:"canPost"`
	CanRemoveLine bool   `json:"canRemoveLine"`
}

func journalCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "journal", Short: "Journal entry tools"}
	var (
		reference string
		rawLines  []string
	)
	check := &cobra.Command{
		Use:   "check",
		Short: "Report totals and the save gate of a journal entry",
		RunE: func(cmd *cobra.Command, _ []string) error {
			entry := journal.NewEntry(reference, time.Now())
			entry.Lines = entry.Lines[:0]
			for _, raw := range rawLines {
				line, err := parseJournalLine(raw)
				if err != nil {
					return err
				}
				entry.AddLine(line)
			}
			bal, gate := entry.Balance(), entry.Gate()
			report := journalReport{
				Reference:     reference,
				Lines:         len(entry.Lines),
				Debit:         bal.Debit.StringFixed(2),
				Credit:        bal.Credit.StringFixed(2),
				Difference:    bal.Difference.StringFixed(2),
				Balanced:      bal.Balanced(),
				CanSaveDraft:  gate.CanSaveDraft,
				CanPost:       gate.CanPost,
				CanRemoveLine: gate.CanRemoveLine,
			}
			if err := writeJSON(cmd.OutOrStdout(), report); err != nil {
				return err
			}
			return entry.Validate()
		},
	}
	check.Flags().StringVar(&reference, "reference", "", "Entry reference")
	check.Flags().StringArrayVar(&rawLines, "line", nil, "Entry line as ACCOUNT:DEBIT:CREDIT (repeatable)")
	cmd.AddCommand(check)
	return cmd
}

type demoReport struct {
	Stats         core.DashboardStats `json:"stats"`
	VoucherTotals []core.VoucherTotal `json:"voucherTotals"`
	Warnings      []string            `json:"warnings,omitempty"`
	Metrics       map[string]float64  `json:"metrics,omitempty"`
}

func demoCmd(opts *options) *cobra.Command {
	var showMetrics bool
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run the business workflows against an empty store and print the dashboard",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				report, err := runDemo(ctx, a.svc)
				if err != nil {
					return err
				}
				if showMetrics {
					report.Metrics, err = operationCounts(a.metrics)
					if err != nil {
						return err
					}
				}
				return writeJSON(cmd.OutOrStdout(), report)
			})
		},
	}
	cmd.Flags().BoolVar(&showMetrics, "metrics", false, "Include per-operation counters")
	return cmd
}

func runDemo(ctx context.Context, svc *core.Service) (demoReport, error) {
	var report demoReport
	collect := func(res domain.Result) {
		for _, v := range res.Violations {
			report.Warnings = append(report.Warnings, v.Message)
		}
	}
	sh, res, err := svc.AddShipment(ctx, core.Shipment{
		TrackingNumber: "TRK-DEMO-1",
		Status:         domain.ShipmentPending,
		Origin:         "Shanghai",
		Destination:    "Rotterdam",
		ClientName:     "Acme Imports",
		Weight:         1250,
		Value:          decimal.RequireFromString("48000"),
		Currency:       "EUR",
	})
	if err != nil {
		return report, err
	}
	collect(res)
	if _, _, err := svc.AddClient(ctx, core.Client{Name: "Acme Imports", Email: "ops@acme.test", Status: domain.ClientActive}); err != nil {
		return report, err
	}
	pay, res, err := svc.GeneratePaymentVoucher(ctx, sh.ID, decimal.RequireFromString("1850.00"), domain.PaymentBankTransfer)
	if err != nil {
		return report, err
	}
	collect(res)
	items := []core.LineItem{{Name: "Container 40ft", Quantity: 1, Unit: "unit"}}
	if _, res, err = svc.GenerateReceiptVoucher(ctx, sh.ID, items, "dock-1"); err != nil {
		return report, err
	}
	collect(res)
	for _, status := range []domain.ShipmentStatus{domain.ShipmentInTransit, domain.ShipmentAtPort} {
		if _, res, err = svc.UpdateShipmentStatus(ctx, sh.ID, status); err != nil {
			return report, err
		}
		collect(res)
	}
	if _, res, err = svc.AdjustInventory(ctx, "PALLET", 4); err != nil {
		return report, err
	}
	collect(res)
	if _, res, err = svc.ApproveVoucher(ctx, pay.Voucher.ID); err != nil {
		return report, err
	}
	collect(res)
	if _, res, err = svc.GenerateDeliveryVoucher(ctx, sh.ID, items, "Acme Imports"); err != nil {
		return report, err
	}
	collect(res)

	sel, err := svc.Select(ctx)
	if err != nil {
		return report, err
	}
	report.Stats = sel.DashboardStats()
	report.VoucherTotals = sel.VoucherTotals()
	return report, nil
}

// operationCounts sums the service operation counter per operation.
func operationCounts(reg prometheus.Gatherer) (map[string]float64, error) {
	families, err := reg.Gather()
	if err != nil {
		return nil, err
	}
	counts := make(map[string]float64)
	for _, mf := range families {
		if mf.GetName() != "shipfin_service_operations_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			var op string
			for _, lp := range m.GetLabel() {
				if lp.GetName() == "operation" {
					op = lp.GetValue()
				}
			}
			counts[op] += m.GetCounter().GetValue()
		}
	}
	return counts, nil
}
