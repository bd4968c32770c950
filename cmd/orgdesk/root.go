package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/kingrea/orgdesk/internal/config"
	"github.com/kingrea/orgdesk/internal/logbook"
	"github.com/kingrea/orgdesk/internal/orgapi"
	"github.com/kingrea/orgdesk/internal/sandbox"
	"github.com/kingrea/orgdesk/internal/tui"
)

type rootOptions struct {
	projectDir string
	apiURL     string
	sandbox    bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "orgdesk",
		Short:         "Terminal client for the organization service",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd.Context(), opts)
		},
	}
	cmd.PersistentFlags().StringVar(&opts.projectDir, "project-dir", "", "project directory holding .orgdesk/ (defaults to the working directory)")
	cmd.PersistentFlags().StringVar(&opts.apiURL, "api-url", "", "organization service base URL for this session")
	cmd.Flags().BoolVar(&opts.sandbox, "sandbox", false, "start the bundled sandbox service and point the client at it")

	cmd.AddCommand(newSandboxCmd(opts))
	cmd.AddCommand(newCreateCmd(opts))
	cmd.AddCommand(newSetAPIURLCmd(opts))
	return cmd
}

func Execute() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(exitCode(err))
	}
}

// session is the per-invocation state every command starts from.
type session struct {
	config  *config.Config
	logbook *logbook.Logbook
}

func openSession(opts *rootOptions) (*session, error) {
	dir := strings.TrimSpace(opts.projectDir)
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getting working directory: %w", err)
		}
		dir = cwd
	}
	if err := config.InitDir(dir); err != nil {
		return nil, fmt.Errorf("initializing %s directory: %w", config.Dir, err)
	}
	cfg, err := config.NewConfig(dir)
	if err != nil {
		return nil, err
	}
	lb, err := logbook.New(cfg.LogPath())
	if err != nil {
		return nil, err
	}
	return &session{config: cfg, logbook: lb}, nil
}

func (s *session) Close() {
	_ = s.logbook.Close()
}

// client builds the organization service client. An explicit --api-url wins
// over the fallback, which wins over the configured base URL.
func (s *session) client(opts *rootOptions, fallback string) (*orgapi.Client, error) {
	base := strings.TrimSpace(opts.apiURL)
	if base == "" {
		base = fallback
	}
	if base == "" {
		base = s.config.APIBaseURL()
	}
	return orgapi.NewClient(base,
		orgapi.WithOrganizationsPath(s.config.OrganizationsPath()),
		orgapi.WithRequestIDHeader(s.config.RequestIDHeader()),
	)
}

func runTUI(ctx context.Context, opts *rootOptions) error {
	sess, err := openSession(opts)
	if err != nil {
		return err
	}
	defer sess.Close()

	var sandboxURL string
	settings := sandbox.SettingsFromConfig(sess.config)
	if opts.sandbox || settings.Enabled {
		settings.Enabled = true
		srv := sandbox.NewServer(settings, sandbox.WithLogger(sess.logbook))
		if err := srv.Start(ctx); err != nil {
			return err
		}
		defer func() { _ = srv.Shutdown(context.Background()) }()
		sandboxURL = srv.BaseURL()
	}

	client, err := sess.client(opts, sandboxURL)
	if err != nil {
		return err
	}
	app, err := tui.NewApp(sess.config, client, tui.WithLogbook(sess.logbook))
	if err != nil {
		return err
	}

	// Run blocks until the user quits
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running TUI: %w", err)
	}
	return nil
}
