// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package run

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/sevlyar/go-daemon"
	"github.com/spf13/cobra"
	"github.com/stratastor/logger"

	"github.com/stratastor/deaddiskd/config"
	"github.com/stratastor/deaddiskd/internal/constants"
	"github.com/stratastor/deaddiskd/pkg/disk/collaborator"
	"github.com/stratastor/deaddiskd/pkg/disk/enumerator"
	"github.com/stratastor/deaddiskd/pkg/disk/orchestrator"
	"github.com/stratastor/deaddiskd/pkg/disk/probes"
	"github.com/stratastor/deaddiskd/pkg/disk/store"
	"github.com/stratastor/deaddiskd/pkg/disk/tools"
	"github.com/stratastor/deaddiskd/pkg/hostfacts"
	"github.com/stratastor/deaddiskd/pkg/lifecycle"
)

type runFlags struct {
	configDir string
	simulate  bool
	verbosity int
	daemonize bool
	detach    bool
}

// NewRunCmd wires the full remediation pass: load config, discover and
// diagnose every device, then act on whatever the engines decided.
func NewRunCmd() *cobra.Command {
	flags := &runFlags{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Check every disk once (or continuously with --daemonize) and repair or flag for replacement",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMain(flags)
		},
	}

	cmd.Flags().StringVar(&flags.configDir, "configdir", constants.SystemConfigDir, "directory holding config.json")
	cmd.Flags().BoolVar(&flags.simulate, "simulate", false, "log what would happen but take no destructive action")
	cmd.Flags().CountVarP(&flags.verbosity, "verbose", "v", "increase verbosity (repeatable): 0=info, 1=debug, 2+=trace")
	cmd.Flags().BoolVar(&flags.daemonize, "daemonize", false, "run continuously, repeating the check on an interval instead of once")
	cmd.Flags().BoolVar(&flags.detach, "detach", false, "background the process via a daemonizing fork (implies --daemonize)")

	return cmd
}

func logLevelFor(verbosity int) string {
	switch {
	case verbosity >= 2:
		return "trace"
	case verbosity == 1:
		return "debug"
	default:
		return "info"
	}
}

func runMain(flags *runFlags) error {
	if flags.detach {
		flags.daemonize = true
		ctx := &daemon.Context{
			PidFileName: constants.PIDFilePath,
			PidFilePerm: 0644,
			LogFileName: "/var/log/deaddiskd.log",
			LogFilePerm: 0640,
			Umask:       027,
		}
		child, err := ctx.Reborn()
		if err != nil {
			return fmt.Errorf("failed to daemonize: %w", err)
		}
		if child != nil {
			// Parent process: the child has been forked off, nothing left to do.
			return nil
		}
		defer ctx.Release()
	}

	cfg := config.LoadConfig(flags.configDir, "")

	l, err := logger.NewTag(logger.Config{LogLevel: logLevelFor(flags.verbosity), EnableSentry: false}, "run")
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	// A detached child already holds the PID file go-daemon wrote for it.
	if !flags.detach {
		if err := lifecycle.EnsureSingleInstance(constants.PIDFilePath); err != nil {
			return err
		}
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DBLocation), 0755); err != nil {
		return fmt.Errorf("failed to create repair store directory: %w", err)
	}
	st, err := store.Open(cfg.DBLocation)
	if err != nil {
		return err
	}
	defer st.Close()

	toolChecker := tools.NewToolChecker(l, tools.Paths{})
	toolChecker.CheckAll()
	if err := toolChecker.ValidateRequired([]string{"smartctl", "e2fsck", "xfs_repair"}); err != nil {
		l.Warn("one or more required tools are unavailable", "error", err)
	}

	probePaths := probes.Paths{}
	en := enumerator.New(l, st, probePaths, flags.simulate)
	facts := hostfacts.NewCollector(l)

	var cluster collaborator.ClusterBackend
	switch cfg.Backend {
	case "ceph":
		cluster = collaborator.NewCephBackend(l)
	default:
		return fmt.Errorf("unsupported cluster backend %q", cfg.Backend)
	}
	ticketing := collaborator.NewJiraTicketing(l, collaborator.JiraConfig{
		User:           cfg.JiraUser,
		Password:       cfg.JiraPassword,
		Host:           cfg.JiraHost,
		IssueType:      cfg.JiraIssueType,
		Priority:       cfg.JiraPriority,
		ProjectID:      cfg.JiraProjectID,
		TicketAssignee: cfg.JiraTicketAssignee,
		ProxyURL:       cfg.Proxy,
	})

	orch := orchestrator.New(l, en, st, cluster, ticketing, facts)

	pass := func() {
		ctx := context.Background()
		if err := orch.CheckForFailedDisks(ctx, flags.simulate); err != nil {
			l.Error("check for failed disks failed", "error", err)
		}
		if err := orch.AddRepairedDisks(ctx, flags.simulate); err != nil {
			l.Error("add repaired disks failed", "error", err)
		}
	}

	if !flags.daemonize {
		pass()
		return nil
	}

	interval, err := time.ParseDuration(cfg.DiscoveryInterval)
	if err != nil {
		return fmt.Errorf("invalid discovery_interval %q: %w", cfg.DiscoveryInterval, err)
	}

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}

	if _, err := scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(pass),
	); err != nil {
		return fmt.Errorf("failed to schedule recurring pass: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	lifecycle.RegisterContextCanceller(cancel)
	lifecycle.RegisterShutdownHook(func() {
		if err := scheduler.Shutdown(); err != nil {
			l.Error("scheduler shutdown failed", "error", err)
		}
	})

	scheduler.Start()
	l.Info("daemonized, running on an interval", "interval", cfg.DiscoveryInterval)

	lifecycle.HandleSignals(ctx)
	return nil
}
