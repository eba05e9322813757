package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"domainkit/pkg/build"
	"domainkit/pkg/config"
	"domainkit/pkg/domain"
	"domainkit/pkg/filtering"
	"domainkit/pkg/logger"
	"domainkit/pkg/metrics"
	"domainkit/pkg/version"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "domainkit",
		Short:        "Build a deduplicated domain rule set from block and allow lists",
		SilenceUsage: true,
	}
	config.Flags(root.PersistentFlags())

	root.AddCommand(
		&cobra.Command{
			Use:   "build",
			Short: "Load all configured lists and write the artifact",
			Args:  cobra.NoArgs,
			RunE:  runBuild,
		},
		&cobra.Command{
			Use:   "classify [file]",
			Short: "Print the directive of every filter line read from file or stdin",
			Args:  cobra.MaximumNArgs(1),
			RunE:  runClassify,
		},
		&cobra.Command{
			Use:   "check <name>",
			Short: "Build the configured lists and report whether name is blocked",
			Args:  cobra.ExactArgs(1),
			RunE:  runCheck,
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the version",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "domainkit %s\n", version.DomainkitVersion)
			},
		},
	)
	return root
}

func setup(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Setup(cmd.Flags())
	if err != nil {
		return nil, nil, err
	}
	log, err := logger.Setup(cfg.Logging.Level, cfg.Logging.File)
	if err != nil {
		return nil, nil, err
	}
	log.Debug("configuration loaded", "path", cfg.Path, "lists", len(cfg.Lists))
	return cfg, log, nil
}

// newBuilder assembles a Builder from cfg. The returned function releases
// the rejected-lines log.
func newBuilder(cfg *config.Config, log *slog.Logger, writeOutput bool) (*build.Builder, func(), error) {
	norm := domain.NewNormalizer()

	sources, err := filtering.BuildSources(filtering.Catalog, cfg.Lists, cfg.Build.Custom)
	if err != nil {
		return nil, nil, err
	}
	if len(sources) == 0 {
		log.Warn("no lists enabled")
	}

	allow, err := filtering.NewAllowlist(cfg.Build.Allowlist, norm)
	if err != nil {
		return nil, nil, fmt.Errorf("build.allowlist: %w", err)
	}
	fromFile, err := filtering.LoadAllowlist(cfg.Build.AllowlistFile, norm, log)
	if err != nil {
		return nil, nil, err
	}
	allow.Merge(fromFile)

	opts := build.Options{
		Sources:     sources,
		CacheDir:    cfg.Build.CacheDir,
		Allowlist:   allow,
		DebugDomain: cfg.Build.DebugDomain,
		ErrorLimit:  cfg.Logging.ErrorLimit,
		Normalizer:  norm,
		Logger:      log,
	}
	if writeOutput {
		format, err := build.ParseFormat(cfg.Output.Format)
		if err != nil {
			return nil, nil, err
		}
		opts.Output = build.Output{
			Path:        cfg.Output.Path,
			Format:      format,
			Title:       cfg.Output.Title,
			Description: cfg.Output.Description,
		}
		if cfg.Metrics.Textfile != "" {
			opts.Metrics = metrics.NewCollector()
			opts.MetricsTextfile = cfg.Metrics.Textfile
		}
	}

	release := func() {}
	if rejected := filtering.NewRejectedLogger(cfg.Build.RejectedLog, log); rejected != nil {
		opts.Rejected = rejected
		release = func() {
			if err := rejected.Close(); err != nil {
				log.Warn("failed to close rejected log", "error", err)
			}
		}
	}
	return build.New(opts), release, nil
}

func runBuild(cmd *cobra.Command, _ []string) error {
	cfg, log, err := setup(cmd)
	if err != nil {
		return err
	}
	builder, release, err := newBuilder(cfg, log, true)
	if err != nil {
		return err
	}
	defer release()

	manager := build.NewManager(builder, cfg.Build.UpdateInterval, log)
	if err := manager.LoadOnce(cmd.Context()); err != nil {
		return err
	}
	if cfg.Build.UpdateInterval <= 0 {
		return nil
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	manager.Start(ctx)
	log.Info("rebuilding periodically", "interval", cfg.Build.UpdateInterval)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigChan)

	for {
		select {
		case <-ctx.Done():
			return nil
		case sig := <-sigChan:
			switch sig {
			case syscall.SIGHUP:
				log.Info("received SIGHUP signal, rebuilding lists")
				if err := manager.LoadOnce(ctx); err != nil {
					log.Error("failed to rebuild lists", "error", err)
				}
			default:
				log.Info("received shutdown signal", "signal", sig)
				return nil
			}
		}
	}
}

func runClassify(cmd *cobra.Command, args []string) error {
	var in io.Reader = cmd.InOrStdin()
	if len(args) == 1 {
		file, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("open input: %w", err)
		}
		defer func() { _ = file.Close() }()
		in = file
	}

	classifier := filtering.NewClassifier(domain.NewNormalizer())
	out := bufio.NewWriter(cmd.OutOrStdout())
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 2*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		if d, ok := classifier.Classify(line, nil); ok {
			fmt.Fprintf(out, "%s %s %s\n", d.Polarity, d.Scope, d.Hostname)
		} else {
			fmt.Fprintf(out, "reject %s\n", line)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	return out.Flush()
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup(cmd)
	if err != nil {
		return err
	}
	builder, release, err := newBuilder(cfg, log, false)
	if err != nil {
		return err
	}
	defer release()

	manager := build.NewManager(builder, 0, log)
	if err := manager.LoadOnce(cmd.Context()); err != nil {
		return err
	}

	v := manager.Matcher().Check(args[0])
	w := cmd.OutOrStdout()
	switch {
	case v.Allowed:
		fmt.Fprintf(w, "allowed %s by %s\n", v.Name, v.Rule)
	case v.Blocked:
		fmt.Fprintf(w, "blocked %s by %s\n", v.Name, v.Rule)
	default:
		fmt.Fprintf(w, "not blocked %s\n", v.Name)
	}
	return nil
}
