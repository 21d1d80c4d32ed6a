package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cipdip/enipsim/internal/cip"
	"github.com/cipdip/enipsim/internal/cipserver"
	"github.com/cipdip/enipsim/internal/config"
	"github.com/cipdip/enipsim/internal/control"
	uferrors "github.com/cipdip/enipsim/internal/errors"
	"github.com/cipdip/enipsim/internal/logging"
	"github.com/cipdip/enipsim/internal/tags"
)

type serveFlags struct {
	listenAddress string
	configPath    string
	httpAddress   string
	delay         string
	logLevel      string
	logFile       string
	tagSpecs      []string
}

func newServeCmd() *cobra.Command {
	flags := &serveFlags{}

	cmd := &cobra.Command{
		Use:   "serve [NAME=TYPE[SIZE]...]",
		Short: "Run the EtherNet/IP simulator",
		Long: `Run enipsim as a TCP server on port 44818 (or --address), serving
CIP tag reads and writes. Tags may be declared as positional NAME=TYPE[SIZE]
arguments or with --tag, or loaded from a YAML config file with --config.

Press Ctrl+C to stop the server gracefully.`,
		Example: `  # Start with default tags
  enipsim serve

  # Declare tags on the command line
  enipsim serve --tag SCADA=INT --tag COUNTER=DINT[10]

  # Load a config file and expose a control-plane HTTP endpoint
  enipsim serve --config server.yaml --http-address 127.0.0.1:8787`,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags.tagSpecs = append(flags.tagSpecs, args...)
			if err := runServe(flags); err != nil {
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
				os.Exit(2)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&flags.listenAddress, "address", "", "TCP listen address (overrides config)")
	cmd.Flags().StringVar(&flags.configPath, "config", "", "YAML server config file path")
	cmd.Flags().StringVar(&flags.httpAddress, "http-address", "", "Control-plane HTTP listen address (overrides config); empty disables it")
	cmd.Flags().StringVar(&flags.delay, "delay", "", "Response delay: constant (\"0.25\") or range (\"0.1-0.5\")")
	cmd.Flags().StringVar(&flags.logLevel, "log-level", "", "Log level: silent|error|info|verbose|debug (overrides config)")
	cmd.Flags().StringVar(&flags.logFile, "log-file", "", "Log file path (overrides config)")
	cmd.Flags().StringArrayVar(&flags.tagSpecs, "tag", nil, "Tag declaration NAME=TYPE[SIZE], repeatable")

	return cmd
}

func runServe(flags *serveFlags) error {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return uferrors.WrapConfigError(err, flags.configPath)
	}
	if flags.listenAddress != "" {
		cfg.ListenAddress = flags.listenAddress
	}
	if flags.httpAddress != "" {
		cfg.HTTPAddress = flags.httpAddress
	}
	if flags.delay != "" {
		cfg.Faults.Delay = flags.delay
	}
	if flags.logLevel != "" {
		cfg.LogLevel = flags.logLevel
	}
	if flags.logFile != "" {
		cfg.LogFile = flags.logFile
	}

	logger, err := logging.NewLogger(logging.ParseLevel(cfg.LogLevel), cfg.LogFile)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Close()

	registry := tags.NewRegistry()
	specs, err := config.ParseTagSpecs(append(cfg.Tags, flags.tagSpecs...))
	if err != nil {
		return uferrors.WrapTagSpecError(err, strings.Join(append(cfg.Tags, flags.tagSpecs...), ", "))
	}
	if len(specs) == 0 {
		specs = []config.TagSpec{{Name: "SCADA", Type: cip.TypeINT, Size: 1}}
	}
	for _, spec := range specs {
		if _, err := registry.Create(spec.Name, spec.Type, spec.Size, 0); err != nil {
			return fmt.Errorf("create tag %s: %w", spec.Name, err)
		}
	}

	plane := control.NewPlane(registry)
	if cfg.Faults.Delay != "" {
		if err := plane.Delay.ParseSpec(cfg.Faults.Delay); err != nil {
			return fmt.Errorf("parse delay: %w", err)
		}
	}

	srv := cipserver.New(cfg.Identity, logger, plane)
	if err := srv.Start(cfg.ListenAddress); err != nil {
		return uferrors.WrapListenError(err, cfg.ListenAddress)
	}
	fmt.Fprintf(os.Stdout, "enipsim listening on %s (%d tags)\n", srv.Addr(), len(specs))

	var httpSrv *http.Server
	if cfg.HTTPAddress != "" {
		httpSrv = &http.Server{Addr: cfg.HTTPAddress, Handler: plane.Handler()}
		go func() {
			if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("control-plane http: %v", err)
			}
		}()
		fmt.Fprintf(os.Stdout, "control plane listening on %s\n", cfg.HTTPAddress)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	fmt.Fprintf(os.Stdout, "\nshutting down...\n")
	if httpSrv != nil {
		_ = httpSrv.Close()
	}
	return srv.Stop()
}
