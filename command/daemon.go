package command

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"jobclean/common"
	"jobclean/daemon"
	"jobclean/status"
)

// `jobclean daemon [options]` - serve normalization over HTTP until SIGTERM.  SIGHUP rereads the
// password file.

type DaemonCommand struct {
	SharedArgs
	PipelineArgs
	Port     uint
	AuthFile string
	NoSyslog bool
}

func (dc *DaemonCommand) Add(fs *flag.FlagSet) {
	dc.SharedArgs.Add(fs)
	dc.PipelineArgs.Add(fs)
	fs.UintVar(&dc.Port, "port", 0, fmt.Sprintf("Listen for connections on `port` [default: %d]", daemon.DefaultPort))
	fs.StringVar(&dc.AuthFile, "auth-file", "", "Require HTTP basic authentication against this `filename`")
	fs.StringVar(&dc.AuthFile, "password-file", "", "Alias for -auth-file")
	fs.BoolVar(&dc.NoSyslog, "no-syslog", false, "Log to stderr only")
}

func (dc *DaemonCommand) Summary() []string {
	return []string{
		"Run an HTTP server that normalizes uploaded accounting exports and",
		"returns the canonical records.",
	}
}

func (dc *DaemonCommand) Validate() error {
	if err := dc.SharedArgs.Validate(); err != nil {
		return err
	}
	if err := dc.Settings.ApplyUint(&dc.Port, common.DaemonPort); err != nil {
		return err
	}
	dc.Settings.ApplyString(&dc.AuthFile, common.DaemonAuthFile)
	if dc.Port == 0 {
		dc.Port = daemon.DefaultPort
	}
	return dc.PipelineArgs.Validate(&dc.SharedArgs)
}

func (dc *DaemonCommand) Perform(ctx context.Context, _ io.Writer) error {
	if !dc.NoSyslog {
		if err := status.StartSyslog(daemon.LogTag); err != nil {
			return fmt.Errorf("Failed to open syslog\n%w", err)
		}
	}
	srv, err := daemon.New(daemon.Options{
		Port:      dc.Port,
		AuthFile:  dc.AuthFile,
		Version:   common.Version,
		Normalize: dc.Options,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGTERM, os.Interrupt)
	defer stop()
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	reload := make(chan struct{})
	go func() {
		for {
			select {
			case <-hup:
				select {
				case reload <- struct{}{}:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return srv.Run(ctx, reload)
}
