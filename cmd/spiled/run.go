package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"periph.io/x/conn/v3/physic"

	"github.com/coreman2200/funtimes-spiled/internal/channels"
	"github.com/coreman2200/funtimes-spiled/internal/config"
	"github.com/coreman2200/funtimes-spiled/internal/led"
	"github.com/coreman2200/funtimes-spiled/internal/patterns"
	"github.com/coreman2200/funtimes-spiled/internal/preview"
	"github.com/coreman2200/funtimes-spiled/internal/spidev"
	"github.com/coreman2200/funtimes-spiled/internal/ws"
)

type runOptions struct {
	configPath    string
	listen        string
	sim           bool
	pattern       string
	patternPeriod time.Duration
}

func newRunCmd() *cobra.Command {
	var opts runOptions
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Drive every configured device until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			level, _ := cmd.Flags().GetString("log-level")
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runDevices(ctx, afero.NewOsFs(), level, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "spiled.yaml", "path to the YAML config")
	cmd.Flags().StringVar(&opts.listen, "listen", "", "override the monitor/control HTTP address")
	cmd.Flags().BoolVar(&opts.sim, "sim", false, "draw frames in the terminal instead of using SPI")
	cmd.Flags().StringVar(&opts.pattern, "pattern", "", "drive a test pattern (index_sweep, rgb_channels) instead of client values")
	cmd.Flags().DurationVar(&opts.patternPeriod, "pattern-period", 500*time.Millisecond, "time per test pattern step")
	return cmd
}

func runDevices(ctx context.Context, fs afero.Fs, level string, opts runOptions) error {
	cfg, err := config.Load(fs, opts.configPath)
	if err != nil {
		return err
	}
	if opts.listen != "" {
		cfg.Listen = opts.listen
	}

	debug := false
	for i := range cfg.Devices {
		if opts.sim {
			cfg.Devices[i].Bus = "sim"
		}
		debug = debug || cfg.Devices[i].Debug
	}
	if err := setupLogging(os.Stdout, level, debug); err != nil {
		return err
	}

	store := channels.NewStore()
	var src led.Source = store
	if opts.pattern != "" {
		p, err := patterns.New(patterns.Kind(opts.pattern), opts.patternPeriod)
		if err != nil {
			return err
		}
		src = p
	}

	state := ws.NewState(store)
	devices := make([]*led.Device, 0, len(cfg.Devices))
	for _, dc := range cfg.Devices {
		lc, err := dc.LED()
		if err != nil {
			return err
		}
		open, err := opener(dc.Bus, lc)
		if err != nil {
			return err
		}
		d, err := led.New(lc, src, open,
			led.WithLogger(log.Logger),
			led.WithFrameHook(state.BroadcastFrame),
		)
		if err != nil {
			return fmt.Errorf("device %s: %w", dc.Name, err)
		}
		state.AddDevice(d)
		devices = append(devices, d)
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, d := range devices {
		d := d
		g.Go(func() error {
			return led.Run(ctx, d, led.RunOptions{RetryDelay: cfg.Retry, OnError: state.OnDeviceError})
		})
	}

	if cfg.Listen != "" {
		srv := &http.Server{
			Addr:         cfg.Listen,
			Handler:      withCORS(state.Routes()),
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		}
		g.Go(func() error {
			log.Info().Str("addr", cfg.Listen).Int("devices", len(devices)).Msg("HTTP server starting")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdown, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return srv.Shutdown(shutdown)
		})
	}

	err = g.Wait()
	log.Info().Msg("stopped")
	return err
}

// opener picks the bus backend for a device.
func opener(bus string, lc led.Config) (led.Opener, error) {
	switch bus {
	case "spidev", "":
		return func(path string, rate physic.Frequency) (led.Bus, error) {
			p, err := spidev.Open(path, rate)
			if err != nil {
				return nil, err
			}
			return p, nil
		}, nil
	case "periph":
		return func(path string, rate physic.Frequency) (led.Bus, error) {
			p, err := spidev.OpenPeriph(path, rate)
			if err != nil {
				return nil, err
			}
			return p, nil
		}, nil
	case "sim":
		proto, err := lc.Type.Protocol()
		if err != nil {
			return nil, err
		}
		return preview.Terminal(proto, len(lc.Channels)), nil
	default:
		return nil, fmt.Errorf("unknown bus %q", bus)
	}
}

func withCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		h.ServeHTTP(w, r)
	})
}
