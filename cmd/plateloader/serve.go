package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/mastercactapus/plateloader/config"
	"github.com/mastercactapus/plateloader/control"
	"github.com/mastercactapus/plateloader/dispense"
	"github.com/mastercactapus/plateloader/machine"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

func serveCmd(cfgPath *string) *cobra.Command {
	var addr string
	var simulate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Connect to the devices and serve the control API",
		Long: `Connects to the motion controller and dispenser, calibrates the plate
grid and serves the HTTP control surface.

Examples:
  plateloader serve                    # discover devices on local serial ports
  plateloader serve --simulate         # run against simulated devices
  plateloader serve --addr :8080 --config lab.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, *cfgPath)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return serve(ctx, cfg, addr, simulate)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":9091", "Address to bind the control API to.")
	cmd.Flags().BoolVar(&simulate, "simulate", false, "Use simulated devices instead of hardware.")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config, addr string, simulate bool) error {
	layout, err := cfg.Layout()
	if err != nil {
		return fmt.Errorf("calibrate: %w", err)
	}
	if w := layout.Warning(); w != nil {
		log.Printf("WARN: %v", w)
	}

	l, err := openLinks(ctx, cfg, simulate)
	if err != nil {
		return fmt.Errorf("open devices: %w", err)
	}
	defer l.Close()

	disp := machine.NewDispenser(l.dispenser)
	if v, err := disp.Version(ctx, 2*time.Second); err != nil {
		log.Printf("WARN: dispenser version: %v", err)
	} else {
		log.Printf("dispenser: %s", v)
	}
	if err := disp.Initialize(ctx, time.Duration(cfg.SettleDelay)); err != nil {
		return fmt.Errorf("initialize dispenser: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	opt := cfg.DispenseOptions()
	opt.Registerer = reg
	o := dispense.New(l.motion, l.dispenser, layout, opt)

	api := control.NewAPI(o, layout, reg)
	srv := &http.Server{
		Addr: addr,
		Handler: http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "*")
			log.Printf("%s %s - %s", req.Method, req.URL.Path, req.RemoteAddr)
			api.ServeHTTP(w, req)
		}),
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	log.Printf("listening on %s", addr)

	select {
	case <-ctx.Done():
		log.Println("shutting down")
	case err = <-errCh:
		log.Printf("ERROR: serve: %+v", err)
	}

	// the run must stop, raising the head, before the links close
	o.Close()
	<-api.Done()
	api.Close()

	sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if serr := srv.Shutdown(sctx); serr != nil {
		log.Printf("ERROR: shutdown: %+v", serr)
	}
	if err == http.ErrServerClosed {
		err = nil
	}
	return err
}
