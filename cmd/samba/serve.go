package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/jbweber/homelab/samba/internal/api"
	"github.com/jbweber/homelab/samba/internal/repository"
)

type serveOptions struct {
	key   string
	noDNS bool
}

func newServeCmd(a *app) *cobra.Command {
	opts := &serveOptions{}
	cmd := &cobra.Command{
		Use:   "serve FILE",
		Short: "Serve the composed machine's cloud-init data as a NoCloud datasource",
		Long: `serve composes FILE and answers NoCloud datasource requests
(/meta-data, /user-data, /vendor-data, /network-config) from the configured
machine's address. The plan journal is available under /api/v0/plans.`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runServe(cmd.Context(), args[0], opts)
		},
	}
	cmd.Flags().StringVar(&opts.key, "key", "", "dotted path of the configuration object inside the file")
	cmd.Flags().BoolVar(&opts.noDNS, "no-dns", false, "compose without the DNS record")
	cmd.Flags().StringVar(&a.cfg.Port, "port", a.cfg.Port, "port to listen on")
	return cmd
}

// newRouter builds the HTTP surface served by serve
func newRouter(a *app, instances api.InstanceStore, plans repository.PlanReader) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	api.NewAPI(instances, plans, a.logger).RegisterRoutes(r)
	return r
}

func (a *app) runServe(ctx context.Context, path string, opts *serveOptions) error {
	cfg, plan, err := a.composePlan(path, opts.key, !opts.noDNS)
	if err != nil {
		return err
	}
	inst, err := api.InstanceFromPlan(cfg, plan)
	if err != nil {
		return err
	}

	db, err := a.cfg.InitializeDatabase()
	if err != nil {
		return err
	}
	defer db.Close()
	plans := repository.NewPlanRepository(db)
	defer plans.Close()

	srv := &http.Server{
		Addr:              net.JoinHostPort("", a.cfg.Port),
		Handler:           newRouter(a, api.NewStaticInstances(inst), plans),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		a.logger.Info("starting datasource", "addr", srv.Addr, "vm", inst.Name, "address", inst.Address.Addr().String())
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
		a.logger.Info("shutting down datasource")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
