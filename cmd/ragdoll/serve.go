package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/gekko3d/ragdoll"
	"github.com/gekko3d/ragdoll/persist"
	"github.com/gekko3d/ragdoll/server"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the simulation and stream it over websockets",
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
				a.cfg.Server.Addr = addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
	cmd.Flags().String("addr", "", "listen address (overrides server.addr)")
	return cmd
}

func (a *app) serve(ctx context.Context) error {
	tuning, err := a.tuning()
	if err != nil {
		return err
	}

	var store persist.Store
	if a.cfg.Store.Kind != "none" {
		store, err = persist.Open(a.cfg.Store.Kind, a.cfg.Store.Path)
		if err != nil {
			return err
		}
		defer store.Close()
	}

	sim := ragdoll.NewSimulation(a.cfg.Sim.Simulation(), tuning, a.log)
	sim.OnTransition = func(f *ragdoll.Figure, from, to ragdoll.PostureState) {
		a.log.Infof("figure %s: %s -> %s", f.ID, from, to)
	}
	sim.Reset()
	runner := ragdoll.NewRunner(sim, a.cfg.Sim.Hz, a.log)

	srv := server.New(runner, store, server.Options{
		StreamInterval: a.cfg.Server.StreamInterval,
		InputRate:      rate.Limit(a.cfg.Server.InputRate),
		InputBurst:     a.cfg.Server.InputBurst,
	}, a.log)
	httpSrv := &http.Server{Addr: a.cfg.Server.Addr, Handler: srv.Handler()}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return runner.Run(ctx) })
	g.Go(func() error {
		a.log.Infof("listening on %s", a.cfg.Server.Addr)
		if err := httpSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
		defer cancel()
		err := httpSrv.Shutdown(shutdownCtx)
		srv.Close()
		return err
	})
	return g.Wait()
}
