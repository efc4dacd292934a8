/*
 * run.go, part of goconf.
 *
 *
 * Copyright 2021 Raul Mera rauldotmeraatusachdotcl
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 *
 *
 */

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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rmera/goconf/batch"
	"github.com/rmera/goconf/chemplot"
	"github.com/rmera/goconf/config"
	"github.com/rmera/goconf/fragcache"
	"github.com/rmera/goconf/logging"
	"github.com/rmera/goconf/table"
	"github.com/rmera/goconf/task"
	"github.com/spf13/cobra"
)

type runOptions struct {
	job         string
	in          string
	out         string
	plot        string
	metricsAddr string
}

func newRunCommand(a *app) *cobra.Command {
	o := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Add conformers to the molecules of a table",
		Long: "run reads a table (plain, .gz or .zst), generates the conformers of the\n" +
			"molecule in each row as set in the job file, and writes the table with the\n" +
			"columns \"" + task.ColStructure + "\", \"" + task.ColConformers + "\", \"" + task.ColEnergies + "\" and \"" + task.ColErrors + "\" added.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, o)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&o.job, "job", "j", "", "job file (toml)")
	f.StringVarP(&o.in, "in", "i", "", "input table")
	f.StringVarP(&o.out, "out", "o", "", "output table")
	f.StringVar(&o.plot, "plot", "", "file for a histogram of the lowest energy of each molecule")
	f.StringVar(&o.metricsAddr, "metrics-addr", "", "address to serve Prometheus metrics on, e.g. :9090")
	_ = cmd.MarkFlagRequired("job")
	_ = cmd.MarkFlagRequired("in")
	_ = cmd.MarkFlagRequired("out")
	_ = a.v.BindPFlag("metrics_addr", f.Lookup("metrics-addr"))
	return cmd
}

//newCache returns the ring system cache of the job, with a Redis tier if the job
//sets an address. The returned function releases the Redis connection.
func newCache(ctx context.Context, job *config.Job, log logging.Logger) (*fragcache.Cache, func(), error) {
	if job.Cache.RedisAddr == "" {
		return fragcache.New(nil, job.Cache.MaxEntries), func() {}, nil
	}
	client, err := fragcache.DialRedis(ctx, job.Cache.RedisAddr, job.Cache.RedisPass, job.Cache.RedisDB)
	if err != nil {
		return nil, nil, err
	}
	log.Info("using redis fragment cache", logging.String("addr", job.Cache.RedisAddr))
	store := fragcache.NewRedisStore(client, job.Cache.RedisPrefix, job.Cache.RedisTTL)
	return fragcache.New(store, job.Cache.MaxEntries), func() { client.Close() }, nil
}

//serveMetrics starts an HTTP server with the metrics in registry. The returned function
//stops it.
func serveMetrics(addr string, registry *prometheus.Registry, log logging.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{EnableOpenMetrics: true}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server stopped", logging.Err(err))
		}
	}()
	log.Info("serving metrics", logging.String("addr", addr))
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Warn("metrics server shutdown", logging.Err(err))
		}
	}
}

func (a *app) run(cmd *cobra.Command, o *runOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	log := a.log.Named("run")
	job, err := config.LoadJob(o.job)
	if err != nil {
		return err
	}
	T, err := table.ReadFile(o.in)
	if err != nil {
		return err
	}
	log.Info("table read", logging.String("file", o.in), logging.Int("rows", T.Rows()))

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics, err := batch.NewMetrics(registry)
	if err != nil {
		return err
	}
	if a.settings.MetricsAddr != "" {
		stop := serveMetrics(a.settings.MetricsAddr, registry, log)
		defer stop()
	}
	cache, release, err := newCache(ctx, job, log)
	if err != nil {
		return err
	}
	defer release()
	cache.SetObserver(metrics.CacheObserver())

	bo := batch.DefaultOptions()
	bo.Cpus(a.settings.Workers)
	bo.ProgressStep(a.settings.ProgressStep)
	bo.RowTimeout(a.settings.RowTimeout)
	conformers, err := task.New(job, batch.NewProcessor(bo, log, metrics), cache, log)
	if err != nil {
		return err
	}

	rows := T.Rows()
	progress := batch.NewProgress(func(done int64) {
		log.Info("progress", logging.Int64("done", done), logging.Int("rows", rows))
	})
	//the first signal stops the claiming of rows, the rows in progress are completed.
	sigctx, stopSignals := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stopSignals()
	go func() {
		<-sigctx.Done()
		if ctx.Err() == nil {
			progress.Cancel()
		}
	}()
	report, err := conformers.Run(ctx, T, progress)
	if err != nil {
		return err
	}
	stats := cache.Stats()
	log.Info("fragment cache", logging.Int64("hits", stats.Hits), logging.Int64("misses", stats.Misses))
	if report.Cancelled {
		return fmt.Errorf("cancelled after %d of %d rows, %s not written", report.Processed, rows, o.out)
	}
	if err := table.WriteFile(o.out, T); err != nil {
		return err
	}
	if o.plot != "" {
		if err := chemplot.EnergyHistogram(report.Energies, 0, "Lowest conformer energies", o.plot); err != nil {
			log.Warn("energy plot not written", logging.Err(err))
		}
	}
	s := report.Stats
	fmt.Fprintf(cmd.OutOrStdout(), "%d rows, %d failed, %s\n", report.Rows, report.Errors, elapsed(report.Elapsed))
	if s.N > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "lowest energies (kcal/mol): mean %.3f sd %.3f median %.3f min %.3f max %.3f\n",
			s.Mean, s.StdDev, s.Median, s.Min, s.Max)
	}
	return report.Err()
}
