/*
 * batch.go, part of goconf.
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

//Package batch runs a function over the rows of a table with a pool of workers.
//Workers claim rows one at a time from a shared counter, failures and panics are
//contained in the row that caused them, and a finalize function runs exactly once
//after every worker has stopped.
package batch

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rmera/goconf/logging"
)

//ErrAllRowsFailed is returned by Summary.Err when every row of a batch failed.
var ErrAllRowsFailed = errors.New("batch: all rows failed")

//RowFunc processes one row. Errors and panics are counted and do not stop the batch.
type RowFunc func(ctx context.Context, row int) error

//FinalizeFunc is called once, after all the rows have been processed or the batch has
//been cancelled. Implementations should release their resources in every case, and
//skip publishing results if s.Cancelled is true.
type FinalizeFunc func(s Summary)

//Outcome is the result of processing one row.
type Outcome struct {
	Row      int
	Err      error
	Panicked bool
	Duration time.Duration
}

//Failed returns true if the row could not be processed.
func (O Outcome) Failed() bool {
	return O.Err != nil
}

//Summary describes a finished batch.
type Summary struct {
	ID        string
	Rows      int //rows in the table
	Claimed   int //rows taken by a worker
	Processed int //rows that finished, with or without error
	Errors    int
	Cancelled bool
	Elapsed   time.Duration
}

//Err returns ErrAllRowsFailed if all the rows failed, and nil otherwise, including
//when only some rows failed.
func (S Summary) Err() error {
	if S.Rows > 0 && S.Errors >= S.Rows {
		return ErrAllRowsFailed
	}
	return nil
}

//Processor runs batches.
type Processor struct {
	o       *Options
	log     logging.Logger
	metrics *Metrics
}

//NewProcessor returns a Processor. o and log can be nil, and so can metrics.
func NewProcessor(o *Options, log logging.Logger, metrics *Metrics) *Processor {
	if o == nil {
		o = DefaultOptions()
	}
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Processor{o: o, log: log, metrics: metrics}
}

//run holds the state shared by the workers of one batch.
type run struct {
	rows      int
	next      atomic.Int64 //rows not yet claimed, decremented to claim one
	errors    atomic.Int64
	claimed   atomic.Int64
	processed atomic.Int64
	working   atomic.Int32
	cancelled atomic.Bool
	perRow    RowFunc
	finalize  FinalizeFunc
	sink      Sink
	id        string
	start     time.Time
	done      chan struct{}
}

func (r *run) summary() Summary {
	return Summary{
		ID:        r.id,
		Rows:      r.rows,
		Claimed:   int(r.claimed.Load()),
		Processed: int(r.processed.Load()),
		Errors:    int(r.errors.Load()),
		Cancelled: r.cancelled.Load(),
		Elapsed:   time.Since(r.start),
	}
}

//Run processes rows rows with perRow, using min(rows, cpus) workers, and then calls
//finalize once. sink can be nil. Cancelling ctx, or the sink, stops the claiming of
//new rows, while rows already claimed are completed. Run returns when finalize has
//returned. The error is not nil only if the batch could not start.
func (P *Processor) Run(ctx context.Context, rows int, perRow RowFunc, finalize FinalizeFunc, sink Sink) (Summary, error) {
	if rows < 0 {
		return Summary{}, fmt.Errorf("batch: invalid row count %d", rows)
	}
	if perRow == nil {
		return Summary{}, errors.New("batch: nil row function")
	}
	r := &run{
		rows:     rows,
		perRow:   perRow,
		finalize: finalize,
		sink:     sink,
		id:       uuid.NewString(),
		start:    time.Now(),
		done:     make(chan struct{}),
	}
	r.next.Store(int64(rows))
	workers := min(rows, P.o.Cpus())
	log := P.log.With(logging.String("batch", r.id))
	log.Info("batch started", logging.Int("rows", rows), logging.Int("workers", workers))
	if workers <= 0 {
		r.cancelled.Store(P.stopRequested(ctx, r))
		P.finish(r, log)
		return r.summary(), nil
	}
	r.working.Store(int32(workers))
	for i := 0; i < workers; i++ {
		go P.work(ctx, r, log)
	}
	<-r.done
	return r.summary(), nil
}

func (P *Processor) stopRequested(ctx context.Context, r *run) bool {
	return ctx.Err() != nil || (r.sink != nil && r.sink.IsCancelled())
}

//work claims and processes rows until none is left or the batch is cancelled. The
//last worker to stop finalizes the batch.
func (P *Processor) work(ctx context.Context, r *run, log logging.Logger) {
	defer func() {
		if r.working.Add(-1) == 0 {
			P.finish(r, log)
		}
	}()
	for {
		if r.next.Load() <= 0 {
			return
		}
		if P.stopRequested(ctx, r) {
			r.cancelled.Store(true)
			return
		}
		row := int(r.next.Add(-1))
		if row < 0 {
			return
		}
		r.claimed.Add(1)
		out := P.process(ctx, r.perRow, row)
		P.metrics.ObserveRow(out)
		if out.Failed() {
			r.errors.Add(1)
			log.Debug("row failed", logging.Int("row", row), logging.Err(out.Err), logging.Bool("panic", out.Panicked))
		}
		P.report(r, r.processed.Add(1))
	}
}

//process runs f on row, turning a panic into an error.
func (P *Processor) process(ctx context.Context, f RowFunc, row int) (out Outcome) {
	start := time.Now()
	out.Row = row
	if t := P.o.RowTimeout(); t > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t)
		defer cancel()
	}
	defer func() {
		if rec := recover(); rec != nil {
			out.Err = fmt.Errorf("batch: row %d panicked: %v", row, rec)
			out.Panicked = true
		}
		out.Duration = time.Since(start)
	}()
	out.Err = f(ctx, row)
	return out
}

func (P *Processor) report(r *run, done int64) {
	if r.sink == nil {
		return
	}
	step := P.o.ProgressStep()
	switch {
	case step <= 0:
		r.sink.UpdateProgress(-1)
	case done%int64(step) == 0 || done == int64(r.rows):
		r.sink.UpdateProgress(int(done))
	}
}

//finish calls the finalize function, logs the result of the batch and releases Run.
func (P *Processor) finish(r *run, log logging.Logger) {
	defer close(r.done)
	s := r.summary()
	fields := []logging.Field{
		logging.Int("rows", s.Rows),
		logging.Int("processed", s.Processed),
		logging.Int("errors", s.Errors),
		logging.Bool("cancelled", s.Cancelled),
		logging.Duration("elapsed", s.Elapsed),
	}
	switch {
	case s.Err() != nil:
		log.Error("all rows failed", fields...)
	case s.Errors > 0:
		log.Warn("some rows failed", fields...)
	default:
		log.Info("batch finished", fields...)
	}
	P.metrics.observeBatch()
	if r.finalize == nil {
		return
	}
	defer func() {
		if rec := recover(); rec != nil {
			log.Error("finalize panicked", logging.Any("panic", rec))
		}
	}()
	r.finalize(s)
}
