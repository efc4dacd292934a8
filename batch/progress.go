/*
 * progress.go, part of goconf.
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

package batch

import "sync/atomic"

//Sink receives the progress of a batch and tells whether it has been cancelled.
//UpdateProgress is given the number of completed rows, or -1 to mean one more row.
//Implementations must be safe for concurrent use.
type Sink interface {
	UpdateProgress(count int)
	IsCancelled() bool
}

//Progress is a Sink that counts completed rows and can be cancelled.
type Progress struct {
	done      atomic.Int64
	updates   atomic.Int64
	cancelled atomic.Bool
	onUpdate  func(done int64)
}

//NewProgress returns a Progress. If onUpdate is not nil, it is called with the number
//of completed rows after each update, possibly from several goroutines at once.
func NewProgress(onUpdate func(done int64)) *Progress {
	return &Progress{onUpdate: onUpdate}
}

//UpdateProgress records count completed rows, or one more if count is -1. Counts
//that arrive out of order never make the progress go back.
func (P *Progress) UpdateProgress(count int) {
	P.updates.Add(1)
	var now int64
	if count < 0 {
		now = P.done.Add(1)
	} else {
		for {
			old := P.done.Load()
			now = max(old, int64(count))
			if P.done.CompareAndSwap(old, now) {
				break
			}
		}
	}
	if P.onUpdate != nil {
		P.onUpdate(now)
	}
}

//Done returns the number of completed rows reported so far.
func (P *Progress) Done() int64 {
	return P.done.Load()
}

//Updates returns the number of times UpdateProgress was called.
func (P *Progress) Updates() int64 {
	return P.updates.Load()
}

//Cancel asks the batch to stop claiming rows.
func (P *Progress) Cancel() {
	P.cancelled.Store(true)
}

func (P *Progress) IsCancelled() bool {
	return P.cancelled.Load()
}
