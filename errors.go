/*
 * errors.go, part of goconf.
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

package chem

import (
	"fmt"
	"strings"
)

//CError is the error type of the chem package.
type CError struct {
	msg      string
	deco     []string
	critical bool
}

//Error returns a string with an error message, followed by the functions that passed it up.
func (err CError) Error() string {
	if len(err.deco) == 0 {
		return err.msg
	}
	return fmt.Sprintf("%s (%s)", err.msg, strings.Join(err.deco, " <- "))
}

//Decorate will add the dec string to the decoration slice of strings of the error,
//and return the resulting slice.
func (err *CError) Decorate(dec string) []string {
	if dec == "" {
		return err.deco
	}
	err.deco = append(err.deco, dec)
	return err.deco
}

//Critical returns whether the error is critical or it can be ignored
func (err CError) Critical() bool { return err.critical }

func newError(msg string, caller string, critical bool) *CError {
	return &CError{msg: msg, deco: []string{caller}, critical: critical}
}

//errDecorate is a helper function that asserts that the error
//implements chem.Error and decorates the error with the caller's name before returning it.
//Other errors are returned unchanged.
func errDecorate(err error, caller string) error {
	if err == nil {
		return nil
	}
	if err2, ok := err.(Error); ok {
		err2.Decorate(caller)
		return err2
	}
	return err
}

//PanicMsg is a message used for panics, even though it does satisfy the error interface.
//for errors use CError.
type PanicMsg string

func (v PanicMsg) Error() string { return string(v) }

const (
	ErrNilAtom        = PanicMsg("goconf: nil atom")
	ErrAtomOutOfRange = PanicMsg("goconf: atom index out of range")
	ErrNotInBond      = PanicMsg("goconf: trying to cross a bond from an atom not in the bond")
	ErrCoordMismatch  = PanicMsg("goconf: coordinates and topology have different number of atoms")
)
