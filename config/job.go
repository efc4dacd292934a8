/*
 * job.go, part of goconf.
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

//Package config reads conformer jobs from TOML files, and the runtime settings of the
//command line program from a settings file, the environment and flags.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/rmera/goconf/conformer"
	"github.com/rmera/goconf/forcefield"
	"github.com/rmera/goconf/torsion"
)

//ErrInvalidJob is wrapped by the errors returned for jobs with invalid values.
var ErrInvalidJob = errors.New("config: invalid job")

//Mode tells whether a job adds one geometry per molecule or a set of conformers.
type Mode string

const (
	Single Mode = "single"
	Multi  Mode = "multi"
)

//RawCache is the [cache] table of a job file.
type RawCache struct {
	MaxEntries  int    `toml:"max_entries"`
	RedisAddr   string `toml:"redis_addr"`
	RedisPass   string `toml:"redis_password"`
	RedisDB     int    `toml:"redis_db"`
	RedisPrefix string `toml:"redis_prefix"`
	RedisTTL    string `toml:"redis_ttl"`
}

//RawJob is a job file as written by the user.
type RawJob struct {
	Mode            string   `toml:"mode"`
	Strategy        string   `toml:"strategy"`
	MaxTrials       int      `toml:"max_trials"`
	Conformers      int      `toml:"conformers"`
	TorsionSource   string   `toml:"torsion_source"`
	TableSet        string   `toml:"table_set"`
	Minimize        bool     `toml:"minimize"`
	MaxIterations   int      `toml:"max_iterations"`
	GradientTol     float64  `toml:"gradient_tolerance"`
	EnergyTol       float64  `toml:"energy_tolerance"`
	Tolerance       float64  `toml:"redundancy_tolerance"` //degrees
	Align           bool     `toml:"align"`
	AlignRigid      bool     `toml:"align_rigid"`
	LargestFragment bool     `toml:"largest_fragment"`
	AddHydrogens    bool     `toml:"add_hydrogens"`
	ClashFactor     float64  `toml:"clash_factor"`
	Seed            int64    `toml:"seed"`
	StructureColumn string   `toml:"structure_column"`
	CoordsColumn    string   `toml:"coordinates_column"`
	XYZDir          string   `toml:"xyz_dir"`
	Cache           RawCache `toml:"cache"`
}

//Cache contains the settings of the ring system cache.
type Cache struct {
	MaxEntries  int
	RedisAddr   string
	RedisPass   string
	RedisDB     int
	RedisPrefix string
	RedisTTL    time.Duration
}

//Job is a validated conformer job.
type Job struct {
	Mode            Mode
	Strategy        conformer.Kind
	MaxTrials       int
	Conformers      int
	Source          torsion.Source
	TableSet        forcefield.TableSet
	Minimize        bool
	MaxIterations   int
	GradientTol     float64
	EnergyTol       float64
	Tolerance       float64 //radians
	Align           bool
	AlignRigid      bool //superimpose on the most rigid atoms, found iteratively.
	LargestFragment bool
	AddHydrogens    bool
	ClashFactor     float64
	Seed            int64
	StructureColumn string
	CoordsColumn    string
	XYZDir          string
	Cache           Cache
}

//DefaultRawJob returns the values used for the keys missing in a job file.
func DefaultRawJob() RawJob {
	return RawJob{
		Mode:            string(Multi),
		Strategy:        conformer.LowEnergyRandom.String(),
		MaxTrials:       1000,
		Conformers:      16,
		TorsionSource:   "library",
		TableSet:        string(forcefield.Standard),
		Minimize:        true,
		MaxIterations:   500,
		GradientTol:     1e-3,
		EnergyTol:       1e-6,
		Tolerance:       0.1 * 180 / math.Pi,
		Align:           true,
		LargestFragment: true,
		AddHydrogens:    true,
		ClashFactor:     0.65,
		Seed:            1,
		StructureColumn: "Structure",
		Cache: RawCache{
			MaxEntries:  10000,
			RedisPrefix: "goconf:ring:",
			RedisTTL:    "168h",
		},
	}
}

func invalid(format string, a ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidJob, fmt.Sprintf(format, a...))
}

//ToJob checks the values of rc and converts them to a Job.
func (rc RawJob) ToJob() (*Job, error) {
	j := &Job{
		Mode:            Mode(strings.ToLower(strings.TrimSpace(rc.Mode))),
		MaxTrials:       rc.MaxTrials,
		Conformers:      rc.Conformers,
		Minimize:        rc.Minimize,
		MaxIterations:   rc.MaxIterations,
		GradientTol:     rc.GradientTol,
		EnergyTol:       rc.EnergyTol,
		Tolerance:       rc.Tolerance * math.Pi / 180,
		Align:           rc.Align,
		AlignRigid:      rc.AlignRigid,
		LargestFragment: rc.LargestFragment,
		AddHydrogens:    rc.AddHydrogens,
		ClashFactor:     rc.ClashFactor,
		Seed:            rc.Seed,
		StructureColumn: rc.StructureColumn,
		CoordsColumn:    rc.CoordsColumn,
		XYZDir:          rc.XYZDir,
		Cache: Cache{
			MaxEntries:  rc.Cache.MaxEntries,
			RedisAddr:   rc.Cache.RedisAddr,
			RedisPass:   rc.Cache.RedisPass,
			RedisDB:     rc.Cache.RedisDB,
			RedisPrefix: rc.Cache.RedisPrefix,
		},
	}
	var err error
	if j.Mode != Single && j.Mode != Multi {
		return nil, invalid("mode must be %q or %q, not %q", Single, Multi, rc.Mode)
	}
	if j.Strategy, err = conformer.ParseKind(rc.Strategy); err != nil {
		return nil, invalid("%s", err)
	}
	if j.Source, err = torsion.SourceByName(rc.TorsionSource); err != nil {
		return nil, invalid("%s", err)
	}
	if j.TableSet, err = forcefield.ParseTableSet(rc.TableSet); err != nil {
		return nil, invalid("%s", err)
	}
	switch {
	case j.MaxTrials <= 0:
		return nil, invalid("max_trials must be positive")
	case j.Conformers <= 0:
		return nil, invalid("conformers must be positive")
	case j.MaxIterations <= 0:
		return nil, invalid("max_iterations must be positive")
	case j.Tolerance <= 0 || j.Tolerance >= math.Pi:
		return nil, invalid("redundancy_tolerance must be between 0 and 180 degrees")
	case j.ClashFactor <= 0:
		return nil, invalid("clash_factor must be positive")
	case j.StructureColumn == "":
		return nil, invalid("structure_column can't be empty")
	}
	if rc.Cache.RedisTTL != "" {
		if j.Cache.RedisTTL, err = time.ParseDuration(rc.Cache.RedisTTL); err != nil {
			return nil, invalid("cache.redis_ttl: %s", err)
		}
	}
	return j, nil
}

//ParseJob decodes a job from TOML text. Missing keys take the values of DefaultRawJob.
func ParseJob(data []byte) (*Job, error) {
	rc := DefaultRawJob()
	md, err := toml.Decode(string(data), &rc)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if und := md.Undecoded(); len(und) > 0 {
		return nil, invalid("unknown key %q", und[0].String())
	}
	return rc.ToJob()
}

//LoadJob reads the job file filename.
func LoadJob(filename string) (*Job, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	j, err := ParseJob(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return j, nil
}
