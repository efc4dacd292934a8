package conformer

import (
	"context"
	"errors"
	"math"
	"testing"

	chem "github.com/rmera/goconf"
	"github.com/rmera/goconf/clash"
	"github.com/rmera/goconf/fragcache"
	"github.com/rmera/goconf/torsion"
)

const (
	ethane       = "CH3.CH3|0-1"
	pentane      = "CH3.CH2.CH2.CH2.CH3|0-1.1-2.2-3.3-4"
	ethylcyclohx = "CH2.CH2.CH2.CH2.CH2.CH1.CH2.CH3|0-1.1-2.2-3.3-4.4-5.0-5.5-6.6-7"
)

func embedded(Te *testing.T, code string) *chem.Molecule {
	top, err := chem.ParseIDCode(code)
	if err != nil {
		Te.Fatal(err)
	}
	mol, err := chem.NewMolecule(top, nil)
	if err != nil {
		Te.Fatal(err)
	}
	if err := Embed(context.Background(), mol, DefaultOptions()); err != nil {
		Te.Fatal(err)
	}
	return mol
}

func count(Te *testing.T, s Strategy, mol *chem.Molecule, limit int) []torsion.Signature {
	var sigs []torsion.Signature
	torsions := torsion.Find(mol.Topology)
	for i := 0; ; i++ {
		if i > limit {
			Te.Fatalf("Strategy did not stop after %d conformers", limit)
		}
		m := s.Next(mol)
		if m == nil {
			break
		}
		if m != mol {
			Te.Errorf("Next returned a different molecule")
		}
		sigs = append(sigs, torsion.Compute(m, torsions))
	}
	return sigs
}

func TestParseKind(Te *testing.T) {
	for _, k := range []Kind{PureRandom, LowEnergyRandom, AdaptiveRandom, Systematic, SelfOrganized} {
		p, err := ParseKind(k.String())
		if err != nil || p != k {
			Te.Errorf("Round trip of %v gave %v, %v", k, p, err)
		}
	}
	if _, err := ParseKind("genetic"); err == nil {
		Te.Errorf("Unknown strategy accepted")
	}
}

func TestEmbed(Te *testing.T) {
	mol := embedded(Te, pentane)
	if !mol.Has3D() {
		Te.Fatalf("No 3D geometry after Embed")
	}
	for _, b := range mol.Bonds {
		if d := mol.Coords.Distance(b.At1.Index, b.At2.Index); math.Abs(d-1.52) > 0.15 {
			Te.Errorf("C-C bond %d-%d has length %.3f", b.At1.Index, b.At2.Index, d)
		}
	}
}

func TestZeroRotatable(Te *testing.T) {
	for _, k := range []Kind{PureRandom, LowEnergyRandom, AdaptiveRandom, Systematic, SelfOrganized} {
		mol := embedded(Te, ethane)
		orig := mol.Coords.Clone()
		o := DefaultOptions()
		o.Kind(k)
		s, err := New(mol, o)
		if err != nil {
			Te.Fatal(err)
		}
		if m := s.Next(mol); m != mol {
			Te.Errorf("%v: the first conformer is not the input", k)
		}
		if rmsd, _ := chem.RMSD(orig, mol.Coords); rmsd != 0 {
			Te.Errorf("%v: the input geometry was changed", k)
		}
		if m := s.Next(mol); m != nil {
			Te.Errorf("%v: more than one conformer for a rigid molecule", k)
		}
		if m := s.Next(mol); m != nil {
			Te.Errorf("%v: the strategy restarted", k)
		}
	}
}

func TestNoGeometry(Te *testing.T) {
	top, _ := chem.ParseIDCode(pentane)
	mol, _ := chem.NewMolecule(top, nil)
	o := DefaultOptions()
	o.Kind(PureRandom)
	if _, err := New(mol, o); !errors.Is(err, ErrNoGeometry) {
		Te.Errorf("Expected ErrNoGeometry, got %v", err)
	}
}

func TestSystematic(Te *testing.T) {
	mol := embedded(Te, pentane)
	o := DefaultOptions()
	o.Kind(Systematic)
	for _, trials := range []int{1, 3, 5, 100} {
		o.MaxTrials(trials)
		s, err := New(mol, o)
		if err != nil {
			Te.Fatal(err)
		}
		sigs := count(Te, s, mol, 100)
		if len(sigs) > trials {
			Te.Errorf("%d conformers with a maximum of %d trials", len(sigs), trials)
		}
		if len(sigs) > 9 {
			Te.Errorf("%d conformers for 9 combinations", len(sigs))
		}
		if len(sigs) == 0 {
			Te.Fatalf("No conformers with %d trials", trials)
		}
		//anti-anti is the most likely combination
		if !torsion.Equal(sigs[0], torsion.Signature{math.Pi, math.Pi}, 1e-6) {
			Te.Errorf("The first conformer is %v, not anti-anti", sigs[0])
		}
	}
}

func TestRandomNoRepeat(Te *testing.T) {
	for _, k := range []Kind{PureRandom, LowEnergyRandom} {
		mol := embedded(Te, pentane)
		o := DefaultOptions()
		o.Kind(k)
		o.Seed(7)
		s, err := New(mol, o)
		if err != nil {
			Te.Fatal(err)
		}
		sigs := count(Te, s, mol, 1000)
		if len(sigs) == 0 || len(sigs) > 9 {
			Te.Errorf("%v: %d conformers for 9 combinations", k, len(sigs))
		}
		for i := range sigs {
			for j := i + 1; j < len(sigs); j++ {
				if torsion.Equal(sigs[i], sigs[j], 1e-3) {
					Te.Errorf("%v: conformers %d and %d are the same", k, i, j)
				}
			}
		}
	}
}

func TestRandomMaxTrials(Te *testing.T) {
	mol := embedded(Te, pentane)
	o := DefaultOptions()
	o.Kind(PureRandom)
	o.MaxTrials(2)
	s, err := New(mol, o)
	if err != nil {
		Te.Fatal(err)
	}
	if n := len(count(Te, s, mol, 10)); n > 2 {
		Te.Errorf("%d conformers after 2 trials", n)
	}
}

func TestAdaptive(Te *testing.T) {
	mol := embedded(Te, pentane)
	o := DefaultOptions()
	o.Kind(AdaptiveRandom)
	s, err := New(mol, o)
	if err != nil {
		Te.Fatal(err)
	}
	checker, err := clash.NewChecker(mol.Topology, o.ClashFactor())
	if err != nil {
		Te.Fatal(err)
	}
	n := 0
	for m := s.Next(mol); m != nil; m = s.Next(mol) {
		if checker.Clashes(m.Coords) {
			Te.Errorf("Conformer %d has clashes", n)
		}
		n++
	}
	if n == 0 {
		Te.Errorf("No conformers")
	}
}

func TestAdaptiveMaxTrials(Te *testing.T) {
	mol := embedded(Te, pentane)
	o := DefaultOptions()
	o.Kind(AdaptiveRandom)
	o.MaxTrials(3)
	s, err := New(mol, o)
	if err != nil {
		Te.Fatal(err)
	}
	if n := len(count(Te, s, mol, 10)); n > 3 {
		Te.Errorf("%d conformers after 3 draws", n)
	}
	if s.Next(mol) != nil {
		Te.Error("An exhausted strategy returned a conformer")
	}
}

func TestSelfOrganized(Te *testing.T) {
	cache := fragcache.New(nil, 0)
	o := DefaultOptions()
	o.Kind(SelfOrganized)
	o.Count(6)
	o.Cache(cache)
	for round := 0; round < 2; round++ {
		mol := embedded(Te, ethylcyclohx)
		s, err := New(mol, o)
		if err != nil {
			Te.Fatal(err)
		}
		n := 0
		for m := s.Next(mol); m != nil; m = s.Next(mol) {
			for _, b := range m.Bonds {
				if d := m.Coords.Distance(b.At1.Index, b.At2.Index); math.Abs(d-1.52) > 0.15 {
					Te.Errorf("Conformer %d: bond %d-%d has length %.3f", n, b.At1.Index, b.At2.Index, d)
				}
			}
			n++
		}
		if n == 0 || n > 6 {
			Te.Errorf("%d conformers, expected 1 to 6", n)
		}
		if round > 0 {
			continue
		}
		if cache.Len() != 0 {
			Te.Errorf("Ring systems stored before any minimization: %d", cache.Len())
		}
		if err := StoreRings(context.Background(), mol, cache); err != nil {
			Te.Fatal(err)
		}
	}
	if cache.Len() != 1 {
		Te.Errorf("Expected one ring system in the cache, found %d", cache.Len())
	}
	if st := cache.Stats(); st.Hits == 0 {
		Te.Errorf("The ring system was never found in the cache: %+v", st)
	}
	if err := StoreRings(context.Background(), embedded(Te, "CH3.CH2.CH2.CH3|0-1.1-2.2-3"), cache); err != nil || cache.Len() != 1 {
		Te.Errorf("A molecule without rings changed the cache: %v, %d entries", err, cache.Len())
	}
	if err := StoreRings(context.Background(), embedded(Te, ethylcyclohx), nil); err != nil {
		Te.Errorf("StoreRings without a cache: %v", err)
	}
}
