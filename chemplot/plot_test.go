package chemplot

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	chem "github.com/rmera/goconf"
	"github.com/rmera/goconf/conformer"
	"github.com/rmera/goconf/torsion"
)

func exists(Te *testing.T, name string) {
	Te.Helper()
	if st, err := os.Stat(name); err != nil || st.Size() == 0 {
		Te.Errorf("Plot %s not written: %v", name, err)
	}
}

func TestEnergyHistogram(Te *testing.T) {
	dir := Te.TempDir()
	energies := []float64{-3.2, -1.5, 0.4, 2.2, math.NaN(), -0.8, 1.1}
	name := filepath.Join(dir, "hist.png")
	if err := EnergyHistogram(energies, 0, "Lowest energies", name); err != nil {
		Te.Fatal(err)
	}
	exists(Te, name)
	if err := EnergyHistogram([]float64{math.NaN()}, 5, "", filepath.Join(dir, "none.png")); !errors.Is(err, ErrNoData) {
		Te.Errorf("Expected ErrNoData, got %v", err)
	}
}

func TestRelative(Te *testing.T) {
	r := Relative([]float64{3, math.NaN(), 1, 2})
	if r[0] != 2 || !math.IsNaN(r[1]) || r[2] != 0 || r[3] != 1 {
		Te.Errorf("Wrong relative energies %v", r)
	}
}

func TestConformerEnergies(Te *testing.T) {
	name := filepath.Join(Te.TempDir(), "confs.svg")
	sets := [][]float64{{-2, -1.4, 0.3}, {5.5, 6}, {}}
	if err := ConformerEnergies(sets, "Conformers", name); err != nil {
		Te.Fatal(err)
	}
	exists(Te, name)
	if err := ConformerEnergies([][]float64{{}}, "", name); !errors.Is(err, ErrNoData) {
		Te.Errorf("Expected ErrNoData, got %v", err)
	}
}

//TestTorsionMap plots the two torsions of pentane over a grid of rotamers.
func TestTorsionMap(Te *testing.T) {
	top, err := chem.ParseIDCode("CH3.CH2.CH2.CH2.CH3|0-1.1-2.2-3.3-4")
	if err != nil {
		Te.Fatal(err)
	}
	mol, _ := chem.NewMolecule(top, nil)
	if err := conformer.Embed(context.Background(), mol, nil); err != nil {
		Te.Fatal(err)
	}
	torsions := torsion.Find(top)
	if len(torsions) != 2 {
		Te.Fatalf("Pentane should have 2 torsions, found %d", len(torsions))
	}
	var confs []*chem.Conformer
	angles := []float64{180, 60, -60}
	for _, a1 := range angles {
		for _, a2 := range angles {
			if err := torsion.Apply(mol, torsions, []float64{a1 * chem.Deg2Rad, a2 * chem.Deg2Rad}); err != nil {
				Te.Fatal(err)
			}
			confs = append(confs, mol.Snapshot(math.NaN()))
		}
	}
	data, err := TorsionPairs(top, confs, torsions[0], torsions[1])
	if err != nil {
		Te.Fatal(err)
	}
	for i, v := range data {
		want := []float64{angles[i/3], angles[i%3]}
		for j := range v {
			if d := math.Abs(chem.WrapAngle((v[j]-want[j])*chem.Deg2Rad)); d > 1e-6 {
				Te.Errorf("Conformer %d torsion %d is %.2f, expected %.2f", i, j, v[j], want[j])
			}
		}
	}
	name := filepath.Join(Te.TempDir(), "map.png")
	if err := TorsionMap(data, []int{0, 4}, "Pentane", name); err != nil {
		Te.Fatal(err)
	}
	exists(Te, name)
	if _, err := TorsionPairs(top, nil, torsions[0], torsions[1]); !errors.Is(err, ErrNoData) {
		Te.Errorf("Expected ErrNoData, got %v", err)
	}
}
