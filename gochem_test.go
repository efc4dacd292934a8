package chem

import (
	"math"
	"math/rand"
	"testing"
	"time"

	v3 "github.com/rmera/goconf/v3"
)

type tatom struct {
	sym string
	h   int
	chg int
}

type tbond struct {
	i, j  int
	order float64
}

//buildTopology builds a topology where the atom i of atoms gets the index perm[i].
//If perm is nil, the identity is used.
func buildTopology(Te *testing.T, atoms []tatom, bonds []tbond, perm []int) *Topology {
	Te.Helper()
	if perm == nil {
		perm = make([]int, len(atoms))
		for i := range perm {
			perm[i] = i
		}
	}
	ordered := make([]tatom, len(atoms))
	for i, v := range atoms {
		ordered[perm[i]] = v
	}
	T := NewTopology()
	for _, v := range ordered {
		T.AddAtom(&Atom{Symbol: v.sym, ImplicitH: v.h, Charge: v.chg})
	}
	for _, b := range bonds {
		if _, err := T.AddBond(perm[b.i], perm[b.j], b.order); err != nil {
			Te.Fatal(err)
		}
	}
	return T
}

//Isobutanol-like test graph with a double bond and a charge, to break symmetry in
//some places and keep it in others.
var testAtoms = []tatom{{"C", 3, 0}, {"C", 1, 0}, {"C", 3, 0}, {"C", 2, 0}, {"O", 1, 0}, {"C", 0, 0}, {"O", 0, 0}, {"N", 3, 1}}
var testBonds = []tbond{{0, 1, 1}, {1, 2, 1}, {1, 3, 1}, {3, 4, 1}, {1, 5, 1}, {5, 6, 2}, {5, 7, 1}}

func butane(Te *testing.T) *Molecule {
	Te.Helper()
	T := buildTopology(Te, []tatom{{"C", 3, 0}, {"C", 2, 0}, {"C", 2, 0}, {"C", 3, 0}}, []tbond{{0, 1, 1}, {1, 2, 1}, {2, 3, 1}}, nil)
	c, err := v3.NewMatrix([]float64{0, 0, 0, 1.54, 0, 0, 2.05, 1.45, 0, 3.59, 1.45, 0.3})
	if err != nil {
		Te.Fatal(err)
	}
	M, err := NewMolecule(T, c)
	if err != nil {
		Te.Fatal(err)
	}
	return M
}

func TestIDCodePermutations(Te *testing.T) {
	ref := buildTopology(Te, testAtoms, testBonds, nil)
	code := ref.IDCode()
	if code == "" {
		Te.Fatal("Empty code for a non-empty topology")
	}
	if code != ref.IDCode() {
		Te.Errorf("IDCode is not stable: %s vs %s", code, ref.IDCode())
	}
	rng := rand.New(rand.NewSource(5))
	for k := 0; k < 50; k++ {
		perm := rng.Perm(len(testAtoms))
		bonds := make([]tbond, len(testBonds))
		for i, j := range rng.Perm(len(testBonds)) {
			bonds[i] = testBonds[j]
			if k%2 == 0 {
				bonds[i].i, bonds[i].j = bonds[i].j, bonds[i].i
			}
		}
		T := buildTopology(Te, testAtoms, bonds, perm)
		if c := T.IDCode(); c != code {
			Te.Errorf("Permutation %v gave code %s, expected %s", perm, c, code)
		}
	}
	different := buildTopology(Te, testAtoms, []tbond{{0, 1, 1}, {1, 2, 1}, {1, 3, 1}, {3, 4, 1}, {1, 5, 1}, {5, 6, 1}, {5, 7, 1}}, nil)
	if different.IDCode() == code {
		Te.Errorf("Different graphs gave the same code %s", code)
	}
}

func TestIDCodeSymmetric(Te *testing.T) {
	//benzene as a Kekule structure, every atom is equivalent
	atoms := []tatom{{"C", 1, 0}, {"C", 1, 0}, {"C", 1, 0}, {"C", 1, 0}, {"C", 1, 0}, {"C", 1, 0}}
	bonds := []tbond{{0, 1, 2}, {1, 2, 1}, {2, 3, 2}, {3, 4, 1}, {4, 5, 2}, {5, 0, 1}}
	code := buildTopology(Te, atoms, bonds, nil).IDCode()
	shifted := []tbond{{0, 1, 1}, {1, 2, 2}, {2, 3, 1}, {3, 4, 2}, {4, 5, 1}, {5, 0, 2}}
	if c := buildTopology(Te, atoms, shifted, nil).IDCode(); c != code {
		Te.Errorf("Equivalent Kekule structures gave different codes: %s %s", c, code)
	}
}

//tetraTertButylMethane returns C(C(CH3)3)4 with explicit hydrogens.
func tetraTertButylMethane() ([]tatom, []tbond) {
	atoms := []tatom{{"C", 0, 0}}
	var bonds []tbond
	add := func(sym string, parent int) int {
		atoms = append(atoms, tatom{sym, 0, 0})
		i := len(atoms) - 1
		if parent >= 0 {
			bonds = append(bonds, tbond{parent, i, 1})
		}
		return i
	}
	for q := 0; q < 4; q++ {
		quat := add("C", 0)
		for m := 0; m < 3; m++ {
			methyl := add("C", quat)
			for h := 0; h < 3; h++ {
				add("H", methyl)
			}
		}
	}
	return atoms, bonds
}

func TestIDCodeHighSymmetry(Te *testing.T) {
	atoms, bonds := tetraTertButylMethane()
	if len(atoms) != 53 {
		Te.Fatalf("Expected 53 atoms, got %d", len(atoms))
	}
	start := time.Now()
	code := buildTopology(Te, atoms, bonds, nil).IDCode()
	rng := rand.New(rand.NewSource(9))
	for k := 0; k < 3; k++ {
		T := buildTopology(Te, atoms, bonds, rng.Perm(len(atoms)))
		if c := T.IDCode(); c != code {
			Te.Errorf("Permuted molecule gave code %s, expected %s", c, code)
		}
	}
	if el := time.Since(start); el > 5*time.Second {
		Te.Errorf("Canonicalization of a symmetric molecule took %v", el)
	}
}

func TestParseIDCode(Te *testing.T) {
	ref := buildTopology(Te, testAtoms, testBonds, nil)
	code := ref.IDCode()
	T, err := ParseIDCode(code)
	if err != nil {
		Te.Fatal(err)
	}
	if T.Len() != ref.Len() || len(T.Bonds) != len(ref.Bonds) {
		Te.Errorf("Parsed topology has %d atoms and %d bonds", T.Len(), len(T.Bonds))
	}
	if c := T.IDCode(); c != code {
		Te.Errorf("Round trip changed the code: %s -> %s", code, c)
	}
	for _, bad := range []string{"", "C.C", "C.c|0-1", "C.C|0-5", "C.C|0~1", "C.C|0-0"} {
		if _, err := ParseIDCode(bad); err == nil {
			Te.Errorf("Malformed code %q accepted", bad)
		}
	}
}

func TestRotatableBonds(Te *testing.T) {
	M := butane(Te)
	if r := M.RotatableBonds(); len(r) != 1 || r[0].At1.Index != 1 || r[0].At2.Index != 2 {
		Te.Errorf("Butane should have only the central bond rotatable, got %v", r)
	}
	ring := make([]tbond, 6)
	for i := range ring {
		ring[i] = tbond{i, (i + 1) % 6, 1}
	}
	hexane := buildTopology(Te, []tatom{{"C", 2, 0}, {"C", 2, 0}, {"C", 2, 0}, {"C", 2, 0}, {"C", 2, 0}, {"C", 2, 0}}, ring, nil)
	if r := hexane.RotatableBonds(); len(r) != 0 {
		Te.Errorf("Cyclohexane has no rotatable bonds, got %d", len(r))
	}
	for _, b := range hexane.Bonds {
		if !hexane.InRing(b) {
			Te.Errorf("Bond %d of cyclohexane not detected as ring bond", b.Index)
		}
	}
	butene := buildTopology(Te, []tatom{{"C", 3, 0}, {"C", 1, 0}, {"C", 1, 0}, {"C", 3, 0}}, []tbond{{0, 1, 1}, {1, 2, 2}, {2, 3, 1}}, nil)
	if r := butene.RotatableBonds(); len(r) != 0 {
		Te.Errorf("2-butene has no rotatable bonds, got %d", len(r))
	}
}

func TestFragments(Te *testing.T) {
	T := buildTopology(Te, []tatom{{"O", 2, 0}, {"C", 3, 0}, {"C", 2, 0}, {"O", 1, 0}, {"Na", 0, 1}}, []tbond{{1, 2, 1}, {2, 3, 1}}, nil)
	frags := T.Fragments()
	if len(frags) != 3 {
		Te.Fatalf("Expected 3 fragments, got %v", frags)
	}
	if l := T.LargestFragment(); len(frags[l]) != 3 || frags[l][0] != 1 {
		Te.Errorf("Wrong largest fragment %v", frags[l])
	}
	M, err := NewMolecule(T, nil)
	if err != nil {
		Te.Fatal(err)
	}
	S := StripSmallFragments(M)
	if S.Len() != 3 || S.Coords.NVecs() != 3 || len(S.Fragments()) != 1 {
		Te.Errorf("StripSmallFragments left %d atoms", S.Len())
	}
	d := T.Distances()
	if d[1][3] != 2 || d[0][1] != -1 {
		Te.Errorf("Wrong topological distances %v", d)
	}
}

func TestAddHydrogens(Te *testing.T) {
	M := butane(Te)
	n := AddHydrogens(M)
	if n != 10 || M.Len() != 14 || M.HasImplicitHydrogens() {
		Te.Fatalf("Expected 10 hydrogens added, got %d (%d atoms)", n, M.Len())
	}
	for i := 4; i < M.Len(); i++ {
		nb := M.Neighbors(i)
		if len(nb) != 1 {
			Te.Fatalf("Hydrogen %d has %d neighbors", i, len(nb))
		}
		if d := M.Coords.Distance(i, nb[0]); math.Abs(d-hbondLength) > 1e-6 {
			Te.Errorf("Hydrogen %d at %5.3f A from its parent", i, d)
		}
		for j := 0; j < i; j++ {
			if M.Coords.Distance(i, j) < 0.9 {
				Te.Errorf("Atoms %d and %d overlap", i, j)
			}
		}
	}
	if r := RemoveHydrogens(M); r != 10 || M.Len() != 4 || M.Atom(0).ImplicitH != 3 {
		Te.Errorf("RemoveHydrogens removed %d atoms", r)
	}
}

func TestCodec(Te *testing.T) {
	rng := rand.New(rand.NewSource(3))
	perm := rng.Perm(len(testAtoms))
	T := buildTopology(Te, testAtoms, testBonds, perm)
	c := v3.Zeros(T.Len())
	for i := 0; i < T.Len(); i++ {
		c.Set(i, 0, rng.Float64()*20-10)
		c.Set(i, 1, rng.Float64()*20-10)
		c.Set(i, 2, rng.Float64()*20-10)
	}
	M, err := NewMolecule(T, c)
	if err != nil {
		Te.Fatal(err)
	}
	structure, coords, err := EncodeMolecule(M)
	if err != nil {
		Te.Fatal(err)
	}
	if structure != buildTopology(Te, testAtoms, testBonds, nil).IDCode() {
		Te.Errorf("Structure code depends on the atom order")
	}
	D, err := DecodeMolecule(structure, coords)
	if err != nil {
		Te.Fatal(err)
	}
	ranks := T.CanonicalRanks()
	for i := 0; i < M.Len(); i++ {
		for j := 0; j < 3; j++ {
			if d := math.Abs(M.Coords.At(i, j) - D.Coords.At(ranks[i], j)); d > coordPrecision {
				Te.Errorf("Atom %d coordinate %d off by %g", i, j, d)
			}
		}
	}
	codec, err := NewCodec(T)
	if err != nil {
		Te.Fatal(err)
	}
	back, err := codec.DecodeCoords(coords)
	if err != nil {
		Te.Fatal(err)
	}
	if rmsd, _ := RMSD(back, M.Coords); rmsd > coordPrecision {
		Te.Errorf("Codec round trip RMSD %g", rmsd)
	}
	if _, err := codec.DecodeCoords(coords[:len(coords)-4]); err == nil {
		Te.Error("Truncated coordinate code accepted")
	}
	c.Set(0, 0, math.NaN())
	if _, err := codec.EncodeCoords(c); err == nil {
		Te.Error("NaN coordinates encoded")
	}
}

func TestSetDihedral(Te *testing.T) {
	M := butane(Te)
	moving := M.Side(1, 2)
	before := [3]float64{M.Coords.Distance(0, 1), M.Coords.Distance(1, 2), M.Coords.Distance(2, 3)}
	for _, target := range []float64{60, -60, 180, 0, 120} {
		if err := SetDihedral(M, 0, 1, 2, 3, target*Deg2Rad, moving); err != nil {
			Te.Fatal(err)
		}
		got := MolDihedral(M, 0, 1, 2, 3) * Rad2Deg
		if math.Abs(WrapAngle((got-target)*Deg2Rad)) > 1e-6 {
			Te.Errorf("Dihedral set to %5.1f, got %5.1f", target, got)
		}
		after := [3]float64{M.Coords.Distance(0, 1), M.Coords.Distance(1, 2), M.Coords.Distance(2, 3)}
		for i := range before {
			if math.Abs(before[i]-after[i]) > 1e-9 {
				Te.Errorf("Bond %d length changed from %5.3f to %5.3f", i, before[i], after[i])
			}
		}
	}
}

func TestWrapAngle(Te *testing.T) {
	for _, v := range [][2]float64{{3 * math.Pi / 2, -math.Pi / 2}, {-3 * math.Pi / 2, math.Pi / 2}, {math.Pi, -math.Pi}, {0.5, 0.5}} {
		if w := WrapAngle(v[0]); math.Abs(w-v[1]) > 1e-12 {
			Te.Errorf("WrapAngle(%5.3f)=%5.3f, expected %5.3f", v[0], w, v[1])
		}
	}
}
