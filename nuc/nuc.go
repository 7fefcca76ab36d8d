// Package nuc provides nuclide identities in the canonical ZZZAAAMMMM
// integer form used by fuel-cycle tools (U-235 = 922350000).
package nuc

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Nuc describes a nuclide in ZZZAAAMMMM format: atomic number, mass
// number, and a four-digit metastable state suffix.
type Nuc int

// Nuclides the enrichment chain cares about.
const (
	H1   Nuc = 10010000
	O16  Nuc = 80160000
	U234 Nuc = 922340000
	U235 Nuc = 922350000
	U236 Nuc = 922360000
	U238 Nuc = 922380000
)

// Z returns the atomic number of a nuclide.
func (n Nuc) Z() int {
	return int(n) / 10000000
}

// A returns the mass number of a nuclide.
func (n Nuc) A() int {
	return (int(n) / 10000) % 1000
}

// M returns the metastable state of a nuclide (0 for ground state).
func (n Nuc) M() int {
	return int(n) % 10000
}

// FromZA builds a ground-state nuclide id from atomic and mass numbers.
func FromZA(z, a int) Nuc {
	return Nuc(z*10000000 + a*10000)
}

// symbols covers the elements that appear in enrichment feed, product,
// and common diluents. Anything else renders numerically.
var symbols = map[int]string{
	1:  "H",
	6:  "C",
	8:  "O",
	9:  "F",
	92: "U",
	94: "Pu",
}

func (n Nuc) String() string {
	if sym, ok := symbols[n.Z()]; ok {
		return sym + strconv.Itoa(n.A())
	}
	return strconv.Itoa(int(n))
}

// Parse reads a ground-state nuclide from its symbol form ("U235",
// "u-235") or its numeric ZZZAAAMMMM id ("922350000"). Recipe files use
// either form.
func Parse(s string) (Nuc, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), "-", "")
	if s == "" {
		return 0, fmt.Errorf("empty nuclide name")
	}

	if id, err := strconv.Atoi(s); err == nil {
		n := Nuc(id)
		if n.Z() < 1 || n.Z() > 118 || n.A() < n.Z() {
			return 0, fmt.Errorf("nuclide id %d out of range", id)
		}
		return n, nil
	}

	i := strings.IndexFunc(s, unicode.IsDigit)
	if i <= 0 {
		return 0, fmt.Errorf("malformed nuclide %q", s)
	}
	a, err := strconv.Atoi(s[i:])
	if err != nil {
		return 0, fmt.Errorf("malformed nuclide %q", s)
	}
	for z, sym := range symbols {
		if strings.EqualFold(sym, s[:i]) {
			return FromZA(z, a), nil
		}
	}
	return 0, fmt.Errorf("unknown element %q in nuclide %q", s[:i], s)
}
