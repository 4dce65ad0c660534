// Package units attaches physical units to grid fields.
//
// A unit is written the way the slice tool accepts it on the command line,
// e.g. "code_mass/code_length**3" or "km/s". Code units are resolved against
// a [System] built from the Unit_L, Unit_M and Unit_T scale factors stored
// next to the data.
package units

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	ErrUnknownSymbol = errors.New("units: unknown symbol")
	ErrSyntax        = errors.New("units: malformed expression")
)

// Physical constants in cgs.
const (
	Centimeter = 1.0
	Meter      = 1e2
	Kilometer  = 1e5
	Parsec     = 3.0856775814913673e18
	Kiloparsec = 1e3 * Parsec
	Megaparsec = 1e6 * Parsec
	Gram       = 1.0
	Kilogram   = 1e3
	SolarMass  = 1.98847e33
	Second     = 1.0
	Year       = 3.15576e7
	Megayear   = 1e6 * Year
	Gigayear   = 1e9 * Year

	// GravitationalConstant is Newton's G in cm^3 g^-1 s^-2.
	GravitationalConstant = 6.6743e-8
)

// System holds the code-unit scale factors: Length in cm, Mass in g and Time
// in s. A zero factor is treated as 1.
type System struct {
	Length float64 `yaml:"length" json:"length"`
	Mass   float64 `yaml:"mass" json:"mass"`
	Time   float64 `yaml:"time" json:"time"`
}

func (s System) length() float64 { return orOne(s.Length) }
func (s System) mass() float64   { return orOne(s.Mass) }
func (s System) time() float64   { return orOne(s.Time) }

func orOne(v float64) float64 {
	if v == 0 {
		return 1
	}
	return v
}

// NewtonG returns the gravitational constant expressed in the code units of s.
func NewtonG(s System) float64 {
	l := s.length()
	return GravitationalConstant * s.mass() * s.time() * s.time() / (l * l * l)
}

// symbol describes one unit token: a fixed cgs factor and its exponents of
// length, mass and time. code marks exponents that scale with the System.
type symbol struct {
	factor float64
	dims   [3]float64
	code   bool
}

var symbols = map[string]symbol{
	"dimensionless": {factor: 1},
	"1":             {factor: 1},
	"code_length":   {factor: 1, dims: [3]float64{1, 0, 0}, code: true},
	"code_mass":     {factor: 1, dims: [3]float64{0, 1, 0}, code: true},
	"code_time":     {factor: 1, dims: [3]float64{0, 0, 1}, code: true},
	"code_velocity": {factor: 1, dims: [3]float64{1, 0, -1}, code: true},
	"code_density":  {factor: 1, dims: [3]float64{-3, 1, 0}, code: true},
	"cm":            {factor: Centimeter, dims: [3]float64{1, 0, 0}},
	"m":             {factor: Meter, dims: [3]float64{1, 0, 0}},
	"km":            {factor: Kilometer, dims: [3]float64{1, 0, 0}},
	"pc":            {factor: Parsec, dims: [3]float64{1, 0, 0}},
	"kpc":           {factor: Kiloparsec, dims: [3]float64{1, 0, 0}},
	"Mpc":           {factor: Megaparsec, dims: [3]float64{1, 0, 0}},
	"g":             {factor: Gram, dims: [3]float64{0, 1, 0}},
	"kg":            {factor: Kilogram, dims: [3]float64{0, 1, 0}},
	"Msun":          {factor: SolarMass, dims: [3]float64{0, 1, 0}},
	"s":             {factor: Second, dims: [3]float64{0, 0, 1}},
	"yr":            {factor: Year, dims: [3]float64{0, 0, 1}},
	"Myr":           {factor: Megayear, dims: [3]float64{0, 0, 1}},
	"Gyr":           {factor: Gigayear, dims: [3]float64{0, 0, 1}},
}

// Unit is a parsed unit expression.
type Unit struct {
	expr   string
	factor float64
	dims   [3]float64
	// code exponents of (length, mass, time) resolved against a System.
	code [3]float64
}

// Parse reads expressions of the form sym[**p] ((*|/) sym[**p])*.
func Parse(expr string) (Unit, error) {
	s := strings.ReplaceAll(strings.TrimSpace(expr), " ", "")
	if s == "" {
		return Unit{}, fmt.Errorf("%w: empty unit", ErrSyntax)
	}

	u := Unit{expr: strings.TrimSpace(expr), factor: 1}
	sign := 1.0
	for len(s) > 0 {
		end := strings.IndexAny(s, "*/")
		for end >= 0 && strings.HasPrefix(s[end:], "**") {
			next := strings.IndexAny(s[end+2:], "*/")
			if next < 0 {
				end = -1
				break
			}
			end += 2 + next
		}
		term := s
		if end >= 0 {
			term = s[:end]
		}
		if term == "" {
			return Unit{}, fmt.Errorf("%w: %q", ErrSyntax, expr)
		}

		name, power := term, 1.0
		if i := strings.Index(term, "**"); i >= 0 {
			p, err := strconv.ParseFloat(term[i+2:], 64)
			if err != nil {
				return Unit{}, fmt.Errorf("%w: bad exponent in %q", ErrSyntax, expr)
			}
			name, power = term[:i], p
		}
		sym, ok := symbols[name]
		if !ok {
			return Unit{}, fmt.Errorf("%w: %q", ErrUnknownSymbol, name)
		}

		p := sign * power
		u.factor *= math.Pow(sym.factor, p)
		for d := 0; d < 3; d++ {
			u.dims[d] += sym.dims[d] * p
			if sym.code {
				u.code[d] += sym.dims[d] * p
			}
		}

		if end < 0 {
			break
		}
		switch s[end] {
		case '*':
			sign = 1
		case '/':
			sign = -1
		}
		s = s[end+1:]
		if s == "" {
			return Unit{}, fmt.Errorf("%w: trailing operator in %q", ErrSyntax, expr)
		}
	}
	return u, nil
}

// MustParse is Parse for expressions known at compile time.
func MustParse(expr string) Unit {
	u, err := Parse(expr)
	if err != nil {
		panic(err)
	}
	return u
}

func (u Unit) String() string {
	if u.expr == "" {
		return "dimensionless"
	}
	return u.expr
}

// Dimensions returns the exponents of length, mass and time.
func (u Unit) Dimensions() [3]float64 { return u.dims }

// CGS returns the factor converting a value in u to cgs.
func (u Unit) CGS(sys System) float64 {
	return u.factor *
		math.Pow(sys.length(), u.code[0]) *
		math.Pow(sys.mass(), u.code[1]) *
		math.Pow(sys.time(), u.code[2])
}
