// Package solute describes the dry aerosol core of a super-droplet: its
// density, molar mass, and van't Hoff ionic factor, the three quantities
// the Köhler equation needs beyond the droplet's own state.
package solute

import "github.com/cloudmicro/sdm/internal/consts"

// Properties describes a dry aerosol solute species. Rho is
// non-dimensionalised against consts.Rho0; MolarMass is the bare SI molar
// mass (kg/mol), matching how CLEO keeps mr_sol dimensioned and only
// non-dimensionalises the Köhler B-factor that consumes it.
type Properties struct {
	Rho       float64 // solute density, dimensionless
	MolarMass float64 // solute molar mass [kg/mol]
	Ionic     float64 // van't Hoff ionic dissociation factor
}

// AmmoniumSulfate returns the solute properties CLEO's example scenarios
// use by default.
func AmmoniumSulfate() Properties {
	return Properties{
		Rho:       2077.0 / consts.Rho0,
		MolarMass: 0.058443,
		Ionic:     2.0,
	}
}

// NaCl returns sodium chloride's solute properties.
func NaCl() Properties {
	return Properties{
		Rho:       2160.0 / consts.Rho0,
		MolarMass: 0.05844,
		Ionic:     2.0,
	}
}
