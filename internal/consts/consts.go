// Package consts defines the dimensionless unit system shared by every
// microphysics kernel: characteristic scales, the derived dimensionless
// physical constants, and the saturation-pressure / mixing-ratio
// conversions built on top of them. Every other package imports this one
// rather than hard-coding a physical constant, mirroring how the corpus's
// dynamo package centralises its own shared vector/scalar vocabulary.
package consts

import "math"

// Characteristic scales used to non-dimensionalise the engine's state.
const (
	W0     = 1.0       // characteristic velocity [m/s]
	Time0  = 1000.0    // characteristic timescale [s]
	Coord0 = Time0 * W0 // characteristic coordinate scale [m]
	R0     = 1e-6       // droplet radius lengthscale [m]
	P0     = 100000.0   // characteristic pressure [Pa]
	Temp0  = 273.15     // characteristic temperature [K]
)

// Dimensioned physical constants, SI units.
const (
	gravity    = 9.80665
	rgasUniv   = 8.314462618
	mrWater    = 0.01801528
	mrDry      = 0.028966216
	rgasDry    = rgasUniv / mrDry
	rgasV      = rgasUniv / mrWater
	latentV    = 2500930.0
	cpDry      = 1004.64
	cpV        = 1865.01
	cLiquid    = 4192.664
	rhoDryDim  = 1.177
	rhoLDim    = 1000.0
	dynViscDim = 18.45e-6
)

// Derived dimensionless constants used throughout condensation and
// collisions. Values follow the same non-dimensionalisation scheme as
// CP0 = cpDry, MR0 = mrDry, RHO0 = P0/(CP0*TEMP0), F0 = TIME0/(RHO0*R0^2).
var (
	cp0 = cpDry
	// Rho0 and Mr0 are the characteristic density and mass-mixing-ratio
	// scales other packages (solute, superdrop) non-dimensionalise
	// against.
	Rho0 = P0 / (cp0 * Temp0)
	Mr0  = mrDry
	rho0 = Rho0
	f0   = Time0 / (rho0 * R0 * R0)

	// MrRatio is the molar-mass ratio of water to dry air, used in the
	// mixing-ratio and supersaturation-ratio conversions.
	MrRatio = mrWater / mrDry
	CpDry   = cpDry / cp0
	CpV     = cpV / cp0
	CLiquid = cLiquid / cp0
	LatentV = latentV / (Temp0 * cp0)
	RgasDry = rgasDry / cp0
	RgasV   = rgasV / cp0
	RhoDry  = rhoDryDim / rho0

	// RhoL is the dimensionless liquid-water density used to convert
	// droplet volume to mass in condensation and collisions.
	RhoL = rhoLDim / rho0
)

// VapourPressureToMassMixRatio converts a (dimensionless) vapour partial
// pressure into the mass mixing ratio qv = rho_v/rho_dry.
func VapourPressureToMassMixRatio(pressVapour, press float64) float64 {
	return MrRatio * pressVapour / (press - pressVapour)
}

// MoistSpecificHeat returns the dimensionless specific heat capacity of
// moist air carrying vapour mixing ratio qvap and condensate mixing ratio
// qcond.
func MoistSpecificHeat(qvap, qcond float64) float64 {
	return CpDry + CpV*qvap + CLiquid*qcond
}

// SupersaturationRatio returns the saturation ratio S = pv/psat given the
// ambient pressure, vapour mixing ratio, and saturation pressure (all
// dimensionless).
func SupersaturationRatio(press, qvap, psat float64) float64 {
	return (press * qvap) / ((MrRatio + qvap) * psat)
}

// SaturationPressure returns the dimensionless equilibrium vapour pressure
// of water over liquid water at dimensionless temperature temp, using the
// Murray (1967) "tetens" form. temp must be > 0.
func SaturationPressure(temp float64) float64 {
	const (
		a    = 17.4146
		b    = 33.639
		tref = 273.16  // triple point temperature [K]
		pref = 611.655 // triple point pressure [Pa]
	)
	t := temp * Temp0
	return (pref * math.Exp(a*(t-tref)/(t-b))) / P0
}

// DiffusionFactors returns the dimensionless heat (Fk) and vapour (Fd)
// diffusion factors appearing in the Köhler growth equation's denominator,
// given the ambient press/temp/psat (all dimensionless).
func DiffusionFactors(press, temp, psat float64) (fk, fd float64) {
	const (
		a = 7.11756e-5
		b = 4.38127686e-3
		d = 4.012182971e-5
	)
	latentRgasV := latentV / rgasV

	t := temp * Temp0
	p := press * P0
	ps := psat * P0

	thermK := a*t*t + t*b
	diffuseV := (d / p * math.Pow(t, 1.94)) / rgasV

	fk = (latentRgasV/t - 1.0) * latentV / (thermK * f0)
	fd = t / (diffuseV * ps) / f0
	return fk, fd
}
