package consts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaturationPressureIncreasesWithTemperature(t *testing.T) {
	low := SaturationPressure(270.0 / Temp0)
	high := SaturationPressure(290.0 / Temp0)
	require.Greater(t, high, low, "saturation pressure must rise with temperature")
}

func TestSupersaturationRatioUnitAtSaturation(t *testing.T) {
	psat := SaturationPressure(280.0 / Temp0)
	qvap := MrRatio * psat / (1.0 - psat)
	s := SupersaturationRatio(1.0, qvap, psat)
	assert.InDelta(t, 1.0, s, 1e-9, "S should be 1 when qvap exactly matches saturation")
}

func TestMoistSpecificHeatReducesToDryWithNoVapourOrCondensate(t *testing.T) {
	assert.Equal(t, CpDry, MoistSpecificHeat(0, 0))
}

func TestVapourPressureToMassMixRatioIsPositive(t *testing.T) {
	qv := VapourPressureToMassMixRatio(0.01, 1.0)
	assert.Greater(t, qv, 0.0)
}

func TestDiffusionFactorsArePositive(t *testing.T) {
	psat := SaturationPressure(280.0 / Temp0)
	fk, fd := DiffusionFactors(1.0, 280.0/Temp0, psat)
	assert.Positive(t, fk)
	assert.Positive(t, fd)
}
