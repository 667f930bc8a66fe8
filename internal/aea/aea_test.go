package aea

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExposureParams(t *testing.T) {
	p, err := ExposureC.Params()
	require.NoError(t, err)
	assert.Equal(t, ExposureParams{Alpha: 7.5, K: 0.005, Ls: 67, Zs: 274}, p)

	_, err = Exposure("X").Params()
	assert.Error(t, err)
}

func TestLoadFactor(t *testing.T) {
	for class, want := range map[LineClass]float64{
		ClassB: 0.93, ClassBB: 1.00, ClassC: 1.15, ClassD: 1.30, ClassE: 1.40,
	} {
		fc, err := class.LoadFactor()
		require.NoError(t, err)
		assert.Equal(t, want, fc, string(class))
	}
}

func TestTerrainMinimum(t *testing.T) {
	a, err := TerrainRural.MinimumClearance()
	require.NoError(t, err)
	assert.Equal(t, 5.90, a)

	_, err = Terrain("Lunar").MinimumClearance()
	assert.Error(t, err)
}

func TestKCoefficientBands(t *testing.T) {
	cases := []struct {
		disp  Disposition
		theta float64
		want  float64
	}{
		{DispositionTriangular, 10, 0.60},
		{DispositionTriangular, 45, 0.65},
		{DispositionTriangular, 60, 0.70},
		{DispositionTriangular, 70, 0.75},
		{DispositionHorizontal, 0, 0.70},
		{DispositionVertical, 66, 0.70},
	}
	for _, c := range cases {
		k, err := KCoefficient(c.disp, c.theta)
		require.NoError(t, err)
		assert.Equal(t, c.want, k, "%s θ=%.0f", c.disp, c.theta)
	}
}

func TestAltitudeFactor(t *testing.T) {
	assert.Equal(t, 1.0, AltitudeFactor(AltitudeMethodAEA, 800))
	assert.InDelta(t, 1.03, AltitudeFactor(AltitudeMethodAEA, 1300), 1e-12)
	assert.Equal(t, 1.0, AltitudeFactor(AltitudeMethodNone, 3000))
}

func TestClearanceFormulas(t *testing.T) {
	t.Run("phase spacing 132 kV", func(t *testing.T) {
		d := PhaseSpacing(0.65, 6, 2.5, 1, 132)
		assert.InDelta(t, 0.65*math.Sqrt(8.5)+132.0/150, d, 1e-12)
	})
	t.Run("structure clearance uses highest voltage", func(t *testing.T) {
		s := StructureClearance(132, 1)
		assert.InDelta(t, math.Max(0.280+0.005*(145-50), 132.0/150), s, 1e-12)
	})
	t.Run("voltage allowance below 33 kV", func(t *testing.T) {
		assert.Zero(t, VoltageAllowance(33, 1))
		assert.InDelta(t, 0.01*(132/math.Sqrt(3)-22), VoltageAllowance(132, 1), 1e-12)
	})
}

func TestWindForce(t *testing.T) {
	exp, _ := ExposureC.Params()

	t.Run("zero velocity", func(t *testing.T) {
		assert.Zero(t, WindForce(WindInput{Exposure: exp, Fc: 1, Height: 10, Cf: 1, Diameter: 0.02}))
	})

	t.Run("cable follows sine law", func(t *testing.T) {
		base := WindInput{Exposure: exp, Fc: 1, Height: 10, Velocity: 30, Cf: 1, Diameter: 0.02, Span: 150, AngleDeg: 90}
		full := WindForce(base)
		base.AngleDeg = 30
		assert.InDelta(t, full*0.5, WindForce(base), 1e-9)
		base.AngleDeg = 0
		assert.InDelta(t, 0, WindForce(base), 1e-9)
	})

	t.Run("rigid follows cosine law", func(t *testing.T) {
		in := WindInput{Exposure: exp, Fc: 1, Height: 10, Velocity: 30, Cf: 1, Diameter: 0.3, Rigid: true}
		full := WindForce(in)
		in.AngleDeg = 60
		assert.InDelta(t, full*0.5, WindForce(in), 1e-9)
	})

	t.Run("manual evaluation", func(t *testing.T) {
		in := WindInput{Exposure: exp, Fc: 1.15, Height: 12, Velocity: 35, Cf: 1, Diameter: 0.015, Span: 150, AngleDeg: 90}
		zp := 1.61 * math.Pow(12/exp.Zs, 1/exp.Alpha)
		e := 4.9 * math.Sqrt(exp.K) * math.Pow(10.0/12, 1/exp.Alpha)
		bw := 1 / (1 + 0.8*150/exp.Ls)
		g := (1 + 2.7*e*math.Sqrt(bw)) / (GustKv * GustKv)
		want := 0.613 * math.Pow(zp*35, 2) * 1.15 * g * 0.015
		assert.InEpsilon(t, want, WindForce(in), 1e-12)
	})
}

func TestIRAMTables(t *testing.T) {
	assert.Equal(t, 1050.0, TransportMinimum(18))
	assert.Equal(t, 1050.0, TransportMinimum(17.5))
	assert.Equal(t, 300.0, TransportMinimum(6))
	assert.Equal(t, 150.0, TorsionMinimum(500))
	assert.Equal(t, 1400.0, RoundUpHundred(1346.25))
	assert.Equal(t, 1400.0, RoundUpHundred(1400))
}

func TestDefaultCatalogue(t *testing.T) {
	cat := DefaultCatalogue()
	require.NoError(t, cat.Validate([]string{"I", "II", "III", "IV", "V"}))
	assert.Equal(t, []string{"A0", "A1", "A2", "A3", "A4", "A5", "A6", "A7", "B1", "B2", "C1", "C2"}, cat.Codes())

	a5, ok := cat.Get("A5")
	require.True(t, ok)
	assert.True(t, a5.IsBreakFamily())
	assert.Equal(t, 1.0, a5.Factor(MagBrokenConductor))
	assert.Zero(t, a5.Factor(MagIce))

	assert.Error(t, cat.Validate([]string{"I"}))
}

func TestLoadCatalogue(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hipotesis.json")
	body := `{
  "B1": {"estado": "IV", "magnitudes": {"peso": 1, "hielo": 1}},
  "A0": {"estado": "V", "descripcion": "permanentes", "magnitudes": {"peso": 1}, "azimut_viento": 45}
}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cat, err := LoadCatalogue(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"A0", "B1"}, cat.Codes())
	assert.Equal(t, 45.0, cat[0].WindAzimuth)
	assert.Equal(t, 90.0, cat[1].WindAzimuth)
	assert.Equal(t, 1.0, cat[1].Factor(MagIce))
}
