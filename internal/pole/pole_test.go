package pole

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agerpk/estructural/internal/aea"
	"github.com/agerpk/estructural/internal/loads"
)

func scenarioRequest() Request {
	return Request{
		Forces: []TopForce{
			{Code: "A0", Fx: 300},
			{Code: "A2", Fx: 1000, Fy: 400, Mz: 500},
			{Code: "A3", Fx: 600, Fy: 100, Mz: -200},
		},
		TopHeight: 15,
		Extension: 1,
		Type:      aea.StructureSuspension,
		Tested:    true,
		Strategy:  PriorityClearance,
	}
}

func TestMonopoleScenario(t *testing.T) {
	r, err := Select(scenarioRequest(), nil)
	require.NoError(t, err)

	assert.Equal(t, Monopole, r.Adopted.Configuration)
	assert.Equal(t, 18.0, r.Heights.Commercial)
	assert.GreaterOrEqual(t, r.Heights.Embedment, 1.8)
	assert.InDelta(t, 16.0, r.Heights.Free, 1e-9)
	assert.Equal(t, "A2", r.Adopted.Governing)
	assert.InDelta(t, math.Hypot(1000, 400), r.Adopted.FELU, 1e-9)
	assert.Equal(t, 1400.0, r.Adopted.RcAdopted)
	assert.Equal(t, 1050.0, r.Adopted.RcTransport)
	assert.InDelta(t, 750.0, r.Adopted.RcService, 1e-9)

	require.Len(t, r.Candidates, 4)
	assert.Equal(t, 2200.0, r.Candidates[1].Installed)
	assert.Equal(t, 3300.0, r.Candidates[3].Installed)

	assert.Equal(t, 18.0, r.Pole.Length)
	assert.Equal(t, 1400.0, r.Pole.Strength)
	assert.Greater(t, r.Pole.BaseDiameter, r.Pole.TopDiameter)

	assert.InDelta(t, 500/0.85, r.RtRequired, 1e-9)
	assert.Equal(t, 400.0, r.RtIRAM)
	assert.InDelta(t, r.RtRequired, r.Rt, 1e-9)
	assert.Empty(t, r.Warnings)
}

func TestSelectionMinimisesInstalledStrength(t *testing.T) {
	// a transverse-dominant load: the tripole needs the weakest pole but the
	// transverse bipole installs less strength in total
	req := scenarioRequest()
	req.Forces = []TopForce{{Code: "A2", Fx: 8000}}
	r, err := Select(req, nil)
	require.NoError(t, err)

	require.Len(t, r.Candidates, 4)
	bt, tri := r.Candidates[1], r.Candidates[3]
	assert.Equal(t, 1300.0, bt.RcAdopted)
	assert.Equal(t, 2600.0, bt.Installed)
	assert.Equal(t, 1200.0, tri.RcAdopted)
	assert.Equal(t, 3600.0, tri.Installed)
	assert.Less(t, tri.RcAdopted, bt.RcAdopted)

	assert.Equal(t, BipoleTransverse, r.Adopted.Configuration)
	for _, c := range r.Candidates {
		assert.GreaterOrEqual(t, c.Installed, r.Adopted.Installed, string(c.Configuration))
	}
}

func TestUntestedStructure(t *testing.T) {
	req := scenarioRequest()
	req.Tested = false
	r, err := Select(req, nil)
	require.NoError(t, err)
	assert.Equal(t, 1500.0, r.Adopted.RcAdopted)

	req.Type = aea.StructureRetention
	r, err = Select(req, nil)
	require.NoError(t, err)
	assert.Equal(t, aea.RoundUpHundred(1.1*1.2*math.Hypot(1000, 400)/0.8), r.Adopted.RcAdopted)
}

func TestForcedConfiguration(t *testing.T) {
	req := scenarioRequest()
	req.ForceCount = 2
	req.ForceOrientation = OrientationLongitud
	r, err := Select(req, nil)
	require.NoError(t, err)
	assert.Equal(t, BipoleLongitudinal, r.Adopted.Configuration)
	assert.Equal(t, 1100.0, r.Adopted.RcAdopted)
	assert.InDelta(t, 500/0.85/2, r.RtRequired, 1e-9)

	req.ForceCount = 3
	req.ForceOrientation = ""
	r, err = Select(req, nil)
	require.NoError(t, err)
	assert.Equal(t, Tripole, r.Adopted.Configuration)

	req.ForceCount = 4
	_, err = Select(req, nil)
	assert.Error(t, err)
}

func TestTransportMinimumGoverns(t *testing.T) {
	req := scenarioRequest()
	req.Forces = []TopForce{{Code: "A2", Fx: 10, Fy: 10}}
	r, err := Select(req, nil)
	require.NoError(t, err)
	for _, c := range r.Candidates {
		assert.Equal(t, 1100.0, c.RcAdopted, c.Configuration)
	}
	assert.Equal(t, Monopole, r.Adopted.Configuration)
}

func TestSelectErrors(t *testing.T) {
	req := scenarioRequest()
	req.Forces = nil
	_, err := Select(req, nil)
	assert.Error(t, err)

	req = scenarioRequest()
	req.Type = "Celosia"
	_, err = Select(req, nil)
	assert.Error(t, err)
}

func TestAllocate(t *testing.T) {
	h, w := Allocate(16, PriorityClearance)
	assert.Equal(t, 18.0, h.Commercial)
	assert.InDelta(t, 2.0, h.Embedment, 1e-9)
	assert.Empty(t, w)

	h, w = Allocate(16.3, PriorityClearance)
	assert.Equal(t, 18.5, h.Commercial)
	assert.InDelta(t, 16.3, h.Free, 1e-9)
	assert.GreaterOrEqual(t, h.Embedment, 0.1*h.Commercial)
	assert.Empty(t, w)

	h, w = Allocate(16.3, PriorityTotalLength)
	assert.Equal(t, 18.0, h.Commercial)
	assert.InDelta(t, 1.8, h.Embedment, 1e-9)
	assert.InDelta(t, 16.2, h.Free, 1e-9)
	assert.Contains(t, w, "altura libre reducida")

	h, w = Allocate(17, PriorityTotalLength)
	assert.Equal(t, 19.0, h.Commercial)
	assert.InDelta(t, 17.0, h.Free, 1e-9)
	assert.Empty(t, w)
}

func TestCatalogueLookup(t *testing.T) {
	cat := DefaultCatalogue()

	e, w, err := cat.Lookup(18, 1200)
	require.NoError(t, err)
	assert.Empty(t, w)
	exact, ok := cat.find(18, 1200)
	require.True(t, ok)
	assert.Equal(t, exact, e)

	e, _, err = cat.Lookup(18, 1350)
	require.NoError(t, err)
	lo, _ := cat.find(18, 1200)
	hi, _ := cat.find(18, 1500)
	assert.InDelta(t, (lo.BaseDiameter+hi.BaseDiameter)/2, e.BaseDiameter, 1e-9)
	assert.InDelta(t, (lo.Weight+hi.Weight)/2, e.Weight, 1e-9)

	e, w, err = cat.Lookup(18, 6000)
	require.NoError(t, err)
	assert.Contains(t, w, "requiere clase mayor")
	assert.Equal(t, 4800.0, e.Strength)

	_, _, err = Catalogue{}.Lookup(10, 300)
	assert.Error(t, err)
}

func TestNearestFallback(t *testing.T) {
	cat := Catalogue{
		{Length: 10, Strength: 300, BaseDiameter: 0.30, TopDiameter: 0.16, Weight: 800, Price: decimal.NewFromInt(500)},
		{Length: 12, Strength: 600, BaseDiameter: 0.36, TopDiameter: 0.18, Weight: 1200, Price: decimal.NewFromInt(700)},
	}
	e, w, err := cat.Lookup(11, 450)
	require.NoError(t, err)
	assert.Empty(t, w)
	assert.InDelta(t, 0.33, e.BaseDiameter, 1e-9)
	assert.InDelta(t, 1000, e.Weight, 1e-9)
	assert.Equal(t, 11.0, e.Length)
}

func TestLoadCatalogueRejectsBadFile(t *testing.T) {
	dir := t.TempDir()
	_, err := LoadCatalogue(dir + "/missing.json")
	assert.Error(t, err)
}

func TestTopForces(t *testing.T) {
	fs := TopForces([]loads.Reaction{{Code: "A2", Mx: -3200, My: 8000, Mz: 50}}, 16)
	require.Len(t, fs, 1)
	assert.Equal(t, "A2", fs[0].Code)
	assert.InDelta(t, 500, fs[0].Fx, 1e-9)
	assert.InDelta(t, 200, fs[0].Fy, 1e-9)
	assert.Equal(t, 50.0, fs[0].Mz)
}

func TestEmbeddedDiameter(t *testing.T) {
	e := Entry{Length: 10, BaseDiameter: 0.35, TopDiameter: 0.20}
	assert.InDelta(t, 0.35-0.015*0.5, e.EmbeddedDiameter(1), 1e-9)
}
