package params

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultIntegrationParameters(t *testing.T) {
	p := DefaultIntegrationParameters()
	assert.InDelta(t, 1.0/60.0, p.Dt, 1e-6)
	assert.InDelta(t, 60.0, p.InvDt, 1e-3)
	assert.Equal(t, 4, p.NumVelocityIterations)
}

func TestSetDt(t *testing.T) {
	p := DefaultIntegrationParameters()
	p.SetDt(0.5)
	if p.InvDt != 2 {
		t.Errorf("expected InvDt 2, got %f", p.InvDt)
	}

	p.SetDt(0)
	if p.InvDt != 0 {
		t.Errorf("expected InvDt 0 for non-positive dt, got %f", p.InvDt)
	}
}

func TestCombine(t *testing.T) {
	cases := []struct {
		name        string
		c1, c2      float32
		r1, r2      CoefficientCombineRule
		want        float32
	}{
		{"average", 0.2, 0.8, CombineAverage, CombineAverage, 0.5},
		{"min wins over average", 0.2, 0.8, CombineAverage, CombineMin, 0.2},
		{"multiply wins over min", 0.5, 0.5, CombineMin, CombineMultiply, 0.25},
		{"max wins over multiply", 0.5, 0.5, CombineMultiply, CombineMax, 0.5},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Combine(tc.c1, tc.c2, tc.r1, tc.r2)
			assert.InDelta(t, tc.want, got, 1e-6)
		})
	}
}

func TestCombinePanicsOnInvalidRule(t *testing.T) {
	assert.Panics(t, func() {
		Combine(1, 1, CoefficientCombineRule(99), CombineMax)
	})
}
