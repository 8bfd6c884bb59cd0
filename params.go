package dynamics

import "github.com/gekko3d/dynamics/params"

// IntegrationParameters and the coefficient-combine machinery live in
// the leaf package params (see params/params.go) so that constraint,
// solver and parallel can depend on them without depending on this
// root package; these aliases keep the public surface at the layout
// SPEC_FULL.md documents (dynamics.IntegrationParameters, not
// params.IntegrationParameters) for callers that only import the root
// package.
type IntegrationParameters = params.IntegrationParameters

var DefaultIntegrationParameters = params.DefaultIntegrationParameters

type CoefficientCombineRule = params.CoefficientCombineRule

const (
	CombineAverage  = params.CombineAverage
	CombineMin      = params.CombineMin
	CombineMultiply = params.CombineMultiply
	CombineMax      = params.CombineMax
)

var Combine = params.Combine
