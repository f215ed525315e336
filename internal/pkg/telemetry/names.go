package telemetry

// Span names for the projection pipeline.
const (
	SpanProject   = "projection.project"
	SpanSolvePole = "projection.solve_pole"
	SpanTransform = "projection.transform"
	SpanRender    = "projection.render"
)

// Span attribute keys.
const (
	AttrScenarioKey   = "projection.scenario_key"
	AttrGridRows      = "projection.grid.rows"
	AttrGridCols      = "projection.grid.cols"
	AttrInvalidPoints = "projection.invalid_points"
	AttrFormat        = "projection.format"
	AttrCacheHit      = "projection.cache_hit"
)
