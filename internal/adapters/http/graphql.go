package http

import (
	"math"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/obliquemerc/internal/core/domain"
	"github.com/samirrijal/obliquemerc/internal/pkg/geospatial"
)

// finiteFloat resolves a float field, turning NaN and ±Inf into null since
// GraphQL floats must be finite.
func finiteFloat(get func(source interface{}) float64) *graphql.Field {
	return &graphql.Field{
		Type: graphql.Float,
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			v := get(p.Source)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, nil
			}
			return v, nil
		},
	}
}

// scenarioArgs mirrors the REST query parameters. Missing args fall back to
// the configured default scenario.
var scenarioArgs = graphql.FieldConfigArgument{
	"lat1":       &graphql.ArgumentConfig{Type: graphql.Float},
	"lon1":       &graphql.ArgumentConfig{Type: graphql.Float},
	"lat2":       &graphql.ArgumentConfig{Type: graphql.Float},
	"lon2":       &graphql.ArgumentConfig{Type: graphql.Float},
	"latMin":     &graphql.ArgumentConfig{Type: graphql.Float},
	"latMax":     &graphql.ArgumentConfig{Type: graphql.Float},
	"lonMin":     &graphql.ArgumentConfig{Type: graphql.Float},
	"lonMax":     &graphql.ArgumentConfig{Type: graphql.Float},
	"latSamples": &graphql.ArgumentConfig{Type: graphql.Int},
	"lonSamples": &graphql.ArgumentConfig{Type: graphql.Int},
}

func scenarioFromArgs(args map[string]interface{}, def domain.Scenario) domain.Scenario {
	sc := def
	floats := map[string]*float64{
		"lat1":   &sc.Reference.First.Lat,
		"lon1":   &sc.Reference.First.Lon,
		"lat2":   &sc.Reference.Second.Lat,
		"lon2":   &sc.Reference.Second.Lon,
		"latMin": &sc.LatRange.Min,
		"latMax": &sc.LatRange.Max,
		"lonMin": &sc.LonRange.Min,
		"lonMax": &sc.LonRange.Max,
	}
	for name, dst := range floats {
		if v, ok := args[name].(float64); ok {
			*dst = v
		}
	}
	if v, ok := args["latSamples"].(int); ok {
		sc.LatSamples = v
	}
	if v, ok := args["lonSamples"].(int); ok {
		sc.LonSamples = v
	}
	return sc
}

// buildSchema creates the GraphQL schema wired to the projection service.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"lat": finiteFloat(func(s interface{}) float64 { return s.(domain.GeoPoint).Lat }),
			"lon": finiteFloat(func(s interface{}) float64 { return s.(domain.GeoPoint).Lon }),
		},
	})

	projectedPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "ProjectedPoint",
		Fields: graphql.Fields{
			"x": finiteFloat(func(s interface{}) float64 { return s.(domain.ProjectedPoint).X }),
			"y": finiteFloat(func(s interface{}) float64 { return s.(domain.ProjectedPoint).Y }),
		},
	})

	poleType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Pole",
		Fields: graphql.Fields{
			"lat": finiteFloat(func(s interface{}) float64 { return s.(domain.Pole).Lat }),
			"lon": finiteFloat(func(s interface{}) float64 { return s.(domain.Pole).Lon }),
			"undefined": &graphql.Field{
				Type: graphql.Boolean,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return geospatial.IsUndefined(p.Source.(domain.Pole)), nil
				},
			},
		},
	})

	projectionType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Projection",
		Fields: graphql.Fields{
			"pole": &graphql.Field{
				Type: poleType,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source.(*domain.Projection).Pole, nil
				},
			},
			"rows": &graphql.Field{
				Type: graphql.Int,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					rows, _ := p.Source.(*domain.Projection).Mesh.Shape()
					return rows, nil
				},
			},
			"cols": &graphql.Field{
				Type: graphql.Int,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					_, cols := p.Source.(*domain.Projection).Mesh.Shape()
					return cols, nil
				},
			},
			"invalidPoints": &graphql.Field{
				Type: graphql.Int,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source.(*domain.Projection).Invalid, nil
				},
			},
			"rotated": &graphql.Field{
				Type:        graphql.NewList(graphql.NewList(geoPointType)),
				Description: "Grid in the rotated frame, longitudes normalized to [-180, 180)",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source.(*domain.Projection).Rotated, nil
				},
			},
			"mesh": &graphql.Field{
				Type:        graphql.NewList(graphql.NewList(projectedPointType)),
				Description: "Mercator mesh, one row per longitude sample",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source.(*domain.Projection).Mesh, nil
				},
			},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"pole": &graphql.Field{
				Type:        poleType,
				Description: "Pole of the great circle through two reference points",
				Args: graphql.FieldConfigArgument{
					"lat1": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lon1": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lat2": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lon2": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					ref := domain.ReferencePair{
						First:  domain.GeoPoint{Lat: p.Args["lat1"].(float64), Lon: p.Args["lon1"].(float64)},
						Second: domain.GeoPoint{Lat: p.Args["lat2"].(float64), Lon: p.Args["lon2"].(float64)},
					}
					return deps.Projections.Pole(p.Context, ref)
				},
			},
			"projection": &graphql.Field{
				Type:        projectionType,
				Description: "Project a lat/lon grid with the oblique Mercator defined by the reference points",
				Args:        scenarioArgs,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Projections.Project(p.Context, scenarioFromArgs(p.Args, deps.Defaults))
				},
			},
			"formats": &graphql.Field{
				Type:        graphql.NewList(graphql.String),
				Description: "Supported render formats",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					formats := deps.Projections.Formats()
					out := make([]string, len(formats))
					for i, f := range formats {
						out[i] = string(f)
					}
					return out, nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// This would be a programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.UserContext(),
		})

		return c.JSON(result)
	}
}
