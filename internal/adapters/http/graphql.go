package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/poimap/internal/core/domain"
	"github.com/samirrijal/poimap/internal/core/usecases"
)

// sourcePOI accepts both list elements and single lookups.
func sourcePOI(src interface{}) *domain.PointOfInterest {
	switch p := src.(type) {
	case domain.PointOfInterest:
		return &p
	case *domain.PointOfInterest:
		return p
	}
	return nil
}

func sourceLocation(src interface{}) *domain.Location {
	switch l := src.(type) {
	case domain.Location:
		return &l
	case *domain.Location:
		return l
	}
	return nil
}

func optionalFloat(args map[string]interface{}, key string) *float64 {
	if v, ok := args[key].(float64); ok {
		return &v
	}
	return nil
}

func stringList(args map[string]interface{}, key string) []string {
	raw, _ := args[key].([]interface{})
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	locationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Location",
		Fields: graphql.Fields{
			"lat": &graphql.Field{
				Type: graphql.Float,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if l := sourceLocation(p.Source); l != nil {
						return l.Lat(), nil
					}
					return nil, nil
				},
			},
			"lon": &graphql.Field{
				Type: graphql.Float,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if l := sourceLocation(p.Source); l != nil {
						return l.Lon(), nil
					}
					return nil, nil
				},
			},
		},
	})

	poiType := graphql.NewObject(graphql.ObjectConfig{
		Name: "PointOfInterest",
		Fields: graphql.Fields{
			"id":       &graphql.Field{Type: graphql.String},
			"name":     &graphql.Field{Type: graphql.String},
			"category": &graphql.Field{Type: graphql.String},
			"details":  &graphql.Field{Type: graphql.String},
			"tags":     &graphql.Field{Type: graphql.NewList(graphql.String)},
			"location": &graphql.Field{Type: locationType},
			"distance": &graphql.Field{
				Type:        graphql.Float,
				Description: "Meters from the search center, radius queries only",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if poi := sourcePOI(p.Source); poi != nil && poi.Distance != nil {
						return *poi.Distance, nil
					}
					return nil, nil
				},
			},
			"created_at": &graphql.Field{Type: graphql.DateTime},
			"updated_at": &graphql.Field{Type: graphql.DateTime},
			"popup": &graphql.Field{
				Type:        graphql.String,
				Description: "Rendered HTML popup",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if poi := sourcePOI(p.Source); poi != nil {
						return usecases.PopupHTML(poi), nil
					}
					return nil, nil
				},
			},
		},
	})

	viewportType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Viewport",
		Fields: graphql.Fields{
			"center": &graphql.Field{Type: locationType},
			"zoom":   &graphql.Field{Type: graphql.Float},
			"radius": &graphql.Field{Type: graphql.Int},
			"pois":   &graphql.Field{Type: graphql.NewList(poiType)},
		},
	})

	categoryArg := &graphql.ArgumentConfig{Type: graphql.NewList(graphql.String)}

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"pois": &graphql.Field{
				Type:        graphql.NewList(poiType),
				Description: "List points of interest by location, category or search term",
				Args: graphql.FieldConfigArgument{
					"lat":      &graphql.ArgumentConfig{Type: graphql.Float},
					"lon":      &graphql.ArgumentConfig{Type: graphql.Float},
					"radius":   &graphql.ArgumentConfig{Type: graphql.Float},
					"category": categoryArg,
					"search":   &graphql.ArgumentConfig{Type: graphql.String},
					"limit":    &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 100},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					q := usecases.ListQuery{
						Lat:        optionalFloat(p.Args, "lat"),
						Lon:        optionalFloat(p.Args, "lon"),
						Categories: stringList(p.Args, "category"),
						Limit:      p.Args["limit"].(int),
					}
					if r := optionalFloat(p.Args, "radius"); r != nil {
						q.Radius = *r
					}
					if s, ok := p.Args["search"].(string); ok {
						q.Search = s
					}
					return deps.POIs.List(p.Context, q)
				},
			},
			"poi": &graphql.Field{
				Type:        poiType,
				Description: "Get a point of interest by ID",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					poi, err := deps.POIs.Get(p.Context, p.Args["id"].(string))
					if errors.Is(err, domain.ErrNotFound) {
						return nil, nil
					}
					return poi, err
				},
			},
			"categories": &graphql.Field{
				Type:        graphql.NewList(graphql.String),
				Description: "Distinct categories in use",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.POIs.Categories(p.Context)
				},
			},
			"categoryCount": &graphql.Field{
				Type:        graphql.Int,
				Description: "Number of points of interest in a category",
				Args: graphql.FieldConfigArgument{
					"category": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					n, err := deps.POIs.CountByCategory(p.Context, p.Args["category"].(string))
					return int(n), err
				},
			},
			"radiusForZoom": &graphql.Field{
				Type:        graphql.Int,
				Description: "Search radius in meters for a zoom level",
				Args: graphql.FieldConfigArgument{
					"zoom": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Map.RadiusForZoom(p.Args["zoom"].(float64)), nil
				},
			},
			"zoomForRadius": &graphql.Field{
				Type:        graphql.Int,
				Description: "Zoom level to restore for a stored radius",
				Args: graphql.FieldConfigArgument{
					"radius": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Map.RestoreZoom(p.Args["radius"].(float64)), nil
				},
			},
			"mapViewport": &graphql.Field{
				Type:        viewportType,
				Description: "Points of interest around a map center at a zoom level",
				Args: graphql.FieldConfigArgument{
					"lat":      &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lon":      &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"zoom":     &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"category": categoryArg,
					"limit":    &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 100},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Map.Viewport(p.Context,
						p.Args["lat"].(float64),
						p.Args["lon"].(float64),
						p.Args["zoom"].(float64),
						stringList(p.Args, "category"),
						p.Args["limit"].(int),
					)
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
		if err := c.BodyParser(&req); err != nil || req.Query == "" {
			return errBadRequest(c, "invalid GraphQL request body")
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
