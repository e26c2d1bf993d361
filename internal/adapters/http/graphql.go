package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/smarttrack/internal/core/domain"
	"github.com/samirrijal/smarttrack/internal/pkg/geospatial"
)

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	latLngType := graphql.NewObject(graphql.ObjectConfig{
		Name: "LatLng",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lng": &graphql.Field{Type: graphql.Float},
		},
	})

	latLngInput := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "LatLngInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"lat": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.Float)},
			"lng": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.Float)},
		},
	})

	userType := graphql.NewObject(graphql.ObjectConfig{
		Name: "User",
		Fields: graphql.Fields{
			"id":        &graphql.Field{Type: graphql.String},
			"name":      &graphql.Field{Type: graphql.String},
			"email":     &graphql.Field{Type: graphql.String},
			"avatar":    &graphql.Field{Type: graphql.String},
			"isOnline":  &graphql.Field{Type: graphql.Boolean},
			"latitude":  &graphql.Field{Type: graphql.Float},
			"longitude": &graphql.Field{Type: graphql.Float},
			"updatedAt": &graphql.Field{Type: graphql.DateTime},
		},
	})

	boundaryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Boundary",
		Fields: graphql.Fields{
			"id":        &graphql.Field{Type: graphql.String},
			"name":      &graphql.Field{Type: graphql.String},
			"color":     &graphql.Field{Type: graphql.String},
			"coords":    &graphql.Field{Type: graphql.NewList(latLngType)},
			"createdAt": &graphql.Field{Type: graphql.DateTime},
			"areaSqMeters": &graphql.Field{
				Type:        graphql.Float,
				Description: "Approximate enclosed area in square meters",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return geospatial.Area(boundaryFrom(p.Source).Coords), nil
				},
			},
			"perimeterMeters": &graphql.Field{
				Type:        graphql.Float,
				Description: "Length of the closed outline in meters",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return geospatial.Perimeter(boundaryFrom(p.Source).Coords), nil
				},
			},
		},
	})

	placeType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Place",
		Fields: graphql.Fields{
			"displayName": &graphql.Field{Type: graphql.String},
			"lat":         &graphql.Field{Type: graphql.Float},
			"lng":         &graphql.Field{Type: graphql.Float},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"users": &graphql.Field{
				Type:        graphql.NewList(userType),
				Description: "List tracked users, optionally filtered by name or email",
				Args: graphql.FieldConfigArgument{
					"filter": &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: ""},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					filter, _ := p.Args["filter"].(string)
					return deps.Users.Filter(p.Context, filter)
				},
			},
			"user": &graphql.Field{
				Type:        userType,
				Description: "Get a user by ID",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Users.Get(p.Context, p.Args["id"].(string))
				},
			},
			"onlineCount": &graphql.Field{
				Type:        graphql.Int,
				Description: "Number of users currently online",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Users.OnlineCount(p.Context)
				},
			},
			"boundaries": &graphql.Field{
				Type:        graphql.NewList(boundaryType),
				Description: "List boundaries, newest first",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Boundaries.List(p.Context)
				},
			},
			"boundary": &graphql.Field{
				Type:        boundaryType,
				Description: "Get a boundary by ID",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Boundaries.Get(p.Context, p.Args["id"].(string))
				},
			},
			"searchPlaces": &graphql.Field{
				Type:        graphql.NewList(placeType),
				Description: "Geocode a free-text place query",
				Args: graphql.FieldConfigArgument{
					"query": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if deps.Search == nil {
						return nil, errSearchUnavailable
					}
					return deps.Search.Search(p.Context, p.Args["query"].(string))
				},
			},
		},
	})

	mutationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"createBoundary": &graphql.Field{
				Type:        boundaryType,
				Description: "Store a drawn boundary",
				Args: graphql.FieldConfigArgument{
					"name":   &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"coords": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(latLngInput)))},
					"color":  &graphql.ArgumentConfig{Type: graphql.String},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					draft := domain.BoundaryDraft{Name: p.Args["name"].(string)}
					draft.Color, _ = p.Args["color"].(string)
					raw, _ := p.Args["coords"].([]interface{})
					for _, item := range raw {
						m, _ := item.(map[string]interface{})
						lat, _ := m["lat"].(float64)
						lng, _ := m["lng"].(float64)
						draft.Coords = append(draft.Coords, domain.LatLng{Lat: lat, Lng: lng})
					}
					return deps.Boundaries.Create(p.Context, draft)
				},
			},
			"deleteBoundary": &graphql.Field{
				Type:        graphql.Boolean,
				Description: "Delete a boundary by ID",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if err := deps.Boundaries.Delete(p.Context, p.Args["id"].(string)); err != nil {
						return false, err
					}
					return true, nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query:    queryType,
		Mutation: mutationType,
	})
}

func boundaryFrom(source interface{}) domain.Boundary {
	switch b := source.(type) {
	case *domain.Boundary:
		return *b
	case domain.Boundary:
		return b
	default:
		return domain.Boundary{}
	}
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
