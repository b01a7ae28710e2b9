package httpapi

import (
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"github.com/i474232898/city-explorer/internal/explorer"
	"github.com/i474232898/city-explorer/internal/logger"
)

// DefaultSearchQuery is used by /location when no data parameter is sent.
const DefaultSearchQuery = "seattle"

// FallbackBody is the plaintext reply for unmatched paths.
const FallbackBody = "You got in the wrong place"

var validate = validator.New()

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service *explorer.Service) {
	app.Get("/location", func(c *fiber.Ctx) error {
		query := utils.CopyString(c.Query("data", DefaultSearchQuery))

		loc, err := service.ResolveLocation(c.UserContext(), query)
		if err != nil {
			return err
		}
		return c.JSON(loc)
	})

	app.Get("/weather", coordinateHandler(service, explorer.ResourceWeather))
	app.Get("/events", coordinateHandler(service, explorer.ResourceEvents))

	app.Get("/movies", func(c *fiber.Ctx) error {
		req := searchQuery{SearchQuery: dataParam(c, "search_query")}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		records, err := service.Resources(c.UserContext(), explorer.ResourceMovies, explorer.Query{
			SearchQuery: req.SearchQuery,
		})
		if err != nil {
			return err
		}
		return c.JSON(records)
	})
}

// RegisterFallback answers every unmatched path. Mount it after all other routes.
func RegisterFallback(app *fiber.App) {
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).SendString(FallbackBody)
	})
}

// coordinateHandler serves resources keyed by a location's coordinates.
func coordinateHandler(service *explorer.Service, resource explorer.ResourceType) fiber.Handler {
	return func(c *fiber.Ctx) error {
		req := coordinateQuery{
			SearchQuery: dataParam(c, "search_query"),
			Latitude:    dataParam(c, "latitude"),
			Longitude:   dataParam(c, "longitude"),
		}
		q, err := req.toQuery()
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		records, err := service.Resources(c.UserContext(), resource, q)
		if err != nil {
			return err
		}
		return c.JSON(records)
	}
}

// searchQuery holds the parameter bundle for /movies.
type searchQuery struct {
	SearchQuery string `validate:"required"`
}

// coordinateQuery holds the parameter bundle for /weather and /events.
type coordinateQuery struct {
	SearchQuery string `validate:"required"`
	Latitude    string `validate:"required,latitude"`
	Longitude   string `validate:"required,longitude"`
}

func (q coordinateQuery) toQuery() (explorer.Query, error) {
	if err := validate.Struct(q); err != nil {
		return explorer.Query{}, err
	}

	lat, err := strconv.ParseFloat(q.Latitude, 64)
	if err != nil {
		return explorer.Query{}, err
	}
	lng, err := strconv.ParseFloat(q.Longitude, 64)
	if err != nil {
		return explorer.Query{}, err
	}

	return explorer.Query{SearchQuery: q.SearchQuery, Latitude: lat, Longitude: lng}, nil
}

// dataParam reads a field of the data bundle as data[field] or data.field. The value
// is copied out of the request buffer because it outlives the handler in the store.
func dataParam(c *fiber.Ctx, field string) string {
	v := c.Query("data[" + field + "]")
	if v == "" {
		v = c.Query("data." + field)
	}
	return utils.CopyString(v)
}

type errorBody struct {
	Error   bool   `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorHandler maps handler errors onto status codes and a JSON error body. Causes are
// logged but not echoed to the caller.
func ErrorHandler(c *fiber.Ctx, err error) error {
	status, body := classify(err)
	if status >= fiber.StatusInternalServerError {
		logger.GetLogger("http").Errorw("request failed",
			"method", c.Method(),
			"path", c.Path(),
			"request_id", c.Locals("requestid"),
			"error", err,
		)
	}
	return c.Status(status).JSON(body)
}

func classify(err error) (int, errorBody) {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		code := "internal"
		switch {
		case fe.Code == fiber.StatusBadRequest:
			code = "bad_request"
		case fe.Code == fiber.StatusNotFound:
			code = "not_found"
		case fe.Code < fiber.StatusInternalServerError:
			code = "client_error"
		}
		return fe.Code, errorBody{Error: true, Code: code, Message: fe.Message}
	case errors.Is(err, explorer.ErrInvalidQuery):
		return fiber.StatusBadRequest, errorBody{true, "bad_request", "invalid query parameters"}
	case errors.Is(err, explorer.ErrNotFound):
		return fiber.StatusNotFound, errorBody{true, "not_found", "no results for the requested location"}
	case errors.Is(err, explorer.ErrProviderUnavailable):
		return fiber.StatusInternalServerError, errorBody{true, "provider_unavailable", "upstream provider unavailable"}
	case errors.Is(err, explorer.ErrMalformedPayload):
		return fiber.StatusInternalServerError, errorBody{true, "malformed_payload", "upstream provider returned an unexpected response"}
	case errors.Is(err, explorer.ErrPersistence):
		return fiber.StatusInternalServerError, errorBody{true, "persistence_error", "failed to read stored data"}
	default:
		return fiber.StatusInternalServerError, errorBody{true, "internal", "internal server error"}
	}
}
