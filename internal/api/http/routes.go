package httpapi

import (
	"errors"
	"net/url"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"weather-lakehouse/internal/pipeline"
	"weather-lakehouse/internal/store"
	"weather-lakehouse/internal/weather"
)

var validate = validator.New()

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, pipe *pipeline.Pipeline, st *store.Store) {
	app.Post("/weather/fetch/:city", func(c *fiber.Ctx) error {
		req, err := parseCityRequest(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		rec, err := pipe.Ingest(c.Context(), weather.Location{City: req.City, Country: req.Country})
		if err != nil {
			return mapIngestError(err)
		}

		return c.Status(fiber.StatusCreated).JSON(rec)
	})

	app.Get("/weather/history/:city", func(c *fiber.Ctx) error {
		req, err := parseCityRequest(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		// Silver is the canonical read path; the raw bronze audit trail stays
		// available behind ?layer=bronze.
		if req.Layer == "bronze" {
			records, err := st.BronzeHistory(c.Context(), req.City)
			if err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch weather history")
			}
			if len(records) == 0 {
				return fiber.NewError(fiber.StatusNotFound, "no weather records for city")
			}
			return c.JSON(fiber.Map{
				"city":    req.City,
				"layer":   "bronze",
				"count":   len(records),
				"records": records,
			})
		}

		records, err := st.SilverHistory(c.Context(), req.City)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch weather history")
		}
		if len(records) == 0 {
			return fiber.NewError(fiber.StatusNotFound, "no weather records for city")
		}
		return c.JSON(fiber.Map{
			"city":    req.City,
			"layer":   "silver",
			"count":   len(records),
			"records": records,
		})
	})

	app.Get("/weather/latest/:city", func(c *fiber.Ctx) error {
		req, err := parseCityRequest(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		rec, err := st.LatestSilver(c.Context(), req.City)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no weather data for city")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch weather data")
		}

		return c.JSON(rec)
	})

	app.Get("/weather/daily/:city", func(c *fiber.Ctx) error {
		req, err := parseCityRequest(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		records, err := st.GoldDaily(c.Context(), req.City)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch daily aggregates")
		}
		if len(records) == 0 {
			return fiber.NewError(fiber.StatusNotFound, "no daily aggregates for city")
		}
		return c.JSON(fiber.Map{
			"city":    req.City,
			"count":   len(records),
			"records": records,
		})
	})

	admin := app.Group("/api/v1/admin")

	admin.Post("/silver/rebuild", func(c *fiber.Ctx) error {
		n, err := pipe.RebuildSilver(c.Context())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(fiber.Map{
			"rebuilt": n,
		})
	})
}

// cityRequest holds the path/query parameters shared by the weather routes.
type cityRequest struct {
	City    string `validate:"required,max=100"`
	Country string `validate:"omitempty,len=2,alpha"`
	Layer   string `validate:"omitempty,oneof=bronze silver"`
}

func parseCityRequest(c *fiber.Ctx) (cityRequest, error) {
	var req cityRequest

	city, err := url.PathUnescape(c.Params("city"))
	if err != nil {
		return req, err
	}
	req.City = city
	req.Country = c.Query("country")
	req.Layer = c.Query("layer")

	if err := validate.Struct(req); err != nil {
		return req, err
	}
	return req, nil
}

func mapIngestError(err error) error {
	var pe *weather.ProviderError
	if errors.As(err, &pe) {
		if pe.Status == fiber.StatusNotFound {
			return fiber.NewError(fiber.StatusNotFound, "weather data not found for city")
		}
		return fiber.NewError(fiber.StatusBadGateway, pe.Error())
	}

	var ie *weather.IngestionError
	if errors.As(err, &ie) {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to store weather record")
	}

	return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch weather data")
}
