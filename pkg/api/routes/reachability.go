package routes

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/liip/sheriff"
	"github.com/rs/zerolog/log"
	"github.com/travigo/reachability/pkg/aggregator"
	"github.com/travigo/reachability/pkg/api/cachedresults"
	"github.com/travigo/reachability/pkg/reachability"

	iso8601 "github.com/senseyeio/duration"
)

const searchTimeout = 30 * time.Second

var validate = validator.New()

type reachabilityQuery struct {
	Budget    string `query:"budget" validate:"required"`
	Transfers int    `query:"transfers" validate:"min=0,max=10"`
	Window    string `query:"window"`
	Policy    string `query:"policy" validate:"required,oneof=best-overall best-per-transfer-count"`
	Filter    string `query:"filter"`
	Name      bool   `query:"name"`
	Detailed  bool   `query:"detailed"`
}

func ReachabilityRouter(router fiber.Router, dataset *Dataset) {
	router.Get("/:origin", dataset.getReachability)
}

// parseBudget converts an ISO8601 duration such as PT5H into a time.Duration.
func parseBudget(value string) (time.Duration, error) {
	duration, err := iso8601.ParseISO8601(value)
	if err != nil {
		return 0, err
	}

	reference := time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)
	return duration.Shift(reference).Sub(reference), nil
}

func badRequest(c *fiber.Ctx, message string) error {
	c.SendStatus(fiber.StatusBadRequest)
	return c.JSON(fiber.Map{
		"error": message,
	})
}

func (d *Dataset) getReachability(c *fiber.Ctx) error {
	query := reachabilityQuery{Transfers: 1}
	if err := c.QueryParser(&query); err != nil {
		return badRequest(c, err.Error())
	}
	if err := validate.Struct(query); err != nil {
		return badRequest(c, err.Error())
	}

	budget, err := parseBudget(query.Budget)
	if err != nil {
		return badRequest(c, "Parameter budget should be an ISO8601 duration")
	}

	window, err := reachability.ParseWindow(query.Window)
	if err != nil {
		return badRequest(c, err.Error())
	}

	policy, err := aggregator.ParsePolicy(query.Policy)
	if err != nil {
		return badRequest(c, err.Error())
	}

	origin := c.Params("origin")
	origins := []string{origin}
	if query.Name {
		origins = d.Index.FindStopsByName(origin)
	}
	if len(origins) == 0 || (!query.Name && !d.hasStop(origin)) {
		c.SendStatus(fiber.StatusNotFound)
		return c.JSON(fiber.Map{
			"error": "Could not find Stop matching origin",
		})
	}

	searchQuery := reachability.Query{
		Origins:      origins,
		Budget:       budget,
		MaxTransfers: query.Transfers,
		Window:       window,
	}

	windowName := reachability.WindowAllDay
	if window != nil {
		windowName = window.String()
	}
	cacheKey := cachedresults.Key{
		Dataset:   d.Identifier,
		Origins:   origins,
		Budget:    budget,
		Transfers: query.Transfers,
		Window:    windowName,
		Policy:    policy,
		Filter:    query.Filter,
	}

	destinations, cached := d.cachedDestinations(c.UserContext(), cacheKey)
	if !cached {
		destinations, err = d.search(searchQuery, policy, query.Filter, cacheKey)

		var invalidWindow *reachability.InvalidWindowError
		switch {
		case errors.As(err, &invalidWindow),
			errors.Is(err, reachability.ErrInvalidBudget),
			errors.Is(err, reachability.ErrInvalidTransfers),
			errors.Is(err, errInvalidFilter):
			return badRequest(c, err.Error())
		case errors.Is(err, errSearchTimeout):
			c.SendStatus(fiber.StatusServiceUnavailable)
			return c.JSON(fiber.Map{
				"error": err.Error(),
			})
		case err != nil:
			c.SendStatus(fiber.StatusInternalServerError)
			return c.JSON(fiber.Map{
				"error": err.Error(),
			})
		}
	}

	groups := []string{"basic"}
	if query.Detailed {
		groups = []string{"detailed"}
	}
	destinationsReduced, err := sheriff.Marshal(&sheriff.Options{
		Groups: groups,
	}, destinations)
	if err != nil {
		c.SendStatus(fiber.StatusInternalServerError)
		return c.JSON(fiber.Map{
			"error": "Sherrif could not reduce destinations",
		})
	}

	return c.JSON(fiber.Map{
		"origins":      origins,
		"budget":       budget.String(),
		"transfers":    query.Transfers,
		"window":       windowName,
		"policy":       policy,
		"destinations": destinationsReduced,
	})
}

func (d *Dataset) hasStop(stopID string) bool {
	_, ok := d.Index.Stop(stopID)
	return ok
}

func (d *Dataset) cachedDestinations(ctx context.Context, key cachedresults.Key) ([]aggregator.Destination, bool) {
	if d.Cache == nil {
		return nil, false
	}

	destinations, hit := d.Cache.Get(ctx, key)
	if d.Metrics != nil {
		if hit {
			d.Metrics.CacheLookups.WithLabelValues("hit").Inc()
		} else {
			d.Metrics.CacheLookups.WithLabelValues("miss").Inc()
		}
	}

	return destinations, hit
}

var (
	errInvalidFilter = errors.New("invalid filter")
	errSearchTimeout = errors.New("search timed out")
)

type searchResult struct {
	destinations []aggregator.Destination
	err          error
}

// search runs the search in the background so a slow query can be abandoned.
// An abandoned search still completes and fills the cache.
func (d *Dataset) search(query reachability.Query, policy aggregator.Policy, filter string, key cachedresults.Key) ([]aggregator.Destination, error) {
	resultChan := make(chan searchResult, 1)

	go func() {
		started := time.Now()
		labels, err := reachability.Search(d.Index, query)
		d.Metrics.ObserveSearch(started, labels.Len(), err)
		if err != nil {
			resultChan <- searchResult{err: err}
			return
		}

		destinations, err := aggregator.Aggregate(d.Index, labels, policy)
		if err != nil {
			resultChan <- searchResult{err: err}
			return
		}

		destinations, err = aggregator.Filter(destinations, filter)
		if err != nil {
			resultChan <- searchResult{err: errors.Join(errInvalidFilter, err)}
			return
		}

		if d.Cache != nil {
			if err := d.Cache.Set(context.Background(), key, destinations); err != nil {
				log.Error().Err(err).Msg("Failed to cache reachability result")
			}
		}

		resultChan <- searchResult{destinations: destinations}
	}()

	select {
	case result := <-resultChan:
		return result.destinations, result.err
	case <-time.After(searchTimeout):
		return nil, errSearchTimeout
	}
}
