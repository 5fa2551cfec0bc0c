// Package app runs the interactive terminal screens: welcome (API key entry),
// locations (search and pick a site) and forecast.
package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/kjstillabower/weather-uk/internal/client"
	"github.com/kjstillabower/weather-uk/internal/models"
	"github.com/kjstillabower/weather-uk/internal/render"
	"github.com/kjstillabower/weather-uk/internal/service"
	"github.com/kjstillabower/weather-uk/internal/validation"
)

// Service is what the screens need from service.ForecastService.
type Service interface {
	HasAPIKey() bool
	ConfigureAPIKey(ctx context.Context, key string) error
	SearchLocations(ctx context.Context, query string) ([]models.Location, error)
	FindLocation(ctx context.Context, id int) (models.Location, error)
	Forecast(ctx context.Context, id int) ([]models.ForecastDay, error)
}

// KeyStore persists an API key once DataPoint has accepted it.
type KeyStore interface {
	SaveAPIKey(key string) error
}

type screen int

const (
	screenWelcome screen = iota
	screenLocations
	screenForecast
	screenQuit
)

func (s screen) String() string {
	switch s {
	case screenWelcome:
		return "welcome"
	case screenLocations:
		return "locations"
	case screenForecast:
		return "forecast"
	default:
		return "quit"
	}
}

// App is a line-oriented UI over an io.Reader and io.Writer.
type App struct {
	svc    Service
	keys   KeyStore
	in     *bufio.Scanner
	out    io.Writer
	logger *zap.Logger

	location models.Location
}

// New creates an App. keys may be nil, in which case accepted keys are not saved.
func New(svc Service, keys KeyStore, in io.Reader, out io.Writer, logger *zap.Logger) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &App{
		svc:    svc,
		keys:   keys,
		in:     bufio.NewScanner(in),
		out:    out,
		logger: logger,
	}
}

// Run shows the welcome screen when no key is configured, otherwise the
// locations screen, and returns when the user quits or input ends.
func (a *App) Run(ctx context.Context) error {
	current := screenLocations
	if !a.svc.HasAPIKey() {
		current = screenWelcome
	}
	for current != screenQuit {
		if err := ctx.Err(); err != nil {
			return err
		}
		a.logger.Debug("screen", zap.Stringer("screen", current))

		var (
			next screen
			err  error
		)
		switch current {
		case screenWelcome:
			next, err = a.welcome(ctx)
		case screenLocations:
			next, err = a.locations(ctx)
		case screenForecast:
			next, err = a.forecast(ctx)
		}
		if err != nil {
			return err
		}
		current = next
	}
	a.println("Goodbye.")
	return nil
}

func (a *App) welcome(ctx context.Context) (screen, error) {
	a.println("Welcome to weather-uk.")
	a.println("Forecasts come from Met Office DataPoint, which needs a free API key.")
	for {
		line, ok, err := a.prompt("API key (q to quit): ")
		if err != nil || !ok {
			return screenQuit, err
		}
		if strings.EqualFold(line, "q") {
			return screenQuit, nil
		}
		key, err := validation.ValidateAPIKey(line)
		if err != nil {
			a.println(err.Error())
			continue
		}
		if err := a.svc.ConfigureAPIKey(ctx, key); err != nil {
			if errors.Is(err, client.ErrAuthentication) {
				a.println("DataPoint rejected that key.")
			} else {
				a.println(describe(err))
			}
			continue
		}
		if a.keys != nil {
			if err := a.keys.SaveAPIKey(key); err != nil {
				a.logger.Warn("save api key failed", zap.Error(err))
				a.println("Key accepted but could not be saved; you will be asked again next time.")
			}
		}
		a.println("Key accepted.")
		return screenLocations, nil
	}
}

func (a *App) locations(ctx context.Context) (screen, error) {
	for {
		line, ok, err := a.prompt("Search sites (Enter lists all, a number picks a site id, q quits): ")
		if err != nil || !ok {
			return screenQuit, err
		}
		if strings.EqualFold(line, "q") {
			return screenQuit, nil
		}

		if validation.IsLocationID(line) {
			id, _ := validation.ParseLocationID(line)
			loc, err := a.svc.FindLocation(ctx, id)
			if err != nil {
				a.println(describe(err))
				if errors.Is(err, client.ErrAuthentication) {
					return screenWelcome, nil
				}
				continue
			}
			a.location = loc
			return screenForecast, nil
		}

		query, err := validation.ValidateSearchQuery(line)
		if err != nil {
			a.println(err.Error())
			continue
		}
		locs, err := a.svc.SearchLocations(ctx, query)
		if err != nil {
			a.println(describe(err))
			if errors.Is(err, client.ErrAuthentication) {
				return screenWelcome, nil
			}
			continue
		}
		if err := render.Locations(a.out, locs); err != nil {
			return screenQuit, err
		}
	}
}

func (a *App) forecast(ctx context.Context) (screen, error) {
	for {
		days, err := a.svc.Forecast(ctx, a.location.ID)
		if err != nil {
			a.println(describe(err))
			if errors.Is(err, client.ErrAuthentication) {
				return screenWelcome, nil
			}
		} else if err := render.Forecast(a.out, a.location, days); err != nil {
			return screenQuit, err
		}

		action, err := a.choose("b back, r refresh, q quit: ", "b", "r", "q")
		if err != nil {
			return screenQuit, err
		}
		switch action {
		case "b":
			return screenLocations, nil
		case "q", "":
			return screenQuit, nil
		}
	}
}

// choose prompts until the answer is one of options. It returns "" at end of input.
func (a *App) choose(label string, options ...string) (string, error) {
	for {
		line, ok, err := a.prompt(label)
		if err != nil || !ok {
			return "", err
		}
		line = strings.ToLower(line)
		for _, o := range options {
			if line == o {
				return o, nil
			}
		}
	}
}

// prompt writes label and reads one trimmed line. ok is false at end of input.
func (a *App) prompt(label string) (line string, ok bool, err error) {
	fmt.Fprint(a.out, label)
	if !a.in.Scan() {
		fmt.Fprintln(a.out)
		return "", false, a.in.Err()
	}
	return strings.TrimSpace(a.in.Text()), true, nil
}

func (a *App) println(msg string) {
	fmt.Fprintln(a.out, msg)
}

// describe turns an operation error into a message for the user. It never
// includes request URLs.
func describe(err error) string {
	var remote *client.RemoteError
	switch {
	case errors.Is(err, client.ErrAuthentication):
		return "DataPoint did not accept the API key. Please enter it again."
	case errors.Is(err, service.ErrLocationNotFound):
		return "No site has that id."
	case errors.As(err, &remote) && remote.StatusCode == 404:
		return "DataPoint has no forecast for that site."
	case errors.As(err, &remote):
		return fmt.Sprintf("DataPoint returned HTTP %d. Try again later.", remote.StatusCode)
	case errors.Is(err, client.ErrTimeout):
		return "DataPoint did not respond in time. Try again."
	case errors.Is(err, client.ErrTransport):
		return "Could not reach DataPoint. Check your connection."
	case errors.Is(err, client.ErrDecode):
		return "DataPoint sent a response that could not be read."
	default:
		return "Something went wrong: " + err.Error()
	}
}
