package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kjstillabower/weather-uk/internal/app"
	"github.com/kjstillabower/weather-uk/internal/cache"
	"github.com/kjstillabower/weather-uk/internal/client"
	"github.com/kjstillabower/weather-uk/internal/config"
	"github.com/kjstillabower/weather-uk/internal/observability"
	"github.com/kjstillabower/weather-uk/internal/render"
	"github.com/kjstillabower/weather-uk/internal/service"
	"github.com/kjstillabower/weather-uk/internal/validation"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

const usage = `Usage: weather-uk [-config DIR] [command]

Commands:
  (none)                  interactive forecast browser
  auth                    check the configured API key with DataPoint
  locations [-q TEXT]     list forecast sites, optionally filtered
  forecast -id N          print the 3-hourly forecast for site N
  configure -key KEY      check and save a DataPoint API key
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run is main without os.Exit, so it can be tested.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	global := flag.NewFlagSet("weather-uk", flag.ContinueOnError)
	global.SetOutput(stderr)
	global.Usage = func() { fmt.Fprint(stderr, usage) }
	configDir := global.String("config", "", "config directory (default $WEATHER_UK_CONFIG_DIR or the user config dir)")
	if err := global.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	cfg, err := config.Load(*configDir)
	if err != nil {
		fmt.Fprintf(stderr, "config: %v\n", err)
		return exitError
	}

	logger, err := observability.NewLogger(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		fmt.Fprintf(stderr, "logger: %v\n", err)
		return exitError
	}

	shutdownTracing, err := observability.InitTracing("weather-uk", cfg.ZipkinURL)
	if err != nil {
		logger.Warn("tracing disabled", zap.Error(err))
		shutdownTracing = nil
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := observability.FlushTelemetry(flushCtx, logger, cfg.MetricsTextfile, shutdownTracing); err != nil {
			fmt.Fprintf(stderr, "telemetry flush: %v\n", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	weatherClient := client.NewMetOfficeClient("",
		client.WithBaseURL(cfg.DatapointURL),
		client.WithTimeout(cfg.DatapointTimeout),
		client.WithRateLimit(cfg.RateLimitPerMinute, cfg.RateLimitBurst),
		client.WithLogger(logger),
	)
	defer weatherClient.Close()

	siteCache, closeCache := newCache(ctx, cfg, logger)
	defer closeCache()

	svc := service.NewForecastService(weatherClient, cfg.APIKey, siteCache, cfg.CacheTTL, logger)
	logger.Info("starting",
		zap.String("command", commandName(global.Args())),
		zap.String("cache_backend", cfg.CacheBackend),
		zap.Bool("api_key_configured", svc.HasAPIKey()),
	)

	cmdArgs := global.Args()
	if len(cmdArgs) == 0 {
		if err := app.New(svc, cfg, stdin, stdout, logger).Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("app", zap.Error(err))
			fmt.Fprintf(stderr, "weather-uk: %v\n", err)
			return exitError
		}
		return exitOK
	}

	switch cmdArgs[0] {
	case "auth":
		return report(stderr, logger, cmdAuth(ctx, svc, stdout))
	case "locations":
		return report(stderr, logger, cmdLocations(ctx, svc, cmdArgs[1:], stdout, stderr))
	case "forecast":
		return report(stderr, logger, cmdForecast(ctx, svc, cmdArgs[1:], stdout, stderr))
	case "configure":
		return report(stderr, logger, cmdConfigure(ctx, svc, cfg, cmdArgs[1:], stdout, stderr))
	case "help":
		fmt.Fprint(stdout, usage)
		return exitOK
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", cmdArgs[0], usage)
		return exitUsage
	}
}

// newCache builds the configured site list cache. An unreachable memcached
// falls back to the in-memory cache.
func newCache(ctx context.Context, cfg *config.Config, logger *zap.Logger) (cache.Cache, func()) {
	switch cfg.CacheBackend {
	case "none":
		logger.Info("cache backend: none")
		return nil, func() {}
	case "memcached":
		mc, err := cache.NewMemcachedCache(cfg.MemcachedAddrs, cfg.MemcachedTimeout, cfg.MemcachedMaxIdleConns)
		if err == nil {
			err = mc.WaitReady(ctx, 3)
		}
		if err == nil {
			logger.Info("cache backend: memcached", zap.String("addrs", cfg.MemcachedAddrs))
			return mc, func() {
				if err := mc.Close(); err != nil {
					logger.Error("memcached close", zap.Error(err))
				}
			}
		}
		logger.Warn("memcached unavailable, using in-memory cache", zap.String("addrs", cfg.MemcachedAddrs), zap.Error(err))
		if mc != nil {
			_ = mc.Close()
		}
	}
	logger.Info("cache backend: in_memory")
	return cache.NewInMemoryCache(), func() {}
}

func commandName(args []string) string {
	if len(args) == 0 {
		return "interactive"
	}
	return args[0]
}

// usageError marks a bad invocation; the flag package has already printed why.
type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }

// report prints a command failure and maps it to an exit code.
func report(stderr io.Writer, logger *zap.Logger, err error) int {
	if err == nil {
		return exitOK
	}
	var ue usageError
	if errors.As(err, &ue) {
		if errors.Is(ue.err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}
	logger.Error("command failed", zap.String("category", string(client.CategorizeError(err))), zap.Error(err))
	if errors.Is(err, client.ErrAuthentication) {
		fmt.Fprintln(stderr, "weather-uk: DataPoint did not accept the API key.")
		fmt.Fprintln(stderr, "Run `weather-uk configure -key KEY` or set DATAPOINT_API_KEY.")
		return exitError
	}
	fmt.Fprintf(stderr, "weather-uk: %v\n", err)
	return exitError
}

func cmdAuth(ctx context.Context, svc *service.ForecastService, stdout io.Writer) error {
	if err := svc.Authenticate(ctx); err != nil {
		return err
	}
	fmt.Fprintln(stdout, "API key accepted by DataPoint.")
	return nil
}

func cmdLocations(ctx context.Context, svc *service.ForecastService, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("locations", flag.ContinueOnError)
	fs.SetOutput(stderr)
	q := fs.String("q", "", "only sites whose name or area contains this text")
	if err := fs.Parse(args); err != nil {
		return usageError{err}
	}
	query, err := validation.ValidateSearchQuery(*q)
	if err != nil {
		return err
	}
	locs, err := svc.SearchLocations(ctx, query)
	if err != nil {
		return err
	}
	return render.Locations(stdout, locs)
}

func cmdForecast(ctx context.Context, svc *service.ForecastService, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("forecast", flag.ContinueOnError)
	fs.SetOutput(stderr)
	idArg := fs.String("id", "", "DataPoint site id, as listed by the locations command")
	if err := fs.Parse(args); err != nil {
		return usageError{err}
	}
	id, err := validation.ParseLocationID(*idArg)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return usageError{err}
	}
	days, err := svc.Forecast(ctx, id)
	if err != nil {
		return err
	}
	return render.Forecast(stdout, svc.CachedLocation(ctx, id), days)
}

func cmdConfigure(ctx context.Context, svc *service.ForecastService, keys app.KeyStore, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("configure", flag.ContinueOnError)
	fs.SetOutput(stderr)
	keyArg := fs.String("key", "", "DataPoint API key")
	if err := fs.Parse(args); err != nil {
		return usageError{err}
	}
	key, err := validation.ValidateAPIKey(*keyArg)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return usageError{err}
	}
	if err := svc.ConfigureAPIKey(ctx, key); err != nil {
		return err
	}
	if err := keys.SaveAPIKey(key); err != nil {
		return err
	}
	fmt.Fprintln(stdout, "API key saved.")
	return nil
}
