package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"

	"blogFeed/cache"
	"blogFeed/crud"
	"blogFeed/http"
	"blogFeed/logging"
	"blogFeed/storage"
)

// main is the app's entry point.
func main() {
	// Check if the flag "-prod" has been provided. It means that we're running in production.
	productionBool := flag.Bool("prod", false, "Provide this flag in production to ensure that a .config.json file is provided before the application starts.")
	resetBool := flag.Bool("reset", false, "Drop and recreate all tables before starting. Development only.")
	flag.Parse()
	logging.Init(*productionBool)

	// Load configuration from a .config.json file if present, otherwise use the default dev setup.
	// In production the .config.json file is required.
	config, err := LoadConfig(ConfigFile, *productionBool)
	must(err)
	logging.Init(config.IsProd())

	// Open a database connection and execute migrations.
	db := NewDB(config.Database)
	must(Open(db, config.IsProd()))
	defer Close(db)

	// Start the crud services.
	services, err := crud.NewServices(
		db.Gorm,
		crud.WithImage(storage.NewImageService(config.MediaRoot)),
		crud.WithUser(config.Pepper, config.HMACKey),
		crud.WithGroup(),
		crud.WithPost(),
		crud.WithComment(),
		crud.WithFollow(),
		crud.WithFeed(),
	)
	must(err)
	if *resetBool && !config.IsProd() {
		must(services.DestructiveReset())
	} else {
		must(services.AutoMigrate())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Administrative subcommands run instead of the webserver.
	if args := flag.Args(); len(args) > 0 {
		must(runCommand(ctx, services, args))
		return
	}

	feedCache, err := newFeedCache(ctx, config.Cache)
	must(err)

	// Set up a webserver.
	server := http.NewServer(services, feedCache, http.Options{
		CSRFKey:               config.CSRFKey,
		Secure:                config.IsProd(),
		MediaRoot:             config.MediaRoot,
		InvalidateFeedOnWrite: config.InvalidateFeedOnWrite,
	})

	// Serve the app.
	must(server.Run(ctx, config.Port))
}

// newFeedCache builds the global feed cache on the configured backend.
func newFeedCache(ctx context.Context, cfg CacheConfig) (*cache.FeedCache, error) {
	ttl := cache.WithTTL(time.Duration(cfg.TTLSeconds) * time.Second)
	switch cfg.Backend {
	case "", "memory":
		return cache.New(cache.NewMemoryStore(time.Now), ttl), nil
	case "redis":
		store, err := cache.DialRedis(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		return cache.New(store, ttl), nil
	default:
		return nil, errors.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

// must is a little helper for shortening the fatal log instruction.
func must(err error) {
	if err != nil {
		logging.Log.WithError(err).Fatal("blogFeed stopped")
	}
}
