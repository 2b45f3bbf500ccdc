package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/beyourshelf/bookstore/internal/cart"
	"github.com/beyourshelf/bookstore/internal/catalog"
	"github.com/beyourshelf/bookstore/internal/config"
	"github.com/beyourshelf/bookstore/internal/events"
	"github.com/beyourshelf/bookstore/internal/inventory"
	"github.com/beyourshelf/bookstore/internal/order"
	"github.com/beyourshelf/bookstore/internal/payment"
	"github.com/beyourshelf/bookstore/internal/store"
	"github.com/beyourshelf/bookstore/internal/user"
	"github.com/beyourshelf/bookstore/internal/web"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout})

	cfg := config.Load()
	ctx := context.Background()

	db, err := store.Open(cfg.DBPath)
	must(err)
	defer db.Close()
	must(store.Migrate(ctx, db))
	if cfg.SeedOnStart {
		must(store.Seed(ctx, db))
	}

	var pub events.Publisher = events.Nop{}
	if cfg.RabbitURL != "" {
		rabbit, err := events.NewRabbit(cfg.RabbitURL, cfg.ExchangeName)
		if err != nil {
			log.Warn().Err(err).Msg("broker unavailable, events disabled")
		} else {
			pub = rabbit
			log.Info().Str("exchange", cfg.ExchangeName).Msg("event publisher connected")
		}
	}
	defer pub.Close()

	books := store.NewBookRepository(db)
	users := store.NewUserRepository(db)
	carts := store.NewCartRepository(db)
	orders := store.NewOrderRepository(db)

	userSvc := user.NewService(users, pub)
	cartSvc := cart.NewService(carts, books)
	catalogSvc := catalog.NewService(books, pub)
	orderSvc := order.NewService(orders, pub)
	inventorySvc := inventory.NewService(books)
	provider := payment.NewSimulatedProvider()

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: web.NewServer(userSvc, cartSvc, catalogSvc, orderSvc, inventorySvc, provider).Handler(),
	}

	go func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
		<-ch
		log.Warn().Msg("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", cfg.HTTPAddr).Msg("bookstore listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func must(err error) {
	if err != nil {
		log.Fatal().Err(err).Msg("fatal")
	}
}
