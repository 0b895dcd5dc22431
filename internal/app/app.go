package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/BigPharmacist/wild-kaeee-sub000/internal/api"
	"github.com/BigPharmacist/wild-kaeee-sub000/internal/config"
	"github.com/BigPharmacist/wild-kaeee-sub000/internal/digest"
	"github.com/BigPharmacist/wild-kaeee-sub000/internal/roster"
	"github.com/BigPharmacist/wild-kaeee-sub000/internal/security"
	"github.com/BigPharmacist/wild-kaeee-sub000/internal/store"
)

type Application struct {
	cfg    config.Config
	policy config.Policy
	store  store.Store
	logger *slog.Logger
}

func New(cfg config.Config, policy config.Policy, st store.Store, logger *slog.Logger) *Application {
	if logger == nil {
		logger = slog.Default()
	}
	return &Application{cfg: cfg, policy: policy, store: st, logger: logger}
}

// OpenStore builds the authoritative store from config.
func OpenStore(cfg config.Config) (store.Store, error) {
	st, err := store.OpenSQLite(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return st, nil
}

func (a *Application) Run(ctx context.Context) error {
	rosterSyncer := roster.NewSyncer(a.store, a.cfg.SystemUserID, a.logger)
	server := api.New(api.Options{
		Store:  a.store,
		Roster: rosterSyncer,
		DigestPolicy: digest.Policy{
			HorizonDays:          a.policy.Digest.HorizonDays,
			UpcomingLimit:        a.policy.Digest.UpcomingLimit,
			ExcludeCalendarNames: a.policy.Digest.ExcludeCalendars,
		},
		Auth: security.BearerAuth{
			Enabled: a.cfg.RequireBearerToken,
			Token:   a.cfg.BearerToken,
		},
		Logger: a.logger,
	})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 2)
	wg := sync.WaitGroup{}

	if a.cfg.BindAddress != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := server.ServeTCP(ctx, a.cfg.BindAddress); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("tcp server: %w", err)
			}
		}()
	}
	if a.cfg.UnixSocketPath != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := server.ServeUnix(ctx, a.cfg.UnixSocketPath); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("unix server: %w", err)
			}
		}()
	}

	select {
	case err := <-errCh:
		cancel()
		wg.Wait()
		return err
	case <-ctx.Done():
		wg.Wait()
		return nil
	}
}
