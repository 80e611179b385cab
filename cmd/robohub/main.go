package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"robohub/internal/config"
	"robohub/internal/domain"
	"robohub/internal/logger"
	"robohub/internal/server"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var errLoginRequired = errors.New("login required")

// app carries what every command shares. deps are built on first use so
// commands like mock-backend never touch the session store.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	deps   *server.Deps
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	a.cfg = config.Load()

	log, err := logger.New(a.cfg.Server.Env, "stderr")
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	a.logger = log
	return nil
}

func (a *app) teardown(cmd *cobra.Command, _ []string) {
	if a.deps != nil {
		if err := a.deps.Close(); err != nil {
			a.logger.Warn("Failed to close session store", zap.Error(err))
		}
	}
	a.logger.Sync()
}

// session builds the deps and restores the persisted session once.
func (a *app) session(ctx context.Context) (*server.Deps, error) {
	if a.deps != nil {
		return a.deps, nil
	}
	deps, err := server.NewDeps(ctx, a.cfg, a.logger)
	if err != nil {
		return nil, err
	}
	if err := deps.Session.Restore(ctx); err != nil {
		deps.Close()
		return nil, err
	}
	a.deps = deps
	return deps, nil
}

// signedIn is session plus the requirement that someone is signed in.
func (a *app) signedIn(ctx context.Context) (*server.Deps, *domain.User, error) {
	deps, err := a.session(ctx)
	if err != nil {
		return nil, nil, err
	}
	user := deps.Session.CurrentUser()
	if user == nil {
		return nil, nil, errLoginRequired
	}
	return deps, user, nil
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:               "robohub",
		Short:             "RoboHub storefront client",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: a.teardown,
	}

	root.AddCommand(
		newServeCmd(a),
		newMockBackendCmd(a),
		newLoginCmd(a),
		newRegisterCmd(a),
		newLogoutCmd(a),
		newWhoamiCmd(a),
		newCatalogCmd(a),
		newCategoriesCmd(a),
		newProductCmd(a),
		newCartCmd(a),
		newCheckoutCmd(a),
		newOrdersCmd(a),
	)
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", domain.Message(err))
		os.Exit(1)
	}
}
