package service

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"personalblog/app/config"
	"personalblog/app/logging"
	"personalblog/app/repositories"
	"personalblog/app/repositories/sqlstore"

	"github.com/spf13/cobra"
)

// errNotBadger is returned by maintenance commands that only work on the
// embedded badger store.
var errNotBadger = errors.New("this command only supports the badger store; unset DATABASE_URL")

// environment is what every command works from once the config is loaded.
type environment struct {
	cfg *config.Config
	log *slog.Logger
}

func loadEnvironment(cmd *cobra.Command) (*environment, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	log, err := logging.New(cfg.Log.Level, cfg.Log.Format, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	return &environment{cfg: cfg, log: log}, nil
}

// openStore opens the configured store: SQL when a database URL is set,
// badger under the data directory otherwise.
func (e *environment) openStore() (repositories.Store, error) {
	if e.cfg.DatabaseURL != "" {
		return sqlstore.Open(e.cfg.DatabaseURL, e.log)
	}
	return e.openBadger()
}

func (e *environment) openBadger() (*repositories.Repository, error) {
	if e.cfg.DatabaseURL != "" {
		return nil, errNotBadger
	}
	if err := os.MkdirAll(e.cfg.BadgerPath(), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	return repositories.NewRepository(e.cfg.BadgerPath(), repositories.WithLogger(e.log))
}

// badgerExists reports whether a badger database has been written at path.
func badgerExists(path string) bool {
	entries, err := os.ReadDir(path)
	return err == nil && len(entries) > 0
}

// confirm asks a yes/no question on the command's streams.
func confirm(cmd *cobra.Command, question string) bool {
	fmt.Fprintf(cmd.OutOrStdout(), "%s [y/N] ", question)
	answer, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}
