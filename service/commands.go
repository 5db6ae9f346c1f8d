// Package service holds the personalblog command line: the web server and
// the database maintenance commands.
package service

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"personalblog/app/services"

	"github.com/spf13/cobra"
)

// Version is reported by the version command.
const Version = "1.0.0"

// Execute runs the command line and returns the process exit code.
func Execute() int {
	if err := NewRootCommand().Execute(); err != nil {
		return 1
	}
	return 0
}

// NewRootCommand builds the full command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "personalblog",
		Short:        "A personal blog with drafts and moderated comments",
		SilenceUsage: true,
	}
	root.PersistentFlags().String("config", "", "path to a YAML config file")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the blog web server",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	serveCmd.Flags().String("addr", "", "listen address, overrides the config")

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new empty database",
		Args:  cobra.NoArgs,
		RunE:  runInit,
	}

	cleanCmd := &cobra.Command{
		Use:   "clean",
		Short: "Delete every post, comment, user and session",
		Args:  cobra.NoArgs,
		RunE:  runClean,
	}
	cleanCmd.Flags().Bool("yes", false, "do not ask for confirmation")

	backupCmd := &cobra.Command{
		Use:   "backup",
		Short: "Create a backup of the database",
		Args:  cobra.NoArgs,
		RunE:  runBackup,
	}
	backupCmd.Flags().String("dir", "", "directory to write the backup to (default <data_dir>/backups)")

	restoreCmd := &cobra.Command{
		Use:   "restore <file>",
		Short: "Restore the database from a backup",
		Args:  cobra.ExactArgs(1),
		RunE:  runRestore,
	}
	restoreCmd.Flags().Bool("yes", false, "replace an existing database without asking")

	userCmd := &cobra.Command{
		Use:   "user",
		Short: "Manage user accounts",
	}
	userAddCmd := &cobra.Command{
		Use:   "add <username> <email>",
		Short: "Register a new user",
		Args:  cobra.ExactArgs(2),
		RunE:  runUserAdd,
	}
	userAddCmd.Flags().String("password", "", "password for the new account")
	userAddCmd.MarkFlagRequired("password")
	userCmd.AddCommand(userAddCmd)

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "personalblog version %s\n", Version)
		},
	}

	root.AddCommand(serveCmd, initCmd, cleanCmd, backupCmd, restoreCmd, userCmd, versionCmd)
	return root
}

// runInit creates the database and, for SQL stores, its schema.
func runInit(cmd *cobra.Command, args []string) error {
	env, err := loadEnvironment(cmd)
	if err != nil {
		return err
	}
	if env.cfg.DatabaseURL == "" && badgerExists(env.cfg.BadgerPath()) {
		fmt.Fprintln(cmd.OutOrStdout(), "Database already exists. Use 'clean' first if you want to reinitialize.")
		return nil
	}

	store, err := env.openStore()
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	if err := store.Close(); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Database initialized successfully")
	return nil
}

// runClean drops all data from the badger store.
func runClean(cmd *cobra.Command, args []string) error {
	env, err := loadEnvironment(cmd)
	if err != nil {
		return err
	}
	if env.cfg.DatabaseURL != "" {
		return errNotBadger
	}
	if !badgerExists(env.cfg.BadgerPath()) {
		fmt.Fprintln(cmd.OutOrStdout(), "Database is already clean (does not exist)")
		return nil
	}

	yes, _ := cmd.Flags().GetBool("yes")
	if !yes && !confirm(cmd, "Are you sure you want to clean the database? This cannot be undone.") {
		fmt.Fprintln(cmd.OutOrStdout(), "Operation cancelled")
		return nil
	}

	repo, err := env.openBadger()
	if err != nil {
		return err
	}
	defer repo.Close()
	if err := repo.Clear(); err != nil {
		return fmt.Errorf("failed to clean database: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Database cleaned successfully")
	return nil
}

// runBackup writes a badger backup file named after the current time.
func runBackup(cmd *cobra.Command, args []string) error {
	env, err := loadEnvironment(cmd)
	if err != nil {
		return err
	}
	if env.cfg.DatabaseURL != "" {
		return errNotBadger
	}
	if !badgerExists(env.cfg.BadgerPath()) {
		return fmt.Errorf("no database exists to back up at %s", env.cfg.BadgerPath())
	}

	dir, _ := cmd.Flags().GetString("dir")
	if dir == "" {
		dir = env.cfg.BackupDir()
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create backup directory: %w", err)
	}

	repo, err := env.openBadger()
	if err != nil {
		return err
	}
	defer repo.Close()

	backupFile := filepath.Join(dir, fmt.Sprintf("backup_%d.db", time.Now().UnixNano()))
	f, err := os.Create(backupFile)
	if err != nil {
		return fmt.Errorf("failed to create backup file: %w", err)
	}
	defer f.Close()

	if _, err := repo.Backup(f); err != nil {
		return fmt.Errorf("failed to backup database: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Database backed up successfully to %s\n", backupFile)
	return nil
}

// runRestore replaces the badger store's contents with a backup.
func runRestore(cmd *cobra.Command, args []string) error {
	backupFile := args[0]
	fi, err := os.Stat(backupFile)
	if err != nil {
		return fmt.Errorf("backup file does not exist: %s", backupFile)
	}
	if fi.Size() == 0 {
		return fmt.Errorf("backup file is empty: %s", backupFile)
	}

	env, err := loadEnvironment(cmd)
	if err != nil {
		return err
	}
	if env.cfg.DatabaseURL != "" {
		return errNotBadger
	}

	yes, _ := cmd.Flags().GetBool("yes")
	if badgerExists(env.cfg.BadgerPath()) && !yes &&
		!confirm(cmd, "Existing database found. Do you want to replace it?") {
		fmt.Fprintln(cmd.OutOrStdout(), "Operation cancelled")
		return nil
	}

	f, err := os.Open(backupFile)
	if err != nil {
		return fmt.Errorf("failed to open backup file: %w", err)
	}
	defer f.Close()

	repo, err := env.openBadger()
	if err != nil {
		return err
	}
	defer repo.Close()

	if err := repo.Clear(); err != nil {
		return fmt.Errorf("failed to remove existing data: %w", err)
	}
	if err := repo.Restore(f); err != nil {
		return fmt.Errorf("failed to restore database: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Database restored successfully")
	return nil
}

// runUserAdd registers an account without going through the web form.
func runUserAdd(cmd *cobra.Command, args []string) error {
	env, err := loadEnvironment(cmd)
	if err != nil {
		return err
	}
	password, _ := cmd.Flags().GetString("password")

	store, err := env.openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	auth := services.NewAuthService(store.Users(), store.Sessions(),
		services.WithLogger(env.log),
		services.WithSessionLifetime(env.cfg.SessionLifetime),
	)
	user, err := auth.Register(args[0], args[1], password)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created user %s (id %d)\n", user.Username, user.ID)
	return nil
}
