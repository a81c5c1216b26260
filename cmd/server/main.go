package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"xclone/internal/config"
	"xclone/internal/database"
	"xclone/internal/logger"
	"xclone/internal/repository"
	"xclone/internal/seed"
	"xclone/internal/transport/http"
)

var (
	cfg *config.Config

	seedOpts seed.Options
)

var rootCmd = &cobra.Command{
	Use:   "server",
	Short: "xclone API server",
	Long: `xclone serves the social API: accounts, posts, replies, follows,
direct messages and the realtime socket.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.LoadConfig()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if err := logger.Initialize(cfg.LogLevel, cfg.LogFile); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Close()
	},
	RunE: runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server (default)",
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := database.Connect(cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := database.Migrate(cmd.Context(), db); err != nil {
			return err
		}
		logger.Log.Info("[Migrate] Schema applied")
		return nil
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Fill the database with fake users and posts",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := database.Connect(cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		seeder := seed.NewSeeder(
			db,
			repository.NewUserRepository(db),
			repository.NewFollowRepository(db),
			repository.NewPostRepository(db),
			repository.NewReplyRepository(db),
		).WithDefaultPhotos(cfg.DefaultProfilePhotoURL, cfg.DefaultCoverPhotoURL)

		res, err := seeder.Run(cmd.Context(), seedOpts)
		if err != nil {
			return err
		}
		fmt.Printf("Seeded %d users, %d follows, %d posts, %d replies (password %q)\n",
			len(res.UserIDs), res.Follows, len(res.PostIDs), res.Replies, seed.DefaultPassword)
		return nil
	},
}

func init() {
	seedCmd.Flags().IntVar(&seedOpts.Users, "users", 20, "Number of users to create")
	seedCmd.Flags().IntVar(&seedOpts.Posts, "posts", 100, "Number of posts to create")
	seedCmd.Flags().IntVar(&seedOpts.Replies, "replies", 200, "Number of replies to create")
	seedCmd.Flags().IntVar(&seedOpts.FollowsPerUser, "follows", 5, "Follow attempts per user")
	seedCmd.Flags().Uint64Var(&seedOpts.Seed, "seed", 0, "Random seed (0 picks one)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv, err := http.NewServer(ctx, cfg)
	if err != nil {
		return err
	}
	defer srv.Close()

	if err := srv.Run(ctx); err != nil {
		logger.Log.Error("[Server] Stopped with error", zap.Error(err))
		return err
	}
	logger.Log.Info("[Server] Stopped")
	return nil
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
