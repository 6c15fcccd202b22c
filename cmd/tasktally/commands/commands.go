package commands

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/tasktally/core/internal/adapters/repository"
	"github.com/tasktally/core/internal/domain/entities"
	"github.com/tasktally/core/internal/infrastructure/config"
	"github.com/tasktally/core/internal/infrastructure/database"
	"github.com/tasktally/core/internal/infrastructure/logger"
	"github.com/tasktally/core/internal/infrastructure/server"
)

// NewServeCommand creates the serve command
func NewServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the TaskTally web server",
		Long:  "Start the TaskTally web server, migrating all storage partitions first",
		Run: func(cmd *cobra.Command, args []string) {
			runServer()
		},
	}
}

// NewMigrateCommand creates the migrate command with subcommands
func NewMigrateCommand() *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration commands",
		Long:  "Manage migrations across the users, tasks and spending partitions",
	}

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Run all up migrations on every partition",
		Run: func(cmd *cobra.Command, args []string) {
			withDatabase(func(db *database.DB) {
				if err := db.Migrate(); err != nil {
					log.Fatalf("Migration failed: %v", err)
				}
				fmt.Println("Migration up completed successfully")
			})
		},
	})

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back every partition",
		Run: func(cmd *cobra.Command, args []string) {
			withDatabase(func(db *database.DB) {
				if err := db.MigrateDown(); err != nil {
					log.Fatalf("Rollback failed: %v", err)
				}
				fmt.Println("Migration down completed successfully")
			})
		},
	})

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the current migration version per partition",
		Run: func(cmd *cobra.Command, args []string) {
			withDatabase(func(db *database.DB) {
				versions, err := db.MigrationVersions()
				if err != nil {
					log.Fatalf("Failed to get migration versions: %v", err)
				}
				for partition, version := range versions {
					fmt.Printf("%s: %d\n", partition, version)
				}
			})
		},
	})

	return migrateCmd
}

// NewUserCommand creates the user management command
func NewUserCommand() *cobra.Command {
	userCmd := &cobra.Command{
		Use:   "user",
		Short: "User management commands",
	}

	createUserCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new user account",
		Run: func(cmd *cobra.Command, args []string) {
			username, _ := cmd.Flags().GetString("username")
			password, _ := cmd.Flags().GetString("password")

			if strings.TrimSpace(username) == "" || password == "" {
				log.Fatal("Username and password are required")
			}

			createUser(strings.TrimSpace(username), password)
		},
	}

	createUserCmd.Flags().String("username", "", "Username (required)")
	createUserCmd.Flags().String("password", "", "Password (required)")

	userCmd.AddCommand(createUserCmd)
	return userCmd
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print TaskTally version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("TaskTally v1.0.0")
		},
	}
}

func runServer() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger, err := logger.New(cfg.Logger)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer appLogger.Sync()

	db, err := database.Open(cfg.Database)
	if err != nil {
		appLogger.Fatalw("Failed to open database partitions", "error", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		appLogger.Fatalw("Failed to migrate database partitions", "error", err)
	}

	srv, err := server.New(cfg, db, appLogger)
	if err != nil {
		appLogger.Fatalw("Failed to initialize server", "error", err)
	}

	go func() {
		address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		appLogger.Infow("Starting TaskTally server",
			"address", address,
			"environment", cfg.App.Environment,
		)
		if err := srv.Start(address); err != nil {
			appLogger.Infow("Server stopped", "reason", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Errorw("Graceful shutdown failed", "error", err)
	}
}

func withDatabase(fn func(*database.DB)) {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Open(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to open database partitions: %v", err)
	}
	defer db.Close()

	fn(db)
}

func createUser(username, password string) {
	withDatabase(func(db *database.DB) {
		if err := db.Migrate(); err != nil {
			log.Fatalf("Failed to migrate: %v", err)
		}

		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("Failed to hash password: %v", err)
		}

		userRepo := repository.NewUserRepository(db.Users)
		user := &entities.User{
			Username:     username,
			PasswordHash: string(hashedPassword),
		}

		if err := userRepo.Create(context.Background(), user); err != nil {
			log.Fatalf("Failed to create user: %v", err)
		}

		fmt.Printf("User created successfully:\n")
		fmt.Printf("  ID: %s\n", user.ID)
		fmt.Printf("  Username: %s\n", user.Username)
	})
}
