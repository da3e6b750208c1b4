package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"necessities/swap/internal/config"
	"necessities/swap/internal/models"
	"necessities/swap/internal/repository"
	"necessities/swap/internal/security"
	"necessities/swap/internal/service"
)

type cli struct {
	driver string
	open   func(ctx context.Context) (*repository.Store, error)
	out    io.Writer
	log    zerolog.Logger
}

func (c *cli) rootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "swapctl",
		Short:         "Operate a Necessities Swap deployment",
		SilenceUsage: true,
	}

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create the document tables and indexes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd.Context(), func(*repository.Store) error {
				if c.driver == config.StoreDriverMemory {
					fmt.Fprintln(c.out, "memory store has no schema")
					return nil
				}
				fmt.Fprintln(c.out, "schema is up to date")
				return nil
			})
		},
	}

	createAdminCmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an administrator account",
		RunE: func(cmd *cobra.Command, args []string) error {
			email, _ := cmd.Flags().GetString("email")
			password, _ := cmd.Flags().GetString("password")
			name, _ := cmd.Flags().GetString("name")
			return c.createAdmin(cmd.Context(), email, password, name)
		},
	}
	createAdminCmd.Flags().String("email", "", "admin login email")
	createAdminCmd.Flags().String("password", "", "admin password")
	createAdminCmd.Flags().String("name", "Administrator", "display name")
	_ = createAdminCmd.MarkFlagRequired("email")
	_ = createAdminCmd.MarkFlagRequired("password")

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Print user and activity statistics as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.stats(cmd.Context())
		},
	}

	rootCmd.AddCommand(migrateCmd, createAdminCmd, statsCmd)
	return rootCmd
}

// withStore opens the store for the duration of fn. Opening a postgres
// store ensures the schema.
func (c *cli) withStore(ctx context.Context, fn func(*repository.Store) error) error {
	store, err := c.open(ctx)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

func (c *cli) createAdmin(ctx context.Context, email, password, name string) error {
	return c.withStore(ctx, func(store *repository.Store) error {
		users := repository.NewUserRepository(store.Users)
		svc := service.NewUserService(users, service.NewGuard(users), security.NewHasher(security.DefaultParams), c.log)

		id, err := svc.CreateAccount(ctx, service.RegisterInput{
			Email:    email,
			Password: password,
			Name:     name,
		}, models.UserRoleAdmin)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "admin %s created with id %s\n", email, id)
		return nil
	})
}

func (c *cli) stats(ctx context.Context) error {
	return c.withStore(ctx, func(store *repository.Store) error {
		analytics := service.NewAnalytics(
			repository.NewUserRepository(store.Users),
			repository.NewItemRepository(store.Items),
		)
		users, err := analytics.Users(ctx)
		if err != nil {
			return err
		}
		activity, err := analytics.Activity(ctx)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(c.out)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"users":    users,
			"activity": activity,
		})
	})
}
