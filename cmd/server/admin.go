package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"askhub/internal/models"
	"askhub/internal/services"

	"github.com/spf13/cobra"
)

func newMigrateCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema and seed categories",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			a.close()
			fmt.Println("database migrated")
			return nil
		},
	}
}

func newAPIKeyCommand(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apikey",
		Short: "Manage bot API keys",
	}

	var (
		name      string
		expiresIn time.Duration
	)
	create := &cobra.Command{
		Use:   "create",
		Short: "Create an API key; its name is the bot app name",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer a.close()

			var expiresAt *time.Time
			if expiresIn > 0 {
				t := time.Now().Add(expiresIn)
				expiresAt = &t
			}
			key, err := services.NewAPIKeyService(a.db, a.logger).Create(cmd.Context(), name, expiresAt)
			if err != nil {
				return err
			}
			fmt.Printf("id:   %s\nname: %s\nkey:  %s\n", key.ID, key.Name, key.Key)
			return nil
		},
	}
	create.Flags().StringVar(&name, "name", "", "bot app name (required)")
	create.Flags().DurationVar(&expiresIn, "expires-in", 0, "lifetime of the key, e.g. 720h (0 = never)")
	_ = create.MarkFlagRequired("name")

	list := &cobra.Command{
		Use:   "list",
		Short: "List API keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer a.close()

			keys, err := services.NewAPIKeyService(a.db, a.logger).List(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tACTIVE\tEXPIRES\tLAST USED")
			for _, k := range keys {
				fmt.Fprintf(w, "%s\t%s\t%t\t%s\t%s\n", k.ID, k.Name, k.IsActive, formatTime(k.ExpiresAt), formatTime(k.LastUsedAt))
			}
			return w.Flush()
		},
	}

	cmd.AddCommand(create, list)
	return cmd
}

func newUserCommand(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage user profiles",
	}

	var in services.RegisterInput
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a user profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer a.close()

			u, err := services.NewAuthService(a.db, a.logger).Register(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Printf("created %s user %s (%s)\n", u.Role, u.Email, u.ID)
			return nil
		},
	}
	create.Flags().StringVar(&in.Email, "email", "", "email (required)")
	create.Flags().StringVar(&in.Password, "password", "", "password, at least 8 characters (required)")
	create.Flags().StringVar(&in.FirstName, "first-name", "", "first name")
	create.Flags().StringVar(&in.LastName, "last-name", "", "last name")
	create.Flags().StringVar(&in.Role, "role", models.RoleUser, "user or admin")
	_ = create.MarkFlagRequired("email")
	_ = create.MarkFlagRequired("password")

	cmd.AddCommand(create)
	return cmd
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format(time.RFC3339)
}
