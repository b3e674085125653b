// Command quotedesk-admin bootstraps companies and access codes, which have
// no HTTP surface.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/brushline/quotedesk/config"
	"github.com/brushline/quotedesk/internal/models"
	pgrepo "github.com/brushline/quotedesk/internal/repositories/postgres"
	"github.com/brushline/quotedesk/internal/utils"
)

func main() {
	_ = godotenv.Load()
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "quotedesk-admin",
		Short:         "Manage quotedesk companies and access codes",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			if err := config.InitPostgres(); err != nil {
				return fmt.Errorf("postgres: %w", err)
			}
			return config.MigratePostgres()
		},
	}
	root.AddCommand(migrateCmd(), companyCmd(), accessCodeCmd())
	return root
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the relational tables",
		RunE: func(cmd *cobra.Command, _ []string) error {
			// PersistentPreRunE already migrated
			fmt.Fprintln(cmd.OutOrStdout(), "tables are up to date")
			return nil
		},
	}
}

func companyCmd() *cobra.Command {
	var (
		name, slug, terms, rateType string
		rate, markup                float64
	)
	create := &cobra.Command{
		Use:   "create",
		Short: "Register a painting company",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(name) == "" || strings.TrimSpace(slug) == "" {
				return fmt.Errorf("--name and --slug are required")
			}
			c := &models.Company{
				ID:               uuid.NewString(),
				Name:             strings.TrimSpace(name),
				Slug:             strings.ToLower(strings.TrimSpace(slug)),
				DefaultLaborRate: rate,
				PaymentTerms:     terms,
				CreatedAt:        time.Now().UTC(),
			}
			if rateType != "" {
				c.DefaultLaborRateType = models.LaborRateType(rateType)
				if !c.DefaultLaborRateType.Valid() {
					return fmt.Errorf("--labor-rate-type must be hourly or sqft")
				}
			}
			if cmd.Flags().Changed("markup") {
				c.DefaultMarkup = &markup
			}

			repo := pgrepo.NewCompanyRepo(config.PostgresDB)
			if err := repo.Create(cmd.Context(), c); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "company %s (%s) created\n", c.Slug, c.ID)
			return nil
		},
	}
	create.Flags().StringVar(&name, "name", "", "display name")
	create.Flags().StringVar(&slug, "slug", "", "login slug")
	create.Flags().StringVar(&terms, "payment-terms", "", "payment terms shown on client quotes")
	create.Flags().StringVar(&rateType, "labor-rate-type", "", "default labor rate type (hourly|sqft)")
	create.Flags().Float64Var(&rate, "labor-rate", 0, "default labor rate")
	create.Flags().Float64Var(&markup, "markup", 0, "default markup percentage")

	cmd := &cobra.Command{Use: "company", Short: "Company commands"}
	cmd.AddCommand(create)
	return cmd
}

func accessCodeCmd() *cobra.Command {
	var (
		slug, code, role, label string
		ttl                     time.Duration
	)
	create := &cobra.Command{
		Use:   "create",
		Short: "Issue an access code for a company",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			repo := pgrepo.NewCompanyRepo(config.PostgresDB)
			co, err := repo.GetBySlug(ctx, strings.ToLower(strings.TrimSpace(slug)))
			if err != nil {
				return fmt.Errorf("company %q: %w", slug, err)
			}

			r := models.UserRole(strings.ToLower(role))
			if r != models.RoleUser && r != models.RoleAdmin {
				return fmt.Errorf("--role must be user or admin")
			}
			if len(strings.TrimSpace(code)) < 6 {
				return fmt.Errorf("--code must be at least 6 characters")
			}
			hash, err := utils.HashSecret(strings.TrimSpace(code))
			if err != nil {
				return err
			}

			now := time.Now().UTC()
			ac := &models.AccessCode{
				ID:        uuid.NewString(),
				CompanyID: co.ID,
				CodeHash:  hash,
				Role:      r,
				Label:     label,
				Active:    true,
				CreatedAt: now,
			}
			if ttl > 0 {
				exp := now.Add(ttl)
				ac.ExpiresAt = &exp
			}
			if err := repo.CreateAccessCode(ctx, ac); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "access code %s (%s) issued for %s\n", ac.ID, r, co.Slug)
			return nil
		},
	}
	create.Flags().StringVar(&slug, "company", "", "company slug")
	create.Flags().StringVar(&code, "code", "", "the code contractors will type")
	create.Flags().StringVar(&role, "role", string(models.RoleUser), "user|admin")
	create.Flags().StringVar(&label, "label", "", "who the code is for")
	create.Flags().DurationVar(&ttl, "expires-in", 0, "expiry, e.g. 720h; 0 never expires")
	_ = create.MarkFlagRequired("company")
	_ = create.MarkFlagRequired("code")

	cmd := &cobra.Command{Use: "access-code", Short: "Access code commands"}
	cmd.AddCommand(create)
	return cmd
}
