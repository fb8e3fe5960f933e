package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sk1972-mend/mendinsurance/internal/auth"
	"github.com/sk1972-mend/mendinsurance/migrations"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.DatabaseURL == "" {
			return errors.New("DATABASE_URL or PG_DSN is required")
		}
		db, err := openDB(cmd.Context(), cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
		applied, err := migrations.Apply(cmd.Context(), db)
		if err != nil {
			return err
		}
		logger.Info("migrations applied", zap.Strings("files", applied))
		return nil
	},
}

var tiersCmd = &cobra.Command{
	Use:   "tiers",
	Short: "Print the effective tier price sheet",
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := cfg.Rules.Catalog()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, tier := range cat.Tiers() {
			fmt.Fprintf(out, "tier %d  %-10s premium %s/mo  deductible %s\n",
				tier.Tier, tier.Label, tier.MonthlyPremium.StringFixed(2), tier.Deductible.StringFixed(2))
		}
		return nil
	},
}

var (
	tokenSubject string
	tokenRole    string
	tokenTTL     time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a signed bearer token for local testing",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.JWTSecret == "" {
			return errors.New("AUTH_JWT_SECRET is required")
		}
		role, ok := auth.NormalizeRole(tokenRole)
		if !ok {
			return fmt.Errorf("unknown role %q", tokenRole)
		}
		token, err := auth.IssueJWT([]byte(cfg.JWTSecret), tokenSubject, role, tokenTTL)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenSubject, "subject", "", "token subject (user id)")
	tokenCmd.Flags().StringVar(&tokenRole, "role", string(auth.RoleCustomer), "customer, shop, admin or enterprise")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", time.Hour, "token lifetime")
	_ = tokenCmd.MarkFlagRequired("subject")
}

func openDB(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}
