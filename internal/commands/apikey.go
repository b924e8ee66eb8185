package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Ramsey-B/fern/pkg/repositories"
)

// NewAPIKeyCmd manages the keys that unlock privileged queries.
func NewAPIKeyCmd() *cobra.Command {
	var envFile string
	cmd := &cobra.Command{
		Use:   "apikey",
		Short: "Manage API keys",
	}
	cmd.PersistentFlags().StringVar(&envFile, "env-file", "", "dotenv file to load (default .env)")

	var endpoints []string
	create := &cobra.Command{
		Use:   "create [owner]",
		Short: "Issue a key, restricted to --endpoint paths when given",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAPIKeys(cmd.Context(), envFile, func(ctx context.Context, repo *repositories.APIKeyRepository) error {
				var allowed []string
				if len(endpoints) > 0 {
					allowed = endpoints
				}
				key, err := repo.Create(ctx, args[0], allowed)
				if err != nil {
					return err
				}
				scope := "all endpoints"
				if allowed != nil {
					scope = strings.Join(allowed, ", ")
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", key.Key, key.Owner, scope)
				return nil
			})
		},
	}
	create.Flags().StringSliceVar(&endpoints, "endpoint", nil, "endpoint path the key may query (repeatable)")

	revoke := &cobra.Command{
		Use:   "revoke [key]",
		Short: "Delete a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAPIKeys(cmd.Context(), envFile, func(ctx context.Context, repo *repositories.APIKeyRepository) error {
				revoked, err := repo.Revoke(ctx, args[0])
				if err != nil {
					return err
				}
				if !revoked {
					return fmt.Errorf("api key %s does not exist", args[0])
				}
				fmt.Fprintln(cmd.OutOrStdout(), "revoked")
				return nil
			})
		},
	}

	cmd.AddCommand(create, revoke)
	return cmd
}

func withAPIKeys(ctx context.Context, envFile string, fn func(context.Context, *repositories.APIKeyRepository) error) error {
	cfg, err := loadConfig(envFile)
	if err != nil {
		return err
	}
	logger, flush, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer flush()

	db, err := connect(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	return fn(ctx, repositories.NewAPIKeyRepository(db, logger))
}
