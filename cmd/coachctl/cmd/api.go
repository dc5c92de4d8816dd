package cmd

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/coachkit"
	"github.com/dmitrymomot/coachkit/pkg/apiclient"
)

func (a *app) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withKit(cmd.Context(), func(ctx context.Context, kit *coachkit.Kit) error {
				if err := restore(ctx, kit); err != nil {
					return err
				}
				profile, err := kit.Account.Profile(ctx)
				if err != nil {
					return err
				}
				return a.render(profile)
			})
		},
	}
}

func (a *app) getCmd() *cobra.Command {
	var query []string

	c := &cobra.Command{
		Use:   "get <path>",
		Short: "Send an authenticated GET request and print the data",
		Example: `  coachctl get /api/me
  coachctl get /api/sessions --query status=upcoming -o yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := parseQuery(query)
			if err != nil {
				return err
			}
			return a.withKit(cmd.Context(), func(ctx context.Context, kit *coachkit.Kit) error {
				if err := restore(ctx, kit); err != nil {
					return err
				}
				var out any
				if err := kit.API.Get(ctx, args[0], &out, apiclient.WithQuery(values)); err != nil {
					return err
				}
				return a.render(out)
			})
		},
	}

	c.Flags().StringArrayVarP(&query, "query", "q", nil, "query parameter as key=value, repeatable")
	return c
}

func parseQuery(pairs []string) (url.Values, error) {
	values := url.Values{}
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid query parameter %q, want key=value", pair)
		}
		values.Add(key, value)
	}
	return values, nil
}
