package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"smartlist/internal/app"
	"smartlist/internal/core/grocery"
	"smartlist/internal/core/usage"

	"github.com/spf13/cobra"
)

func parseCmd() *cobra.Command {
	var listID string

	cmd := &cobra.Command{
		Use:   "parse [recipe text...]",
		Short: "Extract a categorized grocery list from a recipe",
		Long: `Extract ingredients from recipe text and print them as JSON.

The recipe is read from the arguments, or from stdin when none are given.
Each successful parse counts against the free quota unless --premium is set.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			if len(args) == 0 {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read stdin: %w", err)
				}
				text = string(data)
			}

			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				// 清單需在解析前確認存在
				if listID != "" {
					if _, err := a.Lists.Get(ctx, listID); err != nil {
						return fmt.Errorf("add to list %s: %w", listID, err)
					}
				}

				items, err := a.Recipes.ParseRecipe(ctx, text)
				if err != nil {
					return err
				}
				if listID != "" {
					if _, err := a.Lists.AddItems(ctx, listID, items); err != nil {
						return fmt.Errorf("add to list %s: %w", listID, err)
					}
				}
				return printJSON(cmd.OutOrStdout(), struct {
					Items []grocery.Item `json:"items"`
					Usage usage.Stats    `json:"usage"`
				}{items, a.Recipes.Stats(ctx)})
			})
		},
	}

	cmd.Flags().StringVar(&listID, "add-to", "", "append the parsed items to this grocery list")
	return cmd
}

func usageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "usage",
		Short: "Show remaining free parses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				return printJSON(cmd.OutOrStdout(), a.Recipes.Stats(ctx))
			})
		},
	}
}

func categorizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "categorize <item>...",
		Short: "Show the grocery category for each item",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			type row struct {
				Name     string           `json:"name"`
				Category grocery.Category `json:"category"`
			}
			rows := make([]row, 0, len(args))
			for _, name := range args {
				rows = append(rows, row{Name: name, Category: grocery.Categorize(name)})
			}
			return printJSON(cmd.OutOrStdout(), rows)
		},
	}
}

func listsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lists [list id]",
		Short: "Print saved grocery lists",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				if len(args) == 1 {
					l, err := a.Lists.Get(ctx, args[0])
					if err != nil {
						return err
					}
					return printJSON(cmd.OutOrStdout(), l)
				}
				all, err := a.Lists.All(ctx)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), all)
			})
		},
	}
}
