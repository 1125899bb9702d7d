package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"taskmesh/atlas/pkg/cli"
	"taskmesh/atlas/pkg/config"
)

var routesFlags struct {
	format string
}

var routesCmd = &cobra.Command{
	Use:   "routes",
	Short: "Print the compiled route table",
	Long: `Compile the configured routes and print the resulting table in
match-precedence order (longest pattern first).

Examples:
  # Print as text
  atlas routes

  # Print as JSON
  atlas routes --format json

  # Print as CSV
  atlas routes --format csv`,
	RunE: printRoutes,
}

func init() {
	rootCmd.AddCommand(routesCmd)

	routesCmd.Flags().StringVar(&routesFlags.format, "format", "text", "output format: text, json, csv")
}

func printRoutes(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}

	table, err := buildTable(cfg)
	if err != nil {
		return cli.NewConfigError("routes", err.Error())
	}
	routes := table.Routes()

	switch cli.OutputFormat(routesFlags.format) {
	case cli.FormatJSON:
		type routeRow struct {
			Pattern      string `json:"pattern"`
			Service      string `json:"service"`
			RequiresAuth bool   `json:"requires_auth"`
		}
		rows := make([]routeRow, 0, len(routes))
		for _, route := range routes {
			rows = append(rows, routeRow{
				Pattern:      route.Pattern,
				Service:      route.Service,
				RequiresAuth: route.RequiresAuth,
			})
		}
		return cli.NewFormatter(cli.FormatJSON).FormatTo(os.Stdout, rows)

	case cli.FormatCSV:
		formatter := &cli.CSVFormatter{Headers: []string{"pattern", "service", "requires_auth"}}
		rows := make([][]string, 0, len(routes))
		for _, route := range routes {
			rows = append(rows, []string{route.Pattern, route.Service, strconv.FormatBool(route.RequiresAuth)})
		}
		return formatter.FormatTo(os.Stdout, rows)

	default:
		for _, route := range routes {
			marker := "open"
			if route.RequiresAuth {
				marker = "auth"
			}
			fmt.Printf("%-40s %-20s %s\n", route.Pattern, route.Service, marker)
		}
		return nil
	}
}
