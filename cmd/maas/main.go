package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/sfeole/maas/internal/api"
	"github.com/sfeole/maas/internal/config"
	"github.com/sfeole/maas/internal/dns"
	"github.com/sfeole/maas/internal/repository"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cfg := config.NewConfig()

	root := &cobra.Command{
		Use:   "maas",
		Short: "Provisioning service managing DNS zones and DHCP leases",
	}
	root.PersistentFlags().StringVar(&cfg.DBPath, "db", cfg.DBPath, "path to the sqlite database")

	root.AddCommand(newServeCmd(cfg))
	root.AddCommand(newGenerateZonesCmd(cfg))
	return root
}

func newServeCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()

			db, err := cfg.InitializeDatabase()
			if err != nil {
				return fmt.Errorf("failed to initialize database: %w", err)
			}
			defer db.Close()

			r := chi.NewRouter()
			r.Use(middleware.Logger)
			r.Use(middleware.Recoverer)

			api.NewAPI(db, logger).RegisterRoutes(r)

			r.Get("/", func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprintln(w, "MAAS region service is running")
			})

			addr := ":" + cfg.Port
			logger.Info().Str("addr", addr).Msg("starting HTTP API")
			return http.ListenAndServe(addr, r)
		},
	}
	cmd.Flags().StringVar(&cfg.Port, "port", cfg.Port, "port to listen on")
	return cmd
}

func newGenerateZonesCmd(cfg *config.Config) *cobra.Command {
	var serial uint32

	cmd := &cobra.Command{
		Use:   "generate-zones",
		Short: "Generate DNS zone files for every node group",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()

			db, err := cfg.InitializeDatabase()
			if err != nil {
				return fmt.Errorf("failed to initialize database: %w", err)
			}
			defer db.Close()

			ctx := context.Background()
			groups, err := repository.NewNodeGroupRepository(db).FindAll(ctx)
			if err != nil {
				return fmt.Errorf("failed to list node groups: %w", err)
			}
			if len(groups) == 0 {
				logger.Info().Msg("no node groups defined; nothing to generate")
				return nil
			}

			opts := dns.GenerateOptions{Serial: serial}
			if serial == 0 {
				opts.SerialSource = func() uint32 { return dns.UnixSerial(time.Now()) }
			}

			generator := dns.NewGenerator(repository.NewDNSStore(db), logger)
			zones, err := generator.Generate(ctx, groups, opts)
			if err != nil {
				return err
			}

			for _, zone := range zones {
				text, err := zone.Render()
				if err != nil {
					return fmt.Errorf("failed to render zone %s: %w", zone.Origin, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "; zone %s (%s)\n%s\n", zone.Origin, zone.Kind, text)
			}
			return nil
		},
	}
	cmd.Flags().Uint32Var(&serial, "serial", 0, "zone serial to use (defaults to the current time)")
	return cmd
}

func newLogger() zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
}
