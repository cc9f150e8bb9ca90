package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/aretw0/sapling"
	"github.com/aretw0/sapling/internal/logging"
	"github.com/aretw0/sapling/pkg/adapters/httpapi"
	"github.com/aretw0/sapling/pkg/collection"
	"github.com/aretw0/sapling/pkg/observability"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long:  `Starts the collection catalog API. Schematic runs over HTTP are always dry runs; real commits stay local to the CLI and the library.`,
	Run: func(cmd *cobra.Command, args []string) {
		port, _ := cmd.Flags().GetString("port")
		dir, _ := cmd.Flags().GetString("dir")
		collectionsDir, _ := cmd.Flags().GetString("collections")
		debug, _ := cmd.Flags().GetBool("debug")

		level := slog.LevelInfo
		if debug {
			level = slog.LevelDebug
		}
		logger := logging.New(level)

		promRegistry := prometheus.NewRegistry()

		opts := []sapling.Option{
			sapling.WithLogger(logger),
			sapling.WithMetrics(observability.New(promRegistry)),
		}
		if collectionsDir != "" {
			resolver, err := collection.NewFSResolver(collectionsDir)
			if err != nil {
				fmt.Printf("Error initializing sapling: %v\n", err)
				os.Exit(1)
			}
			opts = append(opts, sapling.WithResolver(resolver))
		}

		ws, err := sapling.New(dir, opts...)
		if err != nil {
			fmt.Printf("Error initializing sapling: %v\n", err)
			os.Exit(1)
		}

		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{}))
		mux.Handle("/", httpapi.NewHandler(ws.Resolver(), ws.Engine(), logger))

		srv := &http.Server{
			Addr:    ":" + port,
			Handler: mux,
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)

		go func() {
			fmt.Printf("Starting Sapling Server on %s\n", srv.Addr)
			serverErrors <- srv.ListenAndServe()
		}()

		// Channel to listen for interrupt or terminate signals.
		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			fmt.Printf("Server error: %v\n", err)
			os.Exit(1)

		case sig := <-shutdown:
			fmt.Printf("\nStart shutdown... Signal: %v\n", sig)

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				fmt.Printf("Graceful shutdown did not complete in %v: %v\n", 5*time.Second, err)
				if err := srv.Close(); err != nil {
					fmt.Printf("Error killing server: %v\n", err)
				}
			}
			fmt.Println("Sapling Server stopped gracefully")
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("port", "p", "8080", "Port to listen on")
}
