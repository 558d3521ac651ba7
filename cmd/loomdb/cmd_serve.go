package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/loomdb/loomdb/internal/api"
	"github.com/loomdb/loomdb/internal/daemon"
	"github.com/loomdb/loomdb/internal/persistence"
	"github.com/loomdb/loomdb/pkg/config"
)

var (
	servePort       int
	serveHost       string
	serveBackground bool
	serveWatch      bool
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP control surface",
	Long:  `Start the loomdb HTTP server over the configured store document.`,
	Run: func(cmd *cobra.Command, args []string) {
		runServe()
	},
}

// stopCmd represents the stop command
var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the server daemon",
	Run: func(cmd *cobra.Command, args []string) {
		runStop()
	},
}

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show server daemon status",
	Run: func(cmd *cobra.Command, args []string) {
		runStatus()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(statusCmd)

	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to listen on (overrides config)")
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Host to bind to (overrides config)")
	serveCmd.Flags().BoolVarP(&serveBackground, "background", "b", false, "Run in background (daemonize)")
	serveCmd.Flags().BoolVar(&serveWatch, "watch-config", false, "Print the logging level from ./loomdb.yaml whenever the file changes")
}

func runServe() {
	cfg := loadConfig()
	if servePort > 0 {
		cfg.Server.Port = servePort
		cfg.Server.AutoPort = false
	}
	if serveHost != "" {
		cfg.Server.Host = serveHost
	}

	d := daemon.New(config.ConfigPath(), Version)
	if d.IsRunning() {
		status := d.Status()
		fmt.Printf("loomdb server is already running (PID: %d)\n", status.PID)
		fmt.Println("Use 'loomdb stop' to stop it first")
		os.Exit(1)
	}

	if serveBackground {
		args := []string{"serve"}
		if servePort > 0 {
			args = append(args, "--port", fmt.Sprintf("%d", servePort))
		}
		if serveHost != "" {
			args = append(args, "--host", serveHost)
		}
		if dataPath != "" {
			args = append(args, "--data", dataPath)
		}
		// No -b: the child must stay in the foreground of its own
		// process group.
		if err := d.Daemonize(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error starting daemon: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("loomdb server started in background")
		return
	}

	s := openStore(cfg)
	server := api.NewServer(s, cfg)

	if err := os.MkdirAll(config.ConfigPath(), 0755); err == nil {
		if err := d.Start(cfg.Server.Host, cfg.Server.Port, cfg.Persistence.Path); err != nil {
			fmt.Fprintf(os.Stderr, "Error recording daemon state: %v\n", err)
		}
		defer d.Cleanup()
	}

	if serveWatch {
		stop, err := config.Watch("loomdb.yaml", func(next *config.Config) {
			// Report the reloaded logging level; the running server's
			// loggers keep the level they started with.
			fmt.Printf("config reloaded, log level now %s\n", next.Logging.Level)
		})
		if err == nil {
			defer stop()
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	if err := server.StartWithContext(ctx, 10*time.Second); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}

	if cfg.Persistence.AutoSave {
		if err := persistence.SaveStoreFile(s, cfg.Persistence.Path); err != nil {
			fmt.Fprintf(os.Stderr, "Error saving store on shutdown: %v\n", err)
			os.Exit(1)
		}
	}
}

func runStop() {
	d := daemon.New(config.ConfigPath(), Version)
	if err := d.Stop(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("loomdb server stopped")
}

func runStatus() {
	d := daemon.New(config.ConfigPath(), Version)
	status := d.Status()

	if !status.Running {
		fmt.Println("loomdb server is not running")
		return
	}

	fmt.Printf("loomdb server is running\n")
	fmt.Printf("  PID:     %d\n", status.PID)
	fmt.Printf("  Uptime:  %s\n", status.Uptime.Round(time.Second))
	fmt.Printf("  Version: %s\n", status.Version)
	fmt.Printf("  Address: %s:%d\n", status.ServerHost, status.ServerPort)
	fmt.Printf("  Data:    %s\n", status.DataPath)
}
