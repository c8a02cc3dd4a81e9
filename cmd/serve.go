package cmd

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/trivial-timecard/internal/config"
	"github.com/Tiliavir/trivial-timecard/internal/database"
	"github.com/Tiliavir/trivial-timecard/internal/server"
	"github.com/Tiliavir/trivial-timecard/internal/storage"
)

var (
	serveAddr string
	serveDB   string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the reference timecard backend (REST API over SQLite)",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config, :3535)")
	serveCmd.Flags().StringVar(&serveDB, "db", "", "SQLite database file (default ~/.ttc/backend.db)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	addr := cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}
	dbPath := cfg.Server.DBPath
	if serveDB != "" {
		dbPath = serveDB
	}
	if dbPath == "" {
		base, err := storage.BaseDir()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
		dbPath = filepath.Join(base, "backend.db")
	}

	db, err := database.Open(dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	log.Printf("Timecard backend listening on %s (database %s)", addr, dbPath)
	return server.New(server.NewRepository(db)).ListenAndServe(cmd.Context(), addr)
}
