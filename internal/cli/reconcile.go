package cli

import (
	"flag"
	"fmt"
	"os"

	"github.com/mrlokans/bookshelf/internal/config"
	"github.com/mrlokans/bookshelf/internal/database"
	"github.com/mrlokans/bookshelf/internal/database/reviews"
)

type ReconcileCommand struct {
	DatabasePath string
}

func NewReconcileCommand() *ReconcileCommand {
	return &ReconcileCommand{}
}

func (cmd *ReconcileCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("reconcile", flag.ExitOnError)

	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the database file")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s reconcile [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Recompute every book's stored rating aggregate from its reviews.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	return fs.Parse(args)
}

func (cmd *ReconcileCommand) Run() error {
	db, err := database.NewDatabase(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	cfg := config.NewConfig()
	repo := reviews.NewRepository(db.DB, cfg.Ratings)

	drifted, err := repo.ReconcileAllAggregates()
	if err != nil {
		return fmt.Errorf("reconciliation failed: %w", err)
	}

	if drifted == 0 {
		fmt.Println("All rating aggregates are consistent")
	} else {
		fmt.Printf("Repaired rating aggregates for %d books\n", drifted)
	}
	return nil
}
