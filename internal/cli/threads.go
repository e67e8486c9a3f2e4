package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/mnemo/internal/store"
)

// threadsCmd lists stored threads
var threadsCmd = &cobra.Command{
	Use:   "threads",
	Short: "List stored threads",
	Long:  `List the threads saved with 'mnemo digest --save', most recent first.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		s, err := store.NewStore(cfg.Store)
		if err != nil {
			return err
		}

		summaries, err := s.List()
		if err != nil {
			return err
		}
		if len(summaries) == 0 {
			fmt.Fprintln(os.Stderr, "No stored threads.")
			return nil
		}

		for _, sum := range summaries {
			title := sum.Title
			if title == "" {
				title = "(untitled)"
			}
			fmt.Printf("%s  %s  %d turns  updated %s\n",
				sum.ThreadID, title, sum.TurnCount, sum.UpdatedAt.Format("2006-01-02 15:04"))
		}
		return nil
	},
}

// threadsRmCmd deletes a stored thread
var threadsRmCmd = &cobra.Command{
	Use:   "rm <thread-id>",
	Short: "Delete a stored thread",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		s, err := store.NewStore(cfg.Store)
		if err != nil {
			return err
		}
		if err := s.Delete(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Deleted thread %s\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(threadsCmd)
	threadsCmd.AddCommand(threadsRmCmd)
}
