package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/vytor/studyflash/internal/db"
	"github.com/vytor/studyflash/internal/models"
	"github.com/vytor/studyflash/internal/repository/sqlite"
	"github.com/vytor/studyflash/internal/study"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Inspect or clear paused study sessions",
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List a learner's paused sessions, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, closeDB, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer closeDB()

		snaps, err := store.List(cmd.Context())
		if err != nil {
			return err
		}
		if len(snaps) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "no paused sessions")
			return nil
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "KEY\tCARD\tREMAINING\tSAVED\tNEXT")
		for _, s := range snaps {
			fmt.Fprintf(tw, "%s\t%d/%d\t%d\t%s\t%s\n",
				s.Key, s.CurrentIndex+1, len(s.DeckCards), s.Remaining(), s.SavedAt.Local().Format("2006-01-02 15:04"), nextPrompt(s))
		}
		return tw.Flush()
	},
}

var sessionsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete a learner's paused session",
	RunE: func(cmd *cobra.Command, args []string) error {
		all, _ := cmd.Flags().GetBool("all")
		rawKey, _ := cmd.Flags().GetString("key")
		if all == (rawKey != "") {
			return fmt.Errorf("pass exactly one of --key or --all")
		}

		store, closeDB, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer closeDB()

		var keys []models.SessionKey
		if all {
			snaps, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			for _, s := range snaps {
				keys = append(keys, s.Key)
			}
		} else {
			key, err := models.ParseSessionKey(rawKey)
			if err != nil {
				return err
			}
			keys = append(keys, key)
		}

		for _, key := range keys {
			if err := store.Clear(cmd.Context(), key); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "cleared %s\n", key)
		}
		return nil
	},
}

func init() {
	sessionsCmd.PersistentFlags().String("learner", "", "Learner ID (required)")
	_ = sessionsCmd.MarkPersistentFlagRequired("learner")

	sessionsClearCmd.Flags().String("key", "", `Session key: "review" or "deck:<id>"`)
	sessionsClearCmd.Flags().Bool("all", false, "Clear every paused session of the learner")

	sessionsCmd.AddCommand(sessionsListCmd)
	sessionsCmd.AddCommand(sessionsClearCmd)
}

// nextPrompt is the question the learner will see on resuming.
func nextPrompt(s models.PersistedSession) string {
	lvl, ok := s.DeckCards[s.CurrentIndex].CurrentLevel()
	if !ok {
		return "-"
	}
	q := []rune(lvl.Prompt())
	if len(q) > 40 {
		return string(q[:37]) + "..."
	}
	return string(q)
}

// openStore opens the database and returns the learner's session store.
func openStore(cmd *cobra.Command) (*study.Store, func(), error) {
	cfg := loadConfig(cmd)
	setupLogger(cfg)

	learnerID, _ := cmd.Flags().GetString("learner")
	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	store := study.NewStore(sqlite.NewSessionRepository(database.DB), learnerID)
	return store, func() { database.Close() }, nil
}
