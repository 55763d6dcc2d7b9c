package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/stegonotes/stegonotes/internal/config"
	sqlitestorage "github.com/stegonotes/stegonotes/internal/storage/sqlite"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Answers JSON commands line by line on stdin and stdout",
	Long: `Reads one JSON request per line, {"id": 1, "command": ":LOAD:", "args": {"path": "notes.txt"}},
and writes one JSON response per line. Logs go to stderr and the log file.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			a.log.Info("Serving commands on stdin", "version", BuildVersion)
			go func() {
				<-cmd.Context().Done()
				os.Stdin.Close()
			}()
			err := a.dispatcher.Serve(cmd.Context(), os.Stdin, os.Stdout)
			if cmd.Context().Err() != nil {
				return nil
			}
			return err
		})
	},
}

var backupCmd = &cobra.Command{
	Use:   "backup <path>",
	Short: "Writes a copy of the SQLite placement database",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			backend, ok := a.backend.(*sqlitestorage.Backend)
			if !ok {
				return fmt.Errorf("backup needs storage.type sqlite, have %q", config.GetString("storage.type"))
			}
			if err := backend.Flush(); err != nil {
				return err
			}
			if err := backend.Backup(args[0]); err != nil {
				return err
			}
			a.log.Info("Database backed up", "path", args[0])
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(serveCmd, backupCmd)
}
