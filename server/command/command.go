// Package command provides the announcements CLI.
package command

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"

	"github.com/imaginehigher/announcements/server/app"
)

var cfgPath string

// RootCmd is the announcements command tree.
var RootCmd = &cobra.Command{
	Use:   "announcements",
	Short: "Form-driven announcements lifecycle service",
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the service until interrupted",
	RunE:  serveCmdF,
}

var submitCmd = &cobra.Command{
	Use:   "submit <entry.yaml>",
	Short: "Process one submission entry from a YAML file",
	Args:  cobra.ExactArgs(1),
	RunE:  submitCmdF,
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to the configuration file")
	RootCmd.AddCommand(serveCmd, submitCmd)
}

// Run executes the CLI with the given arguments.
func Run(args []string) error {
	RootCmd.SetArgs(args)
	return RootCmd.Execute()
}

func serveCmdF(cmd *cobra.Command, args []string) error {
	srv, err := NewServer(cfgPath)
	if err != nil {
		return err
	}
	defer srv.Close()
	srv.Start()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
	return nil
}

// submitEntry is the on-disk shape of one submission entry.
type submitEntry struct {
	ID     string            `yaml:"id"`
	Fields map[string]string `yaml:"fields"`
}

func submitCmdF(cmd *cobra.Command, args []string) error {
	raw, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	var se submitEntry
	if err := yaml.Unmarshal(raw, &se); err != nil {
		return err
	}

	srv, err := NewServer(cfgPath)
	if err != nil {
		return err
	}
	defer srv.Close()

	id, err := srv.Submissions.Process(app.Entry{ID: se.ID, Fields: se.Fields})
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), id)
	return nil
}
