// Command ebb is a terminal text editor with language server support.
package main

import (
	"fmt"
	"os"

	"github.com/bethropolis/ebb/internal/app"
	"github.com/bethropolis/ebb/internal/config"
	"github.com/bethropolis/ebb/internal/logger"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &config.Flags{}
	cmd := &cobra.Command{
		Use:           config.AppName + " [file]",
		Short:         "A terminal text editor with language server support",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.Version {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", config.AppName, config.Version)
				return nil
			}
			var filePath string
			if len(args) > 0 {
				filePath = args[0]
			}
			return run(flags, filePath)
		},
	}
	flags.Register(cmd.Flags())
	return cmd
}

func run(flags *config.Flags, filePath string) error {
	cfg, cfgErr := config.LoadConfig(flags.ConfigFilePath, flags)

	logCloser, err := logger.Init(cfg.Logger, config.AppName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logger: %v\n", err)
		return err
	}
	defer logCloser.Close()

	if cfgErr != nil {
		logger.Warnf("Using default configuration: %v", cfgErr)
	}
	logger.Infof("Starting %s %s", config.AppName, config.Version)
	if filePath != "" {
		logger.Debugf("File path specified: %s", filePath)
	}

	editorApp, err := app.New(app.Options{Config: cfg, FilePath: filePath})
	if err != nil {
		logger.Errorf("Error initializing application: %v", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	if err := editorApp.Run(); err != nil {
		logger.Errorf("Application exited with error: %v", err)
		return err
	}
	logger.Infof("%s finished.", config.AppName)
	return nil
}
