package cmd

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	logLevel string // Log verbosity level
	logFile  string // Optional rotating log file
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "recycle",
	Short: "Discrete-time simulator for uranium fuel cycles",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)

		if logFile != "" {
			rotator := &lumberjack.Logger{
				Filename:   logFile,
				MaxSize:    20, // megabytes
				MaxBackups: 3,
			}
			logrus.SetOutput(io.MultiWriter(os.Stdout, rotator))
		}
	},
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (trace, debug, info, warn, error, fatal, panic)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Write logs to this rotating file instead of stderr")
}
