package cmd

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/bam241/recycle/sim/record"
	"github.com/bam241/recycle/sim/scenario"
)

var (
	scenarioPath string // Scenario YAML file
	runDBPath    string // Optional SQLite output database
)

// runCmd executes one scenario file
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a fuel-cycle scenario",
	Run: func(cmd *cobra.Command, args []string) {
		sc, err := scenario.Load(scenarioPath)
		if err != nil {
			logrus.Fatalf("Invalid scenario: %v", err)
		}

		var rec record.Recorder = record.NewNoop()
		if runDBPath != "" {
			sqlRec, err := record.NewSQLiteRecorder(runDBPath)
			if err != nil {
				logrus.Fatalf("Cannot open output database: %v", err)
			}
			defer sqlRec.Close()
			rec = sqlRec
			logrus.Infof("Recording run %s to %s", sqlRec.SimID(), runDBPath)
		}

		s, err := scenario.Build(sc, rec)
		if err != nil {
			logrus.Fatalf("Cannot build scenario: %v", err)
		}
		if err := s.Run(); err != nil {
			logrus.Fatalf("Simulation failed: %v", err)
		}

		s.Context().Metrics().Print()
		logrus.Info("Simulation complete.")
	},
}

func init() {
	runCmd.Flags().StringVar(&scenarioPath, "scenario", "", "Path to the scenario YAML file")
	runCmd.Flags().StringVar(&runDBPath, "db", "", "Record output to this SQLite database")
	_ = runCmd.MarkFlagRequired("scenario")

	rootCmd.AddCommand(runCmd)
}
