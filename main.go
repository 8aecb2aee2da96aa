package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"pixelwatch/internal/app"
)

func main() {
	root := &cobra.Command{
		Use:           "pixelwatch",
		Short:         "Detects pixel-tracking tickets and learns from feedback",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		monitorCmd(),
		checkCmd(),
		classifyCmd(),
		feedbackCmd(),
		trainCmd(),
		analyzeCmd(),
		statusCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func monitorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "monitor",
		Short: "Poll the tracker on the configured schedule and alert on detections",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.Setup()
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.Monitor(ctx)
		},
	}
}

func checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Run a single polling pass",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.Setup()
			if err != nil {
				return err
			}
			defer a.Close()
			return a.CheckOnce(cmd.Context())
		},
	}
}

func classifyCmd() *cobra.Command {
	var description string
	cmd := &cobra.Command{
		Use:   "classify <title>",
		Short: "Classify ad-hoc text and print the detection result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.Setup()
			if err != nil {
				return err
			}
			defer a.Close()
			return a.ClassifyText(args[0], description)
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "ticket description (plain text or Jira document JSON)")
	return cmd
}

func feedbackCmd() *cobra.Command {
	var (
		summary     string
		description string
		reason      string
		confidence  float64
	)
	cmd := &cobra.Command{
		Use:   "feedback <ticket-key> <label>",
		Short: "Record a human judgement (true_positive, false_positive or false_negative)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.Setup()
			if err != nil {
				return err
			}
			defer a.Close()
			return a.Feedback(args[0], summary, description, reason, args[1], confidence)
		},
	}
	cmd.Flags().StringVarP(&summary, "summary", "s", "", "ticket summary")
	cmd.Flags().StringVarP(&description, "description", "d", "", "ticket description")
	cmd.Flags().StringVarP(&reason, "reason", "r", "", "detection reason code the judgement applies to")
	cmd.Flags().Float64VarP(&confidence, "confidence", "c", 0, "detection confidence the judgement applies to")
	return cmd
}

func trainCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "train",
		Short: "Retrain the model from recorded feedback",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.Setup()
			if err != nil {
				return err
			}
			defer a.Close()
			return a.Train()
		},
	}
}

func analyzeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "analyze",
		Short: "Suggest rule-list changes from misclassification feedback",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.Setup()
			if err != nil {
				return err
			}
			defer a.Close()
			return a.Analyze()
		},
	}
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print metrics and write the markdown report and HTML dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.Setup()
			if err != nil {
				return err
			}
			defer a.Close()
			return a.Status()
		},
	}
}
