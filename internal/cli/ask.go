package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/bryanwahyu/symptom-check/internal/application"
	"github.com/bryanwahyu/symptom-check/internal/application/intake"
	"github.com/bryanwahyu/symptom-check/internal/infra/httpclient"
)

const defaultEndpoint = "http://localhost:8080"

type askOptions struct {
	bodyArea         string
	duration         string
	ageRange         string
	acceptDisclaimer bool
	endpoint         string
	timeout          time.Duration
	outputFormat     string
}

func newAskCmd() *cobra.Command {
	opts := &askOptions{}
	cmd := &cobra.Command{
		Use:   "ask SYMPTOM...",
		Short: "Ask about a symptom",
		Long: `Describe what you're experiencing in your own words and get general,
non-diagnostic information back.

Examples:
  # Ask a free-text question
  symptomcheck ask "I've had a mild headache for two days" --accept-disclaimer

  # Add optional context
  symptomcheck ask "itchy rash on my arm" --body-area Skin --duration "Few days" --accept-disclaimer

  # Machine-readable output
  symptomcheck ask "dry cough" --accept-disclaimer -o json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAsk(cmd, opts, strings.Join(args, " "))
		},
	}

	endpoint := os.Getenv("SYMPTOMCHECK_ENDPOINT")
	if endpoint == "" {
		endpoint = defaultEndpoint
	}

	cmd.Flags().StringVar(&opts.bodyArea, "body-area", "", "Where you notice it (see 'symptomcheck options')")
	cmd.Flags().StringVar(&opts.duration, "duration", "", "How long it has been going on")
	cmd.Flags().StringVar(&opts.ageRange, "age-range", "", "Your age range")
	cmd.Flags().BoolVar(&opts.acceptDisclaimer, "accept-disclaimer", false,
		"I understand this tool provides general information only and does not diagnose, treat, or replace professional medical advice")
	cmd.Flags().StringVar(&opts.endpoint, "endpoint", endpoint, "Symptom check API base URL")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 45*time.Second, "Request timeout")
	cmd.Flags().StringVarP(&opts.outputFormat, "output", "o", "human", "Output format (human, json, yaml)")

	return cmd
}

func runAsk(cmd *cobra.Command, opts *askOptions, text string) error {
	// tags are checked by the API; only the output format is ours
	if err := checkFormat(opts.outputFormat); err != nil {
		return err
	}

	gate := intake.NewGate(httpclient.New(opts.endpoint, opts.timeout), application.SystemClock{})

	s := spinner.New(spinner.CharSets[11], 100*time.Millisecond, spinner.WithWriter(cmd.ErrOrStderr()))
	s.Suffix = " Looking into your question..."
	if opts.outputFormat == "human" {
		s.Start()
	}

	out, err := gate.Submit(cmd.Context(), intake.Submission{
		Text:      text,
		BodyArea:  opts.bodyArea,
		Duration:  opts.duration,
		AgeRange:  opts.ageRange,
		Consented: opts.acceptDisclaimer,
	})
	s.Stop()

	switch {
	case errors.Is(err, intake.ErrEmptySymptom):
		return fmt.Errorf("%w: tell us what you're experiencing so we can help", err)
	case errors.Is(err, intake.ErrConsentRequired):
		return fmt.Errorf("%w: pass --accept-disclaimer to acknowledge it before continuing", err)
	case err != nil:
		return err
	}

	if out.View == intake.ViewResponse && opts.outputFormat == "human" {
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", color.GreenString("✓"), "Here is what we found")
	}
	return Display(cmd.OutOrStdout(), newResult(out), opts.outputFormat)
}
