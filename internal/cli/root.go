package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/bryanwahyu/symptom-check/internal/domain/symptoms"
)

// NewRootCmd builds the symptomcheck command tree.
func NewRootCmd(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "symptomcheck",
		Short: "Ask about a symptom and get calm, general guidance",
		Long: `symptomcheck sends a short description of a symptom to a symptom check
API and prints possible explanations, self-care steps and signs that mean
you should seek care. It never diagnoses.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Disable automatic 'completion' command added by cobra
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(
		newAskCmd(),
		newOptionsCmd(),
		newVersionCmd(version),
	)
	return rootCmd
}

func newOptionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "options",
		Short: "List the allowed body area, duration and age range values",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			w := cmd.OutOrStdout()
			bold := color.New(color.Bold)
			for _, group := range []struct {
				flag, field string
			}{
				{"--body-area", symptoms.FieldBodyArea},
				{"--duration", symptoms.FieldDuration},
				{"--age-range", symptoms.FieldAgeRange},
			} {
				bold.Fprintf(w, "%s (%s)\n", group.flag, group.field)
				for _, v := range symptoms.Allowed(group.field) {
					fmt.Fprintf(w, "   %s\n", v)
				}
				fmt.Fprintln(w)
			}
		},
	}
}

func newVersionCmd(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "symptomcheck version %s\n", version)
		},
	}
}
