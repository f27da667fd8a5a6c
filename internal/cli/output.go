package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"github.com/bryanwahyu/symptom-check/internal/application/intake"
	"github.com/bryanwahyu/symptom-check/internal/domain/symptoms"
)

const disclaimer = "Important: This tool provides general wellness information only and does not " +
	"diagnose, treat, or replace professional medical advice. If you're concerned about your health, " +
	"please consult a qualified healthcare provider."

// Result is what ask prints in machine-readable formats.
type Result struct {
	View      string             `json:"view" yaml:"view"`
	Query     *symptoms.Query    `json:"query,omitempty" yaml:"query,omitempty"`
	Analysis  *symptoms.Analysis `json:"analysis,omitempty" yaml:"analysis,omitempty"`
	Emergency *intake.Emergency  `json:"emergency,omitempty" yaml:"emergency,omitempty"`
}

func newResult(out intake.Outcome) Result {
	r := Result{View: out.View.String()}
	if out.View == intake.ViewEmergency {
		e := intake.EmergencyResources()
		r.Emergency = &e
		return r
	}
	r.Query = &out.Query
	r.Analysis = &out.Analysis
	return r
}

func checkFormat(format string) error {
	switch format {
	case "human", "", "json", "yaml":
		return nil
	}
	return fmt.Errorf("unknown output format %q (use human, json or yaml)", format)
}

// Display writes r in the requested format: human, json or yaml.
func Display(w io.Writer, r Result, format string) error {
	switch format {
	case "json":
		return displayJSON(w, r)
	case "yaml":
		return displayYAML(w, r)
	case "human", "":
		if r.Emergency != nil {
			displayEmergency(w, *r.Emergency)
			return nil
		}
		if r.Analysis != nil {
			displayAnalysis(w, *r.Analysis)
		}
		return nil
	default:
		return checkFormat(format)
	}
}

func displayJSON(w io.Writer, v any) error {
	output, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(w, string(output))
	return nil
}

func displayYAML(w io.Writer, v any) error {
	output, err := yaml.Marshal(v)
	if err != nil {
		return err
	}
	fmt.Fprint(w, string(output))
	return nil
}

func displayAnalysis(w io.Writer, a symptoms.Analysis) {
	heading := color.New(color.FgCyan, color.Bold)
	green := color.New(color.FgGreen, color.Bold)
	amber := color.New(color.FgYellow, color.Bold)

	fmt.Fprintln(w)
	heading.Fprintln(w, "First, a moment of reassurance")
	fmt.Fprintln(w, wrapText(a.Acknowledgement, 80, "   "))
	fmt.Fprintln(w)

	heading.Fprintln(w, "Is this common?")
	fmt.Fprintln(w, wrapText(a.Commonality, 80, "   "))
	fmt.Fprintf(w, "   %s\n\n", color.HiBlackString("%d people have asked similar questions", a.SimilarQuestions))

	heading.Fprintln(w, "What could be happening")
	printList(w, a.PossibleExplanations, "•")

	green.Fprintln(w, "Usually okay if...")
	printList(w, a.UsuallyOkayIf, "✓")

	amber.Fprintln(w, "Consider seeking help if...")
	printList(w, a.SeekHelpIf, "!")

	heading.Fprintln(w, "What you can do now")
	for i, step := range a.SelfCareSteps {
		fmt.Fprintf(w, "   %d. %s\n", i+1, step)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, strings.Repeat("─", 80))
	fmt.Fprintln(w, color.HiBlackString("%s", wrapText(disclaimer, 80, "")))
}

func displayEmergency(w io.Writer, e intake.Emergency) {
	heading := color.New(color.FgMagenta, color.Bold)
	bold := color.New(color.Bold)

	fmt.Fprintln(w)
	heading.Fprintln(w, e.Heading)
	for _, p := range e.Message {
		fmt.Fprintln(w, wrapText(p, 80, "   "))
		fmt.Fprintln(w)
	}

	heading.Fprintln(w, "Helpful Wellness Tips")
	for _, tip := range e.WellnessTips {
		bold.Fprintf(w, "   %s\n", tip.Title)
		fmt.Fprintln(w, wrapText(tip.Description, 80, "      "))
	}
	fmt.Fprintln(w)

	heading.Fprintln(w, "Other ways to get support")
	for _, opt := range e.SupportOptions {
		bold.Fprintf(w, "   %s\n", opt.Title)
		fmt.Fprintln(w, wrapText(opt.Description, 80, "      "))
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, color.GreenString("%s", wrapText(e.Encouragement, 80, "")))
}

func printList(w io.Writer, items []string, bullet string) {
	for _, item := range items {
		fmt.Fprintf(w, "   %s %s\n", bullet, item)
	}
	fmt.Fprintln(w)
}

func wrapText(text string, width int, indent string) string {
	var result strings.Builder
	for _, line := range strings.Split(text, "\n") {
		words := strings.Fields(line)
		if len(words) == 0 {
			result.WriteString("\n")
			continue
		}

		currentLine := indent
		for _, word := range words {
			switch {
			case currentLine == indent:
				currentLine += word
			case len(currentLine)+len(word)+1 > width:
				result.WriteString(currentLine + "\n")
				currentLine = indent + word
			default:
				currentLine += " " + word
			}
		}
		result.WriteString(currentLine + "\n")
	}
	return strings.TrimSuffix(result.String(), "\n")
}
