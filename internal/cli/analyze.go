package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"smellcheck/internal/gateway/config"
	"smellcheck/internal/llm"
	"smellcheck/internal/review"
	"smellcheck/internal/util/jsonutil"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [file]",
	Short: "Analyze a source file for code smells",
	Long: `Analyze sends the file (or stdin when the argument is "-" or omitted) to the
configured completion provider and prints the smell report and refactored code.

Examples:
  smellcheck analyze main.go
  cat main.go | smellcheck analyze -
  smellcheck analyze --language python --ask "why is the first smell Major?" app.py
  smellcheck analyze --provider fake main.go`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringP("language", "l", "auto", "source language hint")
	analyzeCmd.Flags().String("provider", "", "completion provider (groq, gemini, fake)")
	analyzeCmd.Flags().String("model", "", "model override for the provider")
	analyzeCmd.Flags().Bool("json", false, "print the raw analysis result as JSON")
	analyzeCmd.Flags().String("ask", "", "one follow-up question to ask after the report")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	_ = godotenv.Load()

	code, err := readCode(args)
	if err != nil {
		return err
	}
	if strings.TrimSpace(code) == "" {
		return fmt.Errorf("no code to analyze")
	}

	provider, _ := cmd.Flags().GetString("provider")
	if provider == "" {
		provider = os.Getenv("SMELLCHECK_PROVIDER")
	}
	model, _ := cmd.Flags().GetString("model")
	language, _ := cmd.Flags().GetString("language")

	client, err := llm.New(provider, model)
	if err != nil {
		return err
	}
	defer client.Close()

	credential := config.CredentialFor(provider)
	if credential == "" && strings.EqualFold(strings.TrimSpace(provider), "fake") {
		// The fake provider ignores the credential, but the session guard
		// still requires one.
		credential = "offline"
	}

	svc := review.NewService(client, review.NewSession(credential))
	ctx := cmd.Context()

	result, err := svc.Analyze(ctx, code, language)
	if err != nil {
		return fmt.Errorf("%s", review.Message(err))
	}

	out := cmd.OutOrStdout()
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		b, err := jsonutil.MarshalNoEscapeIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(b))
	} else {
		printReport(out, result)
	}

	if ask, _ := cmd.Flags().GetString("ask"); strings.TrimSpace(ask) != "" {
		reply, err := svc.SendFollowUp(ctx, ask)
		if err != nil {
			return fmt.Errorf("%s", review.Message(err))
		}
		fmt.Fprintf(out, "\nQ: %s\nA: %s\n", ask, reply)
	}
	return nil
}

func readCode(args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func printReport(w io.Writer, result review.AnalysisResult) {
	if result.Summary != "" {
		fmt.Fprintf(w, "%s\n\n", result.Summary)
	}
	if len(result.Smells) == 0 {
		fmt.Fprintln(w, "No smells reported.")
	} else {
		fmt.Fprintf(w, "%d smell(s):\n", len(result.Smells))
		for i, sm := range result.Smells {
			fmt.Fprintf(w, "  %d. [%s] %s", i+1, sm.Severity, sm.Name)
			if sm.Location != "" {
				fmt.Fprintf(w, " (%s)", sm.Location)
			}
			fmt.Fprintln(w)
			if sm.Explanation != "" {
				fmt.Fprintf(w, "     %s\n", sm.Explanation)
			}
		}
	}
	fmt.Fprintln(w, "\nRefactored code:")
	fmt.Fprintln(w, result.RefactoredCode)
}
