package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"prompt_maker_server/internal/ai"
	handlers "prompt_maker_server/internal/api"
	"prompt_maker_server/internal/catalog"
	"prompt_maker_server/internal/logger"
	"prompt_maker_server/internal/session"
)

var (
	generateTool        string
	generateSets        []string
	generateInteractive bool
	generateRefine      bool
	generateCopy        bool
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Fill a tool from the terminal and print the prompt",
	Long: `Fill a tool's questionnaire from --set flags and, with -i, by answering the
remaining questions on stdin. Multi-line answers end at an empty line.

Examples:
  prompt-maker generate --tool web --set appIdea="Habit tracker" --set techStack=Go --set features=streaks
  prompt-maker generate --tool architect -i --refine --copy`,
	Args: cobra.NoArgs,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVarP(&generateTool, "tool", "t", handlers.DefaultToolID, "Tool id (see 'prompt-maker tools')")
	generateCmd.Flags().StringArrayVar(&generateSets, "set", nil, "Answer as field=value (repeatable)")
	generateCmd.Flags().BoolVarP(&generateInteractive, "interactive", "i", false, "Ask for unanswered fields on stdin")
	generateCmd.Flags().BoolVar(&generateRefine, "refine", false, "Refine the prompt with the configured AI provider")
	generateCmd.Flags().BoolVar(&generateCopy, "copy", false, "Copy the final prompt to the clipboard")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	s := session.New("cli", catalog.Default())
	if err := s.Activate(generateTool); err != nil {
		return errors.Wrap(err, "run 'prompt-maker tools' to see the available tools")
	}

	values, err := parseAssignments(generateSets)
	if err != nil {
		return err
	}
	if err := s.SetValues(values); err != nil {
		return err
	}

	if generateInteractive {
		tool, _ := s.Tool()
		if err := askMissing(cmd.InOrStdin(), cmd.ErrOrStderr(), tool, s); err != nil {
			return err
		}
	}

	text, err := s.Generate()
	if errors.Is(err, session.ErrIncomplete) {
		return errors.Newf("please answer every question; missing: %s", strings.Join(s.Missing(), ", "))
	}
	if err != nil {
		return err
	}

	if generateRefine {
		text, err = refineArtifact(cmd.Context(), cmd.ErrOrStderr(), s)
		if err != nil {
			return err
		}
	}

	fmt.Fprintln(cmd.OutOrStdout(), text)

	if generateCopy {
		if err := clipboard.WriteAll(text); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Could not copy to clipboard: %v\n", err)
		} else {
			fmt.Fprintln(cmd.ErrOrStderr(), "Copied to clipboard.")
		}
	}
	return nil
}

// refineArtifact returns the refined text, or the unrefined one with a notice
// on stderr when the provider fails.
func refineArtifact(ctx context.Context, stderr io.Writer, s *session.Session) (string, error) {
	cfg, err := loadConfig()
	if err != nil {
		return "", err
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return "", err
	}
	defer log.Sync()

	if ctx == nil {
		ctx = context.Background()
	}
	refiner, err := ai.NewRefinerFromConfig(ctx, cfg, log)
	if err != nil {
		return "", err
	}

	text, err := s.Refine(ctx, refiner)
	if err != nil {
		fmt.Fprintf(stderr, "Refinement failed (%v); showing the unrefined prompt.\n", err)
	}
	return text, nil
}

// parseAssignments turns field=value pairs into a map. Only the first '='
// splits, so values may contain it.
func parseAssignments(pairs []string) (map[string]string, error) {
	values := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		field, value, ok := strings.Cut(pair, "=")
		field = strings.TrimSpace(field)
		if !ok || field == "" {
			return nil, errors.Newf("invalid --set %q, want field=value", pair)
		}
		values[field] = value
	}
	return values, nil
}

// askMissing prompts on w for every unanswered field of tool and stores the
// replies in s.
func askMissing(r io.Reader, w io.Writer, tool *catalog.Tool, s *session.Session) error {
	in := bufio.NewReader(r)
	missing := make(map[string]bool)
	for _, id := range s.Missing() {
		missing[id] = true
	}
	for _, f := range tool.Fields {
		if !missing[f.ID] {
			continue
		}
		value, err := readAnswer(in, w, f)
		if err != nil {
			return err
		}
		if err := s.SetValue(f.ID, value); err != nil {
			return err
		}
	}
	return nil
}

// readAnswer reads one line for text fields and lines up to the first empty
// one for textarea fields. EOF ends the answer.
func readAnswer(in *bufio.Reader, w io.Writer, f catalog.Field) (string, error) {
	fmt.Fprintf(w, "%s", f.Label)
	if f.Placeholder != "" {
		fmt.Fprintf(w, " (e.g. %s)", f.Placeholder)
	}
	if f.Kind == catalog.KindTextarea {
		fmt.Fprint(w, ", end with an empty line")
	}
	fmt.Fprintln(w, ":")

	var lines []string
	for {
		line, err := in.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", errors.Wrapf(err, "reading answer for %s", f.ID)
		}
		line = strings.TrimRight(line, "\r\n")
		if f.Kind != catalog.KindTextarea {
			return line, nil
		}
		if line == "" {
			break
		}
		lines = append(lines, line)
		if err != nil {
			break
		}
	}
	return strings.Join(lines, "\n"), nil
}
