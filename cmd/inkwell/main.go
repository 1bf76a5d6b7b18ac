package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/chzyer/readline"
	"github.com/google/uuid"
	"github.com/inkwell-notes/inkwell/pkg/ai"
	"github.com/inkwell-notes/inkwell/pkg/logger"
	"github.com/inkwell-notes/inkwell/pkg/runtime"
	"github.com/inkwell-notes/inkwell/pkg/schema"
	"github.com/inkwell-notes/inkwell/pkg/store"
	"github.com/inkwell-notes/inkwell/pkg/trigger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Version is set at build time via ldflags.
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	loadDotEnv() // load .env file if present (gitignored)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadDotEnv reads a .env file from the working directory and sets
// any variables that aren't already set in the environment.
// Lines are KEY=VALUE (or KEY="VALUE"). Comments (#) and blanks are skipped.
// The .env file is gitignored so secrets never end up in source control.
func loadDotEnv() {
	f, err := os.Open(".env")
	if err != nil {
		return // no .env file — that's fine
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		val := strings.TrimSpace(parts[1])
		val = strings.Trim(val, `"'`)
		if os.Getenv(key) == "" {
			os.Setenv(key, val)
		}
	}
}

var rootCmd = &cobra.Command{
	Use:   "inkwell",
	Short: "Personal automation engine for notebooks",
	Long:  "inkwell — automations for your notes: scheduled routines, chat-triggered actions, carry-forward, and AI summaries over a page store.",
}

var dataDir string

// resolveDataDir picks the working directory for actions, pages, and
// run manifests: --data flag, then INKWELL_DATA, then ~/.inkwell.
func resolveDataDir() (string, error) {
	if dataDir != "" {
		return dataDir, nil
	}
	if env := os.Getenv("INKWELL_DATA"); env != "" {
		return env, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".inkwell"), nil
}

// app bundles the stores and engine every command needs.
type app struct {
	dir     string
	actions *store.ActionStore
	pages   *store.FilePageStore
	engine  *runtime.Engine
}

func openApp() (*app, error) {
	dir, err := resolveDataDir()
	if err != nil {
		return nil, err
	}
	actions, err := store.NewActionStore(filepath.Join(dir, "actions"))
	if err != nil {
		return nil, fmt.Errorf("open action store: %w", err)
	}
	pages, err := store.OpenFilePageStore(filepath.Join(dir, "pages.json"))
	if err != nil {
		return nil, fmt.Errorf("open page store: %w", err)
	}
	engine := runtime.NewEngine(actions, pages, newSummarizer())
	engine.BaseDir = dir
	return &app{dir: dir, actions: actions, pages: pages, engine: engine}, nil
}

// newSummarizer wires the Anthropic client when an API key is present.
// Without a key aiSummarize steps fail at run time with a clear
// error; everything else works offline.
func newSummarizer() ai.Summarizer {
	key := os.Getenv("ANTHROPIC_API_KEY")
	if key == "" {
		return nil
	}
	s, err := ai.NewAnthropicSummarizer(key, os.Getenv("INKWELL_MODEL"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: summarizer disabled: %v\n", err)
		return nil
	}
	return s
}

// lookupAction accepts a UUID or an action name.
func lookupAction(actions *store.ActionStore, ref string) (*schema.Action, error) {
	if id, err := uuid.Parse(ref); err == nil {
		return actions.Get(id)
	}
	return actions.FindByName(ref)
}

// --- init ---

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the data directory and install the built-in actions",
	Args:  cobra.NoArgs,
	RunE:  runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	if err := a.actions.EnsureBuiltIns(); err != nil {
		return fmt.Errorf("install built-in actions: %w", err)
	}
	actions, err := a.actions.List()
	if err != nil {
		return err
	}
	fmt.Printf("✓ %s initialized (%d actions)\n", a.dir, len(actions))
	return nil
}

// --- validate ---

var validateCmd = &cobra.Command{
	Use:   "validate [action.json]",
	Short: "Validate an action definition file",
	Args:  cobra.ExactArgs(1),
	RunE:  runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	filePath := args[0]

	action, errs := schema.ValidateFile(filePath)
	if len(errs) > 0 {
		var errors []*schema.ValidationError
		var warnings []*schema.ValidationError
		for _, e := range errs {
			if e.Severity == "warning" {
				warnings = append(warnings, e)
			} else {
				errors = append(errors, e)
			}
		}
		for _, w := range warnings {
			fmt.Fprintf(os.Stderr, "  ⚠ [%s] %s\n", w.Phase, w.Message)
			if w.Path != "" {
				fmt.Fprintf(os.Stderr, "    at: %s\n", w.Path)
			}
		}
		if len(errors) > 0 {
			fmt.Fprintf(os.Stderr, "Validation failed: %d error(s)\n\n", len(errors))
			for i, e := range errors {
				fmt.Fprintf(os.Stderr, "  %d. [%s] %s\n", i+1, e.Phase, e.Message)
				if e.Path != "" {
					fmt.Fprintf(os.Stderr, "     at: %s\n", e.Path)
				}
			}
			return fmt.Errorf("validation failed with %d error(s)", len(errors))
		}
	}
	fmt.Printf("✓ %s is valid (%d steps)\n", action.Name, len(action.Steps))
	return nil
}

// --- list ---

var listCategory string

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List actions",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func runList(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	actions, err := a.actions.List()
	if err != nil {
		return err
	}
	sort.Slice(actions, func(i, j int) bool { return actions[i].Name < actions[j].Name })
	shown := 0
	for _, action := range actions {
		if listCategory != "" && !strings.EqualFold(string(action.Category), listCategory) {
			continue
		}
		shown++
		state := " "
		if action.Enabled {
			state = "✓"
		}
		next := ""
		if action.NextRun != nil {
			next = "next " + action.NextRun.Local().Format("Mon 15:04")
		}
		fmt.Printf("  %s %-32s %-18s %s %s\n", state, action.Name, action.Category, triggerKinds(action), next)
	}
	if shown == 0 {
		fmt.Println("no actions — run 'inkwell init' to install the built-ins")
	}
	return nil
}

func triggerKinds(a *schema.Action) string {
	var kinds []string
	for _, t := range a.Triggers {
		kinds = append(kinds, string(t.Type))
	}
	return strings.Join(kinds, ",")
}

// --- show ---

var showCmd = &cobra.Command{
	Use:   "show [action]",
	Short: "Show an action's triggers, variables, and steps",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func runShow(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	action, err := lookupAction(a.actions, args[0])
	if err != nil {
		return err
	}
	md := actionMarkdown(action)
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
	if err != nil {
		fmt.Print(md)
		return nil
	}
	out, err := r.Render(md)
	if err != nil {
		fmt.Print(md)
		return nil
	}
	fmt.Print(out)
	return nil
}

func actionMarkdown(a *schema.Action) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", a.Name)
	if a.Description != "" {
		fmt.Fprintf(&b, "%s\n\n", a.Description)
	}
	fmt.Fprintf(&b, "- id: `%s`\n- category: %s\n- enabled: %v\n", a.ID, a.Category, a.Enabled)
	if a.LastRun != nil {
		fmt.Fprintf(&b, "- last run: %s\n", a.LastRun.Local().Format(time.RFC822))
	}
	b.WriteString("\n## Triggers\n\n")
	for _, t := range a.Triggers {
		switch t.Type {
		case schema.TriggerAIChat:
			fmt.Fprintf(&b, "- chat: %s\n", strings.Join(t.Keywords, ", "))
		case schema.TriggerScheduled:
			if t.Schedule != nil {
				fmt.Fprintf(&b, "- scheduled: %s at %s\n", t.Schedule.Type, t.Schedule.Time)
			}
		default:
			fmt.Fprintf(&b, "- %s\n", t.Type)
		}
	}
	if len(a.Variables) > 0 {
		b.WriteString("\n## Variables\n\n")
		for _, v := range a.Variables {
			fmt.Fprintf(&b, "- `{{%s}}` (%s)", v.Name, v.VariableType)
			if v.DefaultValue != "" {
				fmt.Fprintf(&b, " default %q", v.DefaultValue)
			}
			b.WriteString("\n")
		}
	}
	b.WriteString("\n## Steps\n\n")
	writeStepsMarkdown(&b, a.Steps, 0)
	return b.String()
}

func writeStepsMarkdown(b *strings.Builder, steps []schema.Step, depth int) {
	indent := strings.Repeat("  ", depth)
	for i, s := range steps {
		fmt.Fprintf(b, "%s%d. %s\n", indent, i+1, string(s.Type))
		if s.Type == schema.StepConditional {
			if len(s.ThenSteps) > 0 {
				fmt.Fprintf(b, "%s   then:\n", indent)
				writeStepsMarkdown(b, s.ThenSteps, depth+2)
			}
			if len(s.ElseSteps) > 0 {
				fmt.Fprintf(b, "%s   else:\n", indent)
				writeStepsMarkdown(b, s.ElseSteps, depth+2)
			}
		}
		if s.Type == schema.StepSearchAndProcess && len(s.ProcessSteps) > 0 {
			fmt.Fprintf(b, "%s   process:\n", indent)
			writeStepsMarkdown(b, s.ProcessSteps, depth+2)
		}
	}
}

// --- run ---

var (
	runVars     []string
	runNotebook string
)

var runCmd = &cobra.Command{
	Use:   "run [action]",
	Short: "Execute an action by name or ID",
	Args:  cobra.ExactArgs(1),
	RunE:  runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	action, err := lookupAction(a.actions, args[0])
	if err != nil {
		return err
	}
	userInput := make(map[string]string)
	for _, v := range runVars {
		parts := strings.SplitN(v, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid --var %q: expected key=value", v)
		}
		userInput[parts[0]] = parts[1]
	}
	opts := runtime.RunOptions{UserInput: userInput, OnStep: printStepEvent}
	if runNotebook != "" {
		nb, err := a.pages.NotebookByName(runNotebook)
		if err != nil {
			return err
		}
		opts.NotebookID = nb.ID
	}
	return executeAndReport(cmd.Context(), a.engine, action, opts)
}

func printStepEvent(ev runtime.StepEvent) {
	switch ev.Status {
	case runtime.StepSuccess:
		fmt.Printf("  ✓ %-10s %s\n", ev.Path, ev.Type)
	case runtime.StepFailed:
		fmt.Printf("  ✗ %-10s %s: %s\n", ev.Path, ev.Type, ev.Error)
	case runtime.StepSkipped:
		fmt.Printf("  - %-10s %s (skipped)\n", ev.Path, ev.Type)
	}
}

func executeAndReport(ctx context.Context, engine *runtime.Engine, action *schema.Action, opts runtime.RunOptions) error {
	fmt.Printf("Running %q\n", action.Name)
	result, err := engine.Execute(ctx, action, opts)
	if err != nil {
		return err
	}
	for _, msg := range result.Errors {
		fmt.Fprintf(os.Stderr, "  ⚠ %s\n", msg)
	}
	status := "✓ completed"
	if !result.Success {
		status = "✗ failed"
	}
	fmt.Printf("%s: %d/%d steps, %d page(s) created, run %s\n",
		status, result.StepsCompleted, result.StepsTotal, len(result.CreatedPages), result.RunID)
	if !result.Success {
		return fmt.Errorf("action %q failed", action.Name)
	}
	return nil
}

// --- chat ---

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive chat: matching actions run from what you type",
	Args:  cobra.NoArgs,
	RunE:  runChat,
}

func runChat(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	actions, err := a.actions.List()
	if err != nil {
		return err
	}

	completer := readline.NewPrefixCompleter()
	for _, action := range actions {
		for _, t := range action.Triggers {
			for _, kw := range t.Keywords {
				completer.Children = append(completer.Children, readline.PcItem(kw))
			}
		}
	}
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "inkwell> ",
		AutoComplete:    completer,
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
	})
	if err != nil {
		return fmt.Errorf("init readline: %w", err)
	}
	defer rl.Close()

	fmt.Printf("inkwell chat — %d actions loaded. Type a request, 'quit' to exit.\n\n", len(actions))

	for {
		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt || err == io.EOF {
				return nil
			}
			return err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			return nil
		}

		matches := trigger.FromChat(actions, line)
		if len(matches) == 0 {
			fmt.Println("no matching action — try 'inkwell list' to see keywords")
			continue
		}
		for _, m := range matches {
			if err := executeAndReport(cmd.Context(), a.engine, m.Action, runtime.RunOptions{OnStep: printStepEvent}); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			}
		}
		// Pick up LastRun/NextRun updates for the next match.
		if refreshed, err := a.actions.List(); err == nil {
			actions = refreshed
		}
	}
}

// --- schedule ---

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the scheduler daemon for scheduled actions",
	Args:  cobra.NoArgs,
	RunE:  runSchedule,
}

func runSchedule(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	if err := a.actions.EnsureBuiltIns(); err != nil {
		return fmt.Errorf("install built-in actions: %w", err)
	}

	runner := func(ctx context.Context, action *schema.Action) error {
		_, err := a.engine.Execute(ctx, action, runtime.RunOptions{})
		return err
	}
	sched := trigger.NewScheduler(a.actions, runner)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("scheduler starting", zap.String("data", a.dir))
	fmt.Printf("inkwell scheduler running (data: %s, Ctrl-C to stop)\n", a.dir)

	go sched.Start(ctx)
	<-ctx.Done()
	sched.Shutdown()
	fmt.Println("scheduler stopped")
	return nil
}

// --- enable / disable ---

var enableCmd = &cobra.Command{
	Use:   "enable [action]",
	Short: "Enable an action",
	Args:  cobra.ExactArgs(1),
	RunE:  func(cmd *cobra.Command, args []string) error { return setEnabled(args[0], true) },
}

var disableCmd = &cobra.Command{
	Use:   "disable [action]",
	Short: "Disable an action",
	Args:  cobra.ExactArgs(1),
	RunE:  func(cmd *cobra.Command, args []string) error { return setEnabled(args[0], false) },
}

func setEnabled(ref string, enabled bool) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	action, err := lookupAction(a.actions, ref)
	if err != nil {
		return err
	}
	updated, err := a.actions.Update(action.ID, schema.ActionUpdate{Enabled: &enabled})
	if err != nil {
		return err
	}
	state := "disabled"
	if updated.Enabled {
		state = "enabled"
	}
	fmt.Printf("✓ %s %s\n", updated.Name, state)
	return nil
}

// --- import ---

var importCmd = &cobra.Command{
	Use:   "import [action.json]",
	Short: "Validate an action file and add it to the store",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

func runImport(cmd *cobra.Command, args []string) error {
	action, errs := schema.ValidateFile(args[0])
	for _, e := range errs {
		if e.Severity != "warning" {
			fmt.Fprintf(os.Stderr, "  [%s] %s\n", e.Phase, e.Message)
		}
	}
	if action == nil || hasErrors(errs) {
		return fmt.Errorf("action file is invalid")
	}
	a, err := openApp()
	if err != nil {
		return err
	}
	if err := a.actions.Create(action); err != nil {
		return err
	}
	fmt.Printf("✓ imported %q (%s)\n", action.Name, action.ID)
	return nil
}

// --- export ---

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export [action]",
	Short: "Write an action definition as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runExport,
}

func runExport(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	action, err := lookupAction(a.actions, args[0])
	if err != nil {
		return err
	}
	raw, err := json.MarshalIndent(action, "", "  ")
	if err != nil {
		return err
	}
	if exportOut == "" {
		fmt.Println(string(raw))
		return nil
	}
	if err := os.WriteFile(exportOut, raw, 0o644); err != nil {
		return err
	}
	fmt.Printf("✓ %s written to %s\n", action.Name, exportOut)
	return nil
}

func hasErrors(errs []*schema.ValidationError) bool {
	for _, e := range errs {
		if e.Severity != "warning" {
			return true
		}
	}
	return false
}

// --- schema ---

var schemaOut string

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Schema utilities",
}

var schemaExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the action JSON Schema",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := schema.GenerateJSONSchema()
		if err != nil {
			return err
		}
		if schemaOut == "" {
			fmt.Println(string(raw))
			return nil
		}
		if err := os.WriteFile(schemaOut, raw, 0o644); err != nil {
			return err
		}
		fmt.Printf("✓ schema written to %s\n", schemaOut)
		return nil
	},
}

// --- version ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("inkwell %s (%s)\n", version, commit)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", "", "Data directory (default $INKWELL_DATA or ~/.inkwell)")

	listCmd.Flags().StringVar(&listCategory, "category", "", "Only show actions in this category")
	runCmd.Flags().StringArrayVar(&runVars, "var", nil, "Set a user-input variable (key=value), repeatable")
	runCmd.Flags().StringVar(&runNotebook, "notebook", "", "Notebook that currentNotebook targets resolve to")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "Write to a file instead of stdout")
	schemaExportCmd.Flags().StringVar(&schemaOut, "out", "", "Write the schema to a file instead of stdout")

	schemaCmd.AddCommand(schemaExportCmd)

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(scheduleCmd)
	rootCmd.AddCommand(enableCmd)
	rootCmd.AddCommand(disableCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(schemaCmd)
	rootCmd.AddCommand(versionCmd)
}
