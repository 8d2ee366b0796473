package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"cr-go/internal/app"
	"cr-go/internal/config"
	"cr-go/internal/cr"
	"cr-go/internal/encryption"
	"cr-go/internal/model"

	"github.com/charmbracelet/x/ansi"
	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/cobra"
)

// Exit statuses.
const (
	exitError   = 1
	exitUsage   = 2
	exitPublish = 3
)

func main() {
	cmd, err := rootCmd.ExecuteC()
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)

	var perr *cr.PublishError
	switch {
	case errors.As(err, &perr):
		os.Exit(exitPublish)
	case errors.Is(err, cr.ErrUsage):
		fmt.Fprintln(os.Stderr, cmd.UsageString())
		os.Exit(exitUsage)
	default:
		os.Exit(exitError)
	}
}

// newApp reads the config and creates a CRApp. The caller must defer app.Close().
// operation identifies the CLI command being run (e.g. "Overdue", "Comment").
func newApp(ctx context.Context, operation string, args []string) (*app.CRApp, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if os.Getenv("CR_LEDGER") != "" {
		cfg.LedgerDir = defaults["ledger_dir"]
	}

	a, err := app.NewCRApp(ctx, cfg, operation, strings.Join(args, " "))
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}

	return a, nil
}

// usageError marks a command line mistake. Usage errors are always reported
// before the ledger is opened.
func usageError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", cr.ErrUsage, fmt.Sprintf(format, args...))
}

var rootCmd = &cobra.Command{
	Use:           "cr",
	Short:         "Commit review ledger tool",
	SilenceErrors: true,
	SilenceUsage:  true,
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ledger, _ := cmd.Flags().GetString("ledger")
		withAge, _ := cmd.Flags().GetBool("age")

		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}
		if ledger == "" {
			ledger = defaults["ledger_dir"]
		}

		cfg := config.NewConfig(ledger, defaults["base_dir"])
		if withAge {
			cfg.Encryption = config.EncryptionConfig{
				Type:           config.EncryptionAge,
				RecipientsPath: defaults["recipients"],
			}
		}

		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		if withAge {
			enc := encryption.NewAgeEncryptor(cfg.Encryption)
			if err := enc.Setup(defaults["identity_path"]); err != nil {
				return fmt.Errorf("failed to set up age keys: %w", err)
			}
			fmt.Printf("Age identity: %s\n", defaults["identity_path"])
			fmt.Printf("Recipients:   %s\n", defaults["recipients"])
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Ledger:   %s\n", cfg.LedgerDir)
		fmt.Printf("Base Dir: %s\n", cfg.BaseDir)
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults["config_path"])
		fmt.Printf("Ledger:      %s\n", cfg.LedgerDir)
		fmt.Printf("Base Dir:    %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:     %s\n", cfg.LogDir)
		fmt.Printf("Threshold:   %d (%s)\n", cfg.Overdue.Threshold, cfg.Overdue.AgeModel)
		fmt.Printf("Outbox:      %s\n", cfg.Outbox.Type)
		fmt.Printf("Encryption:  %s\n", cfg.Encryption.Type)
		return nil
	},
}

// overdue command
var overdueCmd = &cobra.Command{
	Use:   "overdue",
	Short: "Report items waiting too long for review",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		profile, _ := cmd.Flags().GetString("profile")
		all, _ := cmd.Flags().GetBool("all")
		threshold, _ := cmd.Flags().GetInt("threshold")
		weekdays, _ := cmd.Flags().GetBool("weekdays")
		business, _ := cmd.Flags().GetBool("business-days")
		priority, _ := cmd.Flags().GetString("priority")
		publish, _ := cmd.Flags().GetBool("publish")
		asJSON, _ := cmd.Flags().GetBool("json")

		if profile != "" && all {
			return usageError("--profile and --all are mutually exclusive")
		}
		if weekdays && business {
			return usageError("--weekdays and --business-days are mutually exclusive")
		}
		if cmd.Flags().Changed("threshold") && threshold < 0 {
			return usageError("--threshold must not be negative")
		}
		switch priority {
		case cr.PriorityLow, cr.PriorityNormal, cr.PriorityHigh:
		default:
			return usageError("unknown priority %q", priority)
		}
		if !cmd.Flags().Changed("threshold") {
			threshold = -1
		}

		ctx := cmd.Context()
		a, err := newApp(ctx, "Overdue", os.Args[1:])
		if err != nil {
			return err
		}
		defer a.Close()

		report, err := a.Overdue(ctx, app.OverdueRequest{
			Profile:      profile,
			Threshold:    threshold,
			Weekdays:     weekdays,
			BusinessDays: business,
			Priority:     priority,
		})
		if err != nil {
			return err
		}
		if report == nil {
			fmt.Println("Nothing is overdue.")
			return nil
		}

		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(report); err != nil {
				return fmt.Errorf("encoding report: %w", err)
			}
		} else {
			printReport(report)
		}

		if publish {
			name, err := a.PublishReport(report)
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "Published %s\n", name)
		}
		return nil
	},
}

func printReport(r *model.OverdueReport) {
	fmt.Printf("%d item(s) overdue by %d or more %s (priority %s)\n", r.Total, r.Threshold, r.AgeModel, r.Priority)
	for _, pr := range r.Profiles {
		fmt.Printf("\n%s: %d item(s), contacts %s\n", pr.Profile, pr.Count, strings.Join(pr.Contacts, ", "))
		for _, g := range pr.ByDate {
			fmt.Printf("  selected %s\n", g.Date.Format("2006-01-02"))
			for _, it := range g.Items {
				fmt.Printf("    %s  %-8s  %3d  %s\n", short(it.SHA1), it.State, it.Age, it.Subject)
			}
		}

		shas := make([]string, 0, len(pr.Concerns))
		for sha := range pr.Concerns {
			shas = append(shas, sha)
		}
		sort.Strings(shas)
		for _, sha := range shas {
			c := pr.Concerns[sha]
			fmt.Printf("\n  concern on %s by %s (%s)\n", short(sha), c.Reviewer, c.Date.Format("2006-01-02"))
			if c.Reason != "" {
				fmt.Printf("    reason: %s\n", c.Reason)
			}
			fmt.Println(indent(c.Explanation, "    "))
		}
	}
	if len(r.Ignored) > 0 {
		fmt.Printf("\nleft out by ignore.overdue: %s\n", strings.Join(r.Ignored, ", "))
	}
}

func short(sha string) string {
	if len(sha) > 12 {
		return sha[:12]
	}
	return sha
}

func indent(text, prefix string) string {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}

// comment command
var commentCmd = &cobra.Command{
	Use:   "comment SHA1",
	Short: "Attach a comment to an item",
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) != 1 {
			return usageError("comment takes exactly one SHA1, got %d argument(s)", len(args))
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		paragraphs, _ := cmd.Flags().GetStringArray("message")

		ctx := cmd.Context()
		a, err := newApp(ctx, "Comment", args)
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.Comment(ctx, args[0], paragraphs)
		if res != nil && res.Skipped {
			fmt.Println("Empty comment; nothing recorded.")
			return nil
		}
		if res != nil && res.Commit != "" {
			fmt.Printf("Comment on %s recorded as %s\n", res.Item.SHA1, res.Commit)
		}
		return err
	},
}

// check command
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the ledger layout",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx, "Check", args)
		if err != nil {
			return err
		}
		defer a.Close()

		summary, err := a.Check(ctx)
		if err != nil {
			return err
		}

		fmt.Printf("%d file(s) checked\n", summary.Files)
		profiles := make([]string, 0, len(summary.Counts))
		for p := range summary.Counts {
			profiles = append(profiles, p)
		}
		sort.Strings(profiles)
		for _, p := range profiles {
			var parts []string
			for state, n := range summary.Counts[p] {
				parts = append(parts, fmt.Sprintf("%s=%d", state, n))
			}
			sort.Strings(parts)
			fmt.Println(ansi.Wordwrap(p+": "+strings.Join(parts, " "), 78, " "))
		}
		return nil
	},
}

// outbox command
var outboxCmd = &cobra.Command{
	Use:   "outbox",
	Short: "Inspect published reports",
}

var outboxGetCmd = &cobra.Command{
	Use:   "get NAME",
	Short: "Print a published report",
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) != 1 {
			return usageError("outbox get takes exactly one report name")
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		identity, _ := cmd.Flags().GetString("identity")
		if identity == "" && strings.HasSuffix(args[0], ".age") {
			defaults, err := app.GetDefaults()
			if err != nil {
				return fmt.Errorf("getting defaults: %w", err)
			}
			identity = defaults["identity_path"]
		}

		a, err := newApp(cmd.Context(), "FetchReport", args)
		if err != nil {
			return err
		}
		defer a.Close()

		return a.FetchReport(args[0], identity, os.Stdout)
	},
}

func init() {
	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return fmt.Errorf("%w: %v", cr.ErrUsage, err)
	})

	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)
	configInitCmd.Flags().String("ledger", "", "Ledger checkout (default: $CR_LEDGER or the current directory)")
	configInitCmd.Flags().Bool("age", false, "Generate an age key pair and encrypt published reports")

	// overdue
	overdueCmd.Flags().StringP("profile", "p", "", "Report only this profile")
	overdueCmd.Flags().BoolP("all", "a", false, "Report all profiles (default)")
	overdueCmd.Flags().IntP("threshold", "t", config.DefaultThreshold, "Minimum age in days (default from config)")
	overdueCmd.Flags().Bool("weekdays", false, "Count only Monday to Friday")
	overdueCmd.Flags().Bool("business-days", false, "Count weekdays that are not ledger holidays")
	overdueCmd.Flags().String("priority", cr.PriorityNormal, "Notification priority: low, normal or high")
	overdueCmd.Flags().Bool("publish", false, "Store the report in the outbox")
	overdueCmd.Flags().Bool("json", false, "Print the report as JSON")

	// comment
	commentCmd.Flags().StringArrayP("message", "m", nil, "Comment paragraph; may be repeated. Opens the editor when omitted")

	// outbox
	outboxCmd.AddCommand(outboxGetCmd)
	outboxGetCmd.Flags().String("identity", "", "age identity file (default: the one created by config init --age)")

	// root commands
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(overdueCmd)
	rootCmd.AddCommand(commentCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(outboxCmd)
}
