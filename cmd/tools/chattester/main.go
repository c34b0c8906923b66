// Command chattester drives the chat pipeline from a terminal without the HTTP server.
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zhouzirui/soothe/backend/internal/app"
	"github.com/zhouzirui/soothe/backend/internal/config"
	"github.com/zhouzirui/soothe/backend/internal/logging"
	"github.com/zhouzirui/soothe/backend/internal/model/mood"
	"github.com/zhouzirui/soothe/backend/internal/service/breathing"
	"github.com/zhouzirui/soothe/backend/internal/service/session"
)

// sleep paces the breathe command; tests swap it out.
var sleep breathing.SleepFunc = breathing.Sleep

type cli struct {
	userID  string
	country string

	services *app.App
	logger   *zap.Logger
}

func main() {
	root, c := newRootCmd()
	if err := execute(context.Background(), root, c); err != nil {
		os.Exit(1)
	}
}

// execute runs the command tree and always releases what setup opened;
// cobra skips post-run hooks when a command fails.
func execute(ctx context.Context, root *cobra.Command, c *cli) error {
	err := root.ExecuteContext(ctx)
	if closeErr := c.teardown(); closeErr != nil && err == nil {
		err = closeErr
	}
	return err
}

func newRootCmd() (*cobra.Command, *cli) {
	c := &cli{}

	root := &cobra.Command{
		Use:           "chattester",
		Short:         "Exercise the support chat pipeline locally",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.setup(cmd.Context())
		},
	}
	root.PersistentFlags().StringVarP(&c.userID, "user", "u", "cli-user", "user id for logged messages and moods")
	root.PersistentFlags().StringVar(&c.country, "country", "", "country code for emergency resources (default from COUNTRY_CODE)")

	root.AddCommand(
		newChatCmd(c),
		newMoodCmd(c),
		newSeriesCmd(c),
		newBreatheCmd(),
	)
	return root, c
}

func (c *cli) setup(ctx context.Context) error {
	if err := godotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "warning: no .env file, using system environment")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	// Keep the terminal readable unless the user asked otherwise.
	if os.Getenv("LOG_LEVEL") == "" {
		cfg.Log.Level = "warn"
	}

	c.logger, err = logging.New(cfg.Log)
	if err != nil {
		return err
	}

	c.services, err = app.Build(ctx, cfg, c.logger)
	if err != nil {
		return err
	}
	if c.country == "" {
		c.country = c.services.Resources.CountryCode()
	}
	return nil
}

func (c *cli) teardown() error {
	if c.logger != nil {
		_ = c.logger.Sync()
	}
	if c.services == nil {
		return nil
	}
	return c.services.Close()
}

func newChatCmd(c *cli) *cobra.Command {
	var message string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat interactively, or send one message with --message",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			if message != "" {
				return c.turn(cmd.Context(), out, message)
			}

			fmt.Fprintln(out, "Type a message, or /quit to leave.")
			scanner := bufio.NewScanner(cmd.InOrStdin())
			for {
				fmt.Fprint(out, "> ")
				if !scanner.Scan() {
					fmt.Fprintln(out)
					return scanner.Err()
				}
				line := strings.TrimSpace(scanner.Text())
				switch line {
				case "":
					continue
				case "/quit", "/exit":
					return nil
				case "/status":
					printStatus(out, c.services.Sessions.Status(c.userID))
					continue
				}
				if err := c.turn(cmd.Context(), out, line); err != nil {
					return err
				}
			}
		},
	}
	cmd.Flags().StringVarP(&message, "message", "m", "", "send a single message and exit")
	return cmd
}

func (c *cli) turn(ctx context.Context, out io.Writer, text string) error {
	turn, err := c.services.Sessions.HandleMessage(ctx, c.userID, text, c.country)
	if err != nil {
		return err
	}

	if turn.Banner != "" {
		fmt.Fprintf(out, "\n!! %s\n", turn.Banner)
		for _, line := range turn.Resources {
			fmt.Fprintf(out, "   - %s\n", line)
		}
		fmt.Fprintln(out)
	}
	fmt.Fprintf(out, "[risk=%s engine=%s] %s\n", turn.Assessment.Risk, turn.Reply.Engine, turn.Reply.Text)
	if turn.Reply.Diagnostic != "" {
		fmt.Fprintf(out, "   (%s)\n", turn.Reply.Diagnostic)
	}
	for _, w := range turn.Warnings {
		fmt.Fprintf(out, "   warning: %s\n", w)
	}
	return nil
}

func printStatus(out io.Writer, status session.Status) {
	fmt.Fprintf(out, "mode=%s model=%s last=%s\n", status.Mode, status.Model, status.LastEngine)
	if status.LastDiagnostic != "" {
		fmt.Fprintf(out, "diagnostic: %s\n", status.LastDiagnostic)
	}
}

func newMoodCmd(c *cli) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   fmt.Sprintf("mood <%d-%d> [note...]", mood.MinValue, mood.MaxValue),
		Short: "Record a daily mood check-in",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("mood must be a number: %w", err)
			}
			note := strings.Join(args[1:], " ")

			entry, err := c.services.Sessions.CheckInMood(cmd.Context(), c.userID, value, note, date)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "saved mood %d for %s\n", entry.Value, entry.Date)
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "check-in date (YYYY-MM-DD), default today")
	return cmd
}

func newSeriesCmd(c *cli) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "series",
		Short: "Print recent mood check-ins, oldest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			points, err := c.services.Sessions.MoodSeries(cmd.Context(), c.userID, days)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(points) == 0 {
				fmt.Fprintln(out, "no check-ins yet")
				return nil
			}
			for _, p := range points {
				fmt.Fprintf(out, "%s %s %d\n", p.Date, strings.Repeat("#", p.Value), p.Value)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&days, "days", mood.DefaultSeriesDays, "number of check-ins to show")
	return cmd
}

func newBreatheCmd() *cobra.Command {
	pattern := breathing.DefaultPattern()

	cmd := &cobra.Command{
		Use:   "breathe",
		Short: "Run a paced breathing exercise",
		// Breathing needs no services.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			err := breathing.Run(cmd.Context(), pattern, sleep, func(step breathing.Step) error {
				_, err := fmt.Fprintf(out, "%s (%ds)\n", step.Label(), step.Seconds)
				return err
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(out, breathing.Completion)
			return nil
		},
	}
	cmd.Flags().IntVar(&pattern.Inhale, "inhale", pattern.Inhale, "inhale seconds")
	cmd.Flags().IntVar(&pattern.Hold, "hold", pattern.Hold, "hold seconds")
	cmd.Flags().IntVar(&pattern.Exhale, "exhale", pattern.Exhale, "exhale seconds")
	cmd.Flags().IntVar(&pattern.Cycles, "cycles", pattern.Cycles, "number of cycles")
	return cmd
}
