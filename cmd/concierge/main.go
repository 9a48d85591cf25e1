package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hrygo/concierge/internal/profile"
	"github.com/hrygo/concierge/server"
	"github.com/hrygo/concierge/server/dispatcher"
)

const version = "0.4.0"

var rootCmd = &cobra.Command{
	Use:     "concierge",
	Short:   "Chat-driven personal assistant bridging an LLM, Notion and Google Calendar",
	Version: version,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP chat server",
	RunE: func(cmd *cobra.Command, _ []string) error {
		prof, logger, err := setup()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		srv, err := server.NewServer(ctx, prof, logger)
		if err != nil {
			return err
		}

		avail := srv.Dispatcher.Availability()
		logger.Info("concierge started",
			slog.String("version", version),
			slog.String("addr", fmt.Sprintf("%s:%d", prof.Addr, prof.Port)),
			slog.Bool("completion", avail.Completion),
			slog.Bool("tasks", avail.Task),
			slog.Bool("calendar", avail.Calendar))

		return srv.Start(ctx)
	},
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Run an interactive chat session in the terminal",
	RunE: func(cmd *cobra.Command, _ []string) error {
		prof, logger, err := setup()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		d, err := server.NewDispatcher(ctx, prof, logger)
		if err != nil {
			return err
		}

		return runREPL(ctx, d)
	},
}

// runREPL drives a single session for the process lifetime, one turn at a
// time: the next prompt is not shown until the current turn has completed.
func runREPL(ctx context.Context, d *dispatcher.Dispatcher) error {
	sess := dispatcher.NewManager().Create()

	promptColor := color.New(color.FgCyan, color.Bold)
	replyColor := color.New(color.FgGreen)
	noticeColor := color.New(color.FgYellow)

	noticeColor.Println("concierge ready. Type a command, or \"exit\" to quit.")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		promptColor.Print("you> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		if text == "exit" || text == "quit" {
			return nil
		}

		reply, _ := d.HandleTurn(ctx, sess, text)
		replyColor.Printf("concierge> %s\n", reply)

		select {
		case <-ctx.Done():
			return nil
		default:
		}
	}
}

// setup loads configuration and prepares the logger. Collaborator
// initialization errors later halt startup; missing credentials only
// degrade their branch.
func setup() (*profile.Profile, *slog.Logger, error) {
	// Optional; real deployments configure through the environment
	_ = godotenv.Load()

	prof := &profile.Profile{
		Mode:    viper.GetString("mode"),
		Addr:    viper.GetString("addr"),
		Port:    viper.GetInt("port"),
		Version: version,
	}
	prof.FromEnv()
	if err := prof.Validate(); err != nil {
		return nil, nil, err
	}

	level := slog.LevelInfo
	if prof.IsDev() {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	return prof, logger, nil
}

func init() {
	rootCmd.PersistentFlags().String("mode", "dev", `mode of the assistant, can be "dev" or "prod"`)
	rootCmd.PersistentFlags().String("addr", "", "address of the HTTP server")
	rootCmd.PersistentFlags().Int("port", 8081, "port of the HTTP server")

	if err := viper.BindPFlag("mode", rootCmd.PersistentFlags().Lookup("mode")); err != nil {
		panic(err)
	}
	if err := viper.BindPFlag("addr", rootCmd.PersistentFlags().Lookup("addr")); err != nil {
		panic(err)
	}
	if err := viper.BindPFlag("port", rootCmd.PersistentFlags().Lookup("port")); err != nil {
		panic(err)
	}

	viper.SetEnvPrefix("concierge")
	viper.AutomaticEnv()

	rootCmd.AddCommand(serveCmd, chatCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
