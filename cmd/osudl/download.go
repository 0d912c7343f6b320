package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"osudl/internal/downloader"
	"osudl/pkg/app"
	"osudl/pkg/auth"
	"osudl/pkg/config"
	"osudl/pkg/logger"
	"osudl/pkg/ui"
	"osudl/pkg/ui/tui"
)

var (
	limit       int
	noVideo     bool
	libraryRoot string
	useTUI      bool
	notify      bool
)

// downloadCmd represents the download command
var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Download the most favourited beatmap sets",
	Long: `Download the most favourited beatmap sets into the library directory.

Sets that already exist in the library, either unpacked as a directory or as
an .osz archive, are skipped. Credentials are taken from the system keyring,
the encrypted credential file or OSUDL_USERNAME/OSUDL_PASSWORD; when none
are stored you are asked for them.`,
	Example: `  # Download the top 200 beatmap sets into the current directory
  osudl download

  # Download the top 50 without videos
  osudl download -l 50 -n

  # Download into your osu! Songs folder
  osudl download --library-root ~/osu/Songs

  # Follow the run in the interactive terminal UI
  osudl download --tui --notify`,
	Args: cobra.NoArgs,
	RunE: runDownload,
}

func init() {
	rootCmd.AddCommand(downloadCmd)

	downloadCmd.Flags().IntVarP(&limit, "limit", "l", 200, "number of beatmap sets to collect")
	downloadCmd.Flags().BoolVarP(&noVideo, "no-video", "n", false, "download archives without video")
	downloadCmd.Flags().StringVar(&libraryRoot, "library-root", "", "library directory (default: current directory)")
	downloadCmd.Flags().BoolVar(&useTUI, "tui", false, "show the run in an interactive terminal UI")
	downloadCmd.Flags().BoolVar(&notify, "notify", false, "send a desktop notification when the run ends")
}

func runDownload(cmd *cobra.Command, args []string) error {
	flags := make(map[string]interface{})
	if cmd.Flags().Changed("limit") {
		flags["limit"] = limit
	}
	if noVideo {
		flags["no-video"] = true
	}
	if libraryRoot != "" {
		flags["library-root"] = libraryRoot
	}
	if logLevel != "" {
		flags["log-level"] = logLevel
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		return err
	}

	console := io.Writer(os.Stdout)
	if useTUI {
		// the file sink still receives everything
		console = io.Discard
	}
	log, err := logger.NewWithWriter(&cfg.Logging, console)
	if err != nil {
		ui.PrintError("Failed to initialize logger", err.Error())
		return err
	}
	defer log.Close()
	log = log.WithField("version", version)

	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential manager", err.Error())
		return err
	}

	creds, err := auth.Resolve(manager, auth.NewPrompter(), log)
	if err != nil {
		ui.PrintError("Failed to read credentials", err.Error())
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	session, err := app.NewSession(cfg, creds, log)
	if err != nil {
		ui.PrintError("Failed to start downloader", err.Error())
		return err
	}

	var res downloader.Result
	if useTUI {
		res, err = runWithTUI(ctx, session)
	} else {
		res, err = session.Run(ctx)
	}

	if notify {
		title, message := runNotification(res, err)
		if nerr := ui.NewNotifier().Notify(title, message); nerr != nil {
			log.WithError(nerr).Warn("Failed to send desktop notification")
		}
	}

	fields := runFields(res)
	if cerr := session.Close(); cerr != nil {
		fields["close_error"] = cerr.Error()
	}
	log.InfoWithFields("Run complete", fields)
	return err
}

func runFields(res downloader.Result) map[string]interface{} {
	return map[string]interface{}{
		"state":      res.State.String(),
		"downloaded": res.Downloaded,
		"failures":   res.TotalFailures,
		"remaining":  res.Remaining,
	}
}

// runWithTUI runs the session behind the terminal UI. Quitting the UI
// cancels the run.
func runWithTUI(ctx context.Context, session *app.Session) (downloader.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	view := tui.New()
	session.SetReporter(view)

	var res downloader.Result
	var runErr error
	done := make(chan struct{})
	go func() {
		defer close(done)
		res, runErr = session.Run(ctx)
		view.Close()
	}()

	if err := view.Run(); err != nil {
		cancel()
		<-done
		return res, fmt.Errorf("terminal UI failed: %w", err)
	}
	if view.Interrupted() {
		cancel()
	}
	<-done
	return res, runErr
}

func runNotification(res downloader.Result, err error) (string, string) {
	switch {
	case err == nil:
		return "osudl finished", fmt.Sprintf("Downloaded %d beatmap sets", res.Downloaded)
	case errors.Is(err, downloader.ErrDownloadLimitReached):
		return "osudl stopped", fmt.Sprintf("Website download limit reached after %d downloads", res.Downloaded)
	default:
		return "osudl failed", err.Error()
	}
}
