package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kagerou/wg-monitor/body"
	"github.com/kagerou/wg-monitor/config"
	"github.com/kagerou/wg-monitor/discovery"
	"github.com/kagerou/wg-monitor/logging"
	"github.com/kagerou/wg-monitor/monitor"
	"github.com/kagerou/wg-monitor/notify"
	"github.com/kagerou/wg-monitor/peer"
	"github.com/kagerou/wg-monitor/probe"
	"github.com/kagerou/wg-monitor/report"
	"go.uber.org/zap"
)

// Exit codes (spec.md §6, stable contract).
const (
	exitSuccess          = 0
	exitUnspecified      = 1
	exitCLIParse         = 8
	exitGeneric          = 9
	exitMissingFiles     = 10
	exitUnknownLanguage  = 11
	exitCommandNotFound  = 12
	exitNetworkError     = 13
	exitOtherPermissions = 14
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		iface            string
		configPath       string
		peerFilePath     string
		urlFilePath      string
		command          string
		mode             string
		caBundle         string
		peerTimeoutSecs  int
		sleepSecs        int
		reminderDelays   string
		waitForInterface bool
		progress         bool
		language         string
		dryRun           bool
		hostname         string
		catalogPath      string
		debugLog         bool
		version          bool
	)

	fs := flag.NewFlagSet("wg-monitor", flag.ContinueOnError)
	fs.StringVar(&iface, "interface", "", "WireGuard interface name")
	fs.StringVar(&configPath, "config", "", "daemon config file (JSON or YAML)")
	fs.StringVar(&peerFilePath, "peer-file", "", "explicit peer list file path")
	fs.StringVar(&urlFilePath, "url-file", "", "explicit notification URL list file path")
	fs.StringVar(&command, "command", "", "external notification command")
	fs.StringVar(&mode, "mode", "url", "dispatch mode: url, command, or both")
	fs.StringVar(&caBundle, "ca-bundle", "", "PEM CA bundle overriding the system trust store")
	fs.IntVar(&peerTimeoutSecs, "peer-timeout", 300, "peer-lost threshold in seconds")
	fs.IntVar(&sleepSecs, "sleep-interval", 60, "polling interval in seconds")
	fs.StringVar(&reminderDelays, "reminder-delays", "", "comma-separated five-element reminder schedule (e.g. 6h,24h,48h,72h,168h)")
	fs.BoolVar(&waitForInterface, "wait-for-interface", false, "block at startup until the interface appears, instead of failing fatally")
	fs.BoolVar(&progress, "progress", false, "log each peer whose state change counts toward reporting, every cycle")
	fs.StringVar(&language, "language", "en", "notification locale")
	fs.BoolVar(&dryRun, "dry-run", false, "print notifications to stdout instead of dispatching them")
	fs.StringVar(&hostname, "hostname", "", "override the public-key-derived server display name")
	fs.StringVar(&catalogPath, "catalog", "", "translation catalog file path")
	fs.BoolVar(&debugLog, "debug", false, "enable verbose development logging")
	fs.BoolVar(&version, "version", false, "print the version and exit")

	if err := fs.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitSuccess
		}
		fmt.Fprintln(os.Stderr, err)
		return exitCLIParse
	}

	if version {
		fmt.Println("wg-monitor (development build)")
		return exitSuccess
	}

	sugar, err := logging.Setup(debugLog)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitGeneric
	}
	defer sugar.Sync()

	var configFile *config.File
	if configPath != "" {
		f, err := config.Load(configPath)
		if err != nil {
			zap.S().Errorf("loading config: %s", err)
			return exitMissingFiles
		}
		configFile = f
		applyConfigFile(f, &iface, &peerFilePath, &urlFilePath, &command, &mode, &caBundle,
			&peerTimeoutSecs, &sleepSecs, &waitForInterface, &progress, &language, &dryRun, &hostname)
	}

	if iface == "" {
		zap.S().Errorf("interface name is required")
		return exitCLIParse
	}

	dispatchMode, err := parseMode(mode)
	if err != nil {
		zap.S().Errorf("%s", err)
		return exitCLIParse
	}

	var schedule report.Schedule
	if reminderDelays == "" && configFile != nil {
		schedule, err = configFile.Schedule()
	} else {
		schedule, err = parseSchedule(reminderDelays)
	}
	if err != nil {
		zap.S().Errorf("%s", err)
		return exitCLIParse
	}

	translation, err := loadTranslation(catalogPath, language)
	if err != nil {
		var missing missingLanguageError
		if errors.As(err, &missing) {
			zap.S().Errorf("%s", err)
			return exitUnknownLanguage
		}
		zap.S().Errorf("%s", err)
		return exitMissingFiles
	}

	peerFile, err := discovery.FindFile(peerFilePath, iface, "peers.list", ".list")
	if err != nil {
		zap.S().Errorf("%s", err)
		return exitMissingFiles
	}
	configuredPeers, err := discovery.PeerList(peerFile)
	if err != nil {
		zap.S().Errorf("%s", err)
		return exitMissingFiles
	}

	var urls []string
	if dispatchMode != notify.ModeCommandOnly {
		urlFile, err := discovery.FindFile(urlFilePath, iface, "batsign.url", ".url")
		if err != nil {
			zap.S().Errorf("%s", err)
			return exitMissingFiles
		}
		urls, err = discovery.URLList(urlFile)
		if err != nil {
			zap.S().Errorf("%s", err)
			return exitMissingFiles
		}
	}

	dispatcher, err := notify.NewDispatcher(dispatchMode, command, urls, caBundle)
	if err != nil {
		zap.S().Errorf("building dispatcher: %s", err)
		return exitGeneric
	}
	dispatcher.DryRun = dryRun

	peerSet := map[peer.Key]struct{}{}
	for _, key := range configuredPeers {
		peerSet[key] = struct{}{}
	}

	monCtx := &monitor.Context{
		Iface:            iface,
		Interval:         time.Duration(sleepSecs) * time.Second,
		LostAfter:        time.Duration(peerTimeoutSecs) * time.Second,
		Schedule:         schedule,
		Peers:            peerSet,
		Mode:             dispatchMode,
		Command:          command,
		URLs:             urls,
		CABundle:         caBundle,
		Locale:           language,
		DryRun:           dryRun,
		WaitForInterface: waitForInterface,
		Progress:         progress,
		Hostname:         hostname,
	}

	m, err := monitor.New(monCtx, &monitor.Deps{Translation: translation, Dispatcher: dispatcher})
	if err != nil {
		return exitForProbeErr(err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := m.Run(ctx); err != nil {
		zap.S().Errorf("fatal: %s", err)
		return exitForProbeErr(err)
	}
	return exitSuccess
}

func exitForProbeErr(err error) int {
	var perr *probe.Error
	if errors.As(err, &perr) {
		switch perr.Kind {
		case probe.NeedElevation:
			return exitOtherPermissions
		case probe.ToolMissing:
			return exitCommandNotFound
		case probe.NoSuchInterface:
			return exitMissingFiles
		case probe.NetworkFailure:
			return exitNetworkError
		default:
			return exitUnspecified
		}
	}
	return exitGeneric
}

func parseMode(s string) (notify.Mode, error) {
	switch s {
	case "", "url":
		return notify.ModeURLOnly, nil
	case "command":
		return notify.ModeCommandOnly, nil
	case "both":
		return notify.ModeBoth, nil
	default:
		return 0, fmt.Errorf("unknown dispatch mode %q (want url, command, or both)", s)
	}
}

func parseSchedule(commaSeparated string) (report.Schedule, error) {
	if commaSeparated == "" {
		return report.DefaultSchedule, nil
	}
	var s report.Schedule
	parts := splitCommaFive(commaSeparated)
	if parts == nil {
		return report.Schedule{}, fmt.Errorf("reminder-delays must have exactly five comma-separated durations")
	}
	for i, part := range parts {
		d, err := time.ParseDuration(part)
		if err != nil {
			return report.Schedule{}, fmt.Errorf("reminder-delays[%d] = %q: %w", i, part, err)
		}
		s[i] = d
	}
	return s, nil
}

func splitCommaFive(s string) []string {
	var parts []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == ',' {
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	parts = append(parts, s[start:])
	if len(parts) != 5 {
		return nil
	}
	return parts
}

type missingLanguageError struct {
	language string
}

func (e missingLanguageError) Error() string {
	return fmt.Sprintf("unknown language %q", e.language)
}

func loadTranslation(catalogPath, language string) (*body.Translation, error) {
	if catalogPath == "" {
		return nil, fmt.Errorf("no translation catalog configured (use -catalog)")
	}
	f, err := os.Open(catalogPath)
	if err != nil {
		return nil, fmt.Errorf("opening catalog %s: %w", catalogPath, err)
	}
	defer f.Close()
	cat, err := body.LoadCatalog(f)
	if err != nil {
		return nil, fmt.Errorf("parsing catalog %s: %w", catalogPath, err)
	}
	tr, ok := cat[language]
	if !ok {
		return nil, missingLanguageError{language: language}
	}
	return tr, nil
}

func applyConfigFile(f *config.File, iface, peerFilePath, urlFilePath, command, mode, caBundle *string,
	peerTimeoutSecs, sleepSecs *int, waitForInterface, progress *bool, language *string, dryRun *bool, hostname *string) {
	if *iface == "" {
		*iface = f.Interface
	}
	if *peerFilePath == "" {
		*peerFilePath = f.PeerFile
	}
	if *urlFilePath == "" {
		*urlFilePath = f.URLFile
	}
	if *command == "" {
		*command = f.Command
	}
	if *mode == "url" && f.Mode != "" {
		*mode = f.Mode
	}
	if *caBundle == "" {
		*caBundle = f.CABundle
	}
	if f.PeerTimeoutSecs != 0 {
		*peerTimeoutSecs = f.PeerTimeoutSecs
	}
	if f.SleepIntervalSecs != 0 {
		*sleepSecs = f.SleepIntervalSecs
	}
	*waitForInterface = *waitForInterface || f.WaitForInterface
	*progress = *progress || f.Progress
	if f.Language != "" {
		*language = f.Language
	}
	*dryRun = *dryRun || f.DryRun
	if *hostname == "" {
		*hostname = f.Hostname
	}
}
