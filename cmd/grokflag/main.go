package main

import (
	"context"
	"errors"
	"io"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"grokflag"
)

var (
	accountsFile string
	workerCount  int
	engineLog    *log.Logger
)

const (
	proxiesFile        = "proxies.txt"
	workerStaggerDelay = 50 * time.Millisecond
)

func main() {
	parseArgs()

	engineLogFile, moduleLogFile, modLog := setupLogging()
	defer engineLogFile.Close()
	defer moduleLogFile.Close()

	_ = godotenv.Load()

	accounts, proxyManager := loadResources()
	scheduler := createScheduler(proxyManager, &moduleLogger{logger: modLog})

	exitCode := run(scheduler, accounts)
	os.Exit(exitCode)
}

func parseArgs() {
	if len(os.Args) < 3 {
		log.Fatal("Usage: grokflag <accounts-file> <worker-count>\nExample:\n  grokflag accounts.txt 10")
	}

	accountsFile = os.Args[1]

	var err error
	workerCount, err = strconv.Atoi(os.Args[2])
	if err != nil || workerCount <= 0 {
		log.Fatal("worker-count must be a positive integer")
	}
}

func setupLogging() (engineLogFile, moduleLogFile *os.File, modLog *log.Logger) {
	var err error

	engineLogFile, err = os.OpenFile("engine.log", os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.Fatalf("Failed to open engine log file: %v", err)
	}
	engineLog = log.New(io.MultiWriter(os.Stdout, engineLogFile), "", log.LstdFlags)

	moduleLogFile, err = os.OpenFile("grokflag.log", os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		engineLog.Fatalf("Failed to open module log file: %v", err)
	}
	modLog = log.New(io.MultiWriter(os.Stdout, moduleLogFile), "", log.LstdFlags)

	return engineLogFile, moduleLogFile, modLog
}

func loadResources() ([]Account, *ProxyManager) {
	accounts, skipped, err := LoadAccounts(accountsFile)
	if err != nil {
		engineLog.Fatalf("Failed to load accounts: %v", err)
	}
	engineLog.Printf("Loaded %d accounts", len(accounts))
	if len(skipped) > 0 {
		engineLog.Printf("Skipped %d malformed account lines: %v", len(skipped), skipped)
	}

	if _, err := os.Stat(proxiesFile); errors.Is(err, os.ErrNotExist) {
		engineLog.Printf("No %s found, connecting directly", proxiesFile)
		return accounts, nil
	}

	proxyManager, err := NewProxyManager(proxiesFile)
	if err != nil {
		engineLog.Fatalf("Failed to load proxies: %v", err)
	}
	engineLog.Printf("Loaded %d proxies", proxyManager.Count())

	return accounts, proxyManager
}

func createScheduler(proxyManager *ProxyManager, modLog grokflag.Logger) *Scheduler {
	imp := GetImpersonate()
	if _, err := grokflag.LookupProfile(imp); err != nil {
		engineLog.Fatalf("Invalid IMPERSONATE: %v (available: %v)", err, grokflag.ProfileNames())
	}

	template := RequestTemplate{
		Impersonate: imp,
		UserAgent:   GetUserAgent(),
		Timeout:     GetRequestTimeout(),
	}
	service := grokflag.NewService(GetClearanceToken(), grokflag.WithLogger(modLog))
	newSession := tlsSessionFactory(template.Impersonate, template.Timeout, modLog, TLSDebugEnabled())

	return NewScheduler(workerCount, service, template, proxyManager, newSession, workerStaggerDelay, modLog)
}

func run(scheduler *Scheduler, accounts []Account) int {
	engineLog.Printf("Starting %d concurrent workers (%d accounts, profile: %s, stagger: %v)...",
		scheduler.WorkerCount(), len(accounts), GetImpersonate(), workerStaggerDelay)

	scheduler.Start(context.Background())

	submitted := make(chan struct{})
	go func() {
		defer close(submitted)
		for _, acc := range accounts {
			if !scheduler.Submit(acc) {
				return
			}
		}
	}()

	summary, fatalErr := collect(scheduler, len(accounts))

	<-submitted
	scheduler.Close()

	if fatalErr != nil {
		engineLog.Printf("=== ABORTED after %d accounts: %s (fatal error: %v) ===", summary.Total(), summary, fatalErr)
		return 1
	}

	engineLog.Printf("=== Complete: %s ===", summary)
	if summary.Failed() > 0 {
		return 1
	}
	return 0
}

// collect reads results until every account is accounted for or a fatal
// error stops the scheduler.
func collect(scheduler *Scheduler, total int) (Summary, error) {
	var summary Summary
	results := scheduler.Results()

	for summary.Total() < total {
		select {
		case result := <-results:
			if result.Fatal {
				return summary, result.Error
			}
			summary.Add(result.Result)
			if result.Result.OK {
				engineLog.Printf("[%d/%d] ENABLED: %s", summary.Total(), total, result.Account.Display())
			} else {
				engineLog.Printf("[%d/%d] FAILED: %s: %s", summary.Total(), total, result.Account.Display(), result.Result.Error)
			}
		case <-scheduler.Done():
			return summary, scheduler.FatalErr()
		}
	}

	return summary, nil
}
