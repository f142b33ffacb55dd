// SPDX-License-Identifier: MIT

package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/ttacon/chalk"

	"github.com/nostr-badger/badger/cfg"
	"github.com/nostr-badger/badger/lifecycle"
	"github.com/nostr-badger/badger/model"
	"github.com/nostr-badger/badger/relay"
	"github.com/nostr-badger/badger/store"
)

type config struct {
	RelayURLs      []string `mapstructure:"relayUrls" yaml:"relayUrls"`
	TimeoutSeconds int      `mapstructure:"timeoutSeconds" yaml:"timeoutSeconds"`
	DefinitionsDir string   `mapstructure:"definitionsDir" yaml:"definitionsDir"`
	DataDir        string   `mapstructure:"dataDir" yaml:"dataDir"`
	LogLevel       string   `mapstructure:"logLevel" yaml:"logLevel"`
}

var (
	configPath string
	relayURLs  []string
	nsec       string
	badger     = &cobra.Command{
		Use:   "badger",
		Short: "issue, award and accept NIP-58 badges over nostr relays",
	}
)

func init() {
	badger.PersistentFlags().StringVar(&configPath, "config", "badger.yaml", "path to the yaml configuration")
	badger.PersistentFlags().StringSliceVar(&relayURLs, "relay", nil, "relay url(s) to publish to, overrides the configuration")
	badger.PersistentFlags().StringVar(&nsec, "nsec", "", "private key (nsec1... or hex); prompted for when omitted")
	badger.AddCommand(awardCmd, acceptCmd)
}

func main() {
	if err := badger.Execute(); err != nil {
		log.Fatal(err)
	}
}

func loadConfig() *config {
	cfg.MustInit(configPath)
	conf := cfg.MustGet[config]()
	if len(relayURLs) > 0 {
		conf.RelayURLs = relayURLs
	}
	if conf.TimeoutSeconds == 0 {
		conf.TimeoutSeconds = 10
	}
	if conf.DefinitionsDir == "" {
		conf.DefinitionsDir = "badges/definitions"
	}
	if conf.DataDir == "" {
		conf.DataDir = "data"
	}

	return conf
}

func newEngine(conf *config, publisher *relay.Publisher) *lifecycle.Engine {
	return lifecycle.New(publisher, store.New(conf.DataDir), conf.RelayURLs, time.Duration(conf.TimeoutSeconds)*time.Second)
}

func promptLine(reader *bufio.Reader, label string) (string, error) {
	fmt.Print(label)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(line), nil
}

func resolveKey(reader *bufio.Reader) (string, error) {
	if nsec != "" {
		return nsec, nil
	}

	return promptLine(reader, "Enter your private key (nsec): ")
}

func printSummary(result *relay.Result) {
	fmt.Println()
	fmt.Println("Relay publish summary:")
	for ix := range result.Outcomes {
		out := &result.Outcomes[ix]
		switch out.Status {
		case relay.StatusAccepted:
			fmt.Printf("  %s✔ %v: accepted%s\n", chalk.Green, out.Relay, chalk.Reset)
		case relay.StatusRejected:
			fmt.Printf("  %s✘ %v: rejected (%v)%s\n", chalk.Red, out.Relay, out.Err, chalk.Reset)
		case relay.StatusTimedOut:
			fmt.Printf("  %s✘ %v: timed out%s\n", chalk.Yellow, out.Relay, chalk.Reset)
		default:
			fmt.Printf("  %s✘ %v: unreachable (%v)%s\n", chalk.Yellow, out.Relay, out.Err, chalk.Reset)
		}
	}
	fmt.Printf("Accepted on %v/%v relay(s): %v\n", result.Accepted(), len(result.Outcomes), result.Status())
}

func reportResult(result *relay.Result) error {
	printSummary(result)
	if result.Status() == relay.TotalFailure {
		return result.Err()
	}

	return nil
}

func stdinReader() *bufio.Reader {
	return bufio.NewReader(os.Stdin)
}

// verifyStored queries the event back by id so the user knows which relays
// actually stored it, not just acknowledged it.
func verifyStored(ctx context.Context, publisher *relay.Publisher, ev *model.Event, conf *config) {
	count := publisher.CountStored(ctx, ev, conf.RelayURLs, time.Duration(conf.TimeoutSeconds)*time.Second)
	if count > 0 {
		fmt.Printf("Verified stored on %v/%v relay(s)\n", count, len(conf.RelayURLs))
	} else {
		fmt.Println("Could not verify storage yet, the event may take a moment to appear")
	}
}
