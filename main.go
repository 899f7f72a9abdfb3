package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/urfave/cli/v3"
	"github.com/vreid/rps/internal/pkg/client"
	"github.com/vreid/rps/internal/pkg/poller"
)

const defaultStake = "0.0001"

func serverFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:    "port",
			Value:   3000, //nolint:mnd
			Sources: cli.EnvVars("RPS_PORT"),
		},
		&cli.StringFlag{
			Name:    "data-dir",
			Value:   "./rps/data",
			Sources: cli.EnvVars("RPS_DATA_DIR"),
		},
		&cli.StringFlag{
			Name:    "rpc-url",
			Value:   "http://127.0.0.1:8545",
			Sources: cli.EnvVars("RPS_RPC_URL"),
		},
		&cli.StringFlag{
			Name:     "house-address",
			Sources:  cli.EnvVars("RPS_HOUSE_ADDRESS"),
			Required: true,
		},
		&cli.StringFlag{
			Name:     "arena-address",
			Sources:  cli.EnvVars("RPS_ARENA_ADDRESS"),
			Required: true,
		},
		&cli.StringFlag{
			Name:    "private-key",
			Sources: cli.EnvVars("RPS_PRIVATE_KEY"),
		},
		&cli.StringFlag{
			Name:    "keystore-dir",
			Sources: cli.EnvVars("RPS_KEYSTORE_DIR"),
		},
		&cli.StringFlag{
			Name:    "passphrase",
			Sources: cli.EnvVars("RPS_PASSPHRASE"),
		},
		&cli.StringFlag{
			Name:    "account",
			Sources: cli.EnvVars("RPS_ACCOUNT"),
		},
		&cli.DurationFlag{
			Name:    "poll-interval",
			Value:   poller.DefaultInterval,
			Sources: cli.EnvVars("RPS_POLL_INTERVAL"),
		},
		&cli.DurationFlag{
			Name:    "chain-watch-interval",
			Value:   10 * time.Second, //nolint:mnd
			Sources: cli.EnvVars("RPS_CHAIN_WATCH_INTERVAL"),
		},
		&cli.BoolFlag{
			Name:    "confirm",
			Usage:   "ask before signing every transaction",
			Sources: cli.EnvVars("RPS_CONFIRM"),
		},
		&cli.StringFlag{
			Name:    "log-level",
			Value:   "info",
			Sources: cli.EnvVars("RPS_LOG_LEVEL"),
		},
	}
}

func clientFlags(flags ...cli.Flag) []cli.Flag {
	return append([]cli.Flag{
		&cli.StringFlag{
			Name:    "server",
			Value:   client.DefaultServer,
			Sources: cli.EnvVars("RPS_SERVER"),
		},
	}, flags...)
}

func stakeFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "stake",
		Value:   defaultStake,
		Usage:   "wager in ether",
		Sources: cli.EnvVars("RPS_STAKE"),
	}
}

//nolint:funlen
func main() {
	//nolint:exhaustruct
	cmd := &cli.Command{
		Name:  "rps",
		Usage: "wager rock-paper-scissors against a contract or another wallet",
		Commands: []*cli.Command{
			{
				Name:   "server",
				Usage:  "hold the wallet session and serve the local API",
				Flags:  serverFlags(),
				Action: runServer,
			},
			{
				Name:      "session",
				Usage:     "show or switch the connected account",
				ArgsUsage: "[account]",
				Flags:     clientFlags(),
				Action:    runSession,
			},
			{
				Name:      "play",
				Usage:     "play one round against the house",
				ArgsUsage: "<rock|paper|scissors>",
				Flags:     clientFlags(stakeFlag()),
				Action:    runPlay,
			},
			{
				Name:      "deposit",
				Usage:     "fund the house",
				ArgsUsage: "<amount>",
				Flags:     clientFlags(),
				Action:    runDeposit,
			},
			{
				Name:   "withdraw",
				Usage:  "drain the house to its owner",
				Flags:  clientFlags(),
				Action: runWithdraw,
			},
			{
				Name:   "balance",
				Usage:  "show the house balance",
				Flags:  clientFlags(),
				Action: runBalance,
			},
			{
				Name:   "score",
				Usage:  "show the scoreboard of this session",
				Flags:  clientFlags(),
				Action: runScore,
			},
			{
				Name:  "history",
				Usage: "list recent games",
				Flags: clientFlags(
					&cli.BoolFlag{
						Name:  "pvp",
						Usage: "show games against other wallets",
					},
					&cli.StringFlag{
						Name:  "account",
						Usage: "defaults to the connected account",
					},
				),
				Action: runHistory,
			},
			{
				Name:      "create",
				Usage:     "open a match and wait for an opponent",
				ArgsUsage: "<rock|paper|scissors>",
				Flags: clientFlags(stakeFlag(),
					&cli.BoolFlag{
						Name:  "no-wait",
						Usage: "return once the match is open",
					},
					&cli.DurationFlag{
						Name:  "wait-interval",
						Value: poller.DefaultInterval,
					},
				),
				Action: runCreate,
			},
			{
				Name:      "join",
				Usage:     "join an open match",
				ArgsUsage: "<game-id> <rock|paper|scissors>",
				Flags: clientFlags(stakeFlag(),
					&cli.DurationFlag{
						Name:  "wait-interval",
						Value: poller.DefaultInterval,
					},
				),
				Action: runJoin,
			},
			{
				Name:      "game",
				Usage:     "show the on-chain state of a match",
				ArgsUsage: "<game-id>",
				Flags:     clientFlags(),
				Action:    runGame,
			},
		},
		DefaultCommand: "server",
	}

	err := cmd.Run(context.Background(), os.Args)
	if err != nil {
		log.Fatal(err)
	}
}
