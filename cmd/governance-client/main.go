package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ruteri/token-governance/api/governancehandler"
	"github.com/ruteri/token-governance/cmd/flags"
	"github.com/ruteri/token-governance/interfaces"
	"github.com/urfave/cli/v2"
)

const usage string = `Administer and query a token governance server.

Mutating commands send --caller as the authenticated principal.`

func main() {
	app := &cli.App{
		Name:  "governance-client",
		Usage: usage,
		Flags: []cli.Flag{
			flags.ServerAddrFlag,
			flags.CallerFlag,
		},
		Commands: []*cli.Command{
			{
				Name:      "initialize",
				Usage:     "set the first governor",
				ArgsUsage: "<governor>",
				Action: withArgs(1, func(c *governancehandler.Client, cCtx *cli.Context) error {
					governor, err := parseAddress(cCtx, 0)
					if err != nil {
						return err
					}
					return c.Initialize(cCtx.Context, governor)
				}),
			},
			{
				Name:      "change-governor",
				Usage:     "hand control to a new governor",
				ArgsUsage: "<governor>",
				Action: withArgs(1, func(c *governancehandler.Client, cCtx *cli.Context) error {
					governor, err := parseAddress(cCtx, 0)
					if err != nil {
						return err
					}
					return c.ChangeGovernor(cCtx.Context, governor)
				}),
			},
			{
				Name:      "add-token",
				Usage:     "register a token",
				ArgsUsage: "<token-id> <token-address>",
				Action: withArgs(2, func(c *governancehandler.Client, cCtx *cli.Context) error {
					tokenID, err := parseTokenID(cCtx, 0)
					if err != nil {
						return err
					}
					tokenAddress, err := parseAddress(cCtx, 1)
					if err != nil {
						return err
					}
					return c.AddToken(cCtx.Context, tokenID, tokenAddress)
				}),
			},
			{
				Name:      "set-paused",
				Usage:     "set the pause flag of a token",
				ArgsUsage: "<token-id> <true|false>",
				Action: withArgs(2, func(c *governancehandler.Client, cCtx *cli.Context) error {
					tokenID, err := parseTokenID(cCtx, 0)
					if err != nil {
						return err
					}
					paused, err := strconv.ParseBool(cCtx.Args().Get(1))
					if err != nil {
						return fmt.Errorf("could not parse paused flag: %w", err)
					}
					return c.SetTokenPaused(cCtx.Context, tokenID, paused)
				}),
			},
			{
				Name:      "set-address",
				Usage:     "rotate the address of a token",
				ArgsUsage: "<token-id> <token-address>",
				Action: withArgs(2, func(c *governancehandler.Client, cCtx *cli.Context) error {
					tokenID, err := parseTokenID(cCtx, 0)
					if err != nil {
						return err
					}
					tokenAddress, err := parseAddress(cCtx, 1)
					if err != nil {
						return err
					}
					return c.SetTokenAddress(cCtx.Context, tokenID, tokenAddress)
				}),
			},
			{
				Name:      "set-validator",
				Usage:     "set the validator status of a principal",
				ArgsUsage: "<address> <true|false>",
				Action: withArgs(2, func(c *governancehandler.Client, cCtx *cli.Context) error {
					validator, err := parseAddress(cCtx, 0)
					if err != nil {
						return err
					}
					active, err := strconv.ParseBool(cCtx.Args().Get(1))
					if err != nil {
						return fmt.Errorf("could not parse validator status: %w", err)
					}
					return c.SetValidator(cCtx.Context, validator, active)
				}),
			},
			{
				Name:      "set-bridge-manager",
				Usage:     "replace the bridge manager",
				ArgsUsage: "<address>",
				Action: withArgs(1, func(c *governancehandler.Client, cCtx *cli.Context) error {
					manager, err := parseAddress(cCtx, 0)
					if err != nil {
						return err
					}
					return c.SetBridgeManager(cCtx.Context, manager)
				}),
			},
			{
				Name:  "governor",
				Usage: "print the current governor",
				Action: withArgs(0, func(c *governancehandler.Client, cCtx *cli.Context) error {
					governor, err := c.NetworkGovernor(cCtx.Context)
					if err != nil {
						return err
					}
					return printJSON(map[string]common.Address{"governor": governor})
				}),
			},
			{
				Name:      "token",
				Usage:     "print a token record",
				ArgsUsage: "<token-id>",
				Action: withArgs(1, func(c *governancehandler.Client, cCtx *cli.Context) error {
					tokenID, err := parseTokenID(cCtx, 0)
					if err != nil {
						return err
					}
					token, err := c.GetToken(cCtx.Context, tokenID)
					if err != nil {
						return err
					}
					return printJSON(token)
				}),
			},
			{
				Name:      "token-id",
				Usage:     "print the token id bound to an address",
				ArgsUsage: "<token-address>",
				Action: withArgs(1, func(c *governancehandler.Client, cCtx *cli.Context) error {
					tokenAddress, err := parseAddress(cCtx, 0)
					if err != nil {
						return err
					}
					tokenID, err := c.GetTokenID(cCtx.Context, tokenAddress)
					if err != nil {
						return err
					}
					return printJSON(map[string]interfaces.TokenID{"token_id": tokenID})
				}),
			},
			{
				Name:      "validator",
				Usage:     "print the validator status of a principal",
				ArgsUsage: "<address>",
				Action: withArgs(1, func(c *governancehandler.Client, cCtx *cli.Context) error {
					validator, err := parseAddress(cCtx, 0)
					if err != nil {
						return err
					}
					active, err := c.IsValidator(cCtx.Context, validator)
					if err != nil {
						return err
					}
					return printJSON(map[string]bool{"active": active})
				}),
			},
			{
				Name:  "bridge-manager",
				Usage: "print the bridge manager",
				Action: withArgs(0, func(c *governancehandler.Client, cCtx *cli.Context) error {
					manager, err := c.BridgeManager(cCtx.Context)
					if err != nil {
						return err
					}
					return printJSON(map[string]common.Address{"bridge_manager": manager})
				}),
			},
			{
				Name:  "events",
				Usage: "print events after a sequence number",
				Flags: []cli.Flag{
					&cli.Uint64Flag{
						Name:  "from",
						Value: 0,
						Usage: "print events with a sequence number above this one",
					},
				},
				Action: withArgs(0, func(c *governancehandler.Client, cCtx *cli.Context) error {
					page, err := c.Events(cCtx.Context, cCtx.Uint64("from"))
					if err != nil {
						return err
					}
					return printJSON(page)
				}),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func withArgs(n int, fn func(*governancehandler.Client, *cli.Context) error) cli.ActionFunc {
	return func(cCtx *cli.Context) error {
		if cCtx.NArg() != n {
			return fmt.Errorf("expected %d arguments, got %d", n, cCtx.NArg())
		}

		var caller common.Address
		if raw := cCtx.String(flags.CallerFlag.Name); raw != "" {
			var err error
			caller, err = interfaces.ParseAddress(raw)
			if err != nil {
				return fmt.Errorf("could not parse caller: %w", err)
			}
		}

		return fn(governancehandler.NewClient(cCtx.String(flags.ServerAddrFlag.Name), caller), cCtx)
	}
}

func parseAddress(cCtx *cli.Context, i int) (common.Address, error) {
	addr, err := interfaces.ParseAddress(cCtx.Args().Get(i))
	if err != nil {
		return common.Address{}, fmt.Errorf("could not parse address argument %d: %w", i+1, err)
	}
	return addr, nil
}

func parseTokenID(cCtx *cli.Context, i int) (interfaces.TokenID, error) {
	tokenID, err := interfaces.ParseTokenID(cCtx.Args().Get(i))
	if err != nil {
		return 0, fmt.Errorf("could not parse token id argument %d: %w", i+1, err)
	}
	return tokenID, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
