package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/MrEthical07/authbridge"
	"github.com/MrEthical07/authbridge/config"
	"github.com/MrEthical07/authbridge/password"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var errLintFailed = errors.New("configuration has high severity findings")

func newMintCmd() *cobra.Command {
	var listKey, itemID string

	cmd := &cobra.Command{
		Use:   "mint",
		Short: "Mint a session token for an item",
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := config.Parse()
			if err != nil {
				return err
			}
			if itemID == "" {
				itemID = conf.BridgeItemID
			}

			rt, err := openApp(cmd.Context(), conf, zap.NewNop())
			if err != nil {
				return err
			}
			defer rt.Close()

			token, err := rt.engine.StartSession(cmd.Context(), authbridge.SessionData{ListKey: listKey, ItemID: itemID})
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}

	cmd.Flags().StringVar(&listKey, "list", authbridge.DefaultListKey, "list key of the item")
	cmd.Flags().StringVar(&itemID, "item", "", "item id (defaults to BRIDGE_ITEM_ID)")
	return cmd
}

func newHashPasswordCmd() *cobra.Command {
	var cost int

	cmd := &cobra.Command{
		Use:   "hash-password [password]",
		Short: "Print the bcrypt hash of a password (read from stdin when omitted)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			plaintext, err := passwordArg(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}

			hasher, err := password.NewBcrypt(password.Config{Cost: cost, MinBytes: password.DefaultMinBytes})
			if err != nil {
				return err
			}
			hash, err := hasher.Hash(plaintext)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), hash)
			return err
		},
	}

	cmd.Flags().IntVar(&cost, "cost", password.DefaultCost, "bcrypt cost")
	return cmd
}

func passwordArg(in io.Reader, args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func newLintCmd() *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "lint",
		Short: "Report risky settings in the environment configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := config.Parse()
			if err != nil {
				return err
			}
			cfg := conf.EngineConfig()
			if err := cfg.Validate(); err != nil {
				return err
			}

			warnings := cfg.Lint()
			out := cmd.OutOrStdout()
			for _, w := range warnings {
				fmt.Fprintf(out, "%-5s %-22s %s\n", w.Severity, w.Code, w.Message)
			}
			if strict && len(warnings.AtLeast(authbridge.LintHigh)) > 0 {
				return errLintFailed
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "fail on high severity findings")
	return cmd
}

func newSessionsCmd() *cobra.Command {
	var (
		listKey string
		end     bool
	)

	cmd := &cobra.Command{
		Use:   "sessions [item-id]",
		Short: "List or end the redis-stored sessions of an item",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := config.Parse()
			if err != nil {
				return err
			}
			itemID := conf.BridgeItemID
			if len(args) == 1 {
				itemID = args[0]
			}

			rt, err := openApp(cmd.Context(), conf, zap.NewNop())
			if err != nil {
				return err
			}
			defer rt.Close()

			out := cmd.OutOrStdout()
			if end {
				n, err := rt.engine.EndAllSessions(cmd.Context(), listKey, itemID)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(out, "ended %d sessions\n", n)
				return err
			}

			ids, err := rt.engine.ActiveSessions(cmd.Context(), listKey, itemID)
			if err != nil {
				return err
			}
			for _, id := range ids {
				if _, err := fmt.Fprintln(out, id); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&listKey, "list", authbridge.DefaultListKey, "list key of the item")
	cmd.Flags().BoolVar(&end, "end", false, "end every listed session")
	return cmd
}
