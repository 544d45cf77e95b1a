// bankctl is the command-line client for bankd.
package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/corebank/ledger/client"
	"github.com/corebank/ledger/transaction"
)

var (
	serverAddr string
	timeout    time.Duration

	okColor  = color.New(color.FgGreen)
	errColor = color.New(color.FgRed)
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		errColor.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "bankctl",
		Short:         "bankctl - client for the bank ledger server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&serverAddr, "addr", "127.0.0.1:8080", "server address")
	root.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "request timeout")

	root.AddCommand(
		newCreateCmd(),
		newDepositCmd(),
		newWithdrawCmd(),
		newTransferCmd(),
		newBalanceCmd(),
		newTxCmd(),
		newTxsCmd(),
		newHistoryCmd(),
	)
	return root
}

func dial() (*client.Client, error) {
	return client.Dial(serverAddr, timeout)
}

func parseAmount(s string) (uint64, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("bad amount %q: must be a non-negative integer", s)
	}
	return v, nil
}

func printTx(tx *transaction.Transaction) {
	fmt.Println(tx)
}

func newCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create <account>",
		Short: "Register a new account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := dial()
			if err != nil {
				return err
			}
			defer c.Close()
			acc, err := c.CreateAccount(args[0])
			if err != nil {
				return err
			}
			okColor.Printf("account %q created (tx %d)\n", acc.Name, acc.TransactionIDs[0])
			return nil
		},
	}
}

func newDepositCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "deposit <account> <amount>",
		Short: "Credit an account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := parseAmount(args[1])
			if err != nil {
				return err
			}
			c, err := dial()
			if err != nil {
				return err
			}
			defer c.Close()
			id, err := c.IncrBalance(args[0], value)
			if err != nil {
				return err
			}
			okColor.Printf("deposited %d to %q (tx %d)\n", value, args[0], id)
			return nil
		},
	}
}

func newWithdrawCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "withdraw <account> <amount>",
		Short: "Debit an account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := parseAmount(args[1])
			if err != nil {
				return err
			}
			c, err := dial()
			if err != nil {
				return err
			}
			defer c.Close()
			id, err := c.DecrBalance(args[0], value)
			if err != nil {
				return err
			}
			okColor.Printf("withdrew %d from %q (tx %d)\n", value, args[0], id)
			return nil
		},
	}
}

func newTransferCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "transfer <from> <to> <amount>",
		Short: "Move value between accounts",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := parseAmount(args[2])
			if err != nil {
				return err
			}
			c, err := dial()
			if err != nil {
				return err
			}
			defer c.Close()
			id, err := c.MakeTransaction(args[0], args[1], value)
			if err != nil {
				return err
			}
			okColor.Printf("transferred %d from %q to %q (tx %d)\n", value, args[0], args[1], id)
			return nil
		},
	}
}

func newBalanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "balance <account>",
		Short: "Show an account's balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := dial()
			if err != nil {
				return err
			}
			defer c.Close()
			balance, err := c.AccountBalance(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("%s: %d\n", args[0], balance)
			return nil
		},
	}
}

func newTxCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tx <id>",
		Short: "Show one transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("bad transaction id %q", args[0])
			}
			c, err := dial()
			if err != nil {
				return err
			}
			defer c.Close()
			tx, err := c.Transaction(id)
			if err != nil {
				return err
			}
			printTx(tx)
			return nil
		},
	}
}

func newTxsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "txs",
		Short: "Show the whole transaction log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := dial()
			if err != nil {
				return err
			}
			defer c.Close()
			txs, err := c.Transactions()
			if err != nil {
				return err
			}
			for _, tx := range txs {
				printTx(tx)
			}
			return nil
		},
	}
}

func newHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history <account>",
		Short: "Show the transactions affecting an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := dial()
			if err != nil {
				return err
			}
			defer c.Close()
			txs, err := c.AccountTransactions(args[0])
			if err != nil {
				return err
			}
			for _, tx := range txs {
				printTx(tx)
			}
			return nil
		},
	}
}
