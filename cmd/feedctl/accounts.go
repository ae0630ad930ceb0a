package main

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	cli "github.com/urfave/cli/v2"

	"github.com/blackmichael/skygazer/internal/domain"
)

var accountsCmd = &cli.Command{
	Name:  "accounts",
	Usage: "manage saved accounts",
	Subcommands: []*cli.Command{
		{
			Name:   "list",
			Usage:  "list saved accounts",
			Action: listAccounts,
		},
		{
			Name:      "add",
			Usage:     "verify an account can sign in and save it",
			ArgsUsage: "<handle>",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "account-pds", Usage: "PDS of this account (defaults to --pds)"},
			},
			Action: addAccount,
		},
		{
			Name:      "edit",
			Usage:     "change the handle or PDS of a saved account",
			ArgsUsage: "<handle>",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "new-handle"},
				&cli.StringFlag{Name: "account-pds"},
			},
			Action: editAccount,
		},
		{
			Name:      "remove",
			Usage:     "forget a saved account",
			ArgsUsage: "<handle>",
			Action:    removeAccount,
		},
	},
}

func listAccounts(cctx *cli.Context) error {
	repo, err := openStore(cctx)
	if err != nil {
		return err
	}
	defer repo.Close()

	accounts, err := repo.ListAccounts(cctx.Context)
	if err != nil {
		return err
	}
	if cctx.Bool("json") {
		return printJSON(cctx, accounts)
	}

	w := tabwriter.NewWriter(cctx.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "HANDLE\tPDS\tADDED")
	for _, a := range accounts {
		fmt.Fprintf(w, "@%s\t%s\t%s\n", a.Handle, a.PDS, a.AddedAt.Format(time.DateOnly))
	}
	return w.Flush()
}

func addAccount(cctx *cli.Context) error {
	handle := normalizeHandle(cctx.Args().First())
	if handle == "" {
		return cli.Exit("handle is required", 1)
	}
	pds := cctx.String("account-pds")
	if pds == "" {
		pds = cctx.String("pds")
	}

	repo, err := openStore(cctx)
	if err != nil {
		return err
	}
	defer repo.Close()

	if _, err := login(cctx.Context, cctx, pds, handle); err != nil {
		return err
	}
	err = repo.SaveAccount(cctx.Context, domain.Account{Handle: handle, PDS: pds})
	if errors.Is(err, domain.ErrAccountExists) {
		return cli.Exit(fmt.Sprintf("@%s is already saved", handle), 1)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(cctx.App.Writer, "saved @%s\n", handle)
	return nil
}

func editAccount(cctx *cli.Context) error {
	handle := normalizeHandle(cctx.Args().First())
	if handle == "" {
		return cli.Exit("handle is required", 1)
	}

	repo, err := openStore(cctx)
	if err != nil {
		return err
	}
	defer repo.Close()

	acct, err := repo.GetAccount(cctx.Context, handle)
	if err != nil {
		return err
	}
	if h := cctx.String("new-handle"); h != "" {
		acct.Handle = normalizeHandle(h)
	}
	if p := cctx.String("account-pds"); p != "" {
		acct.PDS = p
	}
	if err := repo.UpdateAccount(cctx.Context, handle, *acct); err != nil {
		return err
	}
	fmt.Fprintf(cctx.App.Writer, "updated @%s\n", acct.Handle)
	return nil
}

func removeAccount(cctx *cli.Context) error {
	handle := normalizeHandle(cctx.Args().First())
	if handle == "" {
		return cli.Exit("handle is required", 1)
	}

	repo, err := openStore(cctx)
	if err != nil {
		return err
	}
	defer repo.Close()

	if err := repo.DeleteAccount(cctx.Context, handle); err != nil {
		return err
	}
	fmt.Fprintf(cctx.App.Writer, "removed @%s\n", handle)
	return nil
}
