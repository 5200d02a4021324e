package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/Klingon-tech/octra-wallet/internal/wallet"
)

var errWalletExists = errors.New("a wallet already exists, use --replace to overwrite it")

// ── wallet ──────────────────────────────────────────────────────────────

func (a *app) cmdWallet(args []string) error {
	if len(args) < 1 {
		return errors.New("usage: octra-cli wallet <create|import|show|export|set-rpc|clear>")
	}
	switch args[0] {
	case "create":
		return a.cmdWalletCreate(args[1:])
	case "import":
		return a.cmdWalletImport(args[1:])
	case "show":
		return a.cmdWalletShow()
	case "export":
		return a.cmdWalletExport(args[1:])
	case "set-rpc":
		return a.cmdWalletSetRPC(args[1:])
	case "clear":
		return a.cmdWalletClear(args[1:])
	default:
		return fmt.Errorf("unknown wallet subcommand: %s", args[0])
	}
}

// newWalletOptions builds store options, prompting for a password when
// encryption is requested.
func (a *app) newWalletOptions(encrypt, replace bool) (wallet.Options, error) {
	opts := wallet.Options{Endpoint: a.cfg.RPC.Endpoint, Replace: replace}
	if !encrypt {
		return opts, nil
	}
	password, err := readPassword("Enter password: ")
	if err != nil {
		return opts, fmt.Errorf("read password: %w", err)
	}
	confirm, err := readPassword("Confirm password: ")
	if err != nil {
		return opts, fmt.Errorf("read password: %w", err)
	}
	if string(password) != string(confirm) {
		return opts, errors.New("passwords do not match")
	}
	if len(password) == 0 {
		return opts, errors.New("password must not be empty")
	}
	opts.Password = password
	return opts, nil
}

func (a *app) cmdWalletCreate(args []string) error {
	fs := flag.NewFlagSet("wallet create", flag.ContinueOnError)
	withMnemonic := fs.Bool("mnemonic", false, "Derive the key from a new 24-word mnemonic")
	passphrase := fs.String("passphrase", "", "Optional BIP-39 passphrase (with --mnemonic)")
	encrypt := fs.Bool("encrypt", a.cfg.Wallet.Encrypt, "Encrypt the secret key with a password")
	replace := fs.Bool("replace", false, "Replace an existing wallet")
	if err := fs.Parse(args); err != nil {
		return err
	}

	opts, err := a.newWalletOptions(*encrypt, *replace)
	if err != nil {
		return err
	}

	var w *wallet.Wallet
	if *withMnemonic {
		var mnemonic string
		w, mnemonic, err = a.mgr.CreateWithMnemonic(*passphrase, opts)
		if err == nil {
			fmt.Println("Mnemonic (write this down!):")
			fmt.Printf("  %s\n\n", mnemonic)
		}
	} else {
		w, err = a.mgr.Create(opts)
	}
	if errors.Is(err, wallet.ErrWalletExists) {
		return errWalletExists
	}
	if err != nil {
		return fmt.Errorf("create wallet: %w", err)
	}

	fmt.Println("Wallet created")
	printWallet(a.track(w))
	return nil
}

func (a *app) cmdWalletImport(args []string) error {
	fs := flag.NewFlagSet("wallet import", flag.ContinueOnError)
	secret := fs.String("secret", "", "Base64 64-byte secret key")
	mnemonic := fs.String("mnemonic", "", "BIP-39 mnemonic")
	passphrase := fs.String("passphrase", "", "Optional BIP-39 passphrase (with --mnemonic)")
	encrypt := fs.Bool("encrypt", a.cfg.Wallet.Encrypt, "Encrypt the secret key with a password")
	replace := fs.Bool("replace", false, "Replace an existing wallet")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if (*secret == "") == (*mnemonic == "") {
		return errors.New(`usage: octra-cli wallet import --secret <base64> | --mnemonic "..."`)
	}
	if *mnemonic != "" && !wallet.ValidateMnemonic(*mnemonic) {
		return errors.New("invalid mnemonic")
	}

	opts, err := a.newWalletOptions(*encrypt, *replace)
	if err != nil {
		return err
	}

	var w *wallet.Wallet
	if *secret != "" {
		w, err = a.mgr.ImportSecret(*secret, opts)
	} else {
		w, err = a.mgr.ImportMnemonic(*mnemonic, *passphrase, opts)
	}
	if errors.Is(err, wallet.ErrWalletExists) {
		return errWalletExists
	}
	if err != nil {
		return fmt.Errorf("import wallet: %w", err)
	}

	fmt.Println("Wallet imported")
	printWallet(a.track(w))
	return nil
}

func (a *app) cmdWalletShow() error {
	w, err := a.openWallet()
	if err != nil {
		return err
	}
	printWallet(w)
	return nil
}

func (a *app) cmdWalletExport(args []string) error {
	fs := flag.NewFlagSet("wallet export", flag.ContinueOnError)
	asJSON := fs.Bool("json", false, "Print the wallet backup as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	w, err := a.openWallet()
	if err != nil {
		return err
	}
	exp := w.Export()
	if *asJSON {
		out, err := json.MarshalIndent(exp, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	}
	fmt.Fprintln(os.Stderr, "WARNING: anyone with this key controls the wallet.")
	fmt.Printf("Address:     %s\n", exp.Address)
	fmt.Printf("Public key:  %s\n", exp.PublicKey)
	fmt.Printf("Secret key:  %s\n", exp.SecretKey)
	return nil
}

func (a *app) cmdWalletSetRPC(args []string) error {
	if len(args) != 1 {
		return errors.New("usage: octra-cli wallet set-rpc <url>")
	}
	if err := a.mgr.SetEndpoint(args[0]); err != nil {
		return fmt.Errorf("set endpoint: %w", err)
	}
	fmt.Printf("Endpoint set to %s\n", args[0])
	return nil
}

func (a *app) cmdWalletClear(args []string) error {
	fs := flag.NewFlagSet("wallet clear", flag.ContinueOnError)
	yes := fs.Bool("yes", false, "Do not ask for confirmation")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if !*yes {
		fmt.Print("Delete the wallet? The key is gone unless you exported it. [y/N] ")
		if !confirm() {
			return errAborted
		}
	}
	if err := a.mgr.Clear(); err != nil {
		return fmt.Errorf("clear wallet: %w", err)
	}
	fmt.Println("Wallet cleared")
	return nil
}

func printWallet(w *wallet.Wallet) {
	fmt.Printf("Address:    %s\n", w.Identity.Address)
	fmt.Printf("Public key: %s\n", w.Identity.PublicBase64())
	fmt.Printf("Endpoint:   %s\n", w.Endpoint)
	fmt.Printf("Encrypted:  %v\n", w.Encrypted)
	if !w.CreatedAt.IsZero() {
		fmt.Printf("Created:    %s\n", formatTime(w.CreatedAt.Local()))
	}
}
