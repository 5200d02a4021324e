// octra-cli is a command-line wallet for an Octra node.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/Klingon-tech/octra-wallet/config"
	"github.com/Klingon-tech/octra-wallet/internal/account"
	klog "github.com/Klingon-tech/octra-wallet/internal/log"
	"github.com/Klingon-tech/octra-wallet/internal/rpcclient"
	"github.com/Klingon-tech/octra-wallet/internal/storage"
	"github.com/Klingon-tech/octra-wallet/internal/wallet"
	"github.com/Klingon-tech/octra-wallet/pkg/types"
	"golang.org/x/term"
)

const version = "0.1.0"

// app carries what every command needs.
type app struct {
	cfg   *config.Config
	flags *config.Flags
	db    storage.DB
	mgr   *wallet.Manager

	// opened holds every wallet loaded or created by this run so their
	// keys can be wiped on exit.
	opened []*wallet.Wallet
}

func main() {
	os.Exit(run(os.Args[1:]))
}

// run executes one command and returns the process exit code. Everything
// opened here is closed before it returns.
func run(args []string) int {
	flags, err := config.ParseFlags(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n\n", err)
		usage()
		return 1
	}
	if flags.Help {
		usage()
		return 0
	}
	if flags.Version {
		fmt.Printf("octra-cli version %s\n", version)
		return 0
	}
	if len(flags.Args) == 0 {
		usage()
		return 1
	}

	cmd := flags.Args[0]
	cmdArgs := flags.Args[1:]
	if cmd == "help" || cmd == "--help" || cmd == "-h" {
		usage()
		return 0
	}

	cfg, err := config.Load(flags)
	if err != nil {
		return fail(err)
	}
	if err := klog.Init(cfg.Log.Level, cfg.Log.JSON, cfg.Log.File); err != nil {
		return fail(fmt.Errorf("init logging: %w", err))
	}

	db, err := storage.NewBadger(cfg.DBDir())
	if err != nil {
		return fail(fmt.Errorf("open database: %w", err))
	}
	a := &app{cfg: cfg, flags: flags, db: db, mgr: wallet.NewManager(db)}
	defer func() {
		a.release()
		if err := db.Close(); err != nil {
			klog.Storage.Error().Err(err).Msg("Failed to close database")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	klog.CLI.Debug().Str("command", cmd).Str("datadir", cfg.DataDir).Msg("Running command")

	err = a.dispatch(ctx, cmd, cmdArgs)
	switch {
	case err == nil, errors.Is(err, flag.ErrHelp):
		return 0
	case errors.Is(err, errUnknownCommand):
		fmt.Fprintf(os.Stderr, "%v\n\n", err)
		usage()
		return 1
	default:
		return fail(err)
	}
}

var errUnknownCommand = errors.New("unknown command")

func (a *app) dispatch(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "wallet":
		return a.cmdWallet(args)
	case "balance":
		return a.cmdBalance(ctx)
	case "history":
		return a.cmdHistory(ctx, args)
	case "staging":
		return a.cmdStaging(ctx)
	case "status":
		return a.cmdStatus(ctx)
	case "send":
		return a.cmdSend(ctx, args)
	case "multisend":
		return a.cmdMultiSend(ctx, args)
	case "journal":
		return a.cmdJournal(args)
	default:
		return fmt.Errorf("%w: %s", errUnknownCommand, cmd)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: octra-cli [global flags] <command> [flags]

Global flags:
  --rpc <url>         Node endpoint for this invocation (overrides the wallet's)
  --datadir <path>    Data directory (default: ~/.octra)
  --config, -c <path> Config file (default: <datadir>/octra.conf)
  --timeout <dur>     Node request timeout (default: 10s)
  --log-level <lvl>   debug, info, warn (default), error
  --log-file <path>   Also write JSON logs to this file
  --log-json          Log as JSON on stderr
  --version           Show version

Commands:
  wallet create [--mnemonic] [--encrypt] [--replace]
                                  Create a new wallet
  wallet import --secret <base64> | --mnemonic "..." [--encrypt] [--replace]
                                  Import a wallet
  wallet show                     Show address, public key and endpoint
  wallet export [--json]          Print the secret key (keep it safe!)
  wallet set-rpc <url>            Change the wallet's node endpoint
  wallet clear [--yes]            Delete the wallet and its send journal

  balance                         Show balance and nonce
  history [--limit <n>]           Show recent transactions
  staging                         Show this wallet's staged transactions
  status                          Refresh everything and show a summary
  send --to <addr> --amount <amt> [--message <text>] [--no-wait]
                                  Send OCT
  multisend --recipients <file.json> [--yes]
                                  Send to several recipients, one after another
  journal [--json]                List transactions sent from this wallet
`)
}

// ── Wallet access ───────────────────────────────────────────────────────

// openWallet loads the wallet, creating one on first use and replacing a
// corrupted record. Encrypted wallets prompt for their password.
func (a *app) openWallet() (*wallet.Wallet, error) {
	opts := wallet.Options{Endpoint: a.cfg.RPC.Endpoint}
	w, created, err := a.mgr.Bootstrap(opts)
	if errors.Is(err, wallet.ErrPasswordRequired) {
		password, perr := readPassword("Wallet password: ")
		if perr != nil {
			return nil, fmt.Errorf("read password: %w", perr)
		}
		opts.Password = password
		w, created, err = a.mgr.Bootstrap(opts)
	}
	if err != nil {
		return nil, fmt.Errorf("load wallet: %w", err)
	}
	if created {
		fmt.Fprintf(os.Stderr, "Created new wallet %s\n", w.Identity.Address)
	}
	return a.track(w), nil
}

// track registers w for release and returns it.
func (a *app) track(w *wallet.Wallet) *wallet.Wallet {
	if w != nil {
		a.opened = append(a.opened, w)
	}
	return w
}

// release wipes the secret keys of every wallet this run opened.
func (a *app) release() {
	for _, w := range a.opened {
		w.Identity.Zero()
	}
	a.opened = nil
}

// openReconciler opens the wallet and builds its account reconciler,
// honouring --rpc.
func (a *app) openReconciler() (*account.Reconciler, *wallet.Wallet, error) {
	w, err := a.openWallet()
	if err != nil {
		return nil, nil, err
	}
	endpoint := w.Endpoint
	if a.flags.SetRPC {
		endpoint = a.cfg.RPC.Endpoint
	}
	client := rpcclient.NewWithTimeout(endpoint, a.cfg.RPC.Timeout)
	r := account.New(client, w.Identity, account.Config{
		HistoryLimit:     a.cfg.History.Limit,
		FetchConcurrency: a.cfg.History.Concurrency,
		SettleDelay:      a.cfg.Wallet.SettleDelay,
	})
	r.SetJournal(a.mgr.Journal())
	return r, w, nil
}

// ── balance ─────────────────────────────────────────────────────────────

func (a *app) cmdBalance(ctx context.Context) error {
	r, _, err := a.openReconciler()
	if err != nil {
		return err
	}
	if err := r.RefreshBalance(ctx); err != nil {
		return err
	}
	s := r.State()
	fmt.Printf("Address: %s\n", r.Address())
	fmt.Printf("Balance: %s OCT\n", s.Balance)
	fmt.Printf("Nonce:   %d\n", s.Nonce)
	return nil
}

// ── history ─────────────────────────────────────────────────────────────

func (a *app) cmdHistory(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	limit := fs.Int("limit", 0, "Number of recent transactions to fetch")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *limit > 0 {
		a.cfg.History.Limit = *limit
	}
	r, _, err := a.openReconciler()
	if err != nil {
		return err
	}
	if err := r.RefreshHistory(ctx); err != nil {
		return err
	}
	printHistory(r.State().History)
	return nil
}

func printHistory(records []account.Record) {
	if len(records) == 0 {
		fmt.Println("No transactions.")
		return
	}
	fmt.Printf("%-19s  %-3s  %18s  %-20s  %-10s  %s\n", "TIME", "DIR", "AMOUNT", "COUNTERPARTY", "STATUS", "HASH")
	for _, rec := range records {
		fmt.Printf("%-19s  %-3s  %18s  %-20s  %-10s  %s\n",
			formatTime(rec.Time),
			direction(rec.Kind),
			signedAmount(rec),
			rec.Counterparty.Short(),
			status(rec),
			rec.Hash,
		)
		if rec.Message != "" {
			fmt.Printf("  message: %s\n", rec.Message)
		}
	}
}

// ── staging ─────────────────────────────────────────────────────────────

func (a *app) cmdStaging(ctx context.Context) error {
	r, _, err := a.openReconciler()
	if err != nil {
		return err
	}
	if err := r.RefreshStaging(ctx); err != nil {
		return err
	}
	fmt.Printf("Staged: %d\n", r.State().StagingCount)
	return nil
}

// ── status ──────────────────────────────────────────────────────────────

func (a *app) cmdStatus(ctx context.Context) error {
	r, w, err := a.openReconciler()
	if err != nil {
		return err
	}
	refreshErr := r.RefreshAll(ctx)
	s := r.State()

	fmt.Printf("Address: %s\n", r.Address())
	fmt.Printf("Node:    %s\n", w.Endpoint)
	fmt.Printf("Balance: %s OCT\n", s.Balance)
	if s.NonceKnown {
		fmt.Printf("Nonce:   %d\n", s.Nonce)
	} else {
		fmt.Println("Nonce:   unknown")
	}
	fmt.Printf("Staged:  %d\n", s.StagingCount)
	fmt.Printf("History: %d transactions\n", len(s.History))
	if refreshErr != nil {
		return fmt.Errorf("partial refresh: %w", refreshErr)
	}
	return nil
}

// ── send ────────────────────────────────────────────────────────────────

func (a *app) cmdSend(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("send", flag.ContinueOnError)
	toAddr := fs.String("to", "", "Recipient address")
	amountStr := fs.String("amount", "", "Amount to send in OCT (e.g. 1.5)")
	message := fs.String("message", "", "Optional message (not signed)")
	noWait := fs.Bool("no-wait", false, "Do not wait for the node to settle")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *toAddr == "" || *amountStr == "" {
		return errors.New("usage: octra-cli send --to <addr> --amount <amt> [--message <text>]")
	}
	amount, err := parseAmount(*amountStr)
	if err != nil {
		return fmt.Errorf("invalid amount: %w", err)
	}
	to, err := types.ParseAddress(*toAddr)
	if err != nil {
		return fmt.Errorf("invalid recipient address: %w", err)
	}

	r, _, err := a.openReconciler()
	if err != nil {
		return err
	}
	if err := r.RefreshBalance(ctx); err != nil {
		return err
	}

	send := r.SendAndSettle
	if *noWait {
		send = r.Send
	}
	res, err := send(ctx, to, amount, *message)
	if res == nil && err != nil {
		return fmt.Errorf("send: %w", err)
	}
	printSendResult(res)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		return nil
	}
	if !*noWait {
		s := r.State()
		fmt.Printf("Balance: %s OCT (nonce %d)\n", s.Balance, s.Nonce)
	}
	return nil
}

func printSendResult(res *account.SendResult) {
	st := res.Transaction
	fmt.Printf("Submitted: %s\n", res.Reply.TxHash)
	fmt.Printf("  To:      %s\n", st.To)
	fmt.Printf("  Amount:  %s OCT (fee tier %s)\n", st.Amount, st.FeeTier)
	fmt.Printf("  Nonce:   %d\n", st.Nonce)
	fmt.Printf("  Local:   %s\n", res.Fingerprint)
}

// ── multisend ───────────────────────────────────────────────────────────

type jsonRecipient struct {
	To      string `json:"to"`
	Amount  string `json:"amount"`
	Message string `json:"message,omitempty"`
}

func (a *app) cmdMultiSend(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("multisend", flag.ContinueOnError)
	recipientsFile := fs.String("recipients", "", "Path to JSON recipients file")
	yes := fs.Bool("yes", false, "Do not ask for confirmation")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *recipientsFile == "" {
		return errors.New("usage: octra-cli multisend --recipients <file.json>")
	}
	data, err := os.ReadFile(*recipientsFile)
	if err != nil {
		return fmt.Errorf("read recipients file: %w", err)
	}
	payments, total, err := parseRecipients(data)
	if err != nil {
		return err
	}

	if !*yes {
		fmt.Printf("Send %s OCT to %d recipients? [y/N] ", total, len(payments))
		if !confirm() {
			return errAborted
		}
	}

	r, _, err := a.openReconciler()
	if err != nil {
		return err
	}
	if err := r.RefreshBalance(ctx); err != nil {
		return err
	}
	results, err := r.SendMany(ctx, payments)
	for _, res := range results {
		printSendResult(res)
	}
	fmt.Printf("Sent: %d of %d\n", len(results), len(payments))
	return err
}

// parseRecipients decodes a multisend file into payments and their total.
func parseRecipients(data []byte) ([]account.Payment, types.Amount, error) {
	var recipients []jsonRecipient
	if err := json.Unmarshal(data, &recipients); err != nil {
		return nil, 0, fmt.Errorf("parse recipients JSON: %w", err)
	}
	if len(recipients) == 0 {
		return nil, 0, errors.New("recipients file is empty")
	}

	payments := make([]account.Payment, len(recipients))
	var total types.Amount
	for i, rc := range recipients {
		if rc.To == "" || rc.Amount == "" {
			return nil, 0, fmt.Errorf("recipient %d: to and amount are required", i+1)
		}
		to, err := types.ParseAddress(rc.To)
		if err != nil {
			return nil, 0, fmt.Errorf("recipient %d: %w", i+1, err)
		}
		amount, err := types.ParseAmount(rc.Amount)
		if err != nil {
			return nil, 0, fmt.Errorf("recipient %d: %w", i+1, err)
		}
		if amount == 0 {
			return nil, 0, fmt.Errorf("recipient %d: amount must be greater than zero", i+1)
		}
		payments[i] = account.Payment{To: to, Amount: amount, Message: rc.Message}
		total += amount
	}
	return payments, total, nil
}

// ── journal ─────────────────────────────────────────────────────────────

func (a *app) cmdJournal(args []string) error {
	fs := flag.NewFlagSet("journal", flag.ContinueOnError)
	asJSON := fs.Bool("json", false, "Print entries as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	w, err := a.openWallet()
	if err != nil {
		return err
	}
	entries, err := a.mgr.Journal().List(w.Identity.Address)
	if err != nil {
		return fmt.Errorf("read journal: %w", err)
	}
	if *asJSON {
		out, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	}
	if len(entries) == 0 {
		fmt.Println("No sent transactions.")
		return nil
	}
	for _, e := range entries {
		fmt.Printf("%s  nonce %-6d  %18s OCT  -> %s\n", formatTime(e.SentAt.Local()), e.Nonce, e.Amount, e.To.Short())
		fmt.Printf("  fingerprint: %s\n", e.Fingerprint)
		if e.Message != "" {
			fmt.Printf("  message:     %s\n", e.Message)
		}
	}
	return nil
}

// ── Formatting helpers ──────────────────────────────────────────────────

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02 15:04:05")
}

func direction(k account.Kind) string {
	if k == account.Incoming {
		return "in"
	}
	return "out"
}

func signedAmount(rec account.Record) string {
	if rec.Kind == account.Incoming {
		return "+" + rec.Amount.String()
	}
	return "-" + rec.Amount.String()
}

func status(rec account.Record) string {
	if rec.Pending() {
		return "pending"
	}
	return "epoch " + strconv.FormatUint(*rec.Epoch, 10)
}

// parseAmount parses a positive decimal OCT amount.
func parseAmount(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if v <= 0 {
		return 0, errors.New("must be greater than zero")
	}
	return v, nil
}

// ── Prompt helpers ──────────────────────────────────────────────────────

func readPassword(prompt string) ([]byte, error) {
	fmt.Fprint(os.Stderr, prompt)
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr) // newline after hidden input
	if err != nil {
		return nil, err
	}
	return password, nil
}

func confirm() bool {
	var answer string
	fmt.Scanln(&answer)
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

// ── Error helper ────────────────────────────────────────────────────────

var errAborted = errors.New("aborted")

// fail reports err and returns the exit code for it.
func fail(err error) int {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return 1
}
