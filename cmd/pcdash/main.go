// Command pcdash is a small CLI over the dashboard client: log in once,
// then pull accounts and transactions as JSON.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"syscall"

	jmespath "github.com/jmespath-community/go-jmespath"
	"golang.org/x/term"

	"github.com/openfintools/personalcapital"
	"github.com/openfintools/personalcapital/config"
	"github.com/openfintools/personalcapital/internal/bootstrap"
)

type commandFn func(ctx *commandContext, args []string) error

type command struct {
	name        string
	description string
	run         commandFn
}

type commandContext struct {
	Ctx    context.Context
	Logger *slog.Logger
	Config config.AppConfig
}

func main() {
	logger := bootstrap.InitLogger()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(2)
	}

	cmdName := os.Args[1]
	cmd, ok := commands()[cmdName]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", cmdName)
		printUsage()
		os.Exit(2)
	}

	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		logger.Error("load config", "error", err)
		os.Exit(1)
	}

	cmdCtx := &commandContext{
		Ctx:    context.Background(),
		Logger: logger,
		Config: cfg,
	}
	if runErr := cmd.run(cmdCtx, os.Args[2:]); runErr != nil {
		if errors.Is(runErr, personalcapital.ErrSessionExpired) {
			fmt.Fprintln(os.Stderr, "session expired; run `pcdash login` to re-authenticate")
		}
		logger.Error("command failed", "command", cmdName, "error", runErr)
		os.Exit(1)
	}
}

func commands() map[string]command {
	return map[string]command{
		"login": {
			name:        "login",
			description: "Authenticate and cache the session for later data commands",
			run:         runLogin,
		},
		"status": {
			name:        "status",
			description: "Report whether the cached session is currently authorized",
			run:         runStatus,
		},
		"accounts": {
			name:        "accounts",
			description: "Print the accounts overview as JSON",
			run:         runAccounts,
		},
		"transactions": {
			name:        "transactions",
			description: "Print transactions in a date window as JSON",
			run:         runTransactions,
		},
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Usage: pcdash <command> [flags]\n\n")
	fmt.Fprintf(os.Stderr, "Available commands:\n")
	for _, name := range []string{"login", "status", "accounts", "transactions"} {
		c := commands()[name]
		fmt.Fprintf(os.Stderr, "  %-14s %s\n", c.name, c.description)
	}
}

type loginOptions struct {
	Email   string
	Browser bool
}

func runLogin(cmdCtx *commandContext, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var opts loginOptions
	fs.StringVar(&opts.Email, "email", cmdCtx.Config.Auth.Username, "Identity to log in as (default from PC_AUTH_USERNAME)")
	fs.BoolVar(&opts.Browser, "browser", false, "Drive a real browser instead of the direct API flow")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if opts.Email == "" {
		return errors.New("an email is required: pass -email or set PC_AUTH_USERNAME")
	}

	password, err := readPassword()
	if err != nil {
		return err
	}

	s, err := personalcapital.New(cmdCtx.Ctx, cmdCtx.Config, personalcapital.WithLogger(cmdCtx.Logger))
	if err != nil {
		return err
	}

	creds := personalcapital.Credentials{Email: opts.Email, Password: password}
	if opts.Browser {
		err = s.LoginWithBrowser(cmdCtx.Ctx, creds)
	} else {
		err = s.Login(cmdCtx.Ctx, creds)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "logged in as %s\n", s.Email())
	return nil
}

func runStatus(cmdCtx *commandContext, args []string) error {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}

	s, err := personalcapital.New(cmdCtx.Ctx, cmdCtx.Config, personalcapital.WithLogger(cmdCtx.Logger))
	if err != nil {
		return err
	}

	ok, err := s.IsLoggedIn(cmdCtx.Ctx)
	if err != nil {
		return err
	}
	return render(os.Stdout, map[string]any{
		"email":     s.Email(),
		"logged_in": ok,
	}, "")
}

type queryOptions struct {
	Query string
}

func runAccounts(cmdCtx *commandContext, args []string) error {
	fs := flag.NewFlagSet("accounts", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var opts queryOptions
	fs.StringVar(&opts.Query, "query", "", "JMESPath expression applied to the payload")
	if err := fs.Parse(args); err != nil {
		return err
	}

	s, err := personalcapital.New(cmdCtx.Ctx, cmdCtx.Config, personalcapital.WithLogger(cmdCtx.Logger))
	if err != nil {
		return err
	}

	payload, err := s.Accounts(cmdCtx.Ctx)
	if err != nil {
		return err
	}
	return renderRaw(os.Stdout, payload, opts.Query)
}

type transactionsOptions struct {
	Start string
	End   string
	Query string
}

func runTransactions(cmdCtx *commandContext, args []string) error {
	fs := flag.NewFlagSet("transactions", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var opts transactionsOptions
	fs.StringVar(&opts.Start, "start", "", "Window start, YYYY-MM-DD (default: full history)")
	fs.StringVar(&opts.End, "end", "", "Window end, YYYY-MM-DD (default: full history)")
	fs.StringVar(&opts.Query, "query", "", "JMESPath expression applied to the payload")
	if err := fs.Parse(args); err != nil {
		return err
	}

	s, err := personalcapital.New(cmdCtx.Ctx, cmdCtx.Config, personalcapital.WithLogger(cmdCtx.Logger))
	if err != nil {
		return err
	}

	payload, err := s.Transactions(cmdCtx.Ctx, opts.Start, opts.End)
	if err != nil {
		return err
	}
	return renderRaw(os.Stdout, payload, opts.Query)
}

// renderRaw decodes a raw payload and prints it, optionally filtered
// through a JMESPath expression.
func renderRaw(w io.Writer, payload json.RawMessage, query string) error {
	var data any
	if err := json.Unmarshal(payload, &data); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	return render(w, data, query)
}

func render(w io.Writer, data any, query string) error {
	if query != "" {
		result, err := jmespath.Search(query, data)
		if err != nil {
			return fmt.Errorf("evaluate query %q: %w", query, err)
		}
		data = result
	}

	out, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

// readPassword takes the password from PC_PASSWORD when set, otherwise
// prompts without echo. The env path exists for scripting; the cache makes
// repeated prompting rare either way.
func readPassword() (string, error) {
	if password := os.Getenv("PC_PASSWORD"); password != "" {
		return password, nil
	}

	fmt.Fprint(os.Stderr, "Password: ")
	if term.IsTerminal(int(syscall.Stdin)) {
		raw, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(raw), nil
	}

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimSpace(line), nil
}
