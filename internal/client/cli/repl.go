package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/moodjournal/internal/client/session"
)

// execIface is the command surface the shell dispatches to. *App satisfies it.
type execIface interface {
	isLoggedIn() bool
	Signup(ctx context.Context, username string) error
	Login(ctx context.Context, username string) error
	Logout(ctx context.Context) error
	Profile(ctx context.Context) error
	Write(ctx context.Context, text string, tags []string) error
	History(ctx context.Context) error
	Analysis(ctx context.Context) error
	Export(ctx context.Context, downloadPath string) error
	Ping(ctx context.Context) error
}

// Restore picks up a saved session and checks it with the server. A rejected
// session is cleared; an unreachable server keeps it for a later attempt.
func (a *App) Restore(ctx context.Context) {
	sess, err := a.auth.Restore(ctx)
	switch {
	case err == nil:
		a.sess = sess
		a.printf("Welcome back, %s.\n", sess.Username)
	case errors.Is(err, session.ErrNoSession):
		a.printf("Not logged in. Type 'login' or 'signup'.\n")
	default:
		a.log.Warn(ctx, "session check failed", "error", err)
		a.printf("Could not reach the server to check your session: %v\n", err)
	}
}

func (a *App) Shell(ctx context.Context) {
	a.printf("moodjournal shell (type 'help' for commands)\n")
	a.Restore(ctx)
	runREPL(ctx, a, a.prompt, a.in, a.out)
}

func (a *App) prompt() string {
	if a.sess != nil && a.sess.Username != "" {
		return a.sess.Username + "> "
	}
	return "> "
}

// runREPL reads one command per line and dispatches it. Errors are printed
// and the loop continues; it exits on EOF, "exit" or "quit".
//
//	write [text] [#tag...]  words starting with # are tags
//	history | h             decrypted entries, newest first
//	analysis | a            risk score over all entries
//	export [file]           archive link, or download to file
//
// Lines come from the same reader the command prompts use, so a password
// typed after "login" is not swallowed by read-ahead.
func runREPL(ctx context.Context, a execIface, promptFn func() string, in *bufio.Reader, out io.Writer) {
	for {
		fmt.Fprintf(out, "%s", promptFn())
		line, rerr := in.ReadString('\n')
		if rerr != nil && line == "" {
			fmt.Fprintf(out, "\n")
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var err error
		switch cmd {
		case "help":
			if a.isLoggedIn() {
				fmt.Fprintf(out, "Commands: write [text], history, analysis, export [file], profile, logout, ping, exit\n")
			} else {
				fmt.Fprintf(out, "Commands: signup [username], login [username], ping, exit\n")
			}
		case "signup", "register":
			err = a.Signup(ctx, first(args))
		case "login":
			err = a.Login(ctx, first(args))
		case "logout":
			err = a.Logout(ctx)
		case "profile", "whoami":
			err = a.Profile(ctx)
		case "write", "w":
			text, tags := splitTags(args)
			err = a.Write(ctx, text, tags)
		case "history", "h":
			err = a.History(ctx)
		case "analysis", "a":
			err = a.Analysis(ctx)
		case "export":
			err = a.Export(ctx, first(args))
		case "ping":
			err = a.Ping(ctx)
		case "exit", "quit":
			fmt.Fprintf(out, "Bye!\n")
			return
		default:
			fmt.Fprintf(out, "Unknown command: %s\n", cmd)
		}

		if err != nil {
			fmt.Fprintf(out, "Error: %v\n", err)
		}
	}
}

func first(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

// splitTags pulls "#tag" words out of a shell line: "write bad day #anxious"
// becomes ("bad day", ["anxious"]).
func splitTags(args []string) (string, []string) {
	var words, tags []string
	for _, a := range args {
		if strings.HasPrefix(a, "#") && len(a) > 1 {
			tags = append(tags, a[1:])
			continue
		}
		words = append(words, a)
	}
	return strings.Join(words, " "), tags
}

