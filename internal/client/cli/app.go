package cli

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/moodjournal/internal/client/api"
	"github.com/dmitrijs2005/moodjournal/internal/client/config"
	"github.com/dmitrijs2005/moodjournal/internal/client/localdb"
	"github.com/dmitrijs2005/moodjournal/internal/client/risk"
	"github.com/dmitrijs2005/moodjournal/internal/client/services"
	"github.com/dmitrijs2005/moodjournal/internal/client/session"
	"github.com/dmitrijs2005/moodjournal/internal/common"
	"github.com/dmitrijs2005/moodjournal/internal/cryptox"
	"github.com/dmitrijs2005/moodjournal/internal/filex"
	"github.com/dmitrijs2005/moodjournal/internal/logging"
	"github.com/dmitrijs2005/moodjournal/internal/netx"
)

// App holds everything one client run needs. Output goes to out; prompts
// read from in.
type App struct {
	cfg     *config.Config
	log     logging.Logger
	db      *sql.DB
	auth    *services.AuthService
	journal *services.JournalService
	http    *http.Client
	in      *bufio.Reader
	out     io.Writer
	sess    *session.Session
}

func NewApp(ctx context.Context, cfg *config.Config, in io.Reader, out io.Writer, log logging.Logger) (*App, error) {
	db, err := localdb.Open(ctx, cfg.DBPath)
	if err != nil {
		return nil, err
	}

	client, err := api.New(cfg.ServerURL, cfg.RequestTimeout)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	mode := cryptox.ModeGCM
	if cfg.LegacyECB {
		mode = cryptox.ModeLegacyECB
		log.Warn(ctx, "legacy ECB mode enabled; entries are encrypted deterministically")
	}

	return &App{
		cfg:     cfg,
		log:     log,
		db:      db,
		auth:    services.NewAuthService(client, session.NewStore(db)),
		journal: services.NewJournalService(client, cryptox.NewEntryCipher(mode)),
		http:    client.HTTPClient(),
		in:      bufio.NewReader(in),
		out:     out,
	}, nil
}

// Close wipes the in-memory key and closes the local database.
func (a *App) Close() error {
	a.sess.Wipe()
	a.sess = nil
	return a.db.Close()
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

func (a *App) isLoggedIn() bool {
	return a.sess != nil
}

// session returns the active session, loading the persisted one if needed.
func (a *App) session(ctx context.Context) (*session.Session, error) {
	if a.sess != nil {
		return a.sess, nil
	}
	sess, err := a.auth.Current(ctx)
	if err != nil {
		if errors.Is(err, session.ErrNoSession) {
			return nil, fmt.Errorf("not logged in, run 'login' first: %w", err)
		}
		return nil, err
	}
	a.sess = sess
	return sess, nil
}

// checkSession drops the local session when the server rejected the token.
func (a *App) checkSession(ctx context.Context, err error) error {
	if err == nil || !api.IsSessionRejected(err) {
		return err
	}
	a.log.Info(ctx, "session rejected by server, clearing")
	if cerr := a.auth.Logout(ctx, a.sess); cerr != nil {
		a.log.Error(ctx, "clear session failed", "error", cerr)
	}
	a.sess = nil
	return fmt.Errorf("session expired or invalid, log in again: %w", session.ErrNoSession)
}

func (a *App) credentials(username string) (string, []byte, error) {
	if username == "" {
		var err error
		if username, err = GetSimpleText(a.in, "Username", a.out); err != nil {
			return "", nil, err
		}
	}
	pw, err := GetPassword(a.in, a.out)
	if err != nil {
		return "", nil, err
	}
	return username, pw, nil
}

func (a *App) Signup(ctx context.Context, username string) error {
	username, pw, err := a.credentials(username)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pw)

	if err := a.auth.Register(ctx, username, string(pw)); err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return fmt.Errorf("username %q is taken", username)
		}
		return err
	}
	a.printf("Account created. You can now log in.\n")
	return nil
}

func (a *App) Login(ctx context.Context, username string) error {
	username, pw, err := a.credentials(username)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pw)

	sess, err := a.auth.Login(ctx, username, string(pw))
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			return errors.New("invalid credentials")
		}
		return err
	}

	a.sess.Wipe()
	a.sess = sess
	a.log.Debug(ctx, "logged in", "username", username)
	a.printf("Logged in as %s\n", username)
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	if err := a.auth.Logout(ctx, a.sess); err != nil {
		return err
	}
	a.sess = nil
	a.printf("Logged out.\n")
	return nil
}

func (a *App) Profile(ctx context.Context) error {
	sess, err := a.session(ctx)
	if err != nil {
		return err
	}
	name, err := a.auth.Profile(ctx, sess)
	if err != nil {
		return a.checkSession(ctx, err)
	}
	a.printf("Logged in as %s\n", name)
	return nil
}

func (a *App) Write(ctx context.Context, text string, tags []string) error {
	sess, err := a.session(ctx)
	if err != nil {
		return err
	}
	if strings.TrimSpace(text) == "" && len(tags) == 0 {
		if text, err = GetMultiline(a.in, "How are you feeling today?", a.out); err != nil {
			return err
		}
	}

	if err := a.journal.Write(ctx, sess, text, tags); err != nil {
		return a.checkSession(ctx, err)
	}
	a.printf("Journal entry saved.\n")
	return nil
}

func (a *App) History(ctx context.Context) error {
	sess, err := a.session(ctx)
	if err != nil {
		return err
	}
	items, err := a.journal.History(ctx, sess)
	if err != nil {
		return a.checkSession(ctx, err)
	}

	if len(items) == 0 {
		a.printf("No journal entries yet.\n")
		return nil
	}
	for _, it := range items {
		tags := "-"
		if it.Vector != nil {
			if t := it.Vector.Tags(); len(t) > 0 {
				tags = strings.Join(t, ",")
			}
		} else {
			tags = "[Error decrypting vector]"
		}
		if it.Err != nil {
			a.log.Debug(ctx, "entry not decrypted", "entry_id", it.ID, "error", it.Err)
		}
		a.printf("%s  [%s]\n", it.CreatedAt.Local().Format("2006-01-02 15:04"), tags)
		for _, line := range strings.Split(it.Text, "\n") {
			a.printf("    %s\n", line)
		}
	}
	return nil
}

func (a *App) Analysis(ctx context.Context) error {
	sess, err := a.session(ctx)
	if err != nil {
		return err
	}
	rep, err := a.journal.Analyze(ctx, sess)
	if err != nil {
		return a.checkSession(ctx, err)
	}

	noun := "entries"
	if rep.Entries == 1 {
		noun = "entry"
	}
	a.printf("You have %d journal %s.\n", rep.Entries, noun)
	if rep.Skipped > 0 {
		a.printf("%d could not be decrypted and were not scored.\n", rep.Skipped)
	}
	a.printf("Calculated risk score: %d\n", rep.Score)

	if rep.Alert {
		a.printf("\n!! Crisis alert\n")
		a.printf("Your risk score is high (>= %d). We recommend contacting a trusted friend or\n", risk.Threshold)
		a.printf("mental health professional immediately. If you feel unsafe, please call your\n")
		a.printf("local crisis line now.\n")
		return nil
	}
	a.printf("Your risk score is below %d. Keep journaling and remember, it's okay to not be okay.\n", risk.Threshold)
	return nil
}

// Export requests an archive link. With a non-empty downloadPath the
// archive is fetched and written there with owner-only permissions.
func (a *App) Export(ctx context.Context, downloadPath string) error {
	sess, err := a.session(ctx)
	if err != nil {
		return err
	}
	arch, err := a.journal.Export(ctx, sess)
	if err != nil {
		if errors.Is(err, common.ErrorNotConfigured) {
			return errors.New("archive export is not enabled on this server")
		}
		return a.checkSession(ctx, err)
	}

	if downloadPath == "" {
		a.printf("Archive ready until %s:\n%s\n", arch.ExpiresAt.Local().Format("2006-01-02 15:04"), arch.URL)
		return nil
	}

	data, err := netx.DownloadPresignedURL(ctx, a.http, arch.URL)
	if err != nil {
		return err
	}
	if err := filex.WritePrivateFile(downloadPath, data); err != nil {
		return err
	}
	a.printf("Archive saved to %s (%d bytes, ciphertext only)\n", downloadPath, len(data))
	return nil
}

func (a *App) Ping(ctx context.Context) error {
	if err := a.auth.Ping(ctx); err != nil {
		return fmt.Errorf("server %s unreachable: %w", a.cfg.ServerURL, err)
	}
	a.printf("Server %s is up.\n", a.cfg.ServerURL)
	return nil
}
