package authn

import (
	"errors"
	"strings"
	"time"

	"github.com/mordilloSan/go-logger/logger"

	"github.com/ragos-nas/webadmin/common/command"
	"github.com/ragos-nas/webadmin/directory"
)

const (
	authTimeout    = 10 * time.Second
	cleanupTimeout = 5 * time.Second
)

// Failure policy for side lookups during authentication. Login-path checks
// fail open: a broken attempt store or an unreachable directory must not
// lock the whole domain out of the web interface. The admin check fails
// closed: privilege is never granted on an unverified claim.
const (
	throttleFailsOpen     = true
	enabledCheckFailsOpen = true
	adminCheckFailsOpen   = false
)

const adminGroup = "Domain Admins"
const adminPrincipal = "administrator"

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrTooManyAttempts    = errors.New("too many failed login attempts, try again later")
	ErrAccountDisabled    = errors.New("account is disabled")
)

// UserLookup is the slice of the directory service authentication needs.
type UserLookup interface {
	GetUser(username string) (directory.UserRecord, error)
}

// Config carries the tool paths and throttle tuning for a Service.
type Config struct {
	Realm        string
	KinitPath    string
	KdestroyPath string
	MaxAttempts  int
	Window       time.Duration
}

// Service authenticates users against the domain by obtaining a Kerberos
// ticket with their credentials, and throttles repeated failures.
type Service struct {
	runner   command.Runner
	attempts AttemptStore
	users    UserLookup
	cfg      Config

	now func() time.Time // test seam
}

func NewService(runner command.Runner, attempts AttemptStore, users UserLookup, cfg Config) *Service {
	return &Service{
		runner:   runner,
		attempts: attempts,
		users:    users,
		cfg:      cfg,
		now:      time.Now,
	}
}

// Authenticate verifies username/password against the domain. The throttle
// check runs before any credential work, and a throttled attempt is not
// itself recorded. The enabled check runs only after the credentials proved
// valid, so a disabled account still counts as a successful password.
func (s *Service) Authenticate(username, password, ip string) error {
	if username == "" || password == "" {
		return ErrInvalidCredentials
	}

	failed, err := s.attempts.CountFailed(username, s.now().Add(-s.cfg.Window))
	if err != nil {
		if !throttleFailsOpen {
			return err
		}
		logger.Warnf("Attempt store unavailable, skipping throttle for %s: %v", username, err)
		failed = 0
	}
	if failed >= s.cfg.MaxAttempts {
		logger.Warnf("Login throttled for %s from %s (%d recent failures)", username, ip, failed)
		return ErrTooManyAttempts
	}

	principal := username + "@" + s.cfg.Realm
	res, err := s.runner.Run(s.cfg.KinitPath, []string{principal}, command.Options{
		Stdin:   password + "\n",
		Timeout: authTimeout,
	})
	if err != nil {
		// kinit never judged the password, so no attempt is recorded: a
		// missing or hung binary must not count toward the lockout.
		return err
	}

	if res.Failed() {
		s.record(username, ip, false)
		logger.Warnf("Failed login for %s from %s", username, ip)
		return ErrInvalidCredentials
	}
	s.record(username, ip, true)

	// Drop the ticket right away; nothing here uses it after verification.
	if _, err := s.runner.Run(s.cfg.KdestroyPath, nil, command.Options{Timeout: cleanupTimeout}); err != nil {
		logger.Warnf("Ticket cleanup failed after login of %s: %v", username, err)
	}

	user, err := s.users.GetUser(username)
	if err != nil {
		if !enabledCheckFailsOpen {
			return err
		}
		logger.Warnf("Could not check account state for %s, allowing login: %v", username, err)
		return nil
	}
	if !user.Enabled {
		logger.Warnf("Login rejected for disabled account %s from %s", username, ip)
		return ErrAccountDisabled
	}

	logger.Infof("Authenticated %s from %s", username, ip)
	return nil
}

// VerifyAdmin reports whether username holds domain admin rights: the
// built-in administrator, or membership in the domain admin group. A
// directory error yields false.
func (s *Service) VerifyAdmin(username string) bool {
	if strings.EqualFold(username, adminPrincipal) {
		return true
	}

	user, err := s.users.GetUser(username)
	if err != nil {
		logger.Warnf("Could not verify admin rights for %s: %v", username, err)
		return adminCheckFailsOpen
	}
	for _, g := range user.Groups {
		if g == adminGroup {
			return true
		}
	}
	return false
}

func (s *Service) record(username, ip string, success bool) {
	if err := s.attempts.RecordAttempt(username, ip, success); err != nil {
		logger.Warnf("Could not record login attempt for %s: %v", username, err)
	}
}
