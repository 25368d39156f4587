package directory

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mordilloSan/go-logger/logger"

	"github.com/ragos-nas/webadmin/common/command"
)

const (
	readTimeout  = 10 * time.Second
	writeTimeout = 30 * time.Second
)

// The built-in domain administrator can never be deleted or disabled through
// this interface. Comparison is case-insensitive: the directory treats
// "Administrator" and "administrator" as the same principal.
const protectedPrincipal = "administrator"

// Groups the directory itself depends on. Matching is exact (the external
// tool is case-sensitive about group names), so "Domain admins" is a
// different, deletable group.
var protectedGroups = []string{"Domain Admins", "Domain Users", "Administrators", "Users"}

var (
	ErrProtectedUser  = errors.New("cannot delete or disable the administrator account")
	ErrProtectedGroup = errors.New("cannot delete a protected group")
	ErrNoMembers      = errors.New("no members given")
)

// Service wraps the directory-service command line tool. All state lives in
// the directory itself; the service is safe for concurrent use.
type Service struct {
	runner command.Runner
	tool   string
	server string
}

func NewService(runner command.Runner, toolPath, server string) *Service {
	return &Service{runner: runner, tool: toolPath, server: server}
}

func (s *Service) run(op string, args []string, timeout time.Duration) (command.Result, error) {
	res, err := s.runner.Run(s.tool, args, command.Options{Timeout: timeout})
	if err != nil {
		return command.Result{}, fmt.Errorf("%s: %w", op, err)
	}
	return res, nil
}

// mutate runs a state-changing subcommand and fails fast on a non-zero exit,
// surfacing the tool's stderr. The tool is transactional per call, so no
// cleanup is attempted here.
func (s *Service) mutate(op string, args []string) error {
	res, err := s.run(op, args, writeTimeout)
	if err != nil {
		return err
	}
	if res.Failed() {
		return &command.ToolError{Op: op, Stderr: res.Stderr}
	}
	return nil
}

// ListUsers returns all usernames known to the directory.
func (s *Service) ListUsers() ([]string, error) {
	res, err := s.run("list users", []string{"user", "list"}, readTimeout)
	if err != nil {
		return nil, err
	}
	if res.Failed() {
		return nil, &command.ToolError{Op: "list users", Stderr: res.Stderr}
	}
	return ParseNameList(res.Stdout), nil
}

// GetUser returns the full record for one user.
func (s *Service) GetUser(username string) (UserRecord, error) {
	res, err := s.run("show user", []string{"user", "show", username}, readTimeout)
	if err != nil {
		return UserRecord{}, err
	}
	if res.Failed() {
		return UserRecord{}, &command.ToolError{Op: "show user " + username, Stderr: res.Stderr}
	}

	attrs := ParseKeyValueBlock(res.Stdout)
	return UserRecord{
		Username:   username,
		Attributes: attrs,
		Groups:     ParseGroupMembership(res.Stdout),
		Enabled:    ParseUserAccountControl(attrs),
	}, nil
}

func (s *Service) CreateUser(p CreateUserParams) error {
	args := []string{"user", "create", p.Username, p.Password}
	if p.GivenName != "" {
		args = append(args, "--given-name", p.GivenName)
	}
	if p.Surname != "" {
		args = append(args, "--surname", p.Surname)
	}
	if p.Mail != "" {
		args = append(args, "--mail-address", p.Mail)
	}
	if p.MustChangePassword {
		args = append(args, "--must-change-at-next-login")
	}
	if err := s.mutate("create user "+p.Username, args); err != nil {
		return err
	}
	logger.Infof("Created user: %s", p.Username)
	return nil
}

func (s *Service) DeleteUser(username string) error {
	if strings.EqualFold(username, protectedPrincipal) {
		return ErrProtectedUser
	}
	if err := s.mutate("delete user "+username, []string{"user", "delete", username}); err != nil {
		return err
	}
	logger.Infof("Deleted user: %s", username)
	return nil
}

func (s *Service) EnableUser(username string) error {
	if err := s.mutate("enable user "+username, []string{"user", "enable", username}); err != nil {
		return err
	}
	logger.Infof("Enabled user: %s", username)
	return nil
}

func (s *Service) DisableUser(username string) error {
	if strings.EqualFold(username, protectedPrincipal) {
		return ErrProtectedUser
	}
	if err := s.mutate("disable user "+username, []string{"user", "disable", username}); err != nil {
		return err
	}
	logger.Infof("Disabled user: %s", username)
	return nil
}

func (s *Service) SetPassword(username, newPassword string, mustChange bool) error {
	args := []string{"user", "setpassword", username, "--newpassword", newPassword}
	if mustChange {
		args = append(args, "--must-change-at-next-login")
	}
	if err := s.mutate("set password for "+username, args); err != nil {
		return err
	}
	logger.Infof("Set password for user: %s", username)
	return nil
}

// ListGroups returns all group names known to the directory.
func (s *Service) ListGroups() ([]string, error) {
	res, err := s.run("list groups", []string{"group", "list"}, readTimeout)
	if err != nil {
		return nil, err
	}
	if res.Failed() {
		return nil, &command.ToolError{Op: "list groups", Stderr: res.Stderr}
	}
	return ParseNameList(res.Stdout), nil
}

// GroupMembers returns the direct members of a group.
func (s *Service) GroupMembers(groupname string) (GroupRecord, error) {
	res, err := s.run("list members of "+groupname, []string{"group", "listmembers", groupname}, readTimeout)
	if err != nil {
		return GroupRecord{}, err
	}
	if res.Failed() {
		return GroupRecord{}, &command.ToolError{Op: "list members of " + groupname, Stderr: res.Stderr}
	}
	members := ParseNameList(res.Stdout)
	return GroupRecord{Groupname: groupname, MemberCount: len(members), Members: members}, nil
}

func (s *Service) CreateGroup(groupname, description string) error {
	args := []string{"group", "add", groupname}
	if description != "" {
		args = append(args, "--description", description)
	}
	if err := s.mutate("create group "+groupname, args); err != nil {
		return err
	}
	logger.Infof("Created group: %s", groupname)
	return nil
}

func (s *Service) DeleteGroup(groupname string) error {
	for _, g := range protectedGroups {
		if groupname == g {
			return fmt.Errorf("%w: %s", ErrProtectedGroup, groupname)
		}
	}
	if err := s.mutate("delete group "+groupname, []string{"group", "delete", groupname}); err != nil {
		return err
	}
	logger.Infof("Deleted group: %s", groupname)
	return nil
}

func (s *Service) AddGroupMembers(groupname string, usernames []string) error {
	if len(usernames) == 0 {
		return ErrNoMembers
	}
	members := strings.Join(usernames, ",")
	if err := s.mutate("add members to "+groupname, []string{"group", "addmembers", groupname, members}); err != nil {
		return err
	}
	logger.Infof("Added members to %s: %s", groupname, members)
	return nil
}

func (s *Service) RemoveGroupMembers(groupname string, usernames []string) error {
	if len(usernames) == 0 {
		return ErrNoMembers
	}
	members := strings.Join(usernames, ",")
	if err := s.mutate("remove members from "+groupname, []string{"group", "removemembers", groupname, members}); err != nil {
		return err
	}
	logger.Infof("Removed members from %s: %s", groupname, members)
	return nil
}

// DomainInfo returns the key/value block reported by `domain info`.
func (s *Service) DomainInfo() (map[string]string, error) {
	res, err := s.run("domain info", []string{"domain", "info", s.server}, readTimeout)
	if err != nil {
		return nil, err
	}
	if res.Failed() {
		return nil, &command.ToolError{Op: "domain info", Stderr: res.Stderr}
	}
	return ParseKeyValueBlock(res.Stdout), nil
}

// PasswordSettings returns the domain password policy block.
func (s *Service) PasswordSettings() (map[string]string, error) {
	res, err := s.run("password settings", []string{"domain", "passwordsettings", "show"}, readTimeout)
	if err != nil {
		return nil, err
	}
	if res.Failed() {
		return nil, &command.ToolError{Op: "password settings", Stderr: res.Stderr}
	}
	return ParseKeyValueBlock(res.Stdout), nil
}

// TestConnection checks that the directory server answers a domain query.
func (s *Service) TestConnection() error {
	res, err := s.run("test connection", []string{"domain", "info", s.server}, readTimeout)
	if err != nil {
		return err
	}
	if res.Failed() {
		return &command.ToolError{Op: "test connection", Stderr: res.Stderr}
	}
	return nil
}
