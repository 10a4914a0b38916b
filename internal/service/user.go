package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/iliyamo/cable-billing/internal/model"
	"github.com/iliyamo/cable-billing/internal/repository"
	"github.com/iliyamo/cable-billing/internal/utils"
)

const maxUsernameLen = 20

// UserService handles registration, login and the admin-only user pages.
type UserService struct {
	users      *repository.UserRepo
	bcryptCost int
	logger     *slog.Logger
}

func NewUserService(users *repository.UserRepo, bcryptCost int, logger *slog.Logger) *UserService {
	return &UserService{users: users, bcryptCost: bcryptCost, logger: logger}
}

// Register creates a non-admin account.
func (s *UserService) Register(ctx context.Context, form Form) (model.User, Outcome, error) {
	username := form.Get("username")
	password := form["password"]

	var problems Problems
	switch {
	case username == "":
		problems.add("username", "Username is required.")
	case utf8.RuneCountInString(username) > maxUsernameLen:
		problems.add("username", fmt.Sprintf("Username must be at most %d characters.", maxUsernameLen))
	}
	if password == "" {
		problems.add("password", "Password is required.")
	}
	if len(problems) > 0 {
		return model.User{}, rejected(redactPassword(form), problems), nil
	}

	id, err := s.users.Create(ctx, username, password, false, s.bcryptCost)
	if err != nil {
		if errors.Is(err, repository.ErrUsernameExists) {
			problems.add("username", "Username already exists. Please choose a different one.")
			return model.User{}, rejected(redactPassword(form), problems), nil
		}
		return model.User{}, Outcome{}, err
	}
	u := model.User{ID: id, Username: username}
	out := Outcome{ID: id}
	out.say(SeveritySuccess, fmt.Sprintf("Account created for %s! You are now logged in.", username))
	return u, out, nil
}

// Authenticate verifies the credentials.  Unknown users and wrong
// passwords fail the same way.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (model.User, Outcome, error) {
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		return model.User{}, Outcome{}, err
	}
	if err != nil || !utils.VerifyPassword(u.PasswordHash, password) {
		s.logger.InfoContext(ctx, "login failed", slog.String("username", username))
		var problems Problems
		problems.add("", "Login failed. Please check your username and password.")
		return model.User{}, rejected(Form{"username": username}, problems), nil
	}
	out := Outcome{ID: u.ID}
	out.say(SeveritySuccess, fmt.Sprintf("Login successful. Welcome, %s!", u.Username))
	return u, out, nil
}

// List returns all users ordered by username.
func (s *UserService) List(ctx context.Context, actor model.User) ([]model.User, error) {
	if err := s.requireAdmin(ctx, actor); err != nil {
		return nil, err
	}
	return s.users.List(ctx)
}

// ToggleAdmin flips the admin flag of user id.  Admins cannot change
// their own flag.
func (s *UserService) ToggleAdmin(ctx context.Context, actor model.User, id int64) (Outcome, error) {
	if err := s.requireAdmin(ctx, actor); err != nil {
		return Outcome{}, err
	}
	target, err := s.users.GetByID(ctx, id)
	if err != nil {
		return Outcome{}, err
	}
	if target.ID == actor.ID {
		var problems Problems
		problems.add("", "You cannot change your own admin status.")
		return rejected(nil, problems), nil
	}
	target.IsAdmin = !target.IsAdmin
	if err := s.users.SetAdmin(ctx, target.ID, target.IsAdmin); err != nil {
		return Outcome{}, err
	}
	s.logger.InfoContext(ctx, "user role changed",
		slog.Int64("user_id", target.ID), slog.String("role", target.Role()), slog.Int64("by", actor.ID))

	out := Outcome{ID: target.ID}
	out.say(SeveritySuccess, fmt.Sprintf("User '%s' has been updated to %s.", target.Username, target.Role()))
	return out, nil
}

// Delete removes user id.  Admins cannot delete themselves.
func (s *UserService) Delete(ctx context.Context, actor model.User, id int64) (Outcome, error) {
	if err := s.requireAdmin(ctx, actor); err != nil {
		return Outcome{}, err
	}
	target, err := s.users.GetByID(ctx, id)
	if err != nil {
		return Outcome{}, err
	}
	if target.ID == actor.ID {
		var problems Problems
		problems.add("", "You cannot delete your own account.")
		return rejected(nil, problems), nil
	}
	if err := s.users.Delete(ctx, target.ID); err != nil {
		return Outcome{}, err
	}
	s.logger.InfoContext(ctx, "user deleted", slog.Int64("user_id", target.ID), slog.Int64("by", actor.ID))

	out := Outcome{ID: target.ID}
	out.say(SeveritySuccess, fmt.Sprintf("User '%s' has been deleted.", target.Username))
	return out, nil
}

// SeedAdmin creates an admin account unless the username is taken.  It
// reports whether a user was created.
func (s *UserService) SeedAdmin(ctx context.Context, username, password string) (bool, error) {
	_, err := s.users.GetByUsername(ctx, username)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return false, err
	}
	if _, err := s.users.Create(ctx, username, password, true, s.bcryptCost); err != nil {
		if errors.Is(err, repository.ErrUsernameExists) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// requireAdmin checks the stored flag rather than the token claim so a
// demotion takes effect immediately.
func (s *UserService) requireAdmin(ctx context.Context, actor model.User) error {
	if actor.ID == 0 {
		return ErrAdminRequired
	}
	current, err := s.users.GetByID(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrAdminRequired
		}
		return err
	}
	if !current.IsAdmin {
		return ErrAdminRequired
	}
	return nil
}

func redactPassword(form Form) Form {
	out := make(Form, len(form))
	for k, v := range form {
		if k != "password" {
			out[k] = v
		}
	}
	return out
}
