package users

import "time"

/**
 * UserService manages accounts.
 */
type UserService struct{}

// Lookup finds a user.
// @param string $id
// @return User
func (s *UserService) Lookup(id string, since time.Time) {}

// Rename is declared before Archive.
func (s *UserService) Rename(id, name string) {}

// Archive hides a user.
// @param bool $hard
func (s *UserService) Archive(id string, hard bool, err error) {}
