// Basic-authentication identities for the daemon.

package auth

import (
	"crypto/subtle"
	"fmt"
	"os"
	"strings"
	"sync"
)

// An Authenticator checks user:password pairs against a password file.  It can be reread while in
// use.

type Authenticator struct {
	sync.RWMutex
	filename   string
	identities map[string]string
}

// Read a file with lines of username:password pairs.  Lines can be blank; leading and trailing
// whitespace is ignored.  The user name cannot contain ":", the password can.

func ReadPasswords(filename string) (*Authenticator, error) {
	m, err := parsePasswords(filename)
	if err != nil {
		return nil, err
	}
	return &Authenticator{
		filename:   filename,
		identities: m,
	}, nil
}

func parsePasswords(filename string) (map[string]string, error) {
	bs, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("Failed to read password file\n%w", err)
	}
	m := make(map[string]string)
	for i, l := range strings.Split(string(bs), "\n") {
		s := strings.TrimSpace(l)
		if s == "" {
			continue
		}
		user, pass, found := strings.Cut(s, ":")
		if !found || user == "" {
			return nil, fmt.Errorf("Password file %s has the wrong format (line %d)", filename, i+1)
		}
		if _, dup := m[user]; dup {
			return nil, fmt.Errorf("Password file %s has duplicated user name (line %d)", filename, i+1)
		}
		m[user] = pass
	}
	return m, nil
}

func (a *Authenticator) Authenticate(user, pass string) bool {
	a.RLock()
	stored, found := a.identities[user]
	a.RUnlock()
	return found && subtle.ConstantTimeCompare([]byte(stored), []byte(pass)) == 1
}

// Replace the identities with the current contents of the file.  On error the old identities are
// retained.

func (a *Authenticator) Reread() error {
	m, err := parsePasswords(a.filename)
	if err != nil {
		return err
	}
	a.Lock()
	a.identities = m
	a.Unlock()
	return nil
}

func (a *Authenticator) Len() int {
	a.RLock()
	defer a.RUnlock()
	return len(a.identities)
}
