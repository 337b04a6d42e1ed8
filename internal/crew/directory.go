// Package crew resolves crew member names to provider user and team UIDs.
package crew

import (
	"context"
	"fmt"
	"os"
	"strings"

	"scheduling_backend/internal/zuper"
	"scheduling_backend/platform/cache"
	"scheduling_backend/platform/logger"

	"golang.org/x/sync/singleflight"
	"gopkg.in/yaml.v3"
)

const cacheKeyPrefix = "crew:"

// Member is one entry of the crew directory file.
type Member struct {
	Name    string   `yaml:"name"`
	Aliases []string `yaml:"aliases"`
	UserUID string   `yaml:"user_uid"`
	TeamUID string   `yaml:"team_uid"`
	Email   string   `yaml:"email"`
}

type directoryFile struct {
	Members []Member `yaml:"members"`
}

// Assignee is a resolved crew member.
type Assignee struct {
	UserUID string `json:"userUid"`
	TeamUID string `json:"teamUid,omitempty"`
	Email   string `json:"email,omitempty"`
}

// UserSearcher is the provider user lookup used when the directory has no entry.
type UserSearcher interface {
	SearchUsers(ctx context.Context, name string) ([]zuper.User, error)
}

// Directory looks names up in the static directory first, then in the
// cache, then through the provider.
type Directory struct {
	members map[string]Member
	users   UserSearcher
	cache   *cache.Cache
	log     *logger.Logger
	group   singleflight.Group
}

// LoadFile reads a YAML crew directory. An empty path yields no members.
func LoadFile(path string) ([]Member, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read crew directory: %w", err)
	}
	var file directoryFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse crew directory: %w", err)
	}
	for i, m := range file.Members {
		if strings.TrimSpace(m.Name) == "" || strings.TrimSpace(m.UserUID) == "" {
			return nil, fmt.Errorf("crew directory entry %d: name and user_uid are required", i)
		}
	}
	return file.Members, nil
}

// NewDirectory builds a Directory. users and c may be nil.
func NewDirectory(members []Member, users UserSearcher, c *cache.Cache, log *logger.Logger) *Directory {
	index := make(map[string]Member, len(members))
	for _, m := range members {
		index[normalizeName(m.Name)] = m
		for _, alias := range m.Aliases {
			index[normalizeName(alias)] = m
		}
	}
	return &Directory{members: index, users: users, cache: c, log: log}
}

// LookupByName returns the assignee for name, or nil when nobody matches.
// Concurrent lookups of the same name share one provider call.
func (d *Directory) LookupByName(ctx context.Context, name string) (*Assignee, error) {
	key := normalizeName(name)
	if key == "" {
		return nil, nil
	}

	if m, ok := d.members[key]; ok {
		return &Assignee{UserUID: m.UserUID, TeamUID: m.TeamUID, Email: m.Email}, nil
	}

	if d.cache != nil {
		var cached Assignee
		hit, err := d.cache.GetJSON(ctx, cacheKeyPrefix+key, &cached)
		if err != nil {
			d.log.Warn("crew cache read failed", "name", key, "error", err)
		} else if hit {
			return &cached, nil
		}
	}

	if d.users == nil {
		return nil, nil
	}

	v, err, _ := d.group.Do(key, func() (any, error) {
		return d.searchProvider(ctx, key)
	})
	if err != nil {
		return nil, err
	}
	assignee, _ := v.(*Assignee)
	return assignee, nil
}

func (d *Directory) searchProvider(ctx context.Context, key string) (*Assignee, error) {
	users, err := d.users.SearchUsers(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("search users %q: %w", key, err)
	}

	for _, u := range users {
		if normalizeName(u.FullName()) != key || u.UID == "" {
			continue
		}
		assignee := &Assignee{UserUID: u.UID, Email: u.Email}
		if d.cache != nil {
			if err := d.cache.SetJSON(ctx, cacheKeyPrefix+key, assignee, 0); err != nil {
				d.log.Warn("crew cache write failed", "name", key, "error", err)
			}
		}
		return assignee, nil
	}
	return nil, nil
}

func normalizeName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}
