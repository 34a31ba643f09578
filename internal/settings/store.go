package settings

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"slices"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Default embed colors used when the settings file does not override them.
var defaultEmbedColors = map[string]int{
	"success": 0x00ff00,
	"error":   0xff0000,
	"info":    0x0000ff,
	"flip":    0xffa500,
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// Store is a concurrency-safe settings store backed by a YAML file.
// Every successful Set is written back to the file it was opened from.
type Store struct {
	mu   sync.RWMutex
	path string
	data map[string]any
}

// Open reads and parses the settings file at path. String values containing
// ${VAR} placeholders are expanded from the environment; placeholders whose
// variable is unset are kept verbatim. A missing file yields an empty store
// that creates the file on first write.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.Join(ErrLoadFailed, errors.New("empty file path"))
	}

	s := &Store{path: path, data: make(map[string]any)}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, errors.Join(ErrLoadFailed, err)
	}

	if err := yaml.Unmarshal(raw, &s.data); err != nil {
		return nil, errors.Join(ErrLoadFailed, err)
	}
	if s.data == nil {
		s.data = make(map[string]any)
	}
	expandEnv(s.data)

	return s, nil
}

func expandEnv(m map[string]any) {
	for key, value := range m {
		switch v := value.(type) {
		case map[string]any:
			expandEnv(v)
		case string:
			m[key] = envVarPattern.ReplaceAllStringFunc(v, func(match string) string {
				name := match[2 : len(match)-1]
				if env, ok := os.LookupEnv(name); ok {
					return env
				}
				return match
			})
		}
	}
}

// Get returns the value at the given dot path, e.g. "access.owner_id".
// The boolean reports whether the path resolved to a value.
func (s *Store) Get(path string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return lookup(s.data, path)
}

func lookup(data map[string]any, path string) (any, bool) {
	if path == "" {
		return nil, false
	}

	var current any = data
	for key := range strings.SplitSeq(path, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[key]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// GetString returns the string at path, or def when absent or not a string.
func (s *Store) GetString(path, def string) string {
	if v, ok := s.Get(path); ok {
		if str, ok := v.(string); ok {
			return str
		}
	}
	return def
}

// GetBool returns the boolean at path, or def when absent or not a boolean.
func (s *Store) GetBool(path string, def bool) bool {
	if v, ok := s.Get(path); ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

// GetInt returns the integer at path, or def when absent or not numeric.
func (s *Store) GetInt(path string, def int) int {
	if v, ok := s.Get(path); ok {
		switch n := v.(type) {
		case int:
			return n
		case int64:
			return int(n)
		case float64:
			return int(n)
		}
	}
	return def
}

// GetStringSlice returns the list of strings at path. Non-string elements
// are rendered with fmt.Sprint so numeric IDs in YAML compare as strings.
func (s *Store) GetStringSlice(path string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return stringSlice(s.data, path)
}

func stringSlice(data map[string]any, path string) []string {
	v, ok := lookup(data, path)
	if !ok {
		return nil
	}
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		out = append(out, fmt.Sprint(item))
	}
	return out
}

// Set stores value at the given dot path, creating intermediate maps as
// needed, and persists the whole store to disk.
func (s *Store) Set(path string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setLocked(path, value)
}

// setLocked stores and persists; callers must hold the write lock.
func (s *Store) setLocked(path string, value any) error {
	if path == "" {
		return ErrInvalidPath
	}

	keys := strings.Split(path, ".")
	current := s.data
	for _, key := range keys[:len(keys)-1] {
		next, ok := current[key].(map[string]any)
		if !ok {
			if _, exists := current[key]; exists {
				return errors.Join(ErrInvalidPath, fmt.Errorf("%q is not a map", key))
			}
			next = make(map[string]any)
			current[key] = next
		}
		current = next
	}
	current[keys[len(keys)-1]] = value

	return s.save()
}

// save persists the store; callers must hold the write lock.
func (s *Store) save() error {
	raw, err := yaml.Marshal(s.data)
	if err != nil {
		return errors.Join(ErrSaveFailed, err)
	}
	if err := os.WriteFile(s.path, raw, 0o600); err != nil {
		return errors.Join(ErrSaveFailed, err)
	}
	return nil
}

// AddToList appends value to the string list at path if not already present.
// It reports whether the list changed. The read-modify-write runs under a
// single write lock so concurrent adds cannot lose each other.
func (s *Store) AddToList(path, value string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := stringSlice(s.data, path)
	if slices.Contains(list, value) {
		return false, nil
	}
	updated := make([]any, 0, len(list)+1)
	for _, item := range list {
		updated = append(updated, item)
	}
	updated = append(updated, value)
	if err := s.setLocked(path, updated); err != nil {
		return false, err
	}
	return true, nil
}

// RemoveFromList removes value from the string list at path.
// It reports whether the list changed.
func (s *Store) RemoveFromList(path, value string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := stringSlice(s.data, path)
	idx := slices.Index(list, value)
	if idx < 0 {
		return false, nil
	}
	updated := make([]any, 0, len(list)-1)
	for i, item := range list {
		if i == idx {
			continue
		}
		updated = append(updated, item)
	}
	if err := s.setLocked(path, updated); err != nil {
		return false, err
	}
	return true, nil
}

// IsAdmin reports whether the user is the owner or listed as an admin.
func (s *Store) IsAdmin(userID string) bool {
	if userID == "" {
		return false
	}
	if userID == s.GetString("access.owner_id", "") {
		return true
	}
	return slices.Contains(s.GetStringSlice("access.admin_ids"), userID)
}

// CanUseBot reports whether the user is allowed to interact with the bot.
// Blacklisted users are always denied; when the whitelist is enabled only
// whitelisted users are allowed.
func (s *Store) CanUseBot(userID string) bool {
	if slices.Contains(s.GetStringSlice("access.blacklisted_users"), userID) {
		return false
	}
	if s.GetBool("access.whitelist_enabled", false) {
		return slices.Contains(s.GetStringSlice("access.whitelisted_users"), userID)
	}
	return true
}

// NotificationChannel returns the configured notification channel for a guild.
func (s *Store) NotificationChannel(guildID string) (string, bool) {
	ch := s.GetString("channels.notifications."+guildID, "")
	return ch, ch != ""
}

// SetNotificationChannel sets the notification channel for a guild.
func (s *Store) SetNotificationChannel(guildID, channelID string) error {
	return s.Set("channels.notifications."+guildID, channelID)
}

// EmbedColor returns the embed color for the given kind (success, error,
// info, flip), falling back to built-in defaults.
func (s *Store) EmbedColor(kind string) int {
	return s.GetInt("embeds.colors."+kind, defaultEmbedColors[kind])
}

// FlipSettings returns a copy of the flip detection settings map.
func (s *Store) FlipSettings() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := lookup(s.data, "flip_settings")
	if !ok {
		return map[string]any{}
	}
	m, ok := v.(map[string]any)
	if !ok {
		return map[string]any{}
	}
	out := make(map[string]any, len(m))
	for k, val := range m {
		out[k] = val
	}
	return out
}

// UpdateFlipSettings merges the given values into the flip detection settings.
func (s *Store) UpdateFlipSettings(values map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := make(map[string]any)
	if v, ok := lookup(s.data, "flip_settings"); ok {
		if m, ok := v.(map[string]any); ok {
			for k, val := range m {
				current[k] = val
			}
		}
	}
	for k, v := range values {
		current[k] = v
	}
	return s.setLocked("flip_settings", current)
}
