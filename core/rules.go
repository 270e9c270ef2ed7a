package core

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"selectproxy/logger"
	"selectproxy/models"

	"github.com/google/uuid"
)

// ErrDuplicatePattern is returned when an update would give a rule a pattern
// another rule already holds. Inserts dedupe silently; updates surface the
// collision so the caller can report it.
var ErrDuplicatePattern = errors.New("selectproxy: pattern already used by another rule")

// RuleStore is the durable persistence behind the rule service. The store is
// the source of truth on restart; the service keeps no cache between calls.
type RuleStore interface {
	Load(ctx context.Context) ([]models.ProxyRule, error)
	Save(ctx context.Context, rules []models.ProxyRule) error
}

// RuleService owns all reads and writes of the proxy rule set. Constructed
// once at process start.
type RuleService struct {
	mu    sync.Mutex
	store RuleStore
}

func NewRuleService(store RuleStore) *RuleService {
	return &RuleService{store: store}
}

// ListRules returns the persisted rule set, insertion order preserved.
func (s *RuleService) ListRules(ctx context.Context) ([]models.ProxyRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Load(ctx)
}

// AddRule inserts rule unless one with the same pattern already exists
// (exact string equality; a silent no-op, not an error). A missing ID is
// assigned. Returns the resulting list.
func (s *RuleService) AddRule(ctx context.Context, rule models.ProxyRule) ([]models.ProxyRule, error) {
	return s.AddRules(ctx, []models.ProxyRule{rule})
}

// AddRules is the batch form of AddRule: rules whose pattern is already
// present (or repeated within the batch) are filtered out, then the set is
// persisted once.
func (s *RuleService) AddRules(ctx context.Context, rules []models.ProxyRule) ([]models.ProxyRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load rules: %w", err)
	}

	seen := make(map[string]bool, len(existing))
	for _, r := range existing {
		seen[r.Pattern] = true
	}

	added := 0
	for _, rule := range rules {
		rule.Pattern = strings.TrimSpace(rule.Pattern)
		if rule.Pattern == "" || seen[rule.Pattern] {
			continue
		}
		if rule.ID == "" {
			rule.ID = uuid.New().String()
		}
		existing = append(existing, rule)
		seen[rule.Pattern] = true
		added++
	}

	if added > 0 {
		if err := s.store.Save(ctx, existing); err != nil {
			return nil, fmt.Errorf("failed to persist rules: %w", err)
		}
		logger.Info("Added %d proxy rule(s); %d total.", added, len(existing))
	}
	return existing, nil
}

// UpdateRule merges patch into the rule with the given id (the id itself is
// immutable) and persists. Returns whether the rule was found.
func (s *RuleService) UpdateRule(ctx context.Context, id string, patch models.ProxyRulePatch) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rules, err := s.store.Load(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to load rules: %w", err)
	}

	for i := range rules {
		if rules[i].ID != id {
			continue
		}
		if patch.Pattern != nil {
			pattern := strings.TrimSpace(*patch.Pattern)
			for j := range rules {
				if j != i && rules[j].Pattern == pattern {
					return false, ErrDuplicatePattern
				}
			}
			rules[i].Pattern = pattern
		}
		if err := s.store.Save(ctx, rules); err != nil {
			return false, fmt.Errorf("failed to persist rules: %w", err)
		}
		return true, nil
	}
	return false, nil
}

// DeleteRule removes the rule with the given id if present, persisting only
// when the set actually changed. Returns the resulting list.
func (s *RuleService) DeleteRule(ctx context.Context, id string) ([]models.ProxyRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rules, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load rules: %w", err)
	}

	kept := rules[:0:0]
	for _, r := range rules {
		if r.ID != id {
			kept = append(kept, r)
		}
	}
	if len(kept) == len(rules) {
		return rules, nil
	}

	if err := s.store.Save(ctx, kept); err != nil {
		return nil, fmt.Errorf("failed to persist rules: %w", err)
	}
	logger.Info("Deleted proxy rule %s; %d remaining.", id, len(kept))
	return kept, nil
}

// IsProxied reports whether the URL's hostname, generalized to its wildcard
// pattern, equals the pattern of any stored rule.
func (s *RuleService) IsProxied(ctx context.Context, rawURL string) (bool, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false, fmt.Errorf("failed to parse URL %q: %w", rawURL, err)
	}
	hostname := u.Hostname()
	if hostname == "" {
		// Bare hostnames parse with an empty Host; treat the input itself as the host.
		hostname = rawURL
	}
	pattern := NormalizeToWildcard(hostname)

	rules, err := s.ListRules(ctx)
	if err != nil {
		return false, err
	}
	for _, r := range rules {
		if r.Pattern == pattern {
			return true, nil
		}
	}
	return false, nil
}
