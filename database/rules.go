package database

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"selectproxy/logger"
	"selectproxy/models"
)

// maxChunkBytes is the per-key size ceiling for a stored rule chunk,
// mirroring the host storage area limit the scheme was designed around.
const maxChunkBytes = 8192

// LoadRules reads the full rule set from its chunked keys, insertion order
// preserved. An unset chunk count yields an empty list.
func LoadRules() ([]models.ProxyRule, error) {
	countStr, err := GetSetting(models.ProxyRuleChunkCountKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read rule chunk count: %w", err)
	}
	if countStr == "" {
		return []models.ProxyRule{}, nil
	}

	count, err := strconv.Atoi(countStr)
	if err != nil {
		return nil, fmt.Errorf("invalid rule chunk count %q: %w", countStr, err)
	}

	rules := []models.ProxyRule{}
	for i := 0; i < count; i++ {
		key := fmt.Sprintf(models.ProxyRuleChunkKeyFormat, i)
		raw, err := GetSetting(key)
		if err != nil {
			return nil, fmt.Errorf("failed to read rule chunk %d: %w", i, err)
		}
		if raw == "" {
			logger.Warn("Rule chunk %d is missing; skipping.", i)
			continue
		}
		var chunk []models.ProxyRule
		if err := json.Unmarshal([]byte(raw), &chunk); err != nil {
			return nil, fmt.Errorf("failed to unmarshal rule chunk %d: %w", i, err)
		}
		rules = append(rules, chunk...)
	}
	return rules, nil
}

// SaveRules overwrites the stored rule set, re-chunking so no single key
// exceeds maxChunkBytes, and removes any now-stale chunk keys.
func SaveRules(rules []models.ProxyRule) error {
	oldCountStr, err := GetSetting(models.ProxyRuleChunkCountKey)
	if err != nil {
		return fmt.Errorf("failed to read previous rule chunk count: %w", err)
	}
	oldCount := 0
	if oldCountStr != "" {
		if oldCount, err = strconv.Atoi(oldCountStr); err != nil {
			logger.Warn("Ignoring invalid previous rule chunk count %q: %v", oldCountStr, err)
			oldCount = 0
		}
	}

	chunks, err := chunkRules(rules)
	if err != nil {
		return err
	}

	for i, chunk := range chunks {
		key := fmt.Sprintf(models.ProxyRuleChunkKeyFormat, i)
		if err := SetSetting(key, chunk); err != nil {
			return fmt.Errorf("failed to write rule chunk %d: %w", i, err)
		}
	}
	if err := SetSetting(models.ProxyRuleChunkCountKey, strconv.Itoa(len(chunks))); err != nil {
		return fmt.Errorf("failed to write rule chunk count: %w", err)
	}

	for i := len(chunks); i < oldCount; i++ {
		key := fmt.Sprintf(models.ProxyRuleChunkKeyFormat, i)
		if err := RemoveSetting(key); err != nil {
			return fmt.Errorf("failed to remove stale rule chunk %d: %w", i, err)
		}
	}
	return nil
}

// chunkRules packs the rules into JSON arrays no larger than maxChunkBytes.
// A single oversized rule still gets its own chunk rather than being dropped.
func chunkRules(rules []models.ProxyRule) ([]string, error) {
	var chunks []string
	var current []models.ProxyRule
	currentSize := 2 // "[]"

	flush := func() error {
		if len(current) == 0 {
			return nil
		}
		raw, err := json.Marshal(current)
		if err != nil {
			return fmt.Errorf("failed to marshal rule chunk: %w", err)
		}
		chunks = append(chunks, string(raw))
		current = nil
		currentSize = 2
		return nil
	}

	for _, rule := range rules {
		encoded, err := json.Marshal(rule)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal rule %s: %w", rule.ID, err)
		}
		if len(current) > 0 && currentSize+len(encoded)+1 > maxChunkBytes {
			if err := flush(); err != nil {
				return nil, err
			}
		}
		current = append(current, rule)
		currentSize += len(encoded) + 1
	}
	if err := flush(); err != nil {
		return nil, err
	}
	if chunks == nil {
		chunks = []string{"[]"}
	}
	return chunks, nil
}

// migrateLegacyRuleKey moves a rule set stored under the single legacy key
// into the chunked scheme. Runs once: the legacy key is removed afterwards
// and chunked data is never overwritten if already present.
func migrateLegacyRuleKey() error {
	countStr, err := GetSetting(models.ProxyRuleChunkCountKey)
	if err != nil {
		return fmt.Errorf("legacy rule migration: failed to read chunk count: %w", err)
	}

	legacy, err := GetSetting(models.LegacyProxyRulesKey)
	if err != nil {
		return fmt.Errorf("legacy rule migration: failed to read legacy key: %w", err)
	}
	if legacy == "" {
		return nil
	}

	if countStr != "" {
		// Chunked data already exists; the legacy key is leftover noise.
		logger.Warn("Legacy rule key present alongside chunked rules; discarding legacy value.")
		return RemoveSetting(models.LegacyProxyRulesKey)
	}

	var rules []models.ProxyRule
	if err := json.Unmarshal([]byte(legacy), &rules); err != nil {
		return fmt.Errorf("legacy rule migration: failed to unmarshal legacy rules: %w", err)
	}
	if err := SaveRules(rules); err != nil {
		return fmt.Errorf("legacy rule migration: failed to save chunked rules: %w", err)
	}
	if err := RemoveSetting(models.LegacyProxyRulesKey); err != nil {
		return fmt.Errorf("legacy rule migration: failed to remove legacy key: %w", err)
	}
	logger.Info("Migrated %d proxy rules from legacy storage key to chunked scheme.", len(rules))
	return nil
}

// RuleStore adapts the chunked key-value persistence to core's store
// interface.
type RuleStore struct{}

func (RuleStore) Load(ctx context.Context) ([]models.ProxyRule, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return LoadRules()
}

func (RuleStore) Save(ctx context.Context, rules []models.ProxyRule) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return SaveRules(rules)
}
