// Package signature derives the encoding signature that identifies one
// processing configuration.
//
// The signature is a SHA-256 digest over a canonical JSON serialization of
// the model name, window size, target sample rate, and feature
// configuration. Two submissions with the same parameters always produce
// the same digest regardless of feature-config key order, which makes the
// signature usable as an idempotence key for embedding work.
package signature

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// payload fixes the canonical field order. Map values are serialized with
// sorted keys by encoding/json, so the digest is insensitive to the order
// feature options were supplied in.
type payload struct {
	FeatureConfig     map[string]any `json:"feature_config"`
	ModelVersion      string         `json:"model_version"`
	TargetSampleRate  int            `json:"target_sample_rate"`
	WindowSizeSeconds float64        `json:"window_size_seconds"`
}

// Compute returns the hex-encoded encoding signature for the given
// processing parameters. A nil featureConfig is treated as empty. The only
// failure mode is a feature value that cannot be serialized to JSON.
func Compute(modelName string, windowSeconds float64, sampleRate int, featureConfig map[string]any) (string, error) {
	if featureConfig == nil {
		featureConfig = map[string]any{}
	}
	canonical, err := json.Marshal(payload{
		FeatureConfig:     featureConfig,
		ModelVersion:      modelName,
		TargetSampleRate:  sampleRate,
		WindowSizeSeconds: windowSeconds,
	})
	if err != nil {
		return "", fmt.Errorf("serialize signature payload: %w", err)
	}
	digest := sha256.Sum256(canonical)
	return hex.EncodeToString(digest[:]), nil
}
