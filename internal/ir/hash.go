package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// The version suffix leaves room for a future algorithm change.
const (
	DomainWitness  = "portmanteau/witness/v1"
	DomainScenario = "portmanteau/scenario/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null byte keeps the domain/data boundary unambiguous.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// WitnessID computes the content-addressed ID of an encoded witness.
// Two runs that establish the same criterion over the same family with the
// same values and trail get the same ID.
func WitnessID(witness IRObject) (string, error) {
	canonical, err := MarshalCanonical(witness)
	if err != nil {
		return "", fmt.Errorf("WitnessID: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainWitness, canonical), nil
}

// ScenarioDigest fingerprints the normalized form of a scenario so stored
// runs can be matched to the input that produced them.
func ScenarioDigest(scenario IRObject) (string, error) {
	canonical, err := MarshalCanonical(scenario)
	if err != nil {
		return "", fmt.Errorf("ScenarioDigest: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainScenario, canonical), nil
}

// MustWitnessID is like WitnessID but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustWitnessID(witness IRObject) string {
	id, err := WitnessID(witness)
	if err != nil {
		panic(err)
	}
	return id
}
