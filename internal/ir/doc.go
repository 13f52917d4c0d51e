// Package ir is the canonical wire form of portmanteau witnesses.
//
// Witnesses are encoded as IRObject trees, serialized with RFC 8785
// canonical JSON and identified by a domain-separated SHA-256 of that
// serialization. ir imports nothing internal.
//
// Key design constraints:
//   - NO float types - decimals are canonical strings ("0.5", never 0.5)
//   - NO null - absent fields are omitted
//   - Logical sequence numbers only, never wall-clock timestamps
package ir
