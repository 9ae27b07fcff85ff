// Package cryptoutil holds the integrity checks used when a content bundle is
// fetched from object storage: SHA-256 digests compared in constant time and
// detached signatures verified against an AWS KMS asymmetric key.
package cryptoutil
