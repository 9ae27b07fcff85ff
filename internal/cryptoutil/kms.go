package cryptoutil

import (
	"bytes"
	"context"
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/x509"
	"encoding/base64"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	kmstypes "github.com/aws/aws-sdk-go-v2/service/kms/types"

	"github.com/keithlinneman/celestialexplorer-web/internal/xerrors"
)

// publicKeyAPI is the part of the KMS client the verifier needs.
type publicKeyAPI interface {
	GetPublicKey(ctx context.Context, params *kms.GetPublicKeyInput, optFns ...func(*kms.Options)) (*kms.GetPublicKeyOutput, error)
}

// KMSVerifier checks signatures produced by a KMS asymmetric key. The public
// key is fetched once and verification happens locally.
type KMSVerifier struct {
	api    publicKeyAPI
	keyARN string

	// AllowPKCS1v15 accepts RSA PKCS#1 v1.5 signatures when PSS fails.
	AllowPKCS1v15 bool

	mu  sync.Mutex
	pub crypto.PublicKey
}

func NewKMSVerifier(client *kms.Client, keyARN string) *KMSVerifier {
	return &KMSVerifier{api: client, keyARN: keyARN}
}

// KeyARN returns the key the verifier was built for.
func (v *KMSVerifier) KeyARN() string { return v.keyARN }

// PublicKey returns the cached key, fetching it from KMS on first use.
func (v *KMSVerifier) PublicKey(ctx context.Context) (crypto.PublicKey, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.pub != nil {
		return v.pub, nil
	}
	if v.api == nil {
		return nil, xerrors.New("kms client is not configured")
	}

	out, err := v.api.GetPublicKey(ctx, &kms.GetPublicKeyInput{KeyId: aws.String(v.keyARN)})
	if err != nil {
		return nil, xerrors.Wrapf(err, "kms get public key %s", v.keyARN)
	}
	if out.KeyUsage != kmstypes.KeyUsageTypeSignVerify {
		return nil, xerrors.Newf("kms key %s has KeyUsage=%s, expected SIGN_VERIFY", v.keyARN, out.KeyUsage)
	}
	pub, err := x509.ParsePKIXPublicKey(out.PublicKey)
	if err != nil {
		return nil, xerrors.Wrap(err, "parse kms public key DER")
	}
	v.pub = pub
	return pub, nil
}

// VerifyBlob checks a detached signature over artifact. The signature may be
// raw bytes or base64 text, which is how the publishing pipeline writes it.
func (v *KMSVerifier) VerifyBlob(ctx context.Context, sig, artifact []byte) error {
	if len(bytes.TrimSpace(sig)) == 0 {
		return xerrors.New("empty signature")
	}
	return v.VerifySignature(ctx, artifact, decodeSignature(sig))
}

// VerifySignature verifies signature over message. The digest follows the key:
// SHA-384 for P-384, SHA-256 for P-256 and RSA.
func (v *KMSVerifier) VerifySignature(ctx context.Context, message, signature []byte) error {
	pub, err := v.PublicKey(ctx)
	if err != nil {
		return err
	}
	switch key := pub.(type) {
	case *ecdsa.PublicKey:
		return verifyECDSA(key, message, signature)
	case *rsa.PublicKey:
		return verifyRSA(key, message, signature, v.AllowPKCS1v15)
	default:
		return xerrors.Newf("unsupported public key type %T", pub)
	}
}

func decodeSignature(sig []byte) []byte {
	trimmed := bytes.TrimSpace(sig)
	dec := make([]byte, base64.StdEncoding.DecodedLen(len(trimmed)))
	n, err := base64.StdEncoding.Decode(dec, trimmed)
	if err != nil {
		return sig
	}
	return dec[:n]
}

func verifyECDSA(key *ecdsa.PublicKey, message, signature []byte) error {
	var digest []byte
	switch key.Curve {
	case elliptic.P256():
		d := sha256.Sum256(message)
		digest = d[:]
	case elliptic.P384():
		d := sha512.Sum384(message)
		digest = d[:]
	default:
		return xerrors.Newf("unsupported ECDSA curve %s", key.Curve.Params().Name)
	}
	if !ecdsa.VerifyASN1(key, digest, signature) {
		return xerrors.Newf("ECDSA signature verification failed (curve %s)", key.Curve.Params().Name)
	}
	return nil
}

func verifyRSA(key *rsa.PublicKey, message, signature []byte, allowPKCS1v15 bool) error {
	digest := sha256.Sum256(message)
	pssErr := rsa.VerifyPSS(key, crypto.SHA256, digest[:], signature, nil)
	if pssErr == nil {
		return nil
	}
	if !allowPKCS1v15 {
		return xerrors.Wrap(pssErr, "RSA-PSS verification failed")
	}
	if err := rsa.VerifyPKCS1v15(key, crypto.SHA256, digest[:], signature); err != nil {
		return xerrors.Wrap(err, "RSA verification failed (PSS and PKCS1v15)")
	}
	return nil
}
