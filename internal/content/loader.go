package content

import (
	"context"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/ssm"

	"github.com/keithlinneman/celestialexplorer-web/internal/cryptoutil"
	"github.com/keithlinneman/celestialexplorer-web/internal/log"
	"github.com/keithlinneman/celestialexplorer-web/internal/xerrors"
)

// SSMAPI is the part of the SSM client the loader uses.
type SSMAPI interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// S3API is the part of the S3 client the loader uses.
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// BlobVerifier checks a detached signature over a bundle.
// *cryptoutil.KMSVerifier implements it.
type BlobVerifier interface {
	VerifyBlob(ctx context.Context, sig, artifact []byte) error
}

type LoaderOptions struct {
	Logger log.Logger

	// SSMParam holds the hex sha256 of the active bundle.
	SSMParam string

	// Bundles live at s3://{S3Bucket}/{S3Prefix}/{hash}.tar.gz with the
	// detached signature next to them as {hash}.tar.gz.sig.
	S3Bucket string
	S3Prefix string

	SSM SSMAPI
	S3  S3API

	// Verifier is optional; when set every bundle must carry a valid signature.
	Verifier BlobVerifier

	// Validation runs on every built snapshot. nil uses DefaultValidationOptions.
	Validation *ValidationOptions
}

type Loader struct {
	opts       LoaderOptions
	logger     log.Logger
	validation ValidationOptions
	now        func() time.Time
}

// NewLoader checks opts and returns a Loader using the given clients.
func NewLoader(opts LoaderOptions) (*Loader, error) {
	if opts.SSMParam == "" {
		return nil, xerrors.New("SSMParam is required")
	}
	if opts.S3Bucket == "" {
		return nil, xerrors.New("S3Bucket is required")
	}
	if opts.SSM == nil || opts.S3 == nil {
		return nil, xerrors.New("SSM and S3 clients are required")
	}
	if opts.Logger == nil {
		opts.Logger = log.Nop()
	}
	v := DefaultValidationOptions()
	if opts.Validation != nil {
		v = *opts.Validation
	}
	return &Loader{
		opts:       opts,
		logger:     opts.Logger.With("component", "content-loader"),
		validation: v,
		now:        time.Now,
	}, nil
}

// NewAWSLoader builds SSM and S3 clients from awsCfg.
func NewAWSLoader(awsCfg aws.Config, opts LoaderOptions) (*Loader, error) {
	opts.SSM = ssm.NewFromConfig(awsCfg)
	opts.S3 = s3.NewFromConfig(awsCfg)
	return NewLoader(opts)
}

// FetchCurrentBundleHash reads the active bundle hash from SSM.
func (l *Loader) FetchCurrentBundleHash(ctx context.Context) (string, error) {
	out, err := l.opts.SSM.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(l.opts.SSMParam),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return "", xerrors.Wrapf(err, "get SSM parameter %s", l.opts.SSMParam)
	}
	if out.Parameter == nil || out.Parameter.Value == nil {
		return "", xerrors.Newf("SSM parameter %s has no value", l.opts.SSMParam)
	}
	hash := strings.ToLower(strings.TrimSpace(*out.Parameter.Value))
	if !cryptoutil.IsSHA256Hex(hash) {
		return "", xerrors.Newf("SSM parameter %s is not a sha256 hex digest", l.opts.SSMParam)
	}
	return hash, nil
}

func (l *Loader) s3Key(hash string) string {
	if p := strings.Trim(l.opts.S3Prefix, "/"); p != "" {
		return p + "/" + hash + ".tar.gz"
	}
	return hash + ".tar.gz"
}

// Load fetches the bundle SSM currently points at.
func (l *Loader) Load(ctx context.Context) (*Snapshot, error) {
	hash, err := l.FetchCurrentBundleHash(ctx)
	if err != nil {
		return nil, err
	}
	return l.LoadHash(ctx, hash)
}

// LoadHash downloads, verifies, extracts, builds and validates one bundle.
func (l *Loader) LoadHash(ctx context.Context, hash string) (*Snapshot, error) {
	if !cryptoutil.IsSHA256Hex(hash) {
		return nil, xerrors.Newf("invalid bundle hash %q", hash)
	}
	key := l.s3Key(hash)

	data, actual, err := l.getObject(ctx, key, maxBundleSize)
	if err != nil {
		return nil, err
	}
	if !cryptoutil.HashEqual(actual, hash) {
		return nil, xerrors.Newf("checksum mismatch: expected %s, got %s", hash, actual)
	}
	l.logger.Info(ctx, "downloaded content bundle", "key", key, "bytes", len(data))

	signed := false
	if l.opts.Verifier != nil {
		sig, _, err := l.getObject(ctx, key+".sig", maxSignatureSize)
		if err != nil {
			return nil, xerrors.Wrap(err, "fetch bundle signature")
		}
		if err := l.opts.Verifier.VerifyBlob(ctx, sig, data); err != nil {
			return nil, xerrors.Wrapf(err, "verify signature of %s", key)
		}
		signed = true
	}

	fsys, err := extractTarGzToMem(data)
	if err != nil {
		return nil, xerrors.Wrap(err, "extract bundle")
	}
	snap, err := Build(fsys, Meta{
		SHA256:     hash,
		Source:     SourceS3,
		VerifiedAt: l.now().UTC(),
		Signed:     signed,
	})
	if err != nil {
		return nil, xerrors.Wrap(err, "build snapshot")
	}
	if err := ValidateSnapshot(snap, l.validation); err != nil {
		return nil, err
	}
	return snap, nil
}

// LoadIntoManager loads the current bundle and makes it active.
func (l *Loader) LoadIntoManager(ctx context.Context, mgr *Manager) error {
	snap, err := l.Load(ctx)
	if err != nil {
		return err
	}
	mgr.Set(*snap)
	return nil
}

func (l *Loader) getObject(ctx context.Context, key string, limit int64) ([]byte, string, error) {
	out, err := l.opts.S3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(l.opts.S3Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, "", xerrors.Wrapf(err, "get s3://%s/%s", l.opts.S3Bucket, key)
	}
	defer out.Body.Close()
	if out.ContentLength != nil && *out.ContentLength > limit {
		return nil, "", xerrors.Newf("s3://%s/%s is %d bytes, limit %d", l.opts.S3Bucket, key, *out.ContentLength, limit)
	}
	data, sum, err := readWithHash(out.Body, limit)
	if err != nil {
		return nil, "", xerrors.Wrapf(err, "read s3://%s/%s", l.opts.S3Bucket, key)
	}
	return data, sum, nil
}
