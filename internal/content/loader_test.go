package content

import (
	"errors"
	"strings"
	"testing"

	"github.com/keithlinneman/celestialexplorer-web/internal/cryptoutil"
)

// ---------------------------------------------------------------------------
// NewLoader
// ---------------------------------------------------------------------------

func TestNewLoader_RequiresFields(t *testing.T) {
	s3f, ssmf := newFakeS3(), &fakeSSM{}
	cases := map[string]LoaderOptions{
		"no param":   {S3Bucket: testBucket, SSM: ssmf, S3: s3f},
		"no bucket":  {SSMParam: testSSMParam, SSM: ssmf, S3: s3f},
		"no clients": {SSMParam: testSSMParam, S3Bucket: testBucket},
	}
	for name, opts := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := NewLoader(opts); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestLoader_s3Key(t *testing.T) {
	l := &Loader{opts: LoaderOptions{S3Prefix: "/content/bundles/"}}
	if got := l.s3Key("abc"); got != "content/bundles/abc.tar.gz" {
		t.Fatalf("s3Key = %q", got)
	}
	l.opts.S3Prefix = ""
	if got := l.s3Key("abc"); got != "abc.tar.gz" {
		t.Fatalf("s3Key = %q", got)
	}
}

// ---------------------------------------------------------------------------
// FetchCurrentBundleHash
// ---------------------------------------------------------------------------

func TestFetchCurrentBundleHash(t *testing.T) {
	hash := cryptoutil.SHA256Hex([]byte("x"))
	ssmf := &fakeSSM{value: "  " + strings.ToUpper(hash) + "\n"}
	l := newTestLoader(t, newFakeS3(), ssmf, nil)

	got, err := l.FetchCurrentBundleHash(t.Context())
	if err != nil {
		t.Fatal(err)
	}
	if got != hash {
		t.Fatalf("hash = %q, want normalized %q", got, hash)
	}

	ssmf.set("not-a-hash", nil)
	if _, err := l.FetchCurrentBundleHash(t.Context()); err == nil {
		t.Fatal("expected error for malformed value")
	}
	ssmf.set("", errors.New("throttled"))
	if _, err := l.FetchCurrentBundleHash(t.Context()); err == nil || !strings.Contains(err.Error(), "throttled") {
		t.Fatalf("err = %v", err)
	}
}

// ---------------------------------------------------------------------------
// LoadHash
// ---------------------------------------------------------------------------

func TestLoad_Unsigned(t *testing.T) {
	s3f := newFakeS3()
	hash := publish(t, s3f, bundleFiles("2026.10.2"), false)
	l := newTestLoader(t, s3f, &fakeSSM{value: hash}, nil)

	snap, err := l.Load(t.Context())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if snap.Meta.SHA256 != hash || snap.Meta.Source != SourceS3 || snap.Meta.Version != "2026.10.2" {
		t.Fatalf("meta = %+v", snap.Meta)
	}
	if snap.Meta.Signed {
		t.Fatal("unsigned load marked signed")
	}
	if snap.Meta.VerifiedAt.IsZero() || len(snap.Sections) != 3 {
		t.Fatalf("snapshot = %+v", snap)
	}
}

func TestLoad_Signed(t *testing.T) {
	s3f := newFakeS3()
	hash := publish(t, s3f, bundleFiles("v2"), true)
	v := &fakeVerifier{}
	l := newTestLoader(t, s3f, &fakeSSM{value: hash}, v)

	snap, err := l.LoadHash(t.Context(), hash)
	if err != nil {
		t.Fatalf("LoadHash: %v", err)
	}
	if !snap.Meta.Signed || v.calls != 1 {
		t.Fatalf("signed=%v calls=%d", snap.Meta.Signed, v.calls)
	}
}

func TestLoad_SignatureRequiredWhenVerifierSet(t *testing.T) {
	s3f := newFakeS3()
	hash := publish(t, s3f, bundleFiles("v2"), false)
	l := newTestLoader(t, s3f, &fakeSSM{value: hash}, &fakeVerifier{})
	if _, err := l.LoadHash(t.Context(), hash); err == nil || !strings.Contains(err.Error(), "signature") {
		t.Fatalf("err = %v", err)
	}
}

func TestLoad_BadSignature(t *testing.T) {
	s3f := newFakeS3()
	hash := publish(t, s3f, bundleFiles("v2"), false)
	s3f.put(testPrefix+"/"+hash+".tar.gz.sig", []byte("sig:forged"))
	l := newTestLoader(t, s3f, &fakeSSM{value: hash}, &fakeVerifier{})
	if _, err := l.LoadHash(t.Context(), hash); err == nil || !strings.Contains(err.Error(), "verify signature") {
		t.Fatalf("err = %v", err)
	}
}

func TestLoad_ChecksumMismatch(t *testing.T) {
	s3f := newFakeS3()
	hash := publish(t, s3f, bundleFiles("v1"), false)
	other := cryptoutil.SHA256Hex([]byte("other"))
	// object stored under the wrong hash
	s3f.put(testPrefix+"/"+other+".tar.gz", s3f.objects[testPrefix+"/"+hash+".tar.gz"])

	l := newTestLoader(t, s3f, &fakeSSM{}, nil)
	if _, err := l.LoadHash(t.Context(), other); err == nil || !strings.Contains(err.Error(), "checksum mismatch") {
		t.Fatalf("err = %v", err)
	}
}

func TestLoad_InvalidBundle(t *testing.T) {
	s3f := newFakeS3()
	files := bundleFiles("v1")
	files["manifest.json"] = `{"version":"v1","sections":[{"id":"cosmos","title":"Cosmos","file":"sections/cosmos.md"}]}`
	hash := publish(t, s3f, files, false)

	l := newTestLoader(t, s3f, &fakeSSM{}, nil)
	if _, err := l.LoadHash(t.Context(), hash); err == nil || !strings.Contains(err.Error(), "validate") {
		t.Fatalf("err = %v", err)
	}
}

func TestLoad_RejectsBadHashWithoutFetching(t *testing.T) {
	s3f := newFakeS3()
	l := newTestLoader(t, s3f, &fakeSSM{}, nil)
	if _, err := l.LoadHash(t.Context(), "../../etc/passwd"); err == nil {
		t.Fatal("expected error")
	}
	if len(s3f.gets) != 0 {
		t.Fatalf("unexpected S3 gets: %v", s3f.gets)
	}
}

func TestLoad_MissingObject(t *testing.T) {
	l := newTestLoader(t, newFakeS3(), &fakeSSM{}, nil)
	if _, err := l.LoadHash(t.Context(), cryptoutil.SHA256Hex([]byte("gone"))); err == nil || !strings.Contains(err.Error(), "NoSuchKey") {
		t.Fatalf("err = %v", err)
	}
}

func TestLoadIntoManager(t *testing.T) {
	s3f := newFakeS3()
	hash := publish(t, s3f, bundleFiles("v3"), false)
	l := newTestLoader(t, s3f, &fakeSSM{value: hash}, nil)
	mgr := NewManager()
	if err := l.LoadIntoManager(t.Context(), mgr); err != nil {
		t.Fatal(err)
	}
	if mgr.ContentHash() != hash || mgr.ContentVersion() != "v3" {
		t.Fatalf("manager = %q %q", mgr.ContentHash(), mgr.ContentVersion())
	}
}
