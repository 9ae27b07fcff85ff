package content

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"testing"
	"testing/fstest"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"

	"github.com/keithlinneman/celestialexplorer-web/internal/cryptoutil"
)

const (
	testSSMParam = "/app/celestialexplorer-web/content/test/bundle-hash"
	testBucket   = "test-bundles"
	testPrefix   = "content/bundles"
)

// bundleFiles returns a valid three-section bundle for version.
func bundleFiles(version string) map[string]string {
	return map[string]string{
		"manifest.json": fmt.Sprintf(`{
  "version": %q,
  "sections": [
    {"id": "celestial-bodies", "title": "Celestial Bodies", "file": "sections/celestial-bodies.md"},
    {"id": "exploration", "title": "Exploration", "file": "sections/exploration.md"},
    {"id": "cosmos", "title": "Cosmos", "file": "sections/cosmos.md"}
  ]
}`, version),
		"sections/celestial-bodies.md": "Mars has two moons, *Phobos* and *Deimos*.\n",
		"sections/exploration.md":      "Voyager 1 left the heliosphere in 2012.\n",
		"sections/cosmos.md":           "The observable universe spans about 93 billion light-years.\n",
	}
}

func mapFS(files map[string]string) fstest.MapFS {
	m := make(fstest.MapFS, len(files))
	for name, body := range files {
		m[name] = &fstest.MapFile{Data: []byte(body), Mode: 0o644}
	}
	return m
}

// makeTarGz packs files in sorted order with a leading "./" like tar -C dir.
func makeTarGz(t *testing.T, files map[string]string) []byte {
	t.Helper()
	names := make([]string, 0, len(files))
	for n := range files {
		names = append(names, n)
	}
	sort.Strings(names)

	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gw)
	if err := tw.WriteHeader(&tar.Header{Name: "./", Typeflag: tar.TypeDir, Mode: 0o755}); err != nil {
		t.Fatal(err)
	}
	for _, n := range names {
		body := files[n]
		hdr := &tar.Header{Name: "./" + n, Typeflag: tar.TypeReg, Mode: 0o644, Size: int64(len(body))}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatal(err)
		}
		if _, err := tw.Write([]byte(body)); err != nil {
			t.Fatal(err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := gw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// makeTarGzHeaders packs raw headers, for malformed archive tests.
func makeTarGzHeaders(t *testing.T, hdrs ...*tar.Header) []byte {
	t.Helper()
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gw)
	for _, h := range hdrs {
		if err := tw.WriteHeader(h); err != nil {
			t.Fatal(err)
		}
		if h.Typeflag == tar.TypeReg && h.Size > 0 {
			if _, err := tw.Write(bytes.Repeat([]byte("x"), int(h.Size))); err != nil {
				t.Fatal(err)
			}
		}
	}
	_ = tw.Close()
	_ = gw.Close()
	return buf.Bytes()
}

// ---------------------------------------------------------------------------
// AWS fakes
// ---------------------------------------------------------------------------

type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	gets    []string
}

func newFakeS3() *fakeS3 { return &fakeS3{objects: make(map[string][]byte)} }

func (f *fakeS3) put(key string, data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = data
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := aws.ToString(in.Key)
	f.gets = append(f.gets, key)
	if aws.ToString(in.Bucket) != testBucket {
		return nil, fmt.Errorf("NoSuchBucket: %s", aws.ToString(in.Bucket))
	}
	data, ok := f.objects[key]
	if !ok {
		return nil, fmt.Errorf("NoSuchKey: %s", key)
	}
	return &s3.GetObjectOutput{
		Body:          io.NopCloser(bytes.NewReader(data)),
		ContentLength: aws.Int64(int64(len(data))),
	}, nil
}

type fakeSSM struct {
	mu    sync.Mutex
	value string
	err   error
	calls int
}

func (f *fakeSSM) set(value string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.value, f.err = value, err
}

func (f *fakeSSM) GetParameter(_ context.Context, in *ssm.GetParameterInput, _ ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if aws.ToString(in.Name) != testSSMParam {
		return nil, errors.New("ParameterNotFound")
	}
	return &ssm.GetParameterOutput{Parameter: &ssmtypes.Parameter{Value: aws.String(f.value)}}, nil
}

// fakeVerifier accepts a signature equal to "sig:" + sha256(artifact).
type fakeVerifier struct{ calls int }

func (f *fakeVerifier) VerifyBlob(_ context.Context, sig, artifact []byte) error {
	f.calls++
	if string(sig) != "sig:"+cryptoutil.SHA256Hex(artifact) {
		return errors.New("signature mismatch")
	}
	return nil
}

func fakeSign(data []byte) []byte { return []byte("sig:" + cryptoutil.SHA256Hex(data)) }

// publish stores a bundle (and optionally its signature) and returns its hash.
func publish(t *testing.T, s3f *fakeS3, files map[string]string, signed bool) string {
	t.Helper()
	data := makeTarGz(t, files)
	hash := cryptoutil.SHA256Hex(data)
	key := testPrefix + "/" + hash + ".tar.gz"
	s3f.put(key, data)
	if signed {
		s3f.put(key+".sig", fakeSign(data))
	}
	return hash
}

func newTestLoader(t *testing.T, s3f *fakeS3, ssmf *fakeSSM, v BlobVerifier) *Loader {
	t.Helper()
	l, err := NewLoader(LoaderOptions{
		SSMParam: testSSMParam,
		S3Bucket: testBucket,
		S3Prefix: testPrefix,
		SSM:      ssmf,
		S3:       s3f,
		Verifier: v,
	})
	if err != nil {
		t.Fatalf("NewLoader: %v", err)
	}
	return l
}
