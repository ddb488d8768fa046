package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
)

type fakeBlobStore struct {
	objects map[string][]byte
	fail    bool
}

func (f *fakeBlobStore) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) (string, error) {
	if f.fail {
		return "", errors.New("boom")
	}
	b, _ := io.ReadAll(r)
	f.objects[key] = b
	return "http://blob/" + key, nil
}

func (f *fakeBlobStore) Delete(_ context.Context, url string) error {
	key := strings.TrimPrefix(url, "http://blob/")
	if _, ok := f.objects[key]; !ok {
		return errors.New("missing")
	}
	delete(f.objects, key)
	return nil
}

func TestUploadService(t *testing.T) {
	store := &fakeBlobStore{objects: map[string][]byte{}}
	svc := NewUploadService(store, zap.NewNop())
	svc.now = func() time.Time { return time.Unix(0, 42) }
	ctx := context.Background()

	url, err := svc.Upload(ctx, "../my photo.png", bytes.NewReader([]byte("png")), 3, "image/png")
	if err != nil {
		t.Fatal(err)
	}
	if url != "http://blob/questions/42-my_photo.png" {
		t.Fatalf("unexpected url %s", url)
	}

	_, err = svc.Upload(ctx, "a.txt", bytes.NewReader([]byte("x")), 1, "text/plain")
	expectKind(t, err, KindInvalidInput)
	_, err = svc.Upload(ctx, "big.png", bytes.NewReader(nil), maxUploadSize+1, "image/png")
	expectKind(t, err, KindInvalidInput)

	if err := svc.Remove(ctx, url); err != nil {
		t.Fatal(err)
	}
	expectKind(t, svc.Remove(ctx, url), KindInternal)

	store.fail = true
	_, err = svc.Upload(ctx, "a.png", bytes.NewReader([]byte("x")), 1, "image/png")
	expectKind(t, err, KindInternal)
}

func TestUploadServiceWithoutStore(t *testing.T) {
	svc := NewUploadService(nil, zap.NewNop())
	_, err := svc.Upload(context.Background(), "a.png", bytes.NewReader([]byte("x")), 1, "image/png")
	expectKind(t, err, KindInternal)
}
