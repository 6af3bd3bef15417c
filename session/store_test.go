package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type failingStorage struct {
	getErr error
}

func (f failingStorage) Get(context.Context, string) ([]byte, error) { return nil, f.getErr }
func (f failingStorage) Set(context.Context, string, []byte) error   { return ErrStorageUnavailable }
func (f failingStorage) Delete(context.Context, string) error        { return ErrStorageUnavailable }

func newRedisStorageTest(t *testing.T) (*RedisStorage, *miniredis.Miniredis, func()) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewRedisStorage(rdb, "af", time.Hour), mr, func() {
		rdb.Close()
		mr.Close()
	}
}

func testPair() TokenPair {
	return TokenPair{
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		ExpiresIn:    3600,
		IssuedAtMs:   1739450831139,
	}
}

func TestLoadReturnsSentinelForBadRecords(t *testing.T) {
	ctx := context.Background()
	cases := map[string][]byte{
		"invalid json": []byte("invalid-json"),
		"empty":        []byte(""),
		"array":        []byte("[1,2]"),
		"wrong types":  []byte(`{"accessToken":1}`),
		"truncated":    []byte(`{"accessToken":"a"`),
		"negative":     []byte(`{"expiresIn":-5}`),
	}

	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			mem := NewMemoryStorage()
			if err := mem.Set(ctx, DefaultKey, raw); err != nil {
				t.Fatalf("seed: %v", err)
			}
			got := NewStore(mem, "", nil).Load(ctx)
			if got != Sentinel() {
				t.Fatalf("expected sentinel, got %+v", got)
			}
		})
	}
}

func TestLoadReturnsSentinelWhenAbsentOrUnavailable(t *testing.T) {
	ctx := context.Background()

	if got := NewStore(NewMemoryStorage(), "", nil).Load(ctx); !got.IsSentinel() {
		t.Fatalf("absent record: expected sentinel, got %+v", got)
	}
	if got := NewStore(nil, "", nil).Load(ctx); !got.IsSentinel() {
		t.Fatalf("nil storage: expected sentinel, got %+v", got)
	}
	if got := NewStore(failingStorage{getErr: errors.New("boom")}, "", nil).Load(ctx); !got.IsSentinel() {
		t.Fatalf("failing storage: expected sentinel, got %+v", got)
	}
	var nilStore *Store
	if got := nilStore.Load(ctx); !got.IsSentinel() {
		t.Fatalf("nil store: expected sentinel, got %+v", got)
	}
}

func TestStoreRoundTripAndClear(t *testing.T) {
	ctx := context.Background()
	store := NewStore(NewMemoryStorage(), "", nil)
	pair := testPair()

	if err := store.Save(ctx, pair); err != nil {
		t.Fatalf("save: %v", err)
	}
	if got := store.Load(ctx); got != pair {
		t.Fatalf("round trip mismatch: got %+v want %+v", got, pair)
	}
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if got := store.Load(ctx); !got.IsSentinel() {
		t.Fatalf("expected sentinel after clear, got %+v", got)
	}
}

func TestRecordLayoutUsesWireFieldNames(t *testing.T) {
	ctx := context.Background()
	mem := NewMemoryStorage()
	store := NewStore(mem, "", nil)
	if err := store.Save(ctx, testPair()); err != nil {
		t.Fatalf("save: %v", err)
	}

	raw, err := mem.Get(ctx, "auth_tokens")
	if err != nil {
		t.Fatalf("expected record under auth_tokens: %v", err)
	}
	want := `{"accessToken":"access-1","refreshToken":"refresh-1","expiresIn":3600,"issuedAtMs":1739450831139}`
	if string(raw) != want {
		t.Fatalf("unexpected layout:\n got %s\nwant %s", raw, want)
	}
}

func TestRedisStorageRoundTrip(t *testing.T) {
	storage, mr, done := newRedisStorageTest(t)
	defer done()
	ctx := context.Background()
	store := NewStore(storage, "", nil)

	if err := store.Save(ctx, testPair()); err != nil {
		t.Fatalf("save: %v", err)
	}
	if !mr.Exists("af:auth_tokens") {
		t.Fatal("expected prefixed redis key")
	}
	if ttl := mr.TTL("af:auth_tokens"); ttl != time.Hour {
		t.Fatalf("expected 1h ttl, got %v", ttl)
	}
	if got := store.Load(ctx); got != testPair() {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if got := store.Load(ctx); !got.IsSentinel() {
		t.Fatalf("expected sentinel after clear, got %+v", got)
	}
}

func TestRedisStorageUnavailableFailsClosed(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer rdb.Close()
	storage := NewRedisStorage(rdb, "af", 0)
	ctx := context.Background()
	store := NewStore(storage, "", nil)

	if err := store.Save(ctx, testPair()); err != nil {
		t.Fatalf("save: %v", err)
	}
	mr.Close()

	if got := store.Load(ctx); !got.IsSentinel() {
		t.Fatalf("expected sentinel with redis down, got %+v", got)
	}
	if err := store.Save(ctx, testPair()); !errors.Is(err, ErrStorageUnavailable) {
		t.Fatalf("expected ErrStorageUnavailable, got %v", err)
	}
}

func TestFileStorageAtomicReplace(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	fs, err := NewFileStorage(dir, nil)
	if err != nil {
		t.Fatalf("new file storage: %v", err)
	}
	store := NewStore(fs, "", nil)

	first := testPair()
	second := first
	second.AccessToken = "access-2"

	if err := store.Save(ctx, first); err != nil {
		t.Fatalf("save first: %v", err)
	}
	if err := store.Save(ctx, second); err != nil {
		t.Fatalf("save second: %v", err)
	}
	if got := store.Load(ctx); got != second {
		t.Fatalf("expected second pair, got %+v", got)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "auth_tokens.json" {
		t.Fatalf("expected only the record file, got %v", entries)
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("second clear should be a no-op: %v", err)
	}
}

func TestFileStorageSealedAtRest(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	sealer, err := NewSealer("correct horse battery staple")
	if err != nil {
		t.Fatalf("new sealer: %v", err)
	}
	fs, err := NewFileStorage(dir, sealer)
	if err != nil {
		t.Fatalf("new file storage: %v", err)
	}
	store := NewStore(fs, "", nil)
	if err := store.Save(ctx, testPair()); err != nil {
		t.Fatalf("save: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, "auth_tokens.json"))
	if err != nil {
		t.Fatalf("read record: %v", err)
	}
	if len(raw) == 0 || raw[0] != sealVersion {
		t.Fatal("expected sealed record header")
	}
	if got := store.Load(ctx); got != testPair() {
		t.Fatalf("sealed round trip mismatch: %+v", got)
	}

	other, _ := NewSealer("another passphrase")
	otherFS, _ := NewFileStorage(dir, other)
	if got := NewStore(otherFS, "", nil).Load(ctx); !got.IsSentinel() {
		t.Fatalf("wrong passphrase must fail closed, got %+v", got)
	}
}

func TestSealerRejectsTamperedRecord(t *testing.T) {
	sealer, err := NewSealer("pw")
	if err != nil {
		t.Fatalf("new sealer: %v", err)
	}
	sealed, err := sealer.Seal([]byte("payload"))
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	sealed[len(sealed)-1] ^= 0xFF
	if _, err := sealer.Open(sealed); !errors.Is(err, ErrSealedRecord) {
		t.Fatalf("expected ErrSealedRecord, got %v", err)
	}
	if _, err := sealer.Open([]byte{1, 2, 3}); !errors.Is(err, ErrSealedRecord) {
		t.Fatalf("expected ErrSealedRecord for short input, got %v", err)
	}
	if _, err := NewSealer(""); err == nil {
		t.Fatal("expected empty passphrase to be rejected")
	}
}

func TestTokenPairExpiry(t *testing.T) {
	pair := testPair()
	exp, ok := pair.ExpiresAt()
	if !ok {
		t.Fatal("expected expiry")
	}
	if exp.UnixMilli() != pair.IssuedAtMs+3600*1000 {
		t.Fatalf("unexpected expiry %v", exp)
	}
	if pair.Expired(exp.Add(-time.Minute), 0) {
		t.Fatal("should not be expired a minute before expiry")
	}
	if !pair.Expired(exp.Add(-time.Minute), 2*time.Minute) {
		t.Fatal("skew should treat the pair as expired")
	}
	if Sentinel().Expired(time.Now(), 0) {
		t.Fatal("sentinel has no expiry")
	}
}

func TestWithRefreshedKeepsRefreshTokenUnlessReplaced(t *testing.T) {
	now := time.UnixMilli(1739460000000)
	pair := testPair()

	kept := pair.WithRefreshed("access-2", 1800, "", now)
	if kept.RefreshToken != "refresh-1" || kept.AccessToken != "access-2" || kept.ExpiresIn != 1800 {
		t.Fatalf("unexpected merge: %+v", kept)
	}
	if kept.IssuedAtMs != now.UnixMilli() {
		t.Fatalf("expected issuedAtMs reset, got %d", kept.IssuedAtMs)
	}

	rotated := pair.WithRefreshed("access-3", 1800, "refresh-2", now)
	if rotated.RefreshToken != "refresh-2" {
		t.Fatalf("expected rotated refresh token, got %q", rotated.RefreshToken)
	}
	if pair.AccessToken != "access-1" {
		t.Fatal("original pair must not change")
	}
}
