package redis

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/redis/rueidis"
	"github.com/redis/rueidis/mock"
	"go.uber.org/mock/gomock"

	"github.com/kailas-cloud/docqa/internal/db"
)

func newMockStore(t *testing.T) (*Store, *mock.Client) {
	t.Helper()
	c := mock.NewClient(gomock.NewController(t))
	return newStore(c), c
}

func ok() rueidis.RedisResult { return mock.Result(mock.RedisString("OK")) }

func TestNewStore_NoAddrs(t *testing.T) {
	if _, err := NewStore(Config{}); err == nil {
		t.Fatal("expected error for empty addrs")
	}
}

func TestPing(t *testing.T) {
	s, c := newMockStore(t)
	c.EXPECT().Do(gomock.Any(), mock.Match("PING")).Return(mock.Result(mock.RedisString("PONG")))
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}

	c.EXPECT().Do(gomock.Any(), mock.Match("PING")).Return(mock.ErrorResult(context.DeadlineExceeded))
	err := s.Ping(context.Background())
	var dbErr *db.Error
	if !errors.As(err, &dbErr) || dbErr.Op != db.OpPing || !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected PING db.Error, got %v", err)
	}
}

func TestWaitForReady_RecoversAfterFailures(t *testing.T) {
	s, c := newMockStore(t)
	gomock.InOrder(
		c.EXPECT().Do(gomock.Any(), mock.Match("PING")).Return(mock.ErrorResult(errors.New("LOADING"))).Times(2),
		c.EXPECT().Do(gomock.Any(), mock.Match("PING")).Return(mock.Result(mock.RedisString("PONG"))),
	)
	if err := s.WaitForReady(context.Background(), 5*time.Second); err != nil {
		t.Fatalf("WaitForReady: %v", err)
	}
}

func TestWaitForReady_Timeout(t *testing.T) {
	s, c := newMockStore(t)
	c.EXPECT().Do(gomock.Any(), mock.Match("PING")).
		Return(mock.ErrorResult(errors.New("connection refused"))).AnyTimes()

	err := s.WaitForReady(context.Background(), 250*time.Millisecond)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestGet(t *testing.T) {
	tests := []struct {
		name     string
		reply    rueidis.RedisResult
		want     string
		notFound bool
		dbErr    bool
	}{
		{"hit", mock.Result(mock.RedisBlobString("vec")), "vec", false, false},
		{"miss", mock.Result(mock.RedisNil()), "", true, false},
		{"network error", mock.ErrorResult(context.DeadlineExceeded), "", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, c := newMockStore(t)
			c.EXPECT().Do(gomock.Any(), mock.Match("GET", "docqa:k")).Return(tt.reply)

			data, err := s.Get(context.Background(), "docqa:k")
			if got := errors.Is(err, db.ErrKeyNotFound); got != tt.notFound {
				t.Errorf("ErrKeyNotFound = %v, want %v (%v)", got, tt.notFound, err)
			}
			var dbErr *db.Error
			if got := errors.As(err, &dbErr); got != tt.dbErr {
				t.Errorf("db.Error = %v, want %v (%v)", got, tt.dbErr, err)
			}
			if string(data) != tt.want {
				t.Errorf("data = %q, want %q", data, tt.want)
			}
		})
	}
}

func TestMGet(t *testing.T) {
	s, c := newMockStore(t)
	c.EXPECT().
		Do(gomock.Any(), mock.Match("MGET", "k1", "k2", "k3")).
		Return(mock.Result(mock.RedisArray(
			mock.RedisBlobString("a"),
			mock.RedisNil(),
			mock.RedisBlobString("c"),
		)))

	got, err := s.MGet(context.Background(), []string{"k1", "k2", "k3"})
	if err != nil {
		t.Fatalf("MGet: %v", err)
	}
	if len(got) != 3 || string(got[0]) != "a" || got[1] != nil || string(got[2]) != "c" {
		t.Errorf("unexpected values %q", got)
	}
}

func TestMGet_Empty(t *testing.T) {
	got, err := newStore(nil).MGet(context.Background(), nil)
	if err != nil || got != nil {
		t.Fatalf("expected nil, nil; got %v, %v", got, err)
	}
}

func TestMGet_ShortReply(t *testing.T) {
	s, c := newMockStore(t)
	c.EXPECT().Do(gomock.Any(), gomock.Any()).
		Return(mock.Result(mock.RedisArray(mock.RedisBlobString("a"))))

	if _, err := s.MGet(context.Background(), []string{"k1", "k2"}); err == nil {
		t.Fatal("expected error for short reply")
	}
}

func TestSetWithTTL(t *testing.T) {
	tests := []struct {
		name   string
		ttl    time.Duration
		wantEX bool
	}{
		{"with expiry", time.Hour, true},
		{"forever", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, c := newMockStore(t)
			c.EXPECT().
				Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
					return cmd[0] == "SET" && cmd[1] == "k" && cmd[2] == "v" && slices.Contains(cmd, "EX") == tt.wantEX
				})).
				Return(ok())
			if err := s.SetWithTTL(context.Background(), "k", []byte("v"), tt.ttl); err != nil {
				t.Fatalf("SetWithTTL: %v", err)
			}
		})
	}
}

func TestSetMultiWithTTL(t *testing.T) {
	s, c := newMockStore(t)
	c.EXPECT().
		DoMulti(gomock.Any(),
			mock.MatchFn(func(cmd []string) bool { return cmd[1] == "k1" && slices.Contains(cmd, "EX") }),
			mock.MatchFn(func(cmd []string) bool { return cmd[1] == "k2" && slices.Contains(cmd, "EX") }),
		).
		Return([]rueidis.RedisResult{ok(), ok()})

	err := s.SetMultiWithTTL(context.Background(), []db.KVItem{
		{Key: "k1", Value: []byte("v1")},
		{Key: "k2", Value: []byte("v2")},
	}, time.Hour)
	if err != nil {
		t.Fatalf("SetMultiWithTTL: %v", err)
	}
}

func TestSetMultiWithTTL_ReportsFailedKey(t *testing.T) {
	s, c := newMockStore(t)
	c.EXPECT().DoMulti(gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]rueidis.RedisResult{ok(), mock.ErrorResult(errors.New("OOM command not allowed"))})

	err := s.SetMultiWithTTL(context.Background(), []db.KVItem{
		{Key: "k1", Value: []byte("v1")},
		{Key: "k2", Value: []byte("v2")},
	}, time.Hour)
	var dbErr *db.Error
	if !errors.As(err, &dbErr) || dbErr.Key != "k2" {
		t.Fatalf("expected db.Error for k2, got %v", err)
	}
}

func TestSetMultiWithTTL_Empty(t *testing.T) {
	if err := newStore(nil).SetMultiWithTTL(context.Background(), nil, time.Hour); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestIncrByWithTTL(t *testing.T) {
	s, c := newMockStore(t)
	c.EXPECT().
		DoMulti(gomock.Any(),
			mock.Match("INCRBY", "docqa:budget:daily", "42"),
			mock.Match("EXPIRE", "docqa:budget:daily", "172800", "NX"),
		).
		Return([]rueidis.RedisResult{mock.Result(mock.RedisInt64(142)), mock.Result(mock.RedisInt64(0))})

	n, err := s.IncrByWithTTL(context.Background(), "docqa:budget:daily", 42, 48*time.Hour)
	if err != nil {
		t.Fatalf("IncrByWithTTL: %v", err)
	}
	if n != 142 {
		t.Errorf("counter = %d, want 142", n)
	}
}

func TestIncrByWithTTL_NoExpiry(t *testing.T) {
	s, c := newMockStore(t)
	c.EXPECT().
		DoMulti(gomock.Any(), mock.Match("INCRBY", "c", "1")).
		Return([]rueidis.RedisResult{mock.Result(mock.RedisInt64(1))})

	if _, err := s.IncrByWithTTL(context.Background(), "c", 1, 0); err != nil {
		t.Fatalf("IncrByWithTTL: %v", err)
	}
}

func TestIncrByWithTTL_Errors(t *testing.T) {
	s, c := newMockStore(t)
	c.EXPECT().DoMulti(gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]rueidis.RedisResult{mock.ErrorResult(errors.New("READONLY")), mock.Result(mock.RedisInt64(1))})
	if _, err := s.IncrByWithTTL(context.Background(), "c", 1, time.Hour); err == nil {
		t.Fatal("expected INCRBY error")
	}

	c.EXPECT().DoMulti(gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]rueidis.RedisResult{mock.Result(mock.RedisInt64(7)), mock.ErrorResult(errors.New("timeout"))})
	n, err := s.IncrByWithTTL(context.Background(), "c", 1, time.Hour)
	if err == nil {
		t.Fatal("expected EXPIRE error")
	}
	if n != 7 {
		t.Errorf("counter = %d, want 7 even when EXPIRE fails", n)
	}
}
