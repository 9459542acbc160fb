package database

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
)

func TestConnectRedis(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := ConnectRedis("redis://" + mr.Addr() + "/0")
	if err != nil {
		t.Fatalf("ConnectRedis() error = %v", err)
	}
	if err := DisconnectRedis(client); err != nil {
		t.Fatalf("DisconnectRedis() error = %v", err)
	}
}

func TestConnectRedisInvalidURI(t *testing.T) {
	if _, err := ConnectRedis("not a uri"); err == nil {
		t.Fatal("expected error for invalid URI")
	}
}

func TestDisconnectRedisNil(t *testing.T) {
	if err := DisconnectRedis(nil); err != nil {
		t.Fatalf("DisconnectRedis(nil) error = %v", err)
	}
}
