package cache

import (
	"testing"
	"time"
)

func TestSetGet(t *testing.T) {
	c := New()

	c.Set("k", 42, time.Minute)
	v, ok := c.Get("k")
	if !ok || v.(int) != 42 {
		t.Errorf("Get = %v, %v", v, ok)
	}

	if _, ok := c.Get("missing"); ok {
		t.Error("missing key reported present")
	}
	if c.Len() != 1 {
		t.Errorf("Len = %d, want 1", c.Len())
	}
}

func TestExpiry(t *testing.T) {
	c := New()
	c.Set("k", "v", time.Millisecond)
	time.Sleep(5 * time.Millisecond)

	if _, ok := c.Get("k"); ok {
		t.Error("expired entry served")
	}

	// cleanup physically removes the stale entry.
	c.cleanup()
	if c.Len() != 0 {
		t.Errorf("Len after cleanup = %d, want 0", c.Len())
	}
}

func TestKeyStableAndDistinct(t *testing.T) {
	if Key("embed", "text") != Key("embed", "text") {
		t.Error("same input produced different keys")
	}
	if Key("embed", "text") == Key("sentiment", "text") {
		t.Error("different operations share a key")
	}
	if Key("embed", "a") == Key("embed", "b") {
		t.Error("different texts share a key")
	}
}
