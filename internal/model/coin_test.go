package model

import (
	"encoding/json"
	"testing"
)

func TestParseCoin(t *testing.T) {
	coin, err := ParseCoin("1000000uosmo")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if coin.Denom != "uosmo" || coin.Amount.Int64() != 1000000 {
		t.Fatalf("coin mismatch: %+v", coin)
	}

	ibc := "ibc/498A0751C798A0D9A389AA3691123DADA57DAA4FE165D5C75894505B876BA6E4"
	coin, err = ParseCoin("123456789012345678901234567890" + ibc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if coin.Denom != ibc || coin.Amount.String() != "123456789012345678901234567890" {
		t.Fatalf("coin mismatch: %s", coin)
	}
	if coin.String() != "123456789012345678901234567890"+ibc {
		t.Fatalf("string mismatch: %s", coin)
	}
}

func TestParseCoinInvalid(t *testing.T) {
	for _, input := range []string{"", "uosmo", "1000", "-5uosmo", "10 uosmo", "1.5uosmo"} {
		if _, err := ParseCoin(input); err == nil {
			t.Fatalf("expected error for %q", input)
		}
	}
}

func TestCoinJSON(t *testing.T) {
	var coin Coin
	if err := json.Unmarshal([]byte(`{"denom":"uosmo","amount":"42"}`), &coin); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if coin.String() != "42uosmo" {
		t.Fatalf("coin mismatch: %s", coin)
	}

	for _, body := range []string{
		`{"denom":"uosmo"}`,
		`{"denom":"uosmo","amount":42}`,
		`{"denom":"uosmo","amount":"-1"}`,
		`{"denom":"","amount":"1"}`,
		`null`,
	} {
		if err := json.Unmarshal([]byte(body), &coin); err == nil {
			t.Fatalf("expected error for %s", body)
		}
	}
}
