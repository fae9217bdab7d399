package model

import (
	"encoding/json"
	"fmt"
	"math/big"
	"regexp"
	"strings"
)

var coinPattern = regexp.MustCompile(`^([0-9]+)([a-zA-Z][a-zA-Z0-9/:._-]{1,127})$`)

// Coin is a denom amount pair. Amount is a non-negative integer of arbitrary size.
type Coin struct {
	Denom  string
	Amount *big.Int
}

// NewCoin builds a coin from an int64 amount.
func NewCoin(denom string, amount int64) Coin {
	return Coin{Denom: denom, Amount: big.NewInt(amount)}
}

// ParseCoin parses the concatenated form used by the quote API, e.g. "1000000uosmo".
func ParseCoin(input string) (Coin, error) {
	input = strings.TrimSpace(input)
	matches := coinPattern.FindStringSubmatch(input)
	if matches == nil {
		return Coin{}, fmt.Errorf("invalid coin: %q", input)
	}
	amount, ok := new(big.Int).SetString(matches[1], 10)
	if !ok {
		return Coin{}, fmt.Errorf("invalid coin amount: %q", matches[1])
	}
	return Coin{Denom: matches[2], Amount: amount}, nil
}

// Validate enforces a non-empty denom and a non-negative amount.
func (c Coin) Validate() error {
	if c.Denom == "" {
		return fmt.Errorf("coin denom is empty")
	}
	if c.Amount == nil {
		return fmt.Errorf("coin %s amount is nil", c.Denom)
	}
	if c.Amount.Sign() < 0 {
		return fmt.Errorf("coin %s amount is negative: %s", c.Denom, c.Amount)
	}
	return nil
}

// String returns the concatenated amount+denom form.
func (c Coin) String() string {
	amount := "0"
	if c.Amount != nil {
		amount = c.Amount.String()
	}
	return amount + c.Denom
}

type coinJSON struct {
	Denom  string `json:"denom"`
	Amount string `json:"amount"`
}

// MarshalJSON encodes the amount as a decimal string.
func (c Coin) MarshalJSON() ([]byte, error) {
	amount := "0"
	if c.Amount != nil {
		amount = c.Amount.String()
	}
	return json.Marshal(coinJSON{Denom: c.Denom, Amount: amount})
}

// UnmarshalJSON requires both fields and rejects negative or non-integer amounts.
func (c *Coin) UnmarshalJSON(data []byte) error {
	fields, err := decodeObject(data)
	if err != nil {
		return err
	}
	denom, err := requireString(fields, "denom")
	if err != nil {
		return err
	}
	amount, err := requireUint(fields, "amount")
	if err != nil {
		return err
	}
	*c = Coin{Denom: denom, Amount: amount}
	return c.Validate()
}
