// Package ids generates record identifiers and the human-facing numbers the
// bank hands out (account numbers, customer ids, FD ids, transaction ids).
package ids

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"unicode"

	googleuuid "github.com/google/uuid"
)

const (
	accountNumberPrefix = "22710"
	fdPrefix            = "27191"
	ifscPrefix          = "ESAR"
	ifscSuffix          = "123"

	transactionIDAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	transactionIDLength   = 9

	// DefaultAttempts bounds the regenerate-on-collision loop in Unique.
	DefaultAttempts = 8
)

// New generates a time-ordered UUIDv7 suitable for primary keys.
func New() string {
	id, err := googleuuid.NewV7()
	if err != nil {
		return googleuuid.New().String()
	}
	return id.String()
}

// IsValid checks if a string is a valid UUID
func IsValid(s string) bool {
	_, err := googleuuid.Parse(s)
	return err == nil
}

// IFSC builds the branch code from the customer's city: ESAR, the first three
// letters of the city upper-cased, then 123.
func IFSC(city string) string {
	var b strings.Builder
	for _, r := range city {
		if b.Len() == 3 {
			break
		}
		if unicode.IsLetter(r) && r < unicode.MaxASCII {
			b.WriteRune(unicode.ToUpper(r))
		}
	}
	return ifscPrefix + b.String() + ifscSuffix
}

// AccountNumber returns 22710 followed by nine random digits.
func AccountNumber() string {
	return accountNumberPrefix + fmt.Sprintf("%09d", randomInt(1_000_000_000))
}

// CustomerID returns a random number below one billion, unpadded.
func CustomerID() string {
	return fmt.Sprintf("%d", randomInt(1_000_000_000))
}

// FDNumber returns 27191 followed by a five-digit number in [10000, 99999].
func FDNumber() string {
	return fdPrefix + fmt.Sprintf("%d", 10_000+randomInt(90_000))
}

// TransactionID returns nine random lowercase alphanumeric characters.
func TransactionID() string {
	buf := make([]byte, transactionIDLength)
	for i := range buf {
		buf[i] = transactionIDAlphabet[randomInt(int64(len(transactionIDAlphabet)))]
	}
	return string(buf)
}

// Unique calls generate until exists reports the candidate as unused, giving
// up after attempts tries. It returns ErrExhausted when every candidate collided.
func Unique(attempts int, generate func() string, exists func(candidate string) (bool, error)) (string, error) {
	for i := 0; i < attempts; i++ {
		candidate := generate()
		taken, err := exists(candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", ErrExhausted
}

// ErrExhausted is returned by Unique when no free identifier was found.
var ErrExhausted = errors.New("ids: no unused identifier after retries")

func randomInt(limit int64) int64 {
	n, err := rand.Int(rand.Reader, big.NewInt(limit))
	if err != nil {
		// crypto/rand only fails when the OS entropy source is unavailable.
		panic(fmt.Sprintf("ids: crypto/rand failed: %v", err))
	}
	return n.Int64()
}
