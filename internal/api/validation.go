package api

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"token-presale-go/internal/models"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

var ErrInvalidRequest = errors.New("invalid request")

// Amounts are stored as NUMERIC(38,18) on Postgres; anything finer would be rounded per row.
const (
	usdDecimalPlaces   = 2
	tokenDecimalPlaces = 18
)

var (
	emailRegex        = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	referralCodeRegex = regexp.MustCompile(`^[a-zA-Z0-9_\-]{1,64}$`)
)

// NormalizeWalletAddress validates a 0x-prefixed 20-byte hex address and lowercases it for storage
func NormalizeWalletAddress(address string) (string, error) {
	address = strings.TrimSpace(address)
	if len(address) < 2 || address[0] != '0' || (address[1] != 'x' && address[1] != 'X') || !common.IsHexAddress(address) {
		return "", fmt.Errorf("%w: wallet address must be 0x followed by 40 hex characters", ErrInvalidRequest)
	}
	return strings.ToLower(address), nil
}

// ChecksumAddress renders an address in EIP-55 mixed case
func ChecksumAddress(address string) string {
	return common.HexToAddress(address).Hex()
}

// hasAtMostPlaces reports whether amount needs no more than places fractional digits
func hasAtMostPlaces(amount decimal.Decimal, places int32) bool {
	return amount.Equal(amount.Truncate(places))
}

func normalizeReferralCode(code string) (string, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return "", nil
	}
	if !referralCodeRegex.MatchString(code) {
		return "", fmt.Errorf("%w: referral code must be 1-64 letters, digits, '-' or '_'", ErrInvalidRequest)
	}
	return strings.ToUpper(code), nil
}

type validPurchase struct {
	wallet       string
	method       models.PaymentMethod
	amount       decimal.Decimal
	email        string
	referralCode string
}

func validatePurchaseRequest(req models.PurchaseRequest) (*validPurchase, error) {
	wallet, err := NormalizeWalletAddress(req.WalletAddress)
	if err != nil {
		return nil, err
	}

	method, ok := models.ParsePaymentMethod(req.PaymentMethod)
	if !ok {
		return nil, fmt.Errorf("%w: unsupported payment method %q", ErrInvalidRequest, req.PaymentMethod)
	}

	if !req.AmountUSD.IsPositive() {
		return nil, fmt.Errorf("%w: amountUSD must be greater than 0", ErrInvalidRequest)
	}
	if !hasAtMostPlaces(req.AmountUSD, usdDecimalPlaces) {
		return nil, fmt.Errorf("%w: amountUSD must have at most %d decimal places", ErrInvalidRequest, usdDecimalPlaces)
	}

	email := strings.TrimSpace(req.Email)
	if !emailRegex.MatchString(email) {
		return nil, fmt.Errorf("%w: invalid email format", ErrInvalidRequest)
	}

	code, err := normalizeReferralCode(req.ReferralCode)
	if err != nil {
		return nil, err
	}

	return &validPurchase{
		wallet:       wallet,
		method:       method,
		amount:       req.AmountUSD,
		email:        strings.ToLower(email),
		referralCode: code,
	}, nil
}
