package vault

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/rgarciadev/atelier-backend/pkg/config"
	"github.com/rgarciadev/atelier-backend/pkg/db/models"
	"github.com/rgarciadev/atelier-backend/pkg/enums"
	pkgerrors "github.com/rgarciadev/atelier-backend/pkg/errors"
)

const (
	// Luhn-valid test numbers
	testNumber     = "4242424242424242"
	testNumberAlt  = "4111111111111111"
	testExpiry     = "12/39"
	testCVC        = "123"
	testBankCVC    = "500" // expectedCVC(testNumber)
	testBankCVCAlt = "239" // expectedCVC(testNumberAlt)
)

func testVaultConfig() config.VaultConfig {
	return config.VaultConfig{
		// base64 of a fixed 32-byte key; test material only
		EncryptionKey:    "MDEyMzQ1Njc4OWFiY2RlZjAxMjM0NTY3ODlhYmNkZWY=",
		ArgonMemoryKB:    8,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     8,
		ArgonKeyLen:      16,
	}
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:vault_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.PaymentCard{}); err != nil {
		t.Fatalf("migrate payment_cards: %v", err)
	}
	return db
}

func newTestService(t *testing.T, db *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(NewRepository(db), testVaultConfig(), NewSimulatedAuthorizer())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func debitCard(number, cvc string) CardInput {
	return CardInput{Number: number, Expiry: testExpiry, CVC: cvc, Type: enums.CardTypeDebit}
}

func TestLuhn(t *testing.T) {
	t.Parallel()

	for _, number := range []string{testNumber, testNumberAlt, "79927398713"} {
		if !luhnValid(number) {
			t.Errorf("expected %s to pass", number)
		}
	}
	for _, number := range []string{"4242424242424241", "79927398710", "", "4242abcd42424242"} {
		if luhnValid(number) {
			t.Errorf("expected %s to fail", number)
		}
	}
}

func TestTokenizeAndVerifySavedCard(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	svc := newTestService(t, db)
	userID := uuid.New()

	masked, err := svc.TokenizeAndStore(ctx, userID, debitCard(testNumber, testCVC))
	if err != nil {
		t.Fatalf("tokenize: %v", err)
	}
	if masked.Last4 != "4242" || !strings.HasSuffix(masked.MaskedNumber, "4242") {
		t.Fatalf("unexpected masked card: %+v", masked)
	}
	if strings.Contains(masked.MaskedNumber, testNumber) {
		t.Fatal("masked number leaks full number")
	}

	card, err := svc.VerifySavedCard(ctx, userID, testCVC)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if card.Number != testNumber || card.Expiry != testExpiry || card.Last4 != "4242" {
		t.Fatalf("unexpected verified card: %+v", card)
	}
}

func TestVerifySavedCardWrongCVC(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	svc := newTestService(t, db)
	userID := uuid.New()

	if _, err := svc.TokenizeAndStore(ctx, userID, debitCard(testNumber, testCVC)); err != nil {
		t.Fatalf("tokenize: %v", err)
	}

	_, err := svc.VerifySavedCard(ctx, userID, "999")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodePaymentDeclined {
		t.Fatalf("expected payment declined, got %v", err)
	}
	if strings.Contains(typed.Message(), testCVC) {
		t.Fatal("error message leaks stored cvc")
	}
}

func TestVerifySavedCardLegacyRecord(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	svc := newTestService(t, db)
	userID := uuid.New()

	if _, err := svc.TokenizeAndStore(ctx, userID, debitCard(testNumber, testCVC)); err != nil {
		t.Fatalf("tokenize: %v", err)
	}
	// simulate a record vaulted before digests were recorded
	err := db.Model(&models.PaymentCard{}).
		Where("user_id = ?", userID).
		Updates(map[string]any{"cvc_hash": "", "cvc_salt": ""}).Error
	if err != nil {
		t.Fatalf("strip digest: %v", err)
	}

	_, err = svc.VerifySavedCard(ctx, userID, testCVC)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodePaymentDeclined {
		t.Fatalf("expected payment declined for legacy record, got %v", err)
	}
}

func TestTokenizeStoresNoPlaintext(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	svc := newTestService(t, db)
	userID := uuid.New()

	if _, err := svc.TokenizeAndStore(ctx, userID, debitCard(testNumber, testCVC)); err != nil {
		t.Fatalf("tokenize: %v", err)
	}

	var record models.PaymentCard
	if err := db.First(&record, "user_id = ?", userID).Error; err != nil {
		t.Fatalf("load record: %v", err)
	}

	for _, sealed := range []string{
		record.Segment1Encrypted, record.Segment2Encrypted,
		record.Segment3Encrypted, record.Segment4Encrypted,
	} {
		if strings.Contains(sealed, "4242") {
			t.Fatal("segment ciphertext contains plaintext digits")
		}
	}
	// all four segments hold "4242"; fresh nonces must still give distinct
	// ciphertexts
	if record.Segment1Encrypted == record.Segment2Encrypted {
		t.Fatal("identical segments produced identical ciphertext")
	}
	if record.CVCHash == testCVC || record.CVCHash == "" {
		t.Fatalf("unexpected cvc digest %q", record.CVCHash)
	}
	if record.ExpiryEncrypted == testExpiry {
		t.Fatal("expiry stored in plaintext")
	}
	if record.Last4Plain != "4242" {
		t.Fatalf("unexpected last4 %q", record.Last4Plain)
	}
}

func TestTokenizeOverwritesExistingCard(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	svc := newTestService(t, db)
	userID := uuid.New()

	if _, err := svc.TokenizeAndStore(ctx, userID, debitCard(testNumber, testCVC)); err != nil {
		t.Fatalf("first tokenize: %v", err)
	}
	if _, err := svc.TokenizeAndStore(ctx, userID, debitCard(testNumberAlt, "777")); err != nil {
		t.Fatalf("second tokenize: %v", err)
	}

	var count int64
	if err := db.Model(&models.PaymentCard{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		t.Fatalf("count cards: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected one card per user, got %d", count)
	}

	card, err := svc.VerifySavedCard(ctx, userID, "777")
	if err != nil {
		t.Fatalf("verify replacement: %v", err)
	}
	if card.Number != testNumberAlt {
		t.Fatalf("expected replacement card, got %s ending", card.Last4)
	}
}

func TestTokenizeValidation(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	svc := newTestService(t, db)

	cases := []struct {
		name string
		card CardInput
	}{
		{"short number", debitCard("4242", testCVC)},
		{"bad checksum", debitCard("4242424242424241", testCVC)},
		{"bad expiry", CardInput{Number: testNumber, Expiry: "13/39", CVC: testCVC, Type: enums.CardTypeDebit}},
		{"expired", CardInput{Number: testNumber, Expiry: "01/20", CVC: testCVC, Type: enums.CardTypeDebit}},
		{"bad cvc", debitCard(testNumber, "12")},
		{"bad type", CardInput{Number: testNumber, Expiry: testExpiry, CVC: testCVC, Type: enums.CardType("AMEX")}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.TokenizeAndStore(ctx, uuid.New(), tc.card)
			if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestAuthorizeOneTime(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	svc := newTestService(t, db)

	result, err := svc.AuthorizeOneTime(ctx, debitCard(testNumber, testBankCVC))
	if err != nil {
		t.Fatalf("authorize: %v", err)
	}
	if result.Last4 != "4242" {
		t.Fatalf("unexpected last4 %q", result.Last4)
	}
	if !strings.HasPrefix(result.TransactionID, "SIM-") {
		t.Fatalf("unexpected transaction id %q", result.TransactionID)
	}

	result, err = svc.AuthorizeOneTime(ctx, debitCard(testNumberAlt, testBankCVCAlt))
	if err != nil {
		t.Fatalf("authorize alt: %v", err)
	}
	if result.Last4 != "1111" {
		t.Fatalf("unexpected last4 %q", result.Last4)
	}
}

func TestAuthorizeOneTimeDeclined(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	svc := newTestService(t, db)

	_, err := svc.AuthorizeOneTime(ctx, debitCard(testNumber, "000"))
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodePaymentDeclined {
		t.Fatalf("expected decline, got %v", err)
	}
	if strings.Contains(typed.Message(), testBankCVC) {
		t.Fatal("decline message leaks expected cvc")
	}
}

func TestAuthorizeOneTimeRejectsCredit(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	svc := newTestService(t, db)

	card := debitCard(testNumber, testBankCVC)
	card.Type = enums.CardTypeCredit

	_, err := svc.AuthorizeOneTime(ctx, card)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodePaymentDeclined {
		t.Fatalf("expected decline for credit card, got %v", err)
	}
}

func TestExpectedCVCDeterministic(t *testing.T) {
	t.Parallel()

	if got := expectedCVC(testNumber); got != testBankCVC {
		t.Fatalf("expected %s, got %s", testBankCVC, got)
	}
	if got := expectedCVC(testNumberAlt); got != testBankCVCAlt {
		t.Fatalf("expected %s, got %s", testBankCVCAlt, got)
	}
	if len(expectedCVC("0000000000000000")) != 3 {
		t.Fatal("expected three digit cvc")
	}
}
