package analysis_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"docintake/internal/analysis"
	"docintake/internal/domain"
)

func typePtr(t domain.DocumentType) *domain.DocumentType { return &t }

func TestClassify_CreditCardSameLine(t *testing.T) {
	c := analysis.NewClassifier()
	got := c.Classify("VISA 4111 1111 1111 1111 VALID THRU 12/29", nil, nil, domain.DocumentTypeGeneric)
	assert.Equal(t, domain.DocumentTypeCreditCard, got)
}

func TestClassify_CreditCardDigitsSplitAcrossLines(t *testing.T) {
	c := analysis.NewClassifier()
	got := c.Classify("4111\n1111\n1111\n1111\nVALID THRU 12/29", nil, nil, domain.DocumentTypeGeneric)
	assert.Equal(t, domain.DocumentTypeCreditCard, got)
}

func TestClassify_CreditCardDashedNumber(t *testing.T) {
	c := analysis.NewClassifier()
	got := c.Classify("Card 5567-5091-1310-9460\nExp 10/30", nil, nil, domain.DocumentTypeGeneric)
	assert.Equal(t, domain.DocumentTypeCreditCard, got)
}

func TestClassify_CreditCardLuhnWithIssuerNoExpiry(t *testing.T) {
	c := analysis.NewClassifier()
	res := c.ClassifyDetailed("Mastercard\n5567 5091 1310 9460\nJAY ZENG", nil, nil, domain.DocumentTypeGeneric)
	assert.Equal(t, domain.DocumentTypeCreditCard, res.Type)
	assert.Equal(t, 0.9, res.Confidence)
	assert.Contains(t, res.Signals, "card_number_luhn")
	assert.Contains(t, res.Signals, "card_issuer")
}

func TestClassify_DigitsInsideAlphanumericTokenAreNotACard(t *testing.T) {
	c := analysis.NewClassifier()
	got := c.Classify("REF U1216553C4111111111111111X issued 12/29", nil, nil, domain.DocumentTypeGeneric)
	assert.Equal(t, domain.DocumentTypeGeneric, got)
}

func TestClassify_GiftCardWithoutNetworkIsNotCreditCard(t *testing.T) {
	c := analysis.NewClassifier()
	got := c.Classify("STARBUCKS GIFT CARD\n6061 2222 3333 4444 5\nEXP 12/29", nil, nil, domain.DocumentTypeGeneric)
	assert.NotEqual(t, domain.DocumentTypeCreditCard, got)
}

func TestClassify_InsuranceCard(t *testing.T) {
	c := analysis.NewClassifier()

	res := c.ClassifyDetailed("Blue Cross PPO\nMember ID: XYZ123456789\nGroup Number: 10045", nil, nil, domain.DocumentTypeGeneric)
	assert.Equal(t, domain.DocumentTypeInsuranceCard, res.Type)
	assert.Equal(t, 0.85, res.Confidence)

	res = c.ClassifyDetailed("Some plan\nRxBIN 610014", nil, nil, domain.DocumentTypeGeneric)
	assert.Equal(t, domain.DocumentTypeInsuranceCard, res.Type)
	assert.Equal(t, 0.95, res.Confidence)
}

func TestClassify_InsuranceAntiPattern(t *testing.T) {
	c := analysis.NewClassifier()
	got := c.Classify("Explanation of Benefits\nMember ID: XYZ123456789\nThis is not a bill", nil, nil, domain.DocumentTypeGeneric)
	assert.NotEqual(t, domain.DocumentTypeInsuranceCard, got)
}

func TestClassify_BillStatement(t *testing.T) {
	c := analysis.NewClassifier()
	got := c.Classify("City Power\nAmount Due: $84.20\nDue Date: 11/15/2026", nil, nil, domain.DocumentTypeGeneric)
	assert.Equal(t, domain.DocumentTypeBillStatement, got)

	res := c.ClassifyDetailed("BILLING STATEMENT\nStatement Date 10/01/2026", nil, nil, domain.DocumentTypeGeneric)
	assert.Equal(t, domain.DocumentTypeBillStatement, res.Type)
	assert.Equal(t, 0.9, res.Confidence)
}

func TestClassify_AmountDueAloneIsNotABill(t *testing.T) {
	c := analysis.NewClassifier()
	got := c.Classify("Amount due $0.00", nil, nil, domain.DocumentTypeGeneric)
	assert.Equal(t, domain.DocumentTypeGeneric, got)
}

func TestClassify_Receipt(t *testing.T) {
	c := analysis.NewClassifier()
	res := c.ClassifyDetailed("CORNER MARKET\nReceipt #A1234\nTotal $12.99\nPaid with VISA", nil, nil, domain.DocumentTypeGeneric)
	assert.Equal(t, domain.DocumentTypeReceipt, res.Type)
	assert.Equal(t, 0.95, res.Confidence)
}

func TestClassify_PromotionalSuppressesReceiptAndLetter(t *testing.T) {
	c := analysis.NewClassifier()
	promo := "Dear customer,\nEarn a bonus when you sign up today! Limited time offer.\nSincerely, the team\nReceipt #A1234 paid with cash"
	res := c.ClassifyDetailed(promo, nil, nil, domain.DocumentTypeGeneric)
	assert.Equal(t, domain.DocumentTypeGeneric, res.Type)
	assert.Contains(t, res.Signals, "promotional")
}

func TestClassify_Letter(t *testing.T) {
	c := analysis.NewClassifier()
	got := c.Classify("Dear Ms. Smith,\nThank you for the update on the project.\nSincerely,\nTom", nil, nil, domain.DocumentTypeGeneric)
	assert.Equal(t, domain.DocumentTypeLetter, got)
}

func TestClassify_IDCard(t *testing.T) {
	c := analysis.NewClassifier()
	got := c.Classify("CALIFORNIA DRIVER LICENSE\nDL D1234567\nDOB 01/02/1990\nSEX M", nil, nil, domain.DocumentTypeGeneric)
	assert.Equal(t, domain.DocumentTypeIDCard, got)
}

func TestClassify_HintUsedOnlyWhenNoRuleFires(t *testing.T) {
	c := analysis.NewClassifier()

	got := c.Classify("nothing recognizable here", nil, typePtr(domain.DocumentTypeReceipt), domain.DocumentTypeGeneric)
	assert.Equal(t, domain.DocumentTypeReceipt, got)

	got = c.Classify("VISA 4111 1111 1111 1111 VALID THRU 12/29", nil, typePtr(domain.DocumentTypeGeneric), domain.DocumentTypeGeneric)
	assert.Equal(t, domain.DocumentTypeCreditCard, got)
}

func TestClassify_DefaultTypeWhenNothingFires(t *testing.T) {
	c := analysis.NewClassifier()

	res := c.ClassifyDetailed("", nil, nil, domain.DocumentTypeLetter)
	assert.Equal(t, domain.DocumentTypeLetter, res.Type)
	assert.Equal(t, 0.3, res.Confidence)
	assert.NotNil(t, res.Signals)

	got := c.Classify("\x00\x01 garbage ))((", nil, nil, domain.DocumentType("bogus"))
	assert.Equal(t, domain.DocumentTypeGeneric, got)
}

func TestClassify_UsesKnownFields(t *testing.T) {
	c := analysis.NewClassifier()
	fields := []domain.Field{
		domain.NewField("card_number", "4111 1111 1111 1111", 0.9, domain.FieldSourceLLMPrimary),
	}
	got := c.Classify("scanned card", fields, nil, domain.DocumentTypeGeneric)
	assert.Equal(t, domain.DocumentTypeCreditCard, got)
}
