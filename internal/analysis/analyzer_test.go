package analysis_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docintake/internal/analysis"
	"docintake/internal/domain"
)

func newAnalyzer(minConf float64) *analysis.Analyzer {
	return analysis.NewAnalyzer(analysis.AnalyzerConfig{
		DefaultType:   domain.DocumentTypeGeneric,
		MinConfidence: minConf,
		Now:           fixedClock(2026, time.October),
	})
}

func TestAnalyze_CreditCard(t *testing.T) {
	a := newAnalyzer(0)

	res := a.Analyze("VISA 4111 1111 1111 1111 VALID THRU 12/29\nJOHN DOE", nil, nil)

	assert.Equal(t, domain.DocumentTypeCreditCard, res.Classification.Type)
	require.NotNil(t, res.Card)
	assert.Equal(t, "4111111111111111", *res.Card.PAN)
	assert.Equal(t, []string{"4111111111111111"}, valuesByKey(res.Fields, "card_number"))
	assert.Equal(t, []string{"12/29"}, valuesByKey(res.Fields, "expiry"))
	assert.Equal(t, []string{"JOHN DOE"}, valuesByKey(res.Fields, "cardholder"))
	assert.Equal(t, []string{"Visa"}, valuesByKey(res.Fields, "issuer"))
}

func TestAnalyze_KnownFieldWinsTieOverExtracted(t *testing.T) {
	a := newAnalyzer(0)
	known := domain.NewField("card_number", "4111 1111 1111 1111", 0.9, domain.FieldSourceLLMPrimary)

	res := a.Analyze("VISA 4111 1111 1111 1111 VALID THRU 12/29", []domain.Field{known}, nil)

	var cards []domain.Field
	for _, f := range res.Fields {
		if f.Key == "card_number" {
			cards = append(cards, f)
		}
	}
	require.Len(t, cards, 1)
	assert.Equal(t, known.ID, cards[0].ID)
}

func TestAnalyze_NonCardHasNoCardDetails(t *testing.T) {
	a := newAnalyzer(0)

	res := a.Analyze("City Power\nAmount Due: $84.20\nDue Date: 11/15/2026", nil, nil)

	assert.Equal(t, domain.DocumentTypeBillStatement, res.Classification.Type)
	assert.Nil(t, res.Card)
	assert.Equal(t, []string{"$84.20"}, valuesByKey(res.Fields, "amount_due"))
}

func TestAnalyze_MinConfidenceKeepsUserEdits(t *testing.T) {
	a := newAnalyzer(0.8)
	edited := domain.NewField("note", "call back", 0.1, domain.FieldSourceFused)
	weak := domain.NewField("name", "maybe", 0.5, domain.FieldSourceLLMPrimary)

	res := a.Analyze("Email: test@example.com", []domain.Field{edited, weak}, nil)

	assert.Equal(t, []string{"call back"}, valuesByKey(res.Fields, "note"))
	assert.Empty(t, valuesByKey(res.Fields, "name"))
	assert.Equal(t, []string{"test@example.com"}, valuesByKey(res.Fields, analysis.KeyEmail))
}

func TestAnalyze_InvalidDefaultFallsBackToGeneric(t *testing.T) {
	a := analysis.NewAnalyzer(analysis.AnalyzerConfig{DefaultType: "bogus"})

	assert.Equal(t, domain.DocumentTypeGeneric, a.DefaultType())
	assert.Equal(t, domain.DocumentTypeGeneric, a.Analyze("", nil, nil).Classification.Type)
}
