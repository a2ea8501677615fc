package analysis

import (
	"regexp"
	"strings"
)

type promoResult struct {
	hit   bool
	count int
}

// detectPromotional requires two distinct kinds of marketing signal.
func detectPromotional(text string) promoResult {
	count := 0
	for _, group := range [][]string{promoIncentiveVerbs, promoConditionals, promoTerms, promoUrgency, promoCTAs} {
		if containsAny(text, group) {
			count++
		}
	}
	return promoResult{hit: count >= 2, count: count}
}

type creditCardResult struct {
	hit     bool
	issuer  bool
	signals []string
}

// detectCreditCard fires on a card number with an expiry, or on a
// Luhn-valid card number with issuer, card keyword or card field context.
// Gift and loyalty cards are rejected unless a payment network is named.
func detectCreditCard(in classifierInput) creditCardResult {
	hasIssuer := containsAnyWord(in.haystack, cardNetworks)
	if containsAny(in.haystack, nonPaymentCardTerms) && !hasIssuer {
		return creditCardResult{}
	}

	sameLine, crossLine := scanCardNumbers(in.tokens)
	if len(sameLine)+len(crossLine) == 0 {
		return creditCardResult{}
	}
	hasLuhn := false
	for _, group := range [][]cardCandidate{sameLine, crossLine} {
		for _, c := range group {
			if c.luhn {
				hasLuhn = true
			}
		}
	}
	hasExpiry := hasExpiryPattern(in.tokens)
	hasCardField := false
	for _, k := range in.fieldKeys {
		if _, ok := cardKeyPAN[k]; ok || strings.Contains(k, "credit") || strings.Contains(k, "debit") {
			hasCardField = true
		}
	}
	hasKeyword := containsAny(in.haystack, cardKeywords)

	hit := hasExpiry || (hasLuhn && (hasIssuer || hasCardField || hasKeyword))
	if !hit {
		return creditCardResult{}
	}
	signals := []string{"card_number"}
	for _, s := range []struct {
		on   bool
		name string
	}{
		{hasLuhn, "card_number_luhn"},
		{hasExpiry, "card_expiry"},
		{hasIssuer, "card_issuer"},
		{hasCardField, "card_field"},
		{hasKeyword, "card_keyword"},
	} {
		if s.on {
			signals = append(signals, s.name)
		}
	}
	return creditCardResult{hit: true, issuer: hasIssuer, signals: signals}
}

type insuranceResult struct {
	hit     bool
	rxBin   bool
	count   int
	signals []string
}

// detectInsuranceCard fires on member/policy/group vocabulary, on two or
// more kinds of insurance signal, or on an RX BIN. Benefit statements are
// rejected outright.
func detectInsuranceCard(text string) insuranceResult {
	if containsAnyWord(text, insuranceAntiPatterns) {
		return insuranceResult{}
	}
	hasIndicator := containsAny(text, insuranceCardIndicators)
	hasTerm := containsAny(text, insuranceTerms)
	hasNetwork := containsAnyWord(text, insuranceNetworkTerms)
	hasInsurer := containsAnyWord(text, knownInsurers)
	rxBin := strings.Contains(text, "rx bin") || strings.Contains(text, "rxbin")

	count := 0
	var signals []string
	for _, s := range []struct {
		on   bool
		name string
	}{
		{hasIndicator, "insurance_member_vocabulary"},
		{hasTerm, "insurance_term"},
		{hasNetwork, "insurance_network"},
		{hasInsurer, "insurance_known_insurer"},
	} {
		if s.on {
			count++
			signals = append(signals, s.name)
		}
	}
	if rxBin {
		signals = append(signals, "insurance_rx_bin")
	}
	return insuranceResult{
		hit:     hasIndicator || count >= 2 || rxBin,
		rxBin:   rxBin,
		count:   count,
		signals: signals,
	}
}

type idCardResult struct {
	hit     bool
	signals []string
}

// detectIDCard needs an identity document term plus a personal attribute.
func detectIDCard(text string) idCardResult {
	if !containsAnyWord(text, idStrongTerms) || !containsAnyWord(text, idAttributeTerms) {
		return idCardResult{}
	}
	return idCardResult{hit: true, signals: []string{"id_document_term", "id_attribute"}}
}

type billResult struct {
	hit         bool
	billingTerm bool
	signals     []string
}

// detectBill fires on billing terminology, or on a payment request combined
// with a due date, invoice, service or account context.
func detectBill(text string) billResult {
	hasBillingTerm := containsAny(text, billTerms)
	hasPaymentDue := containsAny(text, billPaymentDue)

	var rule string
	switch {
	case hasBillingTerm:
		rule = "bill_billing_term"
	case hasPaymentDue && containsAny(text, billDueDate):
		rule = "bill_due_date"
	case hasPaymentDue && containsAny(text, billInvoiceTerms):
		rule = "bill_invoice"
	case hasPaymentDue && containsAnyWord(text, billServiceTerms):
		rule = "bill_service"
	case hasPaymentDue && containsAny(text, billAccountTerms):
		rule = "bill_account"
	default:
		return billResult{}
	}
	return billResult{hit: true, billingTerm: hasBillingTerm, signals: []string{rule}}
}

type receiptResult struct {
	hit        bool
	confidence float64
	signals    []string
}

var dollarAmount = regexp.MustCompile(`\$\s*[0-9]+(?:\.[0-9]{2})?`)

// detectReceipt looks for evidence of a completed transaction. Promotional
// text is never a receipt.
func detectReceipt(text string, promotional bool) receiptResult {
	if promotional {
		return receiptResult{}
	}
	hasTransactionID := containsAny(text, receiptTransactionIDs)
	hasPayment := containsAnyWord(text, receiptCardTypes) ||
		containsAny(text, receiptPaymentIndicators) ||
		containsAny(text, receiptCashIndicators)
	hasMerchant := containsAny(text, receiptMerchantIndicators)

	switch {
	case hasTransactionID && hasPayment:
		return receiptResult{hit: true, confidence: 0.95, signals: []string{"receipt_transaction_payment"}}
	case hasMerchant && hasPayment:
		return receiptResult{hit: true, confidence: 0.85, signals: []string{"receipt_merchant_payment"}}
	case containsAny(text, receiptWords) &&
		containsAny(text, receiptPaymentComplete) &&
		len(dollarAmount.FindAllStringIndex(text, 3)) >= 3:
		return receiptResult{hit: true, confidence: 0.7, signals: []string{"receipt_combined"}}
	}
	return receiptResult{}
}

type letterResult struct {
	hit     bool
	signals []string
}

// detectLetter needs both a salutation and a closing, and defers to
// promotional content.
func detectLetter(text string, promotional bool) letterResult {
	if promotional {
		return letterResult{}
	}
	if containsAny(text, letterSalutations) && containsAnyWord(text, letterClosings) {
		return letterResult{hit: true, signals: []string{"letter_salutation_closing"}}
	}
	return letterResult{}
}
