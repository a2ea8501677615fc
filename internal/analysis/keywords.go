package analysis

// Keyword tables drive the classifier and extractors. All entries are
// lowercase and matched against lowercased text.

var promoIncentiveVerbs = []string{"get $", "earn", "save $", "receive", "win", "claim", "redeem"}

var promoConditionals = []string{"when you", "if you", "after you", "you'll", "we'll", "you will", "you can"}

var promoTerms = []string{
	"promo code", "promotional code", "offer code", "offer", "promotion",
	"deal", "bonus", "reward", "free", "gift",
}

var promoUrgency = []string{
	"limited time", "expires", "ends", "by ", "hurry", "act now", "don't miss", "last chance",
}

var promoCTAs = []string{
	"sign up", "enroll", "apply now", "join now", "visit", "call now", "click here", "register",
}

var insuranceAntiPatterns = []string{
	"this is not an insurance card", "summary of benefits", "explanation of benefits",
	"eob", "claim statement", "billing statement",
}

// insuranceCardIndicators is the member/policy/group-number vocabulary.
var insuranceCardIndicators = []string{
	"member id", "member #", "member number", "subscriber id", "subscriber #",
	"policy number", "policy #", "policy no", "group number", "group #", "group no",
	"certificate number",
}

var insuranceTerms = []string{"copay", "rx bin", "rx grp", "rx pcn", "deductible", "payer id"}

var insuranceNetworkTerms = []string{"ppo", "hmo", "epo", "pos"}

var knownInsurers = []string{
	"blue cross", "blue shield", "premera", "regence", "aetna", "cigna", "kaiser",
	"vsp", "delta dental", "unitedhealthcare", "humana", "anthem", "geico", "state farm",
	"progressive", "allstate",
}

var idStrongTerms = []string{
	"driver license", "driver's license", "drivers license", "driver licence",
	"identification card", "id card", "passport", "state id", "national id",
	"permanent resident", "residence permit",
}

var idAttributeTerms = []string{
	"date of birth", "dob", "sex", "eyes", "hgt", "height", "class", "restrictions",
	"nationality", "place of birth", "donor",
}

var billTerms = []string{"billing statement", "statement of account", "billing period", "statement date"}

var billPaymentDue = []string{"amount due", "total due", "balance due", "minimum payment", "please pay"}

var billDueDate = []string{"due date", "payment due", "due by", "pay by"}

var billAccountTerms = []string{"account number", "previous balance", "current charges", "new balance"}

var billServiceTerms = []string{"utility bill", "service period", "usage", "kwh", "therms", "medical bill"}

var billInvoiceTerms = []string{"invoice number", "invoice date"}

var receiptTransactionIDs = []string{
	"receipt #", "receipt number", "transaction #", "order #", "order number", "confirmation #",
}

var receiptCardTypes = []string{"visa", "mastercard", "amex", "discover"}

var receiptPaymentIndicators = []string{"auth code", "approval", "paid with"}

var receiptCashIndicators = []string{"cash", "change:", "tendered", "amount paid"}

var receiptMerchantIndicators = []string{"store #", "cashier", "terminal", "server:", "table:"}

var receiptWords = []string{"receipt", "thank you for shopping"}

var receiptPaymentComplete = []string{"tendered", "change:", "change due"}

var letterSalutations = []string{"dear ", "to whom it may concern", "hello ", "hi ", "greetings"}

var letterClosings = []string{
	"sincerely", "regards", "best regards", "best", "yours truly", "respectfully",
	"cordially", "warm regards",
}

var nonPaymentCardTerms = []string{"gift card", "member card", "membership card", "loyalty card"}

var cardKeywords = []string{
	"credit card", "debit card", "valid thru", "valid through", "good thru",
	"expires", "card number", "cardholder",
}

// expiryKeywords mark a line as carrying the card expiry.
var expiryKeywords = []string{"valid thru", "valid through", "good thru", "thru", "exp", "expires", "expiry", "valid"}

type issuerEntry struct {
	fragment  string
	canonical string
}

// cardIssuers is ordered: banks before networks, longer fragments before
// shorter ones, so "chase visa" resolves to the bank.
var cardIssuers = []issuerEntry{
	{"bank of america", "Bank of America"},
	{"wells fargo", "Wells Fargo"},
	{"capital one", "Capital One"},
	{"chase", "Chase"},
	{"citibank", "Citi"},
	{"citi", "Citi"},
	{"barclays", "Barclays"},
	{"hsbc", "HSBC"},
	{"us bank", "U.S. Bank"},
	{"u.s. bank", "U.S. Bank"},
	{"pnc", "PNC"},
	{"td bank", "TD Bank"},
	{"navy federal", "Navy Federal"},
	{"synchrony", "Synchrony"},
	{"goldman sachs", "Goldman Sachs"},
	{"revolut", "Revolut"},
	{"monzo", "Monzo"},
	{"american express", "American Express"},
	{"amex", "American Express"},
	{"mastercard", "Mastercard"},
	{"master card", "Mastercard"},
	{"visa", "Visa"},
	{"discover", "Discover"},
	{"maestro", "Maestro"},
	{"diners club", "Diners Club"},
	{"unionpay", "UnionPay"},
	{"jcb", "JCB"},
}

// cardNetworks is the subset of issuers the classifier treats as a payment network.
var cardNetworks = []string{
	"visa", "mastercard", "master card", "amex", "american express", "discover",
	"maestro", "jcb", "diners club", "unionpay",
}

// holderStopWords reject holder candidates that contain any of these words.
var holderStopWords = map[string]struct{}{
	"visa": {}, "mastercard": {}, "amex": {}, "express": {}, "discover": {}, "maestro": {},
	"card": {}, "debit": {}, "credit": {}, "bank": {}, "valid": {}, "thru": {}, "through": {},
	"good": {}, "expires": {}, "exp": {}, "expiry": {}, "platinum": {}, "gold": {}, "silver": {},
	"titanium": {}, "signature": {}, "infinite": {}, "world": {}, "elite": {}, "rewards": {},
	"member": {}, "since": {}, "authorized": {}, "customer": {}, "service": {},
	"business": {}, "corporate": {}, "international": {}, "electronic": {}, "use": {}, "only": {},
	"not": {}, "sec": {}, "code": {}, "cvv": {}, "cvc": {}, "contactless": {}, "chip": {},
	"month": {}, "year": {}, "from": {}, "issued": {}, "call": {}, "www": {},
}

var cardKeyPAN = map[string]struct{}{
	"cardnumber": {}, "pan": {}, "creditcardnumber": {}, "debitcardnumber": {},
	"cardno": {}, "cardnum": {}, "primaryaccountnumber": {},
}

var cardKeyExpiry = map[string]struct{}{
	"expiry": {}, "expirydate": {}, "expiration": {}, "expirationdate": {}, "exp": {},
	"expdate": {}, "validthru": {}, "validthrough": {}, "goodthru": {}, "cardexpiry": {},
}

var cardKeyHolder = map[string]struct{}{
	"cardholder": {}, "cardholdername": {}, "holder": {}, "holdername": {},
	"nameoncard": {}, "cardname": {},
}

var cardKeyIssuer = map[string]struct{}{
	"issuer": {}, "cardissuer": {}, "bank": {}, "issuingbank": {},
	"network": {}, "cardnetwork": {}, "cardbrand": {}, "brand": {},
}

// phoneKeyFragments classify a normalized key as phone-like.
var phoneKeyFragments = []string{"phone", "mobile", "fax", "telephone"}

// identifierKeyFragments classify a normalized key as identifier-like.
var identifierKeyFragments = []string{"transaction", "reference", "receipt", "invoice", "order", "tracking"}

// notIdentifierSuffixes end in "id" without naming an identifier.
var notIdentifierSuffixes = []string{"paid", "valid", "void"}
