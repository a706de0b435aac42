package rewrite

// perMTokenUSD is the metered rate per provider, in USD per million tokens.
// A zero rate means the provider is on a free tier in this deployment and
// its usage is reported as free rather than $0.00.
var perMTokenUSD = map[string]float64{
	ProviderGemini: 0,
	ProviderOpenAI: 0.60,
}

// estimateUsage resolves the token count (provider-reported when available,
// otherwise approximated as chars/4) and the monetary cost.
func estimateUsage(provider string, promptChars, outputChars, reportedTokens int) (tokens int, costUSD float64, free bool) {
	tokens = reportedTokens
	if tokens <= 0 {
		tokens = (promptChars + outputChars) / 4
	}

	rate, ok := perMTokenUSD[provider]
	if !ok || rate == 0 {
		return tokens, 0, true
	}
	return tokens, float64(tokens) / 1_000_000 * rate, false
}
