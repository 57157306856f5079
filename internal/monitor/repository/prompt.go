package repository

import "fmt"

func BuildMatchTickersPrompt(title, summary string) string {
	return fmt.Sprintf(`Analyze the following news text and identify whether any company listed on the Brazilian Stock Exchange (B3) is mentioned.

News: "%s
%s"

Task:
1. Identify company names or tickers.
2. Convert company names to their PRIMARY liquid ticker (e.g. Petrobras -> PETR4, Vale -> VALE3).
3. Return ONLY a JSON array of these tickers.

Rules:
- If the ticker provided in the text is valid (e.g. JBSS3), use it.
- If only the name is provided, map it to the most traded ticker.
- Ignore ETFs and indexes (IBOV, SPX).
- If no B3 company is found, return [].

Example output: ["PETR4", "WEGE3"]`, title, summary)
}

func BuildAnalyzeImpactPrompt(ticker, title, summary string) string {
	return fmt.Sprintf(`You are a financial analyst specializing in the Brazilian Stock Market (B3).
Analyze the following news item related to the company %[1]s.

News Title: %[2]s
News Summary: %[3]s

Task:
1. Determine the sentiment of the news regarding %[1]s (POSITIVE, NEGATIVE, NEUTRAL).
2. Suggest a trading signal (BUY, SELL, HOLD). Be conservative; only suggest BUY or SELL if the news is significant and has clear price impact potential.
3. Estimate the short-term price impact as a signed whole percentage (e.g. "+3%%", "-5%%").
4. Provide a very short reason (max 1 sentence) in Portuguese.

Output format (JSON only):
{
  "signal": "BUY | SELL | HOLD",
  "sentiment": "POSITIVE | NEGATIVE | NEUTRAL",
  "impact": "+N%% | -N%%",
  "reason": "Resumo do motivo em pt-br"
}`, ticker, title, summary)
}
